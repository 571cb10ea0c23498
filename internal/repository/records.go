package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/vfxhub/internal/apperr"
	"github.com/starford/vfxhub/internal/models"
	"github.com/starford/vfxhub/internal/records"
)

// RecordCollection adapts a records.Client table to a Repository. Field
// names are translated by the mapping on the way in and out.
type RecordCollection[T models.Record[T]] struct {
	client  records.Client
	mapping records.Mapping[T]
	entity  string
}

// NewRecordCollection creates a collection over mapping.Table.
func NewRecordCollection[T models.Record[T]](client records.Client, mapping records.Mapping[T], entity string) *RecordCollection[T] {
	return &RecordCollection[T]{client: client, mapping: mapping, entity: entity}
}

// NewRecordSet creates the three collections on client.
func NewRecordSet(client records.Client) Set {
	return Set{
		Projects:   NewRecordCollection(client, records.Projects, "Project"),
		Assets:     NewRecordCollection(client, records.Assets, "Asset"),
		Milestones: NewRecordCollection(client, records.Milestones, "Milestone"),
	}
}

func (c *RecordCollection[T]) List(ctx context.Context) ([]T, error) {
	return c.fetch(ctx, records.FetchParams{
		OrderBy: []records.OrderBy{{FieldName: records.IDField, SortType: records.SortAsc}},
	})
}

func (c *RecordCollection[T]) Get(ctx context.Context, id int) (T, error) {
	var zero T
	resp, err := c.client.GetRecordByID(ctx, c.mapping.Table, id, nil)
	if err != nil {
		return zero, fmt.Errorf("repository: get %s/%d: %w", c.mapping.Table, id, err)
	}
	if !resp.Success {
		return zero, fmt.Errorf("repository: get %s/%d: %s", c.mapping.Table, id, resp.Message)
	}
	if len(resp.Data) == 0 {
		return zero, apperr.NotFound(c.entity)
	}
	return c.mapping.FromRecord(resp.Data[0])
}

func (c *RecordCollection[T]) ListByProject(ctx context.Context, projectID int) ([]T, error) {
	field, ok := c.mapping.PlatformName("projectId")
	if !ok {
		return nil, fmt.Errorf("%w: %s has no project reference", apperr.ErrInvalid, c.entity)
	}
	return c.fetch(ctx, records.FetchParams{
		Where:   []records.Condition{{FieldName: field, Operator: records.OpEqualTo, Values: []any{projectID}}},
		OrderBy: []records.OrderBy{{FieldName: records.IDField, SortType: records.SortAsc}},
	})
}

func (c *RecordCollection[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	rec, err := c.mapping.ToRecord(v.WithID(0))
	if err != nil {
		return zero, err
	}
	resp, err := c.client.CreateRecord(ctx, c.mapping.Table, []records.Record{rec})
	if err != nil {
		return zero, fmt.Errorf("repository: create %s: %w", c.mapping.Table, err)
	}
	res, err := single(resp)
	if err != nil {
		return zero, fmt.Errorf("repository: create %s: %w", c.mapping.Table, err)
	}
	return c.mapping.FromRecord(res.Data)
}

func (c *RecordCollection[T]) Update(ctx context.Context, id int, patch map[string]any, ifMatch string) (T, error) {
	var zero T
	current, err := c.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := checkVersion(current, ifMatch); err != nil {
		return zero, err
	}
	merged, err := ApplyPatch(current, patch)
	if err != nil {
		return zero, err
	}
	rec, err := c.mapping.ToRecord(merged.WithID(id))
	if err != nil {
		return zero, err
	}
	resp, err := c.client.UpdateRecord(ctx, c.mapping.Table, []records.Record{rec})
	if err != nil {
		return zero, fmt.Errorf("repository: update %s/%d: %w", c.mapping.Table, id, err)
	}
	res, err := single(resp)
	if err != nil {
		return zero, fmt.Errorf("repository: update %s/%d: %w", c.mapping.Table, id, err)
	}
	return c.mapping.FromRecord(res.Data)
}

func (c *RecordCollection[T]) Delete(ctx context.Context, id int, ifMatch string) error {
	current, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := checkVersion(current, ifMatch); err != nil {
		return err
	}
	resp, err := c.client.DeleteRecord(ctx, c.mapping.Table, []int{id})
	if err != nil {
		return fmt.Errorf("repository: delete %s/%d: %w", c.mapping.Table, id, err)
	}
	if _, err := single(resp); err != nil {
		return apperr.NotFound(c.entity)
	}
	return nil
}

func (c *RecordCollection[T]) fetch(ctx context.Context, params records.FetchParams) ([]T, error) {
	resp, err := c.client.FetchRecords(ctx, c.mapping.Table, params)
	if err != nil {
		return nil, fmt.Errorf("repository: fetch %s: %w", c.mapping.Table, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("repository: fetch %s: %s", c.mapping.Table, resp.Message)
	}
	out := make([]T, 0, len(resp.Data))
	for _, rec := range resp.Data {
		v, err := c.mapping.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// single extracts the only result of a one-record mutation.
func single(resp *records.Response) (records.Result, error) {
	if len(resp.Results) == 0 {
		if resp.Message != "" {
			return records.Result{}, errors.New(resp.Message)
		}
		return records.Result{}, errors.New("empty response")
	}
	res := resp.Results[0]
	if res.Success {
		return res, nil
	}
	msgs := []string{}
	if res.Message != "" {
		msgs = append(msgs, res.Message)
	}
	for _, fe := range res.Errors {
		msgs = append(msgs, fe.FieldLabel+": "+fe.Message)
	}
	return res, errors.New(strings.Join(msgs, "; "))
}
