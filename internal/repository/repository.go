// Package repository provides the studio collections over two backends:
// whole-collection documents (mock mode) and the generic record storage
// contract (production mode).
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/starford/vfxhub/internal/apperr"
	"github.com/starford/vfxhub/internal/checksum"
	"github.com/starford/vfxhub/internal/models"
)

// Repository is the CRUD surface of one collection.
type Repository[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int) (T, error)
	ListByProject(ctx context.Context, projectID int) ([]T, error)
	Create(ctx context.Context, v T) (T, error)
	// Update merges patch into the stored record. A non-empty ifMatch must
	// equal the record's current Version.
	Update(ctx context.Context, id int, patch map[string]any, ifMatch string) (T, error)
	Delete(ctx context.Context, id int, ifMatch string) error
}

// Set groups the three studio collections.
type Set struct {
	Projects   Repository[models.Project]
	Assets     Repository[models.Asset]
	Milestones Repository[models.Milestone]
}

// Version returns the version stamp of a record.
func Version(v any) string {
	sum, err := checksum.Of(v)
	if err != nil {
		return ""
	}
	return sum
}

func checkVersion(current any, ifMatch string) error {
	if ifMatch != "" && ifMatch != Version(current) {
		return apperr.ErrConflict
	}
	return nil
}

// ApplyPatch overlays patch on the JSON form of current. The Id key is
// ignored so a patch never moves a record.
func ApplyPatch[T any](current T, patch map[string]any) (T, error) {
	var out T
	data, err := json.Marshal(current)
	if err != nil {
		return out, err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(data, &merged); err != nil {
		return out, err
	}
	for k, v := range patch {
		if k == "Id" {
			continue
		}
		merged[k] = v
	}
	data, err = json.Marshal(merged)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	return out, nil
}

func nextID[T models.Record[T]](items []T) int {
	max := 0
	for _, it := range items {
		if id := it.RecordID(); id > max {
			max = id
		}
	}
	return max + 1
}
