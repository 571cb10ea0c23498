package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/starford/vfxhub/internal/checksum"
	"github.com/starford/vfxhub/internal/records"
)

var _ records.Client = (*DB)(nil)

var fieldNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

const (
	msgNotFound    = "Record does not exist"
	msgMissingID   = "Record Id is required"
	msgUnknownOp   = "Unsupported operator"
	msgInvalidName = "Invalid field name"
)

// FetchRecords returns the rows of table matching every condition, ordered
// by params.OrderBy and then by id.
func (db *DB) FetchRecords(ctx context.Context, table string, params records.FetchParams) (*records.Response, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT data FROM records WHERE table_name = ?`)
	args := []any{table}

	for _, c := range params.Where {
		clause, cargs, err := conditionSQL(c)
		if err != nil {
			return &records.Response{Success: false, Message: err.Error()}, nil
		}
		query.WriteString(" AND ")
		query.WriteString(clause)
		args = append(args, cargs...)
	}

	query.WriteString(" ORDER BY ")
	for _, o := range params.OrderBy {
		if !fieldNameRe.MatchString(o.FieldName) {
			return &records.Response{Success: false, Message: msgInvalidName + ": " + o.FieldName}, nil
		}
		dir := "ASC"
		if strings.EqualFold(o.SortType, records.SortDesc) {
			dir = "DESC"
		}
		query.WriteString("json_extract(data, ?) " + dir + ", ")
		args = append(args, jsonPath(o.FieldName))
	}
	query.WriteString("id ASC")

	rows, err := db.conn.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("recordstore: fetch %s: %w", table, err)
	}
	defer rows.Close()

	out := []records.Record{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		rec, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("recordstore: fetch %s: %w", table, err)
		}
		out = append(out, project(rec, params.Fields))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &records.Response{Success: true, Data: out}, nil
}

// GetRecordByID returns one record. A missing record yields a successful
// response with no data.
func (db *DB) GetRecordByID(ctx context.Context, table string, id int, fields []string) (*records.Response, error) {
	var raw string
	err := db.conn.QueryRowContext(ctx,
		`SELECT data FROM records WHERE table_name = ? AND id = ?`, table, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return &records.Response{Success: true, Data: []records.Record{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("recordstore: get %s/%d: %w", table, id, err)
	}
	rec, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("recordstore: get %s/%d: %w", table, id, err)
	}
	return &records.Response{Success: true, Data: []records.Record{project(rec, fields)}}, nil
}

// CreateRecord inserts every record inside one transaction. Each record
// gets the next id of its table; any supplied id is ignored.
func (db *DB) CreateRecord(ctx context.Context, table string, recs []records.Record) (*records.Response, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("recordstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM records WHERE table_name = ?`, table).Scan(&next); err != nil {
		return nil, fmt.Errorf("recordstore: next id: %w", err)
	}

	results := make([]records.Result, 0, len(recs))
	for _, in := range recs {
		rec := clone(in)
		rec[records.IDField] = next
		if err := upsert(ctx, tx, table, next, rec); err != nil {
			return nil, err
		}
		results = append(results, records.Result{Success: true, Data: rec})
		next++
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("recordstore: commit: %w", err)
	}
	return &records.Response{Success: true, Results: results}, nil
}

// UpdateRecord overwrites the supplied fields of existing records. Fields
// not present in the input keep their stored values.
func (db *DB) UpdateRecord(ctx context.Context, table string, recs []records.Record) (*records.Response, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("recordstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	results := make([]records.Result, 0, len(recs))
	for _, in := range recs {
		id, ok := recordID(in)
		if !ok {
			results = append(results, records.Result{Success: false, Message: msgMissingID})
			continue
		}
		var raw string
		err := tx.QueryRowContext(ctx,
			`SELECT data FROM records WHERE table_name = ? AND id = ?`, table, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			results = append(results, records.Result{Success: false, Message: msgNotFound})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("recordstore: update %s/%d: %w", table, id, err)
		}
		stored, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("recordstore: update %s/%d: %w", table, id, err)
		}
		for k, v := range in {
			stored[k] = v
		}
		stored[records.IDField] = id
		if err := upsert(ctx, tx, table, id, stored); err != nil {
			return nil, err
		}
		results = append(results, records.Result{Success: true, Data: stored})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("recordstore: commit: %w", err)
	}
	return &records.Response{Success: allSucceeded(results), Results: results}, nil
}

// DeleteRecord removes records by id.
func (db *DB) DeleteRecord(ctx context.Context, table string, ids []int) (*records.Response, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("recordstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	results := make([]records.Result, 0, len(ids))
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM records WHERE table_name = ? AND id = ?`, table, id)
		if err != nil {
			return nil, fmt.Errorf("recordstore: delete %s/%d: %w", table, id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			results = append(results, records.Result{Success: false, Message: msgNotFound})
			continue
		}
		results = append(results, records.Result{Success: true, Data: records.Record{records.IDField: id}})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("recordstore: commit: %w", err)
	}
	return &records.Response{Success: allSucceeded(results), Results: results}, nil
}

func upsert(ctx context.Context, tx *sql.Tx, table string, id int, rec records.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("recordstore: encode %s/%d: %w", table, id, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (table_name, id, data, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(table_name, id) DO UPDATE SET
			data       = excluded.data,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, table, id, string(data), checksum.Sum(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recordstore: upsert %s/%d: %w", table, id, err)
	}
	return nil
}

// conditionSQL renders one condition. Values are OR-ed together; text
// comparisons for Contains are case-insensitive.
func conditionSQL(c records.Condition) (string, []any, error) {
	if !fieldNameRe.MatchString(c.FieldName) {
		return "", nil, fmt.Errorf("%s: %s", msgInvalidName, c.FieldName)
	}
	var expr string
	switch c.Operator {
	case records.OpEqualTo:
		expr = "json_extract(data, ?) = ?"
	case records.OpNotEqualTo:
		expr = "json_extract(data, ?) IS NOT ?"
	case records.OpContains:
		expr = "instr(lower(CAST(json_extract(data, ?) AS TEXT)), lower(?)) > 0"
	case records.OpGreaterThan:
		expr = "json_extract(data, ?) > ?"
	case records.OpLessThan:
		expr = "json_extract(data, ?) < ?"
	default:
		return "", nil, fmt.Errorf("%s: %s", msgUnknownOp, c.Operator)
	}
	if len(c.Values) == 0 {
		return "1 = 0", nil, nil
	}
	path := jsonPath(c.FieldName)
	parts := make([]string, 0, len(c.Values))
	args := make([]any, 0, 2*len(c.Values))
	for _, v := range c.Values {
		parts = append(parts, expr)
		args = append(args, path, sqlValue(v))
	}
	joiner := " OR "
	if c.Operator == records.OpNotEqualTo {
		joiner = " AND "
	}
	return "(" + strings.Join(parts, joiner) + ")", args, nil
}

func jsonPath(field string) string {
	return `$."` + field + `"`
}

// sqlValue converts JSON-ish values to what json_extract returns for them.
func sqlValue(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return v
	}
}

func decode(raw string) (records.Record, error) {
	var rec records.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func project(rec records.Record, fields []string) records.Record {
	if len(fields) == 0 {
		return rec
	}
	out := records.Record{records.IDField: rec[records.IDField]}
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

func clone(rec records.Record) records.Record {
	out := make(records.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func recordID(rec records.Record) (int, bool) {
	switch n := rec[records.IDField].(type) {
	case int:
		return n, n > 0
	case int64:
		return int(n), n > 0
	case float64:
		return int(n), n > 0
	default:
		return 0, false
	}
}

func allSucceeded(results []records.Result) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}
