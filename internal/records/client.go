// Package records defines the generic record-storage contract the
// production repositories talk to, and the field mapping that converts
// between platform field names and studio models.
package records

import "context"

// Record is one stored row as a field-name to value map. The id lives
// under the "Id" key.
type Record map[string]any

// IDField is the name of the primary key field on every table.
const IDField = "Id"

// Condition operators.
const (
	OpEqualTo     = "EqualTo"
	OpNotEqualTo  = "NotEqualTo"
	OpContains    = "Contains"
	OpGreaterThan = "GreaterThan"
	OpLessThan    = "LessThan"
)

// Sort directions.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// Condition restricts a fetch. A record matches when the field satisfies the
// operator for any of Values.
type Condition struct {
	FieldName string `json:"FieldName"`
	Operator  string `json:"Operator"`
	Values    []any  `json:"Values"`
}

// OrderBy sorts a fetch.
type OrderBy struct {
	FieldName string `json:"fieldName"`
	SortType  string `json:"sorttype"`
}

// FetchParams selects fields and filters rows. An empty Fields list returns
// every field.
type FetchParams struct {
	Fields  []string    `json:"fields"`
	Where   []Condition `json:"where"`
	OrderBy []OrderBy   `json:"orderBy"`
}

// FieldError reports a problem with one field of one record.
type FieldError struct {
	FieldLabel string `json:"fieldLabel"`
	Message    string `json:"message"`
}

// Result is the outcome for one record of a batch mutation.
type Result struct {
	Success bool         `json:"success"`
	Data    Record       `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Response is returned by every operation. Fetches fill Data; mutations
// fill Results with one entry per input record or id.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    []Record `json:"data,omitempty"`
	Results []Result `json:"results,omitempty"`
}

// Client is the record storage contract. Implementations report
// operation-level failures through Response.Success and Message, and
// reserve the error return for transport or storage faults.
type Client interface {
	FetchRecords(ctx context.Context, table string, params FetchParams) (*Response, error)
	GetRecordByID(ctx context.Context, table string, id int, fields []string) (*Response, error)
	CreateRecord(ctx context.Context, table string, recs []Record) (*Response, error)
	UpdateRecord(ctx context.Context, table string, recs []Record) (*Response, error)
	DeleteRecord(ctx context.Context, table string, ids []int) (*Response, error)
}
