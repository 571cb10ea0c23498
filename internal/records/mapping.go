package records

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/starford/vfxhub/internal/models"
)

// Field maps one canonical (JSON) model field to its platform name.
type Field struct {
	Name     string
	Platform string
	// Decode converts a platform value to the canonical JSON value.
	Decode func(any) (any, error)
	// Encode converts a canonical JSON value to the platform value.
	Encode func(any) any
}

// Mapping is the single place where platform field names are bridged to
// model field names.
type Mapping[T any] struct {
	Table  string
	Fields []Field
}

// ToRecord converts a model to a platform record. The id is omitted when
// zero so creates get a store-assigned id.
func (m Mapping[T]) ToRecord(v T) (Record, error) {
	canonical, err := toMap(v)
	if err != nil {
		return nil, err
	}
	rec := Record{}
	if id, ok := canonical[IDField]; ok {
		if n, _ := toInt(id); n != 0 {
			rec[IDField] = n
		}
	}
	for _, f := range m.Fields {
		val, ok := canonical[f.Name]
		if !ok {
			continue
		}
		if f.Encode != nil {
			val = f.Encode(val)
		}
		rec[f.Platform] = val
	}
	return rec, nil
}

// FromRecord converts a platform record to a model. Each field is read from
// its platform name first and its canonical name second, so records written
// by either convention load.
func (m Mapping[T]) FromRecord(rec Record) (T, error) {
	var out T
	canonical := map[string]any{}
	if id, ok := rec[IDField]; ok {
		n, err := toInt(id)
		if err != nil {
			return out, fmt.Errorf("records: %s.%s: %w", m.Table, IDField, err)
		}
		canonical[IDField] = n
	}
	for _, f := range m.Fields {
		val, ok := rec[f.Platform]
		if !ok {
			val, ok = rec[f.Name]
		}
		if !ok || val == nil {
			continue
		}
		if f.Decode != nil {
			decoded, err := f.Decode(val)
			if err != nil {
				return out, fmt.Errorf("records: %s.%s: %w", m.Table, f.Platform, err)
			}
			val = decoded
		}
		canonical[f.Name] = val
	}
	data, err := json.Marshal(canonical)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("records: decode %s: %w", m.Table, err)
	}
	return out, nil
}

// PlatformName returns the platform field name for a canonical name.
func (m Mapping[T]) PlatformName(name string) (string, bool) {
	if name == IDField {
		return IDField, true
	}
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Platform, true
		}
	}
	return "", false
}

// Projects maps models.Project to the project_c table.
var Projects = Mapping[models.Project]{
	Table: "project_c",
	Fields: []Field{
		{Name: "title", Platform: "title_c"},
		{Name: "client", Platform: "client_c"},
		{Name: "status", Platform: "status_c"},
		{Name: "dueDate", Platform: "due_date_c"},
		{Name: "description", Platform: "description_c"},
		{Name: "createdAt", Platform: "created_at_c"},
	},
}

// Assets maps models.Asset to the asset_c table. Tags are stored as the
// platform's comma-separated Tags field.
var Assets = Mapping[models.Asset]{
	Table: "asset_c",
	Fields: []Field{
		{Name: "fileName", Platform: "file_name_c"},
		{Name: "fileType", Platform: "file_type_c"},
		{Name: "fileSize", Platform: "file_size_c"},
		{Name: "projectId", Platform: "project_id_c", Decode: decodeLookup},
		{Name: "uploadDate", Platform: "upload_date_c"},
		{Name: "thumbnailUrl", Platform: "thumbnail_url_c"},
		{Name: "tags", Platform: "Tags", Decode: decodeTags, Encode: encodeTags},
	},
}

// Milestones maps models.Milestone to the milestone_c table.
var Milestones = Mapping[models.Milestone]{
	Table: "milestone_c",
	Fields: []Field{
		{Name: "title", Platform: "title_c"},
		{Name: "description", Platform: "description_c"},
		{Name: "dueDate", Platform: "due_date_c"},
		{Name: "completed", Platform: "completed_c"},
		{Name: "projectId", Platform: "project_id_c", Decode: decodeLookup},
	},
}

// decodeLookup collapses a lookup value ({"Id": 3, "Name": "..."}), a
// number or a numeric string into an integer id.
func decodeLookup(v any) (any, error) {
	if obj, ok := v.(map[string]any); ok {
		v = obj[IDField]
	}
	if v == nil {
		return nil, nil
	}
	return toInt(v)
}

func decodeTags(v any) (any, error) {
	switch t := v.(type) {
	case string:
		out := []string{}
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []any:
		return t, nil
	default:
		return nil, fmt.Errorf("unexpected tags value %T", v)
	}
}

func encodeTags(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, ",")
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("non-integer id %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}
