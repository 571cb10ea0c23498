package recordstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/starford/vfxhub/internal/records"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *DB, table string, recs ...records.Record) {
	t.Helper()
	resp, err := db.CreateRecord(context.Background(), table, recs)
	if err != nil || !resp.Success {
		t.Fatalf("CreateRecord: %v %+v", err, resp)
	}
}

func ids(t *testing.T, resp *records.Response) []int {
	t.Helper()
	out := []int{}
	for _, r := range resp.Data {
		switch n := r[records.IDField].(type) {
		case float64:
			out = append(out, int(n))
		case int:
			out = append(out, n)
		default:
			t.Fatalf("unexpected id %T", n)
		}
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM records`).Scan(&count); err != nil {
		t.Fatalf("records table missing: %v", err)
	}
}

func TestCreateAssignsSequentialIDsPerTable(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	resp, err := db.CreateRecord(ctx, "project_c", []records.Record{
		{"title_c": "A"}, {"title_c": "B", records.IDField: 99},
	})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d", len(resp.Results))
	}
	if resp.Results[0].Data[records.IDField] != 1 || resp.Results[1].Data[records.IDField] != 2 {
		t.Errorf("ids = %v, %v", resp.Results[0].Data[records.IDField], resp.Results[1].Data[records.IDField])
	}

	seed(t, db, "milestone_c", records.Record{"title_c": "M"})
	got, _ := db.FetchRecords(ctx, "milestone_c", records.FetchParams{})
	if !equalInts(ids(t, got), []int{1}) {
		t.Errorf("milestone ids = %v, want [1]", ids(t, got))
	}
}

func TestCreateAfterDeleteUsesMaxPlusOne(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seed(t, db, "t", records.Record{}, records.Record{}, records.Record{})
	if _, err := db.DeleteRecord(ctx, "t", []int{2}); err != nil {
		t.Fatal(err)
	}
	resp, _ := db.CreateRecord(ctx, "t", []records.Record{{}})
	if resp.Results[0].Data[records.IDField] != 4 {
		t.Errorf("id = %v, want 4", resp.Results[0].Data[records.IDField])
	}
}

func TestFetchWhereOperators(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seed(t, db, "milestone_c",
		records.Record{"title_c": "Layout", "project_id_c": 1, "completed_c": false, "due_date_c": "2024-01-10"},
		records.Record{"title_c": "Lighting pass", "project_id_c": 2, "completed_c": true, "due_date_c": "2024-02-01"},
		records.Record{"title_c": "Final comp", "project_id_c": 1, "completed_c": true, "due_date_c": "2024-03-01"},
	)

	tests := []struct {
		name string
		cond records.Condition
		want []int
	}{
		{"equal int", records.Condition{FieldName: "project_id_c", Operator: records.OpEqualTo, Values: []any{1}}, []int{1, 3}},
		{"equal any of", records.Condition{FieldName: "project_id_c", Operator: records.OpEqualTo, Values: []any{1, 2}}, []int{1, 2, 3}},
		{"equal bool", records.Condition{FieldName: "completed_c", Operator: records.OpEqualTo, Values: []any{true}}, []int{2, 3}},
		{"not equal", records.Condition{FieldName: "project_id_c", Operator: records.OpNotEqualTo, Values: []any{1}}, []int{2}},
		{"contains case-insensitive", records.Condition{FieldName: "title_c", Operator: records.OpContains, Values: []any{"LIGHT"}}, []int{2}},
		{"greater than", records.Condition{FieldName: "due_date_c", Operator: records.OpGreaterThan, Values: []any{"2024-01-31"}}, []int{2, 3}},
		{"less than", records.Condition{FieldName: "due_date_c", Operator: records.OpLessThan, Values: []any{"2024-01-31"}}, []int{1}},
		{"no values", records.Condition{FieldName: "title_c", Operator: records.OpEqualTo}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := db.FetchRecords(ctx, "milestone_c", records.FetchParams{Where: []records.Condition{tt.cond}})
			if err != nil {
				t.Fatalf("FetchRecords: %v", err)
			}
			if !resp.Success {
				t.Fatalf("unsuccessful: %s", resp.Message)
			}
			if got := ids(t, resp); !equalInts(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFetchRejectsBadInput(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	resp, err := db.FetchRecords(ctx, "t", records.FetchParams{
		Where: []records.Condition{{FieldName: "x') OR 1=1 --", Operator: records.OpEqualTo, Values: []any{1}}},
	})
	if err != nil {
		t.Fatalf("FetchRecords: %v", err)
	}
	if resp.Success {
		t.Error("expected failure for invalid field name")
	}

	resp, _ = db.FetchRecords(ctx, "t", records.FetchParams{
		Where: []records.Condition{{FieldName: "x", Operator: "Like", Values: []any{1}}},
	})
	if resp.Success {
		t.Error("expected failure for unknown operator")
	}
}

func TestFetchOrderAndFields(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seed(t, db, "project_c",
		records.Record{"title_c": "B", "client_c": "x"},
		records.Record{"title_c": "C", "client_c": "y"},
		records.Record{"title_c": "A", "client_c": "z"},
	)

	resp, err := db.FetchRecords(ctx, "project_c", records.FetchParams{
		Fields:  []string{"title_c"},
		OrderBy: []records.OrderBy{{FieldName: "title_c", SortType: records.SortDesc}},
	})
	if err != nil {
		t.Fatalf("FetchRecords: %v", err)
	}
	if got := ids(t, resp); !equalInts(got, []int{2, 1, 3}) {
		t.Errorf("order = %v, want [2 1 3]", got)
	}
	if _, ok := resp.Data[0]["client_c"]; ok {
		t.Error("unrequested field returned")
	}
}

func TestGetRecordByID(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seed(t, db, "asset_c", records.Record{"file_name_c": "plate.exr"})

	resp, err := db.GetRecordByID(ctx, "asset_c", 1, nil)
	if err != nil {
		t.Fatalf("GetRecordByID: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0]["file_name_c"] != "plate.exr" {
		t.Errorf("data = %+v", resp.Data)
	}

	resp, err = db.GetRecordByID(ctx, "asset_c", 42, nil)
	if err != nil {
		t.Fatalf("GetRecordByID missing: %v", err)
	}
	if !resp.Success || len(resp.Data) != 0 {
		t.Errorf("missing record response = %+v", resp)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seed(t, db, "project_c", records.Record{"title_c": "Old", "client_c": "Acme"})

	resp, err := db.UpdateRecord(ctx, "project_c", []records.Record{
		{records.IDField: 1, "title_c": "New"},
		{records.IDField: 7, "title_c": "Ghost"},
		{"title_c": "No id"},
	})
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if resp.Success {
		t.Error("batch with failures should not be successful")
	}
	if !resp.Results[0].Success || resp.Results[1].Success || resp.Results[2].Success {
		t.Errorf("results = %+v", resp.Results)
	}
	if resp.Results[1].Message != msgNotFound || resp.Results[2].Message != msgMissingID {
		t.Errorf("messages = %q, %q", resp.Results[1].Message, resp.Results[2].Message)
	}

	got, _ := db.GetRecordByID(ctx, "project_c", 1, nil)
	if got.Data[0]["title_c"] != "New" || got.Data[0]["client_c"] != "Acme" {
		t.Errorf("stored = %+v", got.Data[0])
	}
}

func TestDeleteRecord(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seed(t, db, "t", records.Record{})

	resp, err := db.DeleteRecord(ctx, "t", []int{1, 5})
	if err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if !resp.Results[0].Success || resp.Results[1].Success {
		t.Errorf("results = %+v", resp.Results)
	}
	var cs string
	err = db.conn.QueryRow(`SELECT checksum FROM records WHERE table_name = 't' AND id = 1`).Scan(&cs)
	if err == nil {
		t.Error("deleted row still present")
	}
}
