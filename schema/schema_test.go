package schema

import (
	"testing"
	"time"

	"github.com/cellquery/sqlitefn/errs"
)

func TestValidateHeadersOK(t *testing.T) {
	got, err := ValidateHeaders([]any{"id", "Name", " total "})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"id", "Name", "total"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestValidateHeadersEmptyFails(t *testing.T) {
	_, err := ValidateHeaders([]any{"id", "  ", "total"})
	if !errs.Is(err, errs.EmptyColumnName) {
		t.Fatalf("got %v", err)
	}
}

func TestValidateHeadersDuplicateCaseInsensitive(t *testing.T) {
	_, err := ValidateHeaders([]any{"id", "Name", "NAME"})
	if !errs.Is(err, errs.DuplicateColumn) {
		t.Fatalf("got %v", err)
	}
	if err.Error() != `Error: duplicate column name: NAME` {
		t.Errorf("got %q", err.Error())
	}
}

func TestValidateHeadersNonString(t *testing.T) {
	got, err := ValidateHeaders([]any{1, 2.5, true})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"1", "2.5", "true"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInferColumnTypeBoolean(t *testing.T) {
	if got := InferColumnType([]any{true, false, true}); got != Integer {
		t.Errorf("got %v", got)
	}
}

func TestInferColumnTypeDatetime(t *testing.T) {
	vals := []any{time.Now(), time.Now(), nil}
	if got := InferColumnType(vals); got != Text {
		t.Errorf("got %v", got)
	}
}

func TestInferColumnTypeWholeNumeric(t *testing.T) {
	if got := InferColumnType([]any{int64(1), float64(2), int64(3)}); got != Integer {
		t.Errorf("got %v", got)
	}
	if got := InferColumnType([]any{1.0, 2.0, 3.0}); got != Integer {
		t.Errorf("got %v", got)
	}
}

func TestInferColumnTypeFractional(t *testing.T) {
	if got := InferColumnType([]any{1.5, 2.0, 3.25}); got != Real {
		t.Errorf("got %v", got)
	}
}

func TestInferColumnTypeMixedFallsBackToText(t *testing.T) {
	if got := InferColumnType([]any{1, "two", 3.0}); got != Text {
		t.Errorf("got %v", got)
	}
}

func TestInferColumnTypeAllNull(t *testing.T) {
	if got := InferColumnType([]any{nil, nil}); got != Text {
		t.Errorf("got %v", got)
	}
}

func TestSanitizeIdentifierPlain(t *testing.T) {
	if got := SanitizeIdentifier("customer_id"); got != "customer_id" {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeIdentifierReservedWord(t *testing.T) {
	if got := SanitizeIdentifier("order"); got != `"order"` {
		t.Errorf("got %q", got)
	}
}

func TestSanitizeIdentifierSpacesAndQuotes(t *testing.T) {
	if got := SanitizeIdentifier(`Total "Sales"`); got != `"Total ""Sales"""` {
		t.Errorf("got %q", got)
	}
}

func TestGenerateDDL(t *testing.T) {
	s := &TableSchema{
		EngineName: "orders",
		Columns: []ColumnSchema{
			{EngineName: "id", Type: Integer},
			{EngineName: "name", Type: Text},
		},
	}
	got := GenerateDDL(s)
	want := "CREATE TABLE orders (id INTEGER, name TEXT)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTransformCell(t *testing.T) {
	if v := TransformCell(true); v != int64(1) {
		t.Errorf("got %#v", v)
	}
	if v := TransformCell(false); v != int64(0) {
		t.Errorf("got %#v", v)
	}
	if v := TransformCell(nil); v != nil {
		t.Errorf("got %#v", v)
	}
	ts := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	if v := TransformCell(ts); v != "2024-03-05T10:30:00" {
		t.Errorf("got %#v", v)
	}
	if v := TransformCell("plain"); v != "plain" {
		t.Errorf("got %#v", v)
	}
}

func TestBuildTableSchemaEndToEnd(t *testing.T) {
	headers := []any{"id", "Name"}
	rows := [][]any{
		{int64(1), "alpha"},
		{int64(2), "beta"},
	}
	s, err := BuildTableSchema("orders", headers, rows)
	if err != nil {
		t.Fatal(err)
	}
	if s.Columns[0].Type != Integer || s.Columns[1].Type != Text {
		t.Fatalf("got %+v", s.Columns)
	}
	if s.RowCount != 2 {
		t.Errorf("got rowcount %d", s.RowCount)
	}
}
