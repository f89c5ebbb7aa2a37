package engine

import (
	"context"
	"testing"

	"github.com/cellquery/sqlitefn/schema"
)

func TestSplitStatementsBasic(t *testing.T) {
	got := SplitStatements("SELECT 'a;b'; SELECT 1")
	if len(got) != 2 {
		t.Fatalf("got %d statements: %+v", len(got), got)
	}
	if got[0] != "SELECT 'a;b'" || got[1] != "SELECT 1" {
		t.Fatalf("got %+v", got)
	}
}

func TestSplitStatementsDiscardsEmpty(t *testing.T) {
	got := SplitStatements("SELECT 1;; SELECT 2;")
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestHasUnquotedSemicolon(t *testing.T) {
	if !HasUnquotedSemicolon("SELECT 1; SELECT 2") {
		t.Error("expected true")
	}
	if HasUnquotedSemicolon("SELECT 'a;b'") {
		t.Error("expected false")
	}
}

func TestDetectQueryType(t *testing.T) {
	cases := map[string]QueryType{
		"SELECT 1":                            Select,
		"  insert into t values (1)":           Insert,
		"UPDATE t SET x=1":                     Update,
		"DELETE FROM t":                        Delete,
		"CREATE TABLE t (x)":                   Create,
		"DROP TABLE t":                         Drop,
		"PRAGMA foreign_keys":                  Pragma,
		"EXPLAIN SELECT 1":                     Explain,
		"WITH c AS (SELECT 1) SELECT * FROM c": Select,
		"":                                     Empty,
		"VACUUM":                               Other,
	}
	for q, want := range cases {
		if got := DetectQueryType(q); got != want {
			t.Errorf("DetectQueryType(%q) = %v, want %v", q, got, want)
		}
	}
}

func TestExecuteQuerySelect(t *testing.T) {
	ctx := context.Background()
	e, err := Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	s := &schema.TableSchema{
		EngineName: "orders",
		Columns: []schema.ColumnSchema{
			{EngineName: "id", Type: schema.Integer},
			{EngineName: "name", Type: schema.Text},
		},
	}
	rows := [][]any{{int64(1), "alpha"}, {int64(2), "beta"}}
	if err := e.LoadTable(ctx, s, rows); err != nil {
		t.Fatal(err)
	}

	result, err := e.ExecuteQuery(ctx, "SELECT * FROM orders WHERE id = ?", []any{int64(1)})
	if err != nil {
		t.Fatal(err)
	}
	if result.QueryType != Select || result.RowCount != 1 {
		t.Fatalf("got %+v", result)
	}
}

func TestExecuteQueryInsert(t *testing.T) {
	ctx := context.Background()
	e, err := Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if _, err := e.ExecuteQuery(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)", nil); err != nil {
		t.Fatal(err)
	}
	result, err := e.ExecuteQuery(ctx, "INSERT INTO t (v) VALUES (?)", []any{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if result.QueryType != Insert || result.RowCount != 1 || result.LastInsertID == nil {
		t.Fatalf("got %+v", result)
	}
}

func TestExecuteMultiStatement(t *testing.T) {
	ctx := context.Background()
	e, err := Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	statements := SplitStatements("CREATE TABLE t (x INTEGER); INSERT INTO t VALUES (1); SELECT * FROM t")
	result, err := e.ExecuteMultiStatement(ctx, statements)
	if err != nil {
		t.Fatal(err)
	}
	if result.QueryType != Select || result.RowCount != 1 {
		t.Fatalf("got %+v", result)
	}
}

func TestExecuteQueryTableNotFound(t *testing.T) {
	ctx := context.Background()
	e, err := Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	_, err = e.ExecuteQuery(ctx, "SELECT * FROM missing", nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRecursiveCTE(t *testing.T) {
	ctx := context.Background()
	e, err := Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	result, err := e.ExecuteQuery(ctx,
		"WITH RECURSIVE cnt(x) AS (SELECT 1 UNION ALL SELECT x+1 FROM cnt WHERE x < 5) SELECT x FROM cnt", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.RowCount != 5 {
		t.Fatalf("got %+v", result)
	}
}
