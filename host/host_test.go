package host

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/xuri/excelize/v2"

	"github.com/cellquery/sqlitefn/errs"
	"github.com/cellquery/sqlitefn/refs"
)

func mustRef(t *testing.T, token string) refs.TableReference {
	t.Helper()
	ref, err := refs.ParseReference(token)
	if err != nil {
		t.Fatalf("ParseReference(%q): %v", token, err)
	}
	return ref
}

func TestFilesystemResolverCSV(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Orders.csv"), []byte("id,name\n1,alpha\n2,beta\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := &FilesystemResolver{Dir: dir}
	table, err := r.Resolve(context.Background(), mustRef(t, "Orders"), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "id" || table.Columns[1] != "name" {
		t.Fatalf("got columns %+v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows", len(table.Rows))
	}
	if table.Rows[0][0] != int64(1) {
		t.Errorf("expected numeric id coercion, got %#v", table.Rows[0][0])
	}
}

func TestFilesystemResolverJSON(t *testing.T) {
	dir := t.TempDir()
	content := `[{"id": 1, "name": "alpha"}, {"id": 2, "name": "beta"}]`
	if err := os.WriteFile(filepath.Join(dir, "Orders.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	r := &FilesystemResolver{Dir: dir}
	table, err := r.Resolve(context.Background(), mustRef(t, "Orders"), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Columns) != 2 {
		t.Fatalf("got columns %+v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows", len(table.Rows))
	}
}

func TestFilesystemResolverAdvancedHeaderDetection(t *testing.T) {
	dir := t.TempDir()
	content := "Report generated 2026-01-01\nid,name\n1,alpha\n2,beta\n"
	if err := os.WriteFile(filepath.Join(dir, "Orders.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	r := &FilesystemResolver{Dir: dir, AdvancedHeaderDetection: true}
	table, err := r.Resolve(context.Background(), mustRef(t, "Orders"), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "id" || table.Columns[1] != "name" {
		t.Fatalf("got columns %+v", table.Columns)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows", len(table.Rows))
	}
}

func TestFilesystemResolverAmbiguousNameResolvesByExtensionPriority(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Orders.csv"), []byte("id,name\n1,alpha\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Orders.json"), []byte(`[{"id": 9, "name": "zz"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	r := &FilesystemResolver{Dir: dir}
	table, err := r.Resolve(context.Background(), mustRef(t, "Orders"), true)
	if err != nil {
		t.Fatal(err)
	}
	if table.Rows[0][0] != int64(1) {
		t.Errorf("expected the .csv candidate to win, got %+v", table.Rows)
	}
}

func TestFilesystemResolverNotFound(t *testing.T) {
	dir := t.TempDir()
	r := &FilesystemResolver{Dir: dir}
	_, err := r.Resolve(context.Background(), mustRef(t, "Missing"), true)
	if !errs.Is(err, errs.RangeResolution) {
		t.Fatalf("expected RangeResolution, got %v", err)
	}
}

func TestHTMLResolver(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`
		<html><body>
		<table id="Orders">
			<tr><td>id</td><td>name</td></tr>
			<tr><td>1</td><td>alpha</td></tr>
			<tr><td>2</td><td>beta</td></tr>
		</table>
		</body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	r := NewHTMLResolver(doc)
	table, err := r.Resolve(context.Background(), mustRef(t, "Orders"), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Columns) != 2 || len(table.Rows) != 2 {
		t.Fatalf("got %+v", table)
	}
	if table.Rows[0][0] != int64(1) {
		t.Errorf("expected numeric coercion, got %#v", table.Rows[0][0])
	}
}

func TestWorkbookResolverTableAndRange(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"
	rows := [][]string{
		{"id", "name"},
		{"1", "alpha"},
		{"2", "beta"},
	}
	for r, row := range rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			f.SetCellValue(sheet, cell, val)
		}
	}

	r := NewWorkbookResolver(f)

	table, err := r.Resolve(context.Background(), mustRef(t, "Sheet1"), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Columns) != 2 || len(table.Rows) != 2 {
		t.Fatalf("got %+v", table)
	}

	rangeRef := mustRef(t, "A1:B3")
	rangeTable, err := r.Resolve(context.Background(), rangeRef, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(rangeTable.Rows) != 2 {
		t.Fatalf("got %+v", rangeTable)
	}
}

func TestWorkbookResolverMissingSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	r := NewWorkbookResolver(f)
	ref, _ := refs.ParseReference("NoSheet.Orders")
	_, err := r.Resolve(context.Background(), ref, true)
	if !errs.Is(err, errs.RangeResolution) {
		t.Fatalf("expected RangeResolution, got %v", err)
	}
}
