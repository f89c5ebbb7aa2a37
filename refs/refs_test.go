package refs

import (
	"reflect"
	"testing"
)

func TestBuildSearchProjectionMasksLiteralsAndComments(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  string
	}{
		{
			"line comment",
			"SELECT 1 -- FROM Orders\n",
			"SELECT 1               \n",
		},
		{
			"block comment",
			"SELECT /* FROM Orders */ 1",
			"SELECT                   1",
		},
		{
			"string literal blanked",
			"SELECT 'a?b'",
			"SELECT      ",
		},
		{
			"quoted sheet preserved",
			"FROM 'My Sheet'.Orders",
			"FROM 'My Sheet'.Orders",
		},
		{
			"double quoted identifier kept",
			`SELECT "col" FROM t`,
			`SELECT "col" FROM t`,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := BuildSearchProjection(c.query)
			if got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
			if len(got) != len(c.query) {
				t.Errorf("projection length %d != query length %d", len(got), len(c.query))
			}
		})
	}
}

func TestExtractReferencesBasic(t *testing.T) {
	refs := ExtractReferences("SELECT * FROM Orders")
	if len(refs) != 1 || refs[0].Table != "Orders" || refs[0].EngineName != "orders" {
		t.Fatalf("got %+v", refs)
	}
}

func TestExtractReferencesDeduped(t *testing.T) {
	refs := ExtractReferences("SELECT * FROM Orders o JOIN Orders p ON 1=1")
	if len(refs) != 1 {
		t.Fatalf("expected 1 deduped reference, got %d: %+v", len(refs), refs)
	}
}

func TestExtractReferencesIgnoresLiteralsAndComments(t *testing.T) {
	query := "SELECT * FROM Orders WHERE name = 'FROM NotATable' -- FROM CommentTable\n/* FROM BlockTable */"
	refs := ExtractReferences(query)
	if len(refs) != 1 || refs[0].Table != "Orders" {
		t.Fatalf("got %+v", refs)
	}
}

func TestExtractReferencesCTEStillDiscovered(t *testing.T) {
	// Known gap (spec.md §9): CTE names are not excluded in v1.
	query := "WITH recent AS (SELECT 1) SELECT * FROM recent JOIN Orders ON 1=1"
	refs := ExtractReferences(query)
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Table
	}
	if !reflect.DeepEqual(names, []string{"recent", "Orders"}) {
		t.Fatalf("got %+v", names)
	}
}

func TestExtractReferencesSheetQualified(t *testing.T) {
	refs := ExtractReferences("SELECT * FROM Sheet1.Orders")
	if len(refs) != 1 {
		t.Fatalf("got %+v", refs)
	}
	r := refs[0]
	if r.Sheet != "Sheet1" || r.Table != "Orders" || r.EngineName != "sheet1_orders" {
		t.Fatalf("got %+v", r)
	}
}

func TestExtractReferencesQuotedSheet(t *testing.T) {
	refs := ExtractReferences("SELECT * FROM 'My Sheet'.Orders")
	if len(refs) != 1 {
		t.Fatalf("got %+v", refs)
	}
	r := refs[0]
	if r.Sheet != "My Sheet" || r.Table != "Orders" || r.EngineName != "my_sheet_orders" {
		t.Fatalf("got %+v", r)
	}
}

func TestExtractReferencesRange(t *testing.T) {
	refs := ExtractReferences("SELECT * FROM A1:M100")
	if len(refs) != 1 {
		t.Fatalf("got %+v", refs)
	}
	r := refs[0]
	if !r.IsRange() || r.Range != "A1:M100" || r.EngineName != "a1_m100" {
		t.Fatalf("got %+v", r)
	}
}

func TestExtractReferencesCrossSheetRange(t *testing.T) {
	refs := ExtractReferences("SELECT * FROM Sheet2!A1:B50")
	if len(refs) != 1 {
		t.Fatalf("got %+v", refs)
	}
	r := refs[0]
	if r.Sheet != "Sheet2" || r.Range != "A1:B50" || r.EngineName != "sheet2_a1_b50" {
		t.Fatalf("got %+v", r)
	}
}

func TestExtractReferencesAnchorAbsolute(t *testing.T) {
	refs := ExtractReferences("SELECT * FROM $A$1:$M$100")
	if len(refs) != 1 {
		t.Fatalf("got %+v", refs)
	}
	if refs[0].Range != "$A$1:$M$100" {
		t.Fatalf("got %+v", refs[0])
	}
}

func TestExtractReferencesInsertUpdate(t *testing.T) {
	refs := ExtractReferences("INSERT INTO Orders VALUES (1)")
	if len(refs) != 1 || refs[0].Table != "Orders" {
		t.Fatalf("got %+v", refs)
	}

	refs = ExtractReferences("UPDATE Orders SET x = 1")
	if len(refs) != 1 || refs[0].Table != "Orders" {
		t.Fatalf("got %+v", refs)
	}
}

func TestEngineNameDigitPrefix(t *testing.T) {
	ref, err := ParseReference("123Table")
	if err != nil {
		t.Fatal(err)
	}
	if ref.EngineName != "r_123table" {
		t.Fatalf("got %q", ref.EngineName)
	}
}

func TestEngineNameEmptyFallback(t *testing.T) {
	name := deriveEngineName("", "", "")
	if name != "table_ref" {
		t.Fatalf("got %q", name)
	}
}

func TestCountParameters(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"SELECT * FROM t WHERE x = ?", 1},
		{"SELECT * FROM t WHERE name = 'a?b' AND x = ?", 1},
		{"SELECT * FROM t", 0},
		{"SELECT * FROM t WHERE a=? AND b=? AND c=?", 3},
	}
	for _, c := range cases {
		if got := CountParameters(c.query); got != c.want {
			t.Errorf("CountParameters(%q) = %d, want %d", c.query, got, c.want)
		}
	}
}

func TestParseReferenceEmptyFails(t *testing.T) {
	if _, err := ParseReference("   "); err == nil {
		t.Fatal("expected error for empty reference")
	}
}
