package refs

import (
	"regexp"
	"strings"

	"github.com/cellquery/sqlitefn/errs"
)

// TableReference is the canonical form of one spreadsheet-side reference
// discovered in a query.
type TableReference struct {
	Original   string // exact substring as it appeared in the query
	Sheet      string // optional sheet name, quotes stripped
	Table      string // set iff this is a named-table reference
	Range      string // set iff this is a range reference, upper-cased
	EngineName string // derived identifier, unique within one invocation
}

// IsRange reports whether this reference names a cell range.
func (r TableReference) IsRange() bool { return r.Range != "" }

// IsTable reports whether this reference names a table.
func (r TableReference) IsTable() bool { return r.Table != "" }

var (
	rangeOnlyRe      = regexp.MustCompile(`(?i)^\$?[A-Z]+\$?[0-9]+:\$?[A-Z]+\$?[0-9]+$`)
	crossSheetRangeRe = regexp.MustCompile(`(?i)^(?:'([^']+)'|([^!]+))!(\$?[A-Z]+\$?[0-9]+:\$?[A-Z]+\$?[0-9]+)$`)
	sheetTableRe     = regexp.MustCompile(`(?s)^(?:'([^']+)'|([^.]+))\.(.+)$`)
)

// ParseReference classifies a single extracted token into its canonical
// TableReference form. An empty token is a reference-syntax error; any
// other token always parses (worst case as a bare table name).
func ParseReference(token string) (TableReference, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return TableReference{}, errs.NewQuerySyntax("reference cannot be empty")
	}

	if rangeOnlyRe.MatchString(token) {
		return buildReference(token, "", "", strings.ToUpper(token)), nil
	}

	if m := crossSheetRangeRe.FindStringSubmatch(token); m != nil {
		sheet := m[1]
		if sheet == "" {
			sheet = m[2]
		}
		return buildReference(token, sheet, "", strings.ToUpper(m[3])), nil
	}

	if m := sheetTableRe.FindStringSubmatch(token); m != nil {
		sheet := m[1]
		if sheet == "" {
			sheet = m[2]
		}
		return buildReference(token, sheet, unwrapDoubleQuoted(m[3]), ""), nil
	}

	return buildReference(token, "", unwrapDoubleQuoted(token), ""), nil
}

func buildReference(original, sheet, table, rng string) TableReference {
	return TableReference{
		Original:   original,
		Sheet:      sheet,
		Table:      table,
		Range:      rng,
		EngineName: deriveEngineName(sheet, table, rng),
	}
}

func unwrapDoubleQuoted(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}

// deriveEngineName implements the derivation rule of spec.md §3: lowercase
// each present component, collapse each run of non-alphanumerics to a
// single underscore, trim, join with underscore; default to "table_ref"
// if empty; prefix "r_" if the result starts with a digit.
func deriveEngineName(sheet, table, rng string) string {
	var parts []string
	for _, component := range []string{sheet, table, rng} {
		if component == "" {
			continue
		}
		if p := sanitizeComponent(component); p != "" {
			parts = append(parts, p)
		}
	}

	name := strings.Join(parts, "_")
	if name == "" {
		return "table_ref"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "r_" + name
	}
	return name
}

func sanitizeComponent(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	prevUnderscore := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlnumByte(c) {
			b.WriteByte(c)
			prevUnderscore = false
			continue
		}
		if !prevUnderscore {
			b.WriteByte('_')
			prevUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
