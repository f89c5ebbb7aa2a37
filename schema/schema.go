// Package schema validates spreadsheet header rows, infers a SQLite column
// type from an observed value domain, and generates the DDL and bulk-load
// transform for one table loaded into the embedded engine.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/cellquery/sqlitefn/errs"
)

// ColumnType is one of the three storage classes the engine is given;
// booleans and datetimes are mapped onto these at load time (see
// InferColumnType).
type ColumnType string

const (
	Integer ColumnType = "INTEGER"
	Real    ColumnType = "REAL"
	Text    ColumnType = "TEXT"
)

// ColumnSchema describes one column of one loaded table.
type ColumnSchema struct {
	SourceName string
	EngineName string
	Type       ColumnType
	Nullable   bool
}

// TableSchema describes one table loaded into the engine.
type TableSchema struct {
	EngineName string
	Columns    []ColumnSchema
	RowCount   int
}

// reservedWords is the identifier-quoting reserved list from the schema
// builder's own DDL dialect subset — deliberately narrower than the
// engine's full keyword list, since only these actually collide with the
// shapes of SQL this package ever generates.
var reservedWords = map[string]bool{}

func init() {
	for _, w := range []string{
		"select", "from", "where", "and", "or", "not", "null", "true", "false",
		"insert", "update", "delete", "create", "drop", "table", "index",
		"order", "by", "group", "having", "join", "left", "right", "inner",
		"outer", "on", "as", "in", "between", "like", "is", "case", "when",
		"then", "else", "end", "distinct", "limit", "offset", "union", "all",
	} {
		reservedWords[w] = true
	}
}


// ValidateHeaders enforces the strict DBA-style rules of §4.3: no blank
// entry after trimming, no case-insensitive duplicate. On success it
// returns the trimmed, stringified header list.
func ValidateHeaders(headers []any) ([]string, error) {
	out := make([]string, len(headers))
	seen := make(map[string]string, len(headers)) // lowercased -> original casing

	for i, h := range headers {
		s := stringify(h)
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, errs.NewEmptyColumnName(i + 1)
		}
		out[i] = s

		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			return nil, errs.NewDuplicateColumn(s)
		}
		seen[key] = s
	}
	return out, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// InferColumnType applies the observed-domain hierarchy of §4.3 to one
// column's values, nulls already expected to be present as nil entries.
// Order matters: boolean is checked before numeric (bool is a numeric
// subtype in many host languages), and datetime before numeric (epoch
// numeric datetimes are not a concern here).
func InferColumnType(values []any) ColumnType {
	nonNull := make([]any, 0, len(values))
	for _, v := range values {
		if v != nil {
			nonNull = append(nonNull, v)
		}
	}
	if len(nonNull) == 0 {
		return Text
	}

	if allMatch(nonNull, isBool) {
		return Integer
	}
	if allMatch(nonNull, isDatetime) {
		return Text
	}
	if allMatch(nonNull, isWholeNumeric) {
		return Integer
	}
	if allMatch(nonNull, isNumeric) {
		return Real
	}
	return Text
}

// InferColumnTypes applies InferColumnType to each column of a row-major
// grid of width cols.
func InferColumnTypes(rows [][]any, cols int) []ColumnType {
	types := make([]ColumnType, cols)
	column := make([]any, len(rows))
	for c := 0; c < cols; c++ {
		for r, row := range rows {
			if c < len(row) {
				column[r] = row[c]
			} else {
				column[r] = nil
			}
		}
		types[c] = InferColumnType(column)
	}
	return types
}

func allMatch(values []any, pred func(any) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isDatetime(v any) bool {
	_, ok := v.(time.Time)
	return ok
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

func isWholeNumeric(v any) bool {
	switch t := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return float32(int64(t)) == t
	case float64:
		return float64(int64(t)) == t
	default:
		return false
	}
}

// SanitizeIdentifier applies §4.3's identifier rule: a valid unquoted
// identifier that is not a reserved word passes through unchanged;
// anything else is double-quoted, with embedded double quotes doubled.
func SanitizeIdentifier(name string) string {
	if isValidUnquotedIdent(name) && !reservedWords[strings.ToLower(name)] {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// BuildTableSchema validates headers, infers each column's type from the
// data, and sanitizes both into a TableSchema ready for DDL generation.
func BuildTableSchema(engineName string, rawHeaders []any, rows [][]any) (*TableSchema, error) {
	headers, err := ValidateHeaders(rawHeaders)
	if err != nil {
		return nil, err
	}

	types := InferColumnTypes(rows, len(headers))
	columns := make([]ColumnSchema, len(headers))
	for i, h := range headers {
		columns[i] = ColumnSchema{
			SourceName: h,
			EngineName: SanitizeIdentifier(h),
			Type:       types[i],
			Nullable:   true,
		}
	}

	return &TableSchema{
		EngineName: engineName,
		Columns:    columns,
		RowCount:   len(rows),
	}, nil
}

// GenerateDDL renders "CREATE TABLE <engine_name> (<col_list>)".
func GenerateDDL(s *TableSchema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(s.EngineName)
	b.WriteString(" (")
	for i, col := range s.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col.EngineName)
		b.WriteByte(' ')
		b.WriteString(string(col.Type))
	}
	b.WriteByte(')')
	return b.String()
}

// TransformCell applies the bulk-load cell transform of §4.3: nulls pass
// through as SQL NULL, booleans become 0/1, datetimes become ISO 8601
// strings, and anything else is passed through for the driver to bind
// natively.
func TransformCell(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return t.UTC().Format("2006-01-02T15:04:05")
	default:
		return v
	}
}

// TransformRows returns a copy of rows with TransformCell applied to every
// cell; the input grid is left untouched.
func TransformRows(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		transformed := make([]any, len(row))
		for j, v := range row {
			transformed[j] = TransformCell(v)
		}
		out[i] = transformed
	}
	return out
}

// DetectHeaderRow scans up to maxScan rows of a raw string grid and scores
// each as a header-row candidate: fully-populated rows score higher than
// sparse ones, rows with no repeated cell score higher than rows with
// duplicates, a row whose width matches the row right after it scores
// higher still, wider rows get a small bonus, and earlier rows are
// slightly preferred over later ones when scores tie. Used by host loaders
// in advanced-header mode, where the true header isn't always row 0 (a
// title row or blank banner line often precedes it).
func DetectHeaderRow(rows [][]string, maxScan int) int {
	if len(rows) == 0 {
		return 0
	}

	limit := len(rows)
	if limit > maxScan {
		limit = maxScan
	}

	bestScore := -1.0
	bestIndex := 0

	for i := 0; i < limit; i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}

		score := 0.0

		nonEmptyCount := 0
		for _, val := range row {
			if strings.TrimSpace(val) != "" {
				nonEmptyCount++
			}
		}
		if nonEmptyCount == len(row) {
			score += 2.0
		} else if nonEmptyCount > len(row)/2 {
			score += 1.0
		}

		seen := make(map[string]bool, len(row))
		unique := true
		for _, val := range row {
			if seen[val] {
				unique = false
				break
			}
			seen[val] = true
		}
		if unique {
			score += 2.0
		}

		if i+1 < len(rows) && len(row) == len(rows[i+1]) {
			score += 1.0
		}

		score += float64(len(row)) * 0.5
		score -= float64(i) * 0.1

		if score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}

	return bestIndex
}

// isValidUnquotedIdent checks the grammar [A-Za-z_][A-Za-z0-9_]* by hand:
// it runs for every column name in every loaded table, so a direct byte
// scan avoids the regexp engine on this hot, trivial check.
func isValidUnquotedIdent(s string) bool {
	if s == "" {
		return false
	}
	if !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentCont(s[i]) {
			return false
		}
	}
	return true
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
