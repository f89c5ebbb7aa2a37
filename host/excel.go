package host

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cellquery/sqlitefn/refs"
)

// WorkbookResolver resolves references against an open excelize workbook.
// This is the primary host adapter: it is the closest in-kind analogue to
// the spreadsheet the SQLITE() function is embedded in.
type WorkbookResolver struct {
	file *excelize.File
}

// NewWorkbookResolver wraps an already-open workbook. Ownership of file
// (including Close) stays with the caller.
func NewWorkbookResolver(file *excelize.File) *WorkbookResolver {
	return &WorkbookResolver{file: file}
}

// Resolve implements Resolver.
//
//   - A bare or sheet-qualified range ("A1:M100", "Sheet2!A1:B50") reads that
//     rectangular region, defaulting to the active sheet when unqualified.
//   - A bare table reference ("Orders") selects the whole sheet of that name.
//   - A sheet-qualified table reference ("Sheet2.Orders") looks up a
//     workbook-defined name ("Orders", scoped to "Sheet2" or global) and
//     reads the range it refers to.
func (w *WorkbookResolver) Resolve(ctx context.Context, ref refs.TableReference, headers bool) (*Table, error) {
	var grid [][]string
	var err error

	switch {
	case ref.IsRange():
		sheet := ref.Sheet
		if sheet == "" {
			sheet = w.file.GetSheetName(w.file.GetActiveSheetIndex())
		}
		if idx, _ := w.file.GetSheetIndex(sheet); idx == -1 {
			return nil, rangeResolutionErr(ref, "no such sheet: "+sheet)
		}
		grid, err = w.readRange(sheet, ref.Range)

	case ref.IsTable() && ref.Sheet == "":
		if idx, _ := w.file.GetSheetIndex(ref.Table); idx == -1 {
			return nil, rangeResolutionErr(ref, "no such sheet: "+ref.Table)
		}
		grid, err = w.file.GetRows(ref.Table)

	case ref.IsTable():
		rng, findErr := w.definedRange(ref.Sheet, ref.Table)
		if findErr != nil {
			return nil, rangeResolutionErr(ref, findErr.Error())
		}
		grid, err = w.readRange(ref.Sheet, rng)

	default:
		return nil, rangeResolutionErr(ref, "reference names neither a table nor a range")
	}
	if err != nil {
		return nil, rangeResolutionErr(ref, err.Error())
	}
	if len(grid) == 0 {
		return nil, emptyRangeErr(ref)
	}

	return gridToTable(grid, headers, ref)
}

// readRange reads the rectangular block named by a cell range such as
// "A1:M100", stripping any anchor markers ('$').
func (w *WorkbookResolver) readRange(sheet, rng string) ([][]string, error) {
	parts := strings.SplitN(rng, ":", 2)
	if len(parts) != 2 {
		return nil, errInvalidRange(rng)
	}
	startCol, startRow, err := excelize.CellNameToCoordinates(strings.ReplaceAll(parts[0], "$", ""))
	if err != nil {
		return nil, err
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(strings.ReplaceAll(parts[1], "$", ""))
	if err != nil {
		return nil, err
	}
	if endCol < startCol {
		startCol, endCol = endCol, startCol
	}
	if endRow < startRow {
		startRow, endRow = endRow, startRow
	}

	grid := make([][]string, 0, endRow-startRow+1)
	for row := startRow; row <= endRow; row++ {
		line := make([]string, 0, endCol-startCol+1)
		for col := startCol; col <= endCol; col++ {
			name, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return nil, err
			}
			val, err := w.file.GetCellValue(sheet, name)
			if err != nil {
				return nil, err
			}
			line = append(line, val)
		}
		grid = append(grid, line)
	}
	return grid, nil
}

// definedRange looks up a workbook-defined name, preferring one scoped to
// sheet over a workbook-global one, and returns the range portion of its
// RefersTo expression (e.g. "Sheet2!$A$1:$B$10" -> "$A$1:$B$10").
func (w *WorkbookResolver) definedRange(sheet, name string) (string, error) {
	var fallback string
	for _, dn := range w.file.GetDefinedName() {
		if !strings.EqualFold(dn.Name, name) {
			continue
		}
		refersTo := dn.RefersTo
		if idx := strings.LastIndex(refersTo, "!"); idx != -1 {
			refersTo = refersTo[idx+1:]
		}
		if dn.Scope == sheet {
			return refersTo, nil
		}
		if fallback == "" && (dn.Scope == "" || dn.Scope == "Workbook") {
			fallback = refersTo
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("no defined name %q", name)
}

func errInvalidRange(rng string) error {
	return rangeFormatErr{rng}
}

type rangeFormatErr struct{ rng string }

func (e rangeFormatErr) Error() string { return "malformed range: " + e.rng }

// gridToTable splits the header row (if requested) from the data and
// coerces each cell from its string representation to the richest Go type
// excelize's formatted string supports: bool, time.Time, int64, float64, or
// string.
func gridToTable(grid [][]string, headers bool, ref refs.TableReference) (*Table, error) {
	var headerRow []string
	dataRows := grid

	if headers {
		headerRow = grid[0]
		dataRows = grid[1:]
	}

	width := len(headerRow)
	for _, r := range dataRows {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 {
		return nil, emptyRangeErr(ref)
	}
	if !headers {
		headerRow = positionalHeaders(width)
	}

	rows := make([][]any, len(dataRows))
	for i, r := range dataRows {
		row := make([]any, width)
		for c := 0; c < width; c++ {
			if c < len(r) {
				row[c] = coerceCell(r[c])
			}
		}
		rows[i] = row
	}

	return &Table{Columns: headerRow, Rows: rows}, nil
}

// coerceCell attempts boolean, then datetime, then numeric interpretation
// of a spreadsheet cell's formatted string, falling back to the string
// itself. Empty strings become nil (missing value).
func coerceCell(s string) any {
	if s == "" {
		return nil
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
