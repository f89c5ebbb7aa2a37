package host

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cellquery/sqlitefn/refs"
	"github.com/cellquery/sqlitefn/schema"
)

// FilesystemResolver resolves a bare table reference to "<Dir>/<Table>.<ext>"
// for the first extension found among csv, json, and txt, trying each
// candidate table-name case variant the directory actually contains. It
// never resolves ranges: a spreadsheet range has no filesystem analogue.
// The headers flag applies to CSV files only: a JSON file's columns are
// always its object keys, and a TXT file always has the one column "content".
type FilesystemResolver struct {
	Dir string

	// AdvancedHeaderDetection, when set, scores the first headerScanLimit
	// rows of a loaded CSV for the best header-row candidate instead of
	// always assuming row 0 (mirrors the teacher CLI's --advanced-header).
	AdvancedHeaderDetection bool
}

const headerScanLimit = 20

func (f *FilesystemResolver) Resolve(ctx context.Context, ref refs.TableReference, headers bool) (*Table, error) {
	if !ref.IsTable() {
		return nil, rangeResolutionErr(ref, "filesystem resolver only resolves named tables")
	}
	path, err := f.findFile(ref.Table)
	if err != nil {
		return nil, rangeResolutionErr(ref, err.Error())
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, rangeResolutionErr(ref, err.Error())
	}
	defer file.Close()

	table, err := loadByExtension(file, filepath.Ext(path), headers, f.AdvancedHeaderDetection)
	if err != nil {
		return nil, rangeResolutionErr(ref, err.Error())
	}
	if len(table.Rows) == 0 && len(table.Columns) == 0 {
		return nil, emptyRangeErr(ref)
	}
	return table, nil
}

// findFile resolves table to a file, preferring csv, then json, then txt.
// A directory can hold "Orders.csv" and "Orders.json" side by side (a .csv
// export and its .json backup, say); that's a genuine ambiguity, so every
// candidate is logged under one trace ID for that lookup before the extension-priority match
// is returned, giving an operator something to grep for when a load picks
// the file they didn't expect.
func (f *FilesystemResolver) findFile(table string) (string, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.EqualFold(strings.TrimSuffix(name, filepath.Ext(name)), table) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no such table: %s", table)
	}
	if len(matches) > 1 {
		traceID := uuid.NewString()
		for _, name := range matches {
			log.Printf("[SQLITEFN] [%s] ambiguous table %q also matches %s", traceID, table, name)
		}
	}

	for _, ext := range []string{".csv", ".json", ".txt"} {
		for _, name := range matches {
			if strings.EqualFold(filepath.Ext(name), ext) {
				return filepath.Join(f.Dir, name), nil
			}
		}
	}
	return "", fmt.Errorf("no such table: %s", table)
}

func loadByExtension(r io.Reader, ext string, headers, advancedHeaderDetection bool) (*Table, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return loadCSV(r, headers, advancedHeaderDetection)
	case ".json":
		return loadJSON(r)
	case ".txt":
		return loadTXT(r)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// loadCSV mirrors the teacher's delimiter-sniffing CSV loader, minus the
// streaming pipeline: host tables are built once per invocation and held
// entirely in memory. In advanced-header mode, schema.DetectHeaderRow picks
// the header row instead of assuming row 0.
func loadCSV(r io.Reader, headers, advancedHeaderDetection bool) (*Table, error) {
	br := bufio.NewReader(r)
	peek, _ := br.Peek(2048)
	sample := string(peek)
	if idx := strings.IndexAny(sample, "\r\n"); idx != -1 {
		sample = sample[:idx]
	}

	reader := csv.NewReader(br)
	reader.Comma = detectDelimiter(sample)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	headerIdx := 0
	if headers && advancedHeaderDetection {
		headerIdx = schema.DetectHeaderRow(records, headerScanLimit)
	}

	var cols []string
	dataRows := records
	if headers {
		cols = records[headerIdx]
		dataRows = records[headerIdx+1:]
	}

	width := len(cols)
	for _, r := range dataRows {
		if len(r) > width {
			width = len(r)
		}
	}
	if !headers {
		cols = positionalHeaders(width)
	}

	rows := make([][]any, len(dataRows))
	for i, rec := range dataRows {
		row := make([]any, width)
		for c := 0; c < width; c++ {
			if c < len(rec) {
				row[c] = coerceCell(rec[c])
			}
		}
		rows[i] = row
	}
	return &Table{Columns: cols, Rows: rows}, nil
}

func detectDelimiter(line string) rune {
	if line == "" {
		return ','
	}
	best, bestCount := ',', -1
	for _, d := range []rune{',', '\t', ';', '|'} {
		if c := strings.Count(line, string(d)); c > bestCount {
			bestCount, best = c, d
		}
	}
	return best
}

// loadJSON accepts a root JSON array of objects, taking the union of keys
// (sorted) across all rows as the column set.
func loadJSON(r io.Reader) (*Table, error) {
	var records []map[string]any
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("expected a JSON array of objects: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	keySet := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			keySet[k] = true
		}
	}
	cols := make([]string, 0, len(keySet))
	for k := range keySet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(cols))
		for c, k := range cols {
			row[c] = rec[k]
		}
		rows[i] = row
	}
	return &Table{Columns: cols, Rows: rows}, nil
}

// loadTXT treats the file as a single-column "content" table, one row per
// line, matching the teacher's TXT converter.
func loadTXT(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(bufio.NewReaderSize(r, 65536))
	var rows [][]any
	for scanner.Scan() {
		rows = append(rows, []any{scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &Table{Columns: []string{"content"}, Rows: rows}, nil
}
