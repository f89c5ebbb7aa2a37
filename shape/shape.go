// Package shape turns an engine.ExecutionResult into the tabular value (or
// hard-limit error) the orchestrator returns to the host.
package shape

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/cellquery/sqlitefn/engine"
	"github.com/cellquery/sqlitefn/errs"
)

// Limits bounds how large a shaped result may be and when the soft row-count
// advisory fires. Values come from config.Config; DefaultLimits matches what
// the host otherwise imposes absent a config file.
type Limits struct {
	MaxRows         int
	MaxCols         int
	SoftRowAdvisory int
}

// DefaultLimits returns the host-imposed hard output limits and soft row
// advisory threshold used absent a config override.
func DefaultLimits() Limits {
	return Limits{MaxRows: 1048576, MaxCols: 16384, SoftRowAdvisory: 100000}
}

// Table is the shaped tabular value returned to the host on success.
type Table struct {
	Columns []string
	Rows    [][]any
	// Warning is set when the soft row advisory fires; the orchestrator may
	// attach or escalate it, never hard-fail on it alone.
	Warning string
}

// NullDisplay configures how shape renders a SQL NULL. The zero value
// leaves it as nil, the host's native empty-cell sentinel.
type NullDisplay struct {
	Render bool
	As     string
}

// Shape converts result into a host-consumable Table, enforcing limits'
// hard output caps and coercing each column to the most specific shared
// type its non-null values support.
func Shape(result *engine.ExecutionResult, nd NullDisplay, limits Limits) (*Table, error) {
	switch {
	case isRowProducing(result.QueryType):
		return shapeRows(result, nd, limits)
	case result.QueryType == engine.Create || result.QueryType == engine.Drop:
		return &Table{Columns: []string{"Result"}, Rows: [][]any{{"OK"}}}, nil
	default:
		return &Table{
			Columns: []string{"Result"},
			Rows:    [][]any{{fmt.Sprintf("%d rows affected", result.RowCount)}},
		}, nil
	}
}

func isRowProducing(qt engine.QueryType) bool {
	return qt == engine.Select || qt == engine.Pragma || qt == engine.Explain
}

func shapeRows(result *engine.ExecutionResult, nd NullDisplay, limits Limits) (*Table, error) {
	rows := result.Rows
	cols := result.Columns

	if len(cols) > limits.MaxCols {
		return nil, errs.NewOutputLimit(len(cols), limits.MaxCols)
	}
	if len(rows) > limits.MaxRows {
		return nil, errs.NewOutputLimit(len(rows), limits.MaxRows)
	}

	if len(rows) == 0 {
		return &Table{Columns: cols, Rows: [][]any{}}, nil
	}

	coerced := coerceColumns(cols, rows, nd)

	out := &Table{Columns: cols, Rows: coerced}
	if len(rows) > limits.SoftRowAdvisory {
		out.Warning = fmt.Sprintf("result has %s rows, exceeding the %s-row soft advisory",
			humanize.Comma(int64(len(rows))), humanize.Comma(int64(limits.SoftRowAdvisory)))
	}
	return out, nil
}

// coerceColumns applies the best-effort per-column coercion of §4.5: a
// column whose non-null values are all whole-valued numbers becomes a
// nullable integer column; else if all numeric, a floating-point column;
// else it is left as-is.
func coerceColumns(cols []string, rows [][]any, nd NullDisplay) [][]any {
	width := len(cols)
	kinds := make([]columnKind, width)
	for c := 0; c < width; c++ {
		kinds[c] = classifyColumn(rows, c)
	}

	out := make([][]any, len(rows))
	for r, row := range rows {
		shaped := make([]any, width)
		for c := 0; c < width; c++ {
			var v any
			if c < len(row) {
				v = row[c]
			}
			shaped[c] = coerceCell(v, kinds[c], nd)
		}
		out[r] = shaped
	}
	return out
}

type columnKind int

const (
	kindAsIs columnKind = iota
	kindInteger
	kindFloat
)

func classifyColumn(rows [][]any, col int) columnKind {
	sawValue := false
	allWhole := true
	allNumeric := true

	for _, row := range rows {
		if col >= len(row) || row[col] == nil {
			continue
		}
		sawValue = true
		v := row[col]
		if !isWhole(v) {
			allWhole = false
		}
		if !isNumericValue(v) {
			allNumeric = false
			break
		}
	}
	if !sawValue {
		return kindAsIs
	}
	if allWhole {
		return kindInteger
	}
	if allNumeric {
		return kindFloat
	}
	return kindAsIs
}

func isNumericValue(v any) bool {
	switch v.(type) {
	case int64, int, float64, float32:
		return true
	default:
		return false
	}
}

func isWhole(v any) bool {
	switch t := v.(type) {
	case int64, int:
		return true
	case float64:
		return t == float64(int64(t))
	case float32:
		return t == float32(int64(t))
	default:
		return false
	}
}

func coerceCell(v any, kind columnKind, nd NullDisplay) any {
	if v == nil {
		if nd.Render {
			return nd.As
		}
		return nil
	}
	switch kind {
	case kindInteger:
		return toInt64(v)
	case kindFloat:
		return toFloat64(v)
	default:
		return v
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case float32:
		return int64(t)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case float64:
		return t
	case float32:
		return float64(t)
	default:
		return 0
	}
}
