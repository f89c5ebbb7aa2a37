// Package host adapts external data sources — spreadsheet workbooks,
// delimited files, JSON documents, HTML tables, and zip archives of any of
// the above — into the Table shape the schema builder consumes, through a
// single Resolver contract.
package host

import (
	"context"
	"strconv"

	"github.com/cellquery/sqlitefn/errs"
	"github.com/cellquery/sqlitefn/refs"
)

// Table is the tabular value a Resolver hands back for one reference: a
// header row and a rectangular grid of cell values. Cell values are Go's
// bool, int64, float64, time.Time, string, or nil; the schema builder
// infers a column type from the value domain it observes here.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Resolver looks up the tabular data backing one spreadsheet-side
// reference. headers=true means the first row of the resolved region names
// the columns; when false, the resolver synthesizes positional names
// (Col1, Col2, …).
//
// A Resolver must fail with an *errs.Error of kind RangeResolution or
// EmptyRange rather than a bare error, so the orchestrator can render it
// without a second translation pass.
type Resolver interface {
	Resolve(ctx context.Context, ref refs.TableReference, headers bool) (*Table, error)
}

func emptyRangeErr(ref refs.TableReference) error {
	return errs.NewEmptyRange(ref.Original)
}

func rangeResolutionErr(ref refs.TableReference, reason string) error {
	return errs.NewRangeResolution(ref.Original, reason)
}

// positionalHeaders returns "Col1".."ColN" for a region resolved without a
// header row.
func positionalHeaders(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "Col" + strconv.Itoa(i+1)
	}
	return out
}
