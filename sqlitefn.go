// Package sqlitefn implements the spreadsheet SQLITE(...) function: given a
// query that references spreadsheet tables, ranges, and sheets, it loads
// the referenced data into an embedded engine, rewrites the query to the
// engine's own table names, executes it, and shapes the result back into a
// tabular value a spreadsheet host can render.
package sqlitefn

import (
	"context"
	"fmt"
	"strings"

	"github.com/cellquery/sqlitefn/config"
	"github.com/cellquery/sqlitefn/engine"
	"github.com/cellquery/sqlitefn/errs"
	"github.com/cellquery/sqlitefn/host"
	"github.com/cellquery/sqlitefn/refs"
	"github.com/cellquery/sqlitefn/rewrite"
	"github.com/cellquery/sqlitefn/schema"
	"github.com/cellquery/sqlitefn/shape"
)

// Runtime wires one host resolver, null-display preference, and the bulk
// load/output tuning knobs to the SQLITE(...) entry point. A Runtime has no
// mutable state of its own: every call opens and tears down its own private
// engine (§5).
type Runtime struct {
	Resolver    host.Resolver
	NullDisplay shape.NullDisplay
	Verbose     bool
	BatchSize   int
	Limits      shape.Limits
}

// New returns a Runtime backed by resolver, rendering nulls as the host's
// native empty-cell sentinel and using the default batch size and output
// limits.
func New(resolver host.Resolver) *Runtime {
	return &Runtime{
		Resolver:  resolver,
		BatchSize: engine.DefaultBatchSize,
		Limits:    shape.DefaultLimits(),
	}
}

// FromConfig returns a Runtime backed by resolver, taking its null-display,
// verbosity, batch size, and output limits from cfg.
func FromConfig(resolver host.Resolver, cfg *config.Config) *Runtime {
	return &Runtime{
		Resolver:    resolver,
		NullDisplay: shape.NullDisplay{Render: cfg.NullDisplay != "", As: cfg.NullDisplay},
		Verbose:     cfg.Verbose,
		BatchSize:   cfg.BatchSize,
		Limits: shape.Limits{
			MaxRows:         cfg.MaxRows,
			MaxCols:         cfg.MaxCols,
			SoftRowAdvisory: cfg.SoftRowAdvisory,
		},
	}
}

// Result is the tabular value SQLITE(...) hands back to a successful call.
type Result struct {
	Columns []string
	Rows    [][]any
	Warning string
}

// SQLITE runs query against the tables/ranges it references, binding params
// positionally. On success it returns a *Result; on any failure along the
// pipeline it returns the error text a spreadsheet cell displays, per §7 —
// the public entry point itself never returns a Go error.
func (rt *Runtime) SQLITE(ctx context.Context, query string, params ...any) (*Result, string) {
	result, err := rt.run(ctx, query, params)
	if err != nil {
		return nil, renderErr(err)
	}
	return result, ""
}

func renderErr(err error) string {
	if e, ok := err.(*errs.Error); ok {
		return e.Error()
	}
	return errs.NewExecution(err.Error()).Error()
}

func (rt *Runtime) run(ctx context.Context, query string, params []any) (*Result, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, errs.NewQuerySyntax("empty query")
	}

	multiStatement := engine.HasUnquotedSemicolon(query)
	if !multiStatement {
		want := refs.CountParameters(query)
		if want != len(params) {
			return nil, errs.NewQuerySyntax(fmt.Sprintf("expected %d, got %d", want, len(params)))
		}
	}

	references := refs.ExtractReferences(query)
	assignEngineNames(references)

	e, err := engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	e.Verbose = rt.Verbose
	if rt.BatchSize > 0 {
		e.BatchSize = rt.BatchSize
	}
	defer e.Close()

	mapping := make(map[string]string, len(references))
	for _, ref := range references {
		table, err := rt.Resolver.Resolve(ctx, ref, true)
		if err != nil {
			return nil, err
		}
		if table == nil || len(table.Columns) == 0 || len(table.Rows) == 0 {
			return nil, errs.NewEmptyRange(ref.Original)
		}

		headers := make([]any, len(table.Columns))
		for i, c := range table.Columns {
			headers[i] = c
		}

		s, err := schema.BuildTableSchema(ref.EngineName, headers, table.Rows)
		if err != nil {
			return nil, err
		}
		if err := e.LoadTable(ctx, s, schema.TransformRows(table.Rows)); err != nil {
			return nil, err
		}
		mapping[ref.Original] = ref.EngineName
	}

	rewritten := rewrite.Query(query, mapping)

	var execResult *engine.ExecutionResult
	if multiStatement {
		statements := engine.SplitStatements(rewritten)
		execResult, err = e.ExecuteMultiStatement(ctx, statements)
	} else {
		execResult, err = e.ExecuteQuery(ctx, rewritten, params)
	}
	if err != nil {
		return nil, err
	}

	limits := rt.Limits
	if limits == (shape.Limits{}) {
		limits = shape.DefaultLimits()
	}
	table, err := shape.Shape(execResult, rt.NullDisplay, limits)
	if err != nil {
		return nil, err
	}

	return &Result{Columns: table.Columns, Rows: table.Rows, Warning: table.Warning}, nil
}

// assignEngineNames disambiguates two references that independently derive
// the same EngineName (e.g. "Orders" and "ORDERS", which are distinct
// originals that both derive "orders") by appending a numeric suffix to the later occurrence, keeping
// every engine-local table name unique within the invocation.
func assignEngineNames(references []refs.TableReference) {
	seen := make(map[string]int, len(references))
	for i := range references {
		base := references[i].EngineName
		seen[base]++
		if n := seen[base]; n > 1 {
			references[i].EngineName = fmt.Sprintf("%s_%d", base, n)
		}
	}
}

// Version reports the embedded engine's version string via a disposable
// engine instance.
func Version(ctx context.Context) (string, error) {
	e, err := engine.Open(ctx)
	if err != nil {
		return "", err
	}
	defer e.Close()
	return e.Version(ctx)
}

// Features reports which notable SQL surfaces the embedded engine supports
// at runtime, shaped as a two-column table.
func Features(ctx context.Context) (*Result, error) {
	e, err := engine.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	support := e.Probe(ctx)
	rows := [][]any{
		{"window_functions", support.WindowFunctions},
		{"ctes", support.CTEs},
		{"upsert", support.Upsert},
		{"json1", support.JSON1},
	}
	return &Result{Columns: []string{"feature", "supported"}, Rows: rows}, nil
}

// Explain runs the orchestrator pipeline with "EXPLAIN QUERY PLAN "
// prepended to query, returning the plan rows.
func (rt *Runtime) Explain(ctx context.Context, query string, params ...any) (*Result, string) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, errs.NewQuerySyntax("empty query").Error()
	}
	return rt.SQLITE(ctx, "EXPLAIN QUERY PLAN "+query, params...)
}
