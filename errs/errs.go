// Package errs defines the canonical failure kinds for the SQLITE()
// pipeline and their textual rendering.
//
// Every failure that can escape a SQLITE(...) call is one of the Kinds
// below, rendered as "Error: <body>". There is no exception hierarchy;
// callers type-switch or compare Kind directly.
package errs

import "fmt"

// Kind names a canonical failure category.
type Kind string

const (
	TableNotFound   Kind = "TableNotFound"
	ColumnNotFound  Kind = "ColumnNotFound"
	DuplicateColumn Kind = "DuplicateColumn"
	EmptyColumnName Kind = "EmptyColumnName"
	QuerySyntax     Kind = "QuerySyntax"
	RangeResolution Kind = "RangeResolution"
	EmptyRange      Kind = "EmptyRange"
	TypeInference   Kind = "TypeInference"
	Execution       Kind = "Execution"
	Timeout         Kind = "Timeout"
	OutputLimit     Kind = "OutputLimit"
)

// Error is the single error type for the package: a Kind plus its
// already-rendered message body (the part after "Error: ").
type Error struct {
	Kind Kind
	Body string
}

func (e *Error) Error() string {
	return "Error: " + e.Body
}

func newErr(k Kind, body string) *Error {
	return &Error{Kind: k, Body: body}
}

// NewTableNotFound reports a reference to a table the engine has no
// record of.
func NewTableNotFound(name string) *Error {
	return newErr(TableNotFound, fmt.Sprintf("no such table: %s", name))
}

// NewColumnNotFound reports a reference to a column that does not exist.
func NewColumnNotFound(name string) *Error {
	return newErr(ColumnNotFound, fmt.Sprintf("no such column: %s", name))
}

// NewDuplicateColumn reports a header row with a case-insensitive repeat.
func NewDuplicateColumn(name string) *Error {
	return newErr(DuplicateColumn, fmt.Sprintf("duplicate column name: %s", name))
}

// NewEmptyColumnName reports a blank header cell. position is 1-indexed;
// pass 0 to omit the position from the message.
func NewEmptyColumnName(position int) *Error {
	if position > 0 {
		return newErr(EmptyColumnName, fmt.Sprintf("column name cannot be empty (position %d)", position))
	}
	return newErr(EmptyColumnName, "column name cannot be empty")
}

// NewQuerySyntaxNear reports a syntax error anchored at a specific token.
func NewQuerySyntaxNear(token string) *Error {
	return newErr(QuerySyntax, fmt.Sprintf("near \"%s\": syntax error", token))
}

// NewQuerySyntax reports a syntax error with a free-form detail message.
func NewQuerySyntax(detail string) *Error {
	return newErr(QuerySyntax, detail)
}

// NewRangeResolution reports a reference whose range/table could not be
// resolved by the host. reason may be empty.
func NewRangeResolution(ref, reason string) *Error {
	if reason == "" {
		return newErr(RangeResolution, fmt.Sprintf("cannot resolve range: %s", ref))
	}
	return newErr(RangeResolution, fmt.Sprintf("cannot resolve range: %s (%s)", ref, reason))
}

// NewEmptyRange reports a reference that resolved to zero data rows.
func NewEmptyRange(ref string) *Error {
	return newErr(EmptyRange, fmt.Sprintf("range contains no data: %s", ref))
}

// NewTypeInference reports a column whose type could not be inferred.
func NewTypeInference(col, reason string) *Error {
	if reason == "" {
		return newErr(TypeInference, fmt.Sprintf("cannot infer type for column '%s'", col))
	}
	return newErr(TypeInference, fmt.Sprintf("cannot infer type for column '%s': %s", col, reason))
}

// NewExecution wraps an engine-supplied message verbatim.
func NewExecution(message string) *Error {
	return newErr(Execution, message)
}

// NewTimeout reports a query that exceeded its wall-clock budget. Reserved
// for a future bound; v1 never constructs this from a live timer.
func NewTimeout(seconds float64) *Error {
	return newErr(Timeout, fmt.Sprintf("query execution timed out after %gs", seconds))
}

// NewOutputLimit reports a result set exceeding the host's hard row/column
// limit.
func NewOutputLimit(n, limit int) *Error {
	return newErr(OutputLimit, fmt.Sprintf(
		"result set too large: %d rows (limit: %d). Use LIMIT clause to reduce output.", n, limit))
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == k
}
