package errs

import "strings"

// Normalize translates an error raised by the embedded engine into the
// canonical taxonomy above. It leaves an existing *Error untouched so
// callers can normalize defensively at any layer.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}

	msg := err.Error()

	if rest, ok := cutPrefixFold(msg, "no such table:"); ok {
		return NewTableNotFound(strings.TrimSpace(rest))
	}
	if rest, ok := cutPrefixFold(msg, "no such column:"); ok {
		return NewColumnNotFound(strings.TrimSpace(rest))
	}
	if strings.Contains(strings.ToLower(msg), "syntax error") {
		return NewQuerySyntax(msg)
	}
	if isIntegrityViolation(msg) {
		return NewExecution("integrity error: " + msg)
	}
	if isProgrammingFailure(msg) {
		return NewExecution("programming error: " + msg)
	}
	return NewExecution(msg)
}

// cutPrefixFold reports whether s begins with prefix, case-insensitively,
// possibly after leading whitespace, and returns the remainder.
func cutPrefixFold(s, prefix string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < len(prefix) {
		return "", false
	}
	if !strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return "", false
	}
	return trimmed[len(prefix):], true
}

// isIntegrityViolation recognizes the engine's constraint-failure family:
// UNIQUE, NOT NULL, CHECK, FOREIGN KEY, PRIMARY KEY violations.
func isIntegrityViolation(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{
		"constraint failed",
		"unique constraint",
		"not null constraint",
		"check constraint",
		"foreign key constraint",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// isProgrammingFailure recognizes misuse of the driver itself (wrong bind
// count, statement reused after close, etc.) rather than a fault in the
// user's SQL or data.
func isProgrammingFailure(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range []string{
		"bind",
		"wrong number of",
		"statement is closed",
		"database is closed",
		"misuse",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
