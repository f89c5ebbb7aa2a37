// Package rewrite substitutes spreadsheet-side references in a query with
// their engine-side identifiers, without disturbing occurrences that live
// inside string literals, comments, or other identifiers.
package rewrite

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cellquery/sqlitefn/refs"
)

// Query replaces every key in mapping (original reference text) with its
// engine_name, operating only on spans the search projection marks as real
// SQL text. Keys are substituted longest-first so a short reference cannot
// pre-empt a longer one that contains it.
func Query(query string, mapping map[string]string) string {
	if len(mapping) == 0 {
		return query
	}

	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	proj := refs.BuildSearchProjection(query)
	out := []byte(query)
	projBytes := []byte(proj)

	for _, key := range keys {
		engineName := mapping[key]
		quoted := strings.Contains(key, "'")
		re := regexp.MustCompile(patternFor(key))

		for {
			start, end, ok := findTokenMatch(projBytes, re, !quoted)
			if !ok {
				break
			}
			out = replaceRange(out, start, end, engineName)
			projBytes = replaceRange(projBytes, start, end, strings.Repeat("\x00", len(engineName)))
		}
	}

	return string(out)
}

// findTokenMatch locates the next regexp match in b whose edges satisfy a
// word boundary, when checkBoundary is set. Matches straddled by a bare
// reference byte (as defined by refs.IsBareChar) on either side are skipped
// and the search resumes one byte later, since an anchored range like
// "$A$1:$M$100" starts and ends on a non-word byte and regexp's own \b never
// fires there.
func findTokenMatch(b []byte, re *regexp.Regexp, checkBoundary bool) (int, int, bool) {
	offset := 0
	for {
		loc := re.FindIndex(b[offset:])
		if loc == nil {
			return 0, 0, false
		}
		start, end := offset+loc[0], offset+loc[1]
		if !checkBoundary || isTokenBoundary(b, start, end) {
			return start, end, true
		}
		offset = start + 1
	}
}

func isTokenBoundary(b []byte, start, end int) bool {
	if start > 0 && refs.IsBareChar(b[start-1]) {
		return false
	}
	if end < len(b) && refs.IsBareChar(b[end]) {
		return false
	}
	return true
}

// replaceRange returns b with the byte range [start,end) replaced by repl,
// reallocating as needed.
func replaceRange(b []byte, start, end int, repl string) []byte {
	out := make([]byte, 0, len(b)-(end-start)+len(repl))
	out = append(out, b[:start]...)
	out = append(out, repl...)
	out = append(out, b[end:]...)
	return out
}

// patternFor builds a case-insensitive regexp matching key verbatim. The
// caller (findTokenMatch) is responsible for boundary checking: regexp's
// \b only fires at a word/non-word transition, which never happens around
// an unquoted key that starts or ends on a non-word byte, e.g. the leading
// "$" of an anchored range like "$A$1:$M$100".
func patternFor(key string) string {
	return "(?i)" + regexp.QuoteMeta(key)
}
