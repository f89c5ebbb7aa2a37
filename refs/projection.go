// Package refs scans a user's SQL query for spreadsheet-side data
// references (named tables, bare ranges, sheet-qualified forms) and
// classifies each one into its canonical TableReference form.
package refs

import "regexp"

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// BuildSearchProjection returns a length-preserving transformation of
// query where comment bodies and string-literal interiors have been
// blanked with spaces. Byte offsets into the projection address the same
// text in the original query. A single-quoted run immediately followed by
// '.' or '!' is a sheet-name reference, not a literal, and is preserved
// verbatim.
func BuildSearchProjection(query string) string {
	masked := maskStringLiterals(query)
	masked = maskComments(masked)
	return string(masked)
}

func maskStringLiterals(s string) []byte {
	out := []byte(s)
	n := len(s)
	i := 0
	for i < n {
		switch s[i] {
		case '\'':
			j := i + 1
			for j < n {
				if s[j] == '\'' {
					if j+1 < n && s[j+1] == '\'' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			if j >= n {
				// unterminated: mask the remainder
				blank(out, i, n)
				i = n
				continue
			}
			closeQuote := j
			next := closeQuote + 1
			if next < n && (s[next] == '.' || s[next] == '!') {
				// sheet-name reference: leave verbatim
				i = next
				continue
			}
			blank(out, i, closeQuote+1)
			i = closeQuote + 1
		case '"':
			j := i + 1
			for j < n {
				if s[j] == '"' {
					if j+1 < n && s[j+1] == '"' {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			// double-quoted identifiers are retained verbatim
			i = j
		default:
			i++
		}
	}
	return out
}

func maskComments(s []byte) []byte {
	out := append([]byte(nil), s...)
	for _, loc := range lineCommentRe.FindAllIndex(out, -1) {
		blank(out, loc[0], loc[1])
	}
	for _, loc := range blockCommentRe.FindAllIndex(out, -1) {
		blank(out, loc[0], loc[1])
	}
	return out
}

func blank(b []byte, start, end int) {
	for i := start; i < end; i++ {
		b[i] = ' '
	}
}
