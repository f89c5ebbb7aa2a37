package refs

// CountParameters counts bare '?' placeholders outside string literals,
// identifiers, and comments.
func CountParameters(query string) int {
	proj := BuildSearchProjection(query)
	count := 0
	for i := 0; i < len(proj); i++ {
		switch proj[i] {
		case '"':
			// skip a double-quoted identifier; a doubled "" reopens the run
			for i++; i < len(proj) && proj[i] != '"'; i++ {
			}
		case '?':
			count++
		}
	}
	return count
}

// IsParameterized reports whether query contains at least one '?'
// placeholder.
func IsParameterized(query string) bool {
	return CountParameters(query) > 0
}
