// Package utils holds tiny cross-layer helpers. Nothing in here may depend
// on domain or transport types.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 integer and returns def when s is empty
// or malformed. Handlers use it for optional numeric query parameters such as
// ?limit= on the recently-viewed listing.
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
