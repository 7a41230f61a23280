//go:build !unix

package native

// isNotEmpty has no portable detection outside unix; the error falls through
// to the unknown bucket.
func isNotEmpty(err error) bool {
	return false
}
