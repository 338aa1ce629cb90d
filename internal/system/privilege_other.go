//go:build !unix

package system

func isRoot() bool {
	return false
}
