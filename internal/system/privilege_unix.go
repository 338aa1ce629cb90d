//go:build unix

package system

import "golang.org/x/sys/unix"

func isRoot() bool {
	return unix.Geteuid() == 0
}
