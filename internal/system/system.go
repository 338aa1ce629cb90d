// Package system probes the running host.
package system

import (
	"fmt"

	"github.com/lincolnep/xcode-tools/internal/models"
)

// System abstracts the host facts needed before installing packages.
type System interface {
	// RunningRelease returns the two-segment release of the running OS.
	RunningRelease() (string, error)
	// IsPrivileged reports whether the process may install packages.
	IsPrivileged() bool
}

// Host implements System for the current machine.
type Host struct{}

// RunningRelease returns the normalized release of the running OS.
func (Host) RunningRelease() (string, error) {
	raw, err := productVersion()
	if err != nil {
		return "", fmt.Errorf("reading OS product version: %w", err)
	}
	return models.NormalizeRelease(raw)
}

// IsPrivileged reports whether the effective user is root.
func (Host) IsPrivileged() bool {
	return isRoot()
}
