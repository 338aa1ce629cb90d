// Package installer runs the system package installer and interprets its
// output.
package installer

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultCommand is the macOS package installer
const DefaultCommand = "/usr/sbin/installer"

// Output is the captured text of an installer invocation
type Output struct {
	Stdout string
	Stderr string
}

// Installer installs a package onto a target volume.
type Installer interface {
	Install(ctx context.Context, pkgPath, target string, allowUntrusted bool) (Output, error)
}

// ExecInstaller shells out to the installer binary
type ExecInstaller struct {
	Command string
}

// NewExecInstaller creates an installer using the system binary
func NewExecInstaller() *ExecInstaller {
	return &ExecInstaller{Command: DefaultCommand}
}

// Args builds the installer argument list.
func Args(pkgPath, target string, allowUntrusted bool) []string {
	args := []string{"-pkg", pkgPath}
	if allowUntrusted {
		args = append(args, "-allowUntrusted")
	}
	return append(args, "-target", target)
}

// Install runs the installer and returns its captured output. A non-zero
// exit is returned as an error alongside the output.
func (i *ExecInstaller) Install(ctx context.Context, pkgPath, target string, allowUntrusted bool) (Output, error) {
	args := Args(pkgPath, target, allowUntrusted)
	logrus.Debugf("Exec: %s %s", i.Command, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, i.Command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if out.Stderr != "" {
		logrus.Debugf("Installer stderr: %s", strings.TrimSpace(out.Stderr))
	}
	return out, err
}
