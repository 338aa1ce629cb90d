//go:build darwin

package system

import (
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

func productVersion() (string, error) {
	v, err := unix.Sysctl("kern.osproductversion")
	if err == nil && v != "" {
		return v, nil
	}
	logrus.Debugf("kern.osproductversion unavailable (%v), falling back to sw_vers", err)

	out, err := exec.Command("/usr/bin/sw_vers", "-productVersion").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
