//go:build !darwin

package system

import (
	"errors"
	"runtime"
)

func productVersion() (string, error) {
	return "", errors.New("running release is only known on darwin, not " + runtime.GOOS)
}
