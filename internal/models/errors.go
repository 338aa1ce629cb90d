package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrConfiguration ErrorType = iota
	ErrCatalogUnavailable
	ErrCatalogParse
	ErrMetadataIncomplete
	ErrDownloadFailed
	ErrPrivilege
	ErrOSVersionMismatch
	ErrInstallFailed
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrConfiguration:
		return "Configuration"
	case ErrCatalogUnavailable:
		return "CatalogUnavailable"
	case ErrCatalogParse:
		return "CatalogParse"
	case ErrMetadataIncomplete:
		return "MetadataIncomplete"
	case ErrDownloadFailed:
		return "DownloadFailed"
	case ErrPrivilege:
		return "Privilege"
	case ErrOSVersionMismatch:
		return "OSVersionMismatch"
	case ErrInstallFailed:
		return "InstallFailed"
	default:
		return "Unknown"
	}
}

// ToolError represents an error raised while resolving or installing packages
type ToolError struct {
	Type    ErrorType
	Package string
	Err     error
}

// Error implements the error interface
func (e *ToolError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewError builds a ToolError without a package name.
func NewError(t ErrorType, err error) *ToolError {
	return &ToolError{Type: t, Err: err}
}

// NewPackageError builds a ToolError attributed to a package.
func NewPackageError(t ErrorType, pkg string, err error) *ToolError {
	return &ToolError{Type: t, Package: pkg, Err: err}
}

// IsErrorType reports whether any error in err's chain is a ToolError of type t.
func IsErrorType(err error, t ErrorType) bool {
	var te *ToolError
	for err != nil {
		if !errors.As(err, &te) {
			return false
		}
		if te.Type == t {
			return true
		}
		err = te.Err
	}
	return false
}
