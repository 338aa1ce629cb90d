package executor

import (
	"fmt"

	"github.com/lincolnep/xcode-tools/internal/installer"
	"github.com/lincolnep/xcode-tools/internal/models"
	"github.com/lincolnep/xcode-tools/internal/resolver"
)

// DownloadStatus describes what happened to a package's transfer
type DownloadStatus int

const (
	DownloadPlanned DownloadStatus = iota
	Downloaded
	AlreadyPresent
	DownloadFailed
)

// String returns the status name
func (s DownloadStatus) String() string {
	switch s {
	case DownloadPlanned:
		return "Planned"
	case Downloaded:
		return "Downloaded"
	case AlreadyPresent:
		return "AlreadyPresent"
	case DownloadFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// InstallResult is the classified result of one installer invocation
type InstallResult struct {
	Outcome installer.Outcome
	Output  installer.Output
	Err     error
}

// PackageReport tracks one package through the run
type PackageReport struct {
	Package     *models.ResolvedPackage
	Download    DownloadStatus
	DownloadErr error

	// Install is nil when no installer invocation happened
	Install *InstallResult
}

// Report summarizes a run
type Report struct {
	State    State
	Packages []*PackageReport
	Skipped  []resolver.Skipped

	ScratchRemoved bool
}

// Failures counts failed downloads and failed installs.
func (r *Report) Failures() (downloads, installs int) {
	for _, p := range r.Packages {
		if p.Download == DownloadFailed {
			downloads++
		}
		if p.Install != nil && !p.Install.Outcome.Succeeded() {
			installs++
		}
	}
	return downloads, installs
}

// Err returns a DownloadFailed or InstallFailed error when any package
// failed, nil otherwise.
func (r *Report) Err() error {
	downloads, installs := r.Failures()
	switch {
	case downloads > 0:
		return models.NewError(models.ErrDownloadFailed, fmt.Errorf("%d of %d downloads failed", downloads, len(r.Packages)))
	case installs > 0:
		return models.NewError(models.ErrInstallFailed, fmt.Errorf("%d installs failed, see /var/log/install.log", installs))
	}
	return nil
}
