// Package executor drives a run from catalog retrieval to cleanup.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/lincolnep/xcode-tools/internal/installer"
	"github.com/lincolnep/xcode-tools/internal/models"
	"github.com/lincolnep/xcode-tools/internal/planner"
	"github.com/lincolnep/xcode-tools/internal/resolver"
	"github.com/lincolnep/xcode-tools/internal/system"
	"github.com/lincolnep/xcode-tools/internal/transfer"
	"github.com/lincolnep/xcode-tools/internal/utils"
	"github.com/sirupsen/logrus"
)

// NoPackagesMessage is printed when the catalog has nothing to offer.
const NoPackagesMessage = "No Command Line Tool downloads found"

// CatalogSource retrieves the catalog for a release
type CatalogSource interface {
	Fetch(ctx context.Context, osRelease, channel string) (*models.CatalogDocument, error)
}

// PackageSource reduces a catalog to resolved packages
type PackageSource interface {
	Resolve(ctx context.Context, doc *models.CatalogDocument) (*resolver.Result, error)
}

// Dependencies are the collaborators of an Executor
type Dependencies struct {
	Catalog    CatalogSource
	Resolver   PackageSource
	Downloader transfer.Downloader
	Installer  installer.Installer
	System     system.System

	// Out receives the user-facing run report
	Out io.Writer
}

// Executor runs one resolution and install pass
type Executor struct {
	cfg   models.RunConfig
	deps  Dependencies
	verbs verbs
	state State

	ok   *color.Color
	fail *color.Color
}

// New creates an executor. cfg must be validated and carry the OS release
// packages are resolved for.
func New(cfg models.RunConfig, deps Dependencies) *Executor {
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	v := liveVerbs
	if cfg.DryRun {
		v = dryRunVerbs
	}
	return &Executor{
		cfg:   cfg,
		deps:  deps,
		verbs: v,
		state: Idle,
		ok:    color.New(color.FgGreen),
		fail:  color.New(color.FgRed),
	}
}

// State returns the current state
func (e *Executor) State() State {
	return e.state
}

func (e *Executor) transition(to State) {
	logrus.Debugf("Run state: %s -> %s", e.state, to)
	e.state = to
}

// Run checks privileges, resolves the catalog and executes the plan. The
// returned report is non-nil whenever resolution started. An empty catalog
// selection is not an error.
func (e *Executor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if e.cfg.Install && !e.deps.System.IsPrivileged() {
		e.transition(Aborted)
		report.State = Aborted
		return report, models.NewError(models.ErrPrivilege, errors.New("must be root to install packages"))
	}

	e.transition(Resolving)
	doc, err := e.deps.Catalog.Fetch(ctx, e.cfg.OSRelease, e.cfg.Channel)
	if err != nil {
		return e.abort(report, err)
	}
	result, err := e.deps.Resolver.Resolve(ctx, doc)
	if err != nil {
		return e.abort(report, err)
	}
	report.Skipped = result.Skipped

	e.transition(Planning)
	if result.Packages.Len() == 0 {
		fmt.Fprintln(e.deps.Out, NoPackagesMessage)
		e.transition(Done)
		report.State = Done
		return report, nil
	}
	plan := planner.Plan(result.Packages)
	logrus.Infof("Planned %d packages (%d removal)", plan.Len(), len(plan.Removals))

	return e.execute(ctx, plan, report)
}

// execute downloads and optionally installs the packages of plan.
func (e *Executor) execute(ctx context.Context, plan models.InstallPlan, report *Report) (*Report, error) {
	e.transition(Downloading)
	for _, pkg := range plan.Ordered() {
		pr := &PackageReport{Package: pkg}
		report.Packages = append(report.Packages, pr)

		if err := ctx.Err(); err != nil {
			return e.abort(report, err)
		}
		if err := e.download(ctx, pr); err != nil && e.cfg.FailFast {
			return e.abort(report, err)
		}
	}

	if !e.cfg.Install {
		e.transition(Done)
		report.State = Done
		return report, report.Err()
	}

	e.transition(Installing)
	if err := e.checkRelease(); err != nil {
		return e.abort(report, err)
	}
	for _, pr := range report.Packages {
		if err := ctx.Err(); err != nil {
			return e.abort(report, err)
		}
		e.install(ctx, pr)
	}

	e.transition(CleaningUp)
	report.ScratchRemoved = e.cleanup()

	e.transition(Done)
	report.State = Done
	return report, report.Err()
}

func (e *Executor) abort(report *Report, err error) (*Report, error) {
	e.transition(Aborted)
	report.State = Aborted
	return report, err
}

// download fetches one package unless it is already present. A failed
// download is recorded on pr and returned.
func (e *Executor) download(ctx context.Context, pr *PackageReport) error {
	pkg := pr.Package

	exists, err := utils.FileExists(pkg.DownloadPath)
	if err != nil {
		logrus.Warnf("Checking %s: %v", pkg.DownloadPath, err)
	}
	if exists {
		pr.Download = AlreadyPresent
		logrus.Infof("%s already downloaded", pkg.DownloadPath)
		return nil
	}

	if !e.cfg.Quiet {
		fmt.Fprintf(e.deps.Out, "%s %s - %s (version %s released %s) to %s\n",
			e.verbs.download, pkg.ProductID, pkg.Title, pkg.Version,
			pkg.PostDate.Format("2006-01-02"), pkg.DownloadPath)
	}

	if e.cfg.DryRun {
		pr.Download = DownloadPlanned
		return nil
	}

	diag, err := e.deps.Downloader.Download(ctx, pkg.URL, pkg.DownloadPath, e.cfg.Quiet)
	if err == nil && e.cfg.VerifyDigest && pkg.Digest != "" {
		if err = utils.VerifyDigest(pkg.DownloadPath, pkg.Digest); err != nil {
			utils.RemoveQuietly(pkg.DownloadPath)
		}
	}
	if err != nil {
		pr.Download = DownloadFailed
		pr.DownloadErr = models.NewPackageError(models.ErrDownloadFailed, pkg.Name, err)
		logrus.Errorf("%v", pr.DownloadErr)
		return pr.DownloadErr
	}

	logrus.Debug(diag)
	pr.Download = Downloaded
	return nil
}

// checkRelease refuses to install packages resolved for a different OS
// release than the one running.
func (e *Executor) checkRelease() error {
	running, err := e.deps.System.RunningRelease()
	if err != nil {
		return models.NewError(models.ErrOSVersionMismatch, fmt.Errorf("cannot determine running OS release: %w", err))
	}
	if running != e.cfg.OSRelease {
		fmt.Fprintf(e.deps.Out, "Not installing macOS %s packages on macOS %s\n", e.cfg.OSRelease, running)
		fmt.Fprintf(e.deps.Out, "Downloaded files can be found in %s\n", e.cfg.Destination)
		return models.NewError(models.ErrOSVersionMismatch,
			fmt.Errorf("packages resolved for %s, running %s", e.cfg.OSRelease, running))
	}
	return nil
}

func (e *Executor) install(ctx context.Context, pr *PackageReport) {
	pkg := pr.Package
	if pr.Download == DownloadFailed {
		logrus.Warnf("Skipping install of %s: download failed", pkg.Name)
		return
	}

	if !e.cfg.Quiet {
		fmt.Fprintf(e.deps.Out, "%s %s\n", e.verbs.install, pkg.DownloadPath)
	}
	if e.cfg.DryRun {
		return
	}

	out, err := e.deps.Installer.Install(ctx, pkg.DownloadPath, e.cfg.InstallTarget, e.cfg.AllowUntrusted)
	outcome := installer.Classify(out, err)
	pr.Install = &InstallResult{Outcome: outcome, Output: out, Err: err}

	if outcome.Succeeded() {
		e.ok.Fprintf(e.deps.Out, "%s %s\n", pkg.DownloadPath, outcome)
		return
	}
	if err != nil {
		logrus.Errorf("Installer failed for %s: %v", pkg.Name, err)
	}
	e.fail.Fprintf(e.deps.Out, "%s %s\n", pkg.DownloadPath, outcome)
}

// cleanup removes the destination directory. Failures are logged only.
func (e *Executor) cleanup() bool {
	if !e.cfg.Quiet {
		fmt.Fprintf(e.deps.Out, "%s %s\n", e.verbs.cleanup, e.cfg.Destination)
	}
	if e.cfg.DryRun {
		return false
	}
	return utils.RemoveAllQuietly(e.cfg.Destination)
}
