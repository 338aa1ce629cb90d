package executor

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lincolnep/xcode-tools/internal/installer"
	"github.com/lincolnep/xcode-tools/internal/models"
	"github.com/lincolnep/xcode-tools/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	calls int
	err   error
}

func (f *fakeCatalog) Fetch(ctx context.Context, osRelease, channel string) (*models.CatalogDocument, error) {
	f.calls++
	return &models.CatalogDocument{}, f.err
}

type fakeResolver struct {
	set *models.ResolvedPackageSet
}

func (f *fakeResolver) Resolve(ctx context.Context, doc *models.CatalogDocument) (*resolver.Result, error) {
	return &resolver.Result{Packages: f.set}, nil
}

type fakeDownloader struct {
	calls []string
	fail  map[string]error
}

func (f *fakeDownloader) Download(ctx context.Context, src, dest string, quiet bool) (string, error) {
	f.calls = append(f.calls, src)
	if err, ok := f.fail[src]; ok {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	return "ok", os.WriteFile(dest, []byte(payload(src)), 0o644)
}

func payload(src string) string {
	return "payload " + src
}

type fakeInstaller struct {
	calls  []string
	output map[string]installer.Output
}

func (f *fakeInstaller) Install(ctx context.Context, pkgPath, target string, allowUntrusted bool) (installer.Output, error) {
	f.calls = append(f.calls, filepath.Base(pkgPath))
	if out, ok := f.output[filepath.Base(pkgPath)]; ok {
		return out, nil
	}
	return installer.Output{Stdout: "installer: The install was successful.\n"}, nil
}

type fakeSystem struct {
	root    bool
	release string
}

func (f fakeSystem) RunningRelease() (string, error) {
	if f.release == "" {
		return "", errors.New("unknown")
	}
	return f.release, nil
}

func (f fakeSystem) IsPrivileged() bool { return f.root }

type harness struct {
	cfg        models.RunConfig
	catalog    *fakeCatalog
	downloader *fakeDownloader
	installer  *fakeInstaller
	system     fakeSystem
	out        bytes.Buffer
	set        *models.ResolvedPackageSet
}

func newHarness(t *testing.T, names ...string) *harness {
	t.Helper()
	cfg := models.DefaultRunConfig()
	cfg.Destination = filepath.Join(t.TempDir(), "xcode")
	cfg.OSRelease = "10.13"

	h := &harness{
		cfg:        cfg,
		catalog:    &fakeCatalog{},
		downloader: &fakeDownloader{fail: map[string]error{}},
		installer:  &fakeInstaller{output: map[string]installer.Output{}},
		system:     fakeSystem{root: true, release: "10.13"},
		set:        models.NewResolvedPackageSet(),
	}
	for _, name := range names {
		h.add(name)
	}
	return h
}

func (h *harness) add(name string) *models.ResolvedPackage {
	pkg := &models.ResolvedPackage{
		PackageEntry: models.PackageEntry{
			URL:       "https://example.com/001/" + name,
			ProductID: "001",
			PostDate:  time.Date(2018, 9, 17, 0, 0, 0, 0, time.UTC),
		},
		PackageMetadata: models.PackageMetadata{Version: "10.0", LongVersion: "10.0.0.0.1", Title: "Command Line Tools"},
		Name:            name,
	}
	pkg.DownloadPath = filepath.Join(h.cfg.Destination, resolver.DestinationName(name, h.cfg.OSRelease, pkg.LongVersion))
	h.set.Put(pkg)
	return pkg
}

func (h *harness) executor() *Executor {
	return New(h.cfg, Dependencies{
		Catalog:    h.catalog,
		Resolver:   &fakeResolver{set: h.set},
		Downloader: h.downloader,
		Installer:  h.installer,
		System:     h.system,
		Out:        &h.out,
	})
}

func TestRunDownloadOnly(t *testing.T) {
	h := newHarness(t, "CLTools_Executables.pkg", "DevSDK_OSX1013.pkg")

	report, err := h.executor().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Done, report.State)
	assert.Len(t, h.downloader.calls, 2)
	assert.Empty(t, h.installer.calls)
	for _, p := range report.Packages {
		assert.Equal(t, Downloaded, p.Download)
		assert.FileExists(t, p.Package.DownloadPath)
	}
	assert.Contains(t, h.out.String(), "Downloading 001 - Command Line Tools (version 10.0 released 2018-09-17) to ")
	assert.DirExists(t, h.cfg.Destination, "destination is kept without install")
}

func TestRunRequiresPrivilegeBeforeNetwork(t *testing.T) {
	h := newHarness(t, "CLTools.pkg")
	h.cfg.Install = true
	h.system.root = false

	e := h.executor()
	report, err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrPrivilege))
	assert.Equal(t, Aborted, report.State)
	assert.Equal(t, Aborted, e.State())
	assert.Zero(t, h.catalog.calls)
	assert.Empty(t, h.downloader.calls)
}

func TestRunOSMismatchBeforeInstall(t *testing.T) {
	h := newHarness(t)
	h.cfg.OSRelease = "10.12"
	h.add("CLTools.pkg")
	h.cfg.Install = true
	h.system.release = "10.13"

	report, err := h.executor().Run(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrOSVersionMismatch))
	assert.Equal(t, Aborted, report.State)
	assert.Empty(t, h.installer.calls)
	assert.Contains(t, h.out.String(), "Downloaded files can be found in "+h.cfg.Destination)
	assert.DirExists(t, h.cfg.Destination, "no cleanup after an aborted install")
}

func TestRunUnknownRunningReleaseBlocksInstall(t *testing.T) {
	h := newHarness(t, "CLTools.pkg")
	h.cfg.Install = true
	h.system.release = ""

	_, err := h.executor().Run(context.Background())
	assert.True(t, models.IsErrorType(err, models.ErrOSVersionMismatch))
	assert.Empty(t, h.installer.calls)
}

func TestRunInstallsRemovalFirstAndCleansUp(t *testing.T) {
	h := newHarness(t, "CLTools_Executables.pkg", "Remove10.12Tools.pkg", "DevSDK_OSX1013.pkg")
	h.cfg.Install = true
	h.installer.output["DevSDK_OSX1013_10.13-10.0.0.pkg"] = installer.Output{Stdout: "installer: The upgrade was successful.\n"}

	report, err := h.executor().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Done, report.State)
	assert.Equal(t, []string{
		"Remove10.12Tools_10.13-10.0.0.pkg",
		"CLTools_Executables_10.13-10.0.0.pkg",
		"DevSDK_OSX1013_10.13-10.0.0.pkg",
	}, h.installer.calls)

	require.Len(t, report.Packages, 3)
	assert.Equal(t, installer.InstallSucceeded, report.Packages[0].Install.Outcome)
	assert.Equal(t, installer.UpgradeSucceeded, report.Packages[2].Install.Outcome)

	out := h.out.String()
	assert.Contains(t, out, "Installing "+report.Packages[0].Package.DownloadPath)
	assert.Contains(t, out, "upgrade successful")
	assert.Contains(t, out, "Removing "+h.cfg.Destination)
	assert.True(t, report.ScratchRemoved)
	assert.NoDirExists(t, h.cfg.Destination)
}

func TestRunSecondRunSkipsDownloads(t *testing.T) {
	h := newHarness(t, "CLTools.pkg", "DevSDK.pkg")

	_, err := h.executor().Run(context.Background())
	require.NoError(t, err)
	require.Len(t, h.downloader.calls, 2)

	h.downloader.calls = nil
	h.out.Reset()
	report, err := h.executor().Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, h.downloader.calls)
	for _, p := range report.Packages {
		assert.Equal(t, AlreadyPresent, p.Download)
	}
	assert.NotContains(t, h.out.String(), "Downloading")
}

func TestRunDryRunHasNoSideEffects(t *testing.T) {
	live := newHarness(t, "Remove10.12Tools.pkg", "CLTools.pkg")
	live.cfg.Install = true
	liveReport, err := live.executor().Run(context.Background())
	require.NoError(t, err)

	h := newHarness(t, "Remove10.12Tools.pkg", "CLTools.pkg")
	h.cfg.Install = true
	h.cfg.DryRun = true

	report, err := h.executor().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Done, report.State)
	assert.Empty(t, h.downloader.calls)
	assert.Empty(t, h.installer.calls)
	assert.NoDirExists(t, h.cfg.Destination)
	assert.False(t, report.ScratchRemoved)

	require.Len(t, report.Packages, len(liveReport.Packages))
	for i, p := range report.Packages {
		assert.Equal(t, DownloadPlanned, p.Download)
		assert.Nil(t, p.Install)
		assert.Equal(t, liveReport.Packages[i].Package.Name, p.Package.Name)
	}

	out := h.out.String()
	assert.Contains(t, out, "Download 001 - ")
	assert.Contains(t, out, "Install "+report.Packages[0].Package.DownloadPath)
	assert.Contains(t, out, "Remove "+h.cfg.Destination)
	assert.NotContains(t, out, "Downloading")
	assert.NotContains(t, out, "Installing")
	assert.NotContains(t, out, "Removing")
}

func TestRunDryRunStillChecksRelease(t *testing.T) {
	h := newHarness(t, "CLTools.pkg")
	h.cfg.Install = true
	h.cfg.DryRun = true
	h.system.release = "10.14"

	_, err := h.executor().Run(context.Background())
	assert.True(t, models.IsErrorType(err, models.ErrOSVersionMismatch))
}

func TestRunNoPackages(t *testing.T) {
	h := newHarness(t)

	report, err := h.executor().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Done, report.State)
	assert.Empty(t, report.Packages)
	assert.Equal(t, NoPackagesMessage+"\n", h.out.String())
}

func TestRunCatalogFailureAborts(t *testing.T) {
	h := newHarness(t, "CLTools.pkg")
	h.catalog.err = models.NewError(models.ErrCatalogUnavailable, errors.New("offline"))

	report, err := h.executor().Run(context.Background())
	assert.True(t, models.IsErrorType(err, models.ErrCatalogUnavailable))
	assert.Equal(t, Aborted, report.State)
	assert.Empty(t, h.downloader.calls)
}

func TestRunDownloadFailureContinues(t *testing.T) {
	h := newHarness(t, "CLTools.pkg", "DevSDK.pkg")
	h.cfg.Install = true
	h.downloader.fail["https://example.com/001/CLTools.pkg"] = errors.New("connection reset")

	report, err := h.executor().Run(context.Background())
	require.Error(t, err)
	assert.True(t, models.IsErrorType(err, models.ErrDownloadFailed))
	assert.Equal(t, Done, report.State)
	assert.Len(t, h.downloader.calls, 2)
	assert.Equal(t, []string{"DevSDK_10.13-10.0.0.pkg"}, h.installer.calls)
	assert.Equal(t, DownloadFailed, report.Packages[0].Download)
	assert.Equal(t, Downloaded, report.Packages[1].Download)
}

func TestRunFailFast(t *testing.T) {
	h := newHarness(t, "CLTools.pkg", "DevSDK.pkg")
	h.cfg.FailFast = true
	h.downloader.fail["https://example.com/001/CLTools.pkg"] = errors.New("connection reset")

	report, err := h.executor().Run(context.Background())
	assert.True(t, models.IsErrorType(err, models.ErrDownloadFailed))
	assert.Equal(t, Aborted, report.State)
	assert.Len(t, h.downloader.calls, 1)
}

func TestRunDigestMismatchRemovesFile(t *testing.T) {
	h := newHarness(t)
	good := h.add("CLTools.pkg")
	sum := sha1.Sum([]byte(payload(good.URL)))
	good.Digest = hex.EncodeToString(sum[:])
	bad := h.add("DevSDK.pkg")
	bad.Digest = "0000000000000000000000000000000000000000"

	report, err := h.executor().Run(context.Background())
	assert.True(t, models.IsErrorType(err, models.ErrDownloadFailed))
	assert.Equal(t, Downloaded, report.Packages[0].Download)
	assert.Equal(t, DownloadFailed, report.Packages[1].Download)
	assert.FileExists(t, good.DownloadPath)
	assert.NoFileExists(t, bad.DownloadPath)
}

func TestRunInstallFailureReported(t *testing.T) {
	h := newHarness(t, "CLTools.pkg")
	h.cfg.Install = true
	h.installer.output["CLTools_10.13-10.0.0.pkg"] = installer.Output{Stdout: "installer: The install failed."}

	report, err := h.executor().Run(context.Background())
	assert.True(t, models.IsErrorType(err, models.ErrInstallFailed))
	assert.Equal(t, installer.InstallFailed, report.Packages[0].Install.Outcome)
	assert.Contains(t, h.out.String(), "install/upgrade failed")
}

func TestRunQuietSuppressesProgressLines(t *testing.T) {
	h := newHarness(t, "CLTools.pkg")
	h.cfg.Quiet = true
	h.cfg.Install = true

	_, err := h.executor().Run(context.Background())
	require.NoError(t, err)
	out := h.out.String()
	assert.NotContains(t, out, "Downloading")
	assert.NotContains(t, out, "Installing")
	assert.NotContains(t, out, "Removing")
	assert.Contains(t, out, "install successful")
}

func TestExecuteSkipsResolution(t *testing.T) {
	h := newHarness(t)
	pkg := h.add("CLTools.pkg")

	report, err := h.executor().execute(context.Background(), models.InstallPlan{Remaining: []*models.ResolvedPackage{pkg}}, &Report{})
	require.NoError(t, err)
	assert.Equal(t, Done, report.State)
	assert.Zero(t, h.catalog.calls)
	assert.Len(t, h.downloader.calls, 1)
}
