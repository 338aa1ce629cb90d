package cli

import (
	"context"
	"io"

	"github.com/lincolnep/xcode-tools/internal/catalog"
	"github.com/lincolnep/xcode-tools/internal/executor"
	"github.com/lincolnep/xcode-tools/internal/installer"
	"github.com/lincolnep/xcode-tools/internal/metadata"
	"github.com/lincolnep/xcode-tools/internal/models"
	"github.com/lincolnep/xcode-tools/internal/resolver"
	"github.com/lincolnep/xcode-tools/internal/system"
	"github.com/lincolnep/xcode-tools/internal/transfer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Host collaborators, replaced in tests.
var (
	newSystem    = func() system.System { return system.Host{} }
	newInstaller = func() installer.Installer { return installer.NewExecInstaller() }
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	cfg := models.DefaultRunConfig()
	var configFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download and optionally install the selected packages",
		Long: `Retrieves the software update catalog, resolves the newest version of
every matching package and downloads it into the destination directory.
With --install the packages are installed afterwards and the destination
directory is removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfigFile(cmd, configFile, &cfg); err != nil {
				return err
			}
			sys := newSystem()
			if err := prepareConfig(&cfg, sys); err != nil {
				return err
			}
			if cfg.Quiet {
				logrus.SetLevel(logrus.WarnLevel)
			}
			logrus.Debugf("Configuration: %+v", cfg)

			return runTools(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, sys, newInstaller())
		},
	}

	addResolutionFlags(cmd, &cfg, &configFile)
	addExecutionFlags(cmd, &cfg)

	return cmd
}

// buildPipeline wires the catalog and metadata stages. Dry runs keep
// fetched documents in memory so nothing is written to disk.
func buildPipeline(cfg models.RunConfig) (*catalog.Fetcher, *resolver.Resolver) {
	client := transfer.NewHTTPClient(cfg.Timeout)

	var retriever transfer.Retriever = transfer.NewScratchRetriever(client, cfg.Destination)
	if cfg.DryRun {
		retriever = transfer.NewMemoryRetriever(client)
	}

	fetcher := catalog.NewFetcher(retriever, cfg.CatalogBaseURL)
	res := resolver.New(metadata.NewResolver(retriever), resolver.Options{
		OSRelease:      cfg.OSRelease,
		Destination:    cfg.Destination,
		PackageNames:   cfg.PackageNames,
		Jobs:           cfg.Jobs,
		SkipIncomplete: cfg.SkipIncomplete,
	})
	return fetcher, res
}

func runTools(ctx context.Context, out, progress io.Writer, cfg models.RunConfig, sys system.System, inst installer.Installer) error {
	fetcher, res := buildPipeline(cfg)
	downloader := transfer.NewHTTPDownloader(transfer.NewHTTPClient(cfg.Timeout), progress)

	ex := executor.New(cfg, executor.Dependencies{
		Catalog:    fetcher,
		Resolver:   res,
		Downloader: downloader,
		Installer:  inst,
		System:     sys,
		Out:        out,
	})

	report, err := ex.Run(ctx)
	if report != nil {
		logReport(report)
	}
	return err
}

func logReport(report *executor.Report) {
	for _, s := range report.Skipped {
		logrus.Warnf("Skipped %s: %v", s.Entry.Basename(), s.Err)
	}
	if len(report.Packages) == 0 {
		return
	}

	counts := map[executor.DownloadStatus]int{}
	for _, p := range report.Packages {
		counts[p.Download]++
	}
	downloads, installs := report.Failures()
	logrus.Infof("Run %s: %d downloaded, %d already present, %d planned, %d download failures, %d install failures",
		report.State, counts[executor.Downloaded], counts[executor.AlreadyPresent], counts[executor.DownloadPlanned],
		downloads, installs)
}
