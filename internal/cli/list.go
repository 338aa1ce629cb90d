package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/lincolnep/xcode-tools/internal/executor"
	"github.com/lincolnep/xcode-tools/internal/models"
	"github.com/lincolnep/xcode-tools/internal/planner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cfg := models.DefaultRunConfig()
	var configFile string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the install plan without downloading anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfigFile(cmd, configFile, &cfg); err != nil {
				return err
			}
			if err := prepareConfig(&cfg, newSystem()); err != nil {
				return err
			}
			cfg.DryRun = true

			fetcher, res := buildPipeline(cfg)
			doc, err := fetcher.Fetch(cmd.Context(), cfg.OSRelease, cfg.Channel)
			if err != nil {
				return err
			}
			result, err := res.Resolve(cmd.Context(), doc)
			if err != nil {
				return err
			}
			for _, s := range result.Skipped {
				logrus.Warnf("Skipped %s: %v", s.Entry.Basename(), s.Err)
			}

			return printPlan(cmd.OutOrStdout(), planner.Plan(result.Packages))
		},
	}

	addResolutionFlags(cmd, &cfg, &configFile)

	return cmd
}

func printPlan(w io.Writer, plan models.InstallPlan) error {
	if plan.Len() == 0 {
		_, err := fmt.Fprintln(w, executor.NoPackagesMessage)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tVERSION\tLONG VERSION\tPRODUCT\tPOSTED\tDESTINATION")
	for _, pkg := range plan.Ordered() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			pkg.Name, pkg.Version, pkg.LongVersion, pkg.ProductID,
			pkg.PostDate.Format("2006-01-02"), pkg.DownloadPath)
	}
	return tw.Flush()
}
