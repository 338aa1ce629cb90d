package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xcodetools",
		Short: "Download and install the Xcode Command Line Tools from the software update catalog",
		Long: `xcodetools reads the macOS software update catalog for an OS release,
selects the newest Command Line Tools and developer SDK packages, downloads
them and optionally installs them.

Packages that remove an older SDK are always installed first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewListCmd())

	return rootCmd
}
