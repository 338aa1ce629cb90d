package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/lincolnep/xcode-tools/internal/models"
	"github.com/lincolnep/xcode-tools/internal/system"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// flagAliases maps legacy flag spellings to their current names.
var flagAliases = map[string]string{
	"mac-os-ver":     "os-release",
	"allowUntrusted": "allow-untrusted",
}

func normalizeFlag(f *pflag.FlagSet, name string) pflag.NormalizedName {
	if alias, ok := flagAliases[name]; ok {
		name = alias
	}
	return pflag.NormalizedName(name)
}

// addResolutionFlags registers the flags shared by every command that reads
// the catalog.
func addResolutionFlags(cmd *cobra.Command, cfg *models.RunConfig, configFile *string) {
	flags := cmd.Flags()
	flags.SetNormalizeFunc(normalizeFlag)

	flags.StringVarP(&cfg.Channel, "catalog", "c", cfg.Channel,
		fmt.Sprintf("Non standard catalog channel (%s)", strings.Join(models.Channels(), ", ")))
	flags.StringVar(&cfg.OSRelease, "os-release", cfg.OSRelease, "macOS release to resolve packages for (defaults to the running release)")
	flags.StringVarP(&cfg.Destination, "destination", "d", cfg.Destination, "Directory downloads are stored in")
	flags.StringSliceVar(&cfg.PackageNames, "package-name", cfg.PackageNames, "Package URL fragments to select")
	flags.StringVar(&cfg.CatalogBaseURL, "catalog-base-url", cfg.CatalogBaseURL, "Base URL of the software update catalogs")
	flags.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "Concurrent metadata requests")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per request HTTP timeout (0 for none)")
	flags.BoolVar(&cfg.SkipIncomplete, "skip-incomplete", cfg.SkipIncomplete, "Skip packages with incomplete metadata instead of failing")
	flags.StringVar(configFile, "config", "", "YAML configuration file")
}

// addExecutionFlags registers the flags that only apply to a run.
func addExecutionFlags(cmd *cobra.Command, cfg *models.RunConfig) {
	flags := cmd.Flags()
	flags.BoolVar(&cfg.AllowUntrusted, "allow-untrusted", cfg.AllowUntrusted, "Pass -allowUntrusted to the installer")
	flags.BoolVarP(&cfg.DryRun, "dry-run", "n", cfg.DryRun, "Report what would be done without doing it")
	flags.BoolVarP(&cfg.Install, "install", "i", cfg.Install, "Install the packages after downloading")
	flags.StringVarP(&cfg.InstallTarget, "target", "t", cfg.InstallTarget, "Volume to install onto")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "Only report results and errors")
	flags.BoolVar(&cfg.FailFast, "fail-fast", cfg.FailFast, "Abort on the first failed download")
	flags.BoolVar(&cfg.VerifyDigest, "verify-digest", cfg.VerifyDigest, "Verify downloads against catalog digests")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "quiet")
}

// configFields copies one setting from a config file unless its flag was
// given on the command line.
var configFields = map[string]func(dst, src *models.RunConfig){
	"allow-untrusted":  func(d, s *models.RunConfig) { d.AllowUntrusted = s.AllowUntrusted },
	"catalog":          func(d, s *models.RunConfig) { d.Channel = s.Channel },
	"destination":      func(d, s *models.RunConfig) { d.Destination = s.Destination },
	"dry-run":          func(d, s *models.RunConfig) { d.DryRun = s.DryRun },
	"install":          func(d, s *models.RunConfig) { d.Install = s.Install },
	"target":           func(d, s *models.RunConfig) { d.InstallTarget = s.InstallTarget },
	"quiet":            func(d, s *models.RunConfig) { d.Quiet = s.Quiet },
	"os-release":       func(d, s *models.RunConfig) { d.OSRelease = s.OSRelease },
	"package-name":     func(d, s *models.RunConfig) { d.PackageNames = s.PackageNames },
	"catalog-base-url": func(d, s *models.RunConfig) { d.CatalogBaseURL = s.CatalogBaseURL },
	"jobs":             func(d, s *models.RunConfig) { d.Jobs = s.Jobs },
	"timeout":          func(d, s *models.RunConfig) { d.Timeout = s.Timeout },
	"skip-incomplete":  func(d, s *models.RunConfig) { d.SkipIncomplete = s.SkipIncomplete },
	"fail-fast":        func(d, s *models.RunConfig) { d.FailFast = s.FailFast },
	"verify-digest":    func(d, s *models.RunConfig) { d.VerifyDigest = s.VerifyDigest },
}

// loadConfigFile merges the YAML file at path into cfg. Flags set on the
// command line take precedence over the file.
func loadConfigFile(cmd *cobra.Command, path string, cfg *models.RunConfig) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.NewError(models.ErrConfiguration, fmt.Errorf("reading config file: %w", err))
	}

	fileCfg := models.DefaultRunConfig()
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return models.NewError(models.ErrConfiguration, fmt.Errorf("parsing config file %s: %w", path, err))
	}

	for name, apply := range configFields {
		if cmd.Flags().Lookup(name) == nil || cmd.Flags().Changed(name) {
			continue
		}
		apply(cfg, &fileCfg)
	}
	return nil
}

// prepareConfig validates cfg and then falls back to the running release
// when none was requested. Only an explicit release is held to the
// supported list.
func prepareConfig(cfg *models.RunConfig, sys system.System) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.OSRelease != "" {
		return nil
	}

	release, err := sys.RunningRelease()
	if err != nil {
		return models.NewError(models.ErrConfiguration, fmt.Errorf("%w; pass --os-release", err))
	}
	release, err = models.NormalizeRelease(release)
	if err != nil {
		return models.NewError(models.ErrConfiguration, fmt.Errorf("running release: %w", err))
	}
	cfg.OSRelease = release
	return nil
}
