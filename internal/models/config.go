package models

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

const (
	// DefaultCatalogBaseURL is where the per-release catalogs are published
	DefaultCatalogBaseURL = "https://swscan.apple.com/content/catalogs/others"
	DefaultDestination    = "/tmp/xcode"
	DefaultInstallTarget  = "/"
)

// DefaultPackageNames are the URL fragments identifying the command line
// tools and SDK packages.
var DefaultPackageNames = []string{"CLTools", "DevSDK"}

// SupportedOSReleases lists the releases an explicit target may name.
var SupportedOSReleases = []string{"10.9", "10.10", "10.11", "10.12", "10.13", "10.14"}

// channelSuffixes maps recognized channel names to catalog URL suffixes
var channelSuffixes = map[string]string{
	"beta":          "beta",
	"customerseed":  "customerseed",
	"developerseed": "seed",
}

var releasePattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)*$`)

// ChannelSuffix returns the catalog URL suffix for channel. An empty channel
// selects the production catalog.
func ChannelSuffix(channel string) (string, error) {
	if channel == "" {
		return "", nil
	}
	suffix, ok := channelSuffixes[channel]
	if !ok {
		return "", fmt.Errorf("unrecognized catalog channel %q (expected one of %s)", channel, strings.Join(Channels(), ", "))
	}
	return suffix, nil
}

// Channels returns the recognized channel names.
func Channels() []string {
	return []string{"beta", "customerseed", "developerseed"}
}

// RunConfig contains the options for one resolve/download/install run
type RunConfig struct {
	AllowUntrusted bool   `yaml:"allow_untrusted"`
	Channel        string `yaml:"catalog"`
	Destination    string `yaml:"destination"`
	DryRun         bool   `yaml:"dry_run"`
	Install        bool   `yaml:"install"`
	InstallTarget  string `yaml:"target"`
	Quiet          bool   `yaml:"quiet"`

	// OSRelease is the release packages are resolved for. Empty means the
	// running release.
	OSRelease string `yaml:"os_release"`

	// Resolution options
	PackageNames   []string      `yaml:"package_names"`
	CatalogBaseURL string        `yaml:"catalog_base_url"`
	Jobs           int           `yaml:"jobs"`
	Timeout        time.Duration `yaml:"timeout"`
	SkipIncomplete bool          `yaml:"skip_incomplete"`

	// Execution options
	FailFast     bool `yaml:"fail_fast"`
	VerifyDigest bool `yaml:"verify_digest"`
}

// DefaultRunConfig returns a configuration with documented defaults filled in.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Destination:    DefaultDestination,
		InstallTarget:  DefaultInstallTarget,
		PackageNames:   append([]string(nil), DefaultPackageNames...),
		CatalogBaseURL: DefaultCatalogBaseURL,
		Jobs:           1,
		VerifyDigest:   true,
	}
}

// Validate checks the configuration and normalizes paths and the target
// release. An empty OSRelease is left for the caller to fill with the
// running release, which is not restricted to SupportedOSReleases. It
// performs no I/O beyond reading the environment.
func (c *RunConfig) Validate() error {
	if c.DryRun && c.Quiet {
		return NewError(ErrConfiguration, fmt.Errorf("dry-run and quiet are mutually exclusive"))
	}

	if _, err := ChannelSuffix(c.Channel); err != nil {
		return NewError(ErrConfiguration, err)
	}

	if c.OSRelease != "" {
		release, err := NormalizeRelease(c.OSRelease)
		if err != nil {
			return NewError(ErrConfiguration, err)
		}
		if !isSupportedRelease(release) {
			return NewError(ErrConfiguration, fmt.Errorf("unsupported OS release %s (supported: %s)",
				release, strings.Join(SupportedOSReleases, ", ")))
		}
		c.OSRelease = release
	}

	if c.Destination == "" {
		c.Destination = DefaultDestination
	}
	dest, err := homedir.Expand(os.ExpandEnv(c.Destination))
	if err != nil {
		return NewError(ErrConfiguration, fmt.Errorf("expanding destination %q: %w", c.Destination, err))
	}
	c.Destination = dest

	if c.InstallTarget == "" {
		c.InstallTarget = DefaultInstallTarget
	}
	if c.CatalogBaseURL == "" {
		c.CatalogBaseURL = DefaultCatalogBaseURL
	}

	var names []string
	for _, name := range c.PackageNames {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return NewError(ErrConfiguration, fmt.Errorf("at least one package name fragment is required"))
	}
	c.PackageNames = names

	if c.Jobs < 1 {
		return NewError(ErrConfiguration, fmt.Errorf("jobs must be at least 1, got %d", c.Jobs))
	}
	if c.Timeout < 0 {
		return NewError(ErrConfiguration, fmt.Errorf("timeout must not be negative"))
	}

	return nil
}

// NormalizeRelease reduces an OS version such as "10.13.6" to its
// two-segment release form "10.13".
func NormalizeRelease(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !releasePattern.MatchString(raw) {
		return "", fmt.Errorf("invalid OS release %q", raw)
	}
	parts := strings.Split(raw, ".")
	return parts[0] + "." + parts[1], nil
}

func isSupportedRelease(release string) bool {
	for _, r := range SupportedOSReleases {
		if r == release {
			return true
		}
	}
	return false
}
