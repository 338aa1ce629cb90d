package installer

import "strings"

// Outcome is the interpreted result of an installer run
type Outcome int

const (
	InstallFailed Outcome = iota
	InstallSucceeded
	UpgradeSucceeded
)

// String returns the report wording for the outcome
func (o Outcome) String() string {
	switch o {
	case InstallSucceeded:
		return "install successful"
	case UpgradeSucceeded:
		return "upgrade successful"
	default:
		return "install/upgrade failed, see /var/log/install.log"
	}
}

// Succeeded reports whether the outcome is a success
func (o Outcome) Succeeded() bool {
	return o == InstallSucceeded || o == UpgradeSucceeded
}

// Classify interprets installer output. The installer has no structured
// result, so this matches substrings: any stderr text, a "fail" in stdout or
// a run error means failure; otherwise "upgrade" beats "successful"; output
// matching neither is treated as failure.
func Classify(out Output, runErr error) Outcome {
	stdout := strings.ToLower(out.Stdout)

	switch {
	case runErr != nil, strings.TrimSpace(out.Stderr) != "", strings.Contains(stdout, "fail"):
		return InstallFailed
	case strings.Contains(stdout, "upgrade"):
		return UpgradeSucceeded
	case strings.Contains(stdout, "successful"):
		return InstallSucceeded
	default:
		return InstallFailed
	}
}
