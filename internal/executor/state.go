package executor

// State is the phase a run is in
type State int

const (
	Idle State = iota
	Resolving
	Planning
	Downloading
	Installing
	CleaningUp
	Done
	Aborted
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Resolving:
		return "Resolving"
	case Planning:
		return "Planning"
	case Downloading:
		return "Downloading"
	case Installing:
		return "Installing"
	case CleaningUp:
		return "CleaningUp"
	case Done:
		return "Done"
	case Aborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// verbs holds the wording for report lines. Dry runs use the imperative so
// their output cannot be mistaken for a live run.
type verbs struct {
	download string
	install  string
	cleanup  string
}

var (
	liveVerbs   = verbs{download: "Downloading", install: "Installing", cleanup: "Removing"}
	dryRunVerbs = verbs{download: "Download", install: "Install", cleanup: "Remove"}
)
