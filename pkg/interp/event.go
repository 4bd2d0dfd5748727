package interp

// Kind discriminates Event payloads.
type Kind int

const (
	// KindText is a markup-wrapped display line that already carries its terminator.
	KindText Kind = iota
	// KindPassthrough is raw markup emitted without dedup or colouring (start banners).
	KindPassthrough
	// KindPercent carries an overall progress value in [0, 100].
	KindPercent
	// KindCanCancel toggles whether the running transaction may be cancelled.
	KindCanCancel
	// KindTotal reports a newly learned package total for numbered progress.
	KindTotal
	// KindFinished forwards the process exit, possibly rewritten.
	KindFinished
)

var kindNames = [...]string{
	KindText:        "text",
	KindPassthrough: "passthrough",
	KindPercent:     "percent",
	KindCanCancel:   "can-cancel",
	KindTotal:       "total",
	KindFinished:    "finished",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Category is the semantic class of an emitted text line.
type Category int

const (
	CategoryNone    Category = iota
	CategoryInfo             // generic informational text
	CategoryWarning          // warning or downgrading phrases
	CategoryError            // error and failure phrases
	CategoryAction           // checking / installing / upgrading phrases
	CategoryPhase            // ":: ..." headers
	CategoryTarget           // a package target taken from a progress bracket
	CategoryRemoved          // a package removal
	CategorySyncing          // a repository being synchronized
	CategoryBare             // a progress line with no separable target
)

var categoryNames = [...]string{
	CategoryNone:    "",
	CategoryInfo:    "info",
	CategoryWarning: "warning",
	CategoryError:   "error",
	CategoryAction:  "action",
	CategoryPhase:   "phase",
	CategoryTarget:  "target",
	CategoryRemoved: "removed",
	CategorySyncing: "syncing",
	CategoryBare:    "bare",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// ExitStatus mirrors how the subprocess terminated.
type ExitStatus int

const (
	NormalExit ExitStatus = iota
	CrashExit
)

func (s ExitStatus) String() string {
	if s == CrashExit {
		return "crashed"
	}
	return "normal"
}

// CancelledExitCode replaces the real exit code when a cancelled run left the
// database lock behind.
const CancelledExitCode = -1

// Event is one unit of interpreter output. Which fields are meaningful depends
// on Kind.
type Event struct {
	Kind     Kind
	Category Category

	// Text is the rendered markup for KindText and KindPassthrough.
	Text string
	// Raw is the unmarked payload used for deduplication.
	Raw string

	Percent   int
	CanCancel bool

	// Counter and Total are set when an (i/N) prefix was synthesized, and on
	// KindTotal events.
	Counter int
	Total   int

	// Target is the bracket token a target or syncing line was built from.
	Target string
	// Package is the package name with version and architecture stripped.
	Package string

	ExitCode int
	Status   ExitStatus
}

// Sink receives events in emission order.
type Sink func(Event)
