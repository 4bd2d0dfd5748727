package interp

import "github.com/rs/zerolog"

// LockProbe reports whether the package database lock file is present.
type LockProbe interface {
	Present() bool
}

// Config is read once per run.
type Config struct {
	Context          Context
	NumberedProgress bool
	Style            ProgressStyle
	// Targets overrides the architecture-suffix target filter.
	Targets TargetFilter
	// Installed confirms removals that lack an ellipsis. Nil means nothing is installed.
	Installed InstalledChecker
	// Logger receives debug traces of rule decisions. Nil disables logging.
	Logger *zerolog.Logger
}

// Interpreter feeds subprocess output through the chunkers and the classifier
// and hands the resulting events to a Sink.
type Interpreter struct {
	cfg       Config
	ctrl      *Controller
	cls       *Classifier
	state     *RunState
	chunkers  [2]Chunker
	sink      Sink
	log       zerolog.Logger
	cancelled bool
}

// New returns an interpreter ready for a run in cfg.Context.
func New(cfg Config, sink Sink) *Interpreter {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	if sink == nil {
		sink = func(Event) {}
	}
	ctrl := NewController(cfg.Context)
	it := &Interpreter{
		cfg:  cfg,
		ctrl: ctrl,
		cls:  NewClassifier(ctrl, cfg.Targets, cfg.Installed, log),
		sink: sink,
		log:  log,
	}
	it.Reset()
	return it
}

// Controller exposes the context controller so callers can switch context
// between runs and watch the can-cancel signal.
func (it *Interpreter) Controller() *Controller {
	return it.ctrl
}

// Reset discards the run state, the emitted-lines set and buffered fragments.
func (it *Interpreter) Reset() {
	it.state = NewRunState(it.cfg.NumberedProgress, it.cfg.Style)
	it.chunkers = [2]Chunker{}
	it.cancelled = false
}

// State returns a copy of the run counters.
func (it *Interpreter) State() RunState {
	st := *it.state
	st.emitted = nil
	return st
}

// Started begins a new run: the run state is reset and the banner for the
// active context is emitted.
func (it *Interpreter) Started() {
	it.Reset()
	banner := it.ctrl.Get().Banner()
	it.log.Debug().Str("context", it.ctrl.Get().String()).Msg("run started")
	if banner == "" {
		return
	}
	it.deliver(Event{Kind: KindPassthrough, Text: "<b>" + banner + "</b><br><br>", Raw: banner})
}

// Feed interprets a chunk read from ch. Lines completed by the chunk are
// fully classified and emitted before Feed returns.
func (it *Interpreter) Feed(ch Channel, chunk []byte) {
	for _, line := range it.chunkers[ch&1].Push(chunk) {
		it.line(line)
	}
}

// FeedLine interprets one already complete line.
func (it *Interpreter) FeedLine(line string) {
	it.line(line)
}

func (it *Interpreter) line(line string) {
	for _, seg := range Segment(line) {
		for _, ev := range it.cls.Step(it.state, seg) {
			it.deliver(ev)
		}
	}
}

func (it *Interpreter) deliver(ev Event) {
	if ev.Kind == KindCanCancel {
		it.ctrl.setCanCancel(ev.CanCancel)
	}
	it.sink(ev)
}

// Cancel records that the user asked to stop the run.
func (it *Interpreter) Cancel() {
	it.cancelled = true
}

// Cancelled reports whether Cancel was called during this run.
func (it *Interpreter) Cancelled() bool {
	return it.cancelled
}

// Finished flushes buffered fragments and forwards the process exit. A
// cancelled run that left the lock file behind reports CancelledExitCode.
func (it *Interpreter) Finished(exitCode int, status ExitStatus, lock LockProbe) Event {
	for i := range it.chunkers {
		if rest := it.chunkers[i].Flush(); rest != "" {
			it.line(rest)
		}
	}
	code := exitCode
	if it.cancelled && lock != nil && lock.Present() {
		it.log.Debug().Int("exit_code", exitCode).Msg("cancelled with lock present")
		code = CancelledExitCode
	}
	ev := Event{Kind: KindFinished, ExitCode: code, Status: status}
	it.deliver(ev)
	return ev
}
