package interp

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	syncDatabasesLabel = "Synchronizing databases..."
	pkgfileLabel       = "Synchronizing databases... (pkgfile -u)"
	syncingLabel       = "Syncing"
	upToDateLabel      = "is up to date"
	// FinishedWithErrors is the phrase callers print when a run crashes.
	FinishedWithErrors = "Command finished with errors!"
)

var packageCountRe = regexp.MustCompile(`Packages? \((\d+)\)`)

// keyVerbs mark a progress bracket as describing an action rather than a target.
var keyVerbs = []string{"Arming ", "checking ", "installing ", "upgrading ", "downgrading ", "removing "}

var hardSuppress = []string{
	"exists in filesystem",
	"already installed",
	":: waiting for 1 process to finish repacking",
	":: download complete in",
}

// upToDateDeny catches "is up to date" lines whose first word is really a
// warning or an error from another tool.
var upToDateDeny = []string{"warning", "error", "gconf", "failed", "fontconfig", "reading"}

// countedPhases reset the package counter when their header appears.
var countedPhases = []string{
	":: Retrieving packages",
	":: Processing package changes",
	":: Synchronizing package databases",
}

// A rule either consumes the line (done) or rewrites it for the rules after it.
type rule struct {
	name   string
	match  func(s *step, line string) bool
	handle func(s *step, line string) (next string, done bool)
}

// defaultRules is evaluated top to bottom for every line.
func defaultRules() []rule {
	return []rule{
		{"terminal-context", matchTerminal, handleDrop},
		{"mirror-check", matchMirrorCheck, handleMirrorCheck},
		{"escapes", always, handleEscapes},
		{"hard-suppress", matchHardSuppress, handleDrop},
		{"download-complete", matchDownloadComplete, handleGeneric},
		{"package-count", matchPackageCount, handlePackageCount},
		{"progress-bracket", matchProgressBracket, handleProgressBracket},
		{"diagnostics", always, handleDiagnostics},
		{"numbered-prefix", matchNumberedPrefix, handleNumberedPrefix},
		{"removing", matchRemoving, handleRemoving},
		{"pkgfile-update", matchPkgfileUpdate, handlePkgfileUpdate},
		{"phase-header", matchPhaseHeader, handlePhaseHeader},
		{"up-to-date", matchUpToDate, handleUpToDate},
		{"generic", always, handleGeneric},
	}
}

// Classifier maps one logical line and the run state to events.
type Classifier struct {
	ctrl      *Controller
	targets   TargetFilter
	installed InstalledChecker
	log       zerolog.Logger
	rules     []rule
}

// NewClassifier builds a classifier reading the active context from ctrl.
// A nil targets uses ArchTargetFilter(); a nil installed treats every package
// as absent.
func NewClassifier(ctrl *Controller, targets TargetFilter, installed InstalledChecker, log zerolog.Logger) *Classifier {
	if targets == nil {
		targets = ArchTargetFilter()
	}
	return &Classifier{
		ctrl:      ctrl,
		targets:   targets,
		installed: installed,
		log:       log,
		rules:     defaultRules(),
	}
}

// Step classifies line against st and returns the events it produced. st is
// updated in place: counters, totals and the emitted-lines set.
func (c *Classifier) Step(st *RunState, line string) []Event {
	s := &step{c: c, st: st, ctx: c.ctrl.Get()}
	in := line
	for _, r := range c.rules {
		if !r.match(s, line) {
			continue
		}
		next, done := r.handle(s, line)
		if done {
			c.log.Debug().Str("rule", r.name).Str("line", in).Int("events", len(s.out)).Msg("classified")
			return s.out
		}
		line = next
	}
	return s.out
}

func (c *Classifier) plausibleRemoval(name string) bool {
	if strings.Contains(name, "...") {
		return true
	}
	return c.installed != nil && c.installed.IsInstalled(name)
}

// step collects the events of one Step call.
type step struct {
	c   *Classifier
	st  *RunState
	ctx Context
	out []Event
}

func (s *step) percent(p int) {
	s.out = append(s.out, Event{Kind: KindPercent, Percent: clampPercent(p)})
}

func (s *step) canCancel(v bool) {
	s.out = append(s.out, Event{Kind: KindCanCancel, CanCancel: v})
}

func (s *step) total(n int) {
	s.out = append(s.out, Event{Kind: KindTotal, Total: n, Counter: s.st.Counter})
}

// adoptOrder logs an (i/N) order tag and takes N as the total when none is known yet.
func (s *step) adoptOrder(tag, total string) {
	s.c.log.Debug().Str("order", strings.TrimSpace(tag)).Msg("numbered prefix")
	if s.st.Total > 0 {
		return
	}
	if n, err := strconv.Atoi(total); err == nil && n > 0 {
		s.st.setTotal(n)
		s.total(n)
	}
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func always(*step, string) bool { return true }

func handleDrop(*step, string) (string, bool) { return "", true }

func matchTerminal(s *step, _ string) bool { return s.ctx.Terminal() }

func matchMirrorCheck(s *step, _ string) bool { return s.ctx == ContextMirrorCheck }

func handleMirrorCheck(s *step, line string) (string, bool) {
	if text := cleanMirror(line); text != "" {
		s.emit(classified{cat: CategoryInfo, text: text})
	}
	return "", true
}

func handleEscapes(_ *step, line string) (string, bool) {
	cleaned := StripEscapes(line)
	if strings.TrimSpace(cleaned) == "" {
		return "", true
	}
	return cleaned, false
}

func matchHardSuppress(_ *step, line string) bool { return containsAny(line, hardSuppress) }

func matchDownloadComplete(_ *step, line string) bool {
	return strings.Contains(line, "download complete: ")
}

func handleGeneric(s *step, line string) (string, bool) {
	if text := strings.TrimSpace(line); text != "" {
		s.emit(classified{cat: CategoryInfo, text: text})
	}
	return "", true
}

func matchPackageCount(s *step, line string) bool {
	return s.st.NumberedProgress && packageCountRe.MatchString(line)
}

func handlePackageCount(s *step, line string) (string, bool) {
	m := packageCountRe.FindStringSubmatch(line)
	if n, err := strconv.Atoi(m[1]); err == nil {
		s.st.setTotal(n)
		s.total(n)
	}
	return line, false
}

func matchProgressBracket(s *step, line string) bool {
	return strings.Contains(line, s.st.Style.endMarker()) || strings.Contains(line, s.st.Style.runMarker())
}

func handleProgressBracket(s *step, line string) (string, bool) {
	finished := strings.Contains(line, s.st.Style.endMarker())
	if finished {
		s.percent(100)
	}
	if open := strings.Index(line, "["); open > 0 {
		if r, _ := utf8.DecodeLastRuneInString(line[:open]); !unicode.IsSpace(r) {
			s.c.log.Debug().Str("line", line).Msg("bracket glued to text, dropping text")
			if !finished {
				s.trailingPercent(line)
			}
			return "", true
		}
	}
	if s.ctx.tracksTargets() {
		s.bracketText(line)
	}
	if !finished {
		s.trailingPercent(line)
	}
	return "", true
}

// trailingPercent emits the "NN%" value from the last four characters, if any.
func (s *step) trailingPercent(line string) {
	r := []rune(line)
	if len(r) > 4 {
		r = r[len(r)-4:]
	}
	tail := strings.TrimSpace(string(r))
	if strings.Index(tail, "%") <= 0 {
		return
	}
	n, err := strconv.Atoi(tail[:len(tail)-1])
	if err != nil {
		return
	}
	s.percent(n)
}

// bracketText pulls the action fragment or the target token out of a
// progress bracket line.
func (s *step) bracketText(line string) {
	msg := strings.TrimLeftFunc(line, unicode.IsSpace)
	if loc := numberedPrefixRe.FindStringSubmatchIndex(msg); loc != nil {
		if loc[0] != 0 {
			return
		}
		s.adoptOrder(msg[:loc[1]], msg[loc[4]:loc[5]])
		msg = msg[loc[1]:]
	}

	if containsAny(msg, keyVerbs) {
		fragment := msg
		if end := strings.Index(fragment, "["); end >= 0 {
			fragment = fragment[:end]
		}
		if fragment = strings.TrimSpace(fragment); fragment != "" {
			s.emit(classified{cat: CategoryInfo, text: fragment})
		}
		return
	}

	pos := strings.Index(msg, " ")
	if pos < 0 {
		s.emit(classified{cat: CategoryBare, text: msg})
		return
	}
	target := strings.TrimSpace(msg[:pos])
	if target == "" || !s.c.targets(target, s.ctx) {
		s.c.log.Debug().Str("token", target).Msg("not a target")
		return
	}
	if !strings.ContainsFunc(target, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		return
	}
	switch {
	case s.ctx == ContextSyncDatabases && !strings.Contains(target, "/"):
		s.emit(classified{cat: CategorySyncing, text: syncingLabel + " " + target, target: target})
	case s.ctx != ContextSyncDatabases:
		s.emit(classified{cat: CategoryTarget, text: target, target: target, pkg: PackageName(target)})
	}
}

func handleDiagnostics(_ *step, line string) (string, bool) {
	cleaned := StripDiagnostics(line)
	return cleaned, cleaned == ""
}

func matchNumberedPrefix(_ *step, line string) bool {
	loc := numberedPrefixRe.FindStringIndex(line)
	return loc != nil && loc[0] == 0
}

func handleNumberedPrefix(s *step, line string) (string, bool) {
	loc := numberedPrefixRe.FindStringSubmatchIndex(line)
	s.adoptOrder(line[:loc[1]], line[loc[4]:loc[5]])
	rest := strings.TrimSpace(line[loc[1]:])
	return rest, rest == ""
}

func matchRemoving(_ *step, line string) bool { return strings.HasPrefix(line, "removing ") }

func handleRemoving(s *step, line string) (string, bool) {
	name := strings.TrimSpace(strings.TrimPrefix(line, "removing "))
	if !s.c.plausibleRemoval(name) {
		s.c.log.Debug().Str("name", name).Msg("removal artifact suppressed")
		return "", true
	}
	s.emit(classified{cat: CategoryRemoved, text: line, pkg: PackageName(name)})
	return "", true
}

func matchPkgfileUpdate(s *step, line string) bool {
	return s.ctx == ContextSyncDatabases && strings.Contains(line, ":: Updating")
}

func handlePkgfileUpdate(s *step, _ string) (string, bool) {
	if !s.st.seen(pkgfileLabel) {
		s.canCancel(false)
	}
	s.emit(classified{cat: CategoryPhase, text: pkgfileLabel})
	return "", true
}

func matchPhaseHeader(_ *step, line string) bool { return strings.HasPrefix(line, "::") }

func handlePhaseHeader(s *step, line string) (string, bool) {
	if !s.st.seen(line) {
		switch {
		case strings.HasPrefix(line, ":: Retrieving packages"):
			s.canCancel(true)
		case strings.HasPrefix(line, ":: Processing package changes"):
			s.canCancel(false)
		}
		if hasAnyPrefix(line, countedPhases) {
			s.st.resetCounter()
		}
	}
	s.emit(classified{cat: CategoryInfo, text: line})
	return "", true
}

func matchUpToDate(s *step, line string) bool {
	return s.ctx == ContextSyncDatabases && strings.Contains(line, upToDateLabel)
}

func handleUpToDate(s *step, line string) (string, bool) {
	repo := line
	if i := strings.Index(line, " "); i >= 0 {
		repo = line[:i]
	}
	if containsAnyFold(repo, upToDateDeny) {
		s.c.log.Debug().Str("line", line).Msg("disguised diagnostic suppressed")
		return "", true
	}
	s.percent(100)
	s.emit(classified{cat: CategoryInfo, text: repo + " " + upToDateLabel})
	return "", true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsAnyFold(s string, subs []string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
