package interp

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	colorTarget  = "#b4ab58"
	colorError   = "#E55451"
	colorWarning = "#FF8040"
	colorAction  = "#4BC413"
	colorBare    = "blue"
)

var (
	openDigitRe      = regexp.MustCompile(`\(\d`)
	closeDigitRe     = regexp.MustCompile(`\d\)`)
	removingTailRe   = regexp.MustCompile(`removing (\S+)$`)
	installUpgradeRe = regexp.MustCompile(`(installing|upgrading) (\S+)$`)
)

var errorPhrases = []string{"removing ", "could not ", "failed", "is not synced", "could not be found", FinishedWithErrors}

var actionPhrases = []string{"checking ", "is synced", "-- reinstalling", "installing ", "upgrading "}

// classified is a line on its way to the emitter. CategoryInfo means the
// emitter picks the colour from the text; every other category arrives
// already decided.
type classified struct {
	cat    Category
	text   string
	target string
	pkg    string
}

// emit deduplicates cl, marks it up and appends the text event.
func (s *step) emit(cl classified) {
	if cl.cat == CategoryInfo && dropUnmarked(cl.text) {
		s.c.log.Debug().Str("text", cl.text).Msg("unmarked line dropped")
		return
	}
	if s.st.seen(cl.text) {
		return
	}

	ev := Event{Kind: KindText, Category: cl.cat, Raw: cl.text, Target: cl.target, Package: cl.pkg}
	var markup string
	switch cl.cat {
	case CategoryTarget:
		prefix := s.counterPrefix(&ev, s.st.NumberedProgress && s.ctx != ContextSyncDatabases)
		markup = font(colorTarget, prefix+cl.text)
	case CategoryRemoved:
		prefix := s.counterPrefix(&ev, s.st.NumberedProgress)
		markup = font(colorError, prefix+cl.text)
	case CategorySyncing:
		markup = font(colorWarning, cl.text)
	case CategoryBare:
		markup = font(colorBare, cl.text)
	case CategoryPhase:
		markup = phase(cl.text)
	default:
		var ok bool
		if markup, ok = s.markGeneric(&ev, cl.text); !ok {
			return
		}
	}
	if !strings.Contains(markup, "<br") {
		markup += "<br>"
	}

	s.st.markSeen(cl.text)
	ev.Text = markup
	s.out = append(s.out, ev)
}

// markGeneric colours free text by keyword precedence: error, warning,
// action, phase, plain. It returns false when the line must not be shown.
func (s *step) markGeneric(ev *Event, text string) (string, bool) {
	var body string
	switch {
	case isErrorPhrase(text):
		body = strings.TrimSpace(text)
		ev.Category = CategoryError
		if strings.Contains(body, "failed retrieving file") {
			s.st.ErrorRetries++
			if s.st.ErrorRetries > MaxRetrievalErrors {
				s.c.log.Debug().Int("retries", s.st.ErrorRetries).Msg("retrieval error capped")
				return "", false
			}
		}
		prefix := ""
		if m := removingTailRe.FindStringSubmatch(body); m != nil && s.c.plausibleRemoval(m[1]) {
			ev.Category = CategoryRemoved
			ev.Package = PackageName(m[1])
			prefix = s.counterPrefix(ev, s.st.NumberedProgress)
		}
		body = font(colorError, prefix+body+"&nbsp;")
	case containsAnyFold(text, []string{"warning"}) || strings.Contains(text, "downgrading"):
		ev.Category = CategoryWarning
		body = font(colorWarning, text)
	case containsAny(text, actionPhrases):
		body = strings.TrimSpace(text)
		ev.Category = CategoryAction
		prefix := ""
		if m := installUpgradeRe.FindStringSubmatch(body); m != nil {
			ev.Package = PackageName(m[2])
			prefix = s.counterPrefix(ev, s.st.NumberedProgress)
		}
		body = font(colorAction, prefix+body)
	case !strings.Contains(text, "::"):
		ev.Category = CategoryInfo
		body = text + "<br>"
	default:
		ev.Category = CategoryPhase
		body = text
	}
	if strings.Contains(body, "::") {
		body = phase(body)
	}
	return body, true
}

// counterPrefix returns "(i/N) " and advances the counter when enabled and
// the total is known.
func (s *step) counterPrefix(ev *Event, enabled bool) string {
	if !enabled || s.st.Total <= 0 {
		return ""
	}
	n := s.st.takeCounter()
	ev.Counter, ev.Total = n, s.st.Total
	return "(" + strconv.Itoa(n) + "/" + strconv.Itoa(s.st.Total) + ") "
}

func isErrorPhrase(text string) bool {
	return containsAny(text, errorPhrases) || containsAnyFold(text, []string{"error:"})
}

// dropUnmarked filters transfer statistics, prompts and bar fragments that
// carry no information once the bracket rules have run.
func dropUnmarked(text string) bool {
	lower := strings.ToLower(text)
	exempt := strings.Contains(lower, "target") || strings.Contains(lower, "package")
	switch {
	case !exempt && (openDigitRe.MatchString(text) || closeDigitRe.MatchString(text)):
		return true
	case strings.HasPrefix(lower, "enter a selection"), strings.HasPrefix(lower, "proceed with"):
		return true
	case strings.ContainsAny(text, "%[]"), strings.Contains(text, "---"):
		return true
	}
	return false
}

func font(color, text string) string {
	return `<b><font color="` + color + `">` + text + "</font></b>"
}

func phase(text string) string {
	return "<br><B>" + text + "</B><br><br>"
}
