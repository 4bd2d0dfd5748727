package interp

import (
	"regexp"
	"strings"
)

// confirmPromptRe matches echoed confirmation prompts.
var confirmPromptRe = regexp.MustCompile(`.+\[Y/n\].+`)

// escapeSequences is the small repertoire pacman and its wrappers emit.
// Order matters: bare ESC is removed before the bracket remnants it leaves.
var escapeSequences = []string{
	"\x1b[0;1m",
	"\x1b[0m",
	"\x1b[1;33m",
	"\x1b[00;31m",
	"\x1b[1;34m",
	"c\x1b",
	"C\x1b",
	"\x1b",
	"[m[0;37m",
	"o\x1b",
	"[m\x1b",
	";37m",
	"[c",
	"[mo",
}

// mirrorSequences are the colours used by the mirror-check tool.
var mirrorSequences = []string{
	"\x1b[01;33m",
	"\x1b[01;37m",
	"\x1b[00m",
	"\x1b[00;32m",
	"\x1b[00;31m",
}

// diagnosticPatterns strip chatter from helper tools sharing the pipeline:
// privilege-escalation front-ends, desktop sessions, font configuration.
var diagnosticPatterns = compileAll(
	`Don't need password!!`,
	`\(process.+`,
	`QXcbConnection: XCB error:.+`,
	`Using the fallback.+`,
	`Gkr-Message:.+`,
	`kdesu.+`,
	`kbuildsycoca.+`,
	`Connecting to deprecated signal.+`,
	`QVariant.+`,
	`gksu-run.+`,
	`GConf Error:.+`,
	`:: Do.*`,
	`org\.kde\.`,
	`QCommandLineParser`,
	`QCoreApplication.+`,
	`Fontconfig warning.+`,
	`reading configurations from.+`,
	`.+annot load library.+`,
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// StripEscapes removes confirmation prompts and the known colour sequences.
func StripEscapes(line string) string {
	line = confirmPromptRe.ReplaceAllString(line, "")
	for _, seq := range escapeSequences {
		line = strings.ReplaceAll(line, seq, "")
	}
	return line
}

// StripDiagnostics removes helper-tool noise and trims the result.
func StripDiagnostics(line string) string {
	for _, re := range diagnosticPatterns {
		line = re.ReplaceAllString(line, "")
	}
	return strings.TrimSpace(line)
}

// cleanMirror prepares a mirror-check line: colours removed and brackets
// turned into quotes so the emitter does not mistake it for a progress bar.
func cleanMirror(line string) string {
	for _, seq := range mirrorSequences {
		line = strings.ReplaceAll(line, seq, "")
	}
	line = strings.ReplaceAll(line, "[", "'")
	line = strings.ReplaceAll(line, "]", "'")
	return strings.TrimSpace(line)
}
