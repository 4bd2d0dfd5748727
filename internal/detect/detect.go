// Package detect sniffs a captured transcript to work out how it is stored
// and which pacman operation produced it.
package detect

import (
	"bytes"
	"encoding/json"
	"regexp"

	"github.com/dkoosis/pacfo/pkg/interp"
)

// Format represents a recognized transcript encoding.
type Format int

const (
	Unknown   Format = iota
	Plain            // raw terminal output
	XZ               // xz-compressed stream of either of the others
	Recording        // pacfo NDJSON recording, one chunk per line
)

func (f Format) String() string {
	switch f {
	case Plain:
		return "plain"
	case XZ:
		return "xz"
	case Recording:
		return "recording"
	}
	return "unknown"
}

var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// Sniff examines the first bytes of input to determine format.
// Input must contain at least the first line.
func Sniff(data []byte) Format {
	if bytes.HasPrefix(data, xzMagic) {
		return XZ
	}
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return Unknown
	}
	if data[0] == '{' && isRecording(data) {
		return Recording
	}
	return Plain
}

func isRecording(data []byte) bool {
	firstLine := data
	if end := bytes.IndexByte(data, '\n'); end >= 0 {
		firstLine = data[:end]
	}

	var probe struct {
		Channel string  `json:"ch"`
		Data    *string `json:"data"`
	}
	if err := json.Unmarshal(firstLine, &probe); err != nil {
		return false
	}
	return (probe.Channel == "stdout" || probe.Channel == "stderr") && probe.Data != nil
}

var mirrorLineRe = regexp.MustCompile(`(?m)^\S*Checking\S* .*https?://`)

// Context guesses the operation behind a plain transcript from its headers.
// It returns interp.ContextNone when nothing is conclusive.
func Context(data []byte) interp.Context {
	has := func(s string) bool { return bytes.Contains(data, []byte(s)) }

	switch {
	case has(":: Starting full system upgrade"):
		return interp.ContextSystemUpgrade
	case has(":: Synchronizing package databases"):
		return interp.ContextSyncDatabases
	case mirrorLineRe.Match(data):
		return interp.ContextMirrorCheck
	}

	removes := has(":: Do you want to remove these packages?") || has("removing ")
	installs := has(":: Proceed with installation?") || has("installing ") || has("upgrading ")
	switch {
	case removes && installs:
		return interp.ContextRemoveInstall
	case removes:
		return interp.ContextRemove
	case installs:
		return interp.ContextInstall
	}
	return interp.ContextNone
}
