package interp

import (
	"fmt"
	"strings"
)

// ProgressStyle is the way pacman draws its progress bars.
type ProgressStyle int

const (
	// StylePlain draws "[####----]" bars.
	StylePlain ProgressStyle = iota
	// StyleFancy is pacman's ILoveCandy animation.
	StyleFancy
)

func (s ProgressStyle) String() string {
	if s == StyleFancy {
		return "fancy"
	}
	return "plain"
}

// ParseProgressStyle accepts "fancy" or "plain".
func ParseProgressStyle(name string) (ProgressStyle, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fancy", "candy":
		return StyleFancy, nil
	case "plain", "":
		return StylePlain, nil
	}
	return StylePlain, fmt.Errorf("unknown progress style %q (expected fancy or plain)", name)
}

// runMarker appears in a bar that is still moving.
func (s ProgressStyle) runMarker() string {
	if s == StyleFancy {
		return "m]"
	}
	return "-]"
}

// endMarker appears in a completed bar.
func (s ProgressStyle) endMarker() string {
	if s == StyleFancy {
		return "100%"
	}
	return "#]"
}
