// Package config handles configuration loading and merging for pacfo.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--no-color, --numbers, --progress-style, --format, etc.)
//  2. Environment variables (PACFO_NO_COLOR, PACFO_FORMAT, NO_COLOR, CI, ...)
//  3. YAML config file (.pacfo.yaml in the working directory or ~/.config/pacfo/.pacfo.yaml)
//  4. Hardcoded defaults
//
// When a higher-priority source sets a value, it overrides any lower-priority values.
//
// # Progress Style
//
// progress_style "auto" (the default) reads pacman.conf and picks "fancy"
// when ILoveCandy is set under [options]. A missing or unreadable
// pacman.conf falls back to "plain".
//
// # CI Mode Behavior
//
// When CI mode is enabled (via --ci, CI=true or ci: true in YAML) colors are
// disabled and the "auto" format resolves to "plain" instead of a live view.
//
// # Environment Variables
//
//   - PACFO_NO_COLOR or NO_COLOR: "true" or "1" disables colors
//   - PACFO_CI or CI: "true" or "1" enables CI mode
//   - PACFO_DEBUG: any non-empty value enables debug logging
//   - PACFO_FORMAT, PACFO_THEME, PACFO_PROGRESS_STYLE: override the matching keys
//   - PACFO_SHOW_NUMBERS: "true" enables (i/N) counters
//   - PACFO_JOURNAL: journal database path, or "off"
//   - PACFO_CONFIG: explicit config file path
package config
