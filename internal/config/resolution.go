package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dkoosis/pacfo/pkg/interp"
	"github.com/dkoosis/pacfo/pkg/pacman"
)

// Source values recorded on ResolvedConfig.
const (
	SourceCLI     = "cli"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceDefault = "default"
	// SourcePacmanConf marks a progress style read from pacman.conf.
	SourcePacmanConf = "pacman.conf"
)

// Formats accepted by the format key.
var Formats = []string{"auto", "terminal", "plain", "json", "html", "tui"}

// Themes accepted by the theme key.
var Themes = []string{"default", "mono", "high-contrast"}

// ResolvedConfig holds the final resolved configuration after applying all priority rules.
type ResolvedConfig struct {
	ShowPackageNumbers bool
	Style              interp.ProgressStyle
	PacmanConf         string
	LockFile           string
	ArchSuffixes       []string
	Format             string
	Theme              string
	NoColor            bool
	CI                 bool
	Debug              bool
	// Journal is the database path, "" when the journal is off.
	Journal      string
	LogDir       string
	LogMaxSizeMB int

	// Resolution metadata (for debugging)
	ConfigPath        string
	StyleSource       string
	FormatSource      string
	NoColorSource     string
	ShowNumbersSource string
}

// ResolveConfig resolves configuration from all sources with explicit priority order.
func ResolveConfig(cliFlags CliFlags) (*ResolvedConfig, error) {
	appCfg, path, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	resolved, err := Resolve(appCfg, cliFlags, os.Getenv)
	if err != nil {
		return nil, err
	}
	resolved.ConfigPath = path
	return resolved, nil
}

// Resolve applies CLI flags and environment (read through getenv) over appCfg.
func Resolve(appCfg *AppConfig, cliFlags CliFlags, getenv func(string) string) (*ResolvedConfig, error) {
	if appCfg == nil {
		appCfg = Defaults()
	}
	resolved := &ResolvedConfig{
		ShowPackageNumbers: appCfg.ShowPackageNumbers,
		PacmanConf:         firstNonEmpty(cliFlags.PacmanConf, appCfg.PacmanConf, DefaultPacmanConf),
		LockFile:           firstNonEmpty(cliFlags.LockFile, appCfg.LockFile, DefaultLockFile),
		ArchSuffixes:       appCfg.ArchSuffixes,
		NoColor:            appCfg.NoColor,
		CI:                 appCfg.CI,
		Debug:              appCfg.Debug,
		LogDir:             firstNonEmpty(cliFlags.LogDir, appCfg.LogDir),
		LogMaxSizeMB:       appCfg.LogMaxSizeMB,
		NoColorSource:      SourceFile,
		ShowNumbersSource:  SourceFile,
	}

	// Resolve NoColor with priority: CLI > ENV > file > default
	if cliFlags.NoColorSet {
		resolved.NoColor = cliFlags.NoColor
		resolved.NoColorSource = SourceCLI
	} else if v := getEnvBool(getenv, "PACFO_NO_COLOR", "NO_COLOR"); v != nil {
		resolved.NoColor = *v
		resolved.NoColorSource = SourceEnv
	}

	if cliFlags.CISet {
		resolved.CI = cliFlags.CI
	} else if v := getEnvBool(getenv, "PACFO_CI", "CI"); v != nil {
		resolved.CI = *v
	}

	if cliFlags.DebugSet {
		resolved.Debug = cliFlags.Debug
	} else if getenv("PACFO_DEBUG") != "" {
		resolved.Debug = true
	}

	if cliFlags.ShowNumbersSet {
		resolved.ShowPackageNumbers = cliFlags.ShowNumbers
		resolved.ShowNumbersSource = SourceCLI
	} else if v := getEnvBool(getenv, "PACFO_SHOW_NUMBERS"); v != nil {
		resolved.ShowPackageNumbers = *v
		resolved.ShowNumbersSource = SourceEnv
	}

	resolved.Format, resolved.FormatSource = pick(cliFlags.Format, getenv("PACFO_FORMAT"), appCfg.Format, DefaultFormat)
	resolved.Theme, _ = pick(cliFlags.ThemeName, getenv("PACFO_THEME"), appCfg.Theme, DefaultTheme)

	journal, _ := pick(cliFlags.Journal, getenv("PACFO_JOURNAL"), appCfg.Journal, "")
	switch journal {
	case JournalOff:
		resolved.Journal = ""
	case "":
		resolved.Journal = DefaultJournalPath()
	default:
		resolved.Journal = journal
	}

	if resolved.CI {
		resolved.NoColor = true
		if resolved.Format == "auto" {
			resolved.Format = "plain"
		}
	}

	styleName, styleSource := pick(cliFlags.ProgressStyle, getenv("PACFO_PROGRESS_STYLE"), appCfg.ProgressStyle, DefaultProgressStyle)
	style, source, err := resolveStyle(styleName, styleSource, resolved.PacmanConf)
	if err != nil {
		return nil, err
	}
	resolved.Style, resolved.StyleSource = style, source

	if len(resolved.ArchSuffixes) == 0 {
		if conf, err := pacman.ReadConf(resolved.PacmanConf); err == nil {
			resolved.ArchSuffixes = conf.ArchSuffixes()
		} else {
			resolved.ArchSuffixes = interp.DefaultArchSuffixes
		}
	}

	if err := validateResolvedConfig(resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}

func resolveStyle(name, source, pacmanConf string) (interp.ProgressStyle, string, error) {
	if strings.EqualFold(name, "auto") {
		conf, err := pacman.ReadConf(pacmanConf)
		if err != nil {
			return interp.StylePlain, SourceDefault, nil
		}
		return conf.Style(), SourcePacmanConf, nil
	}
	style, err := interp.ParseProgressStyle(name)
	if err != nil {
		return interp.StylePlain, "", fmt.Errorf("%w: progress_style: %v", ErrInvalid, err)
	}
	return style, source, nil
}

// pick returns the first non-empty of cli, env, file, def and where it came from.
func pick(cli, env, file, def string) (string, string) {
	switch {
	case cli != "":
		return cli, SourceCLI
	case env != "":
		return env, SourceEnv
	case file != "":
		return file, SourceFile
	}
	return def, SourceDefault
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// getEnvBool reads a boolean from environment variables, trying multiple keys.
// Returns nil if none are set.
func getEnvBool(getenv func(string) string, keys ...string) *bool {
	for _, key := range keys {
		if val := getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return &b
			}
		}
	}
	return nil
}

func validateResolvedConfig(cfg *ResolvedConfig) error {
	if !contains(Formats, cfg.Format) {
		return fmt.Errorf("%w: format %q (must be one of %s)", ErrInvalid, cfg.Format, strings.Join(Formats, ", "))
	}
	if !contains(Themes, cfg.Theme) {
		return fmt.Errorf("%w: theme %q (must be one of %s)", ErrInvalid, cfg.Theme, strings.Join(Themes, ", "))
	}
	if cfg.LogMaxSizeMB < 0 {
		return fmt.Errorf("%w: log_max_size_mb must not be negative, got %d", ErrInvalid, cfg.LogMaxSizeMB)
	}
	for _, s := range cfg.ArchSuffixes {
		if s == "" {
			return fmt.Errorf("%w: arch_suffixes contains an empty entry", ErrInvalid)
		}
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
