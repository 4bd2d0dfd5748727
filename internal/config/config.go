package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up locally and under the user config dir.
const FileName = ".pacfo.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// CliFlags holds the values of command-line flags.
type CliFlags struct {
	ProgressStyle string
	PacmanConf    string
	LockFile      string
	Format        string
	ThemeName     string
	Journal       string
	LogDir        string
	ShowNumbers   bool
	NoColor       bool
	CI            bool
	Debug         bool

	// Flags to track if they were explicitly set by the user
	ShowNumbersSet bool
	NoColorSet     bool
	CISet          bool
	DebugSet       bool
}

// AppConfig represents the contents of .pacfo.yaml.
type AppConfig struct {
	ShowPackageNumbers bool     `yaml:"show_package_numbers"`
	ProgressStyle      string   `yaml:"progress_style"`
	PacmanConf         string   `yaml:"pacman_conf"`
	LockFile           string   `yaml:"lock_file"`
	ArchSuffixes       []string `yaml:"arch_suffixes,omitempty"`
	Format             string   `yaml:"format"`
	Theme              string   `yaml:"theme"`
	NoColor            bool     `yaml:"no_color"`
	CI                 bool     `yaml:"ci"`
	Debug              bool     `yaml:"debug"`
	Journal            string   `yaml:"journal"`
	LogDir             string   `yaml:"log_dir"`
	LogMaxSizeMB       int      `yaml:"log_max_size_mb"`
}

// Constants for default values.
const (
	DefaultProgressStyle = "auto"
	DefaultPacmanConf    = "/etc/pacman.conf"
	DefaultLockFile      = "/var/lib/pacman/db.lck"
	DefaultFormat        = "auto"
	DefaultTheme         = "default"
	DefaultLogMaxSizeMB  = 10
	// JournalOff disables the run journal.
	JournalOff = "off"
)

// Defaults returns the configuration used when no file is found. Format,
// theme and progress style stay empty so resolution can tell a file value
// from a default.
func Defaults() *AppConfig {
	return &AppConfig{
		PacmanConf:   DefaultPacmanConf,
		LockFile:     DefaultLockFile,
		LogMaxSizeMB: DefaultLogMaxSizeMB,
	}
}

// LoadConfig finds and loads the config file. It returns the defaults and an
// empty path when there is none.
func LoadConfig() (*AppConfig, string, error) {
	path := getConfigPath()
	if path == "" {
		return Defaults(), "", nil
	}
	cfg, err := LoadConfigFrom(path)
	return cfg, path, err
}

// LoadConfigFrom merges the YAML file at path onto the defaults. Keys left
// out of the file keep their default.
func LoadConfigFrom(path string) (*AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Defaults(), fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// getConfigPath tries PACFO_CONFIG, then the local .pacfo.yaml, then the XDG
// user config dir. It returns "" when none exists.
func getConfigPath() string {
	if p := os.Getenv("PACFO_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	configHome, err := os.UserConfigDir()
	// UserConfigDir may succeed with "/" in stripped-down environments.
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	xdgPath := filepath.Join(configHome, "pacfo", FileName)
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return ""
}

// DefaultJournalPath is the journal database under the user cache dir.
func DefaultJournalPath() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "pacfo", "journal.db")
}
