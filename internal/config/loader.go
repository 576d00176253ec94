package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// BrowserSection configures the browser process.
type BrowserSection struct {
	// ChromePath is the Chrome/Chromium executable.
	ChromePath string `yaml:"chromePath,omitempty"`

	// Headless runs without a window. Defaults to true.
	Headless *bool `yaml:"headless,omitempty"`

	// NoSandbox passes --no-sandbox to Chrome.
	NoSandbox *bool `yaml:"noSandbox,omitempty"`

	// NavigationTimeout bounds a navigation, e.g. "30s".
	NavigationTimeout time.Duration `yaml:"navigationTimeout,omitempty"`

	// QuietWindow is the network quiescence window, e.g. "500ms".
	QuietWindow time.Duration `yaml:"quietWindow,omitempty"`
}

// OutputSection configures where files are written.
type OutputSection struct {
	Dir       string `yaml:"dir,omitempty"`
	LogFile   string `yaml:"logFile,omitempty"`
	PaperSize string `yaml:"paperSize,omitempty"`
}

// HistorySection configures the run history database.
type HistorySection struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// File represents the structure of the .fpprobe configuration file.
// Only environment settings live here; the probe itself is fixed.
type File struct {
	Browser BrowserSection `yaml:"browser,omitempty"`
	Output  OutputSection  `yaml:"output,omitempty"`
	History HistorySection `yaml:"history,omitempty"`
}

// LoadConfigFile loads environment settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &f, nil
}

// Apply overrides the environment fields of cfg with the values set in f.
// Zero values in f leave cfg untouched.
func (f *File) Apply(cfg *Config) error {
	if f.Browser.ChromePath != "" {
		cfg.ChromePath = f.Browser.ChromePath
	}
	if f.Browser.Headless != nil {
		cfg.Headless = *f.Browser.Headless
	}
	if f.Browser.NoSandbox != nil {
		cfg.NoSandbox = *f.Browser.NoSandbox
	}
	if f.Browser.NavigationTimeout != 0 {
		cfg.NavigationTimeout = f.Browser.NavigationTimeout
	}
	if f.Browser.QuietWindow != 0 {
		cfg.QuietWindow = f.Browser.QuietWindow
	}

	if f.Output.Dir != "" {
		cfg.OutputDir = f.Output.Dir
	}
	if f.Output.LogFile != "" {
		cfg.LogFile = f.Output.LogFile
	}
	if f.Output.PaperSize != "" {
		paper, err := LookupPaperSize(f.Output.PaperSize)
		if err != nil {
			return fmt.Errorf("%w: %q", err, f.Output.PaperSize)
		}
		cfg.PaperSize = paper
	}

	if f.History.Enabled != nil {
		cfg.SaveHistory = *f.History.Enabled
	}
	if f.History.Dir != "" {
		cfg.DBDir = f.History.Dir
	}
	return nil
}

// XDGConfigFile is the configuration file name inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .fpprobe in the current directory
// 3. Look for .fpprobe in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}
	return firstExisting(configCandidates())
}

// configCandidates lists the default configuration locations in lookup order.
func configCandidates() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), XDGConfigFile))
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
