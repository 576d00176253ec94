package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The probe values reproduce the browser identity and request that the
// fingerprinting service is sampled with; they are not meant to be tuned
// per run.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "fpprobe"

	// DefaultIterationCount is the number of sequential samples per run.
	DefaultIterationCount = 3

	// DefaultTargetURL is the fingerprinting test page visited by every iteration.
	DefaultTargetURL = "https://abrahamjuliot.github.io/creepjs/"

	// DefaultVerificationEndpoint receives the fingerprint verification request.
	DefaultVerificationEndpoint = "https://creepjs-api.web.app/fp"

	// DefaultUserAgent is the identity configured on every page.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

	// DefaultOutputDir is where screenshots, PDFs and output records are written.
	DefaultOutputDir = "."

	// DefaultLogFile is the shared, append-only log.
	DefaultLogFile = "scrape_log.txt"

	// DefaultNavigationTimeout bounds a single navigation including the
	// network quiescence wait.
	DefaultNavigationTimeout = 30 * time.Second

	// DefaultQuietWindow is how long the page must have no in-flight
	// requests before navigation is considered finished.
	DefaultQuietWindow = 500 * time.Millisecond

	// DefaultPaperSize is the page format of the document export.
	DefaultPaperSize = "A4"

	// DefaultConfigFile is the default configuration file name.
	DefaultConfigFile = ".fpprobe"
)

// defaultRequestPayload holds the three pre-encoded opaque tokens sent to
// the verification endpoint. They are not derived from the live page.
var defaultRequestPayload = []string{
	"KANg440lYwnldNxxD90co6yGygzvOelD4g3mB7mRquyvKL/FTXtiY6jp32B1zATKySTVTJ4k4KDUtzX6fS/Y3bbh0UZ5nG+H3Mp95C/TP8asRP7VMMI54W9pHKbYfeMd9pyndpQucm52jFyYN0eGj8CvF1n2Jy5WnQT+0UmIMY5cqfKDB3cAxHMtIaniHbDcTJI79qaKBx2kKxv1eP94yDAaThW7A9qTOLptgz+KF88hH0zm7os9ZfI6NBwMB6l342vQwNsio++njba/8MFK4wc48ZB4KAEVyTnQdJWh0tRTZwX9/8dByqGSydphk8v5XPL2BEdrw/8aNiRCqIdBSv4mJJzOR5ucnyLzu94iFcXx15vDF6xz+q1NzrxQ4Wq5RJAvkXbXESho+73FYzb9zkJhFFXF3MLQ4vH24fzZBFmqT5Od6phqp7ysaDSZFwVpnk0Rk5Xl86ZrbhIIii6abD+Zxgt3X7rLOVUsJbrrk9hOfx03FaudOzPNBJYl6jH50v6uAs+/eSjh4+KJysjAgKT7BFcXN0N1vK7+sJ/lZT4neDnMKlhc9OYs1qAXbVpRO7flZbEy5AKJu5s0TP7YZgmXjotyEKAAVqVgg1/W7CmS9oGmc/Q94Ki4KrXzsNzPE7Xl4BusqTRpGpClyOeBO2ptLJRY8zaA/VfOkOQLdf1US6//r2jrY9hslNothaRzERSToftiAZ1CcVEddbzDL31C4RPe/3G/stqmMiYKm/apcY+k2dBO2s50Y0lPTnDRuSfZnJ3ik8APCV0=",
	"PNVSeBn1OwYN6aCB",
	"hLxp01uh2mabENxp3hFuYgQW9ZTH2hKvI_hoN9ODj6c",
}

// defaultRequestHeaders mimics the headers Chrome 121 on Windows sends to
// the verification endpoint from the test page. Headers the browser treats
// as forbidden (Content-Length, Accept-Encoding, Origin, Referer, Sec-*)
// are silently replaced by the browser's own values when fetch runs.
func defaultRequestHeaders() map[string]string {
	return map[string]string{
		"Content-Type":       "application/json",
		"Accept":             "application/json, text/plain, */*",
		"Accept-Encoding":    "gzip, deflate, br",
		"Accept-Language":    "en-US,en;q=0.9",
		"Content-Length":     "853",
		"Origin":             "https://abrahamjuliot.github.io",
		"Referer":            "https://abrahamjuliot.github.io/",
		"Sec-Ch-Ua":          `"Not A(Brand";v="99", "Google Chrome";v="121", "Chromium";v="121"`,
		"Sec-Ch-Ua-Mobile":   "?0",
		"Sec-Ch-Ua-Platform": `"Windows"`,
		"Sec-Fetch-Dest":     "empty",
		"Sec-Fetch-Mode":     "cors",
		"Sec-Fetch-Site":     "cross-site",
		"User-Agent":         DefaultUserAgent,
	}
}

// Config holds every value the probe needs. It is built once at startup
// and passed down explicitly; no component reads configuration from
// package-level state.
type Config struct {
	// IterationCount is the number of sequential iterations (indices 1..N).
	IterationCount int

	// TargetURL is the page every iteration navigates to.
	TargetURL string

	// VerificationEndpoint receives the in-page POST request.
	VerificationEndpoint string

	// UserAgent is configured on the page before navigation.
	UserAgent string

	// RequestHeaders are sent with the verification request.
	RequestHeaders map[string]string

	// RequestPayload is the JSON array body of the verification request.
	// It must contain exactly three non-empty tokens.
	RequestPayload []string

	// OutputDir receives screenshot_<i>.png, webpage_<i>.pdf and output_<i>.json.
	OutputDir string

	// LogFile is the shared append-only log file.
	LogFile string

	// NavigationTimeout bounds navigation plus the quiescence wait.
	NavigationTimeout time.Duration

	// QuietWindow is the network quiescence window.
	QuietWindow time.Duration

	// PaperSize is the document export page format.
	PaperSize PaperSize

	// ChromePath is the browser executable. Empty means chromedp's lookup.
	ChromePath string

	// Headless runs the browser without a window.
	Headless bool

	// NoSandbox disables the Chrome sandbox, which is needed when running
	// as root inside containers.
	NoSandbox bool

	// SaveHistory records every iteration in the SQLite history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/fpprobe on Linux).
	DBDir string

	// ConfigFilePath is the YAML file the environment settings came from.
	ConfigFilePath string

	// Verbose enables debug output on the console.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	payload := make([]string, len(defaultRequestPayload))
	copy(payload, defaultRequestPayload)

	return &Config{
		IterationCount:       DefaultIterationCount,
		TargetURL:            DefaultTargetURL,
		VerificationEndpoint: DefaultVerificationEndpoint,
		UserAgent:            DefaultUserAgent,
		RequestHeaders:       defaultRequestHeaders(),
		RequestPayload:       payload,
		OutputDir:            DefaultOutputDir,
		LogFile:              DefaultLogFile,
		NavigationTimeout:    DefaultNavigationTimeout,
		QuietWindow:          DefaultQuietWindow,
		PaperSize:            PaperA4,
		Headless:             true,
		SaveHistory:          true,
		DBDir:                XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for fpprobe.
// On Linux: ~/.local/share/fpprobe
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for fpprobe.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.IterationCount <= 0 {
		return ErrInvalidIterationCount
	}
	if strings.TrimSpace(c.TargetURL) == "" {
		return ErrEmptyTargetURL
	}
	if strings.TrimSpace(c.VerificationEndpoint) == "" {
		return ErrEmptyEndpoint
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		return ErrEmptyUserAgent
	}
	if len(c.RequestPayload) != 3 {
		return ErrInvalidPayload
	}
	for _, token := range c.RequestPayload {
		if token == "" {
			return ErrInvalidPayload
		}
	}
	if c.NavigationTimeout <= 0 {
		return ErrInvalidNavigationTimeout
	}
	if c.QuietWindow <= 0 || c.QuietWindow >= c.NavigationTimeout {
		return ErrInvalidQuietWindow
	}
	if strings.TrimSpace(c.LogFile) == "" {
		return ErrEmptyLogFile
	}
	if c.PaperSize.Width <= 0 || c.PaperSize.Height <= 0 {
		return ErrUnknownPaperSize
	}
	if c.SaveHistory && c.DBDir == "" {
		return ErrEmptyDBDir
	}
	return nil
}
