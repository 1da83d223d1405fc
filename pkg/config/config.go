// Package config loads webprobe settings. Sources are layered, later
// ones winning: built-in defaults, a bundled profile, a YAML file,
// WEBPROBE_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/httpclient"
	"github.com/Killjoybr/IA-CAI/pkg/output"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
	"github.com/Killjoybr/IA-CAI/presets"
)

// Config holds every setting the CLI, MCP server and worker read.
type Config struct {
	Target   string        `yaml:"target"`
	MaxPages int           `yaml:"max_pages"`
	Timeout  time.Duration `yaml:"timeout"`
	// Exclude holds regular expressions for links the crawler skips.
	Exclude []string `yaml:"exclude,omitempty"`

	HTTP      HTTPConfig      `yaml:"http"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Queue     QueueConfig     `yaml:"queue"`
	Storage   StorageConfig   `yaml:"storage"`
}

// HTTPConfig controls the HTTP client.
type HTTPConfig struct {
	UserAgent string `yaml:"user_agent"`
	Proxy     string `yaml:"proxy,omitempty"`
	// VerifyTLS turns certificate verification on. It is off by default
	// so self-signed targets can be scanned.
	VerifyTLS         bool  `yaml:"verify_tls"`
	NoFollowRedirects bool  `yaml:"no_follow_redirects"`
	MaxBodySize       int64 `yaml:"max_body_size"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format   string `yaml:"format"`
	File     string `yaml:"file,omitempty"`
	Pretty   bool   `yaml:"pretty"`
	Annotate bool   `yaml:"annotate"`
	// Lang selects severity label language: en or pt.
	Lang     string `yaml:"lang"`
	Template string `yaml:"template,omitempty"`
	NoColor  bool   `yaml:"no_color"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Insecure bool   `yaml:"insecure"`
}

// QueueConfig configures the AMQP worker.
type QueueConfig struct {
	URL         string `yaml:"url,omitempty"`
	JobQueue    string `yaml:"job_queue"`
	ResultQueue string `yaml:"result_queue"`
	Prefetch    int    `yaml:"prefetch"`
}

// StorageConfig enables report upload to S3 when Bucket is set.
type StorageConfig struct {
	Bucket   string `yaml:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		MaxPages: defaults.MaxPages,
		Timeout:  defaults.Timeout,
		HTTP: HTTPConfig{
			UserAgent:   defaults.UABot,
			MaxBodySize: defaults.MaxBodySize,
		},
		Output: OutputConfig{
			Format:   string(output.FormatTable),
			Annotate: true,
			Lang:     "en",
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Queue: QueueConfig{
			JobQueue:    "webprobe.jobs",
			ResultQueue: "webprobe.results",
			Prefetch:    1,
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.MergeFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeFile overlays the YAML file at path. Keys absent from the file
// keep their current values.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s not found", ErrInvalidConfig, path)
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return c.merge(data, path)
}

func (c *Config) merge(data []byte, source string) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, source, err)
	}
	return nil
}

// Profiles lists the bundled profile names.
func Profiles() []string {
	entries, err := presets.FS.ReadDir(".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, name)
		}
	}
	return names
}

// ApplyProfile overlays a bundled profile.
func (c *Config) ApplyProfile(name string) error {
	data, err := presets.FS.ReadFile(name + ".yaml")
	if err != nil {
		return fmt.Errorf("%w: %q (available: %s)", ErrUnknownProfile, name, strings.Join(Profiles(), ", "))
	}
	return c.merge(data, "profile "+name)
}

// Resolve builds a config from defaults, then profile (if not empty),
// then the file at path (if not empty), then the environment.
func Resolve(profile, path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if profile != "" {
		if err := cfg.ApplyProfile(profile); err != nil {
			return nil, err
		}
	}
	if path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}
	if getenv != nil {
		if err := cfg.ApplyEnv(getenv); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Validate checks ranges and cross-field constraints. It does not
// require a target; see ValidateScan.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxPages < 1 || c.MaxPages > defaults.MaxPagesLimit {
		errs = append(errs, fmt.Errorf("max_pages must be between 1 and %d, got %d", defaults.MaxPagesLimit, c.MaxPages))
	}
	if c.Timeout <= 0 || c.Timeout > defaults.MaxTimeout {
		errs = append(errs, fmt.Errorf("timeout must be between 0 and %s, got %s", defaults.MaxTimeout, c.Timeout))
	}
	if c.HTTP.MaxBodySize < 0 {
		errs = append(errs, fmt.Errorf("http.max_body_size must not be negative"))
	}
	if c.HTTP.Proxy != "" {
		if err := httpclient.ValidateProxyURL(c.HTTP.Proxy); err != nil {
			errs = append(errs, err)
		}
	}
	for _, p := range c.Exclude {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("exclude %q: %v", p, err))
		}
	}
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Output.Lang) {
	case "en", "pt", "pt-br", "english", "portuguese":
	default:
		errs = append(errs, fmt.Errorf("output.lang must be en or pt, got %q", c.Output.Lang))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Queue.Prefetch < 0 {
		errs = append(errs, fmt.Errorf("queue.prefetch must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ValidateScan is Validate plus a required, well-formed target.
func (c *Config) ValidateScan() error {
	if strings.TrimSpace(c.Target) == "" {
		return fmt.Errorf("%w: target", ErrMissingRequired)
	}
	if _, err := scanner.NormalizeTarget(c.Target); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c.Validate()
}

// HTTPClient returns the HTTP client settings.
func (c *Config) HTTPClient() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = c.Timeout
	hc.InsecureSkipVerify = !c.HTTP.VerifyTLS
	hc.Proxy = c.HTTP.Proxy
	if c.HTTP.UserAgent != "" {
		hc.UserAgent = c.HTTP.UserAgent
	}
	hc.FollowRedirects = !c.HTTP.NoFollowRedirects
	if c.HTTP.MaxBodySize > 0 {
		hc.MaxBodySize = c.HTTP.MaxBodySize
	}
	return hc
}

// ScanTarget returns the scan target.
func (c *Config) ScanTarget() scanner.Target {
	return scanner.Target{URL: c.Target, MaxPages: c.MaxPages, Timeout: c.Timeout}
}
