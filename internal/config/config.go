package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/alnah/go-md2docx/internal/fileutil"
	"github.com/alnah/go-md2docx/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigInvalid   = errors.New("invalid config")
)

// Field limits.
const (
	MaxMessageLength     = 500
	MaxPlaceholderLength = 200
	MaxFilenameLength    = 255
	MaxDebounce          = 10 * time.Second
)

// Defaults.
const (
	DefaultBackendURL     = "http://localhost:5000/convert"
	DefaultAddr           = "127.0.0.1:8080"
	DefaultDebounce       = "300ms"
	DefaultHighlightStyle = "github"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// dirName is the directory under the user config dir searched for configs.
const dirName = "go-md2docx"

// Config holds all configuration for the editor, server and CLI.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Preview  PreviewConfig  `yaml:"preview"`
	Server   ServerConfig   `yaml:"server"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
	Messages MessagesConfig `yaml:"messages"`
}

// BackendConfig defines the conversion service.
type BackendConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"` // Go duration, empty = no client timeout
}

// PreviewConfig defines preview rendering options.
type PreviewConfig struct {
	Debounce       string `yaml:"debounce"` // Go duration (default: 300ms)
	Placeholder    string `yaml:"placeholder"`
	ErrorPrefix    string `yaml:"errorPrefix"`
	HighlightStyle string `yaml:"highlightStyle"` // chroma style name
	AssetPath      string `yaml:"assetPath"`      // overrides styles/ and templates/
	ThrowOnError   bool   `yaml:"throwOnError"`
}

// ServerConfig defines the live preview server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// OutputConfig defines where converted documents go.
type OutputConfig struct {
	Dir       string `yaml:"dir"`      // empty = current directory
	Filename  string `yaml:"filename"` // empty = document.docx
	Overwrite bool   `yaml:"overwrite"`
}

// LogConfig defines logging options.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // console, json, pretty
}

// MessagesConfig overrides user-facing texts. Empty fields keep defaults.
type MessagesConfig struct {
	EmptyMarkdown  string `yaml:"emptyMarkdown"`
	ConvertError   string `yaml:"convertError"` // {error} is replaced
	ConvertSuccess string `yaml:"convertSuccess"`
	ClearPrompt    string `yaml:"clearPrompt"`
	FileLabel      string `yaml:"fileLabel"` // {file} is replaced
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{URL: DefaultBackendURL},
		Preview: PreviewConfig{
			Debounce:       DefaultDebounce,
			HighlightStyle: DefaultHighlightStyle,
		},
		Server: ServerConfig{Addr: DefaultAddr},
		Log:    LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// Validate checks every section.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Backend),
		validation.Field(&c.Preview),
		validation.Field(&c.Server),
		validation.Field(&c.Output),
		validation.Field(&c.Log),
		validation.Field(&c.Messages),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	return nil
}

// Validate implements validation.Validatable.
func (b BackendConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.URL, validation.Required, validation.By(httpURL)),
		validation.Field(&b.Timeout, validation.By(duration(0))),
	)
}

// Validate implements validation.Validatable.
func (p PreviewConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Debounce, validation.By(duration(MaxDebounce))),
		validation.Field(&p.Placeholder, validation.Length(0, MaxPlaceholderLength)),
		validation.Field(&p.ErrorPrefix, validation.Length(0, MaxPlaceholderLength)),
	)
}

// Validate implements validation.Validatable.
func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.By(hostPort)),
	)
}

// Validate implements validation.Validatable.
func (o OutputConfig) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Filename,
			validation.Length(0, MaxFilenameLength),
			validation.By(func(value any) error {
				name, _ := value.(string)
				if name == "" {
					return nil
				}
				return fileutil.ValidateFilename(name)
			}),
		),
	)
}

// Validate implements validation.Validatable.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "warning", "error")),
		validation.Field(&l.Format, validation.In("console", "json", "pretty")),
	)
}

// Validate implements validation.Validatable.
func (m MessagesConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.EmptyMarkdown, validation.Length(0, MaxMessageLength)),
		validation.Field(&m.ConvertError, validation.Length(0, MaxMessageLength)),
		validation.Field(&m.ConvertSuccess, validation.Length(0, MaxMessageLength)),
		validation.Field(&m.ClearPrompt, validation.Length(0, MaxMessageLength)),
		validation.Field(&m.FileLabel, validation.Length(0, MaxMessageLength)),
	)
}

// DebounceDuration returns the parsed debounce, or 0 when unset.
func (p PreviewConfig) DebounceDuration() time.Duration {
	return parseDuration(p.Debounce)
}

// TimeoutDuration returns the parsed timeout, or 0 when unset.
func (b BackendConfig) TimeoutDuration() time.Duration {
	return parseDuration(b.Timeout)
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// duration validates a Go duration string, bounded by maxD when positive.
func duration(maxD time.Duration) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return validation.NewError("validation_duration_invalid", "must be a duration such as 300ms or 30s")
		}
		if d < 0 {
			return validation.NewError("validation_duration_negative", "must not be negative")
		}
		if maxD > 0 && d > maxD {
			return validation.NewError("validation_duration_too_long", "must be at most "+maxD.String())
		}
		return nil
	}
}

func httpURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.NewError("validation_url_invalid", "must be an absolute http or https URL")
	}
	return nil
}

func hostPort(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	i := strings.LastIndex(s, ":")
	if i < 0 || i == len(s)-1 {
		return validation.NewError("validation_addr_invalid", "must be host:port")
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Missing sections keep their defaults. Returns error if the file is not
// found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists the files LoadConfig tries for a config name, in order:
// current directory, then the user config directory; .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, dirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
