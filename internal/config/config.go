package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/evalboard/internal/errors"
	"github.com/vango-dev/evalboard/pkg/router"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "evalboard.json"

	// TOMLConfigFileName is the name of the TOML configuration file.
	TOMLConfigFileName = "evalboard.toml"

	// DefaultAddr is the default listen address of the shell server.
	DefaultAddr = ":8080"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "evalboard"

	// EnvMode is the environment variable that selects the run mode.
	EnvMode = "EVALBOARD_ENV"
)

// Run modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the complete evalboard configuration.
type Config struct {
	// Name is the application name.
	Name string `json:"name,omitempty" toml:"name,omitempty"`

	// Mode is "development" or "production". Empty means production
	// unless EVALBOARD_ENV says otherwise.
	Mode string `json:"mode,omitempty" toml:"mode"`

	// DebugLogging enables debug-level logs and the error/warning sink.
	// When unset it follows the mode.
	DebugLogging *bool `json:"debugLogging,omitempty" toml:"debugLogging,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `json:"logFormat,omitempty" toml:"logFormat"`

	Server     ServerConfig     `json:"server" toml:"server"`
	Navigation NavigationConfig `json:"navigation" toml:"navigation"`
	Metrics    MetricsConfig    `json:"metrics" toml:"metrics"`
	Tracing    TracingConfig    `json:"tracing" toml:"tracing"`

	// Routes is the route tree served by the shell.
	Routes []RouteConfig `json:"routes,omitempty" toml:"routes"`

	// source stores where the config was loaded from.
	source string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr,omitempty" toml:"addr"`
}

// NavigationConfig contains router settings.
type NavigationConfig struct {
	// RedirectLimit caps redirect hops per navigation. Zero selects
	// router.DefaultRedirectLimit.
	RedirectLimit int `json:"redirectLimit,omitempty" toml:"redirectLimit"`

	// GuardTimeout bounds each guard invocation. Zero disables the bound.
	GuardTimeout Duration `json:"guardTimeout,omitempty" toml:"guardTimeout,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" toml:"enabled"`
	Namespace string `json:"namespace,omitempty" toml:"namespace"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled bool `json:"enabled" toml:"enabled"`
}

// RouteConfig is one entry of the route tree. An entry with children is
// a layout group, an entry with a redirect is a redirect, and anything
// else is a leaf rendering View.
type RouteConfig struct {
	Path     string        `json:"path" toml:"path"`
	Name     string        `json:"name,omitempty" toml:"name,omitempty"`
	View     string        `json:"view,omitempty" toml:"view,omitempty"`
	Redirect string        `json:"redirect,omitempty" toml:"redirect,omitempty"`
	Layout   string        `json:"layout,omitempty" toml:"layout,omitempty"`
	Children []RouteConfig `json:"children,omitempty" toml:"children,omitempty"`
}

// Duration is a time.Duration written as a string such as "2s".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultRoutes returns the dashboard route tree: a layout at "/" whose
// index redirects to the accuracy page.
func DefaultRoutes() []RouteConfig {
	return []RouteConfig{
		{
			Path:   "/",
			Layout: "Layout",
			Children: []RouteConfig{
				{Path: "", Redirect: "/accuracy"},
				{Path: "/accuracy", Name: "AccuracyAnalysis", View: "AccuracyAnalysis"},
				{Path: "/performance", View: "SystemPerformance"},
			},
		},
	}
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Name:      "evalboard",
		LogFormat: LogFormatText,
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Navigation: NavigationConfig{
			RedirectLimit: router.DefaultRedirectLimit,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Routes: DefaultRoutes(),
	}
}

// Load loads the configuration from dir, preferring evalboard.json over
// evalboard.toml.
func Load(dir string) (*Config, error) {
	jsonPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(jsonPath); err == nil {
		return LoadFile(jsonPath)
	}
	tomlPath := filepath.Join(dir, TOMLConfigFileName)
	if _, err := os.Stat(tomlPath); err == nil {
		return LoadFile(tomlPath)
	}
	return nil, errors.New("E100").
		WithDetail("No " + ConfigFileName + " or " + TOMLConfigFileName + " found in " + dir).
		WithSuggestion("Create " + ConfigFileName + " or pass --config")
}

// LoadFile loads the configuration from a .json or .toml file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithFile(path).
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("E101").WithFile(path).Wrap(err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.WithFile(path)
		}
		return nil, err
	}
	cfg.source = path
	return cfg, nil
}

// Parse decodes configuration data. format is "json" or "toml".
func Parse(data []byte, format string) (*Config, error) {
	cfg := New()
	cfg.Routes = nil

	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, errors.New("E101").
				WithDetail("Failed to parse JSON configuration: " + err.Error()).
				WithSuggestion("Check that the file is valid JSON").
				Wrap(err)
		}
	case "toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, errors.New("E101").
				WithDetail("Failed to parse TOML configuration: " + err.Error()).
				WithSuggestion("Check that the file is valid TOML").
				Wrap(err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New("E101").
				WithDetail(fmt.Sprintf("Unknown configuration key %q", undecoded[0].String()))
		}
	default:
		return nil, errors.New("E101").
			WithDetail(fmt.Sprintf("Unsupported configuration format %q", format)).
			WithSuggestion("Use a .json or .toml file")
	}

	cfg.applyDefaults()
	return cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".json":
		return "json"
	default:
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
}

// SaveTo writes the configuration to path as JSON or TOML, chosen by
// the file extension.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	switch formatOf(path) {
	case "toml":
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return errors.New("E101").WithFile(path).Wrap(err)
		}
	case "json":
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.New("E101").WithFile(path).Wrap(err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	default:
		return errors.New("E102").
			WithFile(path).
			WithDetail("configuration files must end in .json or .toml")
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.New("E101").WithFile(path).Wrap(err)
	}
	c.source = path
	return nil
}

// Source returns where the configuration was loaded from.
func (c *Config) Source() string {
	return c.source
}

// applyDefaults fills in default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "evalboard"
	}
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Navigation.RedirectLimit == 0 {
		c.Navigation.RedirectLimit = router.DefaultRedirectLimit
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Routes == nil {
		c.Routes = DefaultRoutes()
	}
}

// ResolveMode settles the run mode from the EVALBOARD_ENV variable and
// the configured mode, then derives the debug logging default. It is
// meant to be called once at startup.
func (c *Config) ResolveMode(getenv func(string) string) {
	if getenv != nil {
		if env := strings.TrimSpace(getenv(EnvMode)); env != "" {
			c.Mode = strings.ToLower(env)
		}
	}
	if c.Mode == "" {
		c.Mode = ModeProduction
	}
	if c.DebugLogging == nil {
		debug := c.Mode == ModeDevelopment
		c.DebugLogging = &debug
	}
}

// Development reports whether the resolved mode is development.
func (c *Config) Development() bool {
	return c.Mode == ModeDevelopment
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	if c.DebugLogging != nil {
		return *c.DebugLogging
	}
	return c.Development()
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Mode {
	case "", ModeDevelopment, ModeProduction:
	default:
		return errors.New("E102").
			WithFile(c.source).
			WithDetail(fmt.Sprintf("mode %q is not supported", c.Mode)).
			WithSuggestion(`Use "development" or "production"`)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return errors.New("E102").
			WithFile(c.source).
			WithDetail(fmt.Sprintf("logFormat %q is not supported", c.LogFormat)).
			WithSuggestion(`Use "text" or "json"`)
	}
	if c.Navigation.RedirectLimit < 0 {
		return errors.New("E102").
			WithFile(c.source).
			WithDetail("navigation.redirectLimit must not be negative")
	}
	if c.Navigation.GuardTimeout < 0 {
		return errors.New("E102").
			WithFile(c.source).
			WithDetail("navigation.guardTimeout must not be negative")
	}
	if len(c.Routes) == 0 {
		return errors.New("E102").
			WithFile(c.source).
			WithDetail("at least one route is required")
	}
	return nil
}
