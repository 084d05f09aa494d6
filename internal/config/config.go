package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jgoulah/billchart/internal/chart"
	"github.com/jgoulah/billchart/pkg/models"
)

// Height modes accepted in chart.height_mode
const (
	HeightModeFixed  = "fixed"
	HeightModePoints = "points"
)

// Defaults applied by the GetX accessors
const (
	DefaultWidth        = 960
	DefaultHeight       = 400
	DefaultServerAddr   = ":3000"
	DefaultTopicPrefix  = "billchart"
	DefaultEntityPrefix = "sensor.billchart"
	DefaultLogLevel     = "info"
	DefaultFetchTimeout = 30 * time.Second
	DefaultDebounce     = 500 * time.Millisecond
)

// Config holds the application configuration
type Config struct {
	Chart         ChartConfig  `yaml:"chart,omitempty"`
	Server        ServerConfig `yaml:"server,omitempty"`
	Source        SourceConfig `yaml:"source,omitempty"`
	MQTT          MQTTConfig   `yaml:"mqtt,omitempty"`
	HomeAssistant HAConfig     `yaml:"home_assistant,omitempty"`
	LogLevel      string       `yaml:"log_level,omitempty"` // debug, info, warn, error (fallback: info)
}

// ChartConfig controls chart layout
type ChartConfig struct {
	Width      float64        `yaml:"width,omitempty"`       // fallback: 960
	HeightMode string         `yaml:"height_mode,omitempty"` // "fixed" or "points" (fallback: fixed)
	Height     float64        `yaml:"height,omitempty"`      // used when height_mode is fixed (fallback: 400)
	Margins    *chart.Margins `yaml:"margins,omitempty"`
	OutputDir  string         `yaml:"output_dir,omitempty"` // where render and watch write files
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"` // e.g., ":3000"
}

// SourceConfig says where bill-data records come from
type SourceConfig struct {
	APIURL       string            `yaml:"api_url,omitempty"`       // e.g., "http://localhost:3000/api"
	CSV          map[string]string `yaml:"csv,omitempty"`           // commodity name -> CSV path
	FetchTimeout int               `yaml:"fetch_timeout,omitempty"` // seconds
	DebounceMS   int               `yaml:"debounce_ms,omitempty"`   // watch debounce window
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // host:port
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
	ClientID    string `yaml:"client_id,omitempty"`
}

// HAConfig holds Home Assistant HTTP API configuration
type HAConfig struct {
	Enabled      bool   `yaml:"enabled"`
	URL          string `yaml:"url"`                     // e.g., "http://homeassistant.local:8123"
	Token        string `yaml:"token"`                   // Long-lived access token
	EntityPrefix string `yaml:"entity_prefix,omitempty"` // e.g., "sensor.billchart"
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetWidth returns the chart width with a default of 960
func (c *Config) GetWidth() float64 {
	if c.Chart.Width <= 0 {
		return DefaultWidth
	}
	return c.Chart.Width
}

// GetHeight returns the fixed chart height with a default of 400
func (c *Config) GetHeight() float64 {
	if c.Chart.Height <= 0 {
		return DefaultHeight
	}
	return c.Chart.Height
}

// GetHeightStrategy maps height_mode to a chart height strategy
func (c *Config) GetHeightStrategy() (chart.HeightStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(c.Chart.HeightMode)) {
	case "", HeightModeFixed:
		return chart.HeightFixed, nil
	case HeightModePoints:
		return chart.HeightFromPoints, nil
	}
	return 0, fmt.Errorf("unknown height_mode: %s (available: fixed, points)", c.Chart.HeightMode)
}

// GetMargins returns the configured margins or the chart defaults
func (c *Config) GetMargins() chart.Margins {
	if c.Chart.Margins == nil {
		return chart.DefaultMargins
	}
	return *c.Chart.Margins
}

// Layout builds the chart layout from the chart section
func (c *Config) Layout() (chart.Layout, error) {
	strategy, err := c.GetHeightStrategy()
	if err != nil {
		return chart.Layout{}, err
	}
	return chart.Layout{
		Width:    c.GetWidth(),
		Height:   c.GetHeight(),
		Strategy: strategy,
		Margins:  c.GetMargins(),
	}, nil
}

// GetOutputDir returns the render output directory, defaulting to the working directory
func (c *Config) GetOutputDir() string {
	if c.Chart.OutputDir == "" {
		return "."
	}
	return c.Chart.OutputDir
}

// GetServerAddr returns the HTTP listen address with a default of :3000
func (c *Config) GetServerAddr() string {
	if c.Server.Addr == "" {
		return DefaultServerAddr
	}
	return c.Server.Addr
}

// GetFetchTimeout returns the remote API timeout with a default of 30s
func (c *Config) GetFetchTimeout() time.Duration {
	if c.Source.FetchTimeout <= 0 {
		return DefaultFetchTimeout
	}
	return time.Duration(c.Source.FetchTimeout) * time.Second
}

// GetDebounce returns the watch debounce window with a default of 500ms
func (c *Config) GetDebounce() time.Duration {
	if c.Source.DebounceMS <= 0 {
		return DefaultDebounce
	}
	return time.Duration(c.Source.DebounceMS) * time.Millisecond
}

// CSVPath returns the configured CSV file for a commodity, or "" if none
func (c *Config) CSVPath(kind models.Commodity) string {
	for name, path := range c.Source.CSV {
		if k, err := models.ParseCommodity(name); err == nil && k == kind {
			return path
		}
	}
	return ""
}

// GetTopicPrefix returns the MQTT topic prefix with a default of "billchart"
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return DefaultTopicPrefix
	}
	return c.MQTT.TopicPrefix
}

// GetEntityPrefix returns the Home Assistant entity prefix with a default of "sensor.billchart"
func (c *Config) GetEntityPrefix() string {
	if c.HomeAssistant.EntityPrefix == "" {
		return DefaultEntityPrefix
	}
	return c.HomeAssistant.EntityPrefix
}

// GetLogLevel returns the configured log level with a default of "info"
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return DefaultLogLevel
	}
	return c.LogLevel
}
