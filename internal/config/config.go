package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	// Network settings
	DefaultListen = "0.0.0.0"
	DefaultPort   = 8080
	Timeout       = 10 * time.Second

	// Discovery settings
	ServiceType   = "_macmonitor._tcp"
	ServiceDomain = "local."

	// Environment file path and variable prefix
	EnvFilePath = "/etc/macmonitor/env"
	EnvPrefix   = "MACMONITOR_"
)

// Agent info (injected at build time via ldflags)
var (
	Version   = "1.0.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Config holds every setting of the agent
type Config struct {
	Listen              string          `yaml:"listen"`
	Port                int             `yaml:"port"`
	DashboardDir        string          `yaml:"dashboard_dir"`
	DiskPath            string          `yaml:"disk_path"`
	CPUWindow           time.Duration   `yaml:"cpu_window"`
	RefreshInterval     time.Duration   `yaml:"refresh_interval"` // 0 samples on every request
	StreamInterval      time.Duration   `yaml:"stream_interval"`
	InfoRefreshInterval time.Duration   `yaml:"info_refresh_interval"`
	ShutdownTimeout     time.Duration   `yaml:"shutdown_timeout"`
	Discovery           DiscoveryConfig `yaml:"discovery"`
	Log                 LogConfig       `yaml:"log"`
}

// DiscoveryConfig controls the mDNS advertisement
type DiscoveryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"` // Defaults to the hostname
}

// LogConfig controls logger output
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Listen:              DefaultListen,
		Port:                DefaultPort,
		DashboardDir:        "./dashboard",
		DiskPath:            "/",
		CPUWindow:           500 * time.Millisecond,
		RefreshInterval:     0,
		StreamInterval:      2 * time.Second,
		InfoRefreshInterval: time.Hour,
		ShutdownTimeout:     5 * time.Second,
		Discovery: DiscoveryConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the env file at
// EnvFilePath, the optional YAML file at path and MACMONITOR_* environment
// variables, in that order.
func Load(path string) (*Config, error) {
	return LoadFiles(EnvFilePath, path)
}

// LoadFiles is Load with an explicit env file location
func LoadFiles(envFile, path string) (*Config, error) {
	cfg := Default()

	fileEnv, err := ReadEnvFile(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	if err := cfg.applyEnv(mapLookup(fileEnv)); err != nil {
		return nil, fmt.Errorf("env file %s: %w", envFile, err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides settings from MACMONITOR_* variables found by lookup
func (c *Config) applyEnv(lookup func(string) string) error {
	getEnv := func(key string) string {
		return strings.TrimSpace(lookup(EnvPrefix + key))
	}

	if v := getEnv("LISTEN"); v != "" {
		c.Listen = v
	}
	if v := getEnv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT: %w", EnvPrefix, err)
		}
		c.Port = port
	}
	if v := getEnv("DASHBOARD_DIR"); v != "" {
		c.DashboardDir = v
	}
	if v := getEnv("DISK_PATH"); v != "" {
		c.DiskPath = v
	}

	durations := map[string]*time.Duration{
		"CPU_WINDOW":       &c.CPUWindow,
		"REFRESH_INTERVAL": &c.RefreshInterval,
		"STREAM_INTERVAL":  &c.StreamInterval,
	}
	for key, target := range durations {
		v := getEnv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*target = d
	}

	if v := getEnv("DISCOVERY"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sDISCOVERY: %w", EnvPrefix, err)
		}
		c.Discovery.Enabled = enabled
	}
	if v := getEnv("INSTANCE"); v != "" {
		c.Discovery.Instance = v
	}
	if v := getEnv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getEnv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if debug := getEnv("DEBUG"); debug == "true" || debug == "1" {
		c.Log.Level = "debug"
	}

	return nil
}

// AddFlags registers the command-line overrides on flags
func AddFlags(flags *pflag.FlagSet) {
	flags.String("listen", DefaultListen, "Address to listen on")
	flags.Int("port", DefaultPort, "HTTP port")
	flags.String("dashboard", "./dashboard", "Directory with dashboard assets")
	flags.String("disk-path", "/", "Mount point reported as disk usage")
	flags.Duration("cpu-window", 500*time.Millisecond, "CPU usage observation window")
	flags.Duration("refresh-interval", 0, "Sample in the background at this interval (0 samples per request)")
	flags.Duration("stream-interval", 2*time.Second, "Push interval of /api/stream")
	flags.Bool("no-discovery", false, "Disable Bonjour/mDNS advertisement")
	flags.String("instance", "", "Bonjour instance name (default: hostname)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
}

// ApplyFlags overrides settings with flags that were set explicitly
func (c *Config) ApplyFlags(flags *pflag.FlagSet) {
	if flags.Changed("listen") {
		c.Listen, _ = flags.GetString("listen")
	}
	if flags.Changed("port") {
		c.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("dashboard") {
		c.DashboardDir, _ = flags.GetString("dashboard")
	}
	if flags.Changed("disk-path") {
		c.DiskPath, _ = flags.GetString("disk-path")
	}
	if flags.Changed("cpu-window") {
		c.CPUWindow, _ = flags.GetDuration("cpu-window")
	}
	if flags.Changed("refresh-interval") {
		c.RefreshInterval, _ = flags.GetDuration("refresh-interval")
	}
	if flags.Changed("stream-interval") {
		c.StreamInterval, _ = flags.GetDuration("stream-interval")
	}
	if flags.Changed("no-discovery") {
		disabled, _ := flags.GetBool("no-discovery")
		c.Discovery.Enabled = !disabled
	}
	if flags.Changed("instance") {
		c.Discovery.Instance, _ = flags.GetString("instance")
	}
	if flags.Changed("log-level") {
		c.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		c.Log.Format, _ = flags.GetString("log-format")
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DiskPath == "" {
		return fmt.Errorf("disk path is required")
	}
	if c.CPUWindow <= 0 {
		return fmt.Errorf("cpu window must be positive")
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must not be negative")
	}
	if c.StreamInterval <= 0 {
		return fmt.Errorf("stream interval must be positive")
	}
	if c.InfoRefreshInterval <= 0 {
		return fmt.Errorf("info refresh interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// Addr returns the listen address in host:port form
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Listen, strconv.Itoa(c.Port))
}

// ReadEnvFile parses KEY=VALUE lines from path. A missing file yields
// an empty map.
func ReadEnvFile(path string) (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil // File doesn't exist is not an error
		}
		return nil, err
	}

	// Parse each line as KEY=VALUE
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			values[key] = strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		}
	}

	return values, nil
}

func mapLookup(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}
