package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Vessel list sources exposed by the remote API
const (
	VesselSourceAll     = "all"
	VesselSourceAbove60 = "above-60"
)

// Prediction response shapes
const (
	PredictionShapeRoute = "route" // lat/lon at +5, +10 and +30 minutes
	PredictionShapePoint = "point" // a single latitude/longitude
)

// Environment variables that override remote.base_url, in order of preference
var baseURLEnvVars = []string{"AIS_SERVER_IP", "REACT_APP_SERVER_IP"}

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server     ServerConfig     `toml:"server"`     // HTTP server settings
	Remote     RemoteConfig     `toml:"remote"`     // Remote vessel API settings
	Dashboard  DashboardConfig  `toml:"dashboard"`  // Table, map and chart settings
	Prediction PredictionConfig `toml:"prediction"` // Predicted route settings
	Logging    LoggingConfig    `toml:"logging"`    // Application logging settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // Primary HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	AdditionalPorts    []int    `toml:"additional_ports"`      // Additional HTTP ports to listen on
	StaticFilesDir     string   `toml:"static_files_dir"`      // Directory to serve the browser dashboard from (e.g., "www")
	WebSocketUpdates   bool     `toml:"websocket_updates"`     // Push view snapshots to browsers over /ws
}

// RemoteConfig contains settings for the remote vessel API
type RemoteConfig struct {
	BaseURL           string `toml:"base_url"`               // Base URL of the remote API; overridden by AIS_SERVER_IP / REACT_APP_SERVER_IP
	VesselSource      string `toml:"vessel_source"`          // "all" (/api/vessels/all) or "above-60" (/api/vessels/ships-above-60)
	FetchIntervalSecs int    `toml:"fetch_interval_seconds"` // How often to poll the vessel list (in seconds)
	TimeoutSecs       int    `toml:"timeout_seconds"`        // HTTP timeout for remote requests
}

// DashboardConfig contains view settings
type DashboardConfig struct {
	RowsPerPage      int     `toml:"rows_per_page"`      // Table rows per page (default: 10)
	DefaultCenterLat float64 `toml:"default_center_lat"` // Map center before anything is selected
	DefaultCenterLon float64 `toml:"default_center_lon"` // Map center before anything is selected
}

// PredictionConfig contains settings for the predicted route overlay
type PredictionConfig struct {
	Enabled bool   `toml:"enabled"` // Fetch a predicted route when the selection changes
	Shape   string `toml:"shape"`   // Response shape: "route" or "point"
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`        // Log level: "debug", "info", "warn", or "error"
	Format     string `toml:"format"`       // Log format: "json" (structured) or "console" (human-readable)
	FilePath   string `toml:"file_path"`    // Optional log file (rotated), written in addition to stderr
	MaxSizeMB  int    `toml:"max_size_mb"`  // Rotate the log file after this many megabytes
	MaxAgeDays int    `toml:"max_age_days"` // Remove rotated files older than this
	MaxBackups int    `toml:"max_backups"`  // Number of rotated files to keep (0 = all)
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyEnv()

	return &config, nil
}

// applyEnv overrides the remote base URL from the environment
func (c *Config) applyEnv() {
	for _, name := range baseURLEnvVars {
		if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
			c.Remote.BaseURL = strings.TrimSpace(v)
			return
		}
	}
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if err := c.ValidateRemote(); err != nil {
		return err
	}

	// Dashboard defaults
	if c.Dashboard.RowsPerPage == 0 {
		c.Dashboard.RowsPerPage = 10
	}
	if c.Dashboard.RowsPerPage < 0 {
		return fmt.Errorf("invalid rows_per_page: %d", c.Dashboard.RowsPerPage)
	}
	if c.Dashboard.DefaultCenterLat == 0 && c.Dashboard.DefaultCenterLon == 0 {
		// Seoul City Hall
		c.Dashboard.DefaultCenterLat = 37.566
		c.Dashboard.DefaultCenterLon = 126.978
	}
	if c.Dashboard.DefaultCenterLat < -90 || c.Dashboard.DefaultCenterLat > 90 {
		return fmt.Errorf("invalid default_center_lat: %f", c.Dashboard.DefaultCenterLat)
	}
	if c.Dashboard.DefaultCenterLon < -180 || c.Dashboard.DefaultCenterLon > 180 {
		return fmt.Errorf("invalid default_center_lon: %f", c.Dashboard.DefaultCenterLon)
	}

	// Prediction config
	if c.Prediction.Shape == "" {
		c.Prediction.Shape = PredictionShapeRoute
	}
	if c.Prediction.Shape != PredictionShapeRoute && c.Prediction.Shape != PredictionShapePoint {
		return fmt.Errorf("invalid prediction shape: %s (must be 'route' or 'point')", c.Prediction.Shape)
	}

	// Validate logging config
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid log level
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	switch c.Logging.Format {
	case "json", "console":
		// Valid log format
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Logging.FilePath != "" && c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 50
	}

	return nil
}

// ValidateRemote validates the remote API configuration
func (c *Config) ValidateRemote() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote base_url is required (or set %s)", strings.Join(baseURLEnvVars, " / "))
	}
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid remote base_url: %q", c.Remote.BaseURL)
	}
	c.Remote.BaseURL = strings.TrimRight(c.Remote.BaseURL, "/")

	if c.Remote.VesselSource == "" {
		c.Remote.VesselSource = VesselSourceAll
	}
	if c.Remote.VesselSource != VesselSourceAll && c.Remote.VesselSource != VesselSourceAbove60 {
		return fmt.Errorf("invalid vessel source: %s (must be 'all' or 'above-60')", c.Remote.VesselSource)
	}

	if c.Remote.FetchIntervalSecs == 0 {
		c.Remote.FetchIntervalSecs = 5
	}
	if c.Remote.FetchIntervalSecs < 0 {
		return fmt.Errorf("invalid fetch interval: %d", c.Remote.FetchIntervalSecs)
	}

	if c.Remote.TimeoutSecs == 0 {
		c.Remote.TimeoutSecs = 10
	}
	if c.Remote.TimeoutSecs < 0 {
		return fmt.Errorf("invalid remote timeout: %d", c.Remote.TimeoutSecs)
	}

	return nil
}

// ValidateServer validates the HTTP server configuration
func (c *Config) ValidateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	// Validate AdditionalPorts
	portsSeen := make(map[int]bool)
	portsSeen[c.Server.Port] = true
	for _, p := range c.Server.AdditionalPorts {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("invalid additional server port: %d", p)
		}
		if portsSeen[p] {
			return fmt.Errorf("duplicate port configured: %d (primary or additional)", p)
		}
		portsSeen[p] = true
	}

	// Set default static files directory if not specified
	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}

	// Validate static files directory exists
	if _, err := os.Stat(c.Server.StaticFilesDir); os.IsNotExist(err) {
		return fmt.Errorf("static files directory does not exist: %s", c.Server.StaticFilesDir)
	}

	return nil
}
