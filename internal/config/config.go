package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Default endpoint and credentials match a local Mira daemon. Override via
// config.json or the MIRA_URL / MIRA_AUTH_TOKEN environment variables.
const (
	defaultMiraURL   = "http://localhost:3000/mcp"
	defaultAuthToken = "63c7663fe0dbdfcd2bbf6c33a0a9b4b9"
)

// Config holds application configuration.
type Config struct {
	// MiraURL is the HTTP endpoint of the Mira MCP server.
	MiraURL string `json:"mira_url"`

	// AuthToken is the bearer token sent on every request to MiraURL.
	AuthToken string `json:"auth_token"`

	// DBPath is the path to Mira's SQLite database, used as the fallback
	// store when the HTTP endpoint is unreachable.
	DBPath string `json:"db_path"`

	// ProjectPath is looked up in the projects table to associate saved
	// rows with a project. Empty means no project association.
	ProjectPath string `json:"project_path,omitempty"`

	// ProbeTimeoutMS bounds the reachability probe. Default 2000.
	ProbeTimeoutMS int `json:"probe_timeout_ms,omitempty"`

	// InitTimeoutMS bounds the initialize handshake step. Default 5000.
	InitTimeoutMS int `json:"init_timeout_ms,omitempty"`

	// NotifyTimeoutMS bounds the initialized notification. Default 5000.
	NotifyTimeoutMS int `json:"notify_timeout_ms,omitempty"`

	// CallTimeoutMS bounds the tools/call step. Default 10000.
	CallTimeoutMS int `json:"call_timeout_ms,omitempty"`

	// BreakerThreshold is the number of consecutive probe failures before
	// the remote path is abandoned for the local store. Default 1.
	BreakerThreshold int `json:"breaker_threshold,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		MiraURL:          defaultMiraURL,
		AuthToken:        defaultAuthToken,
		DBPath:           filepath.Join(home, "Mira", "data", "mira.db"),
		ProjectPath:      filepath.Join(home, "Mira"),
		ProbeTimeoutMS:   2000,
		InitTimeoutMS:    5000,
		NotifyTimeoutMS:  5000,
		CallTimeoutMS:    10000,
		BreakerThreshold: 1,
	}
}

// Load loads configuration from baseDir/config.json, applies defaults for
// missing values, then applies environment overrides.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.mira.
func Load(baseDir string) (*Config, error) {
	overlay, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	cfg := Merge(DefaultConfig(), overlay)
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv applies environment variable overrides. Environment wins over
// both defaults and file config, matching how the hook is deployed.
func applyEnv(cfg *Config) {
	if v := os.Getenv("MIRA_URL"); v != "" {
		cfg.MiraURL = v
	}
	if v := os.Getenv("MIRA_AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("MIRA_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for non-zero scalars.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.MiraURL = pickString(base.MiraURL, overlay.MiraURL)
	result.AuthToken = pickString(base.AuthToken, overlay.AuthToken)
	result.DBPath = pickString(base.DBPath, overlay.DBPath)
	result.ProjectPath = pickString(base.ProjectPath, overlay.ProjectPath)

	result.ProbeTimeoutMS = pickInt(base.ProbeTimeoutMS, overlay.ProbeTimeoutMS)
	result.InitTimeoutMS = pickInt(base.InitTimeoutMS, overlay.InitTimeoutMS)
	result.NotifyTimeoutMS = pickInt(base.NotifyTimeoutMS, overlay.NotifyTimeoutMS)
	result.CallTimeoutMS = pickInt(base.CallTimeoutMS, overlay.CallTimeoutMS)
	result.BreakerThreshold = pickInt(base.BreakerThreshold, overlay.BreakerThreshold)
	result.DBMaxOpenConns = pickInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns)

	return result
}

func pickString(base, overlay string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}
