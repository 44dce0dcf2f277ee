package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds settings shared by the vncdo CLI and the vnclog recording
// proxy, loaded from a YAML file and/or VNCDOTOOL_-prefixed environment
// variables via viper.
type Config struct {
	// Connection
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PreferredAuth string `mapstructure:"preferred_auth"` // "none", "vnc", "ard"
	Shared       bool   `mapstructure:"shared"`
	ConnectTimeoutSeconds int `mapstructure:"connect_timeout_seconds"`

	// Command engine
	InterCommandDelayMS int  `mapstructure:"inter_command_delay_ms"`
	ForceCaps           bool `mapstructure:"force_caps"`

	// Logging configuration
	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`

	// Recording proxy (vnclog)
	ProxyListenAddr  string `mapstructure:"proxy_listen_addr"`
	ProxyUpstream    string `mapstructure:"proxy_upstream"`
	ProxyMaxConns    int    `mapstructure:"proxy_max_conns"`
	ProxyOutputDir   string `mapstructure:"proxy_output_dir"`
	ProxyBroadcast   bool   `mapstructure:"proxy_broadcast"`
	ProxyBroadcastAddr string `mapstructure:"proxy_broadcast_addr"`

	// Audit trail of proxy session lifecycle events
	AuditEnabled    bool `mapstructure:"audit_enabled"`
	AuditMaxSizeMB  int  `mapstructure:"audit_max_size_mb"`
	AuditMaxBackups int  `mapstructure:"audit_max_backups"`
}

func Default() *Config {
	return &Config{
		PreferredAuth:         "ard",
		ConnectTimeoutSeconds: 10,
		InterCommandDelayMS:   10,
		LogLevel:              "info",
		LogFormat:             "text",
		LogMaxSizeMB:          50,
		LogMaxBackups:         3,
		ProxyListenAddr:       ":5901",
		ProxyMaxConns:         50,
		AuditEnabled:          true,
		AuditMaxSizeMB:        50,
		AuditMaxBackups:       3,
	}
}

// Load reads configuration from cfgFile (or the default search path when
// empty), overlays VNCDOTOOL_-prefixed environment variables, and runs
// tiered validation: fatal problems abort startup, everything else is
// logged as a warning and clamped to a safe value.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("vncdotool")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("VNCDOTOOL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	result := cfg.ValidateTiered()
	for _, err := range result.Warnings {
		log.Warn("config validation", "error", err)
	}
	if result.HasFatals() {
		for _, err := range result.Fatals {
			log.Error("config validation fatal", "error", err)
		}
		return nil, fmt.Errorf("config has fatal validation errors: %v", result.Fatals[0])
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

func SaveTo(cfg *Config, cfgFile string) error {
	viper.Set("username", cfg.Username)
	viper.Set("preferred_auth", cfg.PreferredAuth)
	viper.Set("shared", cfg.Shared)
	viper.Set("connect_timeout_seconds", cfg.ConnectTimeoutSeconds)
	viper.Set("inter_command_delay_ms", cfg.InterCommandDelayMS)
	viper.Set("force_caps", cfg.ForceCaps)
	viper.Set("log_level", cfg.LogLevel)
	viper.Set("log_format", cfg.LogFormat)
	viper.Set("proxy_listen_addr", cfg.ProxyListenAddr)
	viper.Set("proxy_upstream", cfg.ProxyUpstream)
	viper.Set("proxy_max_conns", cfg.ProxyMaxConns)
	viper.Set("proxy_output_dir", cfg.ProxyOutputDir)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "vncdotool.yaml")
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	// Restrict config file to owner-only access (may hold a password).
	return os.Chmod(cfgPath, 0600)
}

// GetDataDir returns the platform-specific data directory used for audit
// logs and other runtime state.
func GetDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "vncdotool", "data")
	case "darwin":
		return "/Library/Application Support/vncdotool/data"
	default:
		return "/var/lib/vncdotool"
	}
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "vncdotool")
	case "darwin":
		return "/Library/Application Support/vncdotool"
	default:
		return "/etc/vncdotool"
	}
}
