package config

import (
	"fmt"
	"log/slog"
	"strings"
)

var log = slog.Default()

var validAuthTypes = map[string]bool{
	"none": true,
	"vnc":  true,
	"ard":  true,
}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Result is the outcome of a tiered validation pass: Fatals block
// startup, Warnings are logged but the (possibly clamped) config is
// still usable.
type Result struct {
	Fatals   []error
	Warnings []error
}

func (r *Result) HasFatals() bool { return len(r.Fatals) > 0 }

func (r *Result) fatal(err error)   { r.Fatals = append(r.Fatals, err) }
func (r *Result) warn(err error)    { r.Warnings = append(r.Warnings, err) }

// ValidateTiered checks the config for invalid values. Values that would
// cause a panic or a silently broken connection (e.g. a negative delay)
// are clamped to a safe default and reported as a warning; values that
// indicate the config cannot possibly be used (an unrecognized auth
// type) are fatal.
func (c *Config) ValidateTiered() *Result {
	r := &Result{}

	if c.PreferredAuth != "" && !validAuthTypes[strings.ToLower(c.PreferredAuth)] {
		r.fatal(fmt.Errorf("preferred_auth %q is not one of none, vnc, ard", c.PreferredAuth))
	}

	if c.ConnectTimeoutSeconds < 1 {
		r.warn(fmt.Errorf("connect_timeout_seconds %d is below minimum 1, clamping", c.ConnectTimeoutSeconds))
		c.ConnectTimeoutSeconds = 1
	} else if c.ConnectTimeoutSeconds > 300 {
		r.warn(fmt.Errorf("connect_timeout_seconds %d exceeds maximum 300, clamping", c.ConnectTimeoutSeconds))
		c.ConnectTimeoutSeconds = 300
	}

	if c.InterCommandDelayMS < 0 {
		r.warn(fmt.Errorf("inter_command_delay_ms %d is negative, clamping to 0", c.InterCommandDelayMS))
		c.InterCommandDelayMS = 0
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.warn(fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.warn(fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	if c.ProxyMaxConns < 1 {
		r.warn(fmt.Errorf("proxy_max_conns %d is below minimum 1, clamping", c.ProxyMaxConns))
		c.ProxyMaxConns = 1
	} else if c.ProxyMaxConns > 10000 {
		r.warn(fmt.Errorf("proxy_max_conns %d exceeds maximum 10000, clamping", c.ProxyMaxConns))
		c.ProxyMaxConns = 10000
	}

	for _, err := range r.Warnings {
		log.Warn("config validation", "error", err)
	}

	return r
}
