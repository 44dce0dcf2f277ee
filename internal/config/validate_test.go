package config

import (
	"fmt"
	"strings"
	"testing"
)

func TestValidateTieredInvalidAuthTypeIsFatal(t *testing.T) {
	cfg := Default()
	cfg.PreferredAuth = "kerberos"
	result := cfg.ValidateTiered()
	if !result.HasFatals() {
		t.Fatal("invalid preferred_auth should be fatal")
	}
	found := false
	for _, err := range result.Fatals {
		if strings.Contains(err.Error(), "none, vnc, ard") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected preferred_auth validation error in fatals")
	}
}

func TestValidateTieredConnectTimeoutClampingIsWarning(t *testing.T) {
	cfg := Default()
	cfg.ConnectTimeoutSeconds = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped timeout should be warning, not fatal: %v", result.Fatals)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for clamped connect timeout")
	}
	if cfg.ConnectTimeoutSeconds != 1 {
		t.Fatalf("ConnectTimeoutSeconds = %d, want 1 (clamped)", cfg.ConnectTimeoutSeconds)
	}
}

func TestValidateTieredHighConnectTimeoutClampingIsWarning(t *testing.T) {
	cfg := Default()
	cfg.ConnectTimeoutSeconds = 9999
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped timeout should be warning, not fatal: %v", result.Fatals)
	}
	if cfg.ConnectTimeoutSeconds != 300 {
		t.Fatalf("ConnectTimeoutSeconds = %d, want 300 (clamped)", cfg.ConnectTimeoutSeconds)
	}
}

func TestValidateTieredNegativeDelayClamping(t *testing.T) {
	cfg := Default()
	cfg.InterCommandDelayMS = -5
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped delay should be warning: %v", result.Fatals)
	}
	if cfg.InterCommandDelayMS != 0 {
		t.Fatalf("InterCommandDelayMS = %d, want 0", cfg.InterCommandDelayMS)
	}
}

func TestValidateTieredProxyMaxConnsClamping(t *testing.T) {
	cfg := Default()
	cfg.ProxyMaxConns = 0
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("clamped proxy_max_conns should be warning: %v", result.Fatals)
	}
	if cfg.ProxyMaxConns != 1 {
		t.Fatalf("ProxyMaxConns = %d, want 1", cfg.ProxyMaxConns)
	}
}

func TestValidateTieredUnknownLogLevelIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("unknown log level should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for unknown log level")
	}
}

func TestValidateTieredInvalidLogFormatIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatal("invalid log format should not be fatal")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warning for invalid log format")
	}
}

func TestHasFatals(t *testing.T) {
	r := Result{}
	if r.HasFatals() {
		t.Fatal("HasFatals() on empty result should be false")
	}
	r.Fatals = append(r.Fatals, fmt.Errorf("test error"))
	if !r.HasFatals() {
		t.Fatal("HasFatals() should be true with a fatal error")
	}
}

func TestValidConfigHasNoErrors(t *testing.T) {
	cfg := Default()
	result := cfg.ValidateTiered()
	if result.HasFatals() {
		t.Fatalf("valid config has fatals: %v", result.Fatals)
	}
	if len(result.Warnings) > 0 {
		t.Fatalf("valid config has warnings: %v", result.Warnings)
	}
}
