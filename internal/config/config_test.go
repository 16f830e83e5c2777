package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Database.Backend)
	}
	if cfg.Database.QueryTimeout != 10*time.Second {
		t.Errorf("QueryTimeout = %v, want 10s", cfg.Database.QueryTimeout)
	}
	if cfg.Listener.WalletType != "TRADING" {
		t.Errorf("WalletType = %q, want TRADING", cfg.Listener.WalletType)
	}
	if cfg.Admin.Token != "" {
		t.Errorf("Admin token should default to empty")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DB_SOURCE", "postgres://localhost/registry")
	t.Setenv("DB_RETRY_ATTEMPTS", "5")
	t.Setenv("LISTENER_POLLING_INTERVAL", "1m")
	t.Setenv("BANK_USAGE_DOMAIN", "bridge.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Source != "postgres://localhost/registry" {
		t.Errorf("Source = %q", cfg.Database.Source)
	}
	if cfg.Database.RetryAttempts != 5 {
		t.Errorf("RetryAttempts = %d, want 5", cfg.Database.RetryAttempts)
	}
	if cfg.Listener.PollingInterval != time.Minute {
		t.Errorf("PollingInterval = %v, want 1m", cfg.Listener.PollingInterval)
	}
	if cfg.Registration.BankUsageDomain != "bridge.example" {
		t.Errorf("BankUsageDomain = %q", cfg.Registration.BankUsageDomain)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"DB_QUERY_TIMEOUT": "soon"}},
		{"negative duration", map[string]string{"DB_QUERY_TIMEOUT": "-1s"}},
		{"unknown backend", map[string]string{"STORE_BACKEND": "mysql"}},
		{"postgres without source", map[string]string{"STORE_BACKEND": "postgres"}},
		{"no retry attempts", map[string]string{"DB_RETRY_ATTEMPTS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Errorf("Load() expected error")
			}
		})
	}
}
