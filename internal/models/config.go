package models

import "time"

// Config represents the application configuration
type Config struct {
	Database     DatabaseConfig
	Server       ServerConfig
	Registration RegistrationConfig
	Admin        AdminConfig
	Listener     ListenerConfig
	Log          LogConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Backend         string // sqlite or postgres
	Path            string
	Source          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	QueryTimeout    time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RegistrationConfig holds route registration settings
type RegistrationConfig struct {
	BankUsageDomain string
	CatalogFile     string
}

// AdminConfig holds the shared admin secret. TokenSha256 wins when both are set.
type AdminConfig struct {
	Token       string
	TokenSha256 string
}

// ListenerConfig holds deposit listener settings
type ListenerConfig struct {
	PortfolioId     string
	LookbackWindow  time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
	WalletType      string
}

// LogConfig holds logger settings. Filename enables a rotating file sink.
type LogConfig struct {
	Level      string
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}
