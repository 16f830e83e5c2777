/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"fiat-bridge-registry-go/internal/models"
)

func Load() (*models.Config, error) {
	durations := map[string]*time.Duration{}
	var (
		lookbackWindow, pollingInterval, cleanupInterval time.Duration
		connMaxLifetime, connMaxIdleTime, pingTimeout    time.Duration
		queryTimeout, retryBackoff                       time.Duration
		readTimeout, writeTimeout, shutdownTimeout       time.Duration
	)
	defaults := []struct {
		key   string
		value time.Duration
		dst   *time.Duration
	}{
		{"LISTENER_LOOKBACK_WINDOW", 6 * time.Hour, &lookbackWindow},
		{"LISTENER_POLLING_INTERVAL", 30 * time.Second, &pollingInterval},
		{"LISTENER_CLEANUP_INTERVAL", 15 * time.Minute, &cleanupInterval},
		{"DB_CONN_MAX_LIFETIME", 5 * time.Minute, &connMaxLifetime},
		{"DB_CONN_MAX_IDLE_TIME", 30 * time.Second, &connMaxIdleTime},
		{"DB_PING_TIMEOUT", 5 * time.Second, &pingTimeout},
		{"DB_QUERY_TIMEOUT", 10 * time.Second, &queryTimeout},
		{"DB_RETRY_BACKOFF", 50 * time.Millisecond, &retryBackoff},
		{"SERVER_READ_TIMEOUT", 15 * time.Second, &readTimeout},
		{"SERVER_WRITE_TIMEOUT", 15 * time.Second, &writeTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", 10 * time.Second, &shutdownTimeout},
	}
	for _, d := range defaults {
		value, err := getEnvDuration(d.key, d.value)
		if err != nil {
			return nil, err
		}
		*d.dst = value
		durations[d.key] = d.dst
	}

	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Backend:         getEnvString("STORE_BACKEND", "sqlite"),
			Path:            getEnvString("DATABASE_PATH", "registry.db"),
			Source:          os.Getenv("DB_SOURCE"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			QueryTimeout:    queryTimeout,
			RetryAttempts:   getEnvInt("DB_RETRY_ATTEMPTS", 3),
			RetryBackoff:    retryBackoff,
		},
		Server: models.ServerConfig{
			Port:            getEnvString("SERVER_PORT", "8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Registration: models.RegistrationConfig{
			BankUsageDomain: getEnvString("BANK_USAGE_DOMAIN", "registry.local"),
			CatalogFile:     getEnvString("CATALOG_FILE", "catalog.yaml"),
		},
		Admin: models.AdminConfig{
			Token:       os.Getenv("ADMIN_TOKEN"),
			TokenSha256: os.Getenv("ADMIN_TOKEN_SHA256"),
		},
		Listener: models.ListenerConfig{
			PortfolioId:     os.Getenv("PRIME_PORTFOLIO_ID"),
			LookbackWindow:  lookbackWindow,
			PollingInterval: pollingInterval,
			CleanupInterval: cleanupInterval,
			WalletType:      getEnvString("LISTENER_WALLET_TYPE", "TRADING"),
		},
		Log: models.LogConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			Filename:   os.Getenv("LOG_FILENAME"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
	}

	for key, d := range durations {
		if *d <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %v", key, *d)
		}
	}
	switch cfg.Database.Backend {
	case "sqlite":
	case "postgres":
		if cfg.Database.Source == "" {
			return nil, fmt.Errorf("DB_SOURCE is required when STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want sqlite or postgres", cfg.Database.Backend)
	}
	if cfg.Database.RetryAttempts < 1 {
		return nil, fmt.Errorf("DB_RETRY_ATTEMPTS must be at least 1, got %d", cfg.Database.RetryAttempts)
	}

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
