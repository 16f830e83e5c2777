package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"fiat-bridge-registry-go/internal/api"
	"fiat-bridge-registry-go/internal/database"
	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/postgres"
	"fiat-bridge-registry-go/internal/prime"
	"fiat-bridge-registry-go/internal/store"

	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Store        store.Store
	Registration *api.RegistrationService
}

// InitializeLogger installs the global zap logger. Entries go to stderr and,
// when cfg.Filename is set, to a rotating JSON file.
func InitializeLogger(cfg models.LogConfig) (*zap.Logger, func()) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			log.Fatalf("Invalid log level %q: %v", cfg.Level, err)
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(os.Stderr), level),
	}

	var fileSyncer *zapcore.BufferedWriteSyncer
	if cfg.Filename != "" {
		fileSyncer = &zapcore.BufferedWriteSyncer{
			WS: zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.Filename,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}),
			Size:          256 * 1024,
			FlushInterval: 5 * time.Second,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileSyncer, level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
		if fileSyncer != nil {
			if err := fileSyncer.Stop(); err != nil {
				log.Printf("Failed to flush log file: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeStore opens the backend selected by cfg.Backend
func InitializeStore(ctx context.Context, cfg models.DatabaseConfig) (store.Store, error) {
	switch cfg.Backend {
	case "", "sqlite":
		s, err := database.NewService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := postgres.NewStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	s, err := InitializeStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	registration, err := api.NewRegistrationService(s, api.Options{
		BankUsageDomain:  cfg.Registration.BankUsageDomain,
		AdminToken:       cfg.Admin.Token,
		AdminTokenSha256: cfg.Admin.TokenSha256,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	return &Services{Store: s, Registration: registration}, nil
}

func (cs *Services) Close() {
	if cs.Store != nil {
		cs.Store.Close()
	}
}

// InitializePrime connects to Prime and resolves the portfolio to work on.
// An empty portfolioId selects the default portfolio.
func InitializePrime(ctx context.Context, portfolioId string) (*prime.Service, *models.Portfolio, error) {
	zap.L().Info("Loading Prime API credentials")
	creds, err := loadPrimeCredentials()
	if err != nil {
		return nil, nil, err
	}

	primeService, err := prime.NewService(creds)
	if err != nil {
		return nil, nil, err
	}

	portfolio, err := primeService.FindPortfolio(ctx, portfolioId)
	if err != nil {
		return nil, nil, err
	}
	zap.L().Info("Using portfolio",
		zap.String("name", portfolio.Name),
		zap.String("id", portfolio.Id))

	return primeService, portfolio, nil
}

func loadPrimeCredentials() (*credentials.Credentials, error) {
	accessKey := os.Getenv("PRIME_ACCESS_KEY")
	passphrase := os.Getenv("PRIME_PASSPHRASE")
	signingKey := os.Getenv("PRIME_SIGNING_KEY")

	if accessKey == "" || passphrase == "" || signingKey == "" {
		return nil, fmt.Errorf("missing required Prime API credentials: PRIME_ACCESS_KEY, PRIME_PASSPHRASE, PRIME_SIGNING_KEY")
	}

	return &credentials.Credentials{
		AccessKey:  accessKey,
		Passphrase: passphrase,
		SigningKey: signingKey,
	}, nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
