package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"fiat-bridge-registry-go/internal/api"
	"fiat-bridge-registry-go/internal/common"
	"fiat-bridge-registry-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	catalogFile := flag.String("catalog", "", "Path to the catalog seed file (default: CATALOG_FILE)")
	adminToken := flag.String("token", "", "Admin token (default: ADMIN_TOKEN)")
	hashToken := flag.String("hash-token", "", "Print the SHA-256 digest of an admin token for ADMIN_TOKEN_SHA256 and exit")
	flag.Parse()

	if *hashToken != "" {
		fmt.Println(api.HashToken(*hashToken))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger, _ := zap.NewProduction()
		zap.ReplaceGlobals(logger)
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	ctx := context.Background()

	// Opening the store creates the schema
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	file := *catalogFile
	if file == "" {
		file = cfg.Registration.CatalogFile
	}

	zap.L().Info("Loading catalog seed", zap.String("file", file))
	seed, err := common.LoadCatalogSeed(file)
	if err != nil {
		zap.L().Fatal("Failed to load catalog seed", zap.Error(err))
	}

	token := *adminToken
	if token == "" {
		token = cfg.Admin.Token
	}

	created, err := common.SeedCatalog(ctx, services.Registration, token, seed)
	if err != nil {
		zap.L().Fatal("Failed to seed catalog", zap.Error(err))
	}

	common.WriteSeedSummary(os.Stdout, seed, created)
}
