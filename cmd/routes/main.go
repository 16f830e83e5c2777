package main

import (
	"context"
	"flag"
	"os"

	"fiat-bridge-registry-go/internal/common"
	"fiat-bridge-registry-go/internal/config"
	"fiat-bridge-registry-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	address := flag.String("address", "", "Only show routes registered by this address")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger, _ := zap.NewProduction()
		zap.ReplaceGlobals(logger)
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Log)
	defer loggerCleanup()

	ctx := context.Background()

	s, err := common.InitializeStore(ctx, cfg.Database)
	if err != nil {
		zap.L().Fatal("Failed to open store", zap.Error(err))
	}
	defer s.Close()

	filter := store.RouteFilter{Address: *address}

	buyRoutes, err := s.ListBuyRoutes(ctx, filter)
	if err != nil {
		zap.L().Fatal("Failed to list buy routes", zap.Error(err))
	}
	sellRoutes, err := s.ListSellRoutes(ctx, filter)
	if err != nil {
		zap.L().Fatal("Failed to list sell routes", zap.Error(err))
	}

	stats, err := s.DepositPoolStats(ctx)
	if err != nil {
		zap.L().Fatal("Failed to read pool statistics", zap.Error(err))
	}
	common.WriteRouteReport(os.Stdout, buyRoutes, sellRoutes, stats)
}
