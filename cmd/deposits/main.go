package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"fiat-bridge-registry-go/internal/common"
	"fiat-bridge-registry-go/internal/config"
	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/prime"
	"fiat-bridge-registry-go/internal/store"

	"go.uber.org/zap"
)

// getOrCreateWallet retrieves an existing wallet for the asset or creates a new one
func getOrCreateWallet(ctx context.Context, primeService *prime.Service, portfolioId, assetSymbol, walletType string) (*models.Wallet, error) {
	wallets, err := primeService.ListWallets(ctx, portfolioId, walletType, []string{assetSymbol})
	if err != nil {
		return nil, err
	}

	if len(wallets) > 0 {
		wallet := &wallets[0]
		zap.L().Info("Using existing wallet",
			zap.String("asset", assetSymbol),
			zap.String("wallet_name", wallet.Name),
			zap.String("wallet_id", wallet.Id))
		return wallet, nil
	}

	walletName := fmt.Sprintf("%s Deposit Pool", assetSymbol)
	zap.L().Info("Creating new wallet",
		zap.String("asset", assetSymbol),
		zap.String("wallet_name", walletName))

	return primeService.CreateWallet(ctx, portfolioId, walletName, assetSymbol, walletType)
}

// generateAddresses creates count fresh addresses on the asset's Prime wallet
func generateAddresses(ctx context.Context, cfg *models.Config, asset, network string, count int) ([]store.NewDepositAddress, error) {
	primeService, portfolio, err := common.InitializePrime(ctx, cfg.Listener.PortfolioId)
	if err != nil {
		return nil, err
	}

	wallet, err := getOrCreateWallet(ctx, primeService, portfolio.Id, asset, cfg.Listener.WalletType)
	if err != nil {
		return nil, err
	}

	addresses := make([]store.NewDepositAddress, 0, count)
	for i := 0; i < count; i++ {
		address, err := primeService.CreateDepositAddress(ctx, portfolio.Id, wallet.Id, asset, network)
		if err != nil {
			zap.L().Error("Error creating deposit address",
				zap.Int("created", len(addresses)),
				zap.Error(err))
			if len(addresses) == 0 {
				return nil, err
			}
			break
		}
		addresses = append(addresses, store.NewDepositAddress{
			Address:  address.Address,
			WalletId: address.WalletId,
			Network:  address.Network,
		})
	}
	return addresses, nil
}

func printStats(stats *models.PoolStats) {
	common.WritePoolStats(os.Stdout, stats)
}

func main() {
	file := flag.String("file", "", "YAML file listing deposit addresses to add")
	asset := flag.String("asset", "", "Generate addresses on the Prime wallet for this asset symbol")
	network := flag.String("network", "", "Network for generated addresses (e.g. ethereum-mainnet)")
	count := flag.Int("count", 10, "Number of addresses to generate with -asset")
	statsOnly := flag.Bool("stats", false, "Only print pool statistics")
	adminToken := flag.String("token", "", "Admin token (default: ADMIN_TOKEN)")
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

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	token := *adminToken
	if token == "" {
		token = cfg.Admin.Token
	}

	var addresses []store.NewDepositAddress
	switch {
	case *statsOnly:
	case *file != "":
		addresses, err = common.LoadDepositSeed(*file)
		if err != nil {
			zap.L().Fatal("Failed to load deposit addresses", zap.Error(err))
		}
	case *asset != "":
		if *network == "" || *count <= 0 {
			zap.L().Fatal("-network and a positive -count are required with -asset")
		}
		addresses, err = generateAddresses(ctx, cfg, *asset, *network, *count)
		if err != nil {
			zap.L().Fatal("Failed to generate deposit addresses", zap.Error(err))
		}
	default:
		zap.L().Fatal("One of -file, -asset or -stats is required")
	}

	if len(addresses) > 0 {
		added, err := services.Registration.AddDepositAddresses(ctx, token, addresses)
		if err != nil {
			zap.L().Fatal("Failed to add deposit addresses", zap.Error(err))
		}
		zap.L().Info("Deposit addresses added",
			zap.Int("requested", len(addresses)),
			zap.Int("added", added),
			zap.Int("skipped", len(addresses)-added))
	}

	stats, err := services.Registration.PoolStats(ctx, token)
	if err != nil {
		zap.L().Fatal("Failed to read pool statistics", zap.Error(err))
	}
	printStats(stats)
}
