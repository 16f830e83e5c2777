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

// Package listener polls Coinbase Prime for deposits on pool addresses and
// records them as sell payments.
package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fiat-bridge-registry-go/internal/api"
	"fiat-bridge-registry-go/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var depositsSeen = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "registry_listener_deposits_total",
	Help: "Prime deposits handled by the listener, by outcome",
}, []string{"result"})

// TransactionSource lists wallet transactions. Implemented by *prime.Service.
type TransactionSource interface {
	ListWalletTransactions(ctx context.Context, portfolioId, walletId string, since time.Time) ([]models.PrimeTransaction, error)
	ListWallets(ctx context.Context, portfolioId, walletType string, symbols []string) ([]models.Wallet, error)
}

// PaymentRecorder records sell payments. Implemented by *api.RegistrationService.
type PaymentRecorder interface {
	RecordSellPayment(ctx context.Context, params api.PaymentParams) (*models.TransactionView, error)
	DepositWallets(ctx context.Context) ([]string, error)
}

// DepositListenerConfig contains configuration for DepositListener
type DepositListenerConfig struct {
	Source          TransactionSource
	Recorder        PaymentRecorder
	PortfolioId     string
	WalletType      string
	LookbackWindow  time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
}

// DepositListener polls the wallets backing the deposit pool
type DepositListener struct {
	source   TransactionSource
	recorder PaymentRecorder

	// keyed by transaction id and status, so a confirmation after a pending
	// import is handled again
	processed       map[string]time.Time
	mutex           sync.RWMutex
	lookbackWindow  time.Duration
	pollingInterval time.Duration
	cleanupInterval time.Duration

	portfolioId      string
	walletType       string
	monitoredWallets []models.WalletInfo

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewDepositListener(cfg DepositListenerConfig) *DepositListener {
	return &DepositListener{
		source:          cfg.Source,
		recorder:        cfg.Recorder,
		processed:       make(map[string]time.Time),
		lookbackWindow:  cfg.LookbackWindow,
		pollingInterval: cfg.PollingInterval,
		cleanupInterval: cfg.CleanupInterval,
		portfolioId:     cfg.PortfolioId,
		walletType:      cfg.WalletType,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start loads the monitored wallets, replays the lookback window once and
// starts the polling and cleanup loops.
func (d *DepositListener) Start(ctx context.Context) error {
	zap.L().Info("Starting deposit listener")

	if err := d.loadMonitoredWallets(ctx); err != nil {
		return fmt.Errorf("failed to load monitored wallets: %w", err)
	}
	if len(d.monitoredWallets) == 0 {
		zap.L().Warn("No wallets to monitor - provision deposit addresses first")
		return fmt.Errorf("no wallets to monitor")
	}

	go d.pollLoop(ctx)
	go d.cleanupLoop(ctx)

	zap.L().Info("Deposit listener started successfully",
		zap.Int("wallets", len(d.monitoredWallets)),
		zap.Duration("polling_interval", d.pollingInterval),
		zap.Duration("lookback_window", d.lookbackWindow))
	return nil
}

// Stop gracefully stops the deposit listener
func (d *DepositListener) Stop() {
	zap.L().Info("Stopping deposit listener")
	close(d.stopChan)
	<-d.doneChan
	zap.L().Info("Deposit listener stopped")
}

// loadMonitoredWallets prefers the wallets recorded on pool entries and falls
// back to every Prime wallet of the configured type.
func (d *DepositListener) loadMonitoredWallets(ctx context.Context) error {
	walletIds, err := d.recorder.DepositWallets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list deposit wallets: %w", err)
	}

	if len(walletIds) > 0 {
		d.monitoredWallets = make([]models.WalletInfo, 0, len(walletIds))
		for _, id := range walletIds {
			d.monitoredWallets = append(d.monitoredWallets, models.WalletInfo{Id: id})
		}
		zap.L().Info("Monitoring deposit pool wallets", zap.Int("count", len(d.monitoredWallets)))
		return nil
	}

	zap.L().Info("Pool has no wallet ids, discovering wallets from Prime",
		zap.String("portfolio_id", d.portfolioId),
		zap.String("wallet_type", d.walletType))

	wallets, err := d.source.ListWallets(ctx, d.portfolioId, d.walletType, nil)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	d.monitoredWallets = make([]models.WalletInfo, 0, len(wallets))
	for _, w := range wallets {
		if seen[w.Id] {
			continue
		}
		seen[w.Id] = true
		d.monitoredWallets = append(d.monitoredWallets, models.WalletInfo{Id: w.Id, AssetSymbol: w.Symbol})
	}
	zap.L().Info("Monitoring Prime wallets", zap.Int("count", len(d.monitoredWallets)))
	return nil
}

func (d *DepositListener) pollLoop(ctx context.Context) {
	defer close(d.doneChan)

	ticker := time.NewTicker(d.pollingInterval)
	defer ticker.Stop()

	d.pollWallets(ctx)

	for {
		select {
		case <-ticker.C:
			d.pollWallets(ctx)
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// pollWallets polls all monitored wallets concurrently
func (d *DepositListener) pollWallets(ctx context.Context) {
	since := time.Now().UTC().Add(-d.lookbackWindow)

	var wg sync.WaitGroup
	for _, wallet := range d.monitoredWallets {
		wg.Add(1)
		go func(w models.WalletInfo) {
			defer wg.Done()
			if err := d.pollWallet(ctx, w, since); err != nil {
				zap.L().Error("Failed to poll wallet",
					zap.String("wallet_id", w.Id),
					zap.String("asset_symbol", w.AssetSymbol),
					zap.Error(err))
			}
		}(wallet)
	}
	wg.Wait()
}

func (d *DepositListener) pollWallet(ctx context.Context, wallet models.WalletInfo, since time.Time) error {
	transactions, err := d.source.ListWalletTransactions(ctx, d.portfolioId, wallet.Id, since)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}

	for _, tx := range transactions {
		if d.isProcessed(tx) {
			continue
		}
		if err := d.processTransaction(ctx, tx); err != nil {
			depositsSeen.WithLabelValues("error").Inc()
			zap.L().Error("Failed to process transaction",
				zap.String("transaction_id", tx.Id),
				zap.String("wallet_id", wallet.Id),
				zap.Error(err))
		}
	}
	return nil
}

func processedKey(tx models.PrimeTransaction) string {
	return tx.Id + "/" + tx.Status
}

func (d *DepositListener) isProcessed(tx models.PrimeTransaction) bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	_, exists := d.processed[processedKey(tx)]
	return exists
}

func (d *DepositListener) markProcessed(tx models.PrimeTransaction) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.processed[processedKey(tx)] = time.Now()
}

func (d *DepositListener) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.cleanupProcessed()
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// cleanupProcessed forgets entries older than the lookback window; Prime no
// longer returns them.
func (d *DepositListener) cleanupProcessed() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	cutoff := time.Now().Add(-d.lookbackWindow)
	cleaned := 0
	for key, processedTime := range d.processed {
		if processedTime.Before(cutoff) {
			delete(d.processed, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		zap.L().Debug("Cleaned up old processed transactions",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", len(d.processed)))
	}
}
