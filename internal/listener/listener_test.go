package listener

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"fiat-bridge-registry-go/internal/api"
	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	wallets      []models.Wallet
	transactions map[string][]models.PrimeTransaction
}

func (f *fakeSource) ListWalletTransactions(_ context.Context, _, walletId string, _ time.Time) ([]models.PrimeTransaction, error) {
	return f.transactions[walletId], nil
}

func (f *fakeSource) ListWallets(context.Context, string, string, []string) ([]models.Wallet, error) {
	return f.wallets, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	wallets  []string
	routes   map[string]string
	payments []api.PaymentParams
}

func (f *fakeRecorder) RecordSellPayment(_ context.Context, params api.PaymentParams) (*models.TransactionView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	routeId, ok := f.routes[params.Reference]
	if !ok {
		return nil, fmt.Errorf("sell route for %s: %w", params.Reference, store.ErrNotFound)
	}
	f.payments = append(f.payments, params)
	return &models.TransactionView{ExternalId: params.ExternalId, RouteId: routeId, Status: params.Status}, nil
}

func (f *fakeRecorder) DepositWallets(context.Context) ([]string, error) {
	return f.wallets, nil
}

func deposit(id, status, address, amount string) models.PrimeTransaction {
	tx := models.PrimeTransaction{Id: id, Type: "DEPOSIT", Status: status, Symbol: "ETH", Amount: amount}
	tx.TransferTo.Address = address
	return tx
}

func newTestListener(source *fakeSource, recorder *fakeRecorder) *DepositListener {
	return NewDepositListener(DepositListenerConfig{
		Source:          source,
		Recorder:        recorder,
		PortfolioId:     "portfolio-1",
		WalletType:      "TRADING",
		LookbackWindow:  time.Hour,
		PollingInterval: time.Hour,
		CleanupInterval: time.Hour,
	})
}

func TestPaymentStatus(t *testing.T) {
	tests := []struct {
		prime  string
		status string
		ok     bool
	}{
		{statusImportPending, "pending", true},
		{statusImported, "confirmed", true},
		{"TRANSACTION_CREATED", "", false},
	}
	for _, tt := range tests {
		status, ok := paymentStatus(tt.prime)
		assert.Equal(t, tt.status, status, tt.prime)
		assert.Equal(t, tt.ok, ok, tt.prime)
	}
}

func TestPollWallet_RecordsPendingThenConfirmed(t *testing.T) {
	recorder := &fakeRecorder{routes: map[string]string{"A1": "route-1"}}
	source := &fakeSource{transactions: map[string][]models.PrimeTransaction{}}
	d := newTestListener(source, recorder)
	wallet := models.WalletInfo{Id: "w-1"}
	ctx := context.Background()

	source.transactions["w-1"] = []models.PrimeTransaction{deposit("tx-1", statusImportPending, "A1", "1.5")}
	require.NoError(t, d.pollWallet(ctx, wallet, time.Now()))
	require.NoError(t, d.pollWallet(ctx, wallet, time.Now()))
	require.Len(t, recorder.payments, 1, "a replayed pending deposit is not recorded twice")
	assert.Equal(t, "pending", recorder.payments[0].Status)
	assert.Equal(t, "1.5", recorder.payments[0].AssetAmount.String())

	source.transactions["w-1"] = []models.PrimeTransaction{deposit("tx-1", statusImported, "A1", "1.5")}
	require.NoError(t, d.pollWallet(ctx, wallet, time.Now()))
	require.Len(t, recorder.payments, 2)
	assert.Equal(t, "confirmed", recorder.payments[1].Status)
	assert.Equal(t, "tx-1", recorder.payments[1].ExternalId)
}

func TestProcessTransaction_SkipsWhatItCannotMatch(t *testing.T) {
	recorder := &fakeRecorder{routes: map[string]string{"A1": "route-1"}}
	d := newTestListener(&fakeSource{}, recorder)
	ctx := context.Background()

	unknown := deposit("tx-2", statusImported, "B9", "2")
	require.NoError(t, d.processTransaction(ctx, unknown))
	assert.True(t, d.isProcessed(unknown), "unmatched deposits are not retried")

	zero := deposit("tx-3", statusImported, "A1", "0")
	require.NoError(t, d.processTransaction(ctx, zero))

	withdrawal := models.PrimeTransaction{Id: "tx-4", Type: "WITHDRAWAL", Status: statusImported}
	require.NoError(t, d.processTransaction(ctx, withdrawal))

	created := deposit("tx-5", "TRANSACTION_CREATED", "A1", "1")
	require.NoError(t, d.processTransaction(ctx, created))
	assert.False(t, d.isProcessed(created), "a deposit still in flight is looked at again")

	assert.Error(t, d.processTransaction(ctx, deposit("tx-6", statusImported, "A1", "abc")))
	assert.Empty(t, recorder.payments)
}

func TestLoadMonitoredWallets(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{wallets: []models.Wallet{{Id: "p-1", Symbol: "ETH"}, {Id: "p-1", Symbol: "ETH"}, {Id: "p-2", Symbol: "BTC"}}}

	d := newTestListener(source, &fakeRecorder{wallets: []string{"w-1"}})
	require.NoError(t, d.loadMonitoredWallets(ctx))
	assert.Equal(t, []models.WalletInfo{{Id: "w-1"}}, d.monitoredWallets)

	d = newTestListener(source, &fakeRecorder{})
	require.NoError(t, d.loadMonitoredWallets(ctx))
	assert.Equal(t, []models.WalletInfo{{Id: "p-1", AssetSymbol: "ETH"}, {Id: "p-2", AssetSymbol: "BTC"}}, d.monitoredWallets)
}

func TestStart_NoWallets(t *testing.T) {
	d := newTestListener(&fakeSource{}, &fakeRecorder{})
	assert.Error(t, d.Start(context.Background()))
}

func TestStartStop(t *testing.T) {
	recorder := &fakeRecorder{wallets: []string{"w-1"}, routes: map[string]string{"A1": "route-1"}}
	source := &fakeSource{transactions: map[string][]models.PrimeTransaction{
		"w-1": {deposit("tx-1", statusImported, "A1", "3")},
	}}
	d := newTestListener(source, recorder)

	require.NoError(t, d.Start(context.Background()))
	require.Eventually(t, func() bool {
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		return len(recorder.payments) == 1
	}, time.Second, 10*time.Millisecond)
	d.Stop()
}

func TestCleanupProcessed(t *testing.T) {
	d := newTestListener(&fakeSource{}, &fakeRecorder{})
	old := deposit("old", statusImported, "A1", "1")
	fresh := deposit("fresh", statusImported, "A1", "1")

	d.processed[processedKey(old)] = time.Now().Add(-2 * time.Hour)
	d.markProcessed(fresh)
	d.cleanupProcessed()

	assert.False(t, d.isProcessed(old))
	assert.True(t, d.isProcessed(fresh))
}
