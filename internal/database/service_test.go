package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"github.com/shopspring/decimal"
)

const (
	testAddress   = "8abcdefghijklmnopqrstuvwxyz1234567"
	testSignature = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa="
	testIban      = "CH9300762011623852957"
)

func testConfig(path string) models.DatabaseConfig {
	return models.DatabaseConfig{
		Backend:         "sqlite",
		Path:            path,
		MaxOpenConns:    8,
		MaxIdleConns:    4,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		PingTimeout:     5 * time.Second,
		QueryTimeout:    10 * time.Second,
		RetryAttempts:   3,
		RetryBackoff:    10 * time.Millisecond,
	}
}

func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()

	service, err := NewService(context.Background(), testConfig(filepath.Join(t.TempDir(), "registry.db")))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	cleanup := func() {
		service.Close()
	}
	return service, cleanup
}

func createTestAccount(t *testing.T, service *Service, address string) *models.Account {
	t.Helper()

	account, err := service.CreateAccount(context.Background(), store.CreateAccountParams{
		Address:   address,
		Signature: testSignature,
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return account
}

func addTestDeposits(t *testing.T, service *Service, addresses ...string) {
	t.Helper()

	entries := make([]store.NewDepositAddress, 0, len(addresses))
	for _, a := range addresses {
		entries = append(entries, store.NewDepositAddress{Address: a, WalletId: "wallet-1", Network: "ethereum-mainnet"})
	}
	if _, err := service.AddDepositAddresses(context.Background(), entries); err != nil {
		t.Fatalf("AddDepositAddresses failed: %v", err)
	}
}

func TestNewService_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig("")
	if _, err := NewService(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for empty path")
	}

	cfg = testConfig(":memory:")
	cfg.MaxOpenConns = 0
	if _, err := NewService(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for zero max open connections")
	}
}

func TestNewService_SchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")

	first, err := NewService(context.Background(), testConfig(path))
	if err != nil {
		t.Fatalf("First NewService failed: %v", err)
	}
	createTestAccount(t, first, testAddress)
	first.Close()

	second, err := NewService(context.Background(), testConfig(path))
	if err != nil {
		t.Fatalf("Second NewService failed: %v", err)
	}
	defer second.Close()

	account, err := second.GetAccount(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("GetAccount after reopen failed: %v", err)
	}
	if account.Ref != 1 {
		t.Errorf("Expected ref 1 to survive reopen, got %d", account.Ref)
	}
}

func TestCreateAccount_AssignsIncreasingRefs(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	first := createTestAccount(t, service, testAddress)
	second := createTestAccount(t, service, "8bbcdefghijklmnopqrstuvwxyz1234567")

	if first.Ref != 1 {
		t.Errorf("Expected first ref 1, got %d", first.Ref)
	}
	if second.Ref <= first.Ref {
		t.Errorf("Expected refs to increase, got %d then %d", first.Ref, second.Ref)
	}

	byRef, err := service.GetAccountByRef(ctx, second.Ref)
	if err != nil {
		t.Fatalf("GetAccountByRef failed: %v", err)
	}
	if byRef.Address != second.Address {
		t.Errorf("Expected address %s, got %s", second.Address, byRef.Address)
	}
}

func TestCreateAccount_ConcurrentRefsAreUnique(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	const workers = 16
	refs := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			address := "8" + string(rune('a'+i)) + "bcdefghijklmnopqrstuvwxyz123456"
			account, err := service.CreateAccount(context.Background(), store.CreateAccountParams{
				Address:   address,
				Signature: testSignature,
			})
			if err != nil {
				t.Errorf("CreateAccount %d failed: %v", i, err)
				return
			}
			refs <- account.Ref
		}(i)
	}
	wg.Wait()
	close(refs)

	seen := make(map[int64]bool)
	for ref := range refs {
		if seen[ref] {
			t.Errorf("Ref %d assigned twice", ref)
		}
		seen[ref] = true
	}
	if len(seen) != workers {
		t.Errorf("Expected %d distinct refs, got %d", workers, len(seen))
	}
}

func TestCreateAccount_DuplicateAddress(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	createTestAccount(t, service, testAddress)

	_, err := service.CreateAccount(context.Background(), store.CreateAccountParams{
		Address:   testAddress,
		Signature: testSignature,
	})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetAccount(context.Background(), testAddress)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAccount_KeepsUnsetFields(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, testAddress)

	mail := "satoshi@example.com"
	ref := int64(1)
	_, err := service.UpdateAccount(ctx, testAddress, store.UpdateAccountParams{
		Profile: models.AccountProfile{Mail: &mail},
		UsedRef: &ref,
	})
	if err != nil {
		t.Fatalf("First UpdateAccount failed: %v", err)
	}

	zip := "8000"
	account, err := service.UpdateAccount(ctx, testAddress, store.UpdateAccountParams{
		Profile: models.AccountProfile{Zip: &zip},
	})
	if err != nil {
		t.Fatalf("Second UpdateAccount failed: %v", err)
	}
	if account.Mail == nil || *account.Mail != mail {
		t.Errorf("Expected mail %s to be kept, got %v", mail, account.Mail)
	}
	if account.Zip == nil || *account.Zip != zip {
		t.Errorf("Expected zip %s, got %v", zip, account.Zip)
	}
	if account.UsedRef == nil || *account.UsedRef != ref {
		t.Errorf("Expected used_ref %d to be kept, got %v", ref, account.UsedRef)
	}

	account, err = service.UpdateAccount(ctx, testAddress, store.UpdateAccountParams{ClearUsedRef: true})
	if err != nil {
		t.Fatalf("Clearing UpdateAccount failed: %v", err)
	}
	if account.UsedRef != nil {
		t.Errorf("Expected used_ref to be cleared, got %d", *account.UsedRef)
	}

	_, err = service.UpdateAccount(ctx, "8zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", store.UpdateAccountParams{Profile: models.AccountProfile{Zip: &zip}})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown account, got %v", err)
	}
}

func TestCatalog_CreateLookupUpdate(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	asset, err := service.CreateAsset(ctx, store.CreateAssetParams{Name: "dTSLA", Type: models.AssetTypeDAT, Buyable: true})
	if err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}

	byName, err := service.GetAssetByName(ctx, "dtsla")
	if err != nil {
		t.Fatalf("GetAssetByName failed: %v", err)
	}
	if byName.Id != asset.Id {
		t.Errorf("Expected case-insensitive lookup to return id %d, got %d", asset.Id, byName.Id)
	}

	_, err = service.CreateAsset(ctx, store.CreateAssetParams{Name: "DTSLA", Type: models.AssetTypeDAT})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate for name clash, got %v", err)
	}

	sellable := true
	updated, err := service.UpdateAsset(ctx, asset.Id, store.UpdateAssetParams{Sellable: &sellable})
	if err != nil {
		t.Fatalf("UpdateAsset failed: %v", err)
	}
	if !updated.Buyable || !updated.Sellable || updated.Name != "dTSLA" {
		t.Errorf("Unexpected asset after update: %+v", updated)
	}

	if _, err := service.UpdateAsset(ctx, 999, store.UpdateAssetParams{Sellable: &sellable}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown asset, got %v", err)
	}

	fiat, err := service.CreateFiat(ctx, store.CreateFiatParams{Name: "CHF", Enable: true})
	if err != nil {
		t.Fatalf("CreateFiat failed: %v", err)
	}
	disabled := false
	fiat, err = service.UpdateFiat(ctx, fiat.Id, store.UpdateFiatParams{Enable: &disabled})
	if err != nil {
		t.Fatalf("UpdateFiat failed: %v", err)
	}
	if fiat.Enable {
		t.Error("Expected fiat to be disabled")
	}

	fiats, err := service.ListFiats(ctx)
	if err != nil {
		t.Fatalf("ListFiats failed: %v", err)
	}
	if len(fiats) != 1 || fiats[0].Name != "CHF" {
		t.Errorf("Unexpected fiats: %+v", fiats)
	}
}

func createTestSellRoute(ctx context.Context, service *Service, address string, fiatId int64) (*models.SellRoute, error) {
	return service.CreateSellRoute(ctx, store.CreateSellRouteParams{
		Id:        fmt.Sprintf("%s:%d", address, fiatId),
		Address:   address,
		Iban:      testIban,
		FiatId:    fiatId,
		BankUsage: "AAAA-BBBB-CCCC",
	})
}

func TestCreateSellRoute_ClaimsOldestFirstThenExhausted(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	fiat, err := service.CreateFiat(ctx, store.CreateFiatParams{Name: "EUR", Enable: true})
	if err != nil {
		t.Fatalf("CreateFiat failed: %v", err)
	}
	addTestDeposits(t, service, "0xA1", "0xA2")

	addresses := []string{testAddress, "8bcdefghijklmnopqrstuvwxyz12345678", "8cdefghijklmnopqrstuvwxyz123456789"}
	for _, a := range addresses {
		createTestAccount(t, service, a)
	}

	first, err := createTestSellRoute(ctx, service, addresses[0], fiat.Id)
	if err != nil {
		t.Fatalf("First sell route failed: %v", err)
	}
	if first.DepositAddress != "0xA1" {
		t.Errorf("Expected 0xA1, got %s", first.DepositAddress)
	}

	second, err := createTestSellRoute(ctx, service, addresses[1], fiat.Id)
	if err != nil {
		t.Fatalf("Second sell route failed: %v", err)
	}
	if second.DepositAddress != "0xA2" {
		t.Errorf("Expected 0xA2, got %s", second.DepositAddress)
	}

	if _, err := createTestSellRoute(ctx, service, addresses[2], fiat.Id); !errors.Is(err, store.ErrNoAddressAvailable) {
		t.Fatalf("Expected ErrNoAddressAvailable, got %v", err)
	}

	stats, err := service.DepositPoolStats(ctx)
	if err != nil {
		t.Fatalf("DepositPoolStats failed: %v", err)
	}
	if stats.Total != 2 || stats.Used != 2 || stats.Free != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestCreateSellRoute_ConcurrentRoutesNeverShareAddress(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	const free = 4
	const workers = 16
	ctx := context.Background()
	fiat, err := service.CreateFiat(ctx, store.CreateFiatParams{Name: "EUR", Enable: true})
	if err != nil {
		t.Fatalf("CreateFiat failed: %v", err)
	}
	addTestDeposits(t, service, "A1", "A2", "A3", "A4")

	users := make([]string, workers)
	for i := range users {
		users[i] = fmt.Sprintf("8%033d", i)
		createTestAccount(t, service, users[i])
	}

	var (
		mu        sync.Mutex
		claimed   = make(map[string]int)
		exhausted int
		wg        sync.WaitGroup
	)
	for _, user := range users {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			route, err := createTestSellRoute(context.Background(), service, user, fiat.Id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, store.ErrNoAddressAvailable):
				exhausted++
			case err != nil:
				t.Errorf("Unexpected sell route error: %v", err)
			default:
				claimed[route.DepositAddress]++
			}
		}(user)
	}
	wg.Wait()

	if len(claimed) != free {
		t.Errorf("Expected %d distinct addresses, got %d", free, len(claimed))
	}
	for address, n := range claimed {
		if n != 1 {
			t.Errorf("Address %s assigned to %d routes", address, n)
		}
	}
	if exhausted != workers-free {
		t.Errorf("Expected %d exhausted requests, got %d", workers-free, exhausted)
	}

	routes, err := service.ListSellRoutes(ctx, store.RouteFilter{})
	if err != nil {
		t.Fatalf("ListSellRoutes failed: %v", err)
	}
	stats, err := service.DepositPoolStats(ctx)
	if err != nil {
		t.Fatalf("DepositPoolStats failed: %v", err)
	}
	if int64(len(routes)) != stats.Used || stats.Used != free {
		t.Errorf("Expected %d used addresses matching %d routes, got %+v", free, len(routes), stats)
	}
}

func TestAddDepositAddresses_SkipsKnownAddresses(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	addTestDeposits(t, service, "0xA1")

	added, err := service.AddDepositAddresses(ctx, []store.NewDepositAddress{
		{Address: "0xA1", WalletId: "wallet-1"},
		{Address: "0xA2", WalletId: "wallet-2"},
	})
	if err != nil {
		t.Fatalf("AddDepositAddresses failed: %v", err)
	}
	if added != 1 {
		t.Errorf("Expected 1 added, got %d", added)
	}

	wallets, err := service.ListDepositWallets(ctx)
	if err != nil {
		t.Fatalf("ListDepositWallets failed: %v", err)
	}
	if len(wallets) != 2 || wallets[0] != "wallet-1" || wallets[1] != "wallet-2" {
		t.Errorf("Unexpected wallets: %v", wallets)
	}
}

func TestCreateSellRoute_ClaimsDepositAddress(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, testAddress)
	fiat, err := service.CreateFiat(ctx, store.CreateFiatParams{Name: "EUR", Enable: true})
	if err != nil {
		t.Fatalf("CreateFiat failed: %v", err)
	}
	addTestDeposits(t, service, "0xA1")

	route, err := service.CreateSellRoute(ctx, store.CreateSellRouteParams{
		Id:        testAddress + ":1",
		Address:   testAddress,
		Iban:      testIban,
		FiatId:    fiat.Id,
		BankUsage: "AAAA-BBBB-CCCC",
	})
	if err != nil {
		t.Fatalf("CreateSellRoute failed: %v", err)
	}
	if route.DepositAddress != "0xA1" || !route.Active {
		t.Errorf("Unexpected sell route: %+v", route)
	}

	found, err := service.FindSellRouteByDepositAddress(ctx, "0xA1")
	if err != nil {
		t.Fatalf("FindSellRouteByDepositAddress failed: %v", err)
	}
	if found.Id != route.Id {
		t.Errorf("Expected route %s, got %s", route.Id, found.Id)
	}
}

func TestCreateSellRoute_FailedInsertReleasesClaim(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, testAddress)
	addTestDeposits(t, service, "0xA1")

	// Unknown fiat violates the foreign key after the claim
	_, err := service.CreateSellRoute(ctx, store.CreateSellRouteParams{
		Id:        testAddress + ":42",
		Address:   testAddress,
		Iban:      testIban,
		FiatId:    42,
		BankUsage: "AAAA-BBBB-CCCC",
	})
	if err == nil {
		t.Fatal("Expected CreateSellRoute to fail for unknown fiat")
	}

	stats, err := service.DepositPoolStats(ctx)
	if err != nil {
		t.Fatalf("DepositPoolStats failed: %v", err)
	}
	if stats.Free != 1 {
		t.Errorf("Expected claim to be rolled back, free = %d", stats.Free)
	}
}

func TestCreateSellRoute_EmptyPool(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, testAddress)
	fiat, err := service.CreateFiat(ctx, store.CreateFiatParams{Name: "EUR", Enable: true})
	if err != nil {
		t.Fatalf("CreateFiat failed: %v", err)
	}

	_, err = service.CreateSellRoute(ctx, store.CreateSellRouteParams{
		Id:        testAddress + ":1",
		Address:   testAddress,
		Iban:      testIban,
		FiatId:    fiat.Id,
		BankUsage: "AAAA-BBBB-CCCC",
	})
	if !errors.Is(err, store.ErrNoAddressAvailable) {
		t.Fatalf("Expected ErrNoAddressAvailable, got %v", err)
	}
}

func TestBuyRoutes_CreateDeactivateList(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	createTestAccount(t, service, testAddress)
	asset, err := service.CreateAsset(ctx, store.CreateAssetParams{Name: "DFI", Type: models.AssetTypeCoin, Buyable: true})
	if err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}

	params := store.CreateBuyRouteParams{
		Id:        testAddress + ":1",
		Address:   testAddress,
		Iban:      testIban,
		AssetId:   asset.Id,
		BankUsage: "1111-2222-3333",
	}
	route, err := service.CreateBuyRoute(ctx, params)
	if err != nil {
		t.Fatalf("CreateBuyRoute failed: %v", err)
	}
	if !route.Active {
		t.Error("Expected new route to be active")
	}

	if _, err := service.CreateBuyRoute(ctx, params); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate on second insert, got %v", err)
	}

	route, err = service.SetBuyRouteActive(ctx, params.Id, false)
	if err != nil {
		t.Fatalf("SetBuyRouteActive failed: %v", err)
	}
	if route.Active {
		t.Error("Expected route to be inactive")
	}

	if _, err := service.SetBuyRouteActive(ctx, "missing", true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	found, err := service.FindBuyRouteByBankUsage(ctx, "1111-2222-3333")
	if err != nil {
		t.Fatalf("FindBuyRouteByBankUsage failed: %v", err)
	}
	if found.Id != params.Id {
		t.Errorf("Expected %s, got %s", params.Id, found.Id)
	}

	all, err := service.ListBuyRoutes(ctx, store.RouteFilter{})
	if err != nil {
		t.Fatalf("ListBuyRoutes failed: %v", err)
	}
	mine, err := service.ListBuyRoutes(ctx, store.RouteFilter{Address: "8zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"})
	if err != nil {
		t.Fatalf("ListBuyRoutes with filter failed: %v", err)
	}
	if len(all) != 1 || len(mine) != 0 {
		t.Errorf("Expected 1 route overall and 0 for other address, got %d and %d", len(all), len(mine))
	}
}

func TestUpsertTransaction_ReplayUpdatesInPlace(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	params := store.UpsertTransactionParams{
		ExternalId:  "prime-tx-1",
		Direction:   models.DirectionSell,
		RouteId:     testAddress + ":1",
		Reference:   "0xA1",
		FiatAmount:  decimal.Zero,
		AssetAmount: decimal.RequireFromString("1.25"),
		Status:      "pending",
	}

	first, created, err := service.UpsertTransaction(ctx, params)
	if err != nil {
		t.Fatalf("First UpsertTransaction failed: %v", err)
	}
	if !created {
		t.Error("Expected first upsert to create")
	}

	params.Status = "confirmed"
	second, created, err := service.UpsertTransaction(ctx, params)
	if err != nil {
		t.Fatalf("Second UpsertTransaction failed: %v", err)
	}
	if created {
		t.Error("Expected replay to update, not create")
	}
	if second.Id != first.Id || second.Status != "confirmed" {
		t.Errorf("Unexpected transaction after replay: %+v", second)
	}
	if !second.AssetAmount.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("Expected asset amount 1.25, got %s", second.AssetAmount)
	}

	params.Direction = models.DirectionBuy
	if _, _, err := service.UpsertTransaction(ctx, params); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate on direction change, got %v", err)
	}

	transactions, err := service.ListTransactions(ctx, store.TransactionFilter{RouteId: params.RouteId})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(transactions) != 1 {
		t.Errorf("Expected 1 transaction, got %d", len(transactions))
	}
}
