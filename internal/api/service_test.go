package api

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fiat-bridge-registry-go/internal/database"
	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/registration"
	"fiat-bridge-registry-go/internal/store"
	"fiat-bridge-registry-go/internal/validation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDomain = "registry.test"
	testToken  = "s3cret-admin-token"
	testIban   = "CH9300762011623852957"
)

var (
	alice = models.Credentials{
		Address:   "8abcdefghijklmnopqrstuvwxyz1234567",
		Signature: strings.Repeat("a", 87) + "=",
	}
	bob = models.Credentials{
		Address:   "8bcdefghijklmnopqrstuvwxyz12345678",
		Signature: strings.Repeat("b", 87) + "=",
	}
)

func setupTestService(t *testing.T) (*RegistrationService, *database.Service) {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:          filepath.Join(t.TempDir(), "registry.db"),
		MaxOpenConns:  4,
		MaxIdleConns:  2,
		PingTimeout:   5 * time.Second,
		QueryTimeout:  10 * time.Second,
		RetryAttempts: 3,
		RetryBackoff:  10 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	svc, err := NewRegistrationService(db, Options{BankUsageDomain: testDomain, AdminToken: testToken})
	require.NoError(t, err)
	return svc, db
}

func seedCatalog(t *testing.T, svc *RegistrationService) (*models.Asset, *models.Fiat) {
	t.Helper()
	ctx := context.Background()

	asset, err := svc.CreateAsset(ctx, testToken, store.CreateAssetParams{Name: "DFI", Type: models.AssetTypeCoin, Buyable: true, Sellable: true})
	require.NoError(t, err)
	fiat, err := svc.CreateFiat(ctx, testToken, store.CreateFiatParams{Name: "CHF", Enable: true})
	require.NoError(t, err)
	return asset, fiat
}

func addPool(t *testing.T, svc *RegistrationService, addresses ...string) {
	t.Helper()
	entries := make([]store.NewDepositAddress, 0, len(addresses))
	for _, a := range addresses {
		entries = append(entries, store.NewDepositAddress{Address: a})
	}
	_, err := svc.AddDepositAddresses(context.Background(), testToken, entries)
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }

func TestNewRegistrationService_Options(t *testing.T) {
	_, err := NewRegistrationService(nil, Options{})
	assert.Error(t, err, "empty domain must be rejected")

	_, err = NewRegistrationService(nil, Options{BankUsageDomain: testDomain, AdminTokenSha256: "not-hex"})
	assert.Error(t, err)

	svc, err := NewRegistrationService(nil, Options{BankUsageDomain: testDomain, AdminTokenSha256: HashToken(testToken)})
	require.NoError(t, err)
	assert.NoError(t, svc.Authorize(testToken))
	assert.ErrorIs(t, svc.Authorize("wrong"), ErrUnauthorized)
}

func TestAuthorize_NoTokenConfigured(t *testing.T) {
	svc, err := NewRegistrationService(nil, Options{BankUsageDomain: testDomain})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Authorize(""), ErrUnauthorized)
	assert.ErrorIs(t, svc.Authorize("anything"), ErrUnauthorized)
}

func TestResolveAccount_CreatesOnFirstContact(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.GetAccount(ctx, alice)
	assert.ErrorIs(t, err, store.ErrNotFound)

	view, err := svc.ResolveAccount(ctx, alice, nil)
	require.NoError(t, err)
	assert.Equal(t, alice.Address, view.Address)
	assert.Equal(t, "000-0001", view.Ref)
	assert.Nil(t, view.UsedRef)

	again, err := svc.ResolveAccount(ctx, alice, &models.AccountProfile{Mail: strPtr("alice@example.com")})
	require.NoError(t, err)
	assert.Equal(t, view.Ref, again.Ref)
	require.NotNil(t, again.Mail)
	assert.Equal(t, "alice@example.com", *again.Mail)

	strict, err := svc.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, view.Ref, strict.Ref)
}

func TestResolveAccount_Validation(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.ResolveAccount(ctx, models.Credentials{Address: "123", Signature: alice.Signature}, nil)
	reason, ok := validation.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, validation.InvalidAddressFormat, reason)

	_, err = svc.ResolveAccount(ctx, alice, &models.AccountProfile{Street: strPtr("1; DROP TABLE accounts")})
	reason, ok = validation.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, validation.ForbiddenContent, reason)

	_, err = svc.ResolveAccount(ctx, alice, &models.AccountProfile{UsedRef: strPtr("12-34")})
	reason, ok = validation.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, validation.InvalidRef, reason)
}

func TestResolveAccount_SignatureMismatch(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.ResolveAccount(ctx, alice, nil)
	require.NoError(t, err)

	impostor := models.Credentials{Address: alice.Address, Signature: strings.Repeat("z", 87) + "="}
	_, err = svc.ResolveAccount(ctx, impostor, nil)
	assert.ErrorIs(t, err, ErrCredentialMismatch)

	_, err = svc.GetAccount(ctx, impostor)
	assert.ErrorIs(t, err, ErrCredentialMismatch)
}

func TestResolveAccount_UsedRefLinkage(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	first, err := svc.ResolveAccount(ctx, alice, nil)
	require.NoError(t, err)

	second, err := svc.ResolveAccount(ctx, bob, &models.AccountProfile{UsedRef: strPtr(first.Ref)})
	require.NoError(t, err)
	require.NotNil(t, second.UsedRef)
	assert.Equal(t, first.Ref, *second.UsedRef)

	// Self references are dropped
	self, err := svc.UpdateProfile(ctx, bob, models.AccountProfile{UsedRef: strPtr(second.Ref)})
	require.NoError(t, err)
	assert.Nil(t, self.UsedRef)

	// Unknown refs are dropped
	unknown, err := svc.UpdateProfile(ctx, alice, models.AccountProfile{UsedRef: strPtr("999-9999")})
	require.NoError(t, err)
	assert.Nil(t, unknown.UsedRef)

	// Plain digits are accepted
	plain, err := svc.UpdateProfile(ctx, alice, models.AccountProfile{UsedRef: strPtr("2")})
	require.NoError(t, err)
	require.NotNil(t, plain.UsedRef)
	assert.Equal(t, "000-0002", *plain.UsedRef)
}

func TestCreateBuyRoute_IdempotentAndDeterministic(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	asset, _ := seedCatalog(t, svc)

	first, err := svc.CreateBuyRoute(ctx, alice, "ch93 0076 2011 6238 5295 7", "DFI")
	require.NoError(t, err)
	assert.Equal(t, registration.BuyRouteId(alice.Address, asset.Id), first.Id)
	assert.Equal(t, testIban, first.Iban)
	assert.Equal(t, registration.BankUsage(testDomain+"/buy", asset.Id, alice.Address, testIban), first.BankUsage)
	assert.True(t, first.Active)

	second, err := svc.CreateBuyRoute(ctx, alice, testIban, "1")
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, first.BankUsage, second.BankUsage)

	_, err = svc.CreateBuyRoute(ctx, alice, "DE89370400440532013000", "DFI")
	assert.ErrorIs(t, err, ErrRouteConflict)

	routes, err := svc.ListBuyRoutes(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, routes, 1)
}

func TestCreateBuyRoute_AssetMustBeBuyable(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.CreateAsset(ctx, testToken, store.CreateAssetParams{Name: "dTSLA", Type: models.AssetTypeDAT})
	require.NoError(t, err)

	_, err = svc.CreateBuyRoute(ctx, alice, testIban, "dTSLA")
	reason, ok := validation.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, validation.AssetNotBuyable, reason)

	_, err = svc.CreateBuyRoute(ctx, alice, testIban, "unknown")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateBuyRoute_ReactivatesInactiveRoute(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	seedCatalog(t, svc)

	route, err := svc.CreateBuyRoute(ctx, alice, testIban, "DFI")
	require.NoError(t, err)

	inactive, err := svc.SetBuyRouteActive(ctx, alice, route.Id, false)
	require.NoError(t, err)
	assert.False(t, inactive.Active)

	_, err = svc.SetBuyRouteActive(ctx, bob, route.Id, true)
	assert.Error(t, err, "other accounts cannot toggle the route")

	again, err := svc.CreateBuyRoute(ctx, alice, testIban, "DFI")
	require.NoError(t, err)
	assert.True(t, again.Active)
}

func TestCreateSellRoute_EndToEnd(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	_, fiat := seedCatalog(t, svc)
	require.Equal(t, int64(1), fiat.Id)
	addPool(t, svc, "A1")

	route, err := svc.CreateSellRoute(ctx, alice, testIban, "1")
	require.NoError(t, err)
	assert.Equal(t, alice.Address+":1", route.Id)
	assert.Equal(t, "A1", route.Deposit.Address)
	assert.True(t, route.Deposit.Used)

	repeat, err := svc.CreateSellRoute(ctx, alice, testIban, "CHF")
	require.NoError(t, err)
	assert.Equal(t, "A1", repeat.Deposit.Address, "a repeat must not claim another address")

	_, err = svc.CreateSellRoute(ctx, bob, "DE89370400440532013000", "1")
	assert.ErrorIs(t, err, store.ErrNoAddressAvailable)

	stats, err := svc.PoolStats(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, models.PoolStats{Total: 1, Used: 1, Free: 0}, *stats)
}

func TestCreateSellRoute_FiatMustBeEnabled(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.CreateFiat(ctx, testToken, store.CreateFiatParams{Name: "USD", Enable: false})
	require.NoError(t, err)
	addPool(t, svc, "A1")

	_, err = svc.CreateSellRoute(ctx, alice, testIban, "usd")
	reason, ok := validation.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, validation.FiatNotEnabled, reason)

	stats, err := svc.PoolStats(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Free)
}

func TestAdminOperations_RequireToken(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.CreateAsset(ctx, "wrong", store.CreateAssetParams{Name: "DFI", Type: models.AssetTypeCoin})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.CreateFiat(ctx, "", store.CreateFiatParams{Name: "CHF"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.AddDepositAddresses(ctx, "wrong", []store.NewDepositAddress{{Address: "A1"}})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.PoolStats(ctx, "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Export(ctx, "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.CreateAsset(ctx, testToken, store.CreateAssetParams{Name: "DFI", Type: "Token"})
	reason, ok := validation.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, validation.InvalidField, reason)
}

func TestUpdateCatalog(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	seedCatalog(t, svc)

	buyable := false
	asset, err := svc.UpdateAsset(ctx, testToken, "dfi", store.UpdateAssetParams{Buyable: &buyable})
	require.NoError(t, err)
	assert.False(t, asset.Buyable)
	assert.True(t, asset.Sellable)

	name := "EUR"
	fiat, err := svc.UpdateFiat(ctx, testToken, "1", store.UpdateFiatParams{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "EUR", fiat.Name)

	_, err = svc.FindFiat(ctx, "CHF")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordPayments(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	seedCatalog(t, svc)
	addPool(t, svc, "A1")

	buy, err := svc.CreateBuyRoute(ctx, alice, testIban, "DFI")
	require.NoError(t, err)
	sell, err := svc.CreateSellRoute(ctx, alice, testIban, "CHF")
	require.NoError(t, err)

	payment, err := svc.RecordBuyPayment(ctx, PaymentParams{
		ExternalId: "bank-1",
		Reference:  strings.ToLower(buy.BankUsage),
		FiatAmount: decimal.RequireFromString("100.50"),
	})
	require.NoError(t, err)
	assert.True(t, payment.Created)
	assert.Equal(t, buy.Id, payment.RouteId)
	assert.Equal(t, "pending", payment.Status)

	payment, err = svc.RecordBuyPayment(ctx, PaymentParams{
		ExternalId:  "bank-1",
		Reference:   buy.BankUsage,
		FiatAmount:  decimal.RequireFromString("100.50"),
		AssetAmount: decimal.RequireFromString("42"),
		Status:      "confirmed",
	})
	require.NoError(t, err)
	assert.False(t, payment.Created)
	assert.Equal(t, "confirmed", payment.Status)

	_, err = svc.RecordBuyPayment(ctx, PaymentParams{ExternalId: "bank-2", Reference: "0000-0000-0000"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	deposit, err := svc.RecordSellPayment(ctx, PaymentParams{
		ExternalId:  "chain-1",
		Reference:   sell.Deposit.Address,
		AssetAmount: decimal.RequireFromString("1.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, sell.Id, deposit.RouteId)

	_, err = svc.RecordSellPayment(ctx, PaymentParams{ExternalId: "chain-1", Reference: ""})
	reason, ok := validation.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, validation.InvalidField, reason)

	all, err := svc.ListTransactions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	doc, err := svc.Export(ctx, testToken)
	require.NoError(t, err)
	assert.Len(t, doc.Accounts, 1)
	assert.Len(t, doc.BuyRoutes, 1)
	assert.Len(t, doc.SellRoutes, 1)
	assert.Equal(t, "A1", doc.SellRoutes[0].Deposit.Address)
	assert.Len(t, doc.Transactions, 2)
}

func TestRecordPayments_RejectsInvalidParams(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params PaymentParams
		field  string
	}{
		{"missing external id", PaymentParams{Reference: "A1"}, "external_id"},
		{"blank reference", PaymentParams{ExternalId: "chain-1", Reference: "   "}, "reference"},
		{"negative fiat amount", PaymentParams{ExternalId: "chain-1", Reference: "A1", FiatAmount: decimal.RequireFromString("-0.01")}, "fiat_amount"},
		{"negative asset amount", PaymentParams{ExternalId: "chain-1", Reference: "A1", AssetAmount: decimal.NewFromInt(-3)}, "asset_amount"},
		{"forbidden status", PaymentParams{ExternalId: "chain-1", Reference: "A1", Status: "drop table"}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordSellPayment(ctx, tt.params)
			var vErr *validation.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestRecordSellPayment_IdentifiersSkipDenylist(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	seedCatalog(t, svc)

	address := "8ByFromInto1234567890abcdefghijklmn"
	addPool(t, svc, address)
	sell, err := svc.CreateSellRoute(ctx, alice, testIban, "CHF")
	require.NoError(t, err)
	require.Equal(t, address, sell.Deposit.Address)

	payment, err := svc.RecordSellPayment(ctx, PaymentParams{
		ExternalId:  "update-order-by-1",
		Reference:   address,
		AssetAmount: decimal.RequireFromString("2"),
	})
	require.NoError(t, err)
	assert.Equal(t, sell.Id, payment.RouteId)
}

func TestCatalog_TagValidation(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()
	seedCatalog(t, svc)

	_, err := svc.CreateAsset(ctx, testToken, store.CreateAssetParams{Name: "ETH"})
	var vErr *validation.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "type", vErr.Field)

	_, err = svc.CreateFiat(ctx, testToken, store.CreateFiatParams{})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)

	bad := models.AssetType("Token")
	_, err = svc.UpdateAsset(ctx, testToken, "DFI", store.UpdateAssetParams{Type: &bad})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "type", vErr.Field)

	good := models.AssetTypeDCT
	asset, err := svc.UpdateAsset(ctx, testToken, "DFI", store.UpdateAssetParams{Type: &good})
	require.NoError(t, err)
	assert.Equal(t, models.AssetTypeDCT, asset.Type)

	_, err = svc.AddDepositAddresses(ctx, testToken, []store.NewDepositAddress{{Address: "  "}})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "address", vErr.Field)
}
