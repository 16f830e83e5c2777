package store

import (
	"context"
	"errors"

	"fiat-bridge-registry-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("duplicate record")
	ErrNoAddressAvailable = errors.New("no deposit address available, contact support")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// CreateAccountParams contains the fields of a new account. The referral
// code is assigned by the store.
type CreateAccountParams struct {
	Address   string
	Signature string
	UsedRef   *int64
	Profile   models.AccountProfile
}

// UpdateAccountParams applies non-nil profile fields. ClearUsedRef wins over UsedRef.
type UpdateAccountParams struct {
	Profile      models.AccountProfile
	UsedRef      *int64
	ClearUsedRef bool
}

type CreateAssetParams struct {
	Name     string           `validate:"required"`
	Type     models.AssetType `validate:"oneof=Coin DAT DCT"`
	Buyable  bool
	Sellable bool
}

type UpdateAssetParams struct {
	Name     *string
	Type     *models.AssetType `validate:"omitempty,oneof=Coin DAT DCT"`
	Buyable  *bool
	Sellable *bool
}

type CreateFiatParams struct {
	Name   string `validate:"required"`
	Enable bool
}

type UpdateFiatParams struct {
	Name   *string
	Enable *bool
}

type CreateBuyRouteParams struct {
	Id        string
	Address   string
	Iban      string
	AssetId   int64
	BankUsage string
}

type CreateSellRouteParams struct {
	Id        string
	Address   string
	Iban      string
	FiatId    int64
	BankUsage string
}

// RouteFilter restricts route listings. An empty Address lists every route.
type RouteFilter struct {
	Address string
}

// NewDepositAddress is a pool entry to provision
type NewDepositAddress struct {
	Address  string `json:"address" yaml:"address" validate:"required"`
	WalletId string `json:"wallet_id" yaml:"wallet_id"`
	Network  string `json:"network" yaml:"network"`
}

type UpsertTransactionParams struct {
	ExternalId  string
	Direction   models.Direction
	RouteId     string
	Reference   string
	FiatAmount  decimal.Decimal
	AssetAmount decimal.Decimal
	Status      string
}

// TransactionFilter restricts transaction listings. An empty RouteId lists every transaction.
type TransactionFilter struct {
	RouteId string
}

// AccountStore persists accounts and assigns referral codes from an atomic counter.
type AccountStore interface {
	GetAccount(ctx context.Context, address string) (*models.Account, error)
	GetAccountByRef(ctx context.Context, ref int64) (*models.Account, error)
	CreateAccount(ctx context.Context, params CreateAccountParams) (*models.Account, error)
	UpdateAccount(ctx context.Context, address string, params UpdateAccountParams) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

// Catalog persists assets and fiats. Names are unique per catalog.
type Catalog interface {
	GetAssetById(ctx context.Context, id int64) (*models.Asset, error)
	GetAssetByName(ctx context.Context, name string) (*models.Asset, error)
	ListAssets(ctx context.Context) ([]models.Asset, error)
	CreateAsset(ctx context.Context, params CreateAssetParams) (*models.Asset, error)
	UpdateAsset(ctx context.Context, id int64, params UpdateAssetParams) (*models.Asset, error)

	GetFiatById(ctx context.Context, id int64) (*models.Fiat, error)
	GetFiatByName(ctx context.Context, name string) (*models.Fiat, error)
	ListFiats(ctx context.Context) ([]models.Fiat, error)
	CreateFiat(ctx context.Context, params CreateFiatParams) (*models.Fiat, error)
	UpdateFiat(ctx context.Context, id int64, params UpdateFiatParams) (*models.Fiat, error)
}

// RouteStore persists buy and sell routes. CreateSellRoute claims a deposit
// address in the same transaction that inserts the route; if the insert fails
// the claim is rolled back.
type RouteStore interface {
	GetBuyRoute(ctx context.Context, id string) (*models.BuyRoute, error)
	FindBuyRouteByBankUsage(ctx context.Context, bankUsage string) (*models.BuyRoute, error)
	CreateBuyRoute(ctx context.Context, params CreateBuyRouteParams) (*models.BuyRoute, error)
	SetBuyRouteActive(ctx context.Context, id string, active bool) (*models.BuyRoute, error)
	ListBuyRoutes(ctx context.Context, filter RouteFilter) ([]models.BuyRoute, error)

	GetSellRoute(ctx context.Context, id string) (*models.SellRoute, error)
	FindSellRouteByDepositAddress(ctx context.Context, address string) (*models.SellRoute, error)
	CreateSellRoute(ctx context.Context, params CreateSellRouteParams) (*models.SellRoute, error)
	SetSellRouteActive(ctx context.Context, id string, active bool) (*models.SellRoute, error)
	ListSellRoutes(ctx context.Context, filter RouteFilter) ([]models.SellRoute, error)
}

// DepositPool is the finite inventory of deposit addresses. Addresses are only
// claimed by SellRoutes.CreateSellRoute, in the same transaction as the route
// insert, so an address is used exactly when a route references it.
type DepositPool interface {
	AddDepositAddresses(ctx context.Context, addresses []NewDepositAddress) (int, error)
	GetDepositAddress(ctx context.Context, id int64) (*models.DepositAddress, error)
	ListDepositAddresses(ctx context.Context) ([]models.DepositAddress, error)
	ListDepositWallets(ctx context.Context) ([]string, error)
	DepositPoolStats(ctx context.Context) (*models.PoolStats, error)
}

// TransactionRecorder upserts settlement records keyed by external id.
type TransactionRecorder interface {
	UpsertTransaction(ctx context.Context, params UpsertTransactionParams) (*models.Transaction, bool, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error)
}

// Store defines the contract that every backend (SQLite, Postgres) must satisfy.
type Store interface {
	AccountStore
	Catalog
	RouteStore
	DepositPool
	TransactionRecorder

	Ping(ctx context.Context) error
	Close()
}
