package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is keyed by its blockchain address. Address and signature never change.
type Account struct {
	Address   string    `db:"address"`
	Signature string    `db:"signature"`
	Ref       int64     `db:"ref"`
	UsedRef   *int64    `db:"used_ref"`
	WalletId  *int64    `db:"wallet_id"`
	Mail      *string   `db:"mail"`
	FirstName *string   `db:"firstname"`
	Surname   *string   `db:"surname"`
	Street    *string   `db:"street"`
	Location  *string   `db:"location"`
	Zip       *string   `db:"zip"`
	Phone     *string   `db:"phone"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AccountProfile carries optional profile updates; nil fields are left untouched.
type AccountProfile struct {
	Mail      *string `json:"mail,omitempty"`
	FirstName *string `json:"firstname,omitempty"`
	Surname   *string `json:"surname,omitempty"`
	Street    *string `json:"street,omitempty"`
	Location  *string `json:"location,omitempty"`
	Zip       *string `json:"zip,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	WalletId  *int64  `json:"wallet_id,omitempty"`
	UsedRef   *string `json:"used_ref,omitempty"`
}

// IsEmpty reports whether the profile carries no updates
func (p *AccountProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Mail == nil && p.FirstName == nil && p.Surname == nil && p.Street == nil &&
		p.Location == nil && p.Zip == nil && p.Phone == nil && p.WalletId == nil && p.UsedRef == nil
}

type AssetType string

const (
	AssetTypeCoin AssetType = "Coin"
	AssetTypeDAT  AssetType = "DAT"
	AssetTypeDCT  AssetType = "DCT"
)

// Valid reports whether t is a known asset type
func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeCoin, AssetTypeDAT, AssetTypeDCT:
		return true
	}
	return false
}

// Asset is a tradeable token in the catalog
type Asset struct {
	Id        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      AssetType `db:"type" json:"type"`
	Buyable   bool      `db:"buyable" json:"buyable"`
	Sellable  bool      `db:"sellable" json:"sellable"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Fiat is a bank currency in the catalog
type Fiat struct {
	Id        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Enable    bool      `db:"enable" json:"enable"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BuyRoute is a fiat to crypto registration
type BuyRoute struct {
	Id        string    `db:"id"`
	Address   string    `db:"address"`
	Iban      string    `db:"iban"`
	AssetId   int64     `db:"asset_id"`
	BankUsage string    `db:"bank_usage"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SellRoute is a crypto to fiat registration holding one deposit address
type SellRoute struct {
	Id        string    `db:"id"`
	Address   string    `db:"address"`
	Iban      string    `db:"iban"`
	FiatId    int64     `db:"fiat_id"`
	BankUsage string    `db:"bank_usage"`
	DepositId int64     `db:"deposit_id"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// Populated by lookups that join the deposit pool
	DepositAddress string `db:"deposit_address"`
}

// DepositAddress is a pool entry. Used flips to true exactly once.
type DepositAddress struct {
	Id        int64     `db:"id" json:"id"`
	Address   string    `db:"address" json:"address"`
	Used      bool      `db:"used" json:"used"`
	WalletId  string    `db:"wallet_id" json:"wallet_id,omitempty"`
	Network   string    `db:"network" json:"network,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PoolStats summarizes the deposit address pool
type PoolStats struct {
	Total int64 `json:"total"`
	Used  int64 `json:"used"`
	Free  int64 `json:"free"`
}

type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Transaction is a settlement record matched to a route
type Transaction struct {
	Id          string          `db:"id"`
	ExternalId  string          `db:"external_id"`
	Direction   Direction       `db:"direction"`
	RouteId     string          `db:"route_id"`
	Reference   string          `db:"reference"`
	FiatAmount  decimal.Decimal `db:"fiat_amount"`
	AssetAmount decimal.Decimal `db:"asset_amount"`
	Status      string          `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
