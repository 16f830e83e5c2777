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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credentials identify the caller of every account-scoped operation
type Credentials struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
}

// AccountView is the external representation of an account; refs use the XXX-XXXX display form
type AccountView struct {
	Address   string    `json:"address"`
	Ref       string    `json:"ref"`
	UsedRef   *string   `json:"used_ref"`
	WalletId  *int64    `json:"wallet_id"`
	Mail      *string   `json:"mail"`
	FirstName *string   `json:"firstname"`
	Surname   *string   `json:"surname"`
	Street    *string   `json:"street"`
	Location  *string   `json:"location"`
	Zip       *string   `json:"zip"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BuyRouteView is the external representation of a fiat to crypto registration
type BuyRouteView struct {
	Id        string    `json:"id"`
	Address   string    `json:"address"`
	Iban      string    `json:"iban"`
	Asset     Asset     `json:"asset"`
	BankUsage string    `json:"bank_usage"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SellRouteView is the external representation of a crypto to fiat registration
type SellRouteView struct {
	Id        string         `json:"id"`
	Address   string         `json:"address"`
	Iban      string         `json:"iban"`
	Fiat      Fiat           `json:"fiat"`
	BankUsage string         `json:"bank_usage"`
	Deposit   DepositAddress `json:"deposit"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TransactionView is the external representation of a settlement record
type TransactionView struct {
	Id          string          `json:"id"`
	ExternalId  string          `json:"external_id"`
	Direction   Direction       `json:"direction"`
	RouteId     string          `json:"route_id"`
	Reference   string          `json:"reference"`
	FiatAmount  decimal.Decimal `json:"fiat_amount"`
	AssetAmount decimal.Decimal `json:"asset_amount"`
	Status      string          `json:"status"`
	Created     bool            `json:"created"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExportDocument is the admin bulk export
type ExportDocument struct {
	GeneratedAt      time.Time         `json:"generated_at"`
	Accounts         []AccountView     `json:"accounts"`
	Assets           []Asset           `json:"assets"`
	Fiats            []Fiat            `json:"fiats"`
	BuyRoutes        []BuyRouteView    `json:"buy_routes"`
	SellRoutes       []SellRouteView   `json:"sell_routes"`
	DepositAddresses []DepositAddress  `json:"deposit_addresses"`
	Transactions     []TransactionView `json:"transactions"`
}
