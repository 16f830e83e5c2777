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

package database

const schema = `
	-- Named counters; account_ref backs referral code assignment
	CREATE TABLE IF NOT EXISTS sequences (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO sequences (name, value) VALUES ('account_ref', 0);

	CREATE TABLE IF NOT EXISTS accounts (
		address TEXT PRIMARY KEY,
		signature TEXT NOT NULL,
		ref INTEGER NOT NULL UNIQUE,
		used_ref INTEGER,
		wallet_id INTEGER,
		mail TEXT,
		firstname TEXT,
		surname TEXT,
		street TEXT,
		location TEXT,
		zip TEXT,
		phone TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		type TEXT NOT NULL CHECK (type IN ('Coin', 'DAT', 'DCT')),
		buyable BOOLEAN NOT NULL DEFAULT 0,
		sellable BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS fiats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		enable BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS deposit_addresses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		address TEXT NOT NULL UNIQUE,
		used BOOLEAN NOT NULL DEFAULT 0,
		wallet_id TEXT NOT NULL DEFAULT '',
		network TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_deposit_addresses_used ON deposit_addresses(used, id);

	CREATE TABLE IF NOT EXISTS buy_routes (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL REFERENCES accounts(address),
		iban TEXT NOT NULL,
		asset_id INTEGER NOT NULL REFERENCES assets(id),
		bank_usage TEXT NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (iban, asset_id)
	);

	CREATE INDEX IF NOT EXISTS idx_buy_routes_address ON buy_routes(address);

	CREATE TABLE IF NOT EXISTS sell_routes (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL REFERENCES accounts(address),
		iban TEXT NOT NULL,
		fiat_id INTEGER NOT NULL REFERENCES fiats(id),
		bank_usage TEXT NOT NULL UNIQUE,
		deposit_id INTEGER NOT NULL UNIQUE REFERENCES deposit_addresses(id),
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (iban, fiat_id)
	);

	CREATE INDEX IF NOT EXISTS idx_sell_routes_address ON sell_routes(address);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		direction TEXT NOT NULL CHECK (direction IN ('buy', 'sell')),
		route_id TEXT NOT NULL,
		reference TEXT NOT NULL,
		fiat_amount TEXT NOT NULL,
		asset_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_route_id ON transactions(route_id);
	`

const (
	// Account queries
	accountColumns = `address, signature, ref, used_ref, wallet_id, mail, firstname, surname,
		street, location, zip, phone, created_at, updated_at`

	queryNextAccountRef = `
		UPDATE sequences SET value = value + 1 WHERE name = 'account_ref' RETURNING value`

	queryInsertAccount = `
		INSERT INTO accounts (address, signature, ref, used_ref, wallet_id, mail, firstname, surname,
			street, location, zip, phone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetAccount = `SELECT ` + accountColumns + ` FROM accounts WHERE address = ?`

	queryGetAccountByRef = `SELECT ` + accountColumns + ` FROM accounts WHERE ref = ?`

	queryListAccounts = `SELECT ` + accountColumns + ` FROM accounts ORDER BY ref`

	queryUpdateAccount = `
		UPDATE accounts SET
			mail = COALESCE(?, mail),
			firstname = COALESCE(?, firstname),
			surname = COALESCE(?, surname),
			street = COALESCE(?, street),
			location = COALESCE(?, location),
			zip = COALESCE(?, zip),
			phone = COALESCE(?, phone),
			wallet_id = COALESCE(?, wallet_id),
			used_ref = CASE WHEN ? THEN NULL ELSE COALESCE(?, used_ref) END,
			updated_at = CURRENT_TIMESTAMP
		WHERE address = ?`

	// Catalog queries
	assetColumns = `id, name, type, buyable, sellable, created_at, updated_at`

	queryGetAssetById = `SELECT ` + assetColumns + ` FROM assets WHERE id = ?`

	queryGetAssetByName = `SELECT ` + assetColumns + ` FROM assets WHERE name = ?`

	queryListAssets = `SELECT ` + assetColumns + ` FROM assets ORDER BY id`

	queryInsertAsset = `
		INSERT INTO assets (name, type, buyable, sellable) VALUES (?, ?, ?, ?) RETURNING id`

	queryUpdateAsset = `
		UPDATE assets SET
			name = COALESCE(?, name),
			type = COALESCE(?, type),
			buyable = COALESCE(?, buyable),
			sellable = COALESCE(?, sellable),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	fiatColumns = `id, name, enable, created_at, updated_at`

	queryGetFiatById = `SELECT ` + fiatColumns + ` FROM fiats WHERE id = ?`

	queryGetFiatByName = `SELECT ` + fiatColumns + ` FROM fiats WHERE name = ?`

	queryListFiats = `SELECT ` + fiatColumns + ` FROM fiats ORDER BY id`

	queryInsertFiat = `INSERT INTO fiats (name, enable) VALUES (?, ?) RETURNING id`

	queryUpdateFiat = `
		UPDATE fiats SET
			name = COALESCE(?, name),
			enable = COALESCE(?, enable),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	// Route queries
	buyRouteColumns = `id, address, iban, asset_id, bank_usage, active, created_at, updated_at`

	queryGetBuyRoute = `SELECT ` + buyRouteColumns + ` FROM buy_routes WHERE id = ?`

	queryGetBuyRouteByBankUsage = `SELECT ` + buyRouteColumns + ` FROM buy_routes WHERE bank_usage = ?`

	queryListBuyRoutes = `
		SELECT ` + buyRouteColumns + ` FROM buy_routes
		WHERE (? = '' OR address = ?)
		ORDER BY created_at, id`

	queryInsertBuyRoute = `
		INSERT INTO buy_routes (id, address, iban, asset_id, bank_usage) VALUES (?, ?, ?, ?, ?)`

	querySetBuyRouteActive = `
		UPDATE buy_routes SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	sellRouteSelect = `
		SELECT s.id, s.address, s.iban, s.fiat_id, s.bank_usage, s.deposit_id, s.active,
			s.created_at, s.updated_at, d.address
		FROM sell_routes s
		JOIN deposit_addresses d ON d.id = s.deposit_id`

	queryGetSellRoute = sellRouteSelect + ` WHERE s.id = ?`

	queryGetSellRouteByDepositAddress = sellRouteSelect + ` WHERE d.address = ?`

	queryListSellRoutes = sellRouteSelect + `
		WHERE (? = '' OR s.address = ?)
		ORDER BY s.created_at, s.id`

	queryInsertSellRoute = `
		INSERT INTO sell_routes (id, address, iban, fiat_id, bank_usage, deposit_id) VALUES (?, ?, ?, ?, ?, ?)`

	querySetSellRouteActive = `
		UPDATE sell_routes SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	// Deposit pool queries
	depositColumns = `id, address, used, wallet_id, network, created_at, updated_at`

	// Single conditional update: the subquery picks the oldest free row and the
	// used = 0 guard makes the claim a compare-and-swap.
	queryClaimDepositAddress = `
		UPDATE deposit_addresses
		SET used = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = (SELECT id FROM deposit_addresses WHERE used = 0 ORDER BY id LIMIT 1)
		  AND used = 0
		RETURNING id`

	queryInsertDepositAddress = `
		INSERT OR IGNORE INTO deposit_addresses (address, wallet_id, network) VALUES (?, ?, ?)`

	queryGetDepositAddress = `SELECT ` + depositColumns + ` FROM deposit_addresses WHERE id = ?`

	queryListDepositAddresses = `SELECT ` + depositColumns + ` FROM deposit_addresses ORDER BY id`

	queryListDepositWallets = `
		SELECT DISTINCT wallet_id FROM deposit_addresses WHERE wallet_id != '' ORDER BY wallet_id`

	queryDepositPoolStats = `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN used THEN 1 ELSE 0 END), 0) FROM deposit_addresses`

	// Transaction queries
	transactionColumns = `id, external_id, direction, route_id, reference, fiat_amount, asset_amount,
		status, created_at, updated_at`

	queryGetTransactionByExternalId = `SELECT ` + transactionColumns + ` FROM transactions WHERE external_id = ?`

	queryInsertTransaction = `
		INSERT INTO transactions (id, external_id, direction, route_id, reference, fiat_amount, asset_amount, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdateTransaction = `
		UPDATE transactions SET
			route_id = ?,
			reference = ?,
			fiat_amount = ?,
			asset_amount = ?,
			status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE external_id = ?`

	queryListTransactions = `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE (? = '' OR route_id = ?)
		ORDER BY created_at, id`
)
