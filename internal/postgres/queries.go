package postgres

const schema = `
	CREATE SEQUENCE IF NOT EXISTS account_ref_seq START 1;

	CREATE TABLE IF NOT EXISTS accounts (
		address TEXT PRIMARY KEY,
		signature TEXT NOT NULL,
		ref BIGINT NOT NULL UNIQUE,
		used_ref BIGINT,
		wallet_id BIGINT,
		mail TEXT,
		firstname TEXT,
		surname TEXT,
		street TEXT,
		location TEXT,
		zip TEXT,
		phone TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS assets (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('Coin', 'DAT', 'DCT')),
		buyable BOOLEAN NOT NULL DEFAULT FALSE,
		sellable BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_assets_name ON assets (LOWER(name));

	CREATE TABLE IF NOT EXISTS fiats (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		enable BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_fiats_name ON fiats (LOWER(name));

	CREATE TABLE IF NOT EXISTS deposit_addresses (
		id BIGSERIAL PRIMARY KEY,
		address TEXT NOT NULL UNIQUE,
		used BOOLEAN NOT NULL DEFAULT FALSE,
		wallet_id TEXT NOT NULL DEFAULT '',
		network TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_deposit_addresses_free ON deposit_addresses (id) WHERE NOT used;

	CREATE TABLE IF NOT EXISTS buy_routes (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL REFERENCES accounts(address),
		iban TEXT NOT NULL,
		asset_id BIGINT NOT NULL REFERENCES assets(id),
		bank_usage TEXT NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (iban, asset_id)
	);

	CREATE INDEX IF NOT EXISTS idx_buy_routes_address ON buy_routes (address);

	CREATE TABLE IF NOT EXISTS sell_routes (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL REFERENCES accounts(address),
		iban TEXT NOT NULL,
		fiat_id BIGINT NOT NULL REFERENCES fiats(id),
		bank_usage TEXT NOT NULL UNIQUE,
		deposit_id BIGINT NOT NULL UNIQUE REFERENCES deposit_addresses(id),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (iban, fiat_id)
	);

	CREATE INDEX IF NOT EXISTS idx_sell_routes_address ON sell_routes (address);

	CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		direction TEXT NOT NULL CHECK (direction IN ('buy', 'sell')),
		route_id TEXT NOT NULL,
		reference TEXT NOT NULL,
		fiat_amount NUMERIC NOT NULL,
		asset_amount NUMERIC NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_route_id ON transactions (route_id);
	`

const (
	accountColumns = `address, signature, ref, used_ref, wallet_id, mail, firstname, surname,
		street, location, zip, phone, created_at, updated_at`

	queryInsertAccount = `
		INSERT INTO accounts (address, signature, ref, used_ref, wallet_id, mail, firstname, surname,
			street, location, zip, phone)
		VALUES ($1, $2, nextval('account_ref_seq'), $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + accountColumns

	queryGetAccount = `SELECT ` + accountColumns + ` FROM accounts WHERE address = $1`

	queryGetAccountByRef = `SELECT ` + accountColumns + ` FROM accounts WHERE ref = $1`

	queryListAccounts = `SELECT ` + accountColumns + ` FROM accounts ORDER BY ref`

	queryUpdateAccount = `
		UPDATE accounts SET
			mail = COALESCE($1, mail),
			firstname = COALESCE($2, firstname),
			surname = COALESCE($3, surname),
			street = COALESCE($4, street),
			location = COALESCE($5, location),
			zip = COALESCE($6, zip),
			phone = COALESCE($7, phone),
			wallet_id = COALESCE($8, wallet_id),
			used_ref = CASE WHEN $9::boolean THEN NULL ELSE COALESCE($10, used_ref) END,
			updated_at = NOW()
		WHERE address = $11
		RETURNING ` + accountColumns

	assetColumns = `id, name, type, buyable, sellable, created_at, updated_at`

	queryGetAssetById = `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	queryGetAssetByName = `SELECT ` + assetColumns + ` FROM assets WHERE LOWER(name) = LOWER($1)`

	queryListAssets = `SELECT ` + assetColumns + ` FROM assets ORDER BY id`

	queryInsertAsset = `
		INSERT INTO assets (name, type, buyable, sellable) VALUES ($1, $2, $3, $4)
		RETURNING ` + assetColumns

	queryUpdateAsset = `
		UPDATE assets SET
			name = COALESCE($1, name),
			type = COALESCE($2, type),
			buyable = COALESCE($3, buyable),
			sellable = COALESCE($4, sellable),
			updated_at = NOW()
		WHERE id = $5
		RETURNING ` + assetColumns

	fiatColumns = `id, name, enable, created_at, updated_at`

	queryGetFiatById = `SELECT ` + fiatColumns + ` FROM fiats WHERE id = $1`

	queryGetFiatByName = `SELECT ` + fiatColumns + ` FROM fiats WHERE LOWER(name) = LOWER($1)`

	queryListFiats = `SELECT ` + fiatColumns + ` FROM fiats ORDER BY id`

	queryInsertFiat = `INSERT INTO fiats (name, enable) VALUES ($1, $2) RETURNING ` + fiatColumns

	queryUpdateFiat = `
		UPDATE fiats SET
			name = COALESCE($1, name),
			enable = COALESCE($2, enable),
			updated_at = NOW()
		WHERE id = $3
		RETURNING ` + fiatColumns

	buyRouteColumns = `id, address, iban, asset_id, bank_usage, active, created_at, updated_at`

	queryGetBuyRoute = `SELECT ` + buyRouteColumns + ` FROM buy_routes WHERE id = $1`

	queryGetBuyRouteByBankUsage = `SELECT ` + buyRouteColumns + ` FROM buy_routes WHERE bank_usage = $1`

	queryListBuyRoutes = `
		SELECT ` + buyRouteColumns + ` FROM buy_routes
		WHERE ($1::text = '' OR address = $1)
		ORDER BY created_at, id`

	queryInsertBuyRoute = `
		INSERT INTO buy_routes (id, address, iban, asset_id, bank_usage) VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + buyRouteColumns

	querySetBuyRouteActive = `
		UPDATE buy_routes SET active = $1, updated_at = NOW() WHERE id = $2
		RETURNING ` + buyRouteColumns

	sellRouteSelect = `
		SELECT s.id, s.address, s.iban, s.fiat_id, s.bank_usage, s.deposit_id, s.active,
			s.created_at, s.updated_at, d.address
		FROM sell_routes s
		JOIN deposit_addresses d ON d.id = s.deposit_id`

	queryGetSellRoute = sellRouteSelect + ` WHERE s.id = $1`

	queryGetSellRouteByDepositAddress = sellRouteSelect + ` WHERE d.address = $1`

	queryListSellRoutes = sellRouteSelect + `
		WHERE ($1::text = '' OR s.address = $1)
		ORDER BY s.created_at, s.id`

	queryInsertSellRoute = `
		INSERT INTO sell_routes (id, address, iban, fiat_id, bank_usage, deposit_id) VALUES ($1, $2, $3, $4, $5, $6)`

	querySetSellRouteActive = `UPDATE sell_routes SET active = $1, updated_at = NOW() WHERE id = $2`

	depositColumns = `id, address, used, wallet_id, network, created_at, updated_at`

	// SKIP LOCKED lets concurrent claimers pass over rows another
	// transaction is already claiming instead of queueing behind it.
	queryClaimDepositAddress = `
		UPDATE deposit_addresses
		SET used = TRUE, updated_at = NOW()
		WHERE id = (
			SELECT id FROM deposit_addresses
			WHERE NOT used
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + depositColumns

	queryInsertDepositAddress = `
		INSERT INTO deposit_addresses (address, wallet_id, network) VALUES ($1, $2, $3)
		ON CONFLICT (address) DO NOTHING`

	queryGetDepositAddress = `SELECT ` + depositColumns + ` FROM deposit_addresses WHERE id = $1`

	queryListDepositAddresses = `SELECT ` + depositColumns + ` FROM deposit_addresses ORDER BY id`

	queryListDepositWallets = `
		SELECT DISTINCT wallet_id FROM deposit_addresses WHERE wallet_id <> '' ORDER BY wallet_id`

	queryDepositPoolStats = `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE used) FROM deposit_addresses`

	transactionColumns = `id::text, external_id, direction, route_id, reference, fiat_amount::text,
		asset_amount::text, status, created_at, updated_at`

	queryGetTransactionByExternalId = `SELECT ` + transactionColumns + ` FROM transactions WHERE external_id = $1`

	// The WHERE on the conflict branch refuses a replay that switches
	// direction; no row comes back in that case.
	queryUpsertTransaction = `
		INSERT INTO transactions (id, external_id, direction, route_id, reference, fiat_amount, asset_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8)
		ON CONFLICT (external_id) DO UPDATE SET
			route_id = EXCLUDED.route_id,
			reference = EXCLUDED.reference,
			fiat_amount = EXCLUDED.fiat_amount,
			asset_amount = EXCLUDED.asset_amount,
			status = EXCLUDED.status,
			updated_at = NOW()
		WHERE transactions.direction = EXCLUDED.direction
		RETURNING (xmax = 0) AS inserted`

	queryListTransactions = `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE ($1::text = '' OR route_id = $1)
		ORDER BY created_at, id`
)
