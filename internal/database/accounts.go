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

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.Address, &a.Signature, &a.Ref, &a.UsedRef, &a.WalletId, &a.Mail, &a.FirstName,
		&a.Surname, &a.Street, &a.Location, &a.Zip, &a.Phone, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func getAccount(ctx context.Context, q querier, query string, arg any) (*models.Account, error) {
	account, err := scanAccount(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %v: %w", arg, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query account: %w", err)
	}
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, address string) (*models.Account, error) {
	zap.L().Debug("Querying account by address", zap.String("address", address))

	var account *models.Account
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		account, err = getAccount(ctx, s.db, queryGetAccount, address)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) GetAccountByRef(ctx context.Context, ref int64) (*models.Account, error) {
	zap.L().Debug("Querying account by ref", zap.Int64("ref", ref))

	var account *models.Account
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		account, err = getAccount(ctx, s.db, queryGetAccountByRef, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// CreateAccount increments the referral counter and inserts the account in one
// immediate transaction, so concurrent creations never share a ref.
func (s *Service) CreateAccount(ctx context.Context, params store.CreateAccountParams) (*models.Account, error) {
	zap.L().Info("Creating account", zap.String("address", params.Address))

	var account *models.Account
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			var ref int64
			if err := tx.QueryRowContext(ctx, queryNextAccountRef).Scan(&ref); err != nil {
				return fmt.Errorf("unable to assign referral code: %w", err)
			}

			p := params.Profile
			_, err := tx.ExecContext(ctx, queryInsertAccount,
				params.Address, params.Signature, ref, params.UsedRef, p.WalletId,
				p.Mail, p.FirstName, p.Surname, p.Street, p.Location, p.Zip, p.Phone)
			if err != nil {
				return mapConstraintError(fmt.Errorf("unable to insert account: %w", err))
			}

			account, err = getAccount(ctx, tx, queryGetAccount, params.Address)
			return err
		})
	})
	if err != nil {
		zap.L().Warn("Failed to create account", zap.String("address", params.Address), zap.Error(err))
		return nil, err
	}

	zap.L().Info("Account created",
		zap.String("address", account.Address),
		zap.Int64("ref", account.Ref))
	return account, nil
}

func (s *Service) UpdateAccount(ctx context.Context, address string, params store.UpdateAccountParams) (*models.Account, error) {
	zap.L().Info("Updating account", zap.String("address", address))

	var account *models.Account
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			p := params.Profile
			result, err := tx.ExecContext(ctx, queryUpdateAccount,
				p.Mail, p.FirstName, p.Surname, p.Street, p.Location, p.Zip, p.Phone, p.WalletId,
				params.ClearUsedRef, params.UsedRef, address)
			if err != nil {
				return fmt.Errorf("unable to update account: %w", err)
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("unable to get rows affected: %w", err)
			}
			if rowsAffected == 0 {
				return fmt.Errorf("account %s: %w", address, store.ErrNotFound)
			}

			account, err = getAccount(ctx, tx, queryGetAccount, address)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	zap.L().Debug("Listing accounts")

	var accounts []models.Account
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, queryListAccounts)
		if err != nil {
			return fmt.Errorf("unable to query accounts: %w", err)
		}
		defer closeRows(rows)

		accounts = accounts[:0]
		for rows.Next() {
			account, err := scanAccount(rows)
			if err != nil {
				return fmt.Errorf("unable to scan account row: %w", err)
			}
			accounts = append(accounts, *account)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Retrieved accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}
