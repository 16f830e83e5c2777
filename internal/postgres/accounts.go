package postgres

import (
	"context"
	"fmt"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"github.com/jackc/pgx/v5"
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

// collect drains rows through scan, closing them when done
func collect[T any](rows pgx.Rows, scan func(rowScanner) (*T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}

func (s *Store) GetAccount(ctx context.Context, address string) (*models.Account, error) {
	var account *models.Account
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		account, err = scanAccount(s.pool.QueryRow(ctx, queryGetAccount, address))
		return mapError(err, "account "+address)
	})
	return account, err
}

func (s *Store) GetAccountByRef(ctx context.Context, ref int64) (*models.Account, error) {
	var account *models.Account
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		account, err = scanAccount(s.pool.QueryRow(ctx, queryGetAccountByRef, ref))
		return mapError(err, fmt.Sprintf("account ref %d", ref))
	})
	return account, err
}

func (s *Store) CreateAccount(ctx context.Context, params store.CreateAccountParams) (*models.Account, error) {
	zap.L().Info("Creating account", zap.String("address", params.Address))

	p := params.Profile
	var account *models.Account
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		account, err = scanAccount(s.pool.QueryRow(ctx, queryInsertAccount,
			params.Address, params.Signature, params.UsedRef, p.WalletId,
			p.Mail, p.FirstName, p.Surname, p.Street, p.Location, p.Zip, p.Phone))
		return mapError(err, "insert account "+params.Address)
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Account created", zap.String("address", account.Address), zap.Int64("ref", account.Ref))
	return account, nil
}

func (s *Store) UpdateAccount(ctx context.Context, address string, params store.UpdateAccountParams) (*models.Account, error) {
	zap.L().Info("Updating account", zap.String("address", address))

	p := params.Profile
	var account *models.Account
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		account, err = scanAccount(s.pool.QueryRow(ctx, queryUpdateAccount,
			p.Mail, p.FirstName, p.Surname, p.Street, p.Location, p.Zip, p.Phone, p.WalletId,
			params.ClearUsedRef, params.UsedRef, address))
		return mapError(err, "account "+address)
	})
	return account, err
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, queryListAccounts)
		if err != nil {
			return fmt.Errorf("unable to query accounts: %w", err)
		}
		accounts, err = collect(rows, scanAccount)
		return err
	})
	return accounts, err
}
