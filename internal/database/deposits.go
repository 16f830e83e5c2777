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

func scanDepositAddress(row rowScanner) (*models.DepositAddress, error) {
	var d models.DepositAddress
	if err := row.Scan(&d.Id, &d.Address, &d.Used, &d.WalletId, &d.Network, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func getDepositAddress(ctx context.Context, q querier, id int64) (*models.DepositAddress, error) {
	deposit, err := scanDepositAddress(q.QueryRowContext(ctx, queryGetDepositAddress, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("deposit address %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query deposit address: %w", err)
	}
	return deposit, nil
}

// claimDepositAddress marks the oldest free address used. It must run inside
// the caller's transaction so the claim rolls back with it.
func claimDepositAddress(ctx context.Context, q querier) (*models.DepositAddress, error) {
	var id int64
	if err := q.QueryRowContext(ctx, queryClaimDepositAddress).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoAddressAvailable
		}
		return nil, fmt.Errorf("unable to claim deposit address: %w", err)
	}
	return getDepositAddress(ctx, q, id)
}

// AddDepositAddresses inserts new pool entries and skips addresses already
// present. It returns how many rows were actually added.
func (s *Service) AddDepositAddresses(ctx context.Context, addresses []store.NewDepositAddress) (int, error) {
	zap.L().Info("Adding deposit addresses", zap.Int("count", len(addresses)))

	var added int
	err := s.run(ctx, func(ctx context.Context) error {
		added = 0
		return s.withTx(ctx, func(tx *sql.Tx) error {
			for _, a := range addresses {
				result, err := tx.ExecContext(ctx, queryInsertDepositAddress, a.Address, a.WalletId, a.Network)
				if err != nil {
					return fmt.Errorf("unable to insert deposit address %s: %w", a.Address, err)
				}
				n, err := result.RowsAffected()
				if err != nil {
					return fmt.Errorf("unable to get rows affected: %w", err)
				}
				added += int(n)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	zap.L().Info("Deposit addresses added",
		zap.Int("added", added),
		zap.Int("skipped", len(addresses)-added))
	return added, nil
}

func (s *Service) GetDepositAddress(ctx context.Context, id int64) (*models.DepositAddress, error) {
	var deposit *models.DepositAddress
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		deposit, err = getDepositAddress(ctx, s.db, id)
		return err
	})
	return deposit, err
}

func (s *Service) ListDepositAddresses(ctx context.Context) ([]models.DepositAddress, error) {
	var deposits []models.DepositAddress
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, queryListDepositAddresses)
		if err != nil {
			return fmt.Errorf("unable to query deposit addresses: %w", err)
		}
		defer closeRows(rows)

		deposits = deposits[:0]
		for rows.Next() {
			deposit, err := scanDepositAddress(rows)
			if err != nil {
				return fmt.Errorf("unable to scan deposit address row: %w", err)
			}
			deposits = append(deposits, *deposit)
		}
		return rows.Err()
	})
	return deposits, err
}

// ListDepositWallets returns the distinct Prime wallet ids backing the pool
func (s *Service) ListDepositWallets(ctx context.Context) ([]string, error) {
	var wallets []string
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, queryListDepositWallets)
		if err != nil {
			return fmt.Errorf("unable to query deposit wallets: %w", err)
		}
		defer closeRows(rows)

		wallets = wallets[:0]
		for rows.Next() {
			var walletId string
			if err := rows.Scan(&walletId); err != nil {
				return fmt.Errorf("unable to scan deposit wallet row: %w", err)
			}
			wallets = append(wallets, walletId)
		}
		return rows.Err()
	})
	return wallets, err
}

func (s *Service) DepositPoolStats(ctx context.Context) (*models.PoolStats, error) {
	var stats models.PoolStats
	err := s.run(ctx, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, queryDepositPoolStats).Scan(&stats.Total, &stats.Used)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to query deposit pool stats: %w", err)
	}
	stats.Free = stats.Total - stats.Used
	return &stats, nil
}
