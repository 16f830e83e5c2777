package postgres

import (
	"context"
	"errors"
	"fmt"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanDepositAddress(row rowScanner) (*models.DepositAddress, error) {
	var d models.DepositAddress
	if err := row.Scan(&d.Id, &d.Address, &d.Used, &d.WalletId, &d.Network, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func claimDepositAddress(ctx context.Context, q querier) (*models.DepositAddress, error) {
	deposit, err := scanDepositAddress(q.QueryRow(ctx, queryClaimDepositAddress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNoAddressAvailable
		}
		return nil, fmt.Errorf("unable to claim deposit address: %w", err)
	}
	return deposit, nil
}

func (s *Store) AddDepositAddresses(ctx context.Context, addresses []store.NewDepositAddress) (int, error) {
	zap.L().Info("Adding deposit addresses", zap.Int("count", len(addresses)))

	var added int
	err := s.run(ctx, func(ctx context.Context) error {
		added = 0
		return s.withTx(ctx, func(tx pgx.Tx) error {
			batch := &pgx.Batch{}
			for _, a := range addresses {
				batch.Queue(queryInsertDepositAddress, a.Address, a.WalletId, a.Network)
			}
			results := tx.SendBatch(ctx, batch)
			for _, a := range addresses {
				tag, err := results.Exec()
				if err != nil {
					_ = results.Close()
					return fmt.Errorf("unable to insert deposit address %s: %w", a.Address, err)
				}
				added += int(tag.RowsAffected())
			}
			return results.Close()
		})
	})
	if err != nil {
		return 0, err
	}

	zap.L().Info("Deposit addresses added", zap.Int("added", added), zap.Int("skipped", len(addresses)-added))
	return added, nil
}

func (s *Store) GetDepositAddress(ctx context.Context, id int64) (*models.DepositAddress, error) {
	var deposit *models.DepositAddress
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		deposit, err = scanDepositAddress(s.pool.QueryRow(ctx, queryGetDepositAddress, id))
		return mapError(err, fmt.Sprintf("deposit address %d", id))
	})
	return deposit, err
}

func (s *Store) ListDepositAddresses(ctx context.Context) ([]models.DepositAddress, error) {
	var deposits []models.DepositAddress
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, queryListDepositAddresses)
		if err != nil {
			return fmt.Errorf("unable to query deposit addresses: %w", err)
		}
		deposits, err = collect(rows, scanDepositAddress)
		return err
	})
	return deposits, err
}

func (s *Store) ListDepositWallets(ctx context.Context) ([]string, error) {
	var wallets []string
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, queryListDepositWallets)
		if err != nil {
			return fmt.Errorf("unable to query deposit wallets: %w", err)
		}
		wallets, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	return wallets, err
}

func (s *Store) DepositPoolStats(ctx context.Context) (*models.PoolStats, error) {
	var stats models.PoolStats
	err := s.run(ctx, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, queryDepositPoolStats).Scan(&stats.Total, &stats.Used)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to query deposit pool stats: %w", err)
	}
	stats.Free = stats.Total - stats.Used
	return &stats, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var fiatAmount, assetAmount string
	err := row.Scan(&t.Id, &t.ExternalId, &t.Direction, &t.RouteId, &t.Reference,
		&fiatAmount, &assetAmount, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.FiatAmount, err = decimal.NewFromString(fiatAmount); err != nil {
		return nil, fmt.Errorf("failed to parse fiat amount '%s': %w", fiatAmount, err)
	}
	if t.AssetAmount, err = decimal.NewFromString(assetAmount); err != nil {
		return nil, fmt.Errorf("failed to parse asset amount '%s': %w", assetAmount, err)
	}
	return &t, nil
}

func (s *Store) UpsertTransaction(ctx context.Context, params store.UpsertTransactionParams) (*models.Transaction, bool, error) {
	zap.L().Info("Recording transaction",
		zap.String("external_id", params.ExternalId),
		zap.String("direction", string(params.Direction)),
		zap.String("status", params.Status))

	var transaction *models.Transaction
	var created bool
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			err := tx.QueryRow(ctx, queryUpsertTransaction,
				uuid.New().String(), params.ExternalId, string(params.Direction), params.RouteId, params.Reference,
				params.FiatAmount.String(), params.AssetAmount.String(), params.Status).Scan(&created)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: transaction %s already recorded with another direction",
					store.ErrDuplicate, params.ExternalId)
			}
			if err != nil {
				return mapError(err, "upsert transaction "+params.ExternalId)
			}

			transaction, err = scanTransaction(tx.QueryRow(ctx, queryGetTransactionByExternalId, params.ExternalId))
			return mapError(err, "transaction "+params.ExternalId)
		})
	})
	if err != nil {
		return nil, false, err
	}

	zap.L().Info("Transaction recorded",
		zap.String("id", transaction.Id),
		zap.Bool("created", created))
	return transaction, created, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, queryListTransactions, filter.RouteId)
		if err != nil {
			return fmt.Errorf("unable to query transactions: %w", err)
		}
		transactions, err = collect(rows, scanTransaction)
		return err
	})
	return transactions, err
}
