package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.Id, &t.ExternalId, &t.Direction, &t.RouteId, &t.Reference,
		&t.FiatAmount, &t.AssetAmount, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func getTransaction(ctx context.Context, q querier, externalId string) (*models.Transaction, error) {
	transaction, err := scanTransaction(q.QueryRowContext(ctx, queryGetTransactionByExternalId, externalId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", externalId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query transaction: %w", err)
	}
	return transaction, nil
}

// UpsertTransaction records a settlement keyed by its external id. Replays of
// the same id update status and amounts in place; a replay that switches
// direction is rejected as a duplicate.
func (s *Service) UpsertTransaction(ctx context.Context, params store.UpsertTransactionParams) (*models.Transaction, bool, error) {
	zap.L().Info("Recording transaction",
		zap.String("external_id", params.ExternalId),
		zap.String("direction", string(params.Direction)),
		zap.String("route_id", params.RouteId),
		zap.String("status", params.Status))

	var transaction *models.Transaction
	var created bool
	err := s.run(ctx, func(ctx context.Context) error {
		created = false
		return s.withTx(ctx, func(tx *sql.Tx) error {
			existing, err := getTransaction(ctx, tx, params.ExternalId)
			switch {
			case errors.Is(err, store.ErrNotFound):
				_, err = tx.ExecContext(ctx, queryInsertTransaction,
					uuid.New().String(), params.ExternalId, params.Direction, params.RouteId, params.Reference,
					params.FiatAmount, params.AssetAmount, params.Status)
				if err != nil {
					return mapConstraintError(fmt.Errorf("unable to insert transaction: %w", err))
				}
				created = true
			case err != nil:
				return err
			case existing.Direction != params.Direction:
				return fmt.Errorf("%w: transaction %s already recorded as %s",
					store.ErrDuplicate, params.ExternalId, existing.Direction)
			default:
				_, err = tx.ExecContext(ctx, queryUpdateTransaction,
					params.RouteId, params.Reference, params.FiatAmount, params.AssetAmount, params.Status,
					params.ExternalId)
				if err != nil {
					return fmt.Errorf("unable to update transaction: %w", err)
				}
			}

			transaction, err = getTransaction(ctx, tx, params.ExternalId)
			return err
		})
	})
	if err != nil {
		return nil, false, err
	}

	zap.L().Info("Transaction recorded",
		zap.String("id", transaction.Id),
		zap.String("external_id", transaction.ExternalId),
		zap.Bool("created", created))
	return transaction, created, nil
}

func (s *Service) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, queryListTransactions, filter.RouteId, filter.RouteId)
		if err != nil {
			return fmt.Errorf("unable to query transactions: %w", err)
		}
		defer closeRows(rows)

		transactions = transactions[:0]
		for rows.Next() {
			transaction, err := scanTransaction(rows)
			if err != nil {
				return fmt.Errorf("unable to scan transaction row: %w", err)
			}
			transactions = append(transactions, *transaction)
		}
		return rows.Err()
	})
	return transactions, err
}
