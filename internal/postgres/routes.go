package postgres

import (
	"context"
	"fmt"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func scanBuyRoute(row rowScanner) (*models.BuyRoute, error) {
	var r models.BuyRoute
	err := row.Scan(&r.Id, &r.Address, &r.Iban, &r.AssetId, &r.BankUsage, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanSellRoute(row rowScanner) (*models.SellRoute, error) {
	var r models.SellRoute
	err := row.Scan(&r.Id, &r.Address, &r.Iban, &r.FiatId, &r.BankUsage, &r.DepositId, &r.Active,
		&r.CreatedAt, &r.UpdatedAt, &r.DepositAddress)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) queryBuyRoute(ctx context.Context, what string, query string, args ...any) (*models.BuyRoute, error) {
	var route *models.BuyRoute
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		route, err = scanBuyRoute(s.pool.QueryRow(ctx, query, args...))
		return mapError(err, what)
	})
	return route, err
}

func getSellRoute(ctx context.Context, q querier, query string, arg any) (*models.SellRoute, error) {
	route, err := scanSellRoute(q.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("sell route %v", arg))
	}
	return route, nil
}

func (s *Store) GetBuyRoute(ctx context.Context, id string) (*models.BuyRoute, error) {
	return s.queryBuyRoute(ctx, "buy route "+id, queryGetBuyRoute, id)
}

func (s *Store) FindBuyRouteByBankUsage(ctx context.Context, bankUsage string) (*models.BuyRoute, error) {
	return s.queryBuyRoute(ctx, "buy route for bank usage "+bankUsage, queryGetBuyRouteByBankUsage, bankUsage)
}

func (s *Store) CreateBuyRoute(ctx context.Context, params store.CreateBuyRouteParams) (*models.BuyRoute, error) {
	zap.L().Info("Creating buy route", zap.String("id", params.Id), zap.Int64("asset_id", params.AssetId))
	return s.queryBuyRoute(ctx, "insert buy route "+params.Id, queryInsertBuyRoute,
		params.Id, params.Address, params.Iban, params.AssetId, params.BankUsage)
}

func (s *Store) SetBuyRouteActive(ctx context.Context, id string, active bool) (*models.BuyRoute, error) {
	zap.L().Info("Setting buy route state", zap.String("id", id), zap.Bool("active", active))
	return s.queryBuyRoute(ctx, "buy route "+id, querySetBuyRouteActive, active, id)
}

func (s *Store) ListBuyRoutes(ctx context.Context, filter store.RouteFilter) ([]models.BuyRoute, error) {
	var routes []models.BuyRoute
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, queryListBuyRoutes, filter.Address)
		if err != nil {
			return fmt.Errorf("unable to query buy routes: %w", err)
		}
		routes, err = collect(rows, scanBuyRoute)
		return err
	})
	return routes, err
}

func (s *Store) GetSellRoute(ctx context.Context, id string) (*models.SellRoute, error) {
	var route *models.SellRoute
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		route, err = getSellRoute(ctx, s.pool, queryGetSellRoute, id)
		return err
	})
	return route, err
}

func (s *Store) FindSellRouteByDepositAddress(ctx context.Context, address string) (*models.SellRoute, error) {
	var route *models.SellRoute
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		route, err = getSellRoute(ctx, s.pool, queryGetSellRouteByDepositAddress, address)
		return err
	})
	return route, err
}

// CreateSellRoute claims a deposit address and inserts the route in one
// transaction, so a failed insert hands the address back to the pool.
func (s *Store) CreateSellRoute(ctx context.Context, params store.CreateSellRouteParams) (*models.SellRoute, error) {
	zap.L().Info("Creating sell route", zap.String("id", params.Id), zap.Int64("fiat_id", params.FiatId))

	var route *models.SellRoute
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			deposit, err := claimDepositAddress(ctx, tx)
			if err != nil {
				return err
			}

			_, err = tx.Exec(ctx, queryInsertSellRoute,
				params.Id, params.Address, params.Iban, params.FiatId, params.BankUsage, deposit.Id)
			if err != nil {
				return mapError(err, "insert sell route "+params.Id)
			}

			route, err = getSellRoute(ctx, tx, queryGetSellRoute, params.Id)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Sell route created",
		zap.String("id", route.Id),
		zap.String("deposit_address", route.DepositAddress))
	return route, nil
}

func (s *Store) SetSellRouteActive(ctx context.Context, id string, active bool) (*models.SellRoute, error) {
	zap.L().Info("Setting sell route state", zap.String("id", id), zap.Bool("active", active))

	var route *models.SellRoute
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx, querySetSellRouteActive, active, id)
			if err != nil {
				return fmt.Errorf("unable to update sell route: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("sell route %s: %w", id, store.ErrNotFound)
			}
			route, err = getSellRoute(ctx, tx, queryGetSellRoute, id)
			return err
		})
	})
	return route, err
}

func (s *Store) ListSellRoutes(ctx context.Context, filter store.RouteFilter) ([]models.SellRoute, error) {
	var routes []models.SellRoute
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, queryListSellRoutes, filter.Address)
		if err != nil {
			return fmt.Errorf("unable to query sell routes: %w", err)
		}
		routes, err = collect(rows, scanSellRoute)
		return err
	})
	return routes, err
}
