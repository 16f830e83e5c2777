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

func getBuyRoute(ctx context.Context, q querier, query string, arg any) (*models.BuyRoute, error) {
	route, err := scanBuyRoute(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("buy route %v: %w", arg, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query buy route: %w", err)
	}
	return route, nil
}

func getSellRoute(ctx context.Context, q querier, query string, arg any) (*models.SellRoute, error) {
	route, err := scanSellRoute(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sell route %v: %w", arg, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query sell route: %w", err)
	}
	return route, nil
}

func (s *Service) GetBuyRoute(ctx context.Context, id string) (*models.BuyRoute, error) {
	var route *models.BuyRoute
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		route, err = getBuyRoute(ctx, s.db, queryGetBuyRoute, id)
		return err
	})
	return route, err
}

func (s *Service) FindBuyRouteByBankUsage(ctx context.Context, bankUsage string) (*models.BuyRoute, error) {
	var route *models.BuyRoute
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		route, err = getBuyRoute(ctx, s.db, queryGetBuyRouteByBankUsage, bankUsage)
		return err
	})
	return route, err
}

func (s *Service) CreateBuyRoute(ctx context.Context, params store.CreateBuyRouteParams) (*models.BuyRoute, error) {
	zap.L().Info("Creating buy route",
		zap.String("id", params.Id),
		zap.Int64("asset_id", params.AssetId))

	var route *models.BuyRoute
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, queryInsertBuyRoute,
				params.Id, params.Address, params.Iban, params.AssetId, params.BankUsage)
			if err != nil {
				return mapConstraintError(fmt.Errorf("unable to insert buy route: %w", err))
			}
			route, err = getBuyRoute(ctx, tx, queryGetBuyRoute, params.Id)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Buy route created", zap.String("id", route.Id), zap.String("bank_usage", route.BankUsage))
	return route, nil
}

func (s *Service) SetBuyRouteActive(ctx context.Context, id string, active bool) (*models.BuyRoute, error) {
	zap.L().Info("Setting buy route state", zap.String("id", id), zap.Bool("active", active))

	var route *models.BuyRoute
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			if err := expectOneRow(tx.ExecContext(ctx, querySetBuyRouteActive, active, id)); err != nil {
				return fmt.Errorf("buy route %s: %w", id, err)
			}
			var err error
			route, err = getBuyRoute(ctx, tx, queryGetBuyRoute, id)
			return err
		})
	})
	return route, err
}

func (s *Service) ListBuyRoutes(ctx context.Context, filter store.RouteFilter) ([]models.BuyRoute, error) {
	var routes []models.BuyRoute
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, queryListBuyRoutes, filter.Address, filter.Address)
		if err != nil {
			return fmt.Errorf("unable to query buy routes: %w", err)
		}
		defer closeRows(rows)

		routes = routes[:0]
		for rows.Next() {
			route, err := scanBuyRoute(rows)
			if err != nil {
				return fmt.Errorf("unable to scan buy route row: %w", err)
			}
			routes = append(routes, *route)
		}
		return rows.Err()
	})
	return routes, err
}

func (s *Service) GetSellRoute(ctx context.Context, id string) (*models.SellRoute, error) {
	var route *models.SellRoute
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		route, err = getSellRoute(ctx, s.db, queryGetSellRoute, id)
		return err
	})
	return route, err
}

func (s *Service) FindSellRouteByDepositAddress(ctx context.Context, address string) (*models.SellRoute, error) {
	var route *models.SellRoute
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		route, err = getSellRoute(ctx, s.db, queryGetSellRouteByDepositAddress, address)
		return err
	})
	return route, err
}

// CreateSellRoute claims the oldest free deposit address and inserts the route
// in one transaction. A failed insert rolls the claim back.
func (s *Service) CreateSellRoute(ctx context.Context, params store.CreateSellRouteParams) (*models.SellRoute, error) {
	zap.L().Info("Creating sell route",
		zap.String("id", params.Id),
		zap.Int64("fiat_id", params.FiatId))

	var route *models.SellRoute
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			deposit, err := claimDepositAddress(ctx, tx)
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, queryInsertSellRoute,
				params.Id, params.Address, params.Iban, params.FiatId, params.BankUsage, deposit.Id)
			if err != nil {
				return mapConstraintError(fmt.Errorf("unable to insert sell route: %w", err))
			}

			route, err = getSellRoute(ctx, tx, queryGetSellRoute, params.Id)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrNoAddressAvailable) {
			zap.L().Warn("Deposit address pool exhausted", zap.String("id", params.Id))
		}
		return nil, err
	}

	zap.L().Info("Sell route created",
		zap.String("id", route.Id),
		zap.Int64("deposit_id", route.DepositId),
		zap.String("deposit_address", route.DepositAddress))
	return route, nil
}

func (s *Service) SetSellRouteActive(ctx context.Context, id string, active bool) (*models.SellRoute, error) {
	zap.L().Info("Setting sell route state", zap.String("id", id), zap.Bool("active", active))

	var route *models.SellRoute
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			if err := expectOneRow(tx.ExecContext(ctx, querySetSellRouteActive, active, id)); err != nil {
				return fmt.Errorf("sell route %s: %w", id, err)
			}
			var err error
			route, err = getSellRoute(ctx, tx, queryGetSellRoute, id)
			return err
		})
	})
	return route, err
}

func (s *Service) ListSellRoutes(ctx context.Context, filter store.RouteFilter) ([]models.SellRoute, error) {
	var routes []models.SellRoute
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, queryListSellRoutes, filter.Address, filter.Address)
		if err != nil {
			return fmt.Errorf("unable to query sell routes: %w", err)
		}
		defer closeRows(rows)

		routes = routes[:0]
		for rows.Next() {
			route, err := scanSellRoute(rows)
			if err != nil {
				return fmt.Errorf("unable to scan sell route row: %w", err)
			}
			routes = append(routes, *route)
		}
		return rows.Err()
	})
	return routes, err
}

// expectOneRow turns a zero-row update into store.ErrNotFound
func expectOneRow(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
