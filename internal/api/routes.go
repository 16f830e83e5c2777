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

package api

import (
	"context"
	"errors"
	"fmt"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/registration"
	"fiat-bridge-registry-go/internal/store"
	"fiat-bridge-registry-go/internal/validation"

	"go.uber.org/zap"
)

// CreateBuyRoute registers a fiat to crypto route for the caller. Repeating a
// registration with the same IBAN returns the existing route.
func (s *RegistrationService) CreateBuyRoute(ctx context.Context, creds models.Credentials, iban, assetKey string) (*models.BuyRouteView, error) {
	account, err := s.resolveAccount(ctx, creds, nil)
	if err != nil {
		return nil, err
	}
	iban, err = validation.NormalizeIban(iban)
	if err != nil {
		return nil, err
	}

	asset, err := s.FindAsset(ctx, assetKey)
	if err != nil {
		return nil, err
	}
	if !asset.Buyable {
		return nil, validation.Fail(validation.AssetNotBuyable, "asset", fmt.Sprintf("asset %s is not buyable", asset.Name))
	}

	id := registration.BuyRouteId(account.Address, asset.Id)
	route, err := s.store.GetBuyRoute(ctx, id)
	switch {
	case err == nil:
		route, err = s.reuseBuyRoute(ctx, route, iban)
	case errors.Is(err, store.ErrNotFound):
		route, err = s.store.CreateBuyRoute(ctx, store.CreateBuyRouteParams{
			Id:        id,
			Address:   account.Address,
			Iban:      iban,
			AssetId:   asset.Id,
			BankUsage: registration.BankUsage(registration.DirectionDomain(s.bankUsageDomain, models.DirectionBuy), asset.Id, account.Address, iban),
		})
		if errors.Is(err, store.ErrDuplicate) {
			route, err = s.recoverBuyRoute(ctx, id, iban)
		} else if err == nil {
			routesCreated.WithLabelValues(string(models.DirectionBuy)).Inc()
			logger(ctx).Info("Buy route registered", zap.String("id", route.Id), zap.String("bank_usage", route.BankUsage))
		}
	}
	if err != nil {
		return nil, err
	}
	return buyRouteView(route, *asset), nil
}

// CreateSellRoute registers a crypto to fiat route for the caller. A new
// route claims one deposit address from the pool; a repeat never claims another.
func (s *RegistrationService) CreateSellRoute(ctx context.Context, creds models.Credentials, iban, fiatKey string) (*models.SellRouteView, error) {
	account, err := s.resolveAccount(ctx, creds, nil)
	if err != nil {
		return nil, err
	}
	iban, err = validation.NormalizeIban(iban)
	if err != nil {
		return nil, err
	}

	fiat, err := s.FindFiat(ctx, fiatKey)
	if err != nil {
		return nil, err
	}
	if !fiat.Enable {
		return nil, validation.Fail(validation.FiatNotEnabled, "fiat", fmt.Sprintf("fiat %s is not enabled", fiat.Name))
	}

	id := registration.SellRouteId(account.Address, fiat.Id)
	route, err := s.store.GetSellRoute(ctx, id)
	switch {
	case err == nil:
		route, err = s.reuseSellRoute(ctx, route, iban)
	case errors.Is(err, store.ErrNotFound):
		route, err = s.store.CreateSellRoute(ctx, store.CreateSellRouteParams{
			Id:        id,
			Address:   account.Address,
			Iban:      iban,
			FiatId:    fiat.Id,
			BankUsage: registration.BankUsage(registration.DirectionDomain(s.bankUsageDomain, models.DirectionSell), fiat.Id, account.Address, iban),
		})
		switch {
		case err == nil:
			depositClaims.WithLabelValues("claimed").Inc()
			routesCreated.WithLabelValues(string(models.DirectionSell)).Inc()
			logger(ctx).Info("Sell route registered",
				zap.String("id", route.Id),
				zap.String("deposit_address", route.DepositAddress))
		case errors.Is(err, store.ErrNoAddressAvailable):
			depositClaims.WithLabelValues("exhausted").Inc()
			logger(ctx).Error("Deposit address pool exhausted", zap.String("route_id", id))
		case errors.Is(err, store.ErrDuplicate):
			route, err = s.recoverSellRoute(ctx, id, iban)
		}
	}
	if err != nil {
		return nil, err
	}

	deposit, err := s.store.GetDepositAddress(ctx, route.DepositId)
	if err != nil {
		return nil, err
	}
	return sellRouteView(route, *fiat, *deposit), nil
}

func (s *RegistrationService) reuseBuyRoute(ctx context.Context, route *models.BuyRoute, iban string) (*models.BuyRoute, error) {
	if route.Iban != iban {
		return nil, fmt.Errorf("buy route %s: %w", route.Id, ErrRouteConflict)
	}
	if route.Active {
		return route, nil
	}
	logger(ctx).Info("Reactivating buy route", zap.String("id", route.Id))
	return s.store.SetBuyRouteActive(ctx, route.Id, true)
}

func (s *RegistrationService) reuseSellRoute(ctx context.Context, route *models.SellRoute, iban string) (*models.SellRoute, error) {
	if route.Iban != iban {
		return nil, fmt.Errorf("sell route %s: %w", route.Id, ErrRouteConflict)
	}
	if route.Active {
		return route, nil
	}
	logger(ctx).Info("Reactivating sell route", zap.String("id", route.Id))
	return s.store.SetSellRouteActive(ctx, route.Id, true)
}

// recoverBuyRoute handles an insert that lost a race or hit the IBAN
// uniqueness of another account's route.
func (s *RegistrationService) recoverBuyRoute(ctx context.Context, id, iban string) (*models.BuyRoute, error) {
	route, err := s.store.GetBuyRoute(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("buy route %s: %w", id, ErrRouteConflict)
	}
	if err != nil {
		return nil, err
	}
	return s.reuseBuyRoute(ctx, route, iban)
}

func (s *RegistrationService) recoverSellRoute(ctx context.Context, id, iban string) (*models.SellRoute, error) {
	route, err := s.store.GetSellRoute(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("sell route %s: %w", id, ErrRouteConflict)
	}
	if err != nil {
		return nil, err
	}
	return s.reuseSellRoute(ctx, route, iban)
}

func (s *RegistrationService) ListBuyRoutes(ctx context.Context, creds models.Credentials) ([]models.BuyRouteView, error) {
	account, err := s.authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	routes, err := s.store.ListBuyRoutes(ctx, store.RouteFilter{Address: account.Address})
	if err != nil {
		return nil, err
	}
	return s.buyRouteViews(ctx, routes)
}

func (s *RegistrationService) ListSellRoutes(ctx context.Context, creds models.Credentials) ([]models.SellRouteView, error) {
	account, err := s.authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	routes, err := s.store.ListSellRoutes(ctx, store.RouteFilter{Address: account.Address})
	if err != nil {
		return nil, err
	}
	return s.sellRouteViews(ctx, routes)
}

// SetBuyRouteActive toggles one of the caller's buy routes. Routes owned by
// other accounts are reported as not found.
func (s *RegistrationService) SetBuyRouteActive(ctx context.Context, creds models.Credentials, id string, active bool) (*models.BuyRouteView, error) {
	account, err := s.authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	route, err := s.store.GetBuyRoute(ctx, id)
	if err != nil {
		return nil, err
	}
	if route.Address != account.Address {
		return nil, fmt.Errorf("buy route %s: %w", id, store.ErrNotFound)
	}

	if route.Active != active {
		if route, err = s.store.SetBuyRouteActive(ctx, id, active); err != nil {
			return nil, err
		}
	}
	asset, err := s.store.GetAssetById(ctx, route.AssetId)
	if err != nil {
		return nil, err
	}
	return buyRouteView(route, *asset), nil
}

// SetSellRouteActive toggles one of the caller's sell routes. The deposit
// address stays bound to the route either way.
func (s *RegistrationService) SetSellRouteActive(ctx context.Context, creds models.Credentials, id string, active bool) (*models.SellRouteView, error) {
	account, err := s.authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	route, err := s.store.GetSellRoute(ctx, id)
	if err != nil {
		return nil, err
	}
	if route.Address != account.Address {
		return nil, fmt.Errorf("sell route %s: %w", id, store.ErrNotFound)
	}

	if route.Active != active {
		if route, err = s.store.SetSellRouteActive(ctx, id, active); err != nil {
			return nil, err
		}
	}
	views, err := s.sellRouteViews(ctx, []models.SellRoute{*route})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *RegistrationService) buyRouteViews(ctx context.Context, routes []models.BuyRoute) ([]models.BuyRouteView, error) {
	assets := make(map[int64]models.Asset)
	views := make([]models.BuyRouteView, 0, len(routes))
	for i := range routes {
		asset, ok := assets[routes[i].AssetId]
		if !ok {
			a, err := s.store.GetAssetById(ctx, routes[i].AssetId)
			if err != nil {
				return nil, err
			}
			asset = *a
			assets[asset.Id] = asset
		}
		views = append(views, *buyRouteView(&routes[i], asset))
	}
	return views, nil
}

func (s *RegistrationService) sellRouteViews(ctx context.Context, routes []models.SellRoute) ([]models.SellRouteView, error) {
	fiats := make(map[int64]models.Fiat)
	views := make([]models.SellRouteView, 0, len(routes))
	for i := range routes {
		fiat, ok := fiats[routes[i].FiatId]
		if !ok {
			f, err := s.store.GetFiatById(ctx, routes[i].FiatId)
			if err != nil {
				return nil, err
			}
			fiat = *f
			fiats[fiat.Id] = fiat
		}
		deposit, err := s.store.GetDepositAddress(ctx, routes[i].DepositId)
		if err != nil {
			return nil, err
		}
		views = append(views, *sellRouteView(&routes[i], fiat, *deposit))
	}
	return views, nil
}

func buyRouteView(r *models.BuyRoute, asset models.Asset) *models.BuyRouteView {
	return &models.BuyRouteView{
		Id:        r.Id,
		Address:   r.Address,
		Iban:      r.Iban,
		Asset:     asset,
		BankUsage: r.BankUsage,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func sellRouteView(r *models.SellRoute, fiat models.Fiat, deposit models.DepositAddress) *models.SellRouteView {
	return &models.SellRouteView{
		Id:        r.Id,
		Address:   r.Address,
		Iban:      r.Iban,
		Fiat:      fiat,
		BankUsage: r.BankUsage,
		Deposit:   deposit,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
