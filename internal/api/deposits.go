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
	"strings"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"
	"fiat-bridge-registry-go/internal/validation"

	"go.uber.org/zap"
)

// AddDepositAddresses provisions unused addresses into the pool. Addresses
// already present are skipped; the number actually added is returned.
func (s *RegistrationService) AddDepositAddresses(ctx context.Context, token string, addresses []store.NewDepositAddress) (int, error) {
	if err := s.Authorize(token); err != nil {
		return 0, err
	}

	cleaned := make([]store.NewDepositAddress, 0, len(addresses))
	for _, a := range addresses {
		a.Address = strings.TrimSpace(a.Address)
		if err := validation.Struct(a); err != nil {
			return 0, err
		}
		cleaned = append(cleaned, a)
	}

	added, err := s.store.AddDepositAddresses(ctx, cleaned)
	if err != nil {
		return 0, err
	}
	s.refreshPoolGauge(ctx)

	logger(ctx).Info("Deposit pool provisioned",
		zap.Int("requested", len(cleaned)),
		zap.Int("added", added))
	return added, nil
}

func (s *RegistrationService) PoolStats(ctx context.Context, token string) (*models.PoolStats, error) {
	if err := s.Authorize(token); err != nil {
		return nil, err
	}
	stats, err := s.store.DepositPoolStats(ctx)
	if err != nil {
		return nil, err
	}
	depositPoolFree.Set(float64(stats.Free))
	return stats, nil
}

// DepositWallets lists the Prime wallets backing the pool, for the listener
func (s *RegistrationService) DepositWallets(ctx context.Context) ([]string, error) {
	return s.store.ListDepositWallets(ctx)
}

// RecordSellPayment records crypto received on a deposit address against the
// sell route that owns it.
func (s *RegistrationService) RecordSellPayment(ctx context.Context, params PaymentParams) (*models.TransactionView, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	route, err := s.store.FindSellRouteByDepositAddress(ctx, params.Reference)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger(ctx).Warn("Sell payment for unknown deposit address", zap.String("address", params.Reference))
		}
		return nil, err
	}
	if !route.Active {
		logger(ctx).Warn("Sell payment received on inactive route", zap.String("route_id", route.Id))
	}

	return s.record(ctx, models.DirectionSell, route.Id, params)
}

func (s *RegistrationService) refreshPoolGauge(ctx context.Context) {
	stats, err := s.store.DepositPoolStats(ctx)
	if err != nil {
		logger(ctx).Warn("Failed to refresh deposit pool gauge", zap.Error(err))
		return
	}
	depositPoolFree.Set(float64(stats.Free))
}
