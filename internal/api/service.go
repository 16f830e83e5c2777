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
	"fiat-bridge-registry-go/internal/store"

	"go.uber.org/zap"
)

var (
	// ErrUnauthorized is returned for admin calls without a valid token
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCredentialMismatch is returned when an address is registered with another signature
	ErrCredentialMismatch = errors.New("signature does not match registered address")
	// ErrRouteConflict is returned when a route id is re-registered with a different IBAN
	ErrRouteConflict = errors.New("route already registered with a different iban")
)

type Options struct {
	BankUsageDomain  string
	AdminToken       string
	AdminTokenSha256 string
}

// RegistrationService resolves accounts, registers buy and sell routes and
// records settlements on top of a store backend.
type RegistrationService struct {
	store           store.Store
	bankUsageDomain string
	admin           adminToken
}

func NewRegistrationService(s store.Store, opts Options) (*RegistrationService, error) {
	if opts.BankUsageDomain == "" {
		return nil, fmt.Errorf("bank usage domain cannot be empty")
	}

	admin, err := newAdminToken(opts.AdminToken, opts.AdminTokenSha256)
	if err != nil {
		return nil, err
	}
	if !admin.configured {
		zap.L().Warn("No admin token configured, admin operations are disabled")
	}

	return &RegistrationService{
		store:           s,
		bankUsageDomain: opts.BankUsageDomain,
		admin:           admin,
	}, nil
}

func (s *RegistrationService) HealthCheck(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// logger returns the global logger tagged with the request id, if any
func logger(ctx context.Context) *zap.Logger {
	if id := models.RequestIdFromContext(ctx); id != "" {
		return zap.L().With(zap.String("request_id", id))
	}
	return zap.L()
}
