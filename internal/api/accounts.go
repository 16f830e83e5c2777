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
	"crypto/subtle"
	"errors"
	"fmt"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/registration"
	"fiat-bridge-registry-go/internal/store"
	"fiat-bridge-registry-go/internal/validation"

	"go.uber.org/zap"
)

// ResolveAccount returns the account for creds, creating it on first contact.
// Non-nil profile fields are applied to existing accounts.
func (s *RegistrationService) ResolveAccount(ctx context.Context, creds models.Credentials, profile *models.AccountProfile) (*models.AccountView, error) {
	account, err := s.resolveAccount(ctx, creds, profile)
	if err != nil {
		return nil, err
	}
	return accountView(account), nil
}

// GetAccount is the strict lookup: unknown addresses are not created.
func (s *RegistrationService) GetAccount(ctx context.Context, creds models.Credentials) (*models.AccountView, error) {
	account, err := s.authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	return accountView(account), nil
}

// UpdateProfile applies profile changes to an existing account
func (s *RegistrationService) UpdateProfile(ctx context.Context, creds models.Credentials, profile models.AccountProfile) (*models.AccountView, error) {
	if err := validateProfile(&profile); err != nil {
		return nil, err
	}

	account, err := s.authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	account, err = s.applyProfile(ctx, account, &profile)
	if err != nil {
		return nil, err
	}
	return accountView(account), nil
}

// authenticate validates creds and loads the matching account
func (s *RegistrationService) authenticate(ctx context.Context, creds models.Credentials) (*models.Account, error) {
	if err := validation.ValidateCredentials(creds.Address, creds.Signature); err != nil {
		return nil, err
	}

	account, err := s.store.GetAccount(ctx, creds.Address)
	if err != nil {
		return nil, err
	}
	if err := checkSignature(account, creds); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *RegistrationService) resolveAccount(ctx context.Context, creds models.Credentials, profile *models.AccountProfile) (*models.Account, error) {
	if err := validation.ValidateCredentials(creds.Address, creds.Signature); err != nil {
		return nil, err
	}
	if err := validateProfile(profile); err != nil {
		return nil, err
	}

	account, err := s.store.GetAccount(ctx, creds.Address)
	switch {
	case err == nil:
		if err := checkSignature(account, creds); err != nil {
			return nil, err
		}
		return s.applyProfile(ctx, account, profile)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	params := store.CreateAccountParams{Address: creds.Address, Signature: creds.Signature}
	if profile != nil {
		params.Profile = *profile
		params.Profile.UsedRef = nil
		if params.UsedRef, err = s.lookupUsedRef(ctx, profile.UsedRef, 0); err != nil {
			return nil, err
		}
	}

	account, err = s.store.CreateAccount(ctx, params)
	if errors.Is(err, store.ErrDuplicate) {
		// Another request created the account first
		logger(ctx).Info("Account created concurrently, reloading", zap.String("address", creds.Address))
		account, err = s.store.GetAccount(ctx, creds.Address)
		if err != nil {
			return nil, err
		}
		if err := checkSignature(account, creds); err != nil {
			return nil, err
		}
		return s.applyProfile(ctx, account, profile)
	}
	if err != nil {
		return nil, err
	}

	accountsCreated.Inc()
	logger(ctx).Info("Account registered",
		zap.String("address", account.Address),
		zap.String("ref", registration.FormatRef(account.Ref)))
	return account, nil
}

func (s *RegistrationService) applyProfile(ctx context.Context, account *models.Account, profile *models.AccountProfile) (*models.Account, error) {
	if profile.IsEmpty() {
		return account, nil
	}

	params := store.UpdateAccountParams{Profile: *profile}
	params.Profile.UsedRef = nil
	if profile.UsedRef != nil {
		usedRef, err := s.lookupUsedRef(ctx, profile.UsedRef, account.Ref)
		if err != nil {
			return nil, err
		}
		params.UsedRef = usedRef
		params.ClearUsedRef = usedRef == nil
	}

	return s.store.UpdateAccount(ctx, account.Address, params)
}

// lookupUsedRef parses a referral code. Codes pointing at ownRef or at no
// account resolve to nil.
func (s *RegistrationService) lookupUsedRef(ctx context.Context, value *string, ownRef int64) (*int64, error) {
	if value == nil || *value == "" {
		return nil, nil
	}

	ref, err := registration.ParseRef(*value)
	if err != nil {
		return nil, validation.Fail(validation.InvalidRef, "used_ref", err.Error())
	}
	if ref == ownRef {
		return nil, nil
	}

	if _, err := s.store.GetAccountByRef(ctx, ref); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger(ctx).Debug("Referral code matches no account", zap.Int64("ref", ref))
			return nil, nil
		}
		return nil, err
	}
	return &ref, nil
}

func checkSignature(account *models.Account, creds models.Credentials) error {
	if subtle.ConstantTimeCompare([]byte(account.Signature), []byte(creds.Signature)) != 1 {
		return fmt.Errorf("address %s: %w", creds.Address, ErrCredentialMismatch)
	}
	return nil
}

func validateProfile(profile *models.AccountProfile) error {
	if profile == nil {
		return nil
	}
	fields := []struct {
		name  string
		value *string
	}{
		{"mail", profile.Mail},
		{"firstname", profile.FirstName},
		{"surname", profile.Surname},
		{"street", profile.Street},
		{"location", profile.Location},
		{"zip", profile.Zip},
		{"phone", profile.Phone},
		{"used_ref", profile.UsedRef},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := validation.ValidateField(f.name, *f.value); err != nil {
			return err
		}
	}
	return nil
}

func accountView(a *models.Account) *models.AccountView {
	return &models.AccountView{
		Address:   a.Address,
		Ref:       registration.FormatRef(a.Ref),
		UsedRef:   registration.FormatRefPtr(a.UsedRef),
		WalletId:  a.WalletId,
		Mail:      a.Mail,
		FirstName: a.FirstName,
		Surname:   a.Surname,
		Street:    a.Street,
		Location:  a.Location,
		Zip:       a.Zip,
		Phone:     a.Phone,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
