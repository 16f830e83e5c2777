package api

import (
	"context"
	"strconv"
	"strings"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"
	"fiat-bridge-registry-go/internal/validation"

	"go.uber.org/zap"
)

// FindAsset looks an asset up by numeric id or, failing that, by name
func (s *RegistrationService) FindAsset(ctx context.Context, key string) (*models.Asset, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, validation.Fail(validation.InvalidField, "asset", "asset is required")
	}
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return s.store.GetAssetById(ctx, id)
	}
	return s.store.GetAssetByName(ctx, key)
}

// FindFiat looks a fiat up by numeric id or, failing that, by name
func (s *RegistrationService) FindFiat(ctx context.Context, key string) (*models.Fiat, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, validation.Fail(validation.InvalidField, "fiat", "fiat is required")
	}
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return s.store.GetFiatById(ctx, id)
	}
	return s.store.GetFiatByName(ctx, key)
}

func (s *RegistrationService) ListAssets(ctx context.Context) ([]models.Asset, error) {
	return s.store.ListAssets(ctx)
}

func (s *RegistrationService) ListFiats(ctx context.Context) ([]models.Fiat, error) {
	return s.store.ListFiats(ctx)
}

func (s *RegistrationService) CreateAsset(ctx context.Context, token string, params store.CreateAssetParams) (*models.Asset, error) {
	if err := s.Authorize(token); err != nil {
		return nil, err
	}
	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	if err := validation.ValidateCatalogName(params.Name); err != nil {
		return nil, err
	}

	asset, err := s.store.CreateAsset(ctx, params)
	if err != nil {
		return nil, err
	}
	logger(ctx).Info("Asset added to catalog", zap.Int64("id", asset.Id), zap.String("name", asset.Name))
	return asset, nil
}

func (s *RegistrationService) UpdateAsset(ctx context.Context, token string, key string, params store.UpdateAssetParams) (*models.Asset, error) {
	if err := s.Authorize(token); err != nil {
		return nil, err
	}
	if params.Name != nil {
		if err := validation.ValidateCatalogName(*params.Name); err != nil {
			return nil, err
		}
	}
	if err := validation.Struct(params); err != nil {
		return nil, err
	}

	asset, err := s.FindAsset(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateAsset(ctx, asset.Id, params)
}

func (s *RegistrationService) CreateFiat(ctx context.Context, token string, params store.CreateFiatParams) (*models.Fiat, error) {
	if err := s.Authorize(token); err != nil {
		return nil, err
	}
	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	if err := validation.ValidateCatalogName(params.Name); err != nil {
		return nil, err
	}

	fiat, err := s.store.CreateFiat(ctx, params)
	if err != nil {
		return nil, err
	}
	logger(ctx).Info("Fiat added to catalog", zap.Int64("id", fiat.Id), zap.String("name", fiat.Name))
	return fiat, nil
}

func (s *RegistrationService) UpdateFiat(ctx context.Context, token string, key string, params store.UpdateFiatParams) (*models.Fiat, error) {
	if err := s.Authorize(token); err != nil {
		return nil, err
	}
	if params.Name != nil {
		if err := validation.ValidateCatalogName(*params.Name); err != nil {
			return nil, err
		}
	}

	fiat, err := s.FindFiat(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateFiat(ctx, fiat.Id, params)
}
