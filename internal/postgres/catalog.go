package postgres

import (
	"context"
	"fmt"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"go.uber.org/zap"
)

func scanAsset(row rowScanner) (*models.Asset, error) {
	var a models.Asset
	if err := row.Scan(&a.Id, &a.Name, &a.Type, &a.Buyable, &a.Sellable, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanFiat(row rowScanner) (*models.Fiat, error) {
	var f models.Fiat
	if err := row.Scan(&f.Id, &f.Name, &f.Enable, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) queryAsset(ctx context.Context, what string, query string, args ...any) (*models.Asset, error) {
	var asset *models.Asset
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		asset, err = scanAsset(s.pool.QueryRow(ctx, query, args...))
		return mapError(err, what)
	})
	return asset, err
}

func (s *Store) queryFiat(ctx context.Context, what string, query string, args ...any) (*models.Fiat, error) {
	var fiat *models.Fiat
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		fiat, err = scanFiat(s.pool.QueryRow(ctx, query, args...))
		return mapError(err, what)
	})
	return fiat, err
}

func (s *Store) GetAssetById(ctx context.Context, id int64) (*models.Asset, error) {
	return s.queryAsset(ctx, fmt.Sprintf("asset %d", id), queryGetAssetById, id)
}

func (s *Store) GetAssetByName(ctx context.Context, name string) (*models.Asset, error) {
	return s.queryAsset(ctx, "asset "+name, queryGetAssetByName, name)
}

func (s *Store) ListAssets(ctx context.Context) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, queryListAssets)
		if err != nil {
			return fmt.Errorf("unable to query assets: %w", err)
		}
		assets, err = collect(rows, scanAsset)
		return err
	})
	return assets, err
}

func (s *Store) CreateAsset(ctx context.Context, params store.CreateAssetParams) (*models.Asset, error) {
	zap.L().Info("Creating asset", zap.String("name", params.Name), zap.String("type", string(params.Type)))
	return s.queryAsset(ctx, "insert asset "+params.Name, queryInsertAsset,
		params.Name, string(params.Type), params.Buyable, params.Sellable)
}

func (s *Store) UpdateAsset(ctx context.Context, id int64, params store.UpdateAssetParams) (*models.Asset, error) {
	zap.L().Info("Updating asset", zap.Int64("id", id))

	var assetType *string
	if params.Type != nil {
		t := string(*params.Type)
		assetType = &t
	}
	return s.queryAsset(ctx, fmt.Sprintf("asset %d", id), queryUpdateAsset,
		params.Name, assetType, params.Buyable, params.Sellable, id)
}

func (s *Store) GetFiatById(ctx context.Context, id int64) (*models.Fiat, error) {
	return s.queryFiat(ctx, fmt.Sprintf("fiat %d", id), queryGetFiatById, id)
}

func (s *Store) GetFiatByName(ctx context.Context, name string) (*models.Fiat, error) {
	return s.queryFiat(ctx, "fiat "+name, queryGetFiatByName, name)
}

func (s *Store) ListFiats(ctx context.Context) ([]models.Fiat, error) {
	var fiats []models.Fiat
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, queryListFiats)
		if err != nil {
			return fmt.Errorf("unable to query fiats: %w", err)
		}
		fiats, err = collect(rows, scanFiat)
		return err
	})
	return fiats, err
}

func (s *Store) CreateFiat(ctx context.Context, params store.CreateFiatParams) (*models.Fiat, error) {
	zap.L().Info("Creating fiat", zap.String("name", params.Name))
	return s.queryFiat(ctx, "insert fiat "+params.Name, queryInsertFiat, params.Name, params.Enable)
}

func (s *Store) UpdateFiat(ctx context.Context, id int64, params store.UpdateFiatParams) (*models.Fiat, error) {
	zap.L().Info("Updating fiat", zap.Int64("id", id))
	return s.queryFiat(ctx, fmt.Sprintf("fiat %d", id), queryUpdateFiat, params.Name, params.Enable, id)
}
