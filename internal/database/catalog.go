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

func getAsset(ctx context.Context, q querier, query string, arg any) (*models.Asset, error) {
	asset, err := scanAsset(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %v: %w", arg, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query asset: %w", err)
	}
	return asset, nil
}

func getFiat(ctx context.Context, q querier, query string, arg any) (*models.Fiat, error) {
	fiat, err := scanFiat(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fiat %v: %w", arg, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query fiat: %w", err)
	}
	return fiat, nil
}

func (s *Service) GetAssetById(ctx context.Context, id int64) (*models.Asset, error) {
	var asset *models.Asset
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		asset, err = getAsset(ctx, s.db, queryGetAssetById, id)
		return err
	})
	return asset, err
}

func (s *Service) GetAssetByName(ctx context.Context, name string) (*models.Asset, error) {
	var asset *models.Asset
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		asset, err = getAsset(ctx, s.db, queryGetAssetByName, name)
		return err
	})
	return asset, err
}

func (s *Service) ListAssets(ctx context.Context) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, queryListAssets)
		if err != nil {
			return fmt.Errorf("unable to query assets: %w", err)
		}
		defer closeRows(rows)

		assets = assets[:0]
		for rows.Next() {
			asset, err := scanAsset(rows)
			if err != nil {
				return fmt.Errorf("unable to scan asset row: %w", err)
			}
			assets = append(assets, *asset)
		}
		return rows.Err()
	})
	return assets, err
}

func (s *Service) CreateAsset(ctx context.Context, params store.CreateAssetParams) (*models.Asset, error) {
	zap.L().Info("Creating asset", zap.String("name", params.Name), zap.String("type", string(params.Type)))

	var asset *models.Asset
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			var id int64
			err := tx.QueryRowContext(ctx, queryInsertAsset, params.Name, params.Type, params.Buyable, params.Sellable).Scan(&id)
			if err != nil {
				return mapConstraintError(fmt.Errorf("unable to insert asset: %w", err))
			}
			asset, err = getAsset(ctx, tx, queryGetAssetById, id)
			return err
		})
	})
	return asset, err
}

func (s *Service) UpdateAsset(ctx context.Context, id int64, params store.UpdateAssetParams) (*models.Asset, error) {
	zap.L().Info("Updating asset", zap.Int64("id", id))

	var asset *models.Asset
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			result, err := tx.ExecContext(ctx, queryUpdateAsset, params.Name, params.Type, params.Buyable, params.Sellable, id)
			if err != nil {
				return mapConstraintError(fmt.Errorf("unable to update asset: %w", err))
			}
			if n, err := result.RowsAffected(); err != nil {
				return fmt.Errorf("unable to get rows affected: %w", err)
			} else if n == 0 {
				return fmt.Errorf("asset %d: %w", id, store.ErrNotFound)
			}
			asset, err = getAsset(ctx, tx, queryGetAssetById, id)
			return err
		})
	})
	return asset, err
}

func (s *Service) GetFiatById(ctx context.Context, id int64) (*models.Fiat, error) {
	var fiat *models.Fiat
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		fiat, err = getFiat(ctx, s.db, queryGetFiatById, id)
		return err
	})
	return fiat, err
}

func (s *Service) GetFiatByName(ctx context.Context, name string) (*models.Fiat, error) {
	var fiat *models.Fiat
	err := s.run(ctx, func(ctx context.Context) error {
		var err error
		fiat, err = getFiat(ctx, s.db, queryGetFiatByName, name)
		return err
	})
	return fiat, err
}

func (s *Service) ListFiats(ctx context.Context) ([]models.Fiat, error) {
	var fiats []models.Fiat
	err := s.run(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, queryListFiats)
		if err != nil {
			return fmt.Errorf("unable to query fiats: %w", err)
		}
		defer closeRows(rows)

		fiats = fiats[:0]
		for rows.Next() {
			fiat, err := scanFiat(rows)
			if err != nil {
				return fmt.Errorf("unable to scan fiat row: %w", err)
			}
			fiats = append(fiats, *fiat)
		}
		return rows.Err()
	})
	return fiats, err
}

func (s *Service) CreateFiat(ctx context.Context, params store.CreateFiatParams) (*models.Fiat, error) {
	zap.L().Info("Creating fiat", zap.String("name", params.Name))

	var fiat *models.Fiat
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			var id int64
			if err := tx.QueryRowContext(ctx, queryInsertFiat, params.Name, params.Enable).Scan(&id); err != nil {
				return mapConstraintError(fmt.Errorf("unable to insert fiat: %w", err))
			}
			var err error
			fiat, err = getFiat(ctx, tx, queryGetFiatById, id)
			return err
		})
	})
	return fiat, err
}

func (s *Service) UpdateFiat(ctx context.Context, id int64, params store.UpdateFiatParams) (*models.Fiat, error) {
	zap.L().Info("Updating fiat", zap.Int64("id", id))

	var fiat *models.Fiat
	err := s.run(ctx, func(ctx context.Context) error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			result, err := tx.ExecContext(ctx, queryUpdateFiat, params.Name, params.Enable, id)
			if err != nil {
				return mapConstraintError(fmt.Errorf("unable to update fiat: %w", err))
			}
			if n, err := result.RowsAffected(); err != nil {
				return fmt.Errorf("unable to get rows affected: %w", err)
			} else if n == 0 {
				return fmt.Errorf("fiat %d: %w", id, store.ErrNotFound)
			}
			fiat, err = getFiat(ctx, tx, queryGetFiatById, id)
			return err
		})
	})
	return fiat, err
}
