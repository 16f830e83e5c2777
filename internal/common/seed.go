package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fiat-bridge-registry-go/internal/api"
	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type AssetSeed struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Buyable  bool   `yaml:"buyable"`
	Sellable bool   `yaml:"sellable"`
}

type FiatSeed struct {
	Name   string `yaml:"name"`
	Enable bool   `yaml:"enable"`
}

// CatalogSeed is the layout of catalog.yaml
type CatalogSeed struct {
	Assets []AssetSeed `yaml:"assets"`
	Fiats  []FiatSeed  `yaml:"fiats"`
}

// DepositSeed is the layout of a deposit address file
type DepositSeed struct {
	Addresses []store.NewDepositAddress `yaml:"addresses"`
}

func readYaml(file string, out any) error {
	path := file
	if !filepath.IsAbs(file) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, file)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", file, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unable to parse %s: %w", file, err)
	}
	return nil
}

func LoadCatalogSeed(file string) (*CatalogSeed, error) {
	var seed CatalogSeed
	if err := readYaml(file, &seed); err != nil {
		return nil, err
	}

	for i, asset := range seed.Assets {
		if asset.Name == "" {
			return nil, fmt.Errorf("asset at index %d missing name", i)
		}
		if !models.AssetType(asset.Type).Valid() {
			return nil, fmt.Errorf("asset %s has unknown type %q", asset.Name, asset.Type)
		}
	}
	for i, fiat := range seed.Fiats {
		if fiat.Name == "" {
			return nil, fmt.Errorf("fiat at index %d missing name", i)
		}
	}
	return &seed, nil
}

func LoadDepositSeed(file string) ([]store.NewDepositAddress, error) {
	var seed DepositSeed
	if err := readYaml(file, &seed); err != nil {
		return nil, err
	}
	for i, a := range seed.Addresses {
		if a.Address == "" {
			return nil, fmt.Errorf("deposit address at index %d is empty", i)
		}
	}
	return seed.Addresses, nil
}

// SeedCatalog creates missing catalog entries and brings existing ones in
// line with the seed flags. It returns the number of entries created.
func SeedCatalog(ctx context.Context, svc *api.RegistrationService, token string, seed *CatalogSeed) (int, error) {
	created := 0

	for _, a := range seed.Assets {
		assetType := models.AssetType(a.Type)
		_, err := svc.FindAsset(ctx, a.Name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if _, err := svc.CreateAsset(ctx, token, store.CreateAssetParams{
				Name: a.Name, Type: assetType, Buyable: a.Buyable, Sellable: a.Sellable,
			}); err != nil {
				return created, fmt.Errorf("unable to create asset %s: %w", a.Name, err)
			}
			created++
		case err != nil:
			return created, err
		default:
			buyable, sellable := a.Buyable, a.Sellable
			if _, err := svc.UpdateAsset(ctx, token, a.Name, store.UpdateAssetParams{
				Type: &assetType, Buyable: &buyable, Sellable: &sellable,
			}); err != nil {
				return created, fmt.Errorf("unable to update asset %s: %w", a.Name, err)
			}
		}
	}

	for _, f := range seed.Fiats {
		_, err := svc.FindFiat(ctx, f.Name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if _, err := svc.CreateFiat(ctx, token, store.CreateFiatParams{Name: f.Name, Enable: f.Enable}); err != nil {
				return created, fmt.Errorf("unable to create fiat %s: %w", f.Name, err)
			}
			created++
		case err != nil:
			return created, err
		default:
			enable := f.Enable
			if _, err := svc.UpdateFiat(ctx, token, f.Name, store.UpdateFiatParams{Enable: &enable}); err != nil {
				return created, fmt.Errorf("unable to update fiat %s: %w", f.Name, err)
			}
		}
	}

	zap.L().Info("Catalog seeded",
		zap.Int("assets", len(seed.Assets)),
		zap.Int("fiats", len(seed.Fiats)),
		zap.Int("created", created))
	return created, nil
}
