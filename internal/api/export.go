package api

import (
	"context"
	"time"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"go.uber.org/zap"
)

// Export dumps the whole registry as one document
func (s *RegistrationService) Export(ctx context.Context, token string) (*models.ExportDocument, error) {
	if err := s.Authorize(token); err != nil {
		return nil, err
	}

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	assets, err := s.store.ListAssets(ctx)
	if err != nil {
		return nil, err
	}
	fiats, err := s.store.ListFiats(ctx)
	if err != nil {
		return nil, err
	}
	buyRoutes, err := s.store.ListBuyRoutes(ctx, store.RouteFilter{})
	if err != nil {
		return nil, err
	}
	sellRoutes, err := s.store.ListSellRoutes(ctx, store.RouteFilter{})
	if err != nil {
		return nil, err
	}
	deposits, err := s.store.ListDepositAddresses(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := s.ListTransactions(ctx, "")
	if err != nil {
		return nil, err
	}

	doc := &models.ExportDocument{
		GeneratedAt:      time.Now().UTC(),
		Accounts:         make([]models.AccountView, 0, len(accounts)),
		Assets:           assets,
		Fiats:            fiats,
		BuyRoutes:        make([]models.BuyRouteView, 0, len(buyRoutes)),
		SellRoutes:       make([]models.SellRouteView, 0, len(sellRoutes)),
		DepositAddresses: deposits,
		Transactions:     transactions,
	}
	for i := range accounts {
		doc.Accounts = append(doc.Accounts, *accountView(&accounts[i]))
	}

	assetsById := make(map[int64]models.Asset, len(assets))
	for _, a := range assets {
		assetsById[a.Id] = a
	}
	for i := range buyRoutes {
		doc.BuyRoutes = append(doc.BuyRoutes, *buyRouteView(&buyRoutes[i], assetsById[buyRoutes[i].AssetId]))
	}

	fiatsById := make(map[int64]models.Fiat, len(fiats))
	for _, f := range fiats {
		fiatsById[f.Id] = f
	}
	depositsById := make(map[int64]models.DepositAddress, len(deposits))
	for _, d := range deposits {
		depositsById[d.Id] = d
	}
	for i := range sellRoutes {
		r := &sellRoutes[i]
		doc.SellRoutes = append(doc.SellRoutes, *sellRouteView(r, fiatsById[r.FiatId], depositsById[r.DepositId]))
	}

	logger(ctx).Info("Registry exported",
		zap.Int("accounts", len(doc.Accounts)),
		zap.Int("buy_routes", len(doc.BuyRoutes)),
		zap.Int("sell_routes", len(doc.SellRoutes)),
		zap.Int("transactions", len(doc.Transactions)))
	return doc, nil
}
