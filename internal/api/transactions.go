package api

import (
	"context"
	"errors"
	"strings"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"
	"fiat-bridge-registry-go/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultPaymentStatus = "pending"

// PaymentParams describes a settlement seen on the bank or chain side.
// Reference is the bank usage code for buys and the deposit address for sells.
type PaymentParams struct {
	ExternalId  string          `json:"external_id" validate:"required"`
	Reference   string          `json:"reference" validate:"required"`
	FiatAmount  decimal.Decimal `json:"fiat_amount" validate:"gte=0"`
	AssetAmount decimal.Decimal `json:"asset_amount" validate:"gte=0"`
	Status      string          `json:"status"`
}

func (p *PaymentParams) validate() error {
	p.ExternalId = strings.TrimSpace(p.ExternalId)
	p.Reference = strings.TrimSpace(p.Reference)
	p.Status = strings.TrimSpace(p.Status)

	if err := validation.Struct(p); err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = defaultPaymentStatus
	}
	return validation.ValidateField("status", p.Status)
}

// RecordBuyPayment records a bank transfer against the buy route whose bank
// usage code it quotes.
func (s *RegistrationService) RecordBuyPayment(ctx context.Context, params PaymentParams) (*models.TransactionView, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	route, err := s.store.FindBuyRouteByBankUsage(ctx, strings.ToUpper(params.Reference))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger(ctx).Warn("Buy payment with unknown bank usage", zap.String("bank_usage", params.Reference))
		}
		return nil, err
	}
	if !route.Active {
		logger(ctx).Warn("Buy payment received on inactive route", zap.String("route_id", route.Id))
	}

	params.Reference = route.BankUsage
	return s.record(ctx, models.DirectionBuy, route.Id, params)
}

func (s *RegistrationService) record(ctx context.Context, direction models.Direction, routeId string, params PaymentParams) (*models.TransactionView, error) {
	transaction, created, err := s.store.UpsertTransaction(ctx, store.UpsertTransactionParams{
		ExternalId:  params.ExternalId,
		Direction:   direction,
		RouteId:     routeId,
		Reference:   params.Reference,
		FiatAmount:  params.FiatAmount,
		AssetAmount: params.AssetAmount,
		Status:      params.Status,
	})
	if err != nil {
		return nil, err
	}

	result := "updated"
	if created {
		result = "created"
	}
	transactionsRecorded.WithLabelValues(string(direction), result).Inc()

	logger(ctx).Info("Payment recorded",
		zap.String("direction", string(direction)),
		zap.String("route_id", routeId),
		zap.String("external_id", params.ExternalId),
		zap.String("status", params.Status),
		zap.Bool("created", created))
	return transactionView(transaction, created), nil
}

// ListTransactions lists settlements, optionally restricted to one route
func (s *RegistrationService) ListTransactions(ctx context.Context, routeId string) ([]models.TransactionView, error) {
	transactions, err := s.store.ListTransactions(ctx, store.TransactionFilter{RouteId: routeId})
	if err != nil {
		return nil, err
	}
	views := make([]models.TransactionView, 0, len(transactions))
	for i := range transactions {
		views = append(views, *transactionView(&transactions[i], false))
	}
	return views, nil
}

func transactionView(t *models.Transaction, created bool) *models.TransactionView {
	return &models.TransactionView{
		Id:          t.Id,
		ExternalId:  t.ExternalId,
		Direction:   t.Direction,
		RouteId:     t.RouteId,
		Reference:   t.Reference,
		FiatAmount:  t.FiatAmount,
		AssetAmount: t.AssetAmount,
		Status:      t.Status,
		Created:     created,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
