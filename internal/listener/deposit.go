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

package listener

import (
	"context"
	"errors"
	"fmt"

	"fiat-bridge-registry-go/internal/api"
	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	statusImportPending = "TRANSACTION_IMPORT_PENDING"
	statusImported      = "TRANSACTION_IMPORTED"
)

// paymentStatus maps a Prime deposit status to a transaction status. Other
// statuses are not recorded.
func paymentStatus(primeStatus string) (string, bool) {
	switch primeStatus {
	case statusImportPending:
		return "pending", true
	case statusImported:
		return "confirmed", true
	}
	return "", false
}

// processTransaction records a Prime deposit against the sell route owning
// its destination address.
func (d *DepositListener) processTransaction(ctx context.Context, tx models.PrimeTransaction) error {
	if tx.Type != "DEPOSIT" {
		d.markProcessed(tx)
		return nil
	}

	status, ok := paymentStatus(tx.Status)
	if !ok {
		zap.L().Debug("Skipping deposit with unhandled status",
			zap.String("transaction_id", tx.Id),
			zap.String("status", tx.Status))
		return nil
	}

	amount, err := decimal.NewFromString(tx.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		d.markProcessed(tx)
		return nil
	}

	address := tx.TransferTo.Address
	if address == "" {
		address = tx.TransferTo.AccountIdentifier
	}
	if address == "" {
		zap.L().Debug("No destination address in transfer_to",
			zap.String("transaction_id", tx.Id),
			zap.String("transfer_to_type", tx.TransferTo.Type))
		d.markProcessed(tx)
		return nil
	}

	recorded, err := d.recorder.RecordSellPayment(ctx, api.PaymentParams{
		ExternalId:  tx.Id,
		Reference:   address,
		AssetAmount: amount,
		Status:      status,
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Not a pool address, or not yet bound to a route
		depositsSeen.WithLabelValues("unmatched").Inc()
		zap.L().Warn("Deposit to unrecognized address - marking as processed",
			zap.String("transaction_id", tx.Id),
			zap.String("address", address),
			zap.String("amount", amount.String()))
		d.markProcessed(tx)
		return nil
	case errors.Is(err, store.ErrDuplicate):
		depositsSeen.WithLabelValues("duplicate").Inc()
		d.markProcessed(tx)
		return nil
	case err != nil:
		return fmt.Errorf("failed to record sell payment: %w", err)
	}

	d.markProcessed(tx)
	depositsSeen.WithLabelValues(status).Inc()
	zap.L().Info("Deposit recorded",
		zap.String("transaction_id", tx.Id),
		zap.String("route_id", recorded.RouteId),
		zap.String("symbol", tx.Symbol),
		zap.String("network", tx.Network),
		zap.String("amount", amount.String()),
		zap.String("status", status))
	return nil
}
