package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type paymentRequest struct {
	ExternalId string          `json:"external_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"gte=0"`
	Kind       string          `json:"kind" validate:"omitempty,oneof=Coin DAT DCT"`
	Note       string          `validate:"required"`
}

func TestStruct(t *testing.T) {
	valid := paymentRequest{ExternalId: "tx-1", Amount: decimal.RequireFromString("0.5"), Kind: "DAT", Note: "n"}

	tests := []struct {
		name    string
		mutate  func(r *paymentRequest)
		field   string
		message string
	}{
		{"valid", func(r *paymentRequest) {}, "", ""},
		{"zero amount", func(r *paymentRequest) { r.Amount = decimal.Zero }, "", ""},
		{"missing id", func(r *paymentRequest) { r.ExternalId = "" }, "external_id", "external_id is required"},
		{"negative amount", func(r *paymentRequest) { r.Amount = decimal.RequireFromString("-1.25") }, "amount", "amount must be at least 0"},
		{"bad kind", func(r *paymentRequest) { r.Kind = "Token" }, "kind", "kind must be one of Coin, DAT, DCT"},
		{"untagged json name", func(r *paymentRequest) { r.Note = "" }, "note", "note is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := Struct(&req)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Reason != InvalidField {
				t.Errorf("Expected reason %s, got %s", InvalidField, vErr.Reason)
			}
			if vErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, vErr.Field)
			}
			if vErr.Detail != tt.message {
				t.Errorf("Expected detail %q, got %q", tt.message, vErr.Detail)
			}
		})
	}
}
