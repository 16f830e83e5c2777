package server

import (
	"context"
	"net/http"

	"fiat-bridge-registry-go/internal/api"
	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/store"

	"github.com/gorilla/mux"
)

type depositRequest struct {
	Addresses []store.NewDepositAddress `json:"addresses"`
}

type assetRequest struct {
	Name     *string `json:"name"`
	Type     *string `json:"type"`
	Buyable  *bool   `json:"buyable"`
	Sellable *bool   `json:"sellable"`
}

type fiatRequest struct {
	Name   *string `json:"name"`
	Enable *bool   `json:"enable"`
}

func adminToken(r *http.Request) string {
	return r.Header.Get(adminHeader)
}

func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	params := store.CreateAssetParams{
		Name:     deref(req.Name),
		Type:     models.AssetType(deref(req.Type)),
		Buyable:  req.Buyable != nil && *req.Buyable,
		Sellable: req.Sellable != nil && *req.Sellable,
	}
	asset, err := h.svc.CreateAsset(r.Context(), adminToken(r), params)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, asset)
}

func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	params := store.UpdateAssetParams{Name: req.Name, Buyable: req.Buyable, Sellable: req.Sellable}
	if req.Type != nil {
		t := models.AssetType(*req.Type)
		params.Type = &t
	}
	asset, err := h.svc.UpdateAsset(r.Context(), adminToken(r), mux.Vars(r)["key"], params)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, asset)
}

func (h *Handler) CreateFiat(w http.ResponseWriter, r *http.Request) {
	var req fiatRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	params := store.CreateFiatParams{Name: deref(req.Name), Enable: req.Enable == nil || *req.Enable}
	fiat, err := h.svc.CreateFiat(r.Context(), adminToken(r), params)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, fiat)
}

func (h *Handler) UpdateFiat(w http.ResponseWriter, r *http.Request) {
	var req fiatRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	fiat, err := h.svc.UpdateFiat(r.Context(), adminToken(r), mux.Vars(r)["key"],
		store.UpdateFiatParams{Name: req.Name, Enable: req.Enable})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, fiat)
}

func (h *Handler) AddDepositAddresses(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	added, err := h.svc.AddDepositAddresses(r.Context(), adminToken(r), req.Addresses)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]int{"added": added, "skipped": len(req.Addresses) - added})
}

func (h *Handler) PoolStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.PoolStats(r.Context(), adminToken(r))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.svc.ListTransactions(r.Context(), r.URL.Query().Get("route"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, transactions)
}

func (h *Handler) RecordBuyPayment(w http.ResponseWriter, r *http.Request) {
	h.recordPayment(w, r, h.svc.RecordBuyPayment)
}

func (h *Handler) RecordSellPayment(w http.ResponseWriter, r *http.Request) {
	h.recordPayment(w, r, h.svc.RecordSellPayment)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request, record func(ctx context.Context, params api.PaymentParams) (*models.TransactionView, error)) {
	var params api.PaymentParams
	if err := decodeBody(r, &params); err != nil {
		respondWithError(w, err)
		return
	}
	transaction, err := record(r.Context(), params)
	if err != nil {
		respondWithError(w, err)
		return
	}
	code := http.StatusOK
	if transaction.Created {
		code = http.StatusCreated
	}
	respondWithJSON(w, code, transaction)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Export(r.Context(), adminToken(r))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, doc)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
