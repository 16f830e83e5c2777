package server

import (
	"net/http"

	"fiat-bridge-registry-go/internal/models"
	"fiat-bridge-registry-go/internal/validation"

	"github.com/gorilla/mux"
)

type routeRequest struct {
	Iban  string `json:"iban"`
	Asset string `json:"asset,omitempty"`
	Fiat  string `json:"fiat,omitempty"`
}

type activeRequest struct {
	Id     string `json:"id"`
	Active bool   `json:"active"`
}

// credentials reads address and signature from HTTP basic auth
func credentials(r *http.Request) (models.Credentials, error) {
	address, signature, ok := r.BasicAuth()
	if !ok {
		return models.Credentials{}, validation.Fail(validation.MissingAddress, "address", "basic auth with address and signature is required")
	}
	return models.Credentials{Address: address, Signature: signature}, nil
}

func (h *Handler) ResolveAccount(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		respondWithError(w, err)
		return
	}

	profile := &models.AccountProfile{}
	present, err := decodeOptionalBody(r, profile)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if !present {
		profile = nil
	}

	account, err := h.svc.ResolveAccount(r.Context(), creds, profile)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	account, err := h.svc.GetAccount(r.Context(), creds)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	var profile models.AccountProfile
	if err := decodeBody(r, &profile); err != nil {
		respondWithError(w, err)
		return
	}
	account, err := h.svc.UpdateProfile(r.Context(), creds, profile)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

func (h *Handler) CreateBuyRoute(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	var req routeRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	route, err := h.svc.CreateBuyRoute(r.Context(), creds, req.Iban, req.Asset)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, route)
}

func (h *Handler) ListBuyRoutes(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	routes, err := h.svc.ListBuyRoutes(r.Context(), creds)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, routes)
}

func (h *Handler) UpdateBuyRoute(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	var req activeRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	route, err := h.svc.SetBuyRouteActive(r.Context(), creds, req.Id, req.Active)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, route)
}

func (h *Handler) CreateSellRoute(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	var req routeRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	route, err := h.svc.CreateSellRoute(r.Context(), creds, req.Iban, req.Fiat)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, route)
}

func (h *Handler) ListSellRoutes(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	routes, err := h.svc.ListSellRoutes(r.Context(), creds)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, routes)
}

func (h *Handler) UpdateSellRoute(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		respondWithError(w, err)
		return
	}
	var req activeRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	route, err := h.svc.SetSellRouteActive(r.Context(), creds, req.Id, req.Active)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, route)
}

func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.svc.ListAssets(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, assets)
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := h.svc.FindAsset(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, asset)
}

func (h *Handler) ListFiats(w http.ResponseWriter, r *http.Request) {
	fiats, err := h.svc.ListFiats(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, fiats)
}

func (h *Handler) GetFiat(w http.ResponseWriter, r *http.Request) {
	fiat, err := h.svc.FindFiat(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, fiat)
}
