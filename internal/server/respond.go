package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"fiat-bridge-registry-go/internal/api"
	"fiat-bridge-registry-go/internal/store"
	"fiat-bridge-registry-go/internal/validation"

	"go.uber.org/zap"
)

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// statusOf maps service errors to an HTTP status and a stable reason
func statusOf(err error) (int, string) {
	if reason, ok := validation.ReasonOf(err); ok {
		return http.StatusBadRequest, string(reason)
	}
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, api.ErrCredentialMismatch):
		return http.StatusUnauthorized, "CredentialMismatch"
	case errors.Is(err, api.ErrRouteConflict):
		return http.StatusConflict, "RouteConflict"
	case errors.Is(err, store.ErrNoAddressAvailable):
		return http.StatusBadRequest, "NoAddressAvailable"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, "Duplicate"
	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "StoreUnavailable"
	}
	return http.StatusInternalServerError, "Internal"
}

func respondWithError(w http.ResponseWriter, err error) {
	code, reason := statusOf(err)

	message := err.Error()
	switch code {
	case http.StatusInternalServerError:
		zap.L().Error("Unhandled service error", zap.Error(err))
		message = "internal error"
	case http.StatusBadRequest:
		if reason == "NoAddressAvailable" {
			message = store.ErrNoAddressAvailable.Error()
		}
	}
	respondWithJSON(w, code, errorBody{Error: message, Reason: reason})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		zap.L().Warn("Failed to write response", zap.Error(err))
	}
}

// decodeBody reads a required JSON request body into dst
func decodeBody(r *http.Request, dst any) error {
	present, err := decodeOptionalBody(r, dst)
	if err != nil {
		return err
	}
	if !present {
		return validation.Fail(validation.InvalidField, "body", "request body is required")
	}
	return nil
}

// decodeOptionalBody reports false when the request carries no body
func decodeOptionalBody(r *http.Request, dst any) (bool, error) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, validation.Fail(validation.InvalidField, "body", "invalid JSON body: "+err.Error())
	}
	return true, nil
}
