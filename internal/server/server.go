// Package server exposes the registration service over REST.
package server

import (
	"net/http"
	"strconv"
	"time"

	"fiat-bridge-registry-go/internal/api"
	"fiat-bridge-registry-go/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	requestIdHeader = "X-Request-ID"
	adminHeader     = "oAuth"
)

var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "registry_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "endpoint"})
)

type Handler struct {
	svc *api.RegistrationService
}

// NewRouter wires every REST route onto a gorilla/mux router
func NewRouter(svc *api.RegistrationService) *mux.Router {
	h := &Handler{svc: svc}

	r := mux.NewRouter()
	r.Use(requestLogger)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/account", h.ResolveAccount).Methods(http.MethodPost)
	v1.HandleFunc("/account", h.GetAccount).Methods(http.MethodGet)
	v1.HandleFunc("/account", h.UpdateAccount).Methods(http.MethodPut)

	v1.HandleFunc("/buy", h.CreateBuyRoute).Methods(http.MethodPost)
	v1.HandleFunc("/buy", h.ListBuyRoutes).Methods(http.MethodGet)
	v1.HandleFunc("/buy", h.UpdateBuyRoute).Methods(http.MethodPut)
	v1.HandleFunc("/sell", h.CreateSellRoute).Methods(http.MethodPost)
	v1.HandleFunc("/sell", h.ListSellRoutes).Methods(http.MethodGet)
	v1.HandleFunc("/sell", h.UpdateSellRoute).Methods(http.MethodPut)

	v1.HandleFunc("/asset", h.ListAssets).Methods(http.MethodGet)
	v1.HandleFunc("/asset/{key}", h.GetAsset).Methods(http.MethodGet)
	v1.HandleFunc("/fiat", h.ListFiats).Methods(http.MethodGet)
	v1.HandleFunc("/fiat/{key}", h.GetFiat).Methods(http.MethodGet)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(h.adminOnly)
	admin.HandleFunc("/asset", h.CreateAsset).Methods(http.MethodPost)
	admin.HandleFunc("/asset/{key}", h.UpdateAsset).Methods(http.MethodPut)
	admin.HandleFunc("/fiat", h.CreateFiat).Methods(http.MethodPost)
	admin.HandleFunc("/fiat/{key}", h.UpdateFiat).Methods(http.MethodPut)
	admin.HandleFunc("/deposit", h.AddDepositAddresses).Methods(http.MethodPost)
	admin.HandleFunc("/deposit", h.PoolStats).Methods(http.MethodGet)
	admin.HandleFunc("/transaction", h.ListTransactions).Methods(http.MethodGet)
	admin.HandleFunc("/transaction/buy", h.RecordBuyPayment).Methods(http.MethodPost)
	admin.HandleFunc("/transaction/sell", h.RecordSellPayment).Methods(http.MethodPost)
	admin.HandleFunc("/export", h.Export).Methods(http.MethodGet)

	return r
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.HealthCheck(r.Context()); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger tags each request with an id, logs it and records metrics
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestId := r.Header.Get(requestIdHeader)
		if requestId == "" {
			requestId = uuid.New().String()
		}
		w.Header().Set(requestIdHeader, requestId)
		r = r.WithContext(models.WithRequestId(r.Context(), requestId))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}
		latency := time.Since(start)
		httpReqTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		httpLatency.WithLabelValues(r.Method, endpoint).Observe(latency.Seconds())

		fields := []zap.Field{
			zap.String("request_id", requestId),
			zap.Int("status", rec.status),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("ip", r.RemoteAddr),
			zap.String("user-agent", r.UserAgent()),
			zap.Duration("latency", latency),
		}
		switch {
		case rec.status >= 500:
			zap.L().Error("Server Error", fields...)
		case rec.status >= 400:
			zap.L().Warn("Client Error", fields...)
		default:
			zap.L().Info("Request", fields...)
		}
	})
}

// adminOnly rejects requests without a valid oAuth header
func (h *Handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Authorize(r.Header.Get(adminHeader)); err != nil {
			respondWithError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
