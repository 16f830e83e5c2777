package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	accountsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_accounts_created_total",
		Help: "Accounts created on first contact",
	})

	routesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_routes_created_total",
		Help: "Routes registered, by direction",
	}, []string{"direction"})

	depositClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_deposit_claims_total",
		Help: "Deposit address claims, by result",
	}, []string{"result"})

	depositPoolFree = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "registry_deposit_pool_free",
		Help: "Unused deposit addresses at last observation",
	})

	transactionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_transactions_recorded_total",
		Help: "Settlements recorded, by direction and result",
	}, []string{"direction", "result"})

	adminRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_admin_rejections_total",
		Help: "Admin calls rejected for a missing or wrong token",
	})
)
