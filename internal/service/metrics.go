package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "order_service",
		Subsystem: "coordinator",
		Name:      "orders_created_total",
		Help:      "Total number of orders created from carts.",
	})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "order_service",
		Subsystem: "coordinator",
		Name:      "transitions_total",
		Help:      "Total number of committed order status transitions.",
	}, []string{"from", "to"})

	claimConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "order_service",
		Subsystem: "coordinator",
		Name:      "claim_conflicts_total",
		Help:      "Total number of courier claims lost to the compare-and-set.",
	})

	notificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "order_service",
		Subsystem: "coordinator",
		Name:      "notification_failures_total",
		Help:      "Total number of best-effort notifications that failed.",
	})
)
