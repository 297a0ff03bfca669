package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPoolMetrics exposes pgxpool statistics as prometheus gauges. Call
// once per pool at startup.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	labels := prometheus.Labels{"service": service}

	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "pgxpool_total_conns",
			Help:        "Total connections currently in the pool",
			ConstLabels: labels,
		}, func() float64 { return float64(pool.Stat().TotalConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "pgxpool_idle_conns",
			Help:        "Idle connections currently in the pool",
			ConstLabels: labels,
		}, func() float64 { return float64(pool.Stat().IdleConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "pgxpool_acquired_conns",
			Help:        "Connections currently checked out of the pool",
			ConstLabels: labels,
		}, func() float64 { return float64(pool.Stat().AcquiredConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "pgxpool_max_conns",
			Help:        "Configured maximum pool size",
			ConstLabels: labels,
		}, func() float64 { return float64(pool.Stat().MaxConns()) }),
	)
}
