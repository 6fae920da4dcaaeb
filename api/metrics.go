package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drillview_http_requests_total",
		Help: "HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	ingestedRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drillview_ingested_rows_total",
		Help: "CSV rows processed by ingestion, by outcome.",
	}, []string{"outcome"})
)
