package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brief_reports_generated_total",
		Help: "Weekly briefs generated, by outcome.",
	}, []string{"outcome"})

	ReportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "brief_report_duration_seconds",
		Help:    "Time spent fetching data and generating one brief.",
		Buckets: prometheus.DefBuckets,
	})

	Findings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brief_findings_total",
		Help: "Findings emitted, by category.",
	}, []string{"category"})

	Omissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brief_detector_omissions_total",
		Help: "Detectors skipped for insufficient baseline data, by detector.",
	}, []string{"detector"})

	ReadingsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brief_readings_ingested_total",
		Help: "Readings received from MQTT, by outcome.",
	}, []string{"outcome"})
)
