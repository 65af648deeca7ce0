// Package metrics содержит метрики Prometheus для загрузки ленты.
package metrics

import (
	"errors"
	"time"

	"feedloader/internal/domain"
	"feedloader/internal/usecase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feedloader"

// Значения метки outcome.
const (
	OutcomeSuccess      = "success"
	OutcomeConnectivity = "connectivity"
	OutcomeInvalidData  = "invalid_data"
)

// Recorder учитывает итоги загрузок.
type Recorder struct {
	loadsTotal   *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	itemsLoaded  prometheus.Gauge
}

// NewRecorder регистрирует метрики загрузки в reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		loadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loads_total",
				Help:      "Total number of feed loads",
			},
			[]string{"source", "outcome"},
		),
		loadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Duration of feed loads in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		itemsLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "items_loaded",
				Help:      "Number of items in the last successful load",
			},
		),
	}
}

// RecordLoad учитывает один доставленный результат загрузки.
// source задает источник вызова: worker, api или cli.
func (r *Recorder) RecordLoad(source string, result domain.LoadFeedResult, duration time.Duration) {
	outcome := Outcome(result)
	r.loadsTotal.WithLabelValues(source, outcome).Inc()
	r.loadDuration.WithLabelValues(source).Observe(duration.Seconds())
	if outcome == OutcomeSuccess {
		r.itemsLoaded.Set(float64(len(result.Items)))
	}
}

// Outcome возвращает значение метки outcome для результата.
func Outcome(result domain.LoadFeedResult) string {
	switch {
	case result.Err == nil:
		return OutcomeSuccess
	case errors.Is(result.Err, usecase.ErrInvalidData):
		return OutcomeInvalidData
	default:
		return OutcomeConnectivity
	}
}
