package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresuchdata/demand-forecast/internal/domain"
)

// Registry holds the batch pipeline collectors. A nil *Registry is valid and records nothing.
type Registry struct {
	reg               *prometheus.Registry
	ProductsProcessed *prometheus.CounterVec
	ModelSelected     *prometheus.CounterVec
	AlertsRaised      *prometheus.CounterVec
	ProductSeconds    prometheus.Histogram
	LastRunSeconds    prometheus.Gauge
	LastRunProducts   prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_products_processed_total",
		Help: "Products handled by the forecasting pipeline, by outcome.",
	}, []string{"status"})
	selected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_model_selected_total",
		Help: "Times each candidate model won selection.",
	}, []string{"model"})
	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_alerts_raised_total",
		Help: "Stock alerts raised, by severity.",
	}, []string{"type"})
	productSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "forecast_product_duration_seconds",
		Help:    "Wall time to train and project a single product.",
		Buckets: prometheus.DefBuckets,
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{Name: "forecast_last_run_duration_seconds"})
	lastProducts := prometheus.NewGauge(prometheus.GaugeOpts{Name: "forecast_last_run_products"})

	r.MustRegister(processed, selected, alerts, productSeconds, lastRun, lastProducts)
	return &Registry{
		reg:               r,
		ProductsProcessed: processed,
		ModelSelected:     selected,
		AlertsRaised:      alerts,
		ProductSeconds:    productSeconds,
		LastRunSeconds:    lastRun,
		LastRunProducts:   lastProducts,
	}
}

// ObserveOutcome records one product result.
func (r *Registry) ObserveOutcome(o domain.RunOutcome) {
	if r == nil {
		return
	}
	r.ProductsProcessed.WithLabelValues(string(o.Status)).Inc()
	if o.Status != domain.OutcomeOK {
		return
	}
	r.ProductSeconds.Observe(o.Duration.Seconds())
	if o.ModelUsed != "" {
		r.ModelSelected.WithLabelValues(o.ModelUsed).Inc()
	}
	if o.Alert != nil {
		r.AlertsRaised.WithLabelValues(string(o.Alert.AlertType)).Inc()
	}
}

func (r *Registry) ObserveRun(products int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.LastRunProducts.Set(float64(products))
	r.LastRunSeconds.Set(elapsed.Seconds())
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
