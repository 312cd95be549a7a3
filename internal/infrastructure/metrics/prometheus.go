package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus records OTP outcomes on its own registry.
type Prometheus struct {
	registry         *prometheus.Registry
	issued           *prometheus.CounterVec
	verified         *prometheus.CounterVec
	deliveryDuration prometheus.Histogram
}

func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		issued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otp_issued_total",
				Help: "OTP issue and resend requests by outcome",
			},
			[]string{"outcome"},
		),
		verified: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otp_verified_total",
				Help: "OTP verification attempts by outcome",
			},
			[]string{"outcome"},
		),
		deliveryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "otp_delivery_duration_seconds",
				Help:    "Time spent handing a code to the delivery channel",
				Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
			},
		),
	}
}

func (p *Prometheus) IssueOutcome(outcome string)  { p.issued.WithLabelValues(outcome).Inc() }
func (p *Prometheus) VerifyOutcome(outcome string) { p.verified.WithLabelValues(outcome).Inc() }

func (p *Prometheus) ObserveDelivery(d time.Duration) {
	p.deliveryDuration.Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
