// Package metrics exposes launcher counters in the Prometheus format.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Recorder is the metrics surface used by services and middleware.
type Recorder interface {
	RecordRegistration(result string)
	RecordLogin(result string)
	RecordCatalogOp(op, result string)
	RecordPlay()
	RecordOrphansRepaired(n int64)
	RecordHTTPStatus(statusCode int)
}

// Collector records launcher metrics into a Prometheus registry.
type Collector struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	catalogOps    *prometheus.CounterVec
	plays         prometheus.Counter
	repaired      prometheus.Counter
	httpStatus    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launcher_registrations_total",
			Help: "Registration attempts by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launcher_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		catalogOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launcher_catalog_operations_total",
			Help: "Catalog operations by name and result.",
		}, []string{"op", "result"}),
		plays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launcher_plays_total",
			Help: "Games started through the launcher.",
		}),
		repaired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launcher_orphans_repaired_total",
			Help: "Games moved back to the default category by orphan repair.",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launcher_http_status_total",
			Help: "Local API responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.catalogOps,
		c.plays,
		c.repaired,
		c.httpStatus,
	)

	return c
}

func (c *Collector) RecordRegistration(result string) {
	c.registrations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordCatalogOp(op, result string) {
	c.catalogOps.WithLabelValues(op, result).Inc()
}

func (c *Collector) RecordPlay() {
	c.plays.Inc()
}

func (c *Collector) RecordOrphansRepaired(n int64) {
	if n > 0 {
		c.repaired.Add(float64(n))
	}
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Noop discards every measurement. The CLI uses it.
type Noop struct{}

func (Noop) RecordRegistration(string)   {}
func (Noop) RecordLogin(string)          {}
func (Noop) RecordCatalogOp(_, _ string) {}
func (Noop) RecordPlay()                 {}
func (Noop) RecordOrphansRepaired(int64) {}
func (Noop) RecordHTTPStatus(int)        {}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
