package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"equipment-booking-backend/internal/inventory"
	"equipment-booking-backend/internal/model"
)

const namespace = "gearbook"

// Source is the read model the inventory collector samples on every scrape.
type Source interface {
	Snapshot() inventory.Snapshot
}

// Metrics owns the registry and the counters updated by the service.
type Metrics struct {
	registry *prometheus.Registry

	PersistFailures *prometheus.CounterVec
	ImportedRows    prometheus.Counter
	ImportErrors    prometheus.Counter
}

// New creates the registry with process and Go collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Collection writes that failed, by collection key.",
		}, []string{"key"}),
		ImportedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Equipment rows created by imports.",
		}),
		ImportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_row_errors_total",
			Help:      "Import rows skipped because of errors.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PersistFailures,
		m.ImportedRows,
		m.ImportErrors,
	)
	return m
}

// ObservePersistError matches inventory.Options.OnPersistError.
func (m *Metrics) ObservePersistError(key string, _ error) {
	m.PersistFailures.WithLabelValues(key).Inc()
}

// WatchInventory registers gauges computed from src at scrape time.
func (m *Metrics) WatchInventory(src Source) error {
	return m.registry.Register(newInventoryCollector(src))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type inventoryCollector struct {
	src       Source
	equipment *prometheus.Desc
	roots     *prometheus.Desc
	bookings  *prometheus.Desc
}

func newInventoryCollector(src Source) *inventoryCollector {
	return &inventoryCollector{
		src: src,
		equipment: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "equipment_items"),
			"Equipment items in the inventory.", nil, nil),
		roots: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "equipment_roots"),
			"Top-level equipment items.", nil, nil),
		bookings: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bookings"),
			"Bookings by status.", []string{"status"}, nil),
	}
}

func (c *inventoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.equipment
	ch <- c.roots
	ch <- c.bookings
}

func (c *inventoryCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.src.Snapshot()

	roots := 0
	for _, e := range snap.Equipment {
		if e.IsRoot() {
			roots++
		}
	}
	ch <- prometheus.MustNewConstMetric(c.equipment, prometheus.GaugeValue, float64(len(snap.Equipment)))
	ch <- prometheus.MustNewConstMetric(c.roots, prometheus.GaugeValue, float64(roots))

	byStatus := make(map[model.BookingStatus]int, len(model.BookingStatuses))
	for _, b := range snap.Bookings {
		byStatus[b.Status]++
	}
	for _, s := range model.BookingStatuses {
		ch <- prometheus.MustNewConstMetric(c.bookings, prometheus.GaugeValue, float64(byStatus[s]), string(s))
	}
}
