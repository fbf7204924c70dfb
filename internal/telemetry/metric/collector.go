package metric

import "github.com/prometheus/client_golang/prometheus"

// IdleCounter reports idle pooled sessions per identity.
type IdleCounter interface {
	IdleByIdentity() map[string]int
}

// Collector exports the session pool's idle counts at scrape time.
type Collector struct {
	source IdleCounter
	idle   *prometheus.Desc
}

// NewCollector creates a collector reading from source.
func NewCollector(source IdleCounter) *Collector {
	return &Collector{
		source: source,
		idle: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "pool", "idle_sessions"),
			"Idle pooled sessions per ledger identity.",
			[]string{"identity"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.idle
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for identity, n := range c.source.IdleByIdentity() {
		ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(n), identity)
	}
}

// RegisterPool exports idle pool sizes from source.
func (r *Registry) RegisterPool(source IdleCounter) error {
	return r.reg.Register(NewCollector(source))
}
