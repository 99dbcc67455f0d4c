// Package metrics provides the fire-and-forget sink the experiment engine
// reports counters and gauges to. Sink implementations must never fail the
// caller; a metric that can't be recorded is dropped.
package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink receives counter increments and gauge sets with free-form tags.
type Sink interface {
	Increment(name string, value float64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
}

// Nop discards everything. It's the default when no sink is configured.
type Nop struct{}

func (Nop) Increment(string, float64, map[string]string) {}
func (Nop) Gauge(string, float64, map[string]string)     {}

// Prometheus adapts the generic Sink surface onto prometheus vectors.
// Vectors are registered lazily on first use; the tag keys seen on that
// first call become the vector's label names. Later calls with a
// mismatched tag set are dropped rather than surfaced as errors.
type Prometheus struct {
	mu       sync.Mutex
	reg      prometheus.Registerer
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
	labels   map[string][]string
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	return &Prometheus{
		reg:      reg,
		counters: make(map[string]*prometheus.CounterVec),
		gauges:   make(map[string]*prometheus.GaugeVec),
		labels:   make(map[string][]string),
	}
}

func (p *Prometheus) Increment(name string, value float64, tags map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := sanitizeName(name)
	vec, ok := p.counters[key]
	if !ok {
		names := sortedKeys(tags)
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: key,
			Help: "Counter " + name + " reported by the experiment engine.",
		}, names)
		if err := p.reg.Register(vec); err != nil {
			return
		}
		p.counters[key] = vec
		p.labels["c:"+key] = names
	}

	m, err := vec.GetMetricWith(p.labelValues("c:"+key, tags))
	if err != nil {
		return
	}
	m.Add(value)
}

func (p *Prometheus) Gauge(name string, value float64, tags map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := sanitizeName(name)
	vec, ok := p.gauges[key]
	if !ok {
		names := sortedKeys(tags)
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: key,
			Help: "Gauge " + name + " reported by the experiment engine.",
		}, names)
		if err := p.reg.Register(vec); err != nil {
			return
		}
		p.gauges[key] = vec
		p.labels["g:"+key] = names
	}

	m, err := vec.GetMetricWith(p.labelValues("g:"+key, tags))
	if err != nil {
		return
	}
	m.Set(value)
}

// labelValues builds a full label map against the names registered for the
// vector, filling tags absent on this call with "".
func (p *Prometheus) labelValues(key string, tags map[string]string) prometheus.Labels {
	out := make(prometheus.Labels, len(p.labels[key]))
	for _, name := range p.labels[key] {
		out[name] = tags[name]
	}
	return out
}

func sortedKeys(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sanitizeName maps dotted metric names onto the prometheus charset.
func sanitizeName(name string) string {
	var b strings.Builder
	b.WriteString("bexp_")
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
