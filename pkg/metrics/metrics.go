package metrics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrLabelCountMismatch is returned when the number of label values doesn't
// match the labels a metric was registered with.
var ErrLabelCountMismatch = errors.New("label count mismatch")

// ErrNegativeCounterValue is returned when a counter would be decreased.
var ErrNegativeCounterValue = errors.New("counter cannot be decreased")

// ErrDuplicateMetric is returned when a metric name is registered twice.
var ErrDuplicateMetric = errors.New("duplicate metric name")

// Type is the Prometheus metric type.
type Type string

const (
	TypeCounter   Type = "counter"
	TypeGauge     Type = "gauge"
	TypeHistogram Type = "histogram"
)

// Sample is a single exposition line.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Metric is implemented by everything a Registry can hold.
type Metric interface {
	Name() string
	Help() string
	Type() Type
	Collect() []Sample
}

// atomicFloat64 stores float64 bits in a uint64 for lock-free updates.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Load() float64 { return math.Float64frombits(a.bits.Load()) }

func (a *atomicFloat64) Add(delta float64) {
	for {
		old := a.bits.Load()
		next := math.Float64frombits(old) + delta
		if a.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return
		}
	}
}

// series is the label-keyed storage shared by every metric type.
type series[T any] struct {
	name       string
	help       string
	labelNames []string
	newValue   func() *T

	mu     sync.RWMutex
	keys   []string
	labels map[string]map[string]string
	values map[string]*T
}

func newSeries[T any](name, help string, labelNames []string, newValue func() *T) *series[T] {
	return &series[T]{
		name:       name,
		help:       help,
		labelNames: labelNames,
		newValue:   newValue,
		labels:     make(map[string]map[string]string),
		values:     make(map[string]*T),
	}
}

func (s *series[T]) Name() string { return s.name }
func (s *series[T]) Help() string { return s.help }

// get returns the value for the label combination, creating it on first use.
func (s *series[T]) get(values []string) (*T, error) {
	if len(values) != len(s.labelNames) {
		return nil, fmt.Errorf("%w: %s expected %d labels, got %d", ErrLabelCountMismatch, s.name, len(s.labelNames), len(values))
	}
	key := strings.Join(values, "\x00")

	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok = s.values[key]; ok {
		return v, nil
	}
	labels := make(map[string]string, len(values))
	for i, name := range s.labelNames {
		labels[name] = values[i]
	}
	v = s.newValue()
	s.values[key] = v
	s.labels[key] = labels
	s.keys = append(s.keys, key)
	return v, nil
}

// each visits values in first-use order.
func (s *series[T]) each(fn func(labels map[string]string, v *T)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, key := range s.keys {
		fn(s.labels[key], s.values[key])
	}
}

// Counter only goes up.
type Counter struct {
	*series[atomicFloat64]
}

func (c *Counter) Type() Type { return TypeCounter }

// Inc adds one to the series selected by values.
func (c *Counter) Inc(values ...string) error {
	return c.Add(1, values...)
}

// Add adds delta, which must not be negative.
func (c *Counter) Add(delta float64, values ...string) error {
	if delta < 0 {
		return ErrNegativeCounterValue
	}
	v, err := c.get(values)
	if err != nil {
		return err
	}
	v.Add(delta)
	return nil
}

// Value returns the current count, or 0 for an unseen label combination.
func (c *Counter) Value(values ...string) float64 {
	v, err := c.get(values)
	if err != nil {
		return 0
	}
	return v.Load()
}

func (c *Counter) Collect() []Sample {
	var out []Sample
	c.each(func(labels map[string]string, v *atomicFloat64) {
		out = append(out, Sample{Name: c.name, Labels: labels, Value: v.Load()})
	})
	return out
}

// GaugeFunc is an unlabeled gauge whose value is read at scrape time.
type GaugeFunc struct {
	name string
	help string
	fn   func() float64
}

func (g *GaugeFunc) Name() string { return g.name }
func (g *GaugeFunc) Help() string { return g.help }
func (g *GaugeFunc) Type() Type { return TypeGauge }

func (g *GaugeFunc) Collect() []Sample {
	return []Sample{{Name: g.name, Value: g.fn()}}
}

type histogramValue struct {
	counts []atomic.Uint64
	sum    atomicFloat64
	count  atomic.Uint64
}

// Histogram counts observations into cumulative buckets.
type Histogram struct {
	*series[histogramValue]
	buckets []float64
}

func (h *Histogram) Type() Type { return TypeHistogram }

// Observe records value in the series selected by values.
func (h *Histogram) Observe(value float64, values ...string) error {
	hv, err := h.get(values)
	if err != nil {
		return err
	}
	if i := sort.SearchFloat64s(h.buckets, value); i < len(h.buckets) {
		hv.counts[i].Add(1)
	}
	hv.sum.Add(value)
	hv.count.Add(1)
	return nil
}

// Count returns the number of observations for a label combination.
func (h *Histogram) Count(values ...string) uint64 {
	hv, err := h.get(values)
	if err != nil {
		return 0
	}
	return hv.count.Load()
}

func (h *Histogram) Collect() []Sample {
	var out []Sample
	h.each(func(labels map[string]string, hv *histogramValue) {
		var cumulative uint64
		for i, bound := range h.buckets {
			cumulative += hv.counts[i].Load()
			le := make(map[string]string, len(labels)+1)
			for k, v := range labels {
				le[k] = v
			}
			le["le"] = formatFloat(bound)
			out = append(out, Sample{Name: h.name + "_bucket", Labels: le, Value: float64(cumulative)})
		}
		out = append(out,
			Sample{Name: h.name + "_sum", Labels: labels, Value: hv.sum.Load()},
			Sample{Name: h.name + "_count", Labels: labels, Value: float64(hv.count.Load())},
		)
	})
	return out
}

// DefaultBuckets are request duration buckets in seconds.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Registry holds registered metrics in registration order.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
	names   map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// NewCounter registers a counter.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	c := &Counter{newSeries(name, help, labels, func() *atomicFloat64 { return new(atomicFloat64) })}
	r.register(c)
	return c
}

// NewGaugeFunc registers a gauge backed by fn.
func (r *Registry) NewGaugeFunc(name, help string, fn func() float64) *GaugeFunc {
	g := &GaugeFunc{name: name, help: help, fn: fn}
	r.register(g)
	return g
}

// NewHistogram registers a histogram. A +Inf bucket is appended when missing.
func (r *Registry) NewHistogram(name, help string, buckets []float64, labels ...string) *Histogram {
	b := slices.Clone(buckets)
	sort.Float64s(b)
	if len(b) == 0 || !math.IsInf(b[len(b)-1], 1) {
		b = append(b, math.Inf(1))
	}
	h := &Histogram{buckets: b}
	h.series = newSeries(name, help, labels, func() *histogramValue {
		return &histogramValue{counts: make([]atomic.Uint64, len(b))}
	})
	r.register(h)
	return h
}

// register panics on duplicates since they would produce invalid output.
func (r *Registry) register(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[m.Name()]; exists {
		panic(fmt.Sprintf("%s: %s", ErrDuplicateMetric, m.Name()))
	}
	r.names[m.Name()] = struct{}{}
	r.metrics = append(r.metrics, m)
}

// WriteTo writes every metric in the Prometheus text format.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	r.mu.RLock()
	metrics := slices.Clone(r.metrics)
	r.mu.RUnlock()

	var b strings.Builder
	for _, m := range metrics {
		samples := m.Collect()
		if len(samples) == 0 {
			continue
		}
		fmt.Fprintf(&b, "# HELP %s %s\n", m.Name(), escapeHelp(m.Help()))
		fmt.Fprintf(&b, "# TYPE %s %s\n", m.Name(), m.Type())
		for _, s := range samples {
			if len(s.Labels) == 0 {
				fmt.Fprintf(&b, "%s %s\n", s.Name, formatFloat(s.Value))
				continue
			}
			fmt.Fprintf(&b, "%s{%s} %s\n", s.Name, formatLabels(s.Labels), formatFloat(s.Value))
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Handler serves the registry.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = r.WriteTo(w)
	})
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + `="` + escapeLabelValue(labels[k]) + `"`
	}
	return strings.Join(parts, ",")
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%g", v)
	}
}

func escapeHelp(s string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(s)
}

func escapeLabelValue(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s)
}
