// Package metrics provides a small contract for named, self-describing
// computations over land-cover data.
//
// Each metric declares its input and output types and carries metadata used
// by reports and the MCP tool listing.
package metrics

import "slices"

// Metric is a named computation from In to Out.
type Metric[In, Out any] interface {
	// Name returns the machine-readable identifier (snake_case, unique).
	Name() string

	// DisplayName returns a human-readable name for reports.
	DisplayName() string

	// Description explains what the metric measures and its units.
	Description() string

	// Type returns the metric category (e.g. "table", "graph", "aggregate").
	Type() string

	// Compute calculates the metric value from input data.
	Compute(input In) Out
}

// MetricMeta holds the common metadata for a metric.
// Embed this in metric implementations to satisfy metadata methods.
type MetricMeta struct {
	MetricName        string
	MetricDisplayName string
	MetricDescription string
	MetricType        string
}

// Name returns the machine-readable identifier.
func (m MetricMeta) Name() string { return m.MetricName }

// DisplayName returns a human-readable name for reports.
func (m MetricMeta) DisplayName() string { return m.MetricDisplayName }

// Description returns detailed documentation.
func (m MetricMeta) Description() string { return m.MetricDescription }

// Type returns the metric category.
func (m MetricMeta) Type() string { return m.MetricType }

// Descriptor is the metadata-only view of a metric.
type Descriptor interface {
	Name() string
	DisplayName() string
	Description() string
	Type() string
}

// Registry holds a collection of metrics keyed by name.
type Registry struct {
	metrics map[string]Descriptor
}

// NewRegistry creates an empty metric registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Descriptor)}
}

// Register adds a metric to the registry, replacing one with the same name.
func Register[In, Out any](r *Registry, m Metric[In, Out]) {
	r.metrics[m.Name()] = m
}

// Get retrieves a metric by name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	m, ok := r.metrics[name]

	return m, ok
}

// Names returns all registered metric names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.metrics))

	for name := range r.metrics {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Descriptors returns all registered metrics sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.metrics))
	for _, name := range r.Names() {
		out = append(out, r.metrics[name])
	}

	return out
}
