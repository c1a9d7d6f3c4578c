package flowgraph

import (
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
	"github.com/Sumatoshi-tech/lulcflow/pkg/metrics"
)

// TransitionFlowMetric builds the acyclic transition graph.
type TransitionFlowMetric struct {
	metrics.MetricMeta
}

// NewTransitionFlowMetric creates the transition flow metric.
func NewTransitionFlowMetric() *TransitionFlowMetric {
	return &TransitionFlowMetric{
		MetricMeta: metrics.MetricMeta{
			MetricName:        "transition_flow",
			MetricDisplayName: "Transition Flow",
			MetricDescription: "Counts of class-to-class transitions as an acyclic graph. " +
				"Edges that would close a cycle are dropped, weakest first.",
			MetricType: "graph",
		},
	}
}

// Compute builds the graph from records.
func (m *TransitionFlowMetric) Compute(records []lulc.TransitionRecord) Graph {
	return Build(records)
}
