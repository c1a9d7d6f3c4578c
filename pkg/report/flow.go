package report

import (
	"github.com/Sumatoshi-tech/lulcflow/pkg/flowgraph"
	"github.com/Sumatoshi-tech/lulcflow/pkg/lulc"
)

// NodeView is a flow node tagged with its catalog label and colour.
type NodeView struct {
	Code  lulc.ClassCode `json:"code"  yaml:"code"`
	Label string         `json:"label" yaml:"label"`
	Color string         `json:"color" yaml:"color"`
	Layer int            `json:"layer" yaml:"layer"`
}

// EdgeView is a flow edge tagged with endpoint labels.
type EdgeView struct {
	Source      lulc.ClassCode `json:"source"       yaml:"source"`
	Target      lulc.ClassCode `json:"target"       yaml:"target"`
	SourceLabel string         `json:"source_label" yaml:"source_label"`
	TargetLabel string         `json:"target_label" yaml:"target_label"`
	Color       string         `json:"color"        yaml:"color"`
	Value       int            `json:"value"        yaml:"value"`
	Percentage  float64        `json:"percentage"   yaml:"percentage"`
}

// FlowDocument is the serialisable form of a flow graph.
type FlowDocument struct {
	TotalTransitions int        `json:"total_transitions" yaml:"total_transitions"`
	Nodes            []NodeView `json:"nodes"             yaml:"nodes"`
	Edges            []EdgeView `json:"edges"             yaml:"edges"`
	Rejected         []EdgeView `json:"rejected"          yaml:"rejected"`
}

// Empty reports whether there is nothing to render.
func (d FlowDocument) Empty() bool {
	return len(d.Edges) == 0
}

// NewFlowDocument labels graph with catalog.
func NewFlowDocument(catalog *lulc.Catalog, graph flowgraph.Graph) FlowDocument {
	if catalog == nil {
		catalog = lulc.DefaultCatalog()
	}

	layerOf := make(map[lulc.ClassCode]int)
	for i, layer := range graph.Layers() {
		for _, code := range layer {
			layerOf[code] = i
		}
	}

	doc := FlowDocument{
		TotalTransitions: graph.TotalTransitions,
		Nodes:            make([]NodeView, 0, len(graph.Nodes)),
		Edges:            edgeViews(catalog, graph.Edges),
		Rejected:         edgeViews(catalog, graph.Rejected),
	}

	for _, code := range graph.Nodes {
		doc.Nodes = append(doc.Nodes, NodeView{
			Code:  code,
			Label: catalog.Label(code),
			Color: catalog.Color(code),
			Layer: layerOf[code],
		})
	}

	return doc
}

func edgeViews(catalog *lulc.Catalog, edges []flowgraph.Edge) []EdgeView {
	out := make([]EdgeView, 0, len(edges))

	for _, e := range edges {
		out = append(out, EdgeView{
			Source:      e.Source,
			Target:      e.Target,
			SourceLabel: catalog.Label(e.Source),
			TargetLabel: catalog.Label(e.Target),
			Color:       catalog.Color(e.Source),
			Value:       e.Value,
			Percentage:  e.Percentage,
		})
	}

	return out
}
