package workspace

// Offset is a canvas translation in graph coordinates
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrillContext captures the parent graph's viewport and selection at the
// moment of drilling away from it; it is restored verbatim on return
type DrillContext struct {
	GraphID                string  `json:"graphId"`
	Offset                 Offset  `json:"offset"`
	Scale                  float64 `json:"scale"`
	SelectedID             string  `json:"selectedId,omitempty"`
	SelectedClassification string  `json:"selectedClassification,omitempty"`
}

// Breadcrumb is the display entry for one drill level
type Breadcrumb struct {
	GraphID       string `json:"graphId"`
	ParentGraphID string `json:"parentGraphId"`
	NodeID        string `json:"nodeId"`
	Label         string `json:"label"`
}

// navFrame pairs a drill context with its breadcrumb in a single record so
// the two stacks cannot drift out of lockstep
type navFrame struct {
	ctx   DrillContext
	crumb Breadcrumb
}
