package graph

// Relation describes how two nodes are connected
type Relation string

const (
	RelationDependsOn Relation = "depends-on"
	RelationBlocks    Relation = "blocks"
	RelationRelated   Relation = "related"
	RelationParent    Relation = "parent"
)

// DependencyType is the precedence-constraint kind of a depends-on edge
type DependencyType string

const (
	DependencyFS DependencyType = "FS" // finish-to-start
	DependencySS DependencyType = "SS" // start-to-start
	DependencyFF DependencyType = "FF" // finish-to-finish
	DependencySF DependencyType = "SF" // start-to-finish
)

// IsDependencyType reports whether value is one of the four precedence kinds
func IsDependencyType(value string) bool {
	switch DependencyType(value) {
	case DependencyFS, DependencySS, DependencyFF, DependencySF:
		return true
	}
	return false
}

// Edge connects two nodes within a snapshot. The id is required so edges
// survive reconciliation; DependencyType is meaningful only for depends-on.
type Edge struct {
	ID             string   `json:"id"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	Relation       Relation `json:"relation,omitempty"`
	DependencyType string   `json:"dependencyType,omitempty"`
	CreatedAt      string   `json:"createdAt,omitempty"`
}

// EffectiveDependencyType resolves the edge's dependency type, treating an
// absent value as FS. A present but unknown value also falls back to FS for
// display purposes; the validator surfaces it separately.
func (e Edge) EffectiveDependencyType() DependencyType {
	if e.DependencyType == "" {
		return DependencyFS
	}
	if IsDependencyType(e.DependencyType) {
		return DependencyType(e.DependencyType)
	}
	return DependencyFS
}

// dedupKey is the composite identity used when merging edge lists
func (e Edge) dedupKey() string {
	relation := e.Relation
	if relation == "" {
		relation = RelationRelated
	}
	return e.From + "->" + e.To + ":" + string(relation)
}
