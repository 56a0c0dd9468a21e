package graph

// Snapshot is the whole node/edge set for one graph id. It is the unit of
// storage, transmission, undo and merge; writes always replace it wholesale.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty reports whether the snapshot holds no nodes
func (s Snapshot) Empty() bool {
	return len(s.Nodes) == 0
}

// NodeByID returns the node with the given id
func (s Snapshot) NodeByID(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodePosition returns the slice position of a node by id
func (s Snapshot) NodePosition(id string) (int, bool) {
	for i, n := range s.Nodes {
		if n.ID == id {
			return i, true
		}
	}
	return 0, false
}

// NodeIndex builds an id-keyed lookup map over the node list
func (s Snapshot) NodeIndex() map[string]Node {
	index := make(map[string]Node, len(s.Nodes))
	for _, n := range s.Nodes {
		index[n.ID] = n
	}
	return index
}

// Clone deep-copies the snapshot so held references stay valid for
// diffing and undo after the live snapshot moves on
func (s Snapshot) Clone() Snapshot {
	clone := Snapshot{
		Nodes: make([]Node, len(s.Nodes)),
		Edges: make([]Edge, len(s.Edges)),
	}
	for i, n := range s.Nodes {
		clone.Nodes[i] = n.Clone()
	}
	copy(clone.Edges, s.Edges)
	return clone
}

// DanglingEdges returns edges referencing nodes absent from the snapshot.
// These are surfaced as warnings, never erased.
func (s Snapshot) DanglingEdges() []Edge {
	index := s.NodeIndex()
	var dangling []Edge
	for _, e := range s.Edges {
		if _, ok := index[e.From]; !ok {
			dangling = append(dangling, e)
			continue
		}
		if _, ok := index[e.To]; !ok {
			dangling = append(dangling, e)
		}
	}
	return dangling
}

// DependencyEdgeExists reports whether a depends-on edge already links from to to
func (s Snapshot) DependencyEdgeExists(from, to string) bool {
	for _, e := range s.Edges {
		if e.Relation == RelationDependsOn && e.From == from && e.To == to {
			return true
		}
	}
	return false
}
