package graph

import (
	"strings"
	"time"
)

// ChildGraphID derives the deterministic sub-graph id for a drilled node.
// A "node-X" id maps to "graph-X" so repeated drills address the same graph.
func ChildGraphID(nodeID string) string {
	key := nodeID
	if strings.HasPrefix(nodeID, "node-") {
		key = strings.TrimPrefix(nodeID, "node-")
	}
	return "graph-" + key
}

// MergeChildIntoParent reconciles edits made in a sub-graph back into its
// parent on return. It is a one-way overwrite merge: conflicting node fields
// resolve child-wins, parent list ordering is preserved, and edges fully
// inside the child's node set are superseded by the child's edge list.
// Returns merged=false when the child is empty (nothing to merge).
func MergeChildIntoParent(parent, child Snapshot, now time.Time) (Snapshot, bool) {
	if child.Empty() {
		return parent, false
	}
	stamp := now.UTC().Format(time.RFC3339)

	merged := make(map[string]Node, len(parent.Nodes)+len(child.Nodes))
	for _, n := range parent.Nodes {
		merged[n.ID] = n
	}
	childIDs := make(map[string]bool, len(child.Nodes))
	for _, c := range child.Nodes {
		childIDs[c.ID] = true
		if p, ok := merged[c.ID]; ok {
			merged[c.ID] = overlayNode(p, c, stamp)
		} else {
			inserted := c.Clone()
			inserted.UpdatedAt = stamp
			merged[c.ID] = inserted
		}
	}

	// Parent ordering first, then child-only nodes, first occurrence wins.
	mergedNodes := make([]Node, 0, len(merged))
	seen := make(map[string]bool, len(merged))
	for _, n := range parent.Nodes {
		if seen[n.ID] {
			continue
		}
		mergedNodes = append(mergedNodes, merged[n.ID])
		seen[n.ID] = true
	}
	for _, n := range child.Nodes {
		if seen[n.ID] {
			continue
		}
		mergedNodes = append(mergedNodes, merged[n.ID])
		seen[n.ID] = true
	}

	// Parent edges entirely inside the child subset are superseded.
	mergedEdges := make([]Edge, 0, len(parent.Edges)+len(child.Edges))
	for _, e := range parent.Edges {
		if childIDs[e.From] && childIDs[e.To] {
			continue
		}
		mergedEdges = append(mergedEdges, e)
	}
	mergedEdges = append(mergedEdges, child.Edges...)

	dedupedEdges := make([]Edge, 0, len(mergedEdges))
	edgeKeys := make(map[string]bool, len(mergedEdges))
	for _, e := range mergedEdges {
		key := e.dedupKey()
		if edgeKeys[key] {
			continue
		}
		edgeKeys[key] = true
		dedupedEdges = append(dedupedEdges, e)
	}

	return Snapshot{Nodes: mergedNodes, Edges: dedupedEdges}, true
}

// overlayNode shallow-merges the child node over the parent node: every
// child property wins, including the whole field map when the child has one
func overlayNode(parent, child Node, stamp string) Node {
	out := child.Clone()
	if out.Fields == nil {
		out.Fields = cloneFields(parent.Fields)
	}
	if out.CreatedAt == "" {
		out.CreatedAt = parent.CreatedAt
	}
	out.UpdatedAt = stamp
	return out
}
