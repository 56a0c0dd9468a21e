package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mergeStamp = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestChildGraphID(t *testing.T) {
	assert.Equal(t, "graph-7", ChildGraphID("node-7"))
	assert.Equal(t, "graph-custom", ChildGraphID("custom"))
}

func TestMergeEmptyChildLeavesParentUntouched(t *testing.T) {
	parent := chainSnapshot(3)

	merged, ok := MergeChildIntoParent(parent, Snapshot{}, mergeStamp)

	assert.False(t, ok)
	assert.Equal(t, parent, merged)
}

func TestMergeChildWinsOnConflict(t *testing.T) {
	parent := Snapshot{
		Nodes: []Node{
			{ID: "node-1", Label: "Old", X: 1, Fields: map[string]interface{}{"status": "todo"}},
			{ID: "node-2", Label: "Kept"},
		},
	}
	child := Snapshot{
		Nodes: []Node{
			{ID: "node-1", Label: "New", X: 9, Fields: map[string]interface{}{"status": "done"}},
		},
	}

	merged, ok := MergeChildIntoParent(parent, child, mergeStamp)

	require.True(t, ok)
	require.Len(t, merged.Nodes, 2)
	assert.Equal(t, "New", merged.Nodes[0].Label)
	assert.Equal(t, float64(9), merged.Nodes[0].X)
	assert.Equal(t, "done", merged.Nodes[0].Fields["status"])
	assert.Equal(t, mergeStamp.UTC().Format(time.RFC3339), merged.Nodes[0].UpdatedAt)
	assert.Equal(t, "Kept", merged.Nodes[1].Label)
}

func TestMergeChildFieldMapReplacesParentWholesale(t *testing.T) {
	parent := Snapshot{
		Nodes: []Node{{ID: "node-1", Fields: map[string]interface{}{"start": "2025-01-01", "status": "todo"}}},
	}
	child := Snapshot{
		Nodes: []Node{{ID: "node-1", Fields: map[string]interface{}{"status": "done"}}},
	}

	merged, ok := MergeChildIntoParent(parent, child, mergeStamp)

	require.True(t, ok)
	_, hasStart := merged.Nodes[0].Fields["start"]
	assert.False(t, hasStart, "parent-only field must not survive a child field map")
	assert.Equal(t, "done", merged.Nodes[0].Fields["status"])
}

func TestMergePreservesParentOrderThenAppendsChildOnly(t *testing.T) {
	parent := Snapshot{Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	child := Snapshot{Nodes: []Node{{ID: "c"}, {ID: "d"}, {ID: "a"}}}

	merged, ok := MergeChildIntoParent(parent, child, mergeStamp)

	require.True(t, ok)
	order := make([]string, 0, len(merged.Nodes))
	for _, n := range merged.Nodes {
		order = append(order, n.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
}

func TestMergeSupersedesParentEdgesInsideChildSubset(t *testing.T) {
	parent := Snapshot{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "x"}},
		Edges: []Edge{
			{ID: "p1", From: "a", To: "b", Relation: RelationDependsOn},
			{ID: "p2", From: "a", To: "x", Relation: RelationRelated},
		},
	}
	child := Snapshot{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{{ID: "c1", From: "b", To: "a", Relation: RelationDependsOn}},
	}

	merged, ok := MergeChildIntoParent(parent, child, mergeStamp)

	require.True(t, ok)
	ids := make([]string, 0, len(merged.Edges))
	for _, e := range merged.Edges {
		ids = append(ids, e.ID)
	}
	// p1 dropped (both endpoints in child subset), p2 survives, c1 appended.
	assert.ElementsMatch(t, []string{"p2", "c1"}, ids)
}

func TestMergeDeduplicatesEdgesByEndpointsAndRelation(t *testing.T) {
	parent := Snapshot{
		Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "x"}},
		Edges: []Edge{{ID: "p1", From: "a", To: "x", Relation: RelationRelated}},
	}
	child := Snapshot{
		Nodes: []Node{{ID: "a"}, {ID: "x2"}},
		Edges: []Edge{
			{ID: "c1", From: "a", To: "x", Relation: RelationRelated},
			{ID: "c2", From: "a", To: "x"}, // empty relation defaults to related
		},
	}

	merged, ok := MergeChildIntoParent(parent, child, mergeStamp)

	require.True(t, ok)
	require.Len(t, merged.Edges, 1)
	assert.Equal(t, "p1", merged.Edges[0].ID)
}

func TestMergeIsIdempotent(t *testing.T) {
	parent := chainSnapshot(5)
	child := ExtractSubgraph(parent, "node-2", DefaultSubgraphLimit)

	once, ok := MergeChildIntoParent(parent, child, mergeStamp)
	require.True(t, ok)
	twice, ok := MergeChildIntoParent(once, child, mergeStamp)
	require.True(t, ok)

	assert.Equal(t, once.Nodes, twice.Nodes)
	assert.Equal(t, once.Edges, twice.Edges)
}
