package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainSnapshot(n int) Snapshot {
	s := Snapshot{Nodes: []Node{}, Edges: []Edge{}}
	for i := 0; i < n; i++ {
		s.Nodes = append(s.Nodes, Node{ID: fmt.Sprintf("node-%d", i), Label: fmt.Sprintf("Node %d", i)})
		if i > 0 {
			s.Edges = append(s.Edges, Edge{
				ID:       fmt.Sprintf("edge-%d", i),
				From:     fmt.Sprintf("node-%d", i-1),
				To:       fmt.Sprintf("node-%d", i),
				Relation: RelationRelated,
			})
		}
	}
	return s
}

func TestExtractSubgraphIsolatedNode(t *testing.T) {
	s := Snapshot{
		Nodes: []Node{{ID: "node-a"}, {ID: "node-b"}},
		Edges: []Edge{},
	}

	sub := ExtractSubgraph(s, "node-a", DefaultSubgraphLimit)

	require.Len(t, sub.Nodes, 1)
	assert.Equal(t, "node-a", sub.Nodes[0].ID)
	assert.Empty(t, sub.Edges)
}

func TestExtractSubgraphFollowsBothDirections(t *testing.T) {
	s := Snapshot{
		Nodes: []Node{{ID: "node-a"}, {ID: "node-b"}, {ID: "node-c"}, {ID: "node-d"}},
		Edges: []Edge{
			{ID: "e1", From: "node-a", To: "node-b", Relation: RelationRelated},
			{ID: "e2", From: "node-c", To: "node-a", Relation: RelationRelated},
		},
	}

	sub := ExtractSubgraph(s, "node-a", DefaultSubgraphLimit)

	ids := make([]string, 0, len(sub.Nodes))
	for _, n := range sub.Nodes {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{"node-a", "node-b", "node-c"}, ids)
	assert.Len(t, sub.Edges, 2)
}

func TestExtractSubgraphCapsAtLimit(t *testing.T) {
	s := chainSnapshot(80)

	sub := ExtractSubgraph(s, "node-0", DefaultSubgraphLimit)

	assert.Len(t, sub.Nodes, DefaultSubgraphLimit)
	// Every surviving edge has both endpoints inside the subset.
	kept := make(map[string]bool, len(sub.Nodes))
	for _, n := range sub.Nodes {
		kept[n.ID] = true
	}
	for _, e := range sub.Edges {
		assert.True(t, kept[e.From], "edge %s has dangling from", e.ID)
		assert.True(t, kept[e.To], "edge %s has dangling to", e.ID)
	}
}

func TestExtractSubgraphMissingRootFallsBackToFirstNode(t *testing.T) {
	s := chainSnapshot(3)

	sub := ExtractSubgraph(s, "node-missing", DefaultSubgraphLimit)

	require.NotEmpty(t, sub.Nodes)
	assert.Equal(t, "node-0", sub.Nodes[0].ID)
}

func TestExtractSubgraphEmptySnapshot(t *testing.T) {
	sub := ExtractSubgraph(Snapshot{}, "node-a", DefaultSubgraphLimit)

	assert.NotNil(t, sub.Nodes)
	assert.NotNil(t, sub.Edges)
	assert.Empty(t, sub.Nodes)
	assert.Empty(t, sub.Edges)
}
