package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdm-backend/domain/graph"
)

func task(id, label, start, end string) graph.Node {
	fields := map[string]interface{}{}
	if start != "" {
		fields["start"] = start
	}
	if end != "" {
		fields["end"] = end
	}
	return graph.Node{ID: id, Label: label, Kind: graph.KindTask, Fields: fields}
}

func dep(from, to, depType string) graph.Edge {
	return graph.Edge{
		ID:             "dep-" + from + "-" + to,
		From:           from,
		To:             to,
		Relation:       graph.RelationDependsOn,
		DependencyType: depType,
	}
}

func TestValidateOnlyTasksAppear(t *testing.T) {
	nodes := []graph.Node{
		{ID: "idea-1", Kind: graph.KindIdea},
		task("t1", "Task 1", "2025-01-02", "2025-01-03"),
	}

	result := Validate(nodes, nil)

	require.Len(t, result, 1)
	_, ok := result["t1"]
	assert.True(t, ok)
}

func TestValidateNoDependenciesNeverBlocked(t *testing.T) {
	result := Validate([]graph.Node{task("t1", "Task 1", "", "")}, nil)

	require.Contains(t, result, "t1")
	assert.False(t, result["t1"].Blocked)
	assert.Empty(t, result["t1"].Reasons)
}

func TestValidateFSViolation(t *testing.T) {
	nodes := []graph.Node{
		task("t1", "Downstream", "2025-01-05", ""),
		task("t2", "Upstream", "2025-01-01", "2025-01-10"),
	}
	edges := []graph.Edge{dep("t1", "t2", "")}

	result := Validate(nodes, edges)

	require.True(t, result["t1"].Blocked)
	assert.Equal(t, []string{"FS: start(2025-01-05) < upstream(Upstream) end(2025-01-10)"}, result["t1"].Reasons)
}

func TestValidateFSBoundaryEqualityClears(t *testing.T) {
	nodes := []graph.Node{
		task("t1", "Downstream", "2025-01-10", ""),
		task("t2", "Upstream", "2025-01-01", "2025-01-10"),
	}
	edges := []graph.Edge{dep("t1", "t2", "FS")}

	result := Validate(nodes, edges)

	assert.False(t, result["t1"].Blocked)
}

func TestValidateSSEqualityPasses(t *testing.T) {
	nodes := []graph.Node{
		task("t1", "A", "2025-02-01", ""),
		task("t2", "B", "2025-02-01", ""),
	}
	edges := []graph.Edge{dep("t1", "t2", "SS")}

	result := Validate(nodes, edges)

	assert.False(t, result["t1"].Blocked)
}

func TestValidateFFAndSF(t *testing.T) {
	nodes := []graph.Node{
		task("t1", "Late", "2025-03-01", "2025-03-05"),
		task("t2", "Up", "2025-03-04", "2025-03-10"),
	}

	ff := Validate(nodes, []graph.Edge{dep("t1", "t2", "FF")})
	require.True(t, ff["t1"].Blocked)
	assert.Equal(t, "FF: end(2025-03-05) < upstream(Up) end(2025-03-10)", ff["t1"].Reasons[0])

	sf := Validate(nodes, []graph.Edge{dep("t1", "t2", "SF")})
	assert.False(t, sf["t1"].Blocked, "end 03-05 is not before upstream start 03-04")
}

func TestValidateInvalidDependencyType(t *testing.T) {
	nodes := []graph.Node{
		task("t1", "A", "2025-01-01", ""),
		task("t2", "B", "2025-01-01", ""),
	}
	edges := []graph.Edge{dep("t1", "t2", "XX")}

	result := Validate(nodes, edges)

	require.True(t, result["t1"].Blocked)
	assert.Equal(t, []string{"invalid dependency type: XX"}, result["t1"].Reasons)
}

func TestValidateMissingUpstreamNode(t *testing.T) {
	nodes := []graph.Node{task("t1", "A", "2025-01-01", "")}
	edges := []graph.Edge{dep("t1", "ghost", "")}

	result := Validate(nodes, edges)

	require.True(t, result["t1"].Blocked)
	assert.Equal(t, []string{"FS: upstream node missing (ghost)"}, result["t1"].Reasons)
}

func TestValidateMissingFields(t *testing.T) {
	nodes := []graph.Node{
		task("t1", "A", "", ""),
		task("t2", "B", "2025-01-01", "2025-01-02"),
	}
	edges := []graph.Edge{dep("t1", "t2", "")}

	result := Validate(nodes, edges)

	require.True(t, result["t1"].Blocked)
	assert.Equal(t, []string{"FS: missing or invalid field: from.start"}, result["t1"].Reasons)

	// Upstream side missing.
	nodes2 := []graph.Node{
		task("t1", "A", "2025-01-05", ""),
		task("t2", "B", "2025-01-01", ""),
	}
	result2 := Validate(nodes2, edges)
	require.True(t, result2["t1"].Blocked)
	assert.Equal(t, []string{"FS: missing or invalid field: upstream(B).end"}, result2["t1"].Reasons)
}

func TestValidateUnlabeledUpstreamFallsBackToID(t *testing.T) {
	nodes := []graph.Node{
		task("t1", "A", "2025-01-05", ""),
		task("t2", "", "2025-01-01", "2025-01-10"),
	}
	edges := []graph.Edge{dep("t1", "t2", "")}

	result := Validate(nodes, edges)

	require.True(t, result["t1"].Blocked)
	assert.Contains(t, result["t1"].Reasons[0], "upstream(t2)")
}

func TestValidateNonDependencyEdgesIgnored(t *testing.T) {
	nodes := []graph.Node{
		task("t1", "A", "2025-01-01", ""),
		task("t2", "B", "2025-01-05", "2025-01-10"),
	}
	edges := []graph.Edge{{ID: "e", From: "t1", To: "t2", Relation: graph.RelationRelated}}

	result := Validate(nodes, edges)

	assert.False(t, result["t1"].Blocked)
}
