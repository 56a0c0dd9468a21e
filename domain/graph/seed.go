package graph

import (
	"fmt"
	"math/rand"
	"time"
)

// SeedSnapshot builds the demo population written the first time an empty
// graph is opened: a chain of nodes where every fifth is a task carrying a
// one-day scheduling window, and every ninth is classified confidential.
func SeedSnapshot(count int) Snapshot {
	now := time.Now().UTC().Format(time.RFC3339)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	nodes := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		classification := "public"
		if i%9 == 0 {
			classification = "confidential"
		}
		fields := map[string]interface{}{"classification": classification}
		kind := KindIdea
		if i%5 == 0 {
			kind = KindTask
			start := base.AddDate(0, 0, i)
			end := base.AddDate(0, 0, i+1)
			status := StatusTodo
			switch i % 3 {
			case 1:
				status = StatusDoing
			case 2:
				status = StatusDone
			}
			fields["start"] = start.Format("2006-01-02")
			fields["end"] = end.Format("2006-01-02")
			fields["progress"] = float64((i * 7) % 101)
			fields["status"] = status
		}
		nodes = append(nodes, Node{
			ID:        fmt.Sprintf("node-%d", i),
			Label:     fmt.Sprintf("Node %d", i),
			Kind:      kind,
			Fields:    fields,
			X:         rand.Float64()*2000 - 500,
			Y:         rand.Float64()*2000 - 500,
			Folded:    rand.Float64() > 0.7,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	edges := make([]Edge, 0, count)
	for i := 0; i+1 < count; i++ {
		edges = append(edges, Edge{
			ID:   fmt.Sprintf("edge-%d-%d", i, i+1),
			From: fmt.Sprintf("node-%d", i),
			To:   fmt.Sprintf("node-%d", i+1),
		})
	}
	return Snapshot{Nodes: nodes, Edges: edges}
}
