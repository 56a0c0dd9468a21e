package graph

// DefaultSubgraphLimit bounds drill extraction so merge-back and rendering
// costs stay fixed regardless of parent graph size
const DefaultSubgraphLimit = 50

// ExtractSubgraph walks breadth-first from rootID over both edge directions
// and returns the neighborhood capped at maxNodes, with every edge whose
// endpoints both survived. A root with no edges yields just that node.
func ExtractSubgraph(s Snapshot, rootID string, maxNodes int) Snapshot {
	if maxNodes <= 0 {
		maxNodes = DefaultSubgraphLimit
	}
	index := s.NodeIndex()

	seedID := rootID
	if _, ok := index[seedID]; !ok {
		if len(s.Nodes) == 0 {
			return Snapshot{Nodes: []Node{}, Edges: []Edge{}}
		}
		seedID = s.Nodes[0].ID
	}

	visited := map[string]bool{seedID: true}
	queue := []string{seedID}

	for len(queue) > 0 && len(visited) < maxNodes {
		current := queue[0]
		queue = queue[1:]
		for _, e := range s.Edges {
			if len(visited) >= maxNodes {
				break
			}
			if e.From == current && !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, e.To)
				continue
			}
			if e.To == current && !visited[e.From] {
				visited[e.From] = true
				queue = append(queue, e.From)
			}
		}
	}

	sub := Snapshot{Nodes: []Node{}, Edges: []Edge{}}
	for _, n := range s.Nodes {
		if visited[n.ID] {
			sub.Nodes = append(sub.Nodes, n)
		}
	}
	for _, e := range s.Edges {
		if visited[e.From] && visited[e.To] {
			sub.Edges = append(sub.Edges, e)
		}
	}
	return sub
}
