package scheduling

import (
	"fmt"

	"cdm-backend/domain/graph"
)

// BlockedStatus is the scheduling classification for one task node.
// A blocked task is a first-class status with reasons, never an error.
type BlockedStatus struct {
	Blocked bool     `json:"blocked"`
	Reasons []string `json:"reasons"`
}

// Validate classifies every task node of the snapshot against its outgoing
// depends-on edges. Only kind=task nodes appear in the result; a task with no
// dependencies is never blocked. The function is pure over the snapshot shape.
func Validate(nodes []graph.Node, edges []graph.Edge) map[string]BlockedStatus {
	nodeByID := make(map[string]graph.Node, len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
	}

	dependenciesByFrom := make(map[string][]graph.Edge)
	for _, e := range edges {
		if e.Relation != graph.RelationDependsOn {
			continue
		}
		dependenciesByFrom[e.From] = append(dependenciesByFrom[e.From], e)
	}

	result := make(map[string]BlockedStatus)
	for _, n := range nodes {
		if n.Kind != graph.KindTask {
			continue
		}
		deps := dependenciesByFrom[n.ID]
		if len(deps) == 0 {
			result[n.ID] = BlockedStatus{Blocked: false, Reasons: []string{}}
			continue
		}

		reasons := []string{}
		startRaw := n.FieldString("start")
		endRaw := n.FieldString("end")
		start, hasStart := ParseDate(startRaw)
		end, hasEnd := ParseDate(endRaw)

		for _, edge := range deps {
			if edge.DependencyType != "" && !graph.IsDependencyType(edge.DependencyType) {
				reasons = append(reasons, fmt.Sprintf("invalid dependency type: %s", edge.DependencyType))
				continue
			}
			depType := edge.EffectiveDependencyType()
			upstream, ok := nodeByID[edge.To]
			if !ok {
				reasons = append(reasons, fmt.Sprintf("%s: upstream node missing (%s)", depType, edge.To))
				continue
			}
			upstreamLabel := upstream.Label
			if upstreamLabel == "" {
				upstreamLabel = upstream.ID
			}
			upStartRaw := upstream.FieldString("start")
			upEndRaw := upstream.FieldString("end")
			upStart, hasUpStart := ParseDate(upStartRaw)
			upEnd, hasUpEnd := ParseDate(upEndRaw)

			switch depType {
			case graph.DependencyFS:
				// finish-to-start: downstream start must not precede upstream end
				if !hasStart {
					reasons = append(reasons, missingField(depType, "from.start"))
					continue
				}
				if !hasUpEnd {
					reasons = append(reasons, missingField(depType, upstreamField(upstreamLabel, "end")))
					continue
				}
				if start.Before(upEnd) {
					reasons = append(reasons, violation(depType, "start", startRaw, upstreamLabel, "end", upEndRaw))
				}
			case graph.DependencySS:
				if !hasStart {
					reasons = append(reasons, missingField(depType, "from.start"))
					continue
				}
				if !hasUpStart {
					reasons = append(reasons, missingField(depType, upstreamField(upstreamLabel, "start")))
					continue
				}
				if start.Before(upStart) {
					reasons = append(reasons, violation(depType, "start", startRaw, upstreamLabel, "start", upStartRaw))
				}
			case graph.DependencyFF:
				if !hasEnd {
					reasons = append(reasons, missingField(depType, "from.end"))
					continue
				}
				if !hasUpEnd {
					reasons = append(reasons, missingField(depType, upstreamField(upstreamLabel, "end")))
					continue
				}
				if end.Before(upEnd) {
					reasons = append(reasons, violation(depType, "end", endRaw, upstreamLabel, "end", upEndRaw))
				}
			case graph.DependencySF:
				if !hasEnd {
					reasons = append(reasons, missingField(depType, "from.end"))
					continue
				}
				if !hasUpStart {
					reasons = append(reasons, missingField(depType, upstreamField(upstreamLabel, "start")))
					continue
				}
				if end.Before(upStart) {
					reasons = append(reasons, violation(depType, "end", endRaw, upstreamLabel, "start", upStartRaw))
				}
			}
		}

		result[n.ID] = BlockedStatus{Blocked: len(reasons) > 0, Reasons: reasons}
	}
	return result
}

func missingField(depType graph.DependencyType, field string) string {
	return fmt.Sprintf("%s: missing or invalid field: %s", depType, field)
}

func upstreamField(label, field string) string {
	return fmt.Sprintf("upstream(%s).%s", label, field)
}

func violation(depType graph.DependencyType, field, rawValue, upstreamLabel, upstreamFieldName, upstreamRaw string) string {
	return fmt.Sprintf("%s: %s(%s) < upstream(%s) %s(%s)",
		depType, field, orDash(rawValue), upstreamLabel, upstreamFieldName, orDash(upstreamRaw))
}

func orDash(raw string) string {
	if raw == "" {
		return "-"
	}
	return raw
}
