package telemetry

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdm-backend/application/ports"
)

func TestJSONLVisitSinkAppendsOneLinePerVisit(t *testing.T) {
	dir := t.TempDir()
	sink := NewJSONLVisitSink(dir)
	defer sink.Close()
	ctx := context.Background()

	require.NoError(t, sink.RecordVisit(ctx, ports.VisitLog{ID: "v1", Action: "drill", GraphID: "root"}))
	require.NoError(t, sink.RecordVisit(ctx, ports.VisitLog{ID: "v2", Action: "return", GraphID: "root"}))

	file, err := os.Open(filepath.Join(dir, "visits.jsonl"))
	require.NoError(t, err)
	defer file.Close()

	var actions []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var visit ports.VisitLog
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &visit))
		actions = append(actions, visit.Action)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"drill", "return"}, actions)

	// The memory ring stays queryable alongside the file.
	assert.Len(t, sink.Visits(), 2)
}

func TestJSONLMetricSinkCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "telemetry")
	sink := NewJSONLMetricSink(dir)
	defer sink.Close()

	require.NoError(t, sink.RecordMetric(context.Background(), ports.PerfMetric{Name: "graph.drill.duration", Value: 1}))

	_, err := os.Stat(filepath.Join(dir, "metrics.jsonl"))
	assert.NoError(t, err)
}

func TestJSONLAuditLogRoundtrip(t *testing.T) {
	dir := t.TempDir()
	log := NewJSONLAuditLog(dir)
	defer log.Close()
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, ports.AuditEvent{ID: "a1", Action: "graph.replace", Target: "root"}))

	events, err := log.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "graph.replace", events[0].Action)

	_, statErr := os.Stat(filepath.Join(dir, "audit.jsonl"))
	assert.NoError(t, statErr)
}
