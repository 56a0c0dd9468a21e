package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cdm-backend/domain/collab"
	"cdm-backend/domain/graph"
	"cdm-backend/infrastructure/persistence/memory"
	"cdm-backend/infrastructure/telemetry"
	"cdm-backend/pkg/auth"
)

type testEnv struct {
	handler http.Handler
	graphs  *memory.GraphStore
	layouts *memory.LayoutStore
	audit   *telemetry.MemoryAuditLog
}

func newTestEnv(t *testing.T, secret string) testEnv {
	t.Helper()
	graphs := memory.NewGraphStore()
	layouts := memory.NewLayoutStore()
	audit := telemetry.NewMemoryAuditLog()
	router := NewRouter(RouterOptions{
		Graphs:            graphs,
		Layouts:           layouts,
		Visits:            telemetry.NewMemoryVisitSink(),
		Metrics:           telemetry.NewMemoryMetricSink(),
		Audit:             audit,
		EditorTokenSecret: secret,
		Logger:            zap.NewNop(),
	})
	return testEnv{handler: router.Setup(), graphs: graphs, layouts: layouts, audit: audit}
}

func (e testEnv) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, "")

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", nil, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/ready", nil, nil).Code)
}

func TestGetUnknownGraphReturnsEmptyArrays(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodGet, "/api/graphs/never-written", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Nodes []graph.Node `json:"nodes"`
		Edges []graph.Edge `json:"edges"`
	}
	decodeBody(t, rec, &body)
	assert.NotNil(t, body.Nodes)
	assert.NotNil(t, body.Edges)
	assert.Empty(t, body.Nodes)
	// The wire shape carries [] for both, never null.
	assert.Contains(t, rec.Body.String(), `"nodes":[]`)
	assert.Contains(t, rec.Body.String(), `"edges":[]`)
}

func TestPutThenGetGraph(t *testing.T) {
	env := newTestEnv(t, "")
	payload := map[string]interface{}{
		"nodes": []graph.Node{{ID: "n1", Label: "One", Kind: graph.KindIdea}},
		"edges": []graph.Edge{},
	}

	putRec := env.do(http.MethodPut, "/api/graphs/root", payload, nil)
	require.Equal(t, http.StatusOK, putRec.Code)
	assert.JSONEq(t, `{"ok":true}`, putRec.Body.String())

	getRec := env.do(http.MethodGet, "/api/graphs/root", nil, nil)
	require.Equal(t, http.StatusOK, getRec.Code)
	var body struct {
		Nodes []graph.Node `json:"nodes"`
	}
	decodeBody(t, getRec, &body)
	require.Len(t, body.Nodes, 1)
	assert.Equal(t, "One", body.Nodes[0].Label)

	events, err := env.audit.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "graph.replace", events[0].Action)
	assert.Equal(t, "root", events[0].Target)
}

func TestFlatResourcePaths(t *testing.T) {
	env := newTestEnv(t, "")
	payload := map[string]interface{}{
		"nodes": []graph.Node{{ID: "n1", Label: "One", Kind: graph.KindIdea}},
		"edges": []graph.Edge{},
	}

	// The workspace clients call /graph and /layout without the /api prefix.
	putRec := env.do(http.MethodPut, "/graph/demo", payload, nil)
	require.Equal(t, http.StatusOK, putRec.Code)
	assert.JSONEq(t, `{"ok":true}`, putRec.Body.String())

	getRec := env.do(http.MethodGet, "/graph/demo", nil, nil)
	require.Equal(t, http.StatusOK, getRec.Code)
	var body struct {
		Nodes []graph.Node `json:"nodes"`
	}
	decodeBody(t, getRec, &body)
	require.Len(t, body.Nodes, 1)

	layoutPut := env.do(http.MethodPut, "/layout/demo", map[string]interface{}{
		"mode":    "tree",
		"toggles": map[string]bool{"snap": true},
	}, nil)
	require.Equal(t, http.StatusOK, layoutPut.Code)

	layoutGet := env.do(http.MethodGet, "/layout/demo", nil, nil)
	require.Equal(t, http.StatusOK, layoutGet.Code)
	var layoutBody struct {
		Found  bool               `json:"found"`
		Layout collab.LayoutState `json:"layout"`
	}
	decodeBody(t, layoutGet, &layoutBody)
	assert.True(t, layoutBody.Found)
	assert.Equal(t, collab.ModeTree, layoutBody.Layout.Mode)

	assert.Equal(t, http.StatusAccepted, env.do(http.MethodPost, "/visits", map[string]interface{}{
		"visitor": "alice", "graphId": "demo", "action": "drill", "nodeId": "n1",
	}, nil).Code)
	assert.Equal(t, http.StatusAccepted, env.do(http.MethodPost, "/metrics", map[string]interface{}{
		"name": "graph.drill.duration", "value": 3.5,
	}, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/audit/events", nil, nil).Code)
}

type recordingPeers struct {
	graphs  []string
	layouts []collab.LayoutState
}

func (r *recordingPeers) PublishGraph(_ context.Context, graphID string, _ graph.Snapshot) error {
	r.graphs = append(r.graphs, graphID)
	return nil
}

func (r *recordingPeers) PublishLayout(_ context.Context, state collab.LayoutState) error {
	r.layouts = append(r.layouts, state)
	return nil
}

func TestWritesRelayToPeerChannels(t *testing.T) {
	peers := &recordingPeers{}
	router := NewRouter(RouterOptions{
		Graphs:      memory.NewGraphStore(),
		Layouts:     memory.NewLayoutStore(),
		Visits:      telemetry.NewMemoryVisitSink(),
		Metrics:     telemetry.NewMemoryMetricSink(),
		Audit:       telemetry.NewMemoryAuditLog(),
		GraphPeers:  peers,
		LayoutPeers: peers,
		Logger:      zap.NewNop(),
	})
	env := testEnv{handler: router.Setup()}

	rec := env.do(http.MethodPut, "/graph/demo", map[string]interface{}{
		"nodes": []graph.Node{}, "edges": []graph.Edge{},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPut, "/layout/demo", map[string]interface{}{
		"mode": "tree", "toggles": map[string]bool{"snap": true},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, []string{"demo"}, peers.graphs)
	require.Len(t, peers.layouts, 1)
	// The relayed state is the stored one, version assigned.
	assert.Equal(t, int64(1), peers.layouts[0].Version)
	assert.Equal(t, collab.ModeTree, peers.layouts[0].Mode)
}

func TestFlatWritesHonorEditorGate(t *testing.T) {
	env := newTestEnv(t, "test-secret")
	payload := map[string]interface{}{"nodes": []graph.Node{}, "edges": []graph.Edge{}}

	rec := env.do(http.MethodPut, "/graph/demo", payload, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPut, "/layout/demo", map[string]interface{}{
		"mode": "free", "toggles": map[string]bool{"snap": true},
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPutGraphRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodPut, "/api/graphs/root", map[string]interface{}{"nodes": []graph.Node{}}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListGraphs(t *testing.T) {
	env := newTestEnv(t, "")
	env.do(http.MethodPut, "/api/graphs/beta", map[string]interface{}{"nodes": []graph.Node{}, "edges": []graph.Edge{}}, nil)
	env.do(http.MethodPut, "/api/graphs/alpha", map[string]interface{}{"nodes": []graph.Node{}, "edges": []graph.Edge{}}, nil)

	rec := env.do(http.MethodGet, "/api/graphs/", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		GraphIDs []string `json:"graphIds"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, []string{"alpha", "beta"}, body.GraphIDs)
}

func TestGetBlocked(t *testing.T) {
	env := newTestEnv(t, "")
	env.do(http.MethodPut, "/api/graphs/root", map[string]interface{}{
		"nodes": []graph.Node{
			{ID: "t1", Label: "Down", Kind: graph.KindTask, Fields: map[string]interface{}{"start": "2025-01-01"}},
			{ID: "t2", Label: "Up", Kind: graph.KindTask, Fields: map[string]interface{}{"start": "2025-01-01", "end": "2025-01-05"}},
		},
		"edges": []graph.Edge{{ID: "d1", From: "t1", To: "t2", Relation: graph.RelationDependsOn}},
	}, nil)

	rec := env.do(http.MethodGet, "/api/graphs/root/blocked", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]struct {
		Blocked bool     `json:"blocked"`
		Reasons []string `json:"reasons"`
	}
	decodeBody(t, rec, &body)
	require.Contains(t, body, "t1")
	assert.True(t, body["t1"].Blocked)
	assert.NotEmpty(t, body["t1"].Reasons)
	assert.False(t, body["t2"].Blocked)
}

func TestGetLayoutNotFoundReturnsDefaults(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodGet, "/api/layouts/root", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Found  bool               `json:"found"`
		Layout collab.LayoutState `json:"layout"`
	}
	decodeBody(t, rec, &body)
	assert.False(t, body.Found)
	assert.Equal(t, collab.ModeFree, body.Layout.Mode)
	assert.Equal(t, int64(0), body.Layout.Version)
}

func TestPutLayoutAssignsVersion(t *testing.T) {
	env := newTestEnv(t, "")
	payload := map[string]interface{}{
		"mode":    "tree",
		"toggles": map[string]bool{"snap": true, "grid": false},
	}

	rec := env.do(http.MethodPut, "/api/layouts/root", payload, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Found  bool               `json:"found"`
		Layout collab.LayoutState `json:"layout"`
	}
	decodeBody(t, rec, &body)
	assert.True(t, body.Found)
	assert.Equal(t, collab.ModeTree, body.Layout.Mode)
	assert.Equal(t, int64(1), body.Layout.Version)
}

func TestPutLayoutRejectsUnknownToggle(t *testing.T) {
	env := newTestEnv(t, "")
	payload := map[string]interface{}{
		"mode":    "free",
		"toggles": map[string]bool{"sparkles": true},
	}

	rec := env.do(http.MethodPut, "/api/layouts/root", payload, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPutLayoutRejectsUnknownMode(t *testing.T) {
	env := newTestEnv(t, "")
	payload := map[string]interface{}{
		"mode":    "spiral",
		"toggles": map[string]bool{"snap": true},
	}

	rec := env.do(http.MethodPut, "/api/layouts/root", payload, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWritesRequireEditorTokenWhenSecretSet(t *testing.T) {
	env := newTestEnv(t, "test-secret")
	payload := map[string]interface{}{"nodes": []graph.Node{}, "edges": []graph.Edge{}}

	// No token: anonymous viewer, writes denied.
	rec := env.do(http.MethodPut, "/api/graphs/root", payload, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), collab.ReadonlyReason)

	// Reads stay open.
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/graphs/root", nil, nil).Code)

	// A valid token grants the editor capability.
	token, err := auth.IssueEditorToken("test-secret", "alice", time.Hour)
	require.NoError(t, err)
	rec = env.do(http.MethodPut, "/api/graphs/root", payload, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	events, err := env.audit.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].Actor)
}

func TestWritesRejectForgedToken(t *testing.T) {
	env := newTestEnv(t, "test-secret")
	payload := map[string]interface{}{"nodes": []graph.Node{}, "edges": []graph.Edge{}}

	token, err := auth.IssueEditorToken("wrong-secret", "mallory", time.Hour)
	require.NoError(t, err)

	rec := env.do(http.MethodPut, "/api/graphs/root", payload, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVisitIngestion(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodPost, "/api/visits/", map[string]interface{}{
		"visitor": "alice",
		"graphId": "root",
		"action":  "drill",
		"nodeId":  "n1",
	}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	listRec := env.do(http.MethodGet, "/api/visits/", nil, nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	var body struct {
		Visits []map[string]interface{} `json:"visits"`
	}
	decodeBody(t, listRec, &body)
	require.Len(t, body.Visits, 1)
	assert.Equal(t, "drill", body.Visits[0]["action"])
}

func TestVisitIngestionRejectsIncompletePayload(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodPost, "/api/visits/", map[string]interface{}{"visitor": "alice"}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricIngestion(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(http.MethodPost, "/api/metrics/", map[string]interface{}{
		"name":  "graph.drill.duration",
		"value": 12.5,
	}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	listRec := env.do(http.MethodGet, "/api/metrics/", nil, nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	var body struct {
		Metrics []map[string]interface{} `json:"metrics"`
	}
	decodeBody(t, listRec, &body)
	require.Len(t, body.Metrics, 1)
	assert.Equal(t, "graph.drill.duration", body.Metrics[0]["name"])
}
