package inspect

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/strandui/strand/pkg/engine"
	"github.com/strandui/strand/pkg/query"
	"github.com/strandui/strand/pkg/store"
)

func newTestSetup(t *testing.T) (*engine.Runtime, *Server, *httptest.Server) {
	t.Helper()
	sched := engine.NewScheduler(engine.WithTick(func(drain func()) { drain() }))
	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(engine.WithRegisterer(reg))

	rt := engine.NewRuntime(
		engine.WithScheduler(sched),
		engine.WithMetrics(metrics),
		engine.WithInitialData(map[any]any{"count": 1}),
	)
	srv := NewServer(rt, WithGatherer(reg))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return rt, srv, ts
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func TestHealthz(t *testing.T) {
	_, _, ts := newTestSetup(t)

	var body map[string]string
	getJSON(t, ts.URL+"/healthz", &body)
	if body["status"] != "ok" {
		t.Errorf("expected ok, got %v", body)
	}
}

func TestDebugComponentsAndQueries(t *testing.T) {
	rt, _, ts := newTestSetup(t)

	q := engine.QueryHook("q", func(c *engine.Component) engine.QuerySpec {
		return engine.QuerySpec{Shape: query.Shape{"count"}}
	})
	q.RenderDep = true
	cfg := &engine.Config{
		Name:   "counter",
		Slots:  []engine.SlotDescriptor{q},
		Render: func(c *engine.Component) any { return c.HookValue(0) },
	}
	if _, err := rt.MountComponent(cfg); err != nil {
		t.Fatalf("mount: %v", err)
	}

	var comps []map[string]any
	getJSON(t, ts.URL+"/debug/components", &comps)
	if len(comps) != 1 || comps[0]["name"] != "counter" {
		t.Errorf("expected one counter component, got %v", comps)
	}
	if comps[0]["renderCount"].(float64) != 1 {
		t.Errorf("expected renderCount 1, got %v", comps[0])
	}

	var queries []map[string]any
	getJSON(t, ts.URL+"/debug/queries", &queries)
	if len(queries) != 1 {
		t.Fatalf("expected one live query, got %v", queries)
	}
	keys := queries[0]["keys"].([]any)
	if len(keys) != 1 || keys[0] != "count" {
		t.Errorf("expected observed key count, got %v", keys)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rt, _, ts := newTestSetup(t)
	rt.RegisterEventHandler("bump", func(env engine.TxEnv, ev engine.Event) engine.TxEnv {
		env.DB = env.DB.Put("count", 2)
		return env
	})
	rt.Submit(engine.Event{ID: "bump"})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(buf.String(), "strand_transactions_total 1") {
		t.Errorf("expected transaction counter in metrics output")
	}
}

func TestWebsocketStreamsTxRecords(t *testing.T) {
	rt, srv, ts := newTestSetup(t)
	// Wire the hub as a runtime observer the way cmd/strand does.
	rt.AddObserver(srv.Hub())
	rt.RegisterEventHandler("touch", func(env engine.TxEnv, ev engine.Event) engine.TxEnv {
		env.DB = env.DB.Put(store.NewIdent("item", 1), map[any]any{"ok": true})
		return env
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for the hub to register the client before committing.
	deadline := time.Now().Add(time.Second)
	for srv.Hub().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	rt.Submit(engine.Event{ID: "touch"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Type != "tx" {
		t.Errorf("expected tx record, got %q", env.Type)
	}
	data := env.Data.(map[string]any)
	if data["event"] != "touch" {
		t.Errorf("expected event touch, got %v", data["event"])
	}
}
