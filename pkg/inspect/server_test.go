package inspect

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/lifecycle"
	"github.com/go-drift/arbor/pkg/platform"
	arbortesting "github.com/go-drift/arbor/pkg/testing"
)

type label struct {
	core.StatelessBase
	Text string
	ID   any
}

func (l label) Key() any                            { return l.ID }
func (l label) Build(core.BuildContext) core.Widget { return nil }

func newInspectFixture(t *testing.T) (*arbortesting.TreeTester, *Server) {
	t.Helper()
	platform.ResetForTest()
	t.Cleanup(platform.ResetForTest)
	lifecycle.Shared().ResetForTest()
	t.Cleanup(lifecycle.Shared().ResetForTest)

	tester := arbortesting.NewTreeTesterWithT(t)
	server := NewServer(Options{
		Root: func() core.Element { return tester.Root() },
	})
	return tester, server
}

// waitForServer polls the health endpoint until ready or timeout.
func waitForServer(port int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://localhost:%d/health", port)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

func TestServer_StartStop(t *testing.T) {
	_, server := newInspectFixture(t)

	port, err := server.Start(0)
	if err != nil {
		t.Fatalf("failed to start inspect server: %v", err)
	}
	defer server.Stop()

	if err := waitForServer(port, 2*time.Second); err != nil {
		t.Fatalf("server not ready: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/health", port))
	if err != nil {
		t.Fatalf("failed to reach health endpoint: %v", err)
	}
	defer resp.Body.Close()

	var health map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", health["status"])
	}

	// Starting again returns the same port.
	again, err := server.Start(0)
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if again != port {
		t.Errorf("expected same port %d, got %d", port, again)
	}
}

func TestServer_TreeEndpoint(t *testing.T) {
	tester, server := newInspectFixture(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	tester.PumpWidget(core.Group{Children: []core.Widget{
		label{Text: "hello", ID: "greeting"},
	}})

	resp, err := http.Get(ts.URL + "/tree")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var root TreeNode
	if err := json.NewDecoder(resp.Body).Decode(&root); err != nil {
		t.Fatalf("failed to decode tree: %v", err)
	}
	if !strings.Contains(root.WidgetType, "Group") {
		t.Errorf("expected Group at the root, got %q", root.WidgetType)
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(root.Children))
	}
	if root.Children[0].Key != "greeting" {
		t.Errorf("expected child key 'greeting', got %v", root.Children[0].Key)
	}
}

func TestServer_TreeEndpoint_NoTree(t *testing.T) {
	server := NewServer(Options{})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tree")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a tree, got %d", resp.StatusCode)
	}
}

func TestServer_LifecycleEndpoints(t *testing.T) {
	tester, server := newInspectFixture(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	tester.PumpWidget(core.Group{Children: []core.Widget{
		lifecycle.OnRemove{
			Do:    func() {},
			Tag:   "fixture",
			Child: core.Identify(label{Text: "row"}, "row-1"),
		},
	}})

	resp, err := http.Get(ts.URL + "/lifecycle/entries")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var entries struct {
		Entries []lifecycle.EntrySnapshot `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("failed to decode entries: %v", err)
	}
	if len(entries.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries.Entries))
	}
	if entries.Entries[0].Identity != "row-1" {
		t.Errorf("expected identity 'row-1', got %q", entries.Entries[0].Identity)
	}

	tester.PumpWidget(core.Group{})

	resp2, err := http.Get(ts.URL + "/lifecycle/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()

	var events struct {
		Events []lifecycle.Event `json:"events"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&events); err != nil {
		t.Fatalf("failed to decode events: %v", err)
	}
	if len(events.Events) != 2 {
		t.Fatalf("expected attach + fire events, got %d", len(events.Events))
	}
	if events.Events[1].Kind != lifecycle.EventFired {
		t.Errorf("expected last event to be fired, got %q", events.Events[1].Kind)
	}
}

func TestServer_WatchStreamsEvents(t *testing.T) {
	tester, server := newInspectFixture(t)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/lifecycle/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	var hello watchHello
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("failed to read hello frame: %v", err)
	}
	if hello.Session == "" {
		t.Fatal("expected a session id in the hello frame")
	}

	tester.PumpWidget(core.Group{Children: []core.Widget{
		lifecycle.OnRemove{
			Do:    func() {},
			Child: core.Identify(label{Text: "row"}, "row-1"),
		},
	}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event lifecycle.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read event frame: %v", err)
	}
	if event.Kind != lifecycle.EventAttached {
		t.Errorf("expected attached event, got %q", event.Kind)
	}
	if event.Identity != "row-1" {
		t.Errorf("expected identity 'row-1', got %q", event.Identity)
	}
}

func TestObserveRegistry_CountsTransitions(t *testing.T) {
	tester, _ := newInspectFixture(t)
	promRegistry := prometheus.NewRegistry()
	cancel := ObserveRegistry(lifecycle.Shared(), WithRegistry(promRegistry))
	defer cancel()

	tester.PumpWidget(core.Group{Children: []core.Widget{
		lifecycle.OnRemove{
			Do:    func() {},
			Child: core.Identify(label{Text: "row"}, "row-1"),
		},
	}})
	tester.PumpWidget(core.Group{})

	if got := metricValue(t, promRegistry, "arbor_lifecycle_attachments_total"); got != 1 {
		t.Errorf("expected 1 attachment counted, got %v", got)
	}
	if got := metricValue(t, promRegistry, "arbor_lifecycle_fired_total"); got != 1 {
		t.Errorf("expected 1 fire counted, got %v", got)
	}
	if got := metricValue(t, promRegistry, "arbor_lifecycle_live_attachments"); got != 0 {
		t.Errorf("expected live gauge back at 0, got %v", got)
	}
}

// metricValue sums the values of all series in the named metric family.
func metricValue(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatal(err)
	}
	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if gauge := m.GetGauge(); gauge != nil {
				total += gauge.GetValue()
			}
		}
	}
	return total
}
