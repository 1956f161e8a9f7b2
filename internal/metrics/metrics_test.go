package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue returns the value of the named counter whose labels match.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(ResultSuccess)
	c.RecordLogin(ResultSuccess)
	c.RecordLogin(ResultFailure)
	c.RecordRegistration(ResultSuccess)
	c.RecordCatalogOp("add_game", ResultError)
	c.RecordPlay()
	c.RecordOrphansRepaired(3)
	c.RecordOrphansRepaired(0)
	c.RecordHTTPStatus(http.StatusNotFound)

	if got := counterValue(t, reg, "launcher_logins_total", map[string]string{"result": ResultSuccess}); got != 2 {
		t.Errorf("logins{success} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "launcher_logins_total", map[string]string{"result": ResultFailure}); got != 1 {
		t.Errorf("logins{failure} = %v, want 1", got)
	}
	if got := counterValue(t, reg, "launcher_registrations_total", map[string]string{"result": ResultSuccess}); got != 1 {
		t.Errorf("registrations{success} = %v, want 1", got)
	}
	if got := counterValue(t, reg, "launcher_catalog_operations_total", map[string]string{"op": "add_game", "result": ResultError}); got != 1 {
		t.Errorf("catalog_operations{add_game,error} = %v, want 1", got)
	}
	if got := counterValue(t, reg, "launcher_plays_total", nil); got != 1 {
		t.Errorf("plays = %v, want 1", got)
	}
	if got := counterValue(t, reg, "launcher_orphans_repaired_total", nil); got != 3 {
		t.Errorf("orphans_repaired = %v, want 3", got)
	}
	if got := counterValue(t, reg, "launcher_http_status_total", map[string]string{"status_code": "404"}); got != 1 {
		t.Errorf("http_status{404} = %v, want 1", got)
	}
}

func TestNewCollector_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPlay()

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "launcher_plays_total 1") {
		t.Errorf("body does not contain launcher_plays_total:\n%s", body)
	}
}

func TestNoop_SatisfiesRecorder(t *testing.T) {
	var r Recorder = Noop{}
	r.RecordLogin(ResultSuccess)
	r.RecordHTTPStatus(http.StatusOK)
}
