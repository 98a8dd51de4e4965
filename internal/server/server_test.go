package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/opcmap/policymap/pkg/observability"
	"github.com/opcmap/policymap/pkg/store"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "policies/shenzhen/a.yaml", `id: sz-a
city: Shenzhen
name: Nanshan OPC subsidy
issuer: Bureau
publish_date: 2024-03-01
status: active
source_url: https://example.gov.cn/sz-a
tags: [AI]
parks: [park-1, park-missing]
benefits:
  subsidy: up to 100k
  workspace: free desk
`)
	writeFile(t, root, "policies/shenzhen/b.yaml", `id: sz-b
city: Shenzhen
name: Old policy
issuer: Bureau
publish_date: 2023-01-01
status: expired
source_url: https://example.gov.cn/sz-b
`)
	writeFile(t, root, "policies/hangzhou/a.yaml", `id: hz-a
city: Hangzhou
name: Compute vouchers
issuer: Bureau
publish_date: 2024-06-01
status: upcoming
source_url: https://example.gov.cn/hz-a
tags: [AI, compute]
benefits:
  compute: GPU hours
`)
	writeFile(t, root, "parks/park-1.yaml", "id: park-1\nname: Park One\ncity: Shenzhen\nrelated_policies: [hz-a]\n")
	return root
}

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{})
}

func newTestServer(t *testing.T, root string) *httptest.Server {
	t.Helper()
	loader := store.NewLoader(root, quietLogger())
	ts := httptest.NewServer(New(LoaderSource{Loader: loader}, quietLogger()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode != http.StatusNotModified {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp
}

func policyIDs(list policyList) []string {
	out := []string{}
	for _, p := range list.Policies {
		out = append(out, p.ID)
	}
	return out
}

func TestListPolicies(t *testing.T) {
	ts := newTestServer(t, fixture(t))

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"hz-a", "sz-a", "sz-b"}},
		{"?city=Shenzhen", []string{"sz-a", "sz-b"}},
		{"?status=active", []string{"sz-a"}},
		{"?benefit=compute", []string{"hz-a"}},
		{"?tag=AI&city=Hangzhou", []string{"hz-a"}},
		{"?q=vouchers", []string{"hz-a"}},
		{"?limit=1", []string{"hz-a"}},
		{"?city=Atlantis", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var list policyList
			resp := get(t, ts, "/api/policies"+tt.query, &list)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if diff := cmp.Diff(tt.want, policyIDs(list)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListPoliciesBadInput(t *testing.T) {
	ts := newTestServer(t, fixture(t))
	for _, q := range []string{"?status=pending", "?limit=-1", "?limit=x"} {
		var body errorBody
		resp := get(t, ts, "/api/policies"+q, &body)
		if resp.StatusCode != http.StatusBadRequest || body.Error.Code != "INVALID_INPUT" {
			t.Errorf("%s: status = %d, body = %+v", q, resp.StatusCode, body)
		}
	}
}

func TestPolicyDetail(t *testing.T) {
	ts := newTestServer(t, fixture(t))

	var detail policyDetail
	resp := get(t, ts, "/api/policies/sz-a", &detail)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if detail.Policy.ID != "sz-a" || len(detail.Parks) != 1 || detail.Parks[0].ID != "park-1" {
		t.Errorf("detail = %+v", detail)
	}
	if detail.Policy.Source != "policies/shenzhen/a.yaml" {
		t.Errorf("source = %q", detail.Policy.Source)
	}

	var body errorBody
	resp = get(t, ts, "/api/policies/nope", &body)
	if resp.StatusCode != http.StatusNotFound || body.Error.Code != "NOT_FOUND" {
		t.Errorf("missing: status = %d, body = %+v", resp.StatusCode, body)
	}
}

func TestParks(t *testing.T) {
	ts := newTestServer(t, fixture(t))

	var list parkList
	get(t, ts, "/api/parks", &list)
	if list.Total != 1 {
		t.Errorf("total = %d", list.Total)
	}

	var detail parkDetail
	get(t, ts, "/api/parks/park-1", &detail)
	var got []string
	for _, p := range detail.Policies {
		got = append(got, p.ID)
	}
	if diff := cmp.Diff([]string{"hz-a", "sz-a"}, got); diff != "" {
		t.Errorf("park policies mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregates(t *testing.T) {
	ts := newTestServer(t, fixture(t))

	var cities map[string][]string
	get(t, ts, "/api/cities", &cities)
	if diff := cmp.Diff([]string{"Hangzhou", "Shenzhen"}, cities["cities"]); diff != "" {
		t.Errorf("cities mismatch:\n%s", diff)
	}

	var tags map[string][]string
	get(t, ts, "/api/tags", &tags)
	if diff := cmp.Diff([]string{"AI", "compute"}, tags["tags"]); diff != "" {
		t.Errorf("tags mismatch:\n%s", diff)
	}

	var stats store.SiteStats
	get(t, ts, "/api/stats", &stats)
	want := store.SiteStats{TotalPolicies: 3, ActivePolicies: 1, TotalCities: 2, TotalParks: 1}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	var byCity map[string]store.CityStat
	get(t, ts, "/api/stats/cities", &byCity)
	if got := byCity["Shenzhen"]; got != (store.CityStat{Total: 2, Active: 1}) {
		t.Errorf("Shenzhen = %+v", got)
	}

	var benefits map[string][]benefitCount
	get(t, ts, "/api/benefits", &benefits)
	wantBenefits := []benefitCount{
		{Key: "subsidy", Label: "Startup subsidy", Count: 1},
		{Key: "workspace", Label: "Workspace", Count: 1},
		{Key: "compute", Label: "Compute", Count: 1},
	}
	if diff := cmp.Diff(wantBenefits, benefits["benefits"]); diff != "" {
		t.Errorf("benefits mismatch (-want +got):\n%s", diff)
	}
}

func TestETag(t *testing.T) {
	root := fixture(t)
	ts := newTestServer(t, root)

	resp := get(t, ts, "/api/stats", nil)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("no ETag")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/stats", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Errorf("status = %d, want 304", resp2.StatusCode)
	}

	writeFile(t, root, "parks/park-2.yaml", "id: park-2\nname: Park Two\ncity: Hangzhou\n")
	resp3, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK || resp3.Header.Get("ETag") == etag {
		t.Errorf("after change: status = %d, etag = %q", resp3.StatusCode, resp3.Header.Get("ETag"))
	}
}

func TestMissingDataRoot(t *testing.T) {
	ts := newTestServer(t, filepath.Join(t.TempDir(), "nothing"))

	var body errorBody
	resp := get(t, ts, "/api/policies", &body)
	if resp.StatusCode != http.StatusServiceUnavailable || body.Error.Code != "DATA_DIR_NOT_FOUND" {
		t.Errorf("status = %d, body = %+v", resp.StatusCode, body)
	}

	resp = get(t, ts, "/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, fixture(t))
	var body errorBody
	resp := get(t, ts, "/api/nope", &body)
	if resp.StatusCode != http.StatusNotFound || body.Error.Code != "NOT_FOUND" {
		t.Errorf("status = %d, body = %+v", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Server"); got == "" {
		t.Error("Server header not set")
	}
}

func TestLiveSourceReload(t *testing.T) {
	root := fixture(t)
	src, err := NewLiveSource(context.Background(), store.NewLoader(root, quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	before, _ := src.Snapshot(context.Background())

	writeFile(t, root, "parks/park-2.yaml", "id: park-2\nname: Park Two\ncity: Hangzhou\n")
	if got, _ := src.Snapshot(context.Background()); got != before {
		t.Error("snapshot changed before reload")
	}
	if err := src.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	after, _ := src.Snapshot(context.Background())
	if len(after.Parks) != 2 || len(before.Parks) != 1 {
		t.Errorf("parks before = %d, after = %d", len(before.Parks), len(after.Parks))
	}

	if err := os.RemoveAll(filepath.Join(root, "policies")); err != nil {
		t.Fatal(err)
	}
	if err := src.Reload(context.Background()); err == nil {
		t.Error("expected reload error")
	}
	if got, _ := src.Snapshot(context.Background()); got != after {
		t.Error("failed reload replaced the snapshot")
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, fixture(t))
	get(t, ts, "/api/policies/sz-a", nil)
	get(t, ts, "/api/policies/nope", nil)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if diff := cmp.Diff([]int{200, 404}, hooks.statuses); diff != "" {
		t.Errorf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := New(LoaderSource{Loader: store.NewLoader(fixture(t), quietLogger())}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
