package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razeghi71/tabview/config"
	"github.com/razeghi71/tabview/server"
	"github.com/razeghi71/tabview/view"
)

func setupTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scores.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,score\na,10\nb,20\nc,5\n"), 0o644))

	cfg := config.Default()
	cfg.View.DefaultPageSize = 2
	cfg.View.MaxPageSize = 3
	h := server.NewHandler(view.New(), cfg.View, cfg.LoaderOptions())
	return h.Routes(), path
}

func do(t *testing.T, h http.Handler, method, target, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	resp := w.Result()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func mustDo(t *testing.T, h http.Handler, method, target, body string) string {
	t.Helper()
	status, resp := do(t, h, method, target, body)
	require.Equal(t, http.StatusOK, status, "%s %s: %s", method, target, resp)
	return resp
}

func errorKind(t *testing.T, body string) string {
	t.Helper()
	var e struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &e), body)
	assert.NotEmpty(t, e.Error.Message)
	return e.Error.Kind
}

func TestPing(t *testing.T) {
	h, _ := setupTestServer(t)
	assert.Equal(t, "Ok.\n", mustDo(t, h, "GET", "/ping", ""))
}

func TestNoDataLoaded(t *testing.T) {
	h, _ := setupTestServer(t)
	for _, target := range []string{"/columns", "/rows/total", "/rows"} {
		status, body := do(t, h, "GET", target, "")
		assert.Equal(t, http.StatusConflict, status, target)
		assert.Equal(t, "NoDataLoaded", errorKind(t, body), target)
	}

	// state is not an error when empty
	body := mustDo(t, h, "GET", "/state", "")
	assert.JSONEq(t, `{"filePath":"","loadId":"","rowCount":0,"originalRows":0,"columns":[],"grouping":null}`, body)
}

func TestLoadAndBrowse(t *testing.T) {
	h, path := setupTestServer(t)

	body := mustDo(t, h, "POST", "/load", `{"path": "`+path+`"}`)
	assert.JSONEq(t, `{"rows": 3}`, body)

	assert.JSONEq(t, `["name","score"]`, mustDo(t, h, "GET", "/columns", ""))
	assert.JSONEq(t, `{"rows": 3}`, mustDo(t, h, "GET", "/rows/total", ""))

	// default page size
	assert.JSONEq(t, `[{"name":"a","score":10},{"name":"b","score":20}]`, mustDo(t, h, "GET", "/rows", ""))
	// capped at max page size
	assert.JSONEq(t, `[{"name":"b","score":20},{"name":"c","score":5}]`, mustDo(t, h, "GET", "/rows?offset=1&limit=50", ""))
	assert.JSONEq(t, `[]`, mustDo(t, h, "GET", "/rows?offset=9", ""))

	status, body := do(t, h, "GET", "/rows?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "InvalidRequest", errorKind(t, body))
}

func TestSortFilterGroupFlow(t *testing.T) {
	h, path := setupTestServer(t)
	mustDo(t, h, "POST", "/load", `{"path": "`+path+`"}`)

	mustDo(t, h, "POST", "/sort", `{"column": "score", "descending": true}`)
	assert.JSONEq(t, `[{"name":"b","score":20},{"name":"a","score":10},{"name":"c","score":5}]`,
		mustDo(t, h, "GET", "/rows?limit=3", ""))

	body := mustDo(t, h, "POST", "/group", `{"column": "name", "agg": "count"}`)
	assert.JSONEq(t, `{"summary": "Grouped by name with Count, found 3 groups"}`, body)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustDo(t, h, "GET", "/state", "")), &info))
	assert.Equal(t, map[string]any{"column": "name", "aggregation": "Count"}, info["grouping"])

	body = mustDo(t, h, "POST", "/filter/advanced", `{"filterTree": {"logic": "OR", "conditions": [
		{"column": "name", "operator": "Equals", "value": "a"},
		{"column": "name", "operator": "Equals", "value": "c"}
	]}}`)
	assert.JSONEq(t, `{"rows": 2}`, body)
	assert.JSONEq(t, `[{"name":"a","score":10},{"name":"c","score":5}]`, mustDo(t, h, "GET", "/rows", ""))

	require.NoError(t, json.Unmarshal([]byte(mustDo(t, h, "GET", "/state", "")), &info))
	assert.Nil(t, info["grouping"])
	assert.EqualValues(t, 2, info["rowCount"])
	assert.EqualValues(t, 3, info["originalRows"])

	assert.JSONEq(t, `{"rows": 1}`, mustDo(t, h, "POST", "/filter", `{"column": "name", "query": "b"}`))
	// no column searches every column
	assert.JSONEq(t, `{"rows": 1}`, mustDo(t, h, "POST", "/filter", `{"query": "20"}`))
	assert.JSONEq(t, `{"rows": 1}`, mustDo(t, h, "POST", "/filter", `{"column": null, "query": "c"}`))
	assert.JSONEq(t, `{"rows": 2}`, mustDo(t, h, "POST", "/filter/text", `{"expr": "score > 8"}`))
	assert.JSONEq(t, `{"rows": 3}`, mustDo(t, h, "POST", "/group/reset", ""))
}

func TestErrorStatuses(t *testing.T) {
	h, path := setupTestServer(t)
	mustDo(t, h, "POST", "/load", `{"path": "`+path+`"}`)

	cases := []struct {
		name   string
		method string
		target string
		body   string
		status int
		kind   string
	}{
		{"missing sort column", "POST", "/sort", `{"column": "nope"}`, http.StatusNotFound, "ColumnNotFound"},
		{"missing filter column", "POST", "/filter", `{"column": "nope", "query": "x"}`, http.StatusNotFound, "ColumnNotFound"},
		{"empty filter column", "POST", "/filter", `{"column": "", "query": "x"}`, http.StatusNotFound, "ColumnNotFound"},
		{"bad json", "POST", "/sort", `{`, http.StatusBadRequest, "InvalidRequest"},
		{"empty body", "POST", "/filter/text", ``, http.StatusBadRequest, "InvalidRequest"},
		{"schema violation", "POST", "/filter/advanced", `{"filterTree": {"column": "name", "operator": "Like"}}`, http.StatusBadRequest, "InvalidRequest"},
		{"missing tree", "POST", "/filter/advanced", `{}`, http.StatusBadRequest, "InvalidRequest"},
		{"bad expression", "POST", "/filter/text", `{"expr": "score >"}`, http.StatusBadRequest, "InvalidRequest"},
		{"unknown aggregation", "POST", "/group", `{"column": "score", "agg": "Median"}`, http.StatusBadRequest, "InvalidRequest"},
		{"non-numeric sum", "POST", "/group", `{"column": "name", "agg": "Sum"}`, http.StatusBadRequest, "CastError"},
		{"missing file", "POST", "/load", `{"path": "/does/not/exist.csv"}`, http.StatusUnprocessableEntity, "LoadError"},
		{"empty path", "POST", "/load", `{"path": ""}`, http.StatusBadRequest, "InvalidRequest"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := do(t, h, tc.method, tc.target, tc.body)
			assert.Equal(t, tc.status, status, body)
			assert.Equal(t, tc.kind, errorKind(t, body))
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := setupTestServer(t)
	status, _ := do(t, h, "GET", "/sort", "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestServeReturnsListenerError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	srv := server.NewServer(view.New(), config.Default())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(context.Background(), ln) }()

	select {
	case err := <-errc:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the listener failed")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := server.NewServer(view.New(), config.Default())
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/ping"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
