package fakerest_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restprovider/internal/fakerest"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := fakerest.NewStore(map[string]string{"authors": "uuid"})
	store.Seed(map[string][]provider.Record{
		"posts": {
			{"id": 1, "title": "Hello world", "views": 10, "author": "a1"},
			{"id": 2, "title": "Second post", "views": 30, "author": "a2"},
			{"id": 3, "title": "Another hello", "views": 20, "author": "a1"},
		},
		"authors": {
			{"uuid": "a1", "name": "Ada"},
			{"uuid": "a2", "name": "Linus"},
		},
	})

	server := httptest.NewServer(fakerest.NewServer(store).Handler())
	t.Cleanup(server.Close)

	return server
}

func listURL(base, resource string, params map[string]string) string {
	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}

	return base + "/" + resource + "?" + values.Encode()
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer func() {
		_ = resp.Body.Close()
	}()

	var out T

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func do(t *testing.T, method, target, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, target, reader)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestServer_List(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	t.Run("sort and range", func(t *testing.T) {
		t.Parallel()

		resp := do(t, http.MethodGet, listURL(server.URL, "posts", map[string]string{
			"sort":   `["views","DESC"]`,
			"range":  `[0,1]`,
			"filter": `{}`,
		}), "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "posts 0-1/3", resp.Header.Get("Content-Range"))
		assert.Equal(t, "3", resp.Header.Get("X-Total-Count"))
		assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), "Content-Range")

		records := decode[[]map[string]any](t, resp)
		require.Len(t, records, 2)
		assert.InDelta(t, 2, records[0]["id"], 0)
		assert.InDelta(t, 3, records[1]["id"], 0)
	})

	t.Run("second page", func(t *testing.T) {
		t.Parallel()

		resp := do(t, http.MethodGet, listURL(server.URL, "posts", map[string]string{
			"sort":  `["id","ASC"]`,
			"range": `[2,3]`,
		}), "")
		assert.Equal(t, "posts 2-2/3", resp.Header.Get("Content-Range"))

		records := decode[[]map[string]any](t, resp)
		require.Len(t, records, 1)
		assert.InDelta(t, 3, records[0]["id"], 0)
	})

	t.Run("equality and membership filters", func(t *testing.T) {
		t.Parallel()

		resp := do(t, http.MethodGet, listURL(server.URL, "posts", map[string]string{
			"filter": `{"author":"a1","id":[1,2]}`,
		}), "")

		records := decode[[]map[string]any](t, resp)
		require.Len(t, records, 1)
		assert.Equal(t, "Hello world", records[0]["title"])
	})

	t.Run("full text filter", func(t *testing.T) {
		t.Parallel()

		resp := do(t, http.MethodGet, listURL(server.URL, "posts", map[string]string{
			"filter": `{"q":"HELLO"}`,
			"sort":   `["id","ASC"]`,
		}), "")
		assert.Equal(t, "posts 0-1/2", resp.Header.Get("Content-Range"))

		records := decode[[]map[string]any](t, resp)
		require.Len(t, records, 2)
	})

	t.Run("empty page", func(t *testing.T) {
		t.Parallel()

		resp := do(t, http.MethodGet, listURL(server.URL, "posts", map[string]string{
			"range": `[10,19]`,
		}), "")
		assert.Equal(t, "posts */3", resp.Header.Get("Content-Range"))

		records := decode[[]map[string]any](t, resp)
		assert.Empty(t, records)
	})

	t.Run("unknown resource is empty", func(t *testing.T) {
		t.Parallel()

		resp := do(t, http.MethodGet, server.URL+"/nothing", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "0", resp.Header.Get("X-Total-Count"))
		_ = resp.Body.Close()
	})

	t.Run("invalid filter", func(t *testing.T) {
		t.Parallel()

		resp := do(t, http.MethodGet, listURL(server.URL, "posts", map[string]string{"filter": `{`}), "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decode[map[string]any](t, resp)
		assert.Contains(t, body["message"], "invalid list query parameter")
	})
}

func TestServer_CRUD(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	resp := do(t, http.MethodPost, server.URL+"/posts", `{"title":"New"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[map[string]any](t, resp)
	assert.InDelta(t, 4, created["id"], 0)

	resp = do(t, http.MethodGet, server.URL+"/posts/4", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "New", decode[map[string]any](t, resp)["title"])

	resp = do(t, http.MethodPut, server.URL+"/posts/4", `{"id":99,"title":"Renamed"}`)
	updated := decode[map[string]any](t, resp)
	assert.Equal(t, "Renamed", updated["title"])
	assert.InDelta(t, 4, updated["id"], 0)

	resp = do(t, http.MethodDelete, server.URL+"/posts/4", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed", decode[map[string]any](t, resp)["title"])

	resp = do(t, http.MethodGet, server.URL+"/posts/4", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "record not found", decode[map[string]any](t, resp)["message"])
}

func TestServer_CustomKey(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	resp := do(t, http.MethodGet, server.URL+"/authors/a2", "")
	assert.Equal(t, "Linus", decode[map[string]any](t, resp)["name"])

	resp = do(t, http.MethodPost, server.URL+"/authors", `{"uuid":"a3","name":"Grace"}`)
	assert.Equal(t, "a3", decode[map[string]any](t, resp)["uuid"])

	resp = do(t, http.MethodGet, listURL(server.URL, "authors", map[string]string{
		"filter": `{"uuid":["a1","a3"]}`,
		"sort":   `["uuid","ASC"]`,
	}), "")

	records := decode[[]map[string]any](t, resp)
	require.Len(t, records, 2)
	assert.Equal(t, "Ada", records[0]["name"])
	assert.Equal(t, "Grace", records[1]["name"])
}

func TestServer_BadBody(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	resp := do(t, http.MethodPost, server.URL+"/posts", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestServer_Preflight(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, server.URL+"/posts", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:8080")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:8080", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), "X-Total-Count")
}

func TestServer_RequestID(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/posts/1", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "abc")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "abc", resp.Header.Get("X-Request-Id"))
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	store := fakerest.NewStore(nil)
	store.Seed(map[string][]provider.Record{"posts": {{"id": 1}}})

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	done := make(chan error, 1)

	go func() {
		done <- fakerest.NewServer(store).Serve(ctx, "127.0.0.1:0", func(addr net.Addr) {
			addrCh <- addr
		})
	}()

	addr := <-addrCh

	resp := do(t, http.MethodGet, "http://"+addr.String()+"/posts/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
