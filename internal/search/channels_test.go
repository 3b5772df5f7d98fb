package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type esRequest struct {
	Method string
	Path   string
	Body   string
}

func newFakeES(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]esRequest) {
	t.Helper()
	var seen []esRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, esRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`))
			return
		}
		handle(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestIndex_IndexChannel(t *testing.T) {
	srv, seen := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	es, err := NewClient(srv.URL, "", "")
	require.NoError(t, err)
	idx := NewIndex(es, "channels")

	err = idx.IndexChannel(context.Background(), Channel{ID: "abc", Username: "neo", FullName: "Thomas Anderson"})
	require.NoError(t, err)

	last := (*seen)[len(*seen)-1]
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, "/channels/_doc/abc", last.Path)

	var doc map[string]string
	require.NoError(t, json.Unmarshal([]byte(last.Body), &doc))
	assert.Equal(t, "neo", doc["username"])
	assert.Equal(t, "Thomas Anderson", doc["fullName"])
}

func TestIndex_IndexChannel_ErrorResponse(t *testing.T) {
	srv, _ := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	es, err := NewClient(srv.URL, "", "")
	require.NoError(t, err)

	err = NewIndex(es, "channels").IndexChannel(context.Background(), Channel{ID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestIndex_SearchChannels(t *testing.T) {
	srv, seen := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_source": {"id": "1", "username": "neo", "fullName": "Thomas Anderson"}},
					{"_source": {"id": "2", "username": "trinity", "fullName": "Trinity"}}
				]
			}
		}`))
	})

	es, err := NewClient(srv.URL, "", "")
	require.NoError(t, err)

	total, channels, err := NewIndex(es, "channels").SearchChannels(context.Background(), "neo", 20, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, channels, 2)
	assert.Equal(t, "neo", channels[0].Username)
	assert.Equal(t, "Trinity", channels[1].FullName)

	last := (*seen)[len(*seen)-1]
	assert.True(t, strings.HasPrefix(last.Path, "/channels/_search"))

	var q map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.Body), &q))
	assert.EqualValues(t, 20, q["from"])
	assert.EqualValues(t, 10, q["size"])
	assert.Contains(t, last.Body, `"query":"neo"`)
}

func TestIndex_SearchChannels_ErrorResponse(t *testing.T) {
	srv, _ := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"index_not_found_exception"}`))
	})

	es, err := NewClient(srv.URL, "", "")
	require.NoError(t, err)

	_, _, err = NewIndex(es, "channels").SearchChannels(context.Background(), "neo", 0, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index_not_found_exception")
}

func TestNewClient_InfoFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "elastic", "wrong")
	require.Error(t, err)
}
