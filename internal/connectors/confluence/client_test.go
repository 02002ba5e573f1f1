package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsrca/rcafinder/internal/core/domain"
)

type fakePage struct {
	id     string
	title  string
	body   string
	when   string
	labels []string
	webui  string
}

func (p fakePage) payload() map[string]any {
	labelResults := make([]map[string]any, 0, len(p.labels))
	for _, l := range p.labels {
		labelResults = append(labelResults, map[string]any{"name": l})
	}
	return map[string]any{
		"id":    p.id,
		"title": p.title,
		"body": map[string]any{
			"storage": map[string]any{"value": p.body},
		},
		"version": map[string]any{"when": p.when},
		"metadata": map[string]any{
			"labels": map[string]any{"results": labelResults},
		},
		"space":  map[string]any{"key": "OPS"},
		"_links": map[string]any{"webui": p.webui},
	}
}

// newFakeConfluence serves paginated space content and single-page lookups.
func newFakeConfluence(t *testing.T, pages []fakePage) (*httptest.Server, *[]*http.Request) {
	t.Helper()
	var seen []*http.Request

	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/content", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r)
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		end := start + limit
		if end > len(pages) {
			end = len(pages)
		}
		var results []map[string]any
		if start < len(pages) {
			for _, p := range pages[start:end] {
				results = append(results, p.payload())
			}
		}
		if results == nil {
			results = []map[string]any{}
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"results": results,
			"size":    len(results),
		}))
	})
	mux.HandleFunc("/rest/api/content/", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r)
		id := r.URL.Path[len("/rest/api/content/"):]
		for _, p := range pages {
			if p.id == id {
				require.NoError(t, json.NewEncoder(w).Encode(p.payload()))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &seen
}

func testClient(server *httptest.Server) *Client {
	return NewClient(server.URL, "test-token", WithRateLimit(10000))
}

func TestClient_FetchPages_MapsFields(t *testing.T) {
	server, _ := newFakeConfluence(t, []fakePage{
		{
			id:     "100",
			title:  "2024-03-17 Checkout Outage",
			body:   "<h2>Impact</h2><p>500s</p>",
			when:   "2024-03-18T09:30:00.000Z",
			labels: []string{"postmortem", "sev1"},
			webui:  "/spaces/OPS/pages/100",
		},
	})
	client := testClient(server)

	pages, err := client.FetchPages(context.Background(), "OPS", nil)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	page := pages[0]
	assert.Equal(t, "100", page.ID)
	assert.Equal(t, "OPS", page.SpaceKey)
	assert.Equal(t, "2024-03-17 Checkout Outage", page.Title)
	assert.Equal(t, server.URL+"/spaces/OPS/pages/100", page.URL)
	assert.Equal(t, "<h2>Impact</h2><p>500s</p>", page.Body)
	assert.Equal(t, []string{"postmortem", "sev1"}, page.Labels)
	assert.Equal(t, time.Date(2024, 3, 18, 9, 30, 0, 0, time.UTC), page.LastModified.UTC())
}

func TestClient_FetchPages_Paginates(t *testing.T) {
	var pages []fakePage
	for i := 0; i < PageLimit+3; i++ {
		pages = append(pages, fakePage{
			id:    fmt.Sprintf("p%03d", i),
			title: fmt.Sprintf("Page %d", i),
			when:  "2024-01-01T00:00:00Z",
		})
	}
	server, seen := newFakeConfluence(t, pages)
	client := testClient(server)

	got, err := client.FetchPages(context.Background(), "OPS", nil)
	require.NoError(t, err)
	assert.Len(t, got, PageLimit+3)

	// Two list requests: full window then remainder.
	require.Len(t, *seen, 2)
	first := (*seen)[0].URL.Query()
	assert.Equal(t, "0", first.Get("start"))
	assert.Equal(t, strconv.Itoa(PageLimit), first.Get("limit"))
	assert.Equal(t, "OPS", first.Get("spaceKey"))
	assert.Equal(t, "page", first.Get("type"))
	assert.Equal(t, expandFields, first.Get("expand"))
	second := (*seen)[1].URL.Query()
	assert.Equal(t, strconv.Itoa(PageLimit), second.Get("start"))
}

func TestClient_FetchPages_TagFilterAnyMatch(t *testing.T) {
	server, _ := newFakeConfluence(t, []fakePage{
		{id: "1", labels: []string{"postmortem"}, when: "2024-01-01T00:00:00Z"},
		{id: "2", labels: []string{"howto"}, when: "2024-01-01T00:00:00Z"},
		{id: "3", labels: []string{"rca", "sev2"}, when: "2024-01-01T00:00:00Z"},
	})
	client := testClient(server)

	got, err := client.FetchPages(context.Background(), "OPS", []string{"postmortem", "rca"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestClient_FetchPages_SendsBearerToken(t *testing.T) {
	server, seen := newFakeConfluence(t, nil)
	client := testClient(server)

	_, err := client.FetchPages(context.Background(), "OPS", nil)
	require.NoError(t, err)
	require.NotEmpty(t, *seen)
	assert.Equal(t, "Bearer test-token", (*seen)[0].Header.Get("Authorization"))
}

func TestClient_FetchPageByID(t *testing.T) {
	server, _ := newFakeConfluence(t, []fakePage{
		{id: "42", title: "DNS Outage", body: "<p>body</p>", when: "2024-06-01T12:00:00Z"},
	})
	client := testClient(server)

	page, err := client.FetchPageByID(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", page.ID)
	assert.Equal(t, "OPS", page.SpaceKey)
	assert.Equal(t, "DNS Outage", page.Title)
}

func TestClient_FetchPageByID_NotFound(t *testing.T) {
	server, _ := newFakeConfluence(t, nil)
	client := testClient(server)

	_, err := client.FetchPageByID(context.Background(), "void")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_FetchModifiedSince(t *testing.T) {
	server, _ := newFakeConfluence(t, []fakePage{
		{id: "old", when: "2024-01-01T00:00:00Z"},
		{id: "new", when: "2024-06-01T00:00:00Z"},
		{id: "boundary", when: "2024-03-01T00:00:00Z"},
	})
	client := testClient(server)

	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := client.FetchModifiedSince(context.Background(), since, []string{"OPS"}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	// Strictly after the watermark: the boundary page is excluded.
	assert.Equal(t, "new", got[0].ID)
}

func TestClient_ServerErrorsWrapUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	client := testClient(server)

	_, err := client.FetchPages(context.Background(), "OPS", nil)
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
}

func TestClient_UnauthorizedWrapsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)
	client := testClient(server)

	_, err := client.FetchPageByID(context.Background(), "1")
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
	assert.Contains(t, err.Error(), "credentials")
}
