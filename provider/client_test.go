package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/poiesic/boardvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBoard struct {
	channelID    int64
	slug         string
	title        string
	length       int
	userID       int64
	blocks       map[int64]map[string]any
	failBlocks   map[int64]bool
	pageRequests int
	channelHits  int
}

func (f *fakeBoard) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/channels/"+f.slug, func(w http.ResponseWriter, r *http.Request) {
		f.channelHits++
		channel := map[string]any{
			"id":     f.channelID,
			"title":  f.title,
			"slug":   f.slug,
			"length": f.length,
		}
		if f.userID != 0 {
			channel["user_id"] = f.userID
		}
		json.NewEncoder(w).Encode(channel)
	})

	mux.HandleFunc(fmt.Sprintf("/channels/%d/contents", f.channelID), func(w http.ResponseWriter, r *http.Request) {
		f.pageRequests++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		per, _ := strconv.Atoi(r.URL.Query().Get("per"))

		start := (page - 1) * per
		var contents []map[string]any
		for i := start; i < start+per && i < f.length; i++ {
			contents = append(contents, map[string]any{
				"id":    int64(i + 1),
				"title": fmt.Sprintf("block %d", i+1),
				"class": "Link",
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"contents": contents})
	})

	mux.HandleFunc("/blocks/", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/blocks/"), 10, 64)
		if f.failBlocks[id] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		block, ok := f.blocks[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(block)
	})

	return mux
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRateLimits(0, 0, 0)}, opts...)
	client, err := NewClient(baseURL, opts...)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestFetchCollection(t *testing.T) {
	board := &fakeBoard{channelID: 42, slug: "design-refs", title: "Design Refs", length: 3}
	server := httptest.NewServer(board.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)

	col, err := client.FetchCollection(context.Background(), "design-refs")
	require.NoError(t, err)
	assert.Equal(t, int64(42), col.ExternalID)
	assert.Equal(t, "Design Refs", col.Title)
	assert.Equal(t, "design-refs", col.Slug)
	assert.Empty(t, col.AccountID, "anonymous channel has no owner")
}

func TestFetchCollectionOwnerAccount(t *testing.T) {
	board := &fakeBoard{channelID: 7, slug: "owned", title: "Owned", length: 0, userID: 9001}
	server := httptest.NewServer(board.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)

	col, err := client.FetchCollection(context.Background(), "owned")
	require.NoError(t, err)
	assert.Equal(t, "9001", col.AccountID, "numeric owner id maps to its decimal string")
}

func TestFetchCollectionNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchCollection(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchCollectionUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchCollection(context.Background(), "private")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestFetchCollectionEmptySlug(t *testing.T) {
	client := newTestClient(t, "http://localhost:1")
	_, err := client.FetchCollection(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptySlug)
}

func TestFetchAllItemsPaginates(t *testing.T) {
	board := &fakeBoard{channelID: 7, slug: "big", title: "Big", length: 250}
	server := httptest.NewServer(board.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)

	items, err := client.FetchAllItems(context.Background(), "big")
	require.NoError(t, err)
	assert.Len(t, items, 250)
	assert.Equal(t, 3, board.pageRequests)

	// Provider order preserved.
	assert.Equal(t, int64(1), items[0].ExternalID)
	assert.Equal(t, int64(250), items[249].ExternalID)

	// All items share the collection's storage ID.
	wantCol := core.IDFromContent("collection:big")
	for _, item := range items {
		assert.Equal(t, wantCol, item.CollectionID)
	}
}

func TestFetchAllItemsStopsOnEmptyPage(t *testing.T) {
	// Channel length overcounts deleted blocks; the empty page ends
	// pagination instead of looping.
	board := &fakeBoard{channelID: 7, slug: "stale", title: "Stale", length: 130}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/contents") {
			page := r.URL.Query().Get("page")
			if page != "1" {
				json.NewEncoder(w).Encode(map[string]any{"contents": []any{}})
				return
			}
			var contents []map[string]any
			for i := 0; i < 100; i++ {
				contents = append(contents, map[string]any{"id": int64(i + 1), "class": "Text"})
			}
			json.NewEncoder(w).Encode(map[string]any{"contents": contents})
			return
		}
		board.handler().ServeHTTP(w, r)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	items, err := client.FetchAllItems(context.Background(), "stale")
	require.NoError(t, err)
	assert.Len(t, items, 100)
}

func TestFetchAllItemsReusesChannelResponse(t *testing.T) {
	board := &fakeBoard{channelID: 11, slug: "paired", title: "Paired", length: 2}
	server := httptest.NewServer(board.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)

	// The resolve-then-list pair a sync performs hits the channel
	// endpoint once.
	_, err := client.FetchCollection(context.Background(), "paired")
	require.NoError(t, err)
	items, err := client.FetchAllItems(context.Background(), "paired")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, board.channelHits)

	// A standalone listing fetches the channel fresh.
	_, err = client.FetchAllItems(context.Background(), "paired")
	require.NoError(t, err)
	assert.Equal(t, 2, board.channelHits)
}

func TestFetchItemDetails(t *testing.T) {
	board := &fakeBoard{
		channelID: 9, slug: "mixed", title: "Mixed", length: 0,
		blocks: map[int64]map[string]any{
			1: {"id": int64(1), "source": map[string]any{"url": "https://example.com/a"}},
			3: {"id": int64(3), "source_url": "https://example.com/c", "description": "from detail"},
		},
	}
	server := httptest.NewServer(board.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)

	items := []*core.Item{
		{ExternalID: 1, Type: core.ContentTypeDocument},
		{ExternalID: 2, Type: core.ContentTypeImage},
		{ExternalID: 3, Type: core.ContentTypeDocument},
	}

	matched, err := client.FetchItemDetails(context.Background(), items, core.ContentTypeDocument)
	require.NoError(t, err)
	require.Len(t, matched, 2)

	// Nested source location.
	assert.Equal(t, "https://example.com/a", items[0].SourceURL)
	// Flat source_url location normalizes to the same field.
	assert.Equal(t, "https://example.com/c", items[2].SourceURL)
	assert.Equal(t, "from detail", items[2].Description)
	// Non-matching item untouched.
	assert.Empty(t, items[1].SourceURL)
}

func TestFetchItemDetailsDropsFailures(t *testing.T) {
	board := &fakeBoard{
		channelID: 9, slug: "flaky", title: "Flaky", length: 0,
		blocks: map[int64]map[string]any{
			1: {"id": int64(1), "source": map[string]any{"url": "https://example.com/a"}},
		},
		failBlocks: map[int64]bool{2: true},
	}
	server := httptest.NewServer(board.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)

	items := []*core.Item{
		{ExternalID: 1, Type: core.ContentTypeDocument, SourceURL: ""},
		{ExternalID: 2, Type: core.ContentTypeDocument, SourceURL: "https://list.example.com/b"},
	}

	matched, err := client.FetchItemDetails(context.Background(), items, core.ContentTypeDocument)
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	assert.Equal(t, "https://example.com/a", items[0].SourceURL)
	// Failed detail keeps its list-response data.
	assert.Equal(t, "https://list.example.com/b", items[1].SourceURL)
}

func TestFetchItemDetailsNoMatches(t *testing.T) {
	client := newTestClient(t, "http://localhost:1")

	items := []*core.Item{{ExternalID: 1, Type: core.ContentTypeText}}
	matched, err := client.FetchItemDetails(context.Background(), items, core.ContentTypeVideo)
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestAuthorizationHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"id": int64(1), "slug": "private", "length": 0})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithAccessToken("tok-abc"))

	_, err := client.FetchCollection(context.Background(), "private")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestClassToContentType(t *testing.T) {
	tests := []struct {
		class string
		want  core.ContentType
	}{
		{"Link", core.ContentTypeDocument},
		{"Image", core.ContentTypeImage},
		{"Media", core.ContentTypeVideo},
		{"Attachment", core.ContentTypeAttachment},
		{"Text", core.ContentTypeText},
		{"Channel", core.ContentTypeDocument},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classToContentType(tt.class), tt.class)
	}
}
