package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveFixture(t *testing.T, w http.ResponseWriter, name string) {
	t.Helper()

	body, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	_, _ = w.Write(body)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(Config{
		BaseURL:        baseURL,
		PageDelay:      time.Millisecond,
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	return client
}

func TestProfileExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/u/curator_sam":
			serveFixture(t, w, "profile.html")
		case "/u/ghost_user":
			serveFixture(t, w, "no_profile.html")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	ctx := context.Background()

	assert.True(t, client.ProfileExists(ctx, "curator_sam"))
	assert.False(t, client.ProfileExists(ctx, "ghost_user"), "page without the profile marker")
	assert.False(t, client.ProfileExists(ctx, "does_not_exist"), "404 response")
}

func TestProfileExists_FetchErrorMeansFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := newTestClient(t, srv.URL)
	assert.False(t, client.ProfileExists(context.Background(), "anyone"))
}

func TestFetchCollection(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Path+"?"+r.URL.RawQuery)

		switch r.URL.Path {
		case "/u/curator_sam/games/played":
			if r.URL.Query().Get("page") == "2" {
				serveFixture(t, w, "shelf_page2.html")
			} else {
				serveFixture(t, w, "shelf_page1.html")
			}
		case "/u/curator_sam/games/playing",
			"/u/curator_sam/games/backlog",
			"/u/curator_sam/games/wishlist":
			serveFixture(t, w, "shelf_single.html")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	collection, err := client.FetchCollection(context.Background(), "curator_sam")
	require.NoError(t, err)

	// Played shelf spans two pages: 2 valid entries on page 1, 1 on page 2.
	assert.Len(t, collection.Played, 3)
	assert.Len(t, collection.Playing, 1)
	assert.Len(t, collection.Backlog, 1)
	assert.Len(t, collection.Wishlist, 1)
	assert.Equal(t, 6, collection.Size())

	assert.Equal(t, int64(4096), collection.Played[2].ExternalGameID)

	// 5 total page fetches: played x2, the other shelves x1 each.
	assert.Len(t, requests, 5)
}

func TestFetchCollection_Non200FailsCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	collection, err := client.FetchCollection(context.Background(), "curator_sam")

	require.Error(t, err)
	assert.Nil(t, collection)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestFetchCollection_ContextCancelledBetweenPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveFixture(t, w, "shelf_page1.html")
	}))
	defer srv.Close()

	client, err := New(Config{
		BaseURL:        srv.URL,
		PageDelay:      200 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = client.FetchCollection(ctx, "curator_sam")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
