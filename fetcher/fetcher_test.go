package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tootfeed/fetcher"
	"tootfeed/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliceStatuses = `[
	{
		"account": {"avatar": "https://a.example/alice.png", "url": "https://a.example/@alice", "username": "alice"},
		"content": "<p>hi</p>",
		"created_at": "2024-01-02T00:00:00Z"
	},
	{
		"account": {"avatar": "https://a.example/alice.png", "url": "https://a.example/@alice", "username": "alice"},
		"content": "",
		"created_at": "2024-01-03T00:00:00.000Z"
	}
]`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusesURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "plain", url: "https://a.example/users/alice", expected: "https://a.example/users/alice/statuses"},
		{name: "trailing slash", url: "https://a.example/users/alice/", expected: "https://a.example/users/alice/statuses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fetcher.StatusesURL(models.Subscription{URL: tt.url}))
		})
	}
}

func TestFetchDecodesEntries(t *testing.T) {
	var gotPath, gotAccept, gotAgent string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(aliceStatuses))
	})

	f := fetcher.New(srv.Client(), fetcher.Options{UserAgent: "test-agent"})
	entries, err := f.Fetch(context.Background(), models.Subscription{Account: "alice", URL: srv.URL + "/users/alice"})
	require.NoError(t, err)

	assert.Equal(t, "/users/alice/statuses", gotPath)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "test-agent", gotAgent)

	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Account.Username)
	assert.Equal(t, "https://a.example/@alice", entries[0].Account.URL)
	assert.Equal(t, "https://a.example/alice.png", entries[0].Account.Avatar)
	assert.Equal(t, "<p>hi</p>", entries[0].Content)
	assert.Equal(t, "2024-01-02T00:00:00Z", entries[0].CreatedAt)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), entries[0].Published)
	assert.True(t, entries[1].Boost())
}

func TestFetchEmptyList(t *testing.T) {
	for _, body := range []string{"[]", "null"} {
		t.Run(body, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			entries, err := fetcher.New(srv.Client(), fetcher.Options{}).Fetch(context.Background(), models.Subscription{URL: srv.URL})
			require.NoError(t, err)
			assert.NotNil(t, entries)
			assert.Empty(t, entries)
		})
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		kind       fetcher.ErrKind
		statusCode int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			kind:       fetcher.ErrKindStatus,
			statusCode: http.StatusInternalServerError,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			kind:       fetcher.ErrKindStatus,
			statusCode: http.StatusNotFound,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"account": `))
			},
			kind:       fetcher.ErrKindDecode,
			statusCode: http.StatusOK,
		},
		{
			name: "object instead of list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error": "Record not found"}`))
			},
			kind:       fetcher.ErrKindDecode,
			statusCode: http.StatusOK,
		},
		{
			name: "unexpected entry shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"account": "alice", "content": "hi", "created_at": "2024-01-02T00:00:00Z"}]`))
			},
			kind:       fetcher.ErrKindDecode,
			statusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.handler)

			entries, err := fetcher.New(srv.Client(), fetcher.Options{}).Fetch(context.Background(), models.Subscription{Account: "alice", URL: srv.URL})
			require.Error(t, err)
			assert.Nil(t, entries)

			var fetchErr *fetcher.FetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, tt.kind, fetchErr.Kind)
			assert.Equal(t, tt.statusCode, fetchErr.StatusCode)
			assert.Equal(t, "alice", fetchErr.Account)
			assert.Equal(t, srv.URL+"/statuses", fetchErr.URL)
		})
	}
}

func TestFetchBodyTooLarge(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(aliceStatuses))
	})

	_, err := fetcher.New(srv.Client(), fetcher.Options{MaxBodyBytes: 16}).Fetch(context.Background(), models.Subscription{URL: srv.URL})

	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetcher.ErrKindDecode, fetchErr.Kind)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	start := time.Now()
	_, err := fetcher.New(srv.Client(), fetcher.Options{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), models.Subscription{URL: srv.URL})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetcher.ErrKindTransport, fetchErr.Kind)
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := fetcher.New(nil, fetcher.Options{}).Fetch(context.Background(), models.Subscription{URL: url})

	var fetchErr *fetcher.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, fetcher.ErrKindTransport, fetchErr.Kind)
	assert.Zero(t, fetchErr.StatusCode)
}
