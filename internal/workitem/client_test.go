package workitem

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/activity-timeline/internal/notify"
)

func TestClientSetsBearerAuth(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-pat", nil)
	var out struct{}
	require.NoError(t, c.Get(context.Background(), "/_apis/profile", &out))

	assert.Equal(t, "Bearer secret-pat", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
}

func TestClientUnauthorizedIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"token expired"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "stale", nil)
	err := c.Get(context.Background(), "/_apis/profile", nil)

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "token expired")
}

func TestClientRetriesRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "pat", nil)
	var out struct{}
	require.NoError(t, c.Get(context.Background(), "/x", &out))
	assert.Equal(t, 2, attempts)
}

func TestClientReportsToCounter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	counter := notify.NewCounter()
	c := NewClient(srv.URL, "pat", counter)

	var out struct{}
	require.NoError(t, c.Get(context.Background(), "/x", &out))

	// Balanced start/end: no request left hanging on the indicator.
	assert.Equal(t, 0, counter.Requests())
}

func TestClientPatchContentType(t *testing.T) {
	var gotType, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "pat", nil)
	ops := []patchOp{{Op: "add", Path: "/fields/Title", Value: "x"}}

	var out struct{}
	require.NoError(t, c.Patch(context.Background(), "/x", ops, &out))
	assert.Equal(t, "application/json-patch+json", gotType)
	assert.Equal(t, http.MethodPatch, gotMethod)

	// Creation POSTs patch ops and still needs the patch media type.
	require.NoError(t, c.Post(context.Background(), "/x", ops, &out))
	assert.Equal(t, "application/json-patch+json", gotType)
	assert.Equal(t, http.MethodPost, gotMethod)
}
