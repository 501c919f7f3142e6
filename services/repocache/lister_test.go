package repocache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bountyhub/pkg/config"
	"bountyhub/services/testutil"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type upstream struct {
	srv   *httptest.Server
	calls atomic.Int32
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		if r.URL.Path != "/users/acme/repos" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode([]Repository{
			{ID: 1, Name: "bridge", FullName: "acme/bridge", DefaultBranch: "main"},
			{ID: 2, Name: "vault", FullName: "acme/vault", Private: true},
		})
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func newCachedLister(t *testing.T, u *upstream, clock clockwork.Clock) *CachedLister {
	t.Helper()
	cfg := &config.Config{}
	cfg.RepoCache.GithubAPIURL = u.srv.URL + "/"
	cfg.RepoCache.GithubToken = "secret"
	cache := New[[]Repository]("repositories", NewMemoryStore(), clock, 30*time.Minute)
	return NewCachedLister(NewGithubLister(cfg), cache)
}

func TestCachedLister(t *testing.T) {
	ctx := context.Background()
	u := newUpstream(t)
	clock := clockwork.NewFakeClockAt(epoch)
	l := newCachedLister(t, u, clock)

	repos, err := l.ListRepositories(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	require.Equal(t, "acme/bridge", repos[0].FullName)

	_, err = l.ListRepositories(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, int32(1), u.calls.Load())

	_, err = l.List(ctx, "acme", true)
	require.NoError(t, err)
	require.Equal(t, int32(2), u.calls.Load())

	clock.Advance(29 * time.Minute)
	_, err = l.ListRepositories(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, int32(2), u.calls.Load())

	clock.Advance(time.Minute)
	_, err = l.ListRepositories(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, int32(3), u.calls.Load())
}

func TestCachedLister_UpstreamError(t *testing.T) {
	u := newUpstream(t)
	l := newCachedLister(t, u, clockwork.NewFakeClockAt(epoch))

	_, err := l.ListRepositories(context.Background(), "ghost")
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, http.StatusNotFound, upstreamErr.StatusCode)
}

func TestHandler(t *testing.T) {
	u := newUpstream(t)
	engine, router := testutil.NewTestRouter()
	RegisterRoutes(router, NewHandler(newCachedLister(t, u, clockwork.NewFakeClockAt(epoch))))

	w := testutil.Do(t, engine, http.MethodGet, "/api/v1/repositories?owner=acme", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Repositories []Repository `json:"repositories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Repositories, 1)

	w = testutil.Do(t, engine, http.MethodGet, "/api/v1/repositories", "u1", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(t, engine, http.MethodGet, "/api/v1/repositories?owner=ghost", "u1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
