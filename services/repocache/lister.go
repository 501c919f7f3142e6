package repocache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bountyhub/pkg/config"
	"bountyhub/pkg/rediskey"
)

type Repository struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	FullName      string  `json:"full_name"`
	Private       bool    `json:"private"`
	HTMLURL       string  `json:"html_url"`
	Description   *string `json:"description"`
	DefaultBranch string  `json:"default_branch"`
}

// RepositoryLister lists the repositories an owner can register as a project.
type RepositoryLister interface {
	ListRepositories(ctx context.Context, owner string) ([]Repository, error)
}

// GithubLister reads public repositories from the GitHub REST API.
type GithubLister struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewGithubLister(cfg *config.Config) *GithubLister {
	timeout := cfg.RepoCache.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GithubLister{
		baseURL: strings.TrimRight(cfg.RepoCache.GithubAPIURL, "/"),
		token:   cfg.RepoCache.GithubToken,
		client:  &http.Client{Timeout: timeout},
	}
}

func (l *GithubLister) ListRepositories(ctx context.Context, owner string) ([]Repository, error) {
	endpoint := fmt.Sprintf("%s/users/%s/repos?per_page=100&sort=updated", l.baseURL, url.PathEscape(owner))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "bountyhub")
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list repositories of %s: %w", owner, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var repos []Repository
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, fmt.Errorf("decode repositories of %s: %w", owner, err)
	}
	return repos, nil
}

type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("github returned %d: %s", e.StatusCode, e.Body)
}

// PublicOnly drops private repositories.
func PublicOnly(repos []Repository) []Repository {
	out := make([]Repository, 0, len(repos))
	for _, r := range repos {
		if !r.Private {
			out = append(out, r)
		}
	}
	return out
}

// CachedLister serves repository lists from a Cache keyed by owner.
type CachedLister struct {
	next  RepositoryLister
	cache *Cache[[]Repository]
}

func NewCachedLister(next RepositoryLister, cache *Cache[[]Repository]) *CachedLister {
	return &CachedLister{next: next, cache: cache}
}

func (l *CachedLister) ListRepositories(ctx context.Context, owner string) ([]Repository, error) {
	return l.List(ctx, owner, false)
}

// List returns the public repositories of owner. refresh skips the cached
// copy and replaces it.
func (l *CachedLister) List(ctx context.Context, owner string, refresh bool) ([]Repository, error) {
	key := rediskey.BuildRepoCacheKey(strings.ToLower(owner))
	if refresh {
		if err := l.cache.Invalidate(ctx, key); err != nil {
			return nil, fmt.Errorf("invalidate %s: %w", key, err)
		}
	}

	return l.cache.GetOrLoad(ctx, key, func(ctx context.Context) ([]Repository, error) {
		repos, err := l.next.ListRepositories(ctx, owner)
		if err != nil {
			return nil, err
		}
		return PublicOnly(repos), nil
	})
}
