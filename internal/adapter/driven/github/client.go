// Package github implements the RepoFetcher port using the go-github library.
package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/autoreview/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RepoFetcher = (*Client)(nil)

// maxArchiveRedirects bounds codeload redirect chasing when resolving the
// zipball URL.
const maxArchiveRedirects = 3

// Client implements the driven.RepoFetcher port using the go-github library.
type Client struct {
	gh       *gh.Client
	download *http.Client // Used for the resolved archive URL; codeload is not the API host.
	maxBytes int64
}

// NewClient creates a GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, optionally with PAT auth)
//
// An empty token leaves the client unauthenticated, which is enough for
// public repositories at a lower rate limit.
func NewClient(token string, maxBytes int64) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{
		gh:       client,
		download: &http.Client{},
		maxBytes: maxBytes,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, maxBytes int64) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	client.BaseURL = u

	return &Client{
		gh:       client,
		download: httpClient,
		maxBytes: maxBytes,
	}, nil
}

// FetchArchive downloads the zipball of repoFullName at ref and returns the
// archive bytes, capped at maxBytes so a huge repository cannot exhaust
// memory before staging-level limits apply.
func (c *Client) FetchArchive(ctx context.Context, repoFullName, ref string) ([]byte, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	archiveURL, _, err := c.gh.Repositories.GetArchiveLink(ctx, owner, repo, gh.Zipball, opts, maxArchiveRedirects)
	if err != nil {
		return nil, fmt.Errorf("resolving archive link for %s: %w", repoFullName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building archive request: %w", err)
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading archive for %s: %w", repoFullName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading archive for %s: status %d", repoFullName, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading archive for %s: %w", repoFullName, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("archive for %s exceeds %d bytes", repoFullName, c.maxBytes)
	}
	return data, nil
}

// splitRepo parses "owner/name" into its components.
func splitRepo(repoFullName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(repoFullName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository name %q, want owner/name", repoFullName)
	}
	return owner, repo, nil
}
