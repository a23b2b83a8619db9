// Package github turns GitHub webhook deliveries into chat notifications.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Client wraps the GitHub REST API.
type Client struct {
	client *gh.Client
}

// NewClient creates a new GitHub API client.
// If token is empty, an unauthenticated client is created (with lower rate limits).
func NewClient(token string) *Client {
	if token == "" {
		return &Client{client: gh.NewClient(nil)}
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{client: gh.NewClient(oauth2.NewClient(context.Background(), ts))}
}

// newClientWithBaseURL points the client at a test server.
func newClientWithBaseURL(baseURL string) (*Client, error) {
	c, err := gh.NewClient(nil).WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{client: c}, nil
}

// RepositoryExists reports whether fullName ("owner/name") is visible to
// the client. A missing or private repository is not an error.
func (c *Client) RepositoryExists(ctx context.Context, fullName string) (bool, error) {
	owner, name, ok := splitFullName(fullName)
	if !ok {
		return false, nil
	}

	_, _, err := c.client.Repositories.Get(ctx, owner, name)
	if err == nil {
		return true, nil
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return false, fmt.Errorf("rate limit exceeded: %w", err)
	}
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("failed to get repository %s: %w", fullName, err)
}

func splitFullName(fullName string) (string, string, bool) {
	owner, name, ok := strings.Cut(fullName, "/")
	return owner, name, ok && owner != "" && name != ""
}
