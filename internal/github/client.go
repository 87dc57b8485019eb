// Package github is a minimal REST client for the code-hosting
// collaborator: the authenticated user's pull requests and issues, and
// code search, optionally scoped to one repository.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"attache/pkg/models"
)

const defaultBaseURL = "https://api.github.com"

// Client talks to the GitHub search API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Config holds client construction parameters.
type Config struct {
	// BaseURL overrides the API endpoint (GitHub Enterprise). Empty
	// means api.github.com.
	BaseURL string

	// Token is the personal access token used for authentication.
	Token string

	// Timeout bounds each request. Zero means 15 seconds.
	Timeout time.Duration
}

// New creates a Client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// MyPullRequests returns the authenticated user's pull requests. state is
// "open", "closed" or "all".
func (c *Client) MyPullRequests(ctx context.Context, state string, maxResults int) ([]models.PullRequest, error) {
	items, err := c.searchIssues(ctx, "is:pr author:@me", state, maxResults)
	if err != nil {
		return nil, err
	}
	prs := make([]models.PullRequest, 0, len(items))
	for _, item := range items {
		prs = append(prs, models.PullRequest{
			Number:    item.Number,
			Title:     item.Title,
			Repo:      repoFromURL(item.RepositoryURL),
			State:     item.State,
			URL:       item.HTMLURL,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return prs, nil
}

// MyIssues returns issues assigned to the authenticated user.
func (c *Client) MyIssues(ctx context.Context, state string, maxResults int) ([]models.Issue, error) {
	items, err := c.searchIssues(ctx, "is:issue assignee:@me", state, maxResults)
	if err != nil {
		return nil, err
	}
	issues := make([]models.Issue, 0, len(items))
	for _, item := range items {
		issues = append(issues, models.Issue{
			Number:    item.Number,
			Title:     item.Title,
			Repo:      repoFromURL(item.RepositoryURL),
			State:     item.State,
			URL:       item.HTMLURL,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return issues, nil
}

// SearchCode searches code across every repository the token can see.
func (c *Client) SearchCode(ctx context.Context, query string, maxResults int) ([]models.CodeMatch, error) {
	return c.searchCode(ctx, query, maxResults)
}

// SearchCodeInRepo searches code within one repository.
func (c *Client) SearchCodeInRepo(ctx context.Context, repo, query string, maxResults int) ([]models.CodeMatch, error) {
	return c.searchCode(ctx, fmt.Sprintf("%s repo:%s", query, repo), maxResults)
}

type issueItem struct {
	Number        int       `json:"number"`
	Title         string    `json:"title"`
	State         string    `json:"state"`
	HTMLURL       string    `json:"html_url"`
	RepositoryURL string    `json:"repository_url"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (c *Client) searchIssues(ctx context.Context, base, state string, maxResults int) ([]issueItem, error) {
	query := base
	if state != "" && state != "all" {
		query += " state:" + state
	}

	var response struct {
		Items []issueItem `json:"items"`
	}
	if err := c.get(ctx, "/search/issues", query, maxResults, &response); err != nil {
		return nil, err
	}
	return response.Items, nil
}

func (c *Client) searchCode(ctx context.Context, query string, maxResults int) ([]models.CodeMatch, error) {
	var response struct {
		Items []struct {
			Path       string `json:"path"`
			HTMLURL    string `json:"html_url"`
			Repository struct {
				FullName string `json:"full_name"`
			} `json:"repository"`
		} `json:"items"`
	}
	if err := c.get(ctx, "/search/code", query, maxResults, &response); err != nil {
		return nil, err
	}

	matches := make([]models.CodeMatch, 0, len(response.Items))
	for _, item := range response.Items {
		matches = append(matches, models.CodeMatch{
			Repo: item.Repository.FullName,
			Path: item.Path,
			URL:  item.HTMLURL,
		})
	}
	return matches, nil
}

func (c *Client) get(ctx context.Context, path, query string, maxResults int, out any) error {
	params := url.Values{}
	params.Set("q", query)
	if maxResults > 0 {
		params.Set("per_page", strconv.Itoa(maxResults))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// repoFromURL extracts "owner/name" from an API repository URL.
func repoFromURL(repositoryURL string) string {
	const marker = "/repos/"
	idx := strings.Index(repositoryURL, marker)
	if idx < 0 {
		return ""
	}
	return repositoryURL[idx+len(marker):]
}
