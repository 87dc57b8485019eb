package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Token: "test-token"})
}

func TestMyPullRequests(t *testing.T) {
	var gotPath, gotQuery, gotPerPage, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		gotPerPage = r.URL.Query().Get("per_page")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"items": [
			{"number": 7, "title": "add retries", "state": "open",
			 "html_url": "https://github.com/acme/api/pull/7",
			 "repository_url": "https://api.github.com/repos/acme/api",
			 "updated_at": "2024-06-14T10:00:00Z"}
		]}`))
	})

	prs, err := client.MyPullRequests(context.Background(), "open", 10)
	require.NoError(t, err)

	assert.Equal(t, "/search/issues", gotPath)
	assert.Equal(t, "is:pr author:@me state:open", gotQuery)
	assert.Equal(t, "10", gotPerPage)
	assert.Equal(t, "Bearer test-token", gotAuth)

	require.Len(t, prs, 1)
	assert.Equal(t, 7, prs[0].Number)
	assert.Equal(t, "acme/api", prs[0].Repo)
	assert.Equal(t, "open", prs[0].State)
}

func TestMyPullRequests_AllStateOmitsQualifier(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"items": []}`))
	})

	_, err := client.MyPullRequests(context.Background(), "all", 10)
	require.NoError(t, err)
	assert.Equal(t, "is:pr author:@me", gotQuery)
}

func TestMyIssues(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"items": [
			{"number": 12, "title": "flaky CI", "state": "open",
			 "html_url": "https://github.com/acme/api/issues/12",
			 "repository_url": "https://api.github.com/repos/acme/api",
			 "updated_at": "2024-06-13T08:00:00Z"}
		]}`))
	})

	issues, err := client.MyIssues(context.Background(), "open", 5)
	require.NoError(t, err)
	assert.Equal(t, "is:issue assignee:@me state:open", gotQuery)
	require.Len(t, issues, 1)
	assert.Equal(t, "flaky CI", issues[0].Title)
	assert.Equal(t, "acme/api", issues[0].Repo)
}

func TestSearchCode(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"items": [
			{"path": "internal/retry.go",
			 "html_url": "https://github.com/acme/api/blob/main/internal/retry.go",
			 "repository": {"full_name": "acme/api"}}
		]}`))
	})

	matches, err := client.SearchCode(context.Background(), "backoff", 20)
	require.NoError(t, err)
	assert.Equal(t, "/search/code", gotPath)
	assert.Equal(t, "backoff", gotQuery)
	require.Len(t, matches, 1)
	assert.Equal(t, "acme/api", matches[0].Repo)
	assert.Equal(t, "internal/retry.go", matches[0].Path)
}

func TestSearchCodeInRepo(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"items": []}`))
	})

	_, err := client.SearchCodeInRepo(context.Background(), "acme/api", "backoff", 20)
	require.NoError(t, err)
	assert.Equal(t, "backoff repo:acme/api", gotQuery)
}

func TestGet_NonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "API rate limit exceeded"}`))
	})

	_, err := client.MyPullRequests(context.Background(), "open", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "rate limit")
}

func TestNew_Defaults(t *testing.T) {
	client := New(Config{})
	assert.Equal(t, defaultBaseURL, client.baseURL)

	client = New(Config{BaseURL: "https://ghe.example.com/api/v3/"})
	assert.Equal(t, "https://ghe.example.com/api/v3", client.baseURL)
}

func TestRepoFromURL(t *testing.T) {
	assert.Equal(t, "acme/api", repoFromURL("https://api.github.com/repos/acme/api"))
	assert.Equal(t, "", repoFromURL("https://api.github.com/orgs/acme"))
}
