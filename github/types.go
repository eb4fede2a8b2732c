// Package github provides the read-only GitHub REST client used to verify
// bounty claims: issue state, pull request state, and issue<->PR linkage.
package github

import (
	"net/http"
	"time"
)

const (
	// DefaultAPIEndpoint is the GitHub REST API base URL.
	DefaultAPIEndpoint = "https://api.github.com"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries for rate-limited requests.
	MaxRetries = 3

	// RetryDelay is the base delay between retries (exponential backoff).
	RetryDelay = time.Second
)

// Client provides read-only access to the GitHub REST API.
type Client struct {
	Token      string       // GitHub personal access token, may be empty for public repos
	BaseURL    string       // API base URL (default: https://api.github.com)
	HTTPClient *http.Client // Optional custom HTTP client
}

// RepoRef identifies an issue or pull request by owner/repo/number.
type RepoRef struct {
	Owner  string
	Repo   string
	Number int
	IsPull bool // true when the URL pointed at /pull/, false for /issues/
}

// Issue is the subset of the GitHub issue payload the verifier needs.
type Issue struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	State       string   `json:"state"` // "open" or "closed"
	User        *User    `json:"user,omitempty"`
	PullRequest *PullRef `json:"pull_request,omitempty"`
	HTMLURL     string   `json:"html_url"`
}

// PullRef is non-nil on issue payloads that are actually pull requests.
type PullRef struct {
	URL string `json:"url,omitempty"`
}

// PullRequest is the subset of the GitHub PR payload the verifier needs.
// MergeCommitSHA and User stay nil when GitHub omits them; callers decide
// how to handle absence, this layer never substitutes empty values.
type PullRequest struct {
	Number         int     `json:"number"`
	Title          string  `json:"title"`
	Body           string  `json:"body"`
	State          string  `json:"state"`
	Merged         bool    `json:"merged"`
	MergeCommitSHA *string `json:"merge_commit_sha"`
	User           *User   `json:"user"`
	HTMLURL        string  `json:"html_url"`
}

// User is a GitHub account reference.
type User struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
}
