package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-token").WithBaseURL(server.URL), server
}

func TestIsIssueClosed(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/repo/issues/1":
			_ = json.NewEncoder(w).Encode(Issue{Number: 1, State: "closed"})
		case "/repos/owner/repo/issues/2":
			_ = json.NewEncoder(w).Encode(Issue{Number: 2, State: "open"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	closed, err := client.IsIssueClosed(context.Background(), "owner", "repo", 1)
	if err != nil || !closed {
		t.Errorf("closed issue: got (%v, %v), want (true, nil)", closed, err)
	}

	closed, err = client.IsIssueClosed(context.Background(), "owner", "repo", 2)
	if err != nil || closed {
		t.Errorf("open issue: got (%v, %v), want (false, nil)", closed, err)
	}

	// A missing issue must be (false, error), never a silent "open".
	closed, err = client.IsIssueClosed(context.Background(), "owner", "repo", 3)
	if closed {
		t.Error("missing issue reported as closed")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing issue error = %v, want ErrNotFound", err)
	}
}

func TestPullRequestDetails(t *testing.T) {
	sha := "abc123def"
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/repo/pulls/10":
			_ = json.NewEncoder(w).Encode(PullRequest{
				Number:         10,
				Merged:         true,
				MergeCommitSHA: &sha,
				User:           &User{Login: "solver"},
			})
		case "/repos/owner/repo/pulls/11":
			// Unmerged PR with no author and no merge commit.
			_ = json.NewEncoder(w).Encode(map[string]any{
				"number":           11,
				"merged":           false,
				"merge_commit_sha": nil,
				"user":             nil,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	pr, err := client.PullRequestDetails(context.Background(), "owner", "repo", 10)
	if err != nil {
		t.Fatalf("PullRequestDetails: %v", err)
	}
	if !pr.Merged || pr.User == nil || pr.User.Login != "solver" {
		t.Errorf("merged PR = %+v, want merged with author solver", pr)
	}
	if pr.MergeCommitSHA == nil || *pr.MergeCommitSHA != sha {
		t.Errorf("MergeCommitSHA = %v, want %q", pr.MergeCommitSHA, sha)
	}

	pr, err = client.PullRequestDetails(context.Background(), "owner", "repo", 11)
	if err != nil {
		t.Fatalf("PullRequestDetails: %v", err)
	}
	if pr.Merged {
		t.Error("unmerged PR reported as merged")
	}
	// Absence stays nil, never an empty-string default.
	if pr.User != nil {
		t.Errorf("User = %+v, want nil", pr.User)
	}
	if pr.MergeCommitSHA != nil {
		t.Errorf("MergeCommitSHA = %v, want nil", pr.MergeCommitSHA)
	}
}

func TestIsPRLinkedToIssue(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
		want  bool
	}{
		{name: "closing keyword", body: "Fixes #5", want: true},
		{name: "closes with colon", body: "closes: #5", want: true},
		{name: "resolved keyword", body: "Resolved #5 by rewriting the parser", want: true},
		{name: "bare reference", body: "See #5 for background", want: true},
		{name: "reference in title", title: "Fix crash (#5)", want: true},
		{name: "cross-repo form", body: "Fixes owner/repo#5", want: true},
		{name: "full issue URL", body: "Addresses https://github.com/owner/repo/issues/5", want: true},
		{name: "different issue", body: "Fixes #55", want: false},
		{name: "no reference", body: "General cleanup", want: false},
		{name: "empty body", body: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(PullRequest{Number: 9, Title: tt.title, Body: tt.body, Merged: true})
			}))

			linked, err := client.IsPRLinkedToIssue(context.Background(), "owner", "repo", 9, 5)
			if err != nil {
				t.Fatalf("IsPRLinkedToIssue: %v", err)
			}
			if linked != tt.want {
				t.Errorf("IsPRLinkedToIssue(body=%q) = %v, want %v", tt.body, linked, tt.want)
			}
		})
	}
}

func TestDoGetSendsAuthHeaders(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want Bearer test-token", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept = %q", got)
		}
		_ = json.NewEncoder(w).Encode(Issue{Number: 1, State: "open"})
	}))

	if _, err := client.IsIssueClosed(context.Background(), "owner", "repo", 1); err != nil {
		t.Fatalf("IsIssueClosed: %v", err)
	}
}
