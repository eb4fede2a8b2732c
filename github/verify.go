package github

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// IsIssueClosed reports whether the issue is closed. A missing issue or an
// API failure comes back as (false, non-nil error) so callers never mistake
// an unreachable issue for a genuinely open one.
func (c *Client) IsIssueClosed(ctx context.Context, owner, repo string, number int) (bool, error) {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	respBody, err := c.doGet(ctx, path)
	if err != nil {
		return false, fmt.Errorf("failed to fetch issue #%d: %w", number, err)
	}

	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return false, fmt.Errorf("failed to parse issue response: %w", err)
	}

	return issue.State == "closed", nil
}

// PullRequestDetails fetches merge state, author and merge commit for a PR.
// Absent author or merge commit stays nil in the returned struct.
func (c *Client) PullRequestDetails(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
	respBody, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request #%d: %w", number, err)
	}

	var pr PullRequest
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse pull request response: %w", err)
	}

	return &pr, nil
}

// IsPRLinkedToIssue reports whether the pull request references the issue
// via a closing keyword, a bare #N reference, the full issue URL, or the
// owner/repo#N cross-reference form. This is a conservative gate: missing
// or ambiguous evidence yields false, never a guess.
func (c *Client) IsPRLinkedToIssue(ctx context.Context, owner, repo string, prNumber, issueNumber int) (bool, error) {
	pr, err := c.PullRequestDetails(ctx, owner, repo, prNumber)
	if err != nil {
		return false, err
	}

	text := pr.Title + "\n" + pr.Body
	return referencesIssue(text, owner, repo, issueNumber), nil
}

func referencesIssue(text, owner, repo string, issueNumber int) bool {
	n := strconv.Itoa(issueNumber)

	patterns := []*regexp.Regexp{
		// "#5" preceded by a closing keyword somewhere before it on the line
		regexp.MustCompile(`(?im)(?:close[sd]?|fix(?:e[sd])?|resolve[sd]?)[:\s]+#` + n + `\b`),
		// bare "#5" reference
		regexp.MustCompile(`(?m)(?:^|[\s(])#` + n + `\b`),
		// cross-repo form owner/repo#5
		regexp.MustCompile(`(?i)` + regexp.QuoteMeta(owner+"/"+repo) + `#` + n + `\b`),
		// full issue URL
		regexp.MustCompile(`(?i)github\.com/` + regexp.QuoteMeta(owner+"/"+repo) + `/issues/` + n + `\b`),
	}

	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
