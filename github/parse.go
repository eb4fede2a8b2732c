package github

import (
	"regexp"
	"strconv"
)

// repoURLPattern matches canonical GitHub issue and pull request URLs:
// https://github.com/{owner}/{repo}/issues/{n} or .../pull/{n}.
var repoURLPattern = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([^/\s]+)/([^/\s]+)/(issues|pull)/(\d+)/?$`)

// ParseRepoURL extracts owner, repo and number from a GitHub issue or pull
// request URL. Pure string parsing, no network call. Returns ok=false on
// any URL not matching the expected shape.
func ParseRepoURL(rawURL string) (*RepoRef, bool) {
	m := repoURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return nil, false
	}

	number, err := strconv.Atoi(m[4])
	if err != nil || number <= 0 {
		return nil, false
	}

	return &RepoRef{
		Owner:  m[1],
		Repo:   m[2],
		Number: number,
		IsPull: m[3] == "pull",
	}, true
}
