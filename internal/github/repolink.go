package github

import (
	"regexp"
	"strings"
)

const repoURLPrefix = "https://github.com/"

var repoSegment = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ParseRepoURL accepts https://github.com/<owner>/<name> with an optional
// trailing slash and returns "owner/name".
func ParseRepoURL(input string) (string, bool) {
	s := strings.TrimSpace(input)
	if !strings.HasPrefix(s, repoURLPrefix) {
		return "", false
	}

	path := strings.TrimSuffix(strings.TrimPrefix(s, repoURLPrefix), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		return "", false
	}
	for _, p := range parts {
		if !repoSegment.MatchString(p) {
			return "", false
		}
	}

	return parts[0] + "/" + parts[1], true
}
