package github

import (
	"encoding/json"
	"strings"
)

// EventKind is the value of the X-GitHub-Event header.
type EventKind string

const (
	KindPush                     EventKind = "push"
	KindCreate                   EventKind = "create"
	KindDelete                   EventKind = "delete"
	KindPullRequest              EventKind = "pull_request"
	KindPullRequestReview        EventKind = "pull_request_review"
	KindPullRequestReviewComment EventKind = "pull_request_review_comment"
	KindIssues                   EventKind = "issues"
	KindIssueComment             EventKind = "issue_comment"
	KindCommitComment            EventKind = "commit_comment"
	KindStar                     EventKind = "star"
	KindFork                     EventKind = "fork"
	KindRelease                  EventKind = "release"
	KindWorkflowRun              EventKind = "workflow_run"
	KindCheckSuite               EventKind = "check_suite"
	KindCheckRun                 EventKind = "check_run"
	KindDeployment               EventKind = "deployment"
	KindDeploymentStatus         EventKind = "deployment_status"
	KindVulnerabilityAlert       EventKind = "repository_vulnerability_alert"
	KindDependabotAlert          EventKind = "dependabot_alert"
	KindPing                     EventKind = "ping"
)

// UnknownRepo is used when a payload carries no repository.
const UnknownRepo = "unknown/repo"

// RepositoryEvent is one inbound webhook delivery, normalized.
type RepositoryEvent struct {
	Kind         EventKind
	DeliveryID   string
	RepoFullName string
	RepoURL      string
	RawPayload   json.RawMessage
}

// ParseEvent extracts the repository common to all payloads. It never
// fails: an unreadable payload yields the UnknownRepo sentinel.
func ParseEvent(kind string, body []byte) *RepositoryEvent {
	var base struct {
		Repository struct {
			FullName string `json:"full_name"`
			HTMLURL  string `json:"html_url"`
		} `json:"repository"`
	}
	// Errors leave base zeroed, which the defaults below cover.
	_ = json.Unmarshal(body, &base)

	fullName := strings.TrimSpace(base.Repository.FullName)
	if fullName == "" {
		fullName = UnknownRepo
	}

	repoURL := base.Repository.HTMLURL
	if repoURL == "" {
		repoURL = "https://github.com/" + fullName
	}

	return &RepositoryEvent{
		Kind:         EventKind(kind),
		RepoFullName: fullName,
		RepoURL:      repoURL,
		RawPayload:   json.RawMessage(body),
	}
}
