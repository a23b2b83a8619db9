package github

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/user/codehubnotify/pkg/logger"
)

// translateFunc renders one event kind. An error means the payload did not
// decode and the generic message should be used instead.
type translateFunc func(t *Translator, ev *RepositoryEvent) (string, error)

var translators = map[EventKind]translateFunc{
	KindPush:                     translatePush,
	KindCreate:                   translateRefChange,
	KindDelete:                   translateRefChange,
	KindPullRequest:              translatePullRequest,
	KindPullRequestReview:        translatePullRequestReview,
	KindPullRequestReviewComment: translatePullRequestReviewComment,
	KindIssues:                   translateIssues,
	KindIssueComment:             translateIssueComment,
	KindCommitComment:            translateCommitComment,
	KindStar:                     translateStar,
	KindFork:                     translateFork,
	KindRelease:                  translateRelease,
	KindWorkflowRun:              translateWorkflowRun,
	KindCheckSuite:               translateCheckSuite,
	KindCheckRun:                 translateCheckRun,
	KindDeployment:               translateDeployment,
	KindDeploymentStatus:         translateDeploymentStatus,
	KindVulnerabilityAlert:       translateVulnerabilityAlert,
	KindDependabotAlert:          translateDependabotAlert,
	KindPing:                     translatePing,
}

// Translator turns webhook events into Telegram HTML messages.
type Translator struct {
	now func() time.Time
}

// NewTranslator creates a translator stamping push events with the current time.
func NewTranslator() *Translator {
	return &Translator{now: time.Now}
}

// Translate renders ev. Every kind produces a message; kinds without a
// dedicated template get the generic one.
func (t *Translator) Translate(ev *RepositoryEvent) string {
	fn, ok := translators[ev.Kind]
	if !ok {
		return translateGeneric(ev)
	}

	msg, err := fn(t, ev)
	if err != nil {
		logger.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("Failed to decode payload, using generic message")
		return translateGeneric(ev)
	}
	return msg
}

func decode[T any](ev *RepositoryEvent) (*T, error) {
	var payload T
	if err := json.Unmarshal(ev.RawPayload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", ev.Kind, err)
	}
	return &payload, nil
}

func translateGeneric(ev *RepositoryEvent) string {
	return fmt.Sprintf("🔔 Event %s occurred in %s", escape(string(ev.Kind)), link(ev.RepoURL, ev.RepoFullName))
}

func translatePing(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.PingEvent](ev)
	if err != nil {
		return "", err
	}

	m := &messageBuilder{}
	m.line("✅ <b>Webhook connected!</b>").blank()
	m.repo(ev)
	m.line("Notifications for this repository will be delivered to linked chats.")
	if zen := e.GetZen(); zen != "" {
		m.blank().line("💬 <i>%s</i>", escape(zen))
	}
	return m.String(), nil
}

func translatePush(t *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.PushEvent](ev)
	if err != nil {
		return "", err
	}

	count := len(e.Commits)
	m := &messageBuilder{}
	m.repo(ev)
	m.line("👤 <b>Pushed by:</b> %s", escape(orUnknown(e.GetPusher().GetName())))
	m.line("🌿 <b>Branch:</b> %s", escape(orUnknown(branchName(e.GetRef()))))
	m.line("🕒 <b>Time:</b> %s", t.now().UTC().Format("2006-01-02 15:04:05 UTC"))
	m.blank()
	m.line("🚀 <b>%d %s pushed:</b>", count, plural(count, "commit", "commits"))

	for i, c := range e.Commits {
		if i == maxCommitRows {
			break
		}
		m.line("• %s — %s (%s)",
			code(orDefault(firstLine(c.GetMessage()), "(no message)")),
			bold(orUnknown(c.GetAuthor().GetName())),
			link(c.GetURL(), "view"))
	}
	if count > maxCommitRows {
		rest := count - maxCommitRows
		m.line("<i>…and %d more %s</i>", rest, plural(rest, "commit", "commits"))
	}

	return m.String(), nil
}

// translateRefChange covers create and delete, which share a payload shape.
func translateRefChange(_ *Translator, ev *RepositoryEvent) (string, error) {
	var refType, ref, actor string
	if ev.Kind == KindCreate {
		e, err := decode[gh.CreateEvent](ev)
		if err != nil {
			return "", err
		}
		refType, ref, actor = e.GetRefType(), e.GetRef(), e.GetSender().GetLogin()
	} else {
		e, err := decode[gh.DeleteEvent](ev)
		if err != nil {
			return "", err
		}
		refType, ref, actor = e.GetRefType(), e.GetRef(), e.GetSender().GetLogin()
	}

	label := capitalize(orDefault(refType, "ref"))
	icon, verb := "🌱", "created"
	if ev.Kind == KindDelete {
		icon, verb = "🗑️", "deleted"
	}

	m := &messageBuilder{}
	m.line("%s <b>%s %s</b>", icon, escape(label), verb).blank()
	m.repo(ev)
	m.line("🏷️ <b>%s:</b> %s", escape(label), escape(orUnknown(ref)))
	m.line("👤 <b>By:</b> %s", escape(orUnknown(actor)))
	return m.String(), nil
}

// pullRequestStatus maps the raw action to the word shown to users.
func pullRequestStatus(action string, merged bool) string {
	switch {
	case action == "synchronize":
		return "updated (new commits)"
	case action == "closed" && merged:
		return "merged"
	case action == "ready_for_review":
		return "marked ready for review"
	case action == "converted_to_draft":
		return "converted to draft"
	default:
		return action
	}
}

func translatePullRequest(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.PullRequestEvent](ev)
	if err != nil {
		return "", err
	}

	pr := e.GetPullRequest()
	status := pullRequestStatus(e.GetAction(), pr.GetMerged())

	m := &messageBuilder{}
	m.line("🔀 <b>Pull request #%d %s</b>", pr.GetNumber(), escape(orUnknown(status))).blank()
	m.repo(ev)
	m.line("📌 %s", escape(orDefault(pr.GetTitle(), "(untitled)")))
	m.line("🌿 %s → %s", code(orUnknown(pr.GetHead().GetRef())), code(orUnknown(pr.GetBase().GetRef())))
	m.line("👤 <b>By:</b> %s", escape(orUnknown(e.GetSender().GetLogin())))
	m.line("%s", link(pr.GetHTMLURL(), "View pull request"))
	return m.String(), nil
}

func translatePullRequestReview(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.PullRequestReviewEvent](ev)
	if err != nil {
		return "", err
	}

	state := strings.ToLower(orUnknown(e.GetReview().GetState()))

	m := &messageBuilder{}
	m.line("👀 <b>Review on pull request #%d: %s</b>", e.GetPullRequest().GetNumber(), escape(state)).blank()
	m.repo(ev)
	m.line("👤 <b>By:</b> %s", escape(orUnknown(e.GetSender().GetLogin())))
	m.line("%s", link(orDefault(e.GetReview().GetHTMLURL(), e.GetPullRequest().GetHTMLURL()), "View review"))
	return m.String(), nil
}

// comment renders the shared layout of the three comment kinds.
func comment(ev *RepositoryEvent, title, body, actor, url string) string {
	m := &messageBuilder{}
	m.line("💬 <b>%s</b>", title).blank()
	m.repo(ev)
	m.line("👤 <b>By:</b> %s", escape(orUnknown(actor)))
	m.blank()
	m.line("%s", escape(orDefault(truncate(body, maxBodyRunes), "(empty comment)")))
	m.blank()
	m.line("%s", link(url, "View comment"))
	return m.String()
}

func translatePullRequestReviewComment(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.PullRequestReviewCommentEvent](ev)
	if err != nil {
		return "", err
	}

	title := fmt.Sprintf("Review comment on pull request #%d", e.GetPullRequest().GetNumber())
	c := e.GetComment()
	return comment(ev, title, c.GetBody(), e.GetSender().GetLogin(), c.GetHTMLURL()), nil
}

func translateIssueComment(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.IssueCommentEvent](ev)
	if err != nil {
		return "", err
	}

	target := "Issue"
	if issue := e.GetIssue(); issue != nil && issue.IsPullRequest() {
		target = "Pull request"
	}
	title := fmt.Sprintf("New comment on %s #%d", target, e.GetIssue().GetNumber())
	c := e.GetComment()
	return comment(ev, title, c.GetBody(), e.GetSender().GetLogin(), c.GetHTMLURL()), nil
}

func translateCommitComment(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.CommitCommentEvent](ev)
	if err != nil {
		return "", err
	}

	c := e.GetComment()
	sha := c.GetCommitID()
	if len(sha) > 7 {
		sha = sha[:7]
	}
	title := "New comment on commit " + escape(orUnknown(sha))
	return comment(ev, title, c.GetBody(), e.GetSender().GetLogin(), c.GetHTMLURL()), nil
}

func translateIssues(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.IssuesEvent](ev)
	if err != nil {
		return "", err
	}

	issue := e.GetIssue()
	m := &messageBuilder{}
	m.line("📝 <b>Issue #%d %s</b>", issue.GetNumber(), escape(orUnknown(e.GetAction()))).blank()
	m.repo(ev)
	m.line("📌 %s", escape(orDefault(issue.GetTitle(), "(untitled)")))
	m.line("👤 <b>By:</b> %s", escape(orUnknown(e.GetSender().GetLogin())))
	m.line("%s", link(issue.GetHTMLURL(), "View issue"))
	return m.String(), nil
}

func translateStar(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.StarEvent](ev)
	if err != nil {
		return "", err
	}

	icon, verb := "🔔", orUnknown(e.GetAction())
	switch e.GetAction() {
	case "created":
		icon, verb = "⭐", "starred"
	case "deleted":
		icon, verb = "💫", "unstarred"
	}

	m := &messageBuilder{}
	m.line("%s <b>Repository %s</b>", icon, escape(verb)).blank()
	m.repo(ev)
	m.line("👤 <b>By:</b> %s", escape(orUnknown(e.GetSender().GetLogin())))
	return m.String(), nil
}

func translateFork(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.ForkEvent](ev)
	if err != nil {
		return "", err
	}

	forkee := e.GetForkee()
	m := &messageBuilder{}
	m.line("🍴 <b>Repository forked</b>").blank()
	m.repo(ev)
	m.line("➡️ <b>Fork:</b> %s", link(forkee.GetHTMLURL(), orUnknown(forkee.GetFullName())))
	m.line("👤 <b>By:</b> %s", escape(orUnknown(e.GetSender().GetLogin())))
	return m.String(), nil
}

func translateRelease(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.ReleaseEvent](ev)
	if err != nil {
		return "", err
	}

	release := e.GetRelease()
	icon := "🎉"
	if release.GetPrerelease() {
		icon = "🧪"
	}

	m := &messageBuilder{}
	m.line("%s <b>Release %s %s</b>", icon, escape(orUnknown(release.GetTagName())), escape(orUnknown(e.GetAction()))).blank()
	m.repo(ev)
	if name := release.GetName(); name != "" && name != release.GetTagName() {
		m.line("📌 %s", escape(name))
	}
	m.line("%s", link(release.GetHTMLURL(), "View release"))
	return m.String(), nil
}

func conclusionIcon(conclusion string) string {
	switch conclusion {
	case "success":
		return "✅"
	case "failure", "timed_out", "startup_failure":
		return "❌"
	case "cancelled", "skipped", "neutral", "stale":
		return "⚪"
	default:
		return "⏳"
	}
}

// run renders the shared layout of workflow and check events.
func run(ev *RepositoryEvent, label, name, status, conclusion, url string) string {
	m := &messageBuilder{}
	m.line("%s <b>%s:</b> %s", conclusionIcon(conclusion), label, escape(orUnknown(name))).blank()
	m.repo(ev)
	m.line("📊 <b>Status:</b> %s", escape(orUnknown(status)))
	m.line("🏁 <b>Conclusion:</b> %s", escape(orDefault(conclusion, "pending")))
	m.line("%s", link(url, "View details"))
	return m.String()
}

func translateWorkflowRun(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.WorkflowRunEvent](ev)
	if err != nil {
		return "", err
	}
	r := e.GetWorkflowRun()
	return run(ev, "Workflow", r.GetName(), r.GetStatus(), r.GetConclusion(), r.GetHTMLURL()), nil
}

func translateCheckSuite(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.CheckSuiteEvent](ev)
	if err != nil {
		return "", err
	}
	s := e.GetCheckSuite()
	return run(ev, "Check suite", s.GetApp().GetName(), s.GetStatus(), s.GetConclusion(), ev.RepoURL+"/actions"), nil
}

func translateCheckRun(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.CheckRunEvent](ev)
	if err != nil {
		return "", err
	}
	r := e.GetCheckRun()
	return run(ev, "Check run", r.GetName(), r.GetStatus(), r.GetConclusion(), r.GetHTMLURL()), nil
}

func deployment(ev *RepositoryEvent, environment, state, url string) string {
	m := &messageBuilder{}
	m.line("🚢 <b>Deployment to %s: %s</b>", escape(orUnknown(environment)), escape(orUnknown(state))).blank()
	m.repo(ev)
	m.line("%s", link(orDefault(url, ev.RepoURL+"/deployments"), "View deployment"))
	return m.String()
}

func translateDeployment(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.DeploymentEvent](ev)
	if err != nil {
		return "", err
	}
	return deployment(ev, e.GetDeployment().GetEnvironment(), "created", ""), nil
}

func translateDeploymentStatus(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.DeploymentStatusEvent](ev)
	if err != nil {
		return "", err
	}

	status := e.GetDeploymentStatus()
	environment := orDefault(status.GetEnvironment(), e.GetDeployment().GetEnvironment())
	url := orDefault(status.GetTargetURL(), status.GetLogURL())
	return deployment(ev, environment, status.GetState(), url), nil
}

func vulnerabilityAlert(ev *RepositoryEvent, action, pkg, severity, summary, url string) string {
	m := &messageBuilder{}
	m.line("🚨 <b>Vulnerability alert %s</b>", escape(orUnknown(action))).blank()
	m.repo(ev)
	m.line("📦 <b>Package:</b> %s", escape(orUnknown(pkg)))
	if severity != "" {
		m.line("⚠️ <b>Severity:</b> %s", escape(severity))
	}
	m.line("📝 %s", escape(orDefault(truncate(summary, maxBodyRunes), "No summary available")))
	if url != "" {
		m.blank().line("%s", link(url, "View alert"))
	}
	return m.String()
}

func translateVulnerabilityAlert(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.RepositoryVulnerabilityAlertEvent](ev)
	if err != nil {
		return "", err
	}

	a := e.GetAlert()
	summary := orDefault(a.GetExternalIdentifier(), a.GetGitHubSecurityAdvisoryID())
	return vulnerabilityAlert(ev, e.GetAction(), a.GetAffectedPackageName(), a.GetSeverity(), summary, ""), nil
}

func translateDependabotAlert(_ *Translator, ev *RepositoryEvent) (string, error) {
	e, err := decode[gh.DependabotAlertEvent](ev)
	if err != nil {
		return "", err
	}

	a := e.GetAlert()
	advisory := a.GetSecurityAdvisory()
	summary := orDefault(advisory.GetSummary(), advisory.GetGHSAID())
	return vulnerabilityAlert(ev, e.GetAction(), a.GetDependency().GetPackage().GetName(), advisory.GetSeverity(), summary, a.GetHTMLURL()), nil
}
