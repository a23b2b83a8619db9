package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Replies are Telegram HTML.
const (
	helpText = `🤖 <b>Available Commands</b>

/subscribe - Register this chat and show webhook setup
/unsubscribe - Remove this chat and stop all notifications
/connect - Link a GitHub repository (interactive)
/start - Resume notifications
/stop - Pause notifications
/status - Show the linked repository and delivery state
/subscribers - Show subscriber counts
/help - Show this help message`

	notSubscribedText   = "❗ This chat is not subscribed yet. Use /subscribe first."
	unsubscribedText    = "🛑 Unsubscribed successfully."
	notUnsubscribedText = "❗ You were not subscribed."
	startedText         = "▶️ Notifications are now <b>on</b> for this chat."
	stoppedText         = "⏸️ Notifications are now <b>paused</b> for this chat. Use /start to resume."
	connectText         = "📎 Please send your GitHub repository link (example: https://github.com/user/repo)"
	invalidLinkText     = "❌ That does not look like a repository link. Send it as <code>https://github.com/owner/repo</code>."
	unknownCommandText  = "❓ Unknown command. Use /help for assistance."
	privateHintText     = "Use /help to see available commands."
	tryAgainText        = "⚠️ Something went wrong while saving. Please try again."

	validationFailedText = "⚠️ Could not check the repository right now. Please send the link again."
)

func onboardingText(created bool, webhookURL, secret string) string {
	var b strings.Builder
	if created {
		b.WriteString("✅ <b>Subscribed to GitHub notifications!</b>\n\n")
	} else {
		b.WriteString("⚠️ <b>Already subscribed.</b> Setup steps again:\n\n")
	}

	b.WriteString("📘 <b>Next steps:</b>\n")
	b.WriteString("1️⃣ Type <b>/connect</b> and send your repository link.\n")
	b.WriteString("2️⃣ Go to your GitHub repo → ⚙️ <b>Settings → Webhooks → Add webhook</b>\n")
	fmt.Fprintf(&b, " • Payload URL → <code>%s</code>\n", escape(webhookURL))
	b.WriteString(" • Content type → <code>application/json</code>\n")
	if secret != "" {
		fmt.Fprintf(&b, " • Secret → <code>%s</code>\n", escape(secret))
	}
	b.WriteString(" • Select → <b>Send me everything</b>\n")
	b.WriteString("3️⃣ Type <b>/start</b> to turn notifications on.")
	return b.String()
}

func linkedText(repo string) string {
	return fmt.Sprintf("🔗 Connected to <b>%s</b>\nUse /start if notifications are not on yet.", escape(repo))
}

func relinkedText(previous, repo string) string {
	return fmt.Sprintf("🔁 Repository updated from <b>%s</b> to <b>%s</b>", escape(previous), escape(repo))
}

func repoNotFoundText(repo string) string {
	return fmt.Sprintf("❌ Repository <b>%s</b> was not found or is not accessible. Send another link.", escape(repo))
}

func statusText(repo string, active, pending bool) string {
	repoLine := "not connected"
	if repo != "" {
		repoLine = "<b>" + escape(repo) + "</b>"
	}
	state := "⏸️ inactive"
	if active {
		state = "▶️ active"
	}

	text := fmt.Sprintf("📊 <b>Status</b>\n\n🔗 Repository: %s\n🔔 Notifications: %s", repoLine, state)
	if pending {
		text += "\n📎 Waiting for a repository link."
	}
	return text
}

func subscribersText(total, active, linked int) string {
	return fmt.Sprintf("📊 Total subscribers: <b>%d</b>\n▶️ Active: <b>%d</b>\n🔗 Linked repos: <b>%d</b>", total, active, linked)
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}
