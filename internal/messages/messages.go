package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhinavdhar/creditbook/types"
)

const ParseModeHTML = "HTML"

const digestDateLayout = "02/01/2006"

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

func StartWelcome() string {
	return "👋 <b>Hi!</b>\nI keep track of your creditors and remind you who is due for a follow-up visit.\n\n" +
		"🔔 You are subscribed to the daily digest.\n" +
		"Use the buttons below or /help to see what I can do."
}

func Help() string {
	return "ℹ️ <b>Commands</b>\n" +
		"/today — today's pending payees\n" +
		"/subscribe — receive the daily digest\n" +
		"/unsubscribe — stop receiving the digest\n" +
		"/help — this message"
}

func Subscribed() string {
	return "🔔 <b>Subscribed</b>\nYou will receive the pending-payees digest."
}

func Unsubscribed() string {
	return "🔕 <b>Unsubscribed</b>\nYou will no longer receive the digest."
}

func ErrorUnknownCommand() string {
	return "❓ <b>Command not found</b>\nTry /help."
}

func ErrorDefault() string {
	return "🚫 <b>Something went wrong</b>\nPlease try again."
}

func NoPendingPayees() string {
	return "📅 No pending payees for today!\n\nAll clear! 🎉"
}

// PendingDigest renders the numbered pending-payees list. The reference
// date shown per entry is the follow-up date unless showLastVisit is
// set.
func PendingDigest(payees []*types.Creditor, showLastVisit bool, loc *time.Location) string {
	if len(payees) == 0 {
		return NoPendingPayees()
	}

	var b strings.Builder
	b.WriteString("📋 <b>Today's Pending Payees</b>\n\n")
	for i, p := range payees {
		fmt.Fprintf(&b, "%d. %s\n", i+1, Escape(p.Name))
		label := "Follow-up"
		ref := p.LastVisit
		if p.FollowUp != nil {
			ref = *p.FollowUp
		}
		if showLastVisit {
			label = "Last visited"
			ref = p.LastVisit
		}
		fmt.Fprintf(&b, "   %s: %s\n\n", label, ref.In(loc).Format(digestDateLayout))
	}
	return strings.TrimRight(b.String(), "\n")
}
