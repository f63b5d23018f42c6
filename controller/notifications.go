package controller

import (
	"encoding/json"

	"crm-service/event"
)

// Notification helpers publish to the notifications queue; the mail
// listener picks the jobs up so request handlers never block on SMTP.

func QueuePasswordReset(email string, token string) {
	body, _ := json.Marshal(event.PasswordResetPayload{Email: email, Token: token})
	event.Emit(event.QueueNotifications, event.ActionPasswordReset, body, true)
}

func QueueInvitation(email string, token string) {
	body, _ := json.Marshal(event.InvitationPayload{Email: email, Token: token})
	event.Emit(event.QueueNotifications, event.ActionInvitation, body, true)
}

func QueueMessageAlert(email string, sender string, subject string, priority string) {
	body, _ := json.Marshal(event.MessageAlertPayload{
		Email:    email,
		Sender:   sender,
		Subject:  subject,
		Priority: priority,
	})
	event.Emit(event.QueueNotifications, event.ActionMessageAlert, body, true)
}

func QueueSecurityAlert(email string, kind string, severity string, details string) {
	body, _ := json.Marshal(event.SecurityAlertPayload{
		Email:    email,
		Kind:     kind,
		Severity: severity,
		Details:  details,
	})
	event.Emit(event.QueueNotifications, event.ActionSecurityAlert, body, true)
}

func QueueNewsRefresh(feedURL string) {
	body, _ := json.Marshal(event.NewsRefreshPayload{FeedURL: feedURL})
	event.Emit(event.QueueNews, event.ActionNewsRefresh, body, true)
}
