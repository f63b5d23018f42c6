package listener

import (
	"encoding/json"
	"log"

	"crm-service/event"
)

var (
	NotificationsChannel = make(chan event.EventChannelData)
)

// Mailer is the outbound side of the notification queue; satisfied by
// mailer.Service.
type Mailer interface {
	SendPasswordReset(to string, token string) error
	SendInvitation(to string, token string) error
	SendMessageAlert(to string, sender string, subject string, priority string) error
	SendSecurityAlert(to string, kind string, severity string, details string) error
}

// Notifications drains the notifications queue and sends mail for each
// job. Jobs replayed from the event log with Send disabled are dropped.
func Notifications(mail Mailer) {
	notificationsLoop(NotificationsChannel, mail)
}

func notificationsLoop(jobs <-chan event.EventChannelData, mail Mailer) {
	for job := range jobs {
		if !job.Out.Send {
			continue
		}

		var err error
		switch job.Action {
		case event.ActionPasswordReset:
			payload := event.PasswordResetPayload{}
			if err = json.Unmarshal(job.Data, &payload); err == nil {
				err = mail.SendPasswordReset(payload.Email, payload.Token)
			}
		case event.ActionInvitation:
			payload := event.InvitationPayload{}
			if err = json.Unmarshal(job.Data, &payload); err == nil {
				err = mail.SendInvitation(payload.Email, payload.Token)
			}
		case event.ActionMessageAlert:
			payload := event.MessageAlertPayload{}
			if err = json.Unmarshal(job.Data, &payload); err == nil {
				err = mail.SendMessageAlert(payload.Email, payload.Sender, payload.Subject, payload.Priority)
			}
		case event.ActionSecurityAlert:
			payload := event.SecurityAlertPayload{}
			if err = json.Unmarshal(job.Data, &payload); err == nil {
				err = mail.SendSecurityAlert(payload.Email, payload.Kind, payload.Severity, payload.Details)
			}
		default:
			log.Printf("notifications: unknown action %q", job.Action)
			continue
		}

		if err != nil {
			log.Printf("notifications: %s failed: %v", job.Action, err)
		}
	}
}
