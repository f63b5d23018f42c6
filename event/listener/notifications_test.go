package listener

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"crm-service/event"
)

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	alert event.SecurityAlertPayload
}

func (f *fakeMailer) record(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, kind)
}

func (f *fakeMailer) SendPasswordReset(to string, token string) error {
	f.record("password_reset")
	return nil
}

func (f *fakeMailer) SendInvitation(to string, token string) error {
	f.record("invitation")
	return nil
}

func (f *fakeMailer) SendMessageAlert(to string, sender string, subject string, priority string) error {
	f.record("message_alert")
	return nil
}

func (f *fakeMailer) SendSecurityAlert(to string, kind string, severity string, details string) error {
	f.mu.Lock()
	f.alert = event.SecurityAlertPayload{Email: to, Kind: kind, Severity: severity, Details: details}
	f.mu.Unlock()
	f.record("security_alert")
	return nil
}

func (f *fakeMailer) sentKinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func job(t *testing.T, action string, payload any) event.EventChannelData {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return event.EventChannelData{
		Action: action,
		Data:   data,
		Out:    event.EventChannelOutData{Send: true, Log: false},
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNotificationsDispatchesSecurityAlert(t *testing.T) {
	mail := &fakeMailer{}
	jobs := make(chan event.EventChannelData)
	defer close(jobs)
	go notificationsLoop(jobs, mail)

	jobs <- job(t, event.ActionSecurityAlert, event.SecurityAlertPayload{
		Email:    "owner@example.com",
		Kind:     "account_lockout",
		Severity: "high",
		Details:  "Sign-in was locked for 15 minutes after 5 failed attempts.",
	})

	waitFor(t, "security alert mail", func() bool {
		return len(mail.sentKinds()) == 1
	})

	mail.mu.Lock()
	alert := mail.alert
	mail.mu.Unlock()
	if alert.Email != "owner@example.com" || alert.Kind != "account_lockout" || alert.Severity != "high" {
		t.Fatalf("alert = %+v, payload fields must reach the mailer", alert)
	}
}

func TestNotificationsSkipsReplayedJobs(t *testing.T) {
	mail := &fakeMailer{}
	jobs := make(chan event.EventChannelData)
	defer close(jobs)
	go notificationsLoop(jobs, mail)

	replay := job(t, event.ActionPasswordReset, event.PasswordResetPayload{Email: "a@example.com", Token: "x"})
	replay.Out.Send = false
	jobs <- replay

	jobs <- job(t, event.ActionInvitation, event.InvitationPayload{Email: "b@example.com", Token: "y"})

	waitFor(t, "invitation mail", func() bool {
		sent := mail.sentKinds()
		return len(sent) == 1 && sent[0] == "invitation"
	})
}
