package event

// Queue names declared on startup.
const (
	QueueNotifications = "notifications"
	QueueNews          = "news"
)

// Actions carried in the x-action header.
const (
	ActionPasswordReset = "password_reset"
	ActionInvitation    = "invitation"
	ActionMessageAlert  = "message_alert"
	ActionNewsRefresh   = "news_refresh"
	ActionSecurityAlert = "security_alert"
)

type MailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type PasswordResetPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type InvitationPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type MessageAlertPayload struct {
	Email    string `json:"email"`
	Sender   string `json:"sender"`
	Subject  string `json:"subject"`
	Priority string `json:"priority"`
}

type SecurityAlertPayload struct {
	Email    string `json:"email"`
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Details  string `json:"details"`
}

type NewsRefreshPayload struct {
	FeedURL string `json:"feed_url"`
}
