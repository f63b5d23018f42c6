// Package mailer sends transactional mail over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"crm-service/config"
)

type Service struct {
	host     string
	port     string
	from     string
	fromName string
	auth     smtp.Auth
	baseURL  string
}

func New() *Service {
	host := config.Config("SMTP_HOST")
	return &Service{
		host:     host,
		port:     config.Config("SMTP_PORT"),
		from:     config.Config("SMTP_FROM"),
		fromName: config.Config("SMTP_FROM_NAME"),
		auth:     smtp.PlainAuth("", config.Config("SMTP_USERNAME"), config.Config("SMTP_PASSWORD"), host),
		baseURL:  config.Config("APP_BASE_URL"),
	}
}

func (s *Service) IsConfigured() bool {
	return s.host != "" && s.port != "" && s.from != ""
}

func (s *Service) Send(to string, subject string, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("mailer is not configured")
	}

	from := s.from
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.from)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)

	return smtp.SendMail(s.host+":"+s.port, s.auth, s.from, []string{to}, msg.Bytes())
}

func (s *Service) SendPasswordReset(to string, token string) error {
	body, err := render(passwordResetTemplate, map[string]string{
		"URL": fmt.Sprintf("%s/auth/reset?token=%s", s.baseURL, token),
	})
	if err != nil {
		return err
	}
	return s.Send(to, "Reset your password", body)
}

func (s *Service) SendInvitation(to string, token string) error {
	body, err := render(invitationTemplate, map[string]string{
		"URL": fmt.Sprintf("%s/auth/invite?token=%s", s.baseURL, token),
	})
	if err != nil {
		return err
	}
	return s.Send(to, "You have been invited", body)
}

func (s *Service) SendMessageAlert(to string, sender string, subject string, priority string) error {
	body, err := render(messageAlertTemplate, map[string]string{
		"Sender":   sender,
		"Subject":  subject,
		"Priority": priority,
		"URL":      s.baseURL + "/messages",
	})
	if err != nil {
		return err
	}
	return s.Send(to, fmt.Sprintf("New message from %s", sender), body)
}

func (s *Service) SendSecurityAlert(to string, kind string, severity string, details string) error {
	body, err := render(securityAlertTemplate, map[string]string{
		"Kind":     kind,
		"Severity": severity,
		"Details":  details,
	})
	if err != nil {
		return err
	}
	return s.Send(to, "Security alert on your account", body)
}

func render(tpl string, data map[string]string) (string, error) {
	t, err := template.New("mail").Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("parse mail template: %w", err)
	}
	var out bytes.Buffer
	if err := t.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render mail template: %w", err)
	}
	return out.String(), nil
}
