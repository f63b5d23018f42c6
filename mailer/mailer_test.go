package mailer

import (
	"strings"
	"testing"
)

func TestServiceIsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		service  Service
		expected bool
	}{
		{
			name:     "empty config",
			service:  Service{},
			expected: false,
		},
		{
			name:     "missing host",
			service:  Service{port: "587", from: "crm@example.com"},
			expected: false,
		},
		{
			name:     "missing from",
			service:  Service{host: "smtp.example.com", port: "587"},
			expected: false,
		},
		{
			name:     "fully configured",
			service:  Service{host: "smtp.example.com", port: "587", from: "crm@example.com"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.service.IsConfigured() != tt.expected {
				t.Errorf("IsConfigured() = %v, want %v", tt.service.IsConfigured(), tt.expected)
			}
		})
	}
}

func TestRenderPasswordResetTemplate(t *testing.T) {
	html, err := render(passwordResetTemplate, map[string]string{
		"URL": "https://example.com/auth/reset?token=abc123",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if !strings.Contains(html, "https://example.com/auth/reset?token=abc123") {
		t.Error("template should contain the reset URL")
	}
	if !strings.Contains(html, "1 hour") {
		t.Error("template should mention the expiration time")
	}
}

func TestRenderInvitationTemplate(t *testing.T) {
	html, err := render(invitationTemplate, map[string]string{
		"URL": "https://example.com/auth/invite?token=xyz789",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if !strings.Contains(html, "https://example.com/auth/invite?token=xyz789") {
		t.Error("template should contain the invitation URL")
	}
	if !strings.Contains(html, "7 days") {
		t.Error("template should mention the expiration window")
	}
}

func TestRenderMessageAlertTemplate(t *testing.T) {
	html, err := render(messageAlertTemplate, map[string]string{
		"Sender":   "alice",
		"Subject":  "Quarterly numbers",
		"Priority": "high",
		"URL":      "https://example.com/messages",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	for _, want := range []string{"alice", "Quarterly numbers", "high"} {
		if !strings.Contains(html, want) {
			t.Errorf("template should contain %q", want)
		}
	}
}
