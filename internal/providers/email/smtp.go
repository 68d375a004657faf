package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
)

//go:embed templates/*.html
var templateFS embed.FS

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPProvider struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

func (p *SMTPProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", to[0], subject, mime, htmlBody))

	return smtp.SendMail(addr, auth, p.cfg.From, to, msg)
}

func (p *SMTPProvider) SendTemplate(ctx context.Context, to []string, templateName string, data map[string]any) error {
	t, err := template.ParseFS(templateFS, "templates/"+templateName+".html")
	if err != nil {
		return fmt.Errorf("parse template %s: %w", templateName, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("execute template %s: %w", templateName, err)
	}

	subject := defaultSubject(templateName, data)
	if raw, ok := data["subject"].(string); ok && raw != "" {
		subject = raw
	}

	return p.Send(ctx, to, subject, body.String())
}

func defaultSubject(templateName string, data map[string]any) string {
	switch templateName {
	case "invite_appointment":
		if title, ok := data["appointment_title"].(string); ok && title != "" {
			return fmt.Sprintf("You've been invited to %q", title)
		}
		return "You've been invited to an appointment"
	case "invite_dashboard":
		return "A calendar has been shared with you"
	case "verify_email":
		return "Verify your email address"
	default:
		return "Notification from Carebook"
	}
}
