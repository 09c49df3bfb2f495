package services

import (
	"fmt"
	"html"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
)

type EmailService struct {
	host        string
	port        string
	user        string
	pass        string
	from        string
	frontendURL string
	devMode     bool
	logger      *slog.Logger
}

func NewEmailService(host, port, user, pass, from, frontendURL string, logger *slog.Logger) *EmailService {
	if logger == nil {
		logger = slog.Default()
	}
	devMode := host == "" || user == ""
	if devMode {
		logger.Warn("email service running in dev mode, messages are logged instead of sent")
	}
	return &EmailService{
		host:        host,
		port:        port,
		user:        user,
		pass:        pass,
		from:        from,
		frontendURL: frontendURL,
		devMode:     devMode,
		logger:      logger,
	}
}

// SendRevisionReminderEmail tells a student which topics are due for revision today.
func (s *EmailService) SendRevisionReminderEmail(to, name string, topics []string) error {
	subject := "Time to revise: topics due today"
	if len(topics) == 1 {
		subject = fmt.Sprintf("Time to revise %s", topics[0])
	}
	return s.sendHTML(to, subject, revisionReminderBody(name, topics, s.frontendURL+"/study-plan"))
}

func revisionReminderBody(name string, topics []string, planURL string) string {
	var items strings.Builder
	for _, t := range topics {
		fmt.Fprintf(&items, `<li style="margin: 0 0 6px;">%s</li>`, html.EscapeString(t))
	}

	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + html.EscapeString(name)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; box-shadow: 0 4px 24px rgba(0,0,0,0.08); overflow: hidden;">
    <div style="background: linear-gradient(135deg, #0ea5e9 0%%, #6366f1 100%%); padding: 32px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px; font-weight: 700;">Smart Study</h1>
    </div>
    <div style="padding: 32px;">
      <h2 style="margin: 0 0 16px; font-size: 20px; color: #1e293b;">%s, revision time!</h2>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 16px;">
        These topics are scheduled for revision today:
      </p>
      <ul style="color: #1e293b; font-size: 14px; padding-left: 20px; margin: 0 0 24px;">%s</ul>
      <a href="%s" style="display: inline-block; background: #6366f1; color: white; text-decoration: none; padding: 12px 32px; border-radius: 8px; font-weight: 600; font-size: 14px;">
        Open study plan
      </a>
    </div>
  </div>
</body>
</html>`, greeting, items.String(), planURL)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		s.logger.Info("dev email", "to", to, "subject", subject, "body", htmlBody)
		return nil
	}

	message := buildMessage(s.from, to, subject, htmlBody)

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	err := smtp.SendMail(addr, auth, s.from, []string{to}, message)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}

// buildMessage assembles the raw mail. The subject carries user text, so it is
// sent as an RFC 2047 encoded word and can never break out of its header.
func buildMessage(from, to, subject, htmlBody string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("utf-8", subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody)
}
