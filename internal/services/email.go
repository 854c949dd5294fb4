package services

import (
	"fmt"
	"html"
	"net/smtp"

	"github.com/voyagery/voyagery-api/internal/config"
)

type EmailService struct {
	cfg         config.SMTPConfig
	frontendURL string
	sendMail    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(cfg config.SMTPConfig, frontendURL string) *EmailService {
	return &EmailService{cfg: cfg, frontendURL: frontendURL, sendMail: smtp.SendMail}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, to, subject, body)

	return s.sendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
}

// SendNotification mirrors an in-app notification by mail, linking back to the dashboard.
func (s *EmailService) SendNotification(to, name, message string) error {
	body := fmt.Sprintf(`
		<html>
		<body>
			<p>Hi %s,</p>
			<p>%s</p>
			<p><a href="%s">Open Voyagery</a></p>
		</body>
		</html>
	`, html.EscapeString(name), html.EscapeString(message), s.frontendURL)

	return s.Send(to, "Voyagery update", body)
}
