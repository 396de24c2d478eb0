package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"

	"learning-path/internal/models"
	"learning-path/shared/config"
)

//go:embed templates/digest.html
var templateFS embed.FS

var digestTemplate = template.Must(template.ParseFS(templateFS, "templates/digest.html"))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config *config.EmailConfig
	send   sendFunc
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// SendDigest emails the catalog run summary. Runs that produced nothing and
// failed nothing are not reported.
func (s *Sender) SendDigest(digest *models.CourseDigest) error {
	if digest == nil {
		return fmt.Errorf("digest cannot be nil")
	}
	if len(digest.Courses) == 0 && digest.Failed == 0 {
		return nil
	}

	subject := fmt.Sprintf("Learning Path Digest - %d New Courses (%s)",
		len(digest.Courses), digest.Date.Format("Jan 2, 2006"))

	body, err := RenderDigest(digest)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return s.send(addr, auth, s.config.FromEmail, to, msg)
}

func RenderDigest(digest *models.CourseDigest) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, digest); err != nil {
		return "", err
	}
	return buf.String(), nil
}
