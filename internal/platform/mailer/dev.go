package mailer

import (
	"github.com/itcons/afisha/pkg/logger"
)

// DevMailer logs outgoing mail instead of delivering it.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)
	return "", nil
}

func (d *DevMailer) SendCredentials(email, name, login, password string) error {
	logger.Info("[DEV MAIL] account credentials",
		"to", email,
		"name", name,
		"login", login,
		"password", password,
	)
	return nil
}

func (d *DevMailer) SendVerificationResult(email, name, status, comment string) error {
	logger.Info("[DEV MAIL] verification result",
		"to", email,
		"name", name,
		"status", status,
		"comment", comment,
	)
	return nil
}
