package mailer

// Service delivers transactional mail. Implementations never block the
// request path for long; callers fire them from goroutines where latency
// matters.
type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendCredentials(email, name, login, password string) error
	SendVerificationResult(email, name, status, comment string) error
}
