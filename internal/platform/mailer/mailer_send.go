package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type Mailer struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	Enabled bool
}

func NewMailer(apiKey, fromName, fromEmail string) *Mailer {
	m := &Mailer{
		Enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
	if m.Enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *Mailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	if !m.Enabled {
		return "", errors.New("mailer disabled (missing MAILERSEND_API_KEY or SMTP_FROM)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	// MailerSend uses X-Message-Id
	return res.Header.Get("X-Message-Id"), nil
}

func (m *Mailer) SendCredentials(email, name, login, password string) error {
	subject := "Доступ к личному кабинету Afisha"
	text := credentialsText(login, password)
	html := credentialsHTML(login, password)
	_, err := m.Send(email, name, subject, text, html)
	return err
}

func (m *Mailer) SendVerificationResult(email, name, status, comment string) error {
	subject, text, html := verificationResultBody(status, comment)
	_, err := m.Send(email, name, subject, text, html)
	return err
}

func credentialsText(login, password string) string {
	return fmt.Sprintf("Для вас создан аккаунт.\nЛогин: %s\nПароль: %s\nРекомендуем сменить пароль после первого входа.", login, password)
}

func credentialsHTML(login, password string) string {
	return fmt.Sprintf(`<p>Для вас создан аккаунт.</p><p>Логин: <b>%s</b><br>Пароль: <b>%s</b></p><p>Рекомендуем сменить пароль после первого входа.</p>`, login, password)
}

func verificationResultBody(status, comment string) (subject, text, html string) {
	switch status {
	case "approved":
		subject = "Верификация организатора одобрена"
		text = "Ваша заявка на верификацию одобрена. Теперь вы можете публиковать мероприятия."
	case "rejected":
		subject = "Верификация организатора отклонена"
		text = "Ваша заявка на верификацию отклонена."
		if strings.TrimSpace(comment) != "" {
			text += "\nКомментарий модератора: " + comment
		}
	default:
		subject = "Статус верификации изменён"
		text = "Статус вашей заявки на верификацию: " + status
	}
	html = "<p>" + strings.ReplaceAll(text, "\n", "</p><p>") + "</p>"
	return subject, text, html
}
