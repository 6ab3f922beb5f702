// Package mailer delivers password reset emails through Resend. When no API
// key is configured the app falls back to LogMailer, which only logs the
// reset link.
package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/tvtrungg/covid-management-system/internal/observability"
)

type ResendMailer struct {
	client *resend.Client
	from   string
	appURL string
}

func NewResendMailer(apiKey, from, appURL string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
		appURL: appURL,
	}
}

func (m *ResendMailer) SendPasswordReset(ctx context.Context, username, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.appURL, token)

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{username},
		Subject: "Đặt lại mật khẩu",
		Html: fmt.Sprintf(`<p>Xin chào %s,</p>
<p>Bạn đã yêu cầu đặt lại mật khẩu. Nhấn vào liên kết dưới đây để tiếp tục:</p>
<p><a href="%s">Đặt lại mật khẩu</a></p>
<p>Liên kết có hiệu lực trong 1 giờ. Nếu bạn không yêu cầu, hãy bỏ qua email này.</p>`,
			username, link),
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("mailer: send password reset: %w", err)
	}
	return nil
}

// LogMailer writes the reset token to the log instead of sending email.
// Used in development and tests.
type LogMailer struct {
	log *observability.Logger
}

func NewLogMailer(log *observability.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, username, token string) error {
	m.log.Info("password reset token issued", map[string]any{
		"username": username,
		"token":    token,
	})
	return nil
}
