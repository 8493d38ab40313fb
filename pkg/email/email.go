// Package email sends notification emails.
//
// Sender hides the provider; the Resend implementation is the only one.
package email

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v3"
)

// Message is one notification email.
type Message struct {
	To      string
	Subject string
	Text    string
	Link    string // absolute URL, optional
}

// Sender delivers notification emails.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
}

// NewResendSender creates a Sender over the Resend API. fromEmail must
// belong to a domain verified on Resend.
func NewResendSender(apiKey, fromEmail string) Sender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
	}
}

func (s *resendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("boardwatch <%s>", s.fromEmail),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    RenderHTML(msg),
		Text:    renderText(msg),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}

// RenderHTML is the HTML body of msg.
func RenderHTML(msg Message) string {
	body := fmt.Sprintf(`<p style="color:#1e293b;font-size:15px;line-height:1.6;margin:0 0 16px 0;">%s</p>`,
		html.EscapeString(msg.Text))
	if msg.Link != "" {
		link := html.EscapeString(msg.Link)
		body += fmt.Sprintf(`<p style="margin:0;"><a href="%s" style="color:#6366f1;">%s</a></p>`, link, link)
	}

	return `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:24px;font-family:Arial,Helvetica,sans-serif;">
` + body + `
</body>
</html>`
}

func renderText(msg Message) string {
	if msg.Link == "" {
		return msg.Text
	}
	return msg.Text + "\n\n" + msg.Link
}
