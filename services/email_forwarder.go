package services

import (
	"context"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg/email"
)

// EmailForwarder mails each emitted notification to one address.
type EmailForwarder struct {
	sender   email.Sender
	to       string
	linkBase string
	subject  string
}

// NewEmailForwarder creates a forwarder. linkBase is prefixed to the
// notification's relative link; subject is the localized mail subject.
func NewEmailForwarder(sender email.Sender, to, linkBase, subject string) *EmailForwarder {
	return &EmailForwarder{
		sender:   sender,
		to:       to,
		linkBase: linkBase,
		subject:  subject,
	}
}

func (f *EmailForwarder) Forward(ctx context.Context, n models.Notification) error {
	msg := email.Message{
		To:      f.to,
		Subject: f.subject,
		Text:    n.Message,
	}
	if n.Link != "" {
		msg.Link = f.linkBase + n.Link
	}
	return f.sender.Send(ctx, msg)
}
