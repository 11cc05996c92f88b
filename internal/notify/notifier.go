package notify

import (
	"context"
	"fmt"

	"github.com/Pulsar1722/homeIoTServer/internal/logger"
	"github.com/Pulsar1722/homeIoTServer/internal/version"
)

// FailureTitle is the subject of every failure notification.
var FailureTitle = fmt.Sprintf("<%s> exception occurred!!!", version.AppName)

// Mailer sends one message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Notifier fans messages out to a fixed recipient list.
type Notifier struct {
	// mailer delivers the messages.
	mailer Mailer
	// recipients receive every message.
	recipients []string
}

// New creates a notifier. The recipient list is copied.
func New(mailer Mailer, recipients []string) *Notifier {
	return &Notifier{
		mailer:     mailer,
		recipients: append([]string(nil), recipients...),
	}
}

// NotifyFailure reports err to every recipient.
func (n *Notifier) NotifyFailure(ctx context.Context, err error) {
	if err == nil {
		return
	}

	n.Notify(ctx, FailureTitle, FailureBody(err))
}

// Notify sends title and body to every recipient. Failed deliveries are
// logged and do not stop the remaining recipients.
func (n *Notifier) Notify(ctx context.Context, title, body string) {
	ctx = logger.WithName(ctx, "notifier")

	if len(n.recipients) == 0 {
		logger.WarnKV(ctx, "No notification recipients configured", "title", title)

		return
	}

	for _, to := range n.recipients {
		if err := n.mailer.Send(ctx, to, title, body); err != nil {
			logger.ErrorKV(ctx, "Failed to send notification",
				"recipient", to,
				"title", title,
				"error", err,
			)

			continue
		}

		logger.InfoKV(ctx, "Notification sent", "recipient", to, "title", title)
	}
}

// FailureBody formats the failure text: the error, a blank line and the application version.
func FailureBody(err error) string {
	return fmt.Sprintf("%v\n\nAppVersion: %s", err, version.Short())
}
