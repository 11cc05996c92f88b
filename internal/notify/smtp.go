package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// sendTimeout bounds one SMTP session.
const sendTimeout = 30 * time.Second

var (
	// errMissingSender is returned when the SMTP mailer has no sender address.
	errMissingSender = errors.New("notify: sender address is required")
	// errInvalidRecipient is returned for recipients that do not parse as one address.
	errInvalidRecipient = errors.New("notify: invalid recipient")
)

// sendFunc delivers a prepared message.
type sendFunc func(ctx context.Context, msg *mail.Msg) error

// SMTPMailer sends plain-text mail through an SMTP submission server.
// STARTTLS is used when the server offers it; PLAIN auth when a password is set.
type SMTPMailer struct {
	// client holds the server address, TLS policy and credentials.
	client *mail.Client
	// from is the envelope and header sender.
	from string
	// now stamps the Date header.
	now func() time.Time
	// send delivers one message; tests replace it.
	send sendFunc
}

// NewSMTPMailer creates a mailer for host:port authenticating as from.
func NewSMTPMailer(host string, port int, from, password string) (*SMTPMailer, error) {
	if strings.TrimSpace(from) == "" {
		return nil, errMissingSender
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(sendTimeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}

	if password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(from),
			mail.WithPassword(password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	m := &SMTPMailer{
		client: client,
		from:   from,
		now:    time.Now,
	}
	m.send = m.deliver

	return m, nil
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg, err := m.message(to, subject, body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	return nil
}

// message renders a plain-text message from m.from to a single recipient.
func (m *SMTPMailer) message(to, subject, body string) (*mail.Msg, error) {
	if strings.ContainsAny(to, "\r\n") {
		return nil, fmt.Errorf("%w: %q", errInvalidRecipient, to)
	}

	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())

	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("%w: %w", errMissingSender, err)
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", errInvalidRecipient, to, err)
	}

	msg.Subject(subject)
	msg.SetDateWithValue(m.now())
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}

// deliver runs one SMTP session bounded by ctx.
func (m *SMTPMailer) deliver(ctx context.Context, msg *mail.Msg) error {
	return m.client.DialAndSendWithContext(ctx, msg)
}
