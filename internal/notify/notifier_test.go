package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Pulsar1722/homeIoTServer/internal/logger"
	"github.com/Pulsar1722/homeIoTServer/internal/version"
)

var errTestSend = errors.New("mailbox unavailable")

// sentMail is one recorded delivery.
type sentMail struct {
	to, subject, body string
}

// recordingMailer records deliveries and fails for selected recipients.
type recordingMailer struct {
	mu sync.Mutex
	// failFor lists recipients whose delivery fails.
	failFor map[string]bool
	// sent lists every attempted delivery.
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})

	if m.failFor[to] {
		return errTestSend
	}

	return nil
}

// observedContext returns a context whose logger records entries.
func observedContext() (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)

	return logger.ToContext(context.Background(), zap.New(core).Sugar()), logs
}

// TestNotifyFailure_FormatsMessage checks the title and the body layout.
func TestNotifyFailure_FormatsMessage(t *testing.T) {
	t.Parallel()

	mailer := new(recordingMailer)
	n := New(mailer, []string{"a@example.com"})

	n.NotifyFailure(context.Background(), errors.New("Robot Vacuum K10+ OFFLINE"))

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "<homeIotServer> exception occurred!!!", mailer.sent[0].subject)
	require.Equal(t, "Robot Vacuum K10+ OFFLINE\n\nAppVersion: "+version.Short(), mailer.sent[0].body)
}

// TestNotify_ContinuesAfterFailure sends to every recipient and logs the failed one.
func TestNotify_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{failFor: map[string]bool{"a@example.com": true}}
	n := New(mailer, []string{"a@example.com", "b@example.com"})
	ctx, logs := observedContext()

	n.Notify(ctx, "Haruki", "Leaving the office")

	require.Len(t, mailer.sent, 2)
	require.Equal(t, "b@example.com", mailer.sent[1].to)

	failures := logs.FilterMessage("Failed to send notification").All()
	require.Len(t, failures, 1)
	require.Equal(t, "notifier", failures[0].LoggerName)
	require.Equal(t, "a@example.com", failures[0].ContextMap()["recipient"])
}

// TestNotify_Edges covers nil errors and empty recipient lists.
func TestNotify_Edges(t *testing.T) {
	t.Parallel()

	mailer := new(recordingMailer)

	New(mailer, []string{"a@example.com"}).NotifyFailure(context.Background(), nil)
	require.Empty(t, mailer.sent)

	ctx, logs := observedContext()
	New(mailer, nil).Notify(ctx, "title", "body")

	require.Empty(t, mailer.sent)
	require.Equal(t, 1, logs.FilterMessage("No notification recipients configured").Len())
}
