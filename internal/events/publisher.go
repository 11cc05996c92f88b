package events

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Pulsar1722/homeIoTServer/internal/config"
	"github.com/Pulsar1722/homeIoTServer/internal/domain/presence"
	"github.com/Pulsar1722/homeIoTServer/internal/logger"
)

const (
	// defaultConnectTimeout is the maximum time to wait for the initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout is the maximum time to wait for a publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is how long pending work may take on disconnect, in milliseconds.
	defaultDisconnectQuiesce = 1000

	// defaultKeepAlive is the keepalive interval of the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2
)

// mqttClient is the subset of pahomqtt.Client the publisher uses.
type mqttClient interface {
	Connect() pahomqtt.Token
	Publish(topic string, qos byte, retained bool, payload any) pahomqtt.Token
	IsConnectionOpen() bool
	Disconnect(quiesce uint)
}

// Publisher sends presence changes to the broker. It is safe for concurrent use.
type Publisher struct {
	// client is the connected broker session.
	client mqttClient
	// topics builds every topic under the configured prefix.
	topics Topics
	// clientID is reported in the system status payloads.
	clientID string
	// qos applies to every publish.
	qos byte
	// now stamps payloads.
	now func() time.Time
}

// Connect dials the broker described by cfg and announces the controller online.
func Connect(ctx context.Context, cfg config.MQTTConfig) (*Publisher, error) {
	if cfg.QoS < 0 || cfg.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}

	opts, err := buildClientOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	p := newPublisher(nil, cfg)

	configureLWT(opts, p.topics, cfg.ClientID)

	ctx = logger.WithName(ctx, "mqtt")

	// Handlers outlive the connect call, including every reconnect.
	handlerCtx := context.WithoutCancel(ctx)

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		logger.InfoKV(handlerCtx, "Connected to broker", "broker", cfg.Broker)
		p.publishStatus(handlerCtx, "online", "")
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.WarnKV(handlerCtx, "Connection to broker lost", "broker", cfg.Broker, "error", err)
	})

	p.client = pahomqtt.NewClient(opts)

	if err = waitToken(ctx, p.client.Connect(), defaultConnectTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return p, nil
}

func newPublisher(client mqttClient, cfg config.MQTTConfig) *Publisher {
	return &Publisher{
		client:   client,
		topics:   NewTopics(cfg.TopicPrefix),
		clientID: cfg.ClientID,
		qos:      byte(cfg.QoS), //nolint:gosec // Range checked by the caller.
		now:      time.Now,
	}
}

// PublishPresence publishes the member state, the household count and, for
// FirstArrival or LastDeparture, a transition event.
func (p *Publisher) PublishPresence(
	ctx context.Context,
	member *presence.Member,
	snapshot *presence.Snapshot,
	transition presence.Transition,
) error {
	now := p.now()

	var errs []error

	if member != nil {
		payload, err := encodeMember(member, now)
		if err == nil {
			err = p.publish(ctx, p.topics.Presence(member.Name), payload, true)
		}

		errs = append(errs, err)
	}

	if snapshot != nil {
		payload, err := encodeHousehold(snapshot, now)
		if err == nil {
			err = p.publish(ctx, p.topics.Household(), payload, true)
		}

		errs = append(errs, err)
	}

	if transition != presence.NoTransition {
		var (
			name   string
			atHome int
		)

		if member != nil {
			name = member.Name
		}

		if snapshot != nil {
			atHome = snapshot.AtHome
		}

		payload, err := encodeTransition(transition, name, atHome, now)
		if err == nil {
			err = p.publish(ctx, p.topics.Event(transition), payload, false)
		}

		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Close announces a graceful shutdown and disconnects.
func (p *Publisher) Close(ctx context.Context) {
	if p == nil || p.client == nil {
		return
	}

	if p.client.IsConnectionOpen() {
		p.publishStatus(ctx, "offline", "graceful_shutdown")
	}

	p.client.Disconnect(defaultDisconnectQuiesce)
}

func (p *Publisher) publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	if !p.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	if err := waitToken(ctx, p.client.Publish(topic, p.qos, retained, payload), defaultPublishTimeout); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}

	logger.DebugKV(ctx, "Published", "topic", topic, "retained", retained)

	return nil
}

// publishStatus sends a retained status message; failures are only logged.
func (p *Publisher) publishStatus(ctx context.Context, status, reason string) {
	payload := encodeStatus(status, p.clientID, reason, p.now())

	if err := p.publish(ctx, p.topics.SystemStatus(), payload, true); err != nil {
		logger.WarnKV(ctx, "Failed to publish system status", "status", status, "error", err)
	}
}

// waitToken waits for token completion, the timeout or ctx, whichever comes first.
func waitToken(ctx context.Context, token pahomqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("timeout after %v", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// buildClientOptions creates paho options from the configuration.
func buildClientOptions(cfg config.MQTTConfig) (*pahomqtt.ClientOptions, error) {
	broker, err := url.Parse(cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("parse broker url: %w", err)
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	switch broker.Scheme {
	case "ssl", "tls", "mqtts", "wss":
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	return opts, nil
}

// configureLWT makes the broker publish an offline status if the connection drops.
func configureLWT(opts *pahomqtt.ClientOptions, topics Topics, clientID string) {
	payload := encodeStatus("offline", clientID, "unexpected_disconnect", time.Now())

	opts.SetBinaryWill(topics.SystemStatus(), payload, 1, true)
}
