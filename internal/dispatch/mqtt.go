package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// ErrPublishTimeout is returned when the broker does not acknowledge a publish in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// ConnectMQTT opens an auto-reconnecting client to broker.
func ConnectMQTT(broker, clientID string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, err)
	}
	return client, nil
}

// MQTTNotifier publishes each notification as JSON to <prefix>/<tag>. Subscribers such as
// the web client render them. Permission is unsupported without a client and denied while
// the connection is down.
type MQTTNotifier struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration
	logger  log.FieldLogger
}

type mqttMessage struct {
	Notification
	SentAt time.Time `json:"sentAt"`
}

// NewMQTTNotifier creates a notifier publishing through client.
func NewMQTTNotifier(client mqtt.Client, prefix string, logger log.FieldLogger) *MQTTNotifier {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if prefix == "" {
		prefix = "maintenance/notifications"
	}
	return &MQTTNotifier{
		client:  client,
		prefix:  prefix,
		qos:     1,
		timeout: 5 * time.Second,
		logger:  logger.WithField("notifier", "mqtt"),
	}
}

func (m *MQTTNotifier) Permission(context.Context) Permission {
	if m.client == nil {
		return PermissionUnsupported
	}
	if !m.client.IsConnectionOpen() {
		return PermissionDenied
	}
	return PermissionGranted
}

// RequestPermission cannot prompt anyone; it reports the connection state.
func (m *MQTTNotifier) RequestPermission(ctx context.Context) Permission {
	return m.Permission(ctx)
}

// Topic returns the topic a notification with tag is published to.
func (m *MQTTNotifier) Topic(tag string) string {
	return m.prefix + "/" + tag
}

func (m *MQTTNotifier) Show(ctx context.Context, n Notification) error {
	if m.client == nil {
		return errors.New("mqtt client not configured")
	}
	payload, err := json.Marshal(mqttMessage{Notification: n, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	timeout := m.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	topic := m.Topic(n.Tag)
	token := m.client.Publish(topic, m.qos, false, payload)
	if !token.WaitTimeout(timeout) {
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	m.logger.WithField("topic", topic).Debug("Published notification")
	return nil
}
