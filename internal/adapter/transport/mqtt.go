package transport

import (
	"context"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type MQTTOptions struct {
	Broker    string
	ProjectID string
	Region    string
	Registry  string
	// DeviceID selects the config topic.
	DeviceID  string

	// ClientDeviceID is the registry identity used for the client id and
	// defaults to DeviceID.
	ClientDeviceID string

	CACertPath string
	PrivateKey *rsa.PrivateKey

	QoS            byte
	TokenTTL       time.Duration
	ConnectTimeout time.Duration
}

// MQTTTransport publishes retained device configs on /devices/<id>/config.
// Passwords are minted per connection attempt so reconnects never reuse an
// expired token.
type MQTTTransport struct {
	opts MQTTOptions
	log  *zap.Logger

	mu     sync.Mutex
	client mqtt.Client
	subs   map[string]mqtt.MessageHandler
}

func NewMQTTTransport(opts MQTTOptions, log *zap.Logger) (*MQTTTransport, error) {
	if opts.ProjectID == "" || opts.DeviceID == "" {
		return nil, errors.New("mqtt: project and device id are required")
	}
	if opts.ClientDeviceID == "" {
		opts.ClientDeviceID = opts.DeviceID
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	return &MQTTTransport{
		opts: opts,
		log:  log,
		subs: make(map[string]mqtt.MessageHandler),
	}, nil
}

func (t *MQTTTransport) clientID() string {
	o := t.opts
	return ClientID(o.ProjectID, o.Region, o.Registry, o.ClientDeviceID)
}

func (t *MQTTTransport) clientOptions() (*mqtt.ClientOptions, error) {
	o := t.opts
	clientOpts := mqtt.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(t.clientID()).
		SetProtocolVersion(4).
		SetAutoReconnect(true).
		SetConnectTimeout(o.ConnectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			t.log.Warn("MQTT connection lost", zap.Error(err))
		}).
		SetOnConnectHandler(t.resubscribe)

	if o.PrivateKey != nil {
		clientOpts.SetCredentialsProvider(func() (string, string) {
			password, err := DevicePassword(o.ProjectID, o.PrivateKey, o.TokenTTL, time.Now())
			if err != nil {
				t.log.Error("Failed to mint device token", zap.Error(err))
			}
			return "unused", password
		})
	}

	if o.CACertPath != "" {
		pem, err := os.ReadFile(o.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("mqtt: read ca cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("mqtt: no certificates in ca file")
		}
		clientOpts.SetTLSConfig(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12})
	}
	return clientOpts, nil
}

func (t *MQTTTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil && t.client.IsConnectionOpen() {
		return nil
	}
	if t.client == nil {
		opts, err := t.clientOptions()
		if err != nil {
			return err
		}
		t.client = mqtt.NewClient(opts)
	}

	if err := waitToken(ctx, t.client.Connect(), t.opts.ConnectTimeout); err != nil {
		return fmt.Errorf("mqtt: connect %s: %w", t.opts.Broker, err)
	}
	t.log.Info("Connected to MQTT broker", zap.String("broker", t.opts.Broker))
	return nil
}

func (t *MQTTTransport) connected() (mqtt.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil || !t.client.IsConnectionOpen() {
		return nil, ErrNotConnected
	}
	return t.client, nil
}

func (t *MQTTTransport) Publish(ctx context.Context, deviceID string, payload []byte) error {
	client, err := t.connected()
	if err != nil {
		return err
	}
	return waitToken(ctx, client.Publish(ConfigTopic(deviceID), t.opts.QoS, true, payload), t.opts.ConnectTimeout)
}

func (t *MQTTTransport) Subscribe(deviceID string, handler func(payload []byte) error) error {
	client, err := t.connected()
	if err != nil {
		return err
	}
	topic := ConfigTopic(deviceID)
	cb := func(_ mqtt.Client, msg mqtt.Message) {
		if err := handler(msg.Payload()); err != nil {
			t.log.Error("Error processing MQTT message", zap.String("topic", topic), zap.Error(err))
		}
	}

	t.mu.Lock()
	t.subs[topic] = cb
	t.mu.Unlock()

	return waitToken(context.Background(), client.Subscribe(topic, t.opts.QoS, cb), t.opts.ConnectTimeout)
}

// resubscribe restores subscriptions after the client reconnects with a
// clean session.
func (t *MQTTTransport) resubscribe(client mqtt.Client) {
	t.mu.Lock()
	subs := make(map[string]mqtt.MessageHandler, len(t.subs))
	for topic, cb := range t.subs {
		subs[topic] = cb
	}
	t.mu.Unlock()

	for topic, cb := range subs {
		tok := client.Subscribe(topic, t.opts.QoS, cb)
		go func(topic string, tok mqtt.Token) {
			if tok.WaitTimeout(t.opts.ConnectTimeout) && tok.Error() != nil {
				t.log.Error("Failed to resubscribe", zap.String("topic", topic), zap.Error(tok.Error()))
			}
		}(topic, tok)
	}
}

func (t *MQTTTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		t.client.Disconnect(250)
		t.client = nil
	}
	return nil
}

func waitToken(ctx context.Context, tok mqtt.Token, timeout time.Duration) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return ErrTimeout
	}
}
