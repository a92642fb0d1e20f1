package transport

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/seu-repo/armvoice/internal/adapter/queue"
	"github.com/seu-repo/armvoice/internal/ports"
	"github.com/seu-repo/armvoice/pkg/config"
)

// New builds the transport selected by transport.kind. keyPEM overrides
// transport.mqtt.private_key_path when non-empty.
func New(cfg *config.Config, keyPEM []byte, log *zap.Logger) (ports.TransportSubscriber, error) {
	tc := cfg.Transport
	switch tc.Kind {
	case "nats":
		return NewQueueTransport("nats", func() (queue.MessageQueue, error) {
			return queue.NewNATSQueue(tc.NATS, log)
		}, log), nil
	case "rabbitmq":
		return NewQueueTransport("rabbitmq", func() (queue.MessageQueue, error) {
			return queue.NewRabbitMQQueue(tc.RabbitMQ, log)
		}, log), nil
	case "mqtt":
		if len(keyPEM) == 0 && tc.MQTT.PrivateKeyPath != "" {
			data, err := os.ReadFile(tc.MQTT.PrivateKeyPath)
			if err != nil {
				return nil, fmt.Errorf("mqtt: read private key: %w", err)
			}
			keyPEM = data
		}
		opts := MQTTOptions{
			Broker:         tc.MQTT.Broker,
			ProjectID:      cfg.Device.ProjectID,
			Region:         cfg.Device.Region,
			Registry:       cfg.Device.Registry,
			DeviceID:       cfg.Device.ID,
			ClientDeviceID: MQTTClientDeviceID(cfg),
			CACertPath:     tc.MQTT.CACertPath,
			QoS:            tc.MQTT.QoS,
			TokenTTL:       tc.MQTT.TokenTTL,
			ConnectTimeout: tc.MQTT.ConnectTimeout,
		}
		if len(keyPEM) > 0 {
			key, err := ParsePrivateKey(keyPEM)
			if err != nil {
				return nil, err
			}
			opts.PrivateKey = key
		}
		return NewMQTTTransport(opts, log)
	}
	return nil, fmt.Errorf("unknown transport kind %q", tc.Kind)
}

// MQTTClientDeviceID is the registry identity an MQTT session connects as.
// Brokers allow one session per client id, so the gateway must not reuse
// the arm's own id.
func MQTTClientDeviceID(cfg *config.Config) string {
	if id := cfg.Transport.MQTT.ClientID; id != "" {
		return id
	}
	return cfg.Device.ID + "-gateway"
}
