package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/vault/api"
)

var ErrSecretNotFound = errors.New("vault: secret field not found")

// Fields read from the armvoice KV secret.
const (
	FieldDevicePrivateKey = "device_private_key"
	FieldWebhookSecret    = "webhook_secret"
)

type SecretManager struct {
	client *api.Client
	mount  string
	path   string
}

// NewSecretManager reads secrets from the KV v2 engine mounted at "secret".
func NewSecretManager(address, token, path string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	return &SecretManager{client: client, mount: "secret", path: path}, nil
}

func (sm *SecretManager) field(ctx context.Context, name string) (string, error) {
	secret, err := sm.client.KVv2(sm.mount).Get(ctx, sm.path)
	if err != nil {
		return "", fmt.Errorf("vault: read %s: %w", sm.path, err)
	}
	value, ok := secret.Data[name].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	return value, nil
}

// GetDevicePrivateKey returns the PEM encoded RSA key used to sign MQTT
// passwords.
func (sm *SecretManager) GetDevicePrivateKey(ctx context.Context) ([]byte, error) {
	v, err := sm.field(ctx, FieldDevicePrivateKey)
	if err != nil {
		return nil, err
	}
	return []byte(v), nil
}

// GetWebhookSecret returns the HS256 secret guarding the fulfillment webhook.
func (sm *SecretManager) GetWebhookSecret(ctx context.Context) (string, error) {
	return sm.field(ctx, FieldWebhookSecret)
}
