package transport

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ParsePrivateKey decodes a PEM encoded RSA device key.
func ParsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse device key: %w", err)
	}
	return key, nil
}

// DevicePassword mints the RS256 token used as the MQTT password. The
// audience is the cloud project the device registry belongs to.
func DevicePassword(projectID string, key *rsa.PrivateKey, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{projectID},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign device token: %w", err)
	}
	return token, nil
}

// ClientID builds the fully qualified MQTT client id of a registry device.
func ClientID(projectID, region, registry, deviceID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/registries/%s/devices/%s", projectID, region, registry, deviceID)
}

// ConfigTopic is the MQTT topic a device receives its configuration on.
func ConfigTopic(deviceID string) string {
	return fmt.Sprintf("/devices/%s/config", deviceID)
}
