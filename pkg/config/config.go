package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Webhook        WebhookConfig        `mapstructure:"webhook"`
	Device         DeviceConfig         `mapstructure:"device"`
	Transport      TransportConfig      `mapstructure:"transport"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Vault          VaultConfig          `mapstructure:"vault"`
	Locale         LocaleConfig         `mapstructure:"locale"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Retry          RetryConfig          `mapstructure:"retry"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CORS           CORSConfig           `mapstructure:"cors"`
	FeatureFlags   FeatureFlagsConfig   `mapstructure:"feature_flags"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type WebhookConfig struct {
	Path string `mapstructure:"path"`
	// AuthSecret enables HS256 bearer authentication when set.
	AuthSecret string `mapstructure:"auth_secret"`
	Issuer     string `mapstructure:"issuer"`
}

type DeviceConfig struct {
	ID        string `mapstructure:"id"`
	ProjectID string `mapstructure:"project_id"`
	Region    string `mapstructure:"region"`
	Registry  string `mapstructure:"registry"`
	// ConfigTTL bounds how long the last config is kept; zero keeps it.
	ConfigTTL time.Duration `mapstructure:"config_ttl"`
}

type TransportConfig struct {
	Kind     string         `mapstructure:"kind"`
	NATS     NATSConfig     `mapstructure:"nats"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

type MQTTConfig struct {
	Broker         string        `mapstructure:"broker"`
	CACertPath     string        `mapstructure:"ca_cert_path"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	QoS            byte          `mapstructure:"qos"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	// ClientID is the registry device the gateway connects as. Empty means
	// "<device.id>-gateway"; the arm itself keeps device.id.
	ClientID string `mapstructure:"client_id"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type VaultConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
	// Path is the KV v2 secret holding device_private_key and webhook_secret.
	Path string `mapstructure:"path"`
}

type LocaleConfig struct {
	Default   string `mapstructure:"default"`
	Directory string `mapstructure:"directory"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

type RetryConfig struct {
	MaxRetries      uint64        `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
	ServiceName string       `mapstructure:"service_name"`
}

type JaegerConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type FeatureFlagsConfig struct {
	AuditLog      bool `mapstructure:"audit_log"`
	CommandFeed   bool `mapstructure:"command_feed"`
	DirectControl bool `mapstructure:"direct_control"`
}
