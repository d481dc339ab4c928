package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith reads configuration into the given viper instance. Tests pass a
// fresh instance with explicit config paths.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv("queue.nats_url", "NATS_URL", "APP_QUEUE_NATS_URL")
	v.BindEnv("queue.rabbitmq_url", "RABBITMQ_URL", "APP_QUEUE_RABBITMQ_URL")
	v.BindEnv("jwt.secret", "JWT_SECRET", "APP_JWT_SECRET")
	v.BindEnv("gemini.api_key", "GEMINI_API_KEY", "APP_GEMINI_API_KEY")
	v.BindEnv("voice.endpoint", "VOICE_API_URL", "APP_VOICE_ENDPOINT")
	v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	v.BindEnv("notification.email.api_key", "SENDGRID_API_KEY")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "agrovoz")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.idle_timeout", 120*time.Second)
	v.SetDefault("http.body_limit", 16*1024*1024)

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.port", 9090)

	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.url", "redis://localhost:6379/0")

	v.SetDefault("queue.driver", "nats")
	v.SetDefault("queue.nats_url", "nats://localhost:4222")

	v.SetDefault("jwt.access_token_duration", 15*time.Minute)
	v.SetDefault("jwt.refresh_token_duration", 7*24*time.Hour)

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.language", "pt-BR")
	v.SetDefault("gemini.temperature", 0.1)

	v.SetDefault("voice.provider", "gemini")
	v.SetDefault("voice.max_recording_time", 60*time.Second)
	v.SetDefault("voice.processing_timeout", 90*time.Second)
	v.SetDefault("voice.auto_execute", true)
	v.SetDefault("voice.audio_format", "audio/wav")
	v.SetDefault("voice.sample_rate", 16000)
	v.SetDefault("voice.channels", 1)
	v.SetDefault("voice.ffmpeg_command", "ffmpeg")
	v.SetDefault("voice.input_format", "pulse")
	v.SetDefault("voice.input_device", "default")

	v.SetDefault("opentelemetry.service_name", "agrovoz")
	v.SetDefault("opentelemetry.jaeger_endpoint", "http://jaeger:14268/api/traces")
	v.SetDefault("opentelemetry.sample_ratio", 1.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 0.6)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("cache.driver", "redis")
	v.SetDefault("cache.dashboard_ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", time.Minute)

	v.SetDefault("dashboard.chunk_size", 200)
	v.SetDefault("dashboard.upcoming_window", 7*24*time.Hour)
	v.SetDefault("dashboard.production_lookback", 30*24*time.Hour)

	v.SetDefault("vault.path", "secret/data/agrovoz")

	v.SetDefault("notification.email.from_name", "AgroVoz")
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	switch c.Voice.Provider {
	case "gemini", "http":
	default:
		return fmt.Errorf("invalid voice.provider %q: want gemini or http", c.Voice.Provider)
	}
	if c.Voice.Provider == "http" && c.Voice.Endpoint == "" {
		return fmt.Errorf("voice.endpoint is required when voice.provider is http")
	}
	if c.Voice.MaxRecordingTime <= 0 {
		return fmt.Errorf("voice.max_recording_time must be positive")
	}
	switch c.Queue.Driver {
	case "nats", "rabbitmq", "none":
	default:
		return fmt.Errorf("invalid queue.driver %q", c.Queue.Driver)
	}
	switch c.Cache.Driver {
	case "redis", "local":
	default:
		return fmt.Errorf("invalid cache.driver %q", c.Cache.Driver)
	}
	return nil
}
