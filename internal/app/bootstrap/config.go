package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for M47.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	AMQPURL      string
	AMQPExchange string

	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool

	SnapshotTTL    time.Duration
	CascadeTimeout time.Duration

	PreValidatorURL string
	PricerURL       string
	RulesURL        string
	ExplanationURL  string
	TriggerTimeout  time.Duration

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
	LockSweepInterval  time.Duration
	LockSweepThreshold time.Duration
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string `yaml:"postgres_url"`
		RedisURL     string `yaml:"redis_url"`
		AMQPURL      string `yaml:"amqp_url"`
		AMQPExchange string `yaml:"amqp_exchange"`
	} `yaml:"dependencies"`
	Triggers struct {
		PreValidatorURL string `yaml:"pre_validator_url"`
		PricerURL       string `yaml:"pricer_url"`
		RulesURL        string `yaml:"rules_url"`
		ExplanationURL  string `yaml:"explanation_url"`
	} `yaml:"triggers"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "M47-Invoice-Validation-Service",
		HTTPPort:           8080,
		GRPCPort:           9090,
		AMQPExchange:       "lineitem.events",
		JWTKeyID:           "m47-lineitem-key-1",
		AllowEphemeralJWT:  true,
		SnapshotTTL:        15 * time.Second,
		CascadeTimeout:     10 * time.Second,
		TriggerTimeout:     8 * time.Second,
		MaxDBConns:         20,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		OutboxClaimTTL:     30 * time.Second,
		OutboxMaxRetries:   5,
		LockSweepInterval:  30 * time.Second,
		LockSweepThreshold: 2 * time.Minute,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.AMQPURL != "" {
			cfg.AMQPURL = f.Dependencies.AMQPURL
		}
		if f.Dependencies.AMQPExchange != "" {
			cfg.AMQPExchange = f.Dependencies.AMQPExchange
		}
		if f.Triggers.PreValidatorURL != "" {
			cfg.PreValidatorURL = f.Triggers.PreValidatorURL
		}
		if f.Triggers.PricerURL != "" {
			cfg.PricerURL = f.Triggers.PricerURL
		}
		if f.Triggers.RulesURL != "" {
			cfg.RulesURL = f.Triggers.RulesURL
		}
		if f.Triggers.ExplanationURL != "" {
			cfg.ExplanationURL = f.Triggers.ExplanationURL
		}
	}

	cfg.ServiceID = envOrDefault("SERVICE_ID", cfg.ServiceID)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.AMQPURL = envOrDefault("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = envOrDefault("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)
	cfg.PreValidatorURL = envOrDefault("PRE_VALIDATOR_URL", cfg.PreValidatorURL)
	cfg.PricerURL = envOrDefault("PRICER_URL", cfg.PricerURL)
	cfg.RulesURL = envOrDefault("RULES_URL", cfg.RulesURL)
	cfg.ExplanationURL = envOrDefault("EXPLANATION_URL", cfg.ExplanationURL)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.SnapshotTTL = time.Duration(envInt("SNAPSHOT_TTL_SECONDS", int(cfg.SnapshotTTL.Seconds()))) * time.Second
	cfg.CascadeTimeout = time.Duration(envInt("CASCADE_TIMEOUT_SECONDS", int(cfg.CascadeTimeout.Seconds()))) * time.Second
	cfg.TriggerTimeout = time.Duration(envInt("TRIGGER_TIMEOUT_SECONDS", int(cfg.TriggerTimeout.Seconds()))) * time.Second
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)
	cfg.LockSweepInterval = time.Duration(envInt("LOCK_SWEEP_INTERVAL_SECONDS", int(cfg.LockSweepInterval.Seconds()))) * time.Second
	cfg.LockSweepThreshold = time.Duration(envInt("LOCK_SWEEP_THRESHOLD_SECONDS", int(cfg.LockSweepThreshold.Seconds()))) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.JWTPublicKeyPEM == "" && !cfg.AllowEphemeralJWT {
		return Config{}, fmt.Errorf("missing JWT_PUBLIC_KEY_PEM")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
