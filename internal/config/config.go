package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Backend names accepted by CODE_STORE, IDENTITY_BACKEND and DELIVERY_BACKEND.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreDynamo = "dynamo"

	RegistryMongo  = "mongo"
	RegistryDynamo = "dynamo"

	DeliverySMTP = "smtp"
	DeliverySNS  = "sns"
	DeliveryLog  = "log"

	EnvProduction = "production"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"3000"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT"` // "json" | "console"; empty picks by AppEnv

	OTP OTPConfig

	CodeStore       string `env:"CODE_STORE" envDefault:"memory"`
	IdentityBackend string `env:"IDENTITY_BACKEND" envDefault:"mongo"`
	DeliveryBackend string `env:"DELIVERY_BACKEND" envDefault:"smtp"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables
	SNSTopicARN    string `env:"SNS_TOPIC_ARN"`

	RedisAddrs    []string `env:"REDIS_ADDRS" envSeparator:"," envDefault:"localhost:6379"`
	RedisPassword string   `env:"REDIS_PASSWORD"`
	RedisCluster  bool     `env:"REDIS_CLUSTER" envDefault:"false"`

	MongoURI        string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"securescan"`
	MongoCollection string `env:"MONGO_USERS_COLLECTION" envDefault:"users"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"1025"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@securescan.app"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"SecureScan Security"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	JWTPrivateKeyPath    string        `env:"JWT_PRIVATE_KEY_PATH" envDefault:"./private_key.pem"`
	JWTPublicKeyPath     string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./public_key.pem"`
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"15m"`

	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"10"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// OTPConfig tunes code issuance and the in-memory store.
type OTPConfig struct {
	TTL            time.Duration `env:"OTP_TTL" envDefault:"5m"`
	LockShards     int           `env:"OTP_LOCK_SHARDS" envDefault:"256"`
	MemoryCapacity int           `env:"OTP_MEMORY_CAPACITY" envDefault:"100000"`
	SweepInterval  time.Duration `env:"OTP_SWEEP_INTERVAL" envDefault:"1m"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users        string `env:"DYNAMO_TABLE_USERS" envDefault:"users"`
	PendingCodes string `env:"DYNAMO_TABLE_PENDING_CODES" envDefault:"pending_codes"`
}

// Load reads all configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown backend names and unusable OTP settings.
func (c *Config) Validate() error {
	switch c.CodeStore {
	case StoreMemory, StoreRedis, StoreDynamo:
	default:
		return fmt.Errorf("unknown CODE_STORE %q", c.CodeStore)
	}
	switch c.IdentityBackend {
	case RegistryMongo, RegistryDynamo:
	default:
		return fmt.Errorf("unknown IDENTITY_BACKEND %q", c.IdentityBackend)
	}
	switch c.DeliveryBackend {
	case DeliverySMTP:
	case DeliverySNS:
		if c.SNSTopicARN == "" {
			return fmt.Errorf("SNS_TOPIC_ARN is required when DELIVERY_BACKEND=sns")
		}
	case DeliveryLog:
		if c.IsProduction() {
			return fmt.Errorf("DELIVERY_BACKEND=log is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown DELIVERY_BACKEND %q", c.DeliveryBackend)
	}
	if c.OTP.TTL < time.Minute {
		return fmt.Errorf("OTP_TTL must be at least 1m, got %s", c.OTP.TTL)
	}
	if c.OTP.SweepInterval <= 0 {
		return fmt.Errorf("OTP_SWEEP_INTERVAL must be positive, got %s", c.OTP.SweepInterval)
	}
	if c.OTP.LockShards < 1 {
		return fmt.Errorf("OTP_LOCK_SHARDS must be positive")
	}
	if c.CodeStore == StoreRedis && len(c.RedisAddrs) == 0 {
		return fmt.Errorf("REDIS_ADDRS is required when CODE_STORE=redis")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == EnvProduction }

// LogEncoding returns LOG_FORMAT, defaulting to json in production and console elsewhere.
func (c *Config) LogEncoding() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	if c.IsProduction() {
		return "json"
	}
	return "console"
}
