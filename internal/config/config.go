// Package config provides the structures and loading function for the
// service configuration.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Verification provider modes. The mode is selected once at startup and
// never falls back silently at call sites.
const (
	VerificationLive       = "live"
	VerificationPermissive = "permissive"
)

// Payment engine modes.
const (
	PaymentSimulation = "simulation"
	PaymentLive       = "live"
)

// Config is the top-level configuration of the service.
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Admin                   `yaml:"admin"`
	Verification            `yaml:"verification"`
	Payment                 `yaml:"payment"`
}

// HTTPServer holds the HTTP listener settings.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"localhost:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection holds the redis client settings.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitMQ holds the message broker settings for the conversation channel.
type RabbitMQ struct {
	AmqpURI        string        `yaml:"amqp_uri"`
	ConnectRetries int           `yaml:"connect_retries" env-default:"5"`
	ConnectDelay   time.Duration `yaml:"connect_delay" env-default:"2s"`
}

// JWTToken holds the session token settings.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Admin holds the back-office credential pair and session lifetime.
// The password is stored as a bcrypt hash; admin sessions are unrelated to
// customer identities.
type Admin struct {
	Email        string        `yaml:"email"`
	PasswordHash string        `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
	SessionTTL   time.Duration `yaml:"session_ttl" env-default:"2h"`
}

// Verification configures the registration code delivery strategy.
type Verification struct {
	Mode         string        `yaml:"mode" env-default:"permissive"`
	ChallengeTTL time.Duration `yaml:"challenge_ttl" env-default:"5m"`
	SMSGateway   SMSGateway    `yaml:"sms_gateway"`
}

// SMSGateway holds the live SMS delivery channel settings.
type SMSGateway struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key" env:"SMS_API_KEY"`
	Sender  string        `yaml:"sender" env-default:"LOMAL"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// Payment configures the payment engine. FailureRate only applies in
// simulation mode; the PayDunya keys only apply in live mode.
type Payment struct {
	Mode                 string        `yaml:"mode" env-default:"simulation"`
	FailureRate          float64       `yaml:"failure_rate" env-default:"0.05"`
	SettleDelay          time.Duration `yaml:"settle_delay" env-default:"2s"`
	InvoiceTTL           time.Duration `yaml:"invoice_ttl" env-default:"30m"`
	SubscriptionPriceCFA int           `yaml:"subscription_price_cfa" env-default:"1000"`
	SubscriptionDays     int           `yaml:"subscription_days" env-default:"7"`
	PayDunya             PayDunya      `yaml:"paydunya"`
}

// PayDunya holds the live provider credentials and callback URLs.
type PayDunya struct {
	BaseURL     string        `yaml:"base_url" env-default:"https://app.paydunya.com/api/v1"`
	MasterKey   string        `yaml:"master_key" env:"PAYDUNYA_MASTER_KEY"`
	PrivateKey  string        `yaml:"private_key" env:"PAYDUNYA_PRIVATE_KEY"`
	Token       string        `yaml:"token" env:"PAYDUNYA_TOKEN"`
	CallbackURL string        `yaml:"callback_url"`
	ReturnURL   string        `yaml:"return_url"`
	CancelURL   string        `yaml:"cancel_url"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
}

// MustLoad loads the configuration from the file named by CONFIG_PATH and
// exits the process when it is missing or unreadable.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
