package config

import (
	"log"
	"os"
	"time"

	"github.com/greenmart/storefront/pkg/utils"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTP     `yaml:"http"`
	Postgres PG       `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Auth     Auth     `yaml:"auth"`
	PayPal   PayPal   `yaml:"paypal"`
	Stripe   Stripe   `yaml:"stripe"`
	SMTP     SMTP     `yaml:"smtp"`
	Checkout Checkout `yaml:"checkout"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3000"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Kafka struct {
	Brokers    []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	OrderTopic string   `yaml:"order_topic" env:"KAFKA_ORDER_TOPIC" env-default:"order_events"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

type PayPal struct {
	BaseURL      string `yaml:"base_url" env:"PAYPAL_BASE_URL" env-default:"https://api-m.sandbox.paypal.com"`
	ClientID     string `yaml:"client_id" env:"PAYPAL_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"PAYPAL_CLIENT_SECRET"`
}

type Stripe struct {
	BaseURL   string `yaml:"base_url" env:"STRIPE_BASE_URL" env-default:"https://api.stripe.com"`
	SecretKey string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
}

type SMTP struct {
	Host       string `yaml:"host" env:"SMTP_HOST"`
	Port       string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User       string `yaml:"user" env:"SMTP_USER"`
	Password   string `yaml:"password" env:"SMTP_PASSWORD"`
	SenderName string `yaml:"sender_name" env:"SENDER_NAME" env-default:"GreenMart"`
}

type Checkout struct {
	// SiteURL is the public base used in redirect targets and email links.
	SiteURL string `yaml:"site_url" env:"SITE_URL" env-default:"http://localhost:3000"`
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exists: %v\n", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
