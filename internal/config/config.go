// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magabrotheeeer/servicehub/internal/models"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	PaymentProvider         `yaml:"payment_provider"`
	Subscription            `yaml:"subscription"`
	Listing                 `yaml:"listing"`
	SMTP                    `yaml:"smtp"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"5"`
	RateBurst   int           `yaml:"rate_burst" env-default:"20"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	ListingTTL   time.Duration `yaml:"listing_ttl" env-default:"60s"`
}

// RabbitMQ структура для подключения к брокеру событий подписок
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// PaymentProvider настройки платёжного шлюза
type PaymentProvider struct {
	BaseURL       string        `yaml:"base_url" env-default:"https://api.paystack.co"`
	SecretKey     string        `yaml:"secret_key" env:"PAYMENT_SECRET_KEY"`
	WebhookSecret string        `yaml:"webhook_secret" env:"PAYMENT_WEBHOOK_SECRET"`
	CallbackURL   string        `yaml:"callback_url"`
	Timeout       time.Duration `yaml:"timeout" env-default:"10s"`
}

// CyclePrices цены подписки на категорию по циклам оплаты
type CyclePrices struct {
	Monthly    float64 `yaml:"monthly"`
	Biannually float64 `yaml:"biannually"`
	Annual     float64 `yaml:"annual"`
}

// Subscription настройки подписок на категории
type Subscription struct {
	GracePeriod   time.Duration          `yaml:"grace_period" env-default:"168h"`
	Currency      string                 `yaml:"currency" env-default:"GHS"`
	DefaultPrices CyclePrices            `yaml:"default_prices"`
	Prices        map[string]CyclePrices `yaml:"prices"`
}

// Listing настройки публичного поиска объявлений
type Listing struct {
	PageSize int `yaml:"page_size" env-default:"12"`
}

// SMTP настройки почтового сервера для уведомлений
type SMTP struct {
	SMTPHost string `yaml:"host"`
	SMTPPort string `yaml:"port" env-default:"587"`
	SMTPUser string `yaml:"user"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
}

// MustLoad функция для загрузки конфига из файла, указанного в CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла и проверяет обязательные значения
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.DefaultPrices == (CyclePrices{}) {
		cfg.DefaultPrices = CyclePrices{Monthly: 50, Biannually: 270, Annual: 480}
	}
	for name := range cfg.Prices {
		if !models.Category(name).Valid() {
			return nil, fmt.Errorf("subscription.prices: unknown category %q", name)
		}
	}
	return &cfg, nil
}

// Price возвращает цену цикла оплаты для категории.
func (s Subscription) Price(category models.Category, cycle models.BillingCycle) float64 {
	prices, ok := s.Prices[string(category)]
	if !ok {
		prices = s.DefaultPrices
	}
	switch cycle {
	case models.CycleMonthly:
		return prices.Monthly
	case models.CycleBiannually:
		return prices.Biannually
	case models.CycleAnnual:
		return prices.Annual
	}
	panic(fmt.Sprintf("config: unhandled billing cycle %q", string(cycle)))
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  ListingTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Subscription:\n"+
			"  GracePeriod: %s\n"+
			"  Currency: %s\n"+
			"Listing:\n"+
			"  PageSize: %d\n",
		c.Env,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.ListingTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.GracePeriod,
		c.Currency,
		c.PageSize,
	)
}
