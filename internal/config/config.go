// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	SMTP                    `yaml:"smtp"`
	RabbitMQ                `yaml:"rabbitmq"`
	Documents               `yaml:"documents"`
	Notification            `yaml:"notification"`
	Sweep                   `yaml:"sweep"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"5"`
	RateBurst   int           `yaml:"rate_burst" env-default:"10"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"1h"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// SMTP настройки почтового транспорта
type SMTP struct {
	SMTPHost    string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort    string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser    string `yaml:"user" env:"SMTP_USER"`
	SMTPPass    string `yaml:"pass" env:"SMTP_PASS"`
	FromName    string `yaml:"from_name" env:"EMAIL_FROM_NAME" env-default:"V Tracker"`
	FromAddress string `yaml:"from_address" env:"EMAIL_FROM_ADDRESS"`
}

// RabbitMQ настройки подключения к брокеру
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// Documents настройки генерации документов
type Documents struct {
	OutputDir       string        `yaml:"output_dir" env-default:"./public/client-pdfs"`
	LogoPath        string        `yaml:"logo_path"`
	DocumentTimeout time.Duration `yaml:"timeout" env-default:"15s"`
}

// Notification настройки отправки уведомлений.
// Mode принимает значения "smtp" (отправка напрямую) или "queue" (через RabbitMQ).
type Notification struct {
	Mode                string        `yaml:"mode" env-default:"smtp"`
	NotificationTimeout time.Duration `yaml:"timeout" env-default:"20s"`
}

// Sweep настройки ежедневного пересчёта статусов
type Sweep struct {
	Schedule    string `yaml:"schedule" env-default:"0 0 * * *"`
	Concurrency int    `yaml:"concurrency" env-default:"8"`
	Embedded    bool   `yaml:"embedded"`
}

// responseMargin запас на чтение тела, запись в БД и сериализацию ответа.
const responseMargin = 5 * time.Second

// WriteTimeout таймаут записи ответа. Создание и изменение клиента ждут
// генерацию документа и уведомление, поэтому таймаут не меньше их суммы.
func (c *Config) WriteTimeout() time.Duration {
	pipeline := c.DocumentTimeout + c.NotificationTimeout + responseMargin
	if c.TimeoutHTTP > pipeline {
		return c.TimeoutHTTP
	}
	return pipeline
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
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

// Load читает конфиг из файла, переменные окружения имеют приоритет.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
