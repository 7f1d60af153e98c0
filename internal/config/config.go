// Package config предоставляет структуры и функции для парсинга и загрузки конфига.
//
// Конфиг читается из YAML-файла, путь к которому задает CONFIG_PATH. Любое поле
// можно переопределить переменной окружения, секреты удобно держать в .env.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Драйверы хранилища.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	MetricsAddress  string `yaml:"metrics_address" env:"METRICS_ADDRESS"`
	Storage         `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	HTTPServer      `yaml:"http_server"`
	JWTToken        `yaml:"jwttoken"`
	RabbitMQ        `yaml:"rabbitmq"`
	NewsData        `yaml:"newsdata"`
	Gemini          `yaml:"gemini"`
	Twilio          `yaml:"twilio"`
	Scheduler       `yaml:"scheduler"`
	Quota           `yaml:"quota"`
}

// Storage настройки хранилища. Driver выбирает postgres или mongo.
type Storage struct {
	StorageDriver           string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	StorageConnectionString string `yaml:"connection_string" env:"STORAGE_CONNECTION_STRING"`
	MongoDatabase           string `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"newsbot"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL" env-default:"30m"`
}

// RabbitMQ настройки брокера очереди доставок.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"3s"`
	RabbitMQPrefetch   int           `yaml:"prefetch" env:"RABBITMQ_PREFETCH" env-default:"10"`
	RabbitMQWorkers    int           `yaml:"workers" env:"RABBITMQ_WORKERS" env-default:"10"`
}

// NewsData настройки поисковика новостей newsdata.io.
type NewsData struct {
	NewsDataBaseURL     string        `yaml:"base_url" env:"NEWSDATA_BASE_URL" env-default:"https://newsdata.io/api/1"`
	NewsDataAPIKey      string        `yaml:"api_key" env:"NEWSDATA_API_KEY"`
	NewsDataTimeout     time.Duration `yaml:"timeout" env:"NEWSDATA_TIMEOUT" env-default:"10s"`
	NewsDataMaxArticles int           `yaml:"max_articles" env:"NEWSDATA_MAX_ARTICLES" env-default:"3"`
}

// Gemini настройки модели для суммаризации.
type Gemini struct {
	GeminiBaseURL string        `yaml:"base_url" env:"GEMINI_BASE_URL" env-default:"https://generativelanguage.googleapis.com"`
	GeminiAPIKey  string        `yaml:"api_key" env:"GEMINI_API_KEY"`
	GeminiModel   string        `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-1.5-flash"`
	GeminiTimeout time.Duration `yaml:"timeout" env:"GEMINI_TIMEOUT" env-default:"20s"`
}

// Twilio настройки отправки сообщений WhatsApp.
type Twilio struct {
	TwilioAccountSID string        `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string        `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string        `yaml:"from_number" env:"TWILIO_WHATSAPP_NUMBER"`
	TwilioTimeout    time.Duration `yaml:"timeout" env:"TWILIO_TIMEOUT" env-default:"10s"`
}

// Scheduler настройки цикла диспетчеризации.
type Scheduler struct {
	TickInterval time.Duration `yaml:"tick_interval" env:"SCHEDULER_TICK_INTERVAL" env-default:"1h"`
	Location     string        `yaml:"location" env:"SCHEDULER_LOCATION" env-default:"UTC"`
}

// Quota лимиты бесплатного тарифа.
type Quota struct {
	FreeMaxNumbers   int `yaml:"free_max_numbers" env:"QUOTA_FREE_NUMBERS" env-default:"1"`
	FreeMaxTopics    int `yaml:"free_max_topics" env:"QUOTA_FREE_TOPICS" env-default:"3"`
	FreeMaxSchedules int `yaml:"free_max_schedules" env:"QUOTA_FREE_SCHEDULES" env-default:"3"`
}

// Load читает конфиг из файла path и переменных окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if path == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("config path is empty"))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.StorageDriver != DriverPostgres && cfg.StorageDriver != DriverMongo {
		return nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.StorageDriver)
	}
	if _, err := time.LoadLocation(cfg.Location); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига, завершает процесс при любой ошибке.
// Перед чтением подгружается необязательный .env из рабочей директории.
func MustLoad() *Config {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// SchedulerLocation возвращает часовой пояс, в котором сравнивается time_of_day.
func (c *Config) SchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  ConnectionString: %s\n"+
			"  MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"  Workers: %d\n"+
			"NewsData:\n"+
			"  BaseURL: %s\n"+
			"  APIKey: %s\n"+
			"Gemini:\n"+
			"  Model: %s\n"+
			"  APIKey: %s\n"+
			"Twilio:\n"+
			"  AccountSID: %s\n"+
			"  AuthToken: %s\n"+
			"  From: %s\n"+
			"Scheduler:\n"+
			"  TickInterval: %s\n"+
			"  Location: %s\n",
		c.Env,
		c.StorageDriver,
		mask(c.StorageConnectionString),
		c.MigrationsPath,
		c.AddressRedis,
		mask(c.Password),
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.JWTSecretKey),
		c.TokenTTL,
		mask(c.RabbitMQURL),
		c.RabbitMQWorkers,
		c.NewsDataBaseURL,
		mask(c.NewsDataAPIKey),
		c.GeminiModel,
		mask(c.GeminiAPIKey),
		c.TwilioAccountSID,
		mask(c.TwilioAuthToken),
		c.TwilioFromNumber,
		c.TickInterval,
		c.Location,
	)
}
