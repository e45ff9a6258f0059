package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Драйверы хранилища.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverGorm     = "gorm"
	StorageDriverMemory   = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL"`
	StorageDriver  string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	AutoMigrate    bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	ServerPort     string        `env:"SERVER_PORT"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	MaxBodyBytes   int64         `env:"MAX_BODY_BYTES" envDefault:"15728640"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Токены доступа
	AccessTokenSecret string        `env:"ACCESS_TOKEN_SECRET,required"`
	TokenIssuer       string        `env:"TOKEN_ISSUER" envDefault:"campus-events"`
	TokenTTL          time.Duration `env:"TOKEN_TTL" envDefault:"0s"`

	// Настройки для MinIO (хостинг изображений)
	MinioEndpoint        string `env:"MINIO_ENDPOINT"`
	MinioAccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
	MinioSecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
	MinioUseSSL          bool   `env:"MINIO_USE_SSL"`
	MinioBucketName      string `env:"MINIO_BUCKET_NAME" envDefault:"events"`
	MinioRegion          string `env:"MINIO_REGION" envDefault:"us-east-1"`
	MinioPublicURL       string `env:"MINIO_PUBLIC_URL"`
	MaxImageBytes        int64  `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`

	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"image_cleanup_queue"`
	}

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	AuthRateLimitRPS   float64  `env:"AUTH_RATE_LIMIT_RPS" envDefault:"1"`
	AuthRateLimitBurst int      `env:"AUTH_RATE_LIMIT_BURST" envDefault:"5"`

	// Прокси, которым доверяем X-Forwarded-For (CIDR через запятую). Пусто — не доверяем никому.
	TrustedProxyCIDRs []string `env:"TRUSTED_PROXY_CIDRS" envSeparator:","`
}

// LoadConfig загружает конфигурацию из переменных окружения.
// В режиме разработки пытается загрузить .env файл.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет согласованность параметров.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverGorm:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL обязателен для драйвера %q", c.StorageDriver)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER: %q", c.StorageDriver)
	}

	if c.AccessTokenSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET не может быть пустым")
	}
	if c.MinioEndpoint != "" && (c.MinioAccessKeyID == "" || c.MinioSecretAccessKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY_ID и MINIO_SECRET_ACCESS_KEY обязательны при заданном MINIO_ENDPOINT")
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("TOKEN_TTL не может быть отрицательным")
	}
	for _, cidr := range c.TrustedProxyCIDRs {
		if strings.TrimSpace(cidr) == "" {
			continue
		}
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			return fmt.Errorf("некорректный CIDR в TRUSTED_PROXY_CIDRS %q: %w", cidr, err)
		}
	}
	return nil
}

// TrustedProxies возвращает разобранные TRUSTED_PROXY_CIDRS.
func (c *Config) TrustedProxies() []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxyCIDRs))
	for _, cidr := range c.TrustedProxyCIDRs {
		if _, n, err := net.ParseCIDR(strings.TrimSpace(cidr)); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

// ImagesEnabled сообщает, настроен ли хостинг изображений.
func (c *Config) ImagesEnabled() bool {
	return c.MinioEndpoint != ""
}

// PublicImageBaseURL возвращает префикс публичных ссылок на изображения.
func (c *Config) PublicImageBaseURL() string {
	if c.MinioPublicURL != "" {
		return strings.TrimRight(c.MinioPublicURL, "/")
	}
	scheme := "http"
	if c.MinioUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.MinioEndpoint)
}
