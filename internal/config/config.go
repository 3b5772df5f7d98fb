package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName  string   `env:"SERVICE_NAME" envDefault:"videotube-users"`
	ServerPort   int      `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel     string   `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL  string   `env:"DATABASE_URL,required,notEmpty"`
	BodyLimit    string   `env:"BODY_LIMIT" envDefault:"10M"`
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:","`

	JWT    JWT
	Media  Media  `envPrefix:"MEDIA_"`
	Kafka  Kafka  `envPrefix:"KAFKA_"`
	Search Search `envPrefix:"ES_"`
}

type JWT struct {
	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET,required,notEmpty"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET,required,notEmpty"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"240h"`
}

// Media is the S3 compatible bucket holding avatars and cover images.
type Media struct {
	Endpoint      string        `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey     string        `env:"ACCESS_KEY"`
	SecretKey     string        `env:"SECRET_KEY"`
	Bucket        string        `env:"BUCKET" envDefault:"videotube-media"`
	UseSSL        bool          `env:"USE_SSL" envDefault:"false"`
	PublicURL     string        `env:"PUBLIC_URL"`
	UploadTimeout time.Duration `env:"UPLOAD_TIMEOUT" envDefault:"30s"`
}

// Kafka publishing is off when no brokers are set.
type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
}

// Search is off when URL is empty.
type Search struct {
	URL      string `env:"URL"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Index    string `env:"INDEX" envDefault:"channels"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info("notice: .env file not found, using system environment variables", "error", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if c.JWT.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRY must be positive"))
	}
	if c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRY must be positive"))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT %d is out of range", c.ServerPort))
	}
	if c.Media.UploadTimeout <= 0 {
		errs = append(errs, errors.New("MEDIA_UPLOAD_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
