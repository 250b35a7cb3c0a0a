package config

import (
	"fmt"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

type Config struct {
	AppHost string `env:"APP_HOST" envDefault:"localhost"`
	AppPort string `env:"APP_PORT" envDefault:"4000"`
	AppEnv  string `env:"APP_ENV" envDefault:"prod"`

	PublicDomain string `env:"PUBLIC_DOMAIN" envDefault:"http://localhost:4000"`
	FrontendURL  string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"true"`

	DB       Database
	Cache    Cache
	JWT      JWT
	OTP      OTP
	Mail     Mail
	OAuth    OAuth
	Storage  Storage
	Cleanup  Cleanup
	Metrics  Metrics
	Queue    Queue
	HCaptcha HCaptcha
}

type Database struct {
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Host     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"DB_PORT" envDefault:"3306"`
	Name     string `env:"DB_NAME" envDefault:"pixelshop"`
}

// DSN returns the MySQL data source name used by GORM and migrate.
func (d Database) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type Cache struct {
	Host     string `env:"CACHE_HOST" envDefault:"localhost"`
	Port     string `env:"CACHE_PORT" envDefault:"6379"`
	Password string `env:"CACHE_PASSWORD"`
}

func (c Cache) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type JWT struct {
	Secret     string        `env:"JWT_SECRET,required"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
}

type OTP struct {
	TTL    time.Duration `env:"OTP_TTL" envDefault:"5m"`
	Length int           `env:"OTP_LENGTH" envDefault:"6"`
}

type Mail struct {
	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	From         string `env:"MAIL_FROM" envDefault:"no-reply@pixelshop.local"`
	FromName     string `env:"MAIL_FROM_NAME" envDefault:"PixelShop"`
}

type OAuth struct {
	SessionSecret      string `env:"SESSION_SECRET"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
}

type Storage struct {
	Driver        string `env:"STORAGE_DRIVER" envDefault:"local"`
	LocalPath     string `env:"STORAGE_LOCAL_PATH" envDefault:"./uploads"`
	LocalBaseURL  string `env:"STORAGE_LOCAL_BASE_URL" envDefault:"/uploads"`
	S3AccessKey   string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey   string `env:"S3_SECRET_ACCESS_KEY"`
	S3Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket      string `env:"S3_BUCKET_NAME"`
	S3EndpointURL string `env:"S3_ENDPOINT_URL"`
	S3PublicURL   string `env:"S3_PUBLIC_URL"`
}

type Cleanup struct {
	RetentionDays int  `env:"CLEANUP_RETENTION_DAYS" envDefault:"30"`
	Hour          int  `env:"CLEANUP_HOUR" envDefault:"2"`
	Enabled       bool `env:"CLEANUP_ENABLED" envDefault:"true"`
}

func (c Cleanup) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

type Metrics struct {
	User     string `env:"METRICS_USER" envDefault:"admin"`
	Password string `env:"METRICS_PASSWORD"`
}

type Queue struct {
	Workers int `env:"QUEUE_WORKERS" envDefault:"2"`
}

type HCaptcha struct {
	Secret string `env:"HCAPTCHA_SECRET"`
}

func (h HCaptcha) Enabled() bool {
	return h.Secret != ""
}

// Load parses the process environment into a Config and checks value ranges.
func Load() (*Config, error) {
	cfg, err := cenv.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

func (c *Config) validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 10")
	}
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}
	if c.Cleanup.RetentionDays < 1 {
		return fmt.Errorf("CLEANUP_RETENTION_DAYS must be at least 1")
	}
	if c.Cleanup.Hour < 0 || c.Cleanup.Hour > 23 {
		return fmt.Errorf("CLEANUP_HOUR must be between 0 and 23")
	}
	switch c.Storage.Driver {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}
