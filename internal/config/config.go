package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	MigrationsPath string        `env:"MIGRATIONS_PATH" envDefault:"file://internal/database/migrations"`
	ServerPort     string        `env:"SERVER_PORT"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Настройки для MinIO
	MinioEndpoint        string `env:"MINIO_ENDPOINT,required"`
	MinioAccessKeyID     string `env:"MINIO_ACCESS_KEY_ID,required"`
	MinioSecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY,required"`
	MinioUseSSL          bool   `env:"MINIO_USE_SSL"`
	MinioBucketName      string `env:"MINIO_BUCKET_NAME,required"`
	MinioRegion          string `env:"MINIO_REGION,required"`
	// MinioPublicURL адрес, по которому объекты видны клиентам и внешним сервисам
	MinioPublicURL string `env:"MINIO_PUBLIC_URL"`

	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL,required"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"bib_detection_queue"`
	}

	Pipeline struct {
		ExternalCallTimeout time.Duration `env:"EXTERNAL_CALL_TIMEOUT" envDefault:"30s"`
		BibDetectionMode    string        `env:"BIB_DETECTION_MODE" envDefault:"inline"`
		MaxUploadBytes      int64         `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	}

	Image struct {
		PreviewMaxSide   int     `env:"PREVIEW_MAX_SIDE" envDefault:"1600"`
		ThumbnailMaxSide int     `env:"THUMBNAIL_MAX_SIDE" envDefault:"400"`
		JPEGQuality      int     `env:"JPEG_QUALITY" envDefault:"85"`
		WatermarkOpacity float64 `env:"WATERMARK_OPACITY" envDefault:"0.35"`
	}

	OCR struct {
		Provider   string `env:"OCR_PROVIDER" envDefault:"http"`
		ServiceURL string `env:"OCR_SERVICE_URL"`
		APIKey     string `env:"OCR_API_KEY"`
		Language   string `env:"OCR_LANGUAGE" envDefault:"eng"`
	}

	Face struct {
		ServiceURL     string  `env:"FACE_SERVICE_URL"`
		APIKey         string  `env:"FACE_API_KEY"`
		MatchThreshold float64 `env:"FACE_MATCH_THRESHOLD" envDefault:"0.8"`
	}
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
	if cfg.MinioPublicURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		cfg.MinioPublicURL = fmt.Sprintf("%s://%s", scheme, cfg.MinioEndpoint)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет значения, которые env не может проверить сам
func (c *Config) Validate() error {
	var errs []error

	switch c.Pipeline.BibDetectionMode {
	case "inline", "deferred":
	default:
		errs = append(errs, fmt.Errorf("BIB_DETECTION_MODE должен быть inline или deferred, получено %q", c.Pipeline.BibDetectionMode))
	}

	switch c.OCR.Provider {
	case "http":
		if c.OCR.ServiceURL == "" {
			errs = append(errs, errors.New("OCR_SERVICE_URL обязателен при OCR_PROVIDER=http"))
		}
	case "tesseract":
	default:
		errs = append(errs, fmt.Errorf("OCR_PROVIDER должен быть http или tesseract, получено %q", c.OCR.Provider))
	}

	if c.Face.MatchThreshold < 0 || c.Face.MatchThreshold > 1 {
		errs = append(errs, fmt.Errorf("FACE_MATCH_THRESHOLD должен быть в диапазоне [0, 1], получено %v", c.Face.MatchThreshold))
	}
	if c.Pipeline.ExternalCallTimeout <= 0 {
		errs = append(errs, errors.New("EXTERNAL_CALL_TIMEOUT должен быть положительным"))
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("JPEG_QUALITY должен быть в диапазоне [1, 100], получено %d", c.Image.JPEGQuality))
	}
	if c.Image.WatermarkOpacity <= 0 || c.Image.WatermarkOpacity > 1 {
		errs = append(errs, fmt.Errorf("WATERMARK_OPACITY должен быть в диапазоне (0, 1], получено %v", c.Image.WatermarkOpacity))
	}
	if c.Image.ThumbnailMaxSide <= 0 || c.Image.PreviewMaxSide < c.Image.ThumbnailMaxSide {
		errs = append(errs, errors.New("PREVIEW_MAX_SIDE должен быть не меньше THUMBNAIL_MAX_SIDE > 0"))
	}
	if c.Pipeline.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES должен быть положительным"))
	}

	return errors.Join(errs...)
}
