package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/BibFinder/internal/adapter/facematch"
	"github.com/GoArmGo/BibFinder/internal/adapter/fetch"
	"github.com/GoArmGo/BibFinder/internal/adapter/imageproc"
	"github.com/GoArmGo/BibFinder/internal/adapter/ocr"
	"github.com/GoArmGo/BibFinder/internal/adapter/storage/minio"
	"github.com/GoArmGo/BibFinder/internal/app"
	"github.com/GoArmGo/BibFinder/internal/config"
	"github.com/GoArmGo/BibFinder/internal/core/ports"
	"github.com/GoArmGo/BibFinder/internal/database/client"
	"github.com/GoArmGo/BibFinder/internal/database/postgres"
	"github.com/GoArmGo/BibFinder/internal/database/storage"
	"github.com/GoArmGo/BibFinder/internal/handler"
	"github.com/GoArmGo/BibFinder/internal/logger"
	"github.com/GoArmGo/BibFinder/internal/rabbitmq"
	"github.com/GoArmGo/BibFinder/internal/usecase"
)

// maxConcurrentSessions одновременных сессий загрузки и распознавания
const maxConcurrentSessions = 5

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp(ctx context.Context) (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// ресурсы, открытые до ошибки сборки, закрываются сразу
	type resource struct {
		name  string
		close func() error
	}
	var resources []resource
	fail := func(err error) (*app.App, error) {
		for i := len(resources) - 1; i >= 0; i-- {
			if cerr := resources[i].close(); cerr != nil {
				slogger.Warn("failed to release resource", "resource", resources[i].name, "error", cerr)
			}
		}
		return nil, err
	}

	// 2. PostgreSQL: sqlx + миграции, gorm поверх того же пула
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return nil, err
	}
	resources = append(resources, resource{"postgres", dbClient.Close})

	gormDB, err := postgres.OpenGorm(dbClient.DB, slogger)
	if err != nil {
		return fail(err)
	}

	// 3. Хранилища
	photoStorage := storage.NewPhotoStorage(dbClient.DB, slogger)
	eventStorage := postgres.NewGormEventStorage(gormDB, slogger)
	purchaseStorage := postgres.NewGormPurchaseStorage(gormDB, slogger)

	// 4. Файловое хранилище и внешние сервисы
	fileStorage, err := minio.NewMinioClient(ctx, cfg, slogger)
	if err != nil {
		return fail(err)
	}
	fetcher := fetch.NewClient(cfg.Pipeline.MaxUploadBytes, fileStorage)

	recognizer, err := newBibRecognizer(cfg, fetcher, slogger)
	if err != nil {
		return fail(err)
	}

	var faces ports.FaceMatcher
	if cfg.Face.ServiceURL != "" {
		faces = facematch.NewClient(cfg.Face.ServiceURL, cfg.Face.APIKey, slogger)
	} else {
		slogger.Warn("FACE_SERVICE_URL is not set, face enrollment and selfie search are unavailable")
	}

	// 5. RabbitMQ: публикация в режиме deferred, потребление в воркере
	rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
	if err != nil {
		return fail(err)
	}
	resources = append(resources, resource{"rabbitmq", func() error { rabbitMQClient.Close(); return nil }})

	// 6. Бизнес-логика
	callTimeout := cfg.Pipeline.ExternalCallTimeout
	bibMode := usecase.BibDetectionMode(cfg.Pipeline.BibDetectionMode)

	deps := usecase.IngestDeps{
		Events:     eventStorage,
		Photos:     photoStorage,
		Files:      fileStorage,
		Normalizer: imageproc.NewNormalizer(fetcher, fileStorage, cfg.Image.JPEGQuality, slogger),
		Watermark: imageproc.NewWatermarkRenderer(fetcher, fileStorage, imageproc.WatermarkOptions{
			PreviewMaxSide:   cfg.Image.PreviewMaxSide,
			ThumbnailMaxSide: cfg.Image.ThumbnailMaxSide,
			JPEGQuality:      cfg.Image.JPEGQuality,
			Opacity:          cfg.Image.WatermarkOpacity,
		}, slogger),
		Metadata: imageproc.NewMetadataExtractor(),
		Bibs:     recognizer,
		Faces:    faces,
	}
	if bibMode == usecase.BibDetectionDeferred {
		deps.Publisher = rabbitMQClient
	}

	ingestor := usecase.NewIngestor(deps, usecase.IngestOptions{CallTimeout: callTimeout, BibMode: bibMode}, slogger)
	bibScanner := usecase.NewBibScanner(fileStorage, recognizer, callTimeout, slogger)
	bibDetector := usecase.NewBibDetector(photoStorage, recognizer, callTimeout, slogger)
	photoUseCase := usecase.NewPhotoUseCase(photoStorage, fileStorage, callTimeout, slogger)

	var searcher *usecase.FaceSearcher
	if faces != nil {
		searcher = usecase.NewFaceSearcher(fileStorage, faces, cfg.Face.MatchThreshold, callTimeout, slogger)
	}
	gallery := usecase.NewGallery(eventStorage, photoStorage, usecase.NewAccessResolver(purchaseStorage, slogger), searcher, slogger)

	// 7. HTTP API
	maxBytes := cfg.Pipeline.MaxUploadBytes
	router := handler.NewRouter(handler.Handlers{
		Upload:  handler.NewUploadHandler(ingestor, bibScanner, make(chan struct{}, maxConcurrentSessions), maxBytes, slogger),
		Gallery: handler.NewGalleryHandler(gallery, maxBytes, slogger),
		Photo:   handler.NewPhotoHandler(photoUseCase, maxBytes, slogger),
	}, cfg.RequestTimeout, slogger)

	// 8. Сборка итогового приложения
	application := app.NewApp(cfg, slogger, router, bibDetector, rabbitMQClient)
	for _, r := range resources {
		application.OnShutdown(r.name, r.close)
	}

	slogger.Info("all dependencies initialized",
		"bib_detection_mode", bibMode,
		"ocr_provider", cfg.OCR.Provider,
	)
	return application, nil
}

// newBibRecognizer выбирает OCR по OCR_PROVIDER
func newBibRecognizer(cfg *config.Config, fetcher *fetch.Client, logger *slog.Logger) (ports.BibRecognizer, error) {
	switch cfg.OCR.Provider {
	case "http":
		return ocr.NewClient(cfg.OCR.ServiceURL, cfg.OCR.APIKey, logger), nil
	case "tesseract":
		return newTesseractRecognizer(fetcher, cfg.OCR.Language, logger)
	default:
		return nil, fmt.Errorf("неизвестный OCR_PROVIDER: %s", cfg.OCR.Provider)
	}
}
