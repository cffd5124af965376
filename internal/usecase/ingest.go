package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/GoArmGo/BibFinder/internal/core/ports"
	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/GoArmGo/BibFinder/internal/messaging/payloads"
	"github.com/google/uuid"
)

// BibDetectionMode когда распознаётся номер для файлов без ручного номера
type BibDetectionMode string

const (
	BibDetectionInline   BibDetectionMode = "inline"
	BibDetectionDeferred BibDetectionMode = "deferred"
)

// IngestDeps внешние зависимости пайплайна загрузки.
// Bibs, Faces и Publisher могут быть nil - соответствующие шаги пропускаются.
type IngestDeps struct {
	Events     ports.EventStorage
	Photos     ports.PhotoStorage
	Files      ports.FileStorage
	Normalizer ports.Normalizer
	Watermark  ports.WatermarkRenderer
	Metadata   ports.MetadataExtractor
	Bibs       ports.BibRecognizer
	Faces      ports.FaceMatcher
	Publisher  ports.BibDetectionPublisher
}

type IngestOptions struct {
	CallTimeout time.Duration
	BibMode     BibDetectionMode
}

// Ingestor превращает загруженный файл в сохранённое фото
type Ingestor struct {
	deps   IngestDeps
	opts   IngestOptions
	logger *slog.Logger
	now    func() time.Time
}

func NewIngestor(deps IngestDeps, opts IngestOptions, logger *slog.Logger) *Ingestor {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallBudget
	}
	if opts.BibMode == "" {
		opts.BibMode = BibDetectionInline
	}
	return &Ingestor{
		deps:   deps,
		opts:   opts,
		logger: logger.With("component", "ingest"),
		now:    time.Now,
	}
}

// ingestState состояние одного прогона пайплайна
type ingestState struct {
	event       *domain.Event
	file        domain.UploadFile
	photo       *domain.Photo
	originalKey string
	written     []string
}

func (s *ingestState) writtenKeys() []string {
	return s.written
}

func (in *Ingestor) steps() []pipelineStep[*ingestState] {
	steps := []pipelineStep[*ingestState]{
		{name: StepUpload, policy: abortOnFailure, run: in.uploadOriginal},
		{name: StepNormalize, policy: abortOnFailure, run: in.normalize},
		{name: StepWatermark, policy: abortOnFailure, run: in.renderPreview},
		{name: StepMetadata, policy: continueOnFailure, run: in.extractMetadata},
		{name: StepBibDetection, policy: continueOnFailure, run: in.detectBibInline},
		{name: StepPersist, policy: abortOnFailure, run: in.persist},
		{name: StepFaceEnroll, policy: continueOnFailure, run: in.enrollFace},
	}
	if in.opts.BibMode == BibDetectionDeferred {
		steps = append(steps, pipelineStep[*ingestState]{name: StepBibDeferral, policy: continueOnFailure, run: in.deferBibDetection})
	}
	return steps
}

// IngestOne загружает один файл в событие
func (in *Ingestor) IngestOne(ctx context.Context, eventID, photographerID uuid.UUID, file domain.UploadFile) (*domain.Photo, []StepResult, error) {
	event, err := in.loadEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return in.ingest(ctx, event, photographerID, file)
}

// IngestBatch последовательно прогоняет файлы сессии загрузки.
// Фатальная ошибка одного файла не останавливает сессию.
// Отмена контекста проверяется только между файлами: начатый файл всегда доходит до конца.
func (in *Ingestor) IngestBatch(
	ctx context.Context,
	eventID, photographerID uuid.UUID,
	files []domain.UploadFile,
	onStatus func(domain.UploadResult),
) ([]domain.UploadResult, error) {
	event, err := in.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	notify := func(r domain.UploadResult) {
		if onStatus != nil {
			onStatus(r)
		}
	}

	results := make([]domain.UploadResult, len(files))
	for i, f := range files {
		results[i] = domain.UploadResult{Key: f.Key, FileName: f.FileName, Status: domain.UploadPending}
	}

	start := time.Now()
	succeeded := 0
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			in.logger.Warn("upload session cancelled", "event_id", eventID, "processed", i, "total", len(files))
			return results, err
		}

		results[i].Status = domain.UploadUploading
		notify(results[i])

		photo, _, err := in.ingest(context.WithoutCancel(ctx), event, photographerID, f)
		if err != nil {
			results[i].Status = domain.UploadError
			results[i].Error = err.Error()
			var stepErr *StepError
			if errors.As(err, &stepErr) {
				results[i].FailedStep = string(stepErr.Step)
			}
		} else {
			results[i].Status = domain.UploadSuccess
			results[i].Photo = photo
			succeeded++
		}
		notify(results[i])
	}

	in.logger.Info("upload session finished",
		"event_id", eventID,
		"total", len(files),
		"succeeded", succeeded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

// FailedFiles возвращает файлы, которые стоит отправить повторно
func FailedFiles(files []domain.UploadFile, results []domain.UploadResult) []domain.UploadFile {
	failed := make(map[string]struct{})
	for _, r := range results {
		if r.Status != domain.UploadSuccess {
			failed[r.Key] = struct{}{}
		}
	}

	var retry []domain.UploadFile
	for _, f := range files {
		if _, ok := failed[f.Key]; ok {
			retry = append(retry, f)
		}
	}
	return retry
}

func (in *Ingestor) loadEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	event, err := in.deps.Events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении события %s: %w", eventID, err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (in *Ingestor) ingest(ctx context.Context, event *domain.Event, photographerID uuid.UUID, file domain.UploadFile) (*domain.Photo, []StepResult, error) {
	now := in.now().UTC()
	state := &ingestState{
		event: event,
		file:  file,
		photo: &domain.Photo{
			ID:             uuid.New(),
			EventID:        event.ID,
			PhotographerID: photographerID,
			PriceCents:     event.PriceCents,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}

	logger := in.logger.With("event_id", event.ID, "file", file.FileName)
	results, err := runSteps(ctx, in.steps(), state, in.deps.Files, in.opts.CallTimeout, logger)
	if err != nil {
		return nil, results, err
	}

	logger.Info("photo ingested", "photo_id", state.photo.ID, "bib_number", derefOr(state.photo.BibNumber, ""))
	return state.photo, results, nil
}

func (in *Ingestor) uploadOriginal(ctx context.Context, s *ingestState) error {
	if len(s.file.Data) == 0 {
		return ErrEmptyFile
	}

	s.originalKey = originalKey(s.event.ID, s.file.FileName)
	// ключ запоминается до вызова: удаление несуществующего объекта безопасно
	s.written = append(s.written, s.originalKey)

	url, err := in.deps.Files.UploadFile(ctx, s.originalKey, bytes.NewReader(s.file.Data), contentTypeOr(s.file.ContentType))
	if err != nil {
		return err
	}
	s.photo.OriginalURL = url
	return nil
}

func (in *Ingestor) normalize(ctx context.Context, s *ingestState) error {
	return in.deps.Normalizer.Normalize(ctx, s.photo.OriginalURL, s.originalKey)
}

func (in *Ingestor) renderPreview(ctx context.Context, s *ingestState) error {
	preview, err := in.deps.Watermark.Render(ctx, s.photo.OriginalURL, s.event.ID, s.event.Name)
	if err != nil {
		return err
	}
	if preview == nil || preview.WatermarkURL == "" || preview.ThumbnailURL == "" {
		return errors.New("watermark service returned an incomplete preview")
	}

	for _, u := range []string{preview.WatermarkURL, preview.ThumbnailURL} {
		if key, ok := in.deps.Files.KeyFromURL(u); ok {
			s.written = append(s.written, key)
		}
	}
	s.photo.WatermarkURL = preview.WatermarkURL
	s.photo.ThumbnailURL = preview.ThumbnailURL
	return nil
}

func (in *Ingestor) extractMetadata(ctx context.Context, s *ingestState) error {
	meta, err := in.deps.Metadata.Extract(ctx, bytes.NewReader(s.file.Data))
	if err != nil {
		return err
	}
	if meta == nil {
		return nil
	}
	s.photo.TakenAt = meta.TakenAt
	s.photo.CameraMake = meta.CameraMake
	s.photo.CameraModel = meta.CameraModel
	return nil
}

func (in *Ingestor) detectBibInline(ctx context.Context, s *ingestState) error {
	if manual := NormalizeBib(s.file.BibNumber); manual != nil {
		s.photo.BibNumber = manual
		return nil
	}
	if in.opts.BibMode != BibDetectionInline || in.deps.Bibs == nil {
		return nil
	}

	bib, err := in.deps.Bibs.DetectBib(ctx, s.photo.OriginalURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBibDetectionFailed, err)
	}
	s.photo.BibNumber = NormalizeBib(bib)
	return nil
}

func (in *Ingestor) persist(ctx context.Context, s *ingestState) error {
	return in.deps.Photos.SavePhoto(ctx, s.photo)
}

func (in *Ingestor) enrollFace(ctx context.Context, s *ingestState) error {
	if in.deps.Faces == nil {
		return nil
	}
	return in.deps.Faces.Enroll(ctx, domain.FaceCollectionID(s.event.ID), s.photo.ID, s.photo.OriginalURL)
}

func (in *Ingestor) deferBibDetection(ctx context.Context, s *ingestState) error {
	if s.photo.HasBibNumber() || in.deps.Publisher == nil {
		return nil
	}
	return in.deps.Publisher.PublishBibDetection(ctx, payloads.BibDetectionPayload{
		PhotoID: s.photo.ID.String(),
		EventID: s.event.ID.String(),
	})
}

// NormalizeBib обрезает пробелы; пустой номер превращается в nil
func NormalizeBib(bib *string) *string {
	if bib == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*bib)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func originalKey(eventID uuid.UUID, fileName string) string {
	return fmt.Sprintf("events/%s/originals/%s%s", eventID, uuid.New(), fileExt(fileName))
}

func fileExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return ".jpg"
	}
	return ext
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
