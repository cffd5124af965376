package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/BibFinder/internal/core/ports"
	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
)

const tempScanPrefix = "tmp/bib-scan"

// BibScanner предлагает номера для ещё не загруженных файлов.
// Каждый файл временно кладётся в хранилище только ради URL для OCR.
type BibScanner struct {
	files       ports.FileStorage
	recognizer  ports.BibRecognizer
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewBibScanner(files ports.FileStorage, recognizer ports.BibRecognizer, callTimeout time.Duration, logger *slog.Logger) *BibScanner {
	if callTimeout <= 0 {
		callTimeout = defaultCallBudget
	}
	return &BibScanner{
		files:       files,
		recognizer:  recognizer,
		callTimeout: callTimeout,
		logger:      logger.With("component", "bib_scan"),
	}
}

// ScanPending обрабатывает файлы по одному и сообщает прогресс после каждого.
// Файлы с уже заданным номером не отправляются в OCR, но учитываются в прогрессе.
// Отмена проверяется между файлами.
func (s *BibScanner) ScanPending(ctx context.Context, files []domain.UploadFile, progress func(domain.ScanProgress)) ([]domain.BibSuggestion, error) {
	total := len(files)
	suggestions := make([]domain.BibSuggestion, 0, total)

	start := time.Now()
	detected := 0
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("bib scan cancelled", "processed", i, "total", total)
			return suggestions, err
		}

		suggestion := domain.BibSuggestion{Key: f.Key}
		if existing := NormalizeBib(f.BibNumber); existing != nil {
			suggestion.BibNumber = existing
			suggestion.Skipped = true
		} else {
			bib, err := s.scanOne(context.WithoutCancel(ctx), f)
			if err != nil {
				s.logger.Warn("bib detection failed", "file", f.FileName, "error", err)
				suggestion.Error = err.Error()
			} else {
				suggestion.BibNumber = bib
				if bib != nil {
					detected++
				}
			}
		}
		suggestions = append(suggestions, suggestion)

		if progress != nil {
			progress(domain.ScanProgress{Current: i + 1, Total: total})
		}
	}

	s.logger.Info("bib scan finished",
		"total", total,
		"detected", detected,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return suggestions, nil
}

// scanOne загружает временный объект, вызывает OCR и всегда удаляет объект
func (s *BibScanner) scanOne(ctx context.Context, f domain.UploadFile) (*string, error) {
	if len(f.Data) == 0 {
		return nil, ErrEmptyFile
	}

	key := fmt.Sprintf("%s/%s%s", tempScanPrefix, uuid.New(), fileExt(f.FileName))
	defer deleteTemp(ctx, s.files, key, s.callTimeout, s.logger)

	uploadCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	url, err := s.files.UploadFile(uploadCtx, key, bytes.NewReader(f.Data), contentTypeOr(f.ContentType))
	cancel()
	if err != nil {
		return nil, fmt.Errorf("upload temporary object: %w", err)
	}

	ocrCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	bib, err := s.recognizer.DetectBib(ocrCtx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBibDetectionFailed, err)
	}
	return NormalizeBib(bib), nil
}

func contentTypeOr(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
