//go:build tesseract

// Package tesseract распознаёт стартовые номера локально (cgo, libtesseract).
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/BibFinder/internal/adapter/ocr"
	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

const minOCRHeight = 1200

// Fetcher скачивает изображение по URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Recognizer распознаёт номер локально через tesseract.
// gosseract.Client не потокобезопасен, поэтому на каждый вызов создаётся свой.
type Recognizer struct {
	fetcher  Fetcher
	language string
	logger   *slog.Logger
}

func NewRecognizer(fetcher Fetcher, language string, logger *slog.Logger) *Recognizer {
	if language == "" {
		language = "eng"
	}
	return &Recognizer{
		fetcher:  fetcher,
		language: language,
		logger:   logger.With("component", "tesseract"),
	}
}

func (r *Recognizer) DetectBib(ctx context.Context, imageURL string) (*string, error) {
	start := time.Now()
	data, err := r.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("ocr: ошибка получения изображения: %w", err)
	}
	prepared, err := preprocess(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.language); err != nil {
		return nil, fmt.Errorf("ocr: ошибка установки языка: %w", err)
	}
	if err := client.SetWhitelist("0123456789"); err != nil {
		return nil, fmt.Errorf("ocr: ошибка установки whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("ocr: ошибка установки режима сегментации: %w", err)
	}
	if err := client.SetImageFromBytes(prepared); err != nil {
		return nil, fmt.Errorf("ocr: ошибка передачи изображения: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("ocr: ошибка распознавания: %w", err)
	}

	bib := ocr.PickBibNumber(text)
	r.logger.Debug("tesseract finished",
		"found", bib != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return bib, nil
}

// preprocess переводит в оттенки серого, повышает контраст и резкость,
// мелкие изображения увеличиваются. Результат в PNG.
func preprocess(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("ocr: ошибка декодирования изображения: %w", err)
	}

	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < minOCRHeight {
		gray = imaging.Resize(gray, 0, minOCRHeight, imaging.Lanczos)
	}
	gray = imaging.AdjustContrast(gray, 30)
	gray = imaging.Sharpen(gray, 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("ocr: ошибка кодирования PNG: %w", err)
	}
	return buf.Bytes(), nil
}
