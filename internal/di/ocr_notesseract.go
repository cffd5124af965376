//go:build !tesseract

package di

import (
	"errors"
	"log/slog"

	"github.com/GoArmGo/BibFinder/internal/adapter/fetch"
	"github.com/GoArmGo/BibFinder/internal/core/ports"
)

func newTesseractRecognizer(*fetch.Client, string, *slog.Logger) (ports.BibRecognizer, error) {
	return nil, errors.New("OCR_PROVIDER=tesseract требует сборки с тегом tesseract")
}
