//go:build tesseract

package di

import (
	"log/slog"

	"github.com/GoArmGo/BibFinder/internal/adapter/fetch"
	"github.com/GoArmGo/BibFinder/internal/adapter/ocr/tesseract"
	"github.com/GoArmGo/BibFinder/internal/core/ports"
)

func newTesseractRecognizer(fetcher *fetch.Client, language string, logger *slog.Logger) (ports.BibRecognizer, error) {
	return tesseract.NewRecognizer(fetcher, language, logger), nil
}
