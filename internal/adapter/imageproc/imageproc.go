// Package imageproc выполняет обработку изображений внутри процесса:
// исправление ориентации, превью с водяным знаком и чтение EXIF.
package imageproc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// Fetcher скачивает объект по URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ObjectWriter запись и удаление объектов в хранилище
type ObjectWriter interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

const jpegContentType = "image/jpeg"

func decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imageproc: ошибка декодирования изображения: %w", err)
	}
	return img, nil
}

func encodeJPEG(img image.Image, quality int) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("imageproc: ошибка кодирования JPEG: %w", err)
	}
	return &buf, nil
}
