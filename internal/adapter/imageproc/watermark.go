package imageproc

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"strings"
	"time"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const defaultLabel = "PREVIEW"

// WatermarkOptions размеры и параметры превью
type WatermarkOptions struct {
	PreviewMaxSide   int
	ThumbnailMaxSide int
	JPEGQuality      int
	Opacity          float64
}

// WatermarkRenderer строит публичное превью с повторяющейся подписью события
// и миниатюру из этого превью
type WatermarkRenderer struct {
	fetcher Fetcher
	files   ObjectWriter
	opts    WatermarkOptions
	logger  *slog.Logger
}

func NewWatermarkRenderer(fetcher Fetcher, files ObjectWriter, opts WatermarkOptions, logger *slog.Logger) *WatermarkRenderer {
	return &WatermarkRenderer{
		fetcher: fetcher,
		files:   files,
		opts:    opts,
		logger:  logger.With("component", "watermark"),
	}
}

// Render загружает превью и миниатюру. Если миниатюра не загрузилась,
// превью удаляется до возврата ошибки.
func (w *WatermarkRenderer) Render(ctx context.Context, imageURL string, eventID uuid.UUID, eventLabel string) (*domain.Preview, error) {
	start := time.Now()
	data, err := w.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("imageproc: ошибка получения оригинала: %w", err)
	}
	src, err := decode(data)
	if err != nil {
		return nil, err
	}

	preview := imaging.Fit(src, w.opts.PreviewMaxSide, w.opts.PreviewMaxSide, imaging.Lanczos)
	stampLabel(preview, eventLabel, w.opts.Opacity)
	thumb := imaging.Fit(preview, w.opts.ThumbnailMaxSide, w.opts.ThumbnailMaxSide, imaging.Lanczos)

	name := uuid.New().String() + ".jpg"
	previewKey := fmt.Sprintf("events/%s/watermarks/%s", eventID, name)
	thumbKey := fmt.Sprintf("events/%s/thumbnails/%s", eventID, name)

	previewBuf, err := encodeJPEG(preview, w.opts.JPEGQuality)
	if err != nil {
		return nil, err
	}
	thumbBuf, err := encodeJPEG(thumb, w.opts.JPEGQuality)
	if err != nil {
		return nil, err
	}

	previewURL, err := w.files.UploadFile(ctx, previewKey, previewBuf, jpegContentType)
	if err != nil {
		return nil, fmt.Errorf("imageproc: ошибка загрузки превью: %w", err)
	}
	thumbURL, err := w.files.UploadFile(ctx, thumbKey, thumbBuf, jpegContentType)
	if err != nil {
		if delErr := w.files.DeleteFile(context.WithoutCancel(ctx), previewKey); delErr != nil {
			w.logger.Error("failed to delete orphaned preview", "key", previewKey, "error", delErr)
		}
		return nil, fmt.Errorf("imageproc: ошибка загрузки миниатюры: %w", err)
	}

	w.logger.Debug("preview rendered",
		"event_id", eventID,
		"width", preview.Bounds().Dx(),
		"height", preview.Bounds().Dy(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &domain.Preview{WatermarkURL: previewURL, ThumbnailURL: thumbURL}, nil
}

// stampLabel рисует подпись сеткой по всему изображению
func stampLabel(dst *image.NRGBA, label string, opacity float64) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		label = defaultLabel
	}

	b := dst.Bounds()
	tile := renderLabel(label, b.Dx()/3)
	tw, th := tile.Bounds().Dx(), tile.Bounds().Dy()
	if tw == 0 || th == 0 {
		return
	}

	mask := image.NewUniform(color.Alpha{A: uint8(opacity * 255)})
	stepX, stepY := tw+tw/2, th*3
	for row, y := 0, b.Min.Y+th; y < b.Max.Y; row, y = row+1, y+stepY {
		offset := 0
		if row%2 == 1 {
			offset = stepX / 2
		}
		for x := b.Min.X - offset; x < b.Max.X; x += stepX {
			r := image.Rect(x, y, x+tw, y+th)
			draw.DrawMask(dst, r, tile, image.Point{}, mask, image.Point{}, draw.Over)
		}
	}
}

// renderLabel рисует текст растровым шрифтом и растягивает до нужной ширины
func renderLabel(label string, targetWidth int) *image.NRGBA {
	face := basicfont.Face7x13
	width := font.MeasureString(face, label).Ceil()
	height := face.Metrics().Height.Ceil()

	canvas := image.NewNRGBA(image.Rect(0, 0, width+2, height+2))
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(1, 1+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(label)

	if targetWidth <= canvas.Bounds().Dx() {
		return canvas
	}
	return imaging.Resize(canvas, targetWidth, 0, imaging.NearestNeighbor)
}
