package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/BibFinder/internal/core/ports"
	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
)

// GalleryPage то, что видит покупатель на странице события
type GalleryPage struct {
	Photos        []domain.PhotoView `json:"photos"`
	FilteredCount int                `json:"filtered_count"`
	TotalCount    int                `json:"total_count"`
	Applied       []FilterKind       `json:"applied_filters"`
	Ignored       []FilterKind       `json:"ignored_filters,omitempty"`
	Filters       []ActiveFilter     `json:"filters"`
	Message       string             `json:"message,omitempty"`
}

// Gallery собирает фильтрацию, поиск по лицу и проверку доступа в один запрос
type Gallery struct {
	events   ports.EventStorage
	photos   ports.PhotoStorage
	access   *AccessResolver
	searcher *FaceSearcher
	logger   *slog.Logger
}

func NewGallery(events ports.EventStorage, photos ports.PhotoStorage, access *AccessResolver, searcher *FaceSearcher, logger *slog.Logger) *Gallery {
	return &Gallery{
		events:   events,
		photos:   photos,
		access:   access,
		searcher: searcher,
		logger:   logger.With("component", "gallery"),
	}
}

// Browse возвращает фото события с учётом фильтров и прав зрителя
func (g *Gallery) Browse(ctx context.Context, eventID uuid.UUID, viewer domain.Viewer, q FilterQuery) (*GalleryPage, error) {
	event, err := g.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return g.render(ctx, event, viewer, q)
}

// BrowseByFace ищет фото по селфи. Номер в запросе сбрасывается:
// поиск по лицу и поиск по номеру - взаимоисключающие способы найти себя.
// Ноль совпадений - пустая страница с сообщением, сбой сервиса - ErrFaceSearchFailed.
func (g *Gallery) BrowseByFace(ctx context.Context, eventID uuid.UUID, viewer domain.Viewer, probe domain.UploadFile, q FilterQuery) (*GalleryPage, error) {
	event, err := g.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if g.searcher == nil {
		return nil, fmt.Errorf("%w: face service is not configured", ErrFilterDisabled)
	}
	found, err := g.searcher.Search(ctx, event, probe)
	if err != nil {
		return nil, err
	}

	q.Bib = ""
	q.Face = &FaceFilter{PhotoIDs: found.PhotoIDs()}
	page, err := g.render(ctx, event, viewer, q)
	if err != nil {
		return nil, err
	}
	if found.Empty() {
		page.Message = "no photos found for this face"
	}
	return page, nil
}

// ActiveFilters фильтры, доступные на странице события
func (g *Gallery) ActiveFilters(ctx context.Context, eventID uuid.UUID) ([]ActiveFilter, error) {
	event, err := g.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return ActiveFilters(event.SearchConfig), nil
}

func (g *Gallery) loadEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	event, err := g.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении события %s: %w", eventID, err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (g *Gallery) render(ctx context.Context, event *domain.Event, viewer domain.Viewer, q FilterQuery) (*GalleryPage, error) {
	photos, err := g.photos.ListPhotosByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка при получении фото события %s: %w", event.ID, err)
	}

	filtered, err := ApplyFilters(photos, event.SearchConfig, q)
	if err != nil {
		return nil, err
	}

	resolved := g.access.ResolveAll(ctx, viewer, event, filtered.Photos)
	views := make([]domain.PhotoView, 0, len(filtered.Photos))
	for i := range filtered.Photos {
		p := &filtered.Photos[i]
		views = append(views, toView(p, resolved[p.ID], event.SearchConfig))
	}

	if len(filtered.Ignored) > 0 {
		g.logger.Debug("disabled filters ignored", "event_id", event.ID, "ignored", filtered.Ignored)
	}

	return &GalleryPage{
		Photos:        views,
		FilteredCount: filtered.FilteredCount,
		TotalCount:    filtered.TotalCount,
		Applied:       filtered.Applied,
		Ignored:       filtered.Ignored,
		Filters:       ActiveFilters(event.SearchConfig),
	}, nil
}

// toView применяет настройки отображения события:
// без metadata камера скрыта, без exact_time от taken_at остаётся только день
func toView(p *domain.Photo, urls ResolvedURLs, cfg domain.SearchConfig) domain.PhotoView {
	view := domain.PhotoView{
		ID:           p.ID,
		DisplayURL:   urls.DisplayURL,
		ThumbnailURL: p.ThumbnailURL,
		OriginalURL:  urls.OriginalURL,
		EditedURL:    urls.EditedURL,
		BibNumber:    p.BibNumber,
		Rotation:     p.Rotation,
		PriceCents:   p.PriceCents,
	}
	if cfg.Metadata.Enabled {
		view.CameraMake = p.CameraMake
		view.CameraModel = p.CameraModel
	}
	if p.TakenAt != nil {
		t := *p.TakenAt
		if !cfg.ExactTime.Enabled {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}
		view.TakenAt = &t
	}
	return view
}
