package usecase

import (
	"context"
	"log/slog"

	"github.com/GoArmGo/BibFinder/internal/core/ports"
	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
)

// ResolvedURLs какие URL фото можно показать конкретному зрителю
type ResolvedURLs struct {
	DisplayURL  string
	OriginalURL *string
	EditedURL   *string
	Purchased   bool
}

// AccessResolver решает, отдавать ли оригинал или только превью.
// Решение принимается на каждый запрос и не кэшируется между зрителями.
// Ошибка проверки покупки означает "только превью".
type AccessResolver struct {
	purchases ports.PurchaseStorage
	logger    *slog.Logger
}

func NewAccessResolver(purchases ports.PurchaseStorage, logger *slog.Logger) *AccessResolver {
	return &AccessResolver{
		purchases: purchases,
		logger:    logger.With("component", "access"),
	}
}

// Resolve проверяет одно фото
func (r *AccessResolver) Resolve(ctx context.Context, viewer domain.Viewer, photo *domain.Photo, event *domain.Event) ResolvedURLs {
	if viewer.IsAnonymous() || event == nil || photo.EventID != event.ID {
		return previewOnly(photo)
	}

	owned, err := r.purchases.HasCompletedPurchase(ctx, photo.ID, viewer)
	if err != nil {
		r.logger.Warn("purchase lookup failed, serving preview", "photo_id", photo.ID, "error", err)
		return previewOnly(photo)
	}
	if !owned {
		return previewOnly(photo)
	}
	return unlocked(photo)
}

// ResolveAll проверяет набор фото одного события одним запросом покупок
func (r *AccessResolver) ResolveAll(ctx context.Context, viewer domain.Viewer, event *domain.Event, photos []domain.Photo) map[uuid.UUID]ResolvedURLs {
	resolved := make(map[uuid.UUID]ResolvedURLs, len(photos))

	var owned map[uuid.UUID]struct{}
	if !viewer.IsAnonymous() && event != nil && len(photos) > 0 {
		ids, err := r.purchases.ListCompletedPhotoIDs(ctx, event.ID, viewer)
		if err != nil {
			r.logger.Warn("purchase lookup failed, serving previews", "event_id", event.ID, "error", err)
		} else {
			owned = ids
		}
	}

	for i := range photos {
		p := &photos[i]
		_, ok := owned[p.ID]
		if ok && event != nil && p.EventID == event.ID {
			resolved[p.ID] = unlocked(p)
		} else {
			resolved[p.ID] = previewOnly(p)
		}
	}
	return resolved
}

func previewOnly(p *domain.Photo) ResolvedURLs {
	return ResolvedURLs{DisplayURL: p.WatermarkURL}
}

func unlocked(p *domain.Photo) ResolvedURLs {
	original := p.OriginalURL
	res := ResolvedURLs{
		DisplayURL:  original,
		OriginalURL: &original,
		Purchased:   true,
	}
	if p.EditedURL != nil && *p.EditedURL != "" {
		edited := *p.EditedURL
		res.EditedURL = &edited
		res.DisplayURL = edited
	}
	return res
}
