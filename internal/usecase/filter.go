package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
)

// FilterKind имя фильтра поиска, совпадает с ключами search_config
type FilterKind string

const (
	FilterBib       FilterKind = "bib"
	FilterSelfie    FilterKind = "selfie"
	FilterDate      FilterKind = "date"
	FilterTime      FilterKind = "time"
	FilterMetadata  FilterKind = "metadata"
	FilterExactTime FilterKind = "exact_time"
)

// Date календарный день без часового пояса
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseDate(s string) (*Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("usecase: неверная дата %q: %w", s, err)
	}
	return &Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) matches(t time.Time) bool {
	y, m, day := t.Date()
	return y == d.Year && m == d.Month && day == d.Day
}

// TimeOfDay время суток в секундах от полуночи
type TimeOfDay int

// ParseTimeOfDay принимает HH:MM или HH:MM:SS
func ParseTimeOfDay(s string) (*TimeOfDay, error) {
	s = strings.TrimSpace(s)
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = time.TimeOnly
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return nil, fmt.Errorf("usecase: неверное время %q: %w", s, err)
	}
	tod := timeOfDay(t)
	return &tod, nil
}

func timeOfDay(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(h*3600 + m*60 + s)
}

func (t TimeOfDay) String() string {
	secs := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// FaceFilter набор фото, найденных поиском по лицу
type FaceFilter struct {
	PhotoIDs []uuid.UUID
}

// FilterQuery значения фильтров от покупателя. Пустое поле - фильтр не задан.
type FilterQuery struct {
	Bib      string
	Date     *Date
	TimeFrom *TimeOfDay
	TimeTo   *TimeOfDay
	Face     *FaceFilter
}

// FilterResult отфильтрованный набор и счётчики до и после фильтрации
type FilterResult struct {
	Photos        []domain.Photo
	FilteredCount int
	TotalCount    int
	Applied       []FilterKind
	Ignored       []FilterKind
}

// ActiveFilter включённый фильтр и признак "развёрнут по умолчанию"
type ActiveFilter struct {
	Kind             FilterKind `json:"kind"`
	VisibleByDefault bool       `json:"visible_by_default"`
}

// ActiveFilters список доступных фильтров события в фиксированном порядке
func ActiveFilters(cfg domain.SearchConfig) []ActiveFilter {
	settings := []struct {
		kind FilterKind
		s    domain.FilterSetting
	}{
		{FilterBib, cfg.Bib},
		{FilterSelfie, cfg.Selfie},
		{FilterDate, cfg.Date},
		{FilterTime, cfg.Time},
		{FilterMetadata, cfg.Metadata},
		{FilterExactTime, cfg.ExactTime},
	}

	active := make([]ActiveFilter, 0, len(settings))
	for _, it := range settings {
		if it.s.Enabled {
			active = append(active, ActiveFilter{Kind: it.kind, VisibleByDefault: it.s.VisibleByDefault})
		}
	}
	return active
}

// ApplyFilters сужает набор фото события.
// Порядок: сначала по убыванию taken_at, фото без даты в конце, при равенстве исходный порядок.
// Набор из поиска по лицу применяется первым, остальные предикаты объединяются через И.
// Значение выключенного фильтра не применяется и попадает в Ignored.
func ApplyFilters(photos []domain.Photo, cfg domain.SearchConfig, q FilterQuery) (*FilterResult, error) {
	bib := strings.TrimSpace(q.Bib)
	if q.Face != nil && bib != "" {
		return nil, ErrExclusiveEntryPoints
	}
	if q.TimeFrom != nil && q.TimeTo != nil && *q.TimeFrom > *q.TimeTo {
		return nil, ErrInvalidTimeRange
	}

	res := &FilterResult{TotalCount: len(photos)}
	var preds []func(*domain.Photo) bool

	var faceSet map[uuid.UUID]struct{}
	if q.Face != nil {
		if cfg.Selfie.Enabled {
			faceSet = make(map[uuid.UUID]struct{}, len(q.Face.PhotoIDs))
			for _, id := range q.Face.PhotoIDs {
				faceSet[id] = struct{}{}
			}
			res.Applied = append(res.Applied, FilterSelfie)
		} else {
			res.Ignored = append(res.Ignored, FilterSelfie)
		}
	}

	if bib != "" {
		if cfg.Bib.Enabled {
			preds = append(preds, func(p *domain.Photo) bool {
				return p.BibNumber != nil && strings.Contains(*p.BibNumber, bib)
			})
			res.Applied = append(res.Applied, FilterBib)
		} else {
			res.Ignored = append(res.Ignored, FilterBib)
		}
	}

	if q.Date != nil {
		if cfg.Date.Enabled {
			day := *q.Date
			preds = append(preds, func(p *domain.Photo) bool {
				return p.TakenAt != nil && day.matches(*p.TakenAt)
			})
			res.Applied = append(res.Applied, FilterDate)
		} else {
			res.Ignored = append(res.Ignored, FilterDate)
		}
	}

	if q.TimeFrom != nil || q.TimeTo != nil {
		if cfg.Time.Enabled {
			from, to := q.TimeFrom, q.TimeTo
			preds = append(preds, func(p *domain.Photo) bool {
				if p.TakenAt == nil {
					return false
				}
				tod := timeOfDay(*p.TakenAt)
				if from != nil && tod < *from {
					return false
				}
				if to != nil && tod > *to {
					return false
				}
				return true
			})
			res.Applied = append(res.Applied, FilterTime)
		} else {
			res.Ignored = append(res.Ignored, FilterTime)
		}
	}

	matched := make([]domain.Photo, 0, len(photos))
	for i := range photos {
		p := &photos[i]
		if faceSet != nil {
			if _, ok := faceSet[p.ID]; !ok {
				continue
			}
		}
		if matchAll(preds, p) {
			matched = append(matched, *p)
		}
	}

	SortByCapture(matched)
	res.Photos = matched
	res.FilteredCount = len(matched)
	return res, nil
}

func matchAll(preds []func(*domain.Photo) bool, p *domain.Photo) bool {
	for _, pred := range preds {
		if !pred(p) {
			return false
		}
	}
	return true
}

// SortByCapture сортирует по убыванию taken_at, фото без даты в конце
func SortByCapture(photos []domain.Photo) {
	sort.SliceStable(photos, func(i, j int) bool {
		a, b := photos[i].TakenAt, photos[j].TakenAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
