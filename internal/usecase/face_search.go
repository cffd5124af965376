package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/GoArmGo/BibFinder/internal/core/ports"
	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
)

const tempProbePrefix = "tmp/face-probes"

// FaceSearchResult совпадения выше порога, по убыванию уверенности
type FaceSearchResult struct {
	Matches []domain.FaceMatch
}

func (r *FaceSearchResult) PhotoIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Matches))
	for _, m := range r.Matches {
		ids = append(ids, m.PhotoID)
	}
	return ids
}

func (r *FaceSearchResult) Empty() bool {
	return len(r.Matches) == 0
}

// FaceSearcher ищет фото по селфи. Селфи нигде не сохраняется:
// временный объект удаляется сразу после ответа сервиса, в том числе при ошибке.
type FaceSearcher struct {
	files       ports.FileStorage
	matcher     ports.FaceMatcher
	threshold   float64
	callTimeout time.Duration
	logger      *slog.Logger
}

func NewFaceSearcher(files ports.FileStorage, matcher ports.FaceMatcher, threshold float64, callTimeout time.Duration, logger *slog.Logger) *FaceSearcher {
	if callTimeout <= 0 {
		callTimeout = defaultCallBudget
	}
	return &FaceSearcher{
		files:       files,
		matcher:     matcher,
		threshold:   threshold,
		callTimeout: callTimeout,
		logger:      logger.With("component", "face_search"),
	}
}

// Search возвращает пустой результат, если лиц не найдено, и ErrFaceSearchFailed при сбое
func (s *FaceSearcher) Search(ctx context.Context, event *domain.Event, probe domain.UploadFile) (*FaceSearchResult, error) {
	if !event.SearchConfig.Selfie.Enabled {
		return nil, ErrFilterDisabled
	}
	if len(probe.Data) == 0 {
		return nil, ErrEmptyFile
	}

	start := time.Now()
	key := fmt.Sprintf("%s/%s%s", tempProbePrefix, uuid.New(), fileExt(probe.FileName))
	defer deleteTemp(ctx, s.files, key, s.callTimeout, s.logger)

	uploadCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	probeURL, err := s.files.UploadFile(uploadCtx, key, bytes.NewReader(probe.Data), contentTypeOr(probe.ContentType))
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: upload probe: %v", ErrFaceSearchFailed, err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	raw, err := s.matcher.Search(searchCtx, domain.FaceCollectionID(event.ID), probeURL)
	if err != nil {
		s.logger.Error("face search failed", "event_id", event.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrFaceSearchFailed, err)
	}

	result := &FaceSearchResult{Matches: s.rank(raw)}
	s.logger.Info("face search finished",
		"event_id", event.ID,
		"candidates", len(raw),
		"matches", len(result.Matches),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// rank отбрасывает совпадения ниже порога и дубли, сортирует по уверенности
func (s *FaceSearcher) rank(raw []domain.FaceMatch) []domain.FaceMatch {
	best := make(map[uuid.UUID]float64, len(raw))
	for _, m := range raw {
		if m.Confidence < s.threshold {
			continue
		}
		if c, ok := best[m.PhotoID]; !ok || m.Confidence > c {
			best[m.PhotoID] = m.Confidence
		}
	}

	matches := make([]domain.FaceMatch, 0, len(best))
	for id, c := range best {
		matches = append(matches, domain.FaceMatch{PhotoID: id, Confidence: c})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].PhotoID.String() < matches[j].PhotoID.String()
	})
	return matches
}
