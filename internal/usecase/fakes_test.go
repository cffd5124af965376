package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/GoArmGo/BibFinder/internal/messaging/payloads"
	"github.com/google/uuid"
)

const fakeBaseURL = "https://blobs.test/bucket/"

var errBoom = errors.New("boom")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

// memFiles хранилище объектов в памяти
type memFiles struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   []string
	attempts  int
	failOn    func(attempt int) error
	deleteErr error
}

func newMemFiles() *memFiles {
	return &memFiles{objects: make(map[string][]byte)}
}

func (m *memFiles) UploadFile(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failOn != nil {
		if err := m.failOn(m.attempts); err != nil {
			return "", err
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	m.uploads = append(m.uploads, key)
	return fakeBaseURL + key, nil
}

func (m *memFiles) DeleteFile(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, key)
	return nil
}

func (m *memFiles) DeleteFiles(ctx context.Context, keys []string) error {
	for _, k := range keys {
		if err := m.DeleteFile(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (m *memFiles) KeyFromURL(u string) (string, bool) {
	if !strings.HasPrefix(u, fakeBaseURL) {
		return "", false
	}
	return strings.TrimPrefix(u, fakeBaseURL), true
}

func (m *memFiles) put(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = []byte("x")
	return fakeBaseURL + key
}

func (m *memFiles) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *memFiles) keysWithPrefix(prefix string) []string {
	var out []string
	for _, k := range m.keys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

// memPhotos хранилище фото в памяти
type memPhotos struct {
	mu      sync.Mutex
	photos  map[uuid.UUID]*domain.Photo
	order   []uuid.UUID
	saveErr error
	listErr error
}

func newMemPhotos(photos ...domain.Photo) *memPhotos {
	m := &memPhotos{photos: make(map[uuid.UUID]*domain.Photo)}
	for i := range photos {
		p := photos[i]
		m.photos[p.ID] = &p
		m.order = append(m.order, p.ID)
	}
	return m
}

func (m *memPhotos) SavePhoto(_ context.Context, p *domain.Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *p
	m.photos[p.ID] = &cp
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memPhotos) GetPhotoByID(_ context.Context, id uuid.UUID) (*domain.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memPhotos) ListPhotosByEvent(_ context.Context, eventID uuid.UUID) ([]domain.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Photo
	for _, id := range m.order {
		if p, ok := m.photos[id]; ok && p.EventID == eventID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPhotos) UpdateBibNumber(_ context.Context, id uuid.UUID, bib *string) error {
	return m.update(id, func(p *domain.Photo) { p.BibNumber = bib })
}

func (m *memPhotos) UpdateRotation(_ context.Context, id uuid.UUID, rotation int) error {
	return m.update(id, func(p *domain.Photo) { p.Rotation = rotation })
}

func (m *memPhotos) UpdateEditedURL(_ context.Context, id uuid.UUID, u *string) error {
	return m.update(id, func(p *domain.Photo) { p.EditedURL = u })
}

func (m *memPhotos) update(id uuid.UUID, fn func(*domain.Photo)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if p, ok := m.photos[id]; ok {
		fn(p)
	}
	return nil
}

func (m *memPhotos) DeletePhoto(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.photos, id)
	return nil
}

func (m *memPhotos) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.photos)
}

type memEvents struct {
	events map[uuid.UUID]*domain.Event
}

func newMemEvents(events ...*domain.Event) *memEvents {
	m := &memEvents{events: make(map[uuid.UUID]*domain.Event)}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

func (m *memEvents) GetEventByID(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	return m.events[id], nil
}

// memPurchases завершённые и незавершённые покупки в памяти
type memPurchases struct {
	purchases []domain.Purchase
	err       error
}

func (m *memPurchases) HasCompletedPurchase(_ context.Context, photoID uuid.UUID, viewer domain.Viewer) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, p := range m.purchases {
		if p.Covers(photoID) && p.Unlocks(viewer) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPurchases) ListCompletedPhotoIDs(_ context.Context, eventID uuid.UUID, viewer domain.Viewer) (map[uuid.UUID]struct{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make(map[uuid.UUID]struct{})
	for _, p := range m.purchases {
		if p.EventID != eventID || !p.Unlocks(viewer) {
			continue
		}
		for _, it := range p.Items {
			ids[it.PhotoID] = struct{}{}
		}
	}
	return ids, nil
}

type stubNormalizer struct{ err error }

func (s stubNormalizer) Normalize(context.Context, string, string) error { return s.err }

// stubWatermark кладёт превью и миниатюру в то же хранилище
type stubWatermark struct {
	files *memFiles
	err   error
}

func (s stubWatermark) Render(_ context.Context, _ string, eventID uuid.UUID, _ string) (*domain.Preview, error) {
	if s.err != nil {
		return nil, s.err
	}
	id := uuid.New()
	return &domain.Preview{
		WatermarkURL: s.files.put("events/" + eventID.String() + "/watermarks/" + id.String() + ".jpg"),
		ThumbnailURL: s.files.put("events/" + eventID.String() + "/thumbnails/" + id.String() + ".jpg"),
	}, nil
}

type stubMetadata struct {
	meta *domain.CaptureMetadata
	err  error
}

func (s stubMetadata) Extract(context.Context, io.Reader) (*domain.CaptureMetadata, error) {
	return s.meta, s.err
}

// stubBibs возвращает номер по URL; urls фиксирует вызовы
type stubBibs struct {
	mu    sync.Mutex
	bib   *string
	err   error
	urls  []string
	errOn func(call int) error
}

func (s *stubBibs) DetectBib(_ context.Context, imageURL string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, imageURL)
	if s.errOn != nil {
		if err := s.errOn(len(s.urls)); err != nil {
			return nil, err
		}
	}
	return s.bib, s.err
}

func (s *stubBibs) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

type stubFaces struct {
	enrolled  []uuid.UUID
	matches   []domain.FaceMatch
	enrollErr error
	searchErr error
	probes    []string
}

func (s *stubFaces) Enroll(_ context.Context, _ string, photoID uuid.UUID, _ string) error {
	if s.enrollErr != nil {
		return s.enrollErr
	}
	s.enrolled = append(s.enrolled, photoID)
	return nil
}

func (s *stubFaces) Search(_ context.Context, _ string, probeURL string) ([]domain.FaceMatch, error) {
	s.probes = append(s.probes, probeURL)
	return s.matches, s.searchErr
}

type stubPublisher struct {
	published []payloads.BibDetectionPayload
	err       error
}

func (s *stubPublisher) PublishBibDetection(_ context.Context, p payloads.BibDetectionPayload) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, p)
	return nil
}

func newEvent() *domain.Event {
	return &domain.Event{
		ID:             uuid.New(),
		PhotographerID: uuid.New(),
		Name:           "City Marathon",
		PriceCents:     1500,
		Currency:       "EUR",
		SearchConfig:   domain.DefaultSearchConfig(),
	}
}
