package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type galleryFixture struct {
	event     *domain.Event
	photos    []domain.Photo
	faces     *stubFaces
	purchases *memPurchases
	gallery   *Gallery
}

func newGalleryFixture() *galleryFixture {
	event := newEvent()
	taken := time.Date(2026, 4, 1, 9, 41, 7, 0, time.UTC)
	photos := []domain.Photo{
		{ID: uuid.New(), EventID: event.ID, OriginalURL: "o1", WatermarkURL: "w1", BibNumber: strPtr("12"),
			TakenAt: &taken, CameraMake: strPtr("Sony"), CameraModel: strPtr("A7")},
		{ID: uuid.New(), EventID: event.ID, OriginalURL: "o2", WatermarkURL: "w2", BibNumber: strPtr("45")},
	}
	f := &galleryFixture{
		event:     event,
		photos:    photos,
		faces:     &stubFaces{},
		purchases: &memPurchases{},
	}
	logger := testLogger()
	f.gallery = NewGallery(
		newMemEvents(event),
		newMemPhotos(photos...),
		NewAccessResolver(f.purchases, logger),
		NewFaceSearcher(newMemFiles(), f.faces, 0.8, 0, logger),
		logger,
	)
	return f
}

func TestBrowse_CountsAndPreviewOnly(t *testing.T) {
	f := newGalleryFixture()

	page, err := f.gallery.Browse(context.Background(), f.event.ID, domain.Viewer{}, FilterQuery{Bib: "999"})
	require.NoError(t, err)
	assert.Zero(t, page.FilteredCount)
	assert.Equal(t, 2, page.TotalCount)

	page, err = f.gallery.Browse(context.Background(), f.event.ID, domain.Viewer{}, FilterQuery{})
	require.NoError(t, err)
	require.Len(t, page.Photos, 2)
	for _, v := range page.Photos {
		assert.Nil(t, v.OriginalURL)
	}
	assert.Equal(t, "w1", page.Photos[0].DisplayURL)
	assert.Len(t, page.Filters, 6)
}

func TestBrowse_PurchasedPhotoUnlocked(t *testing.T) {
	f := newGalleryFixture()
	f.purchases.purchases = []domain.Purchase{{
		EventID:    f.event.ID,
		BuyerEmail: "a@x.com",
		Status:     domain.PurchaseCompleted,
		Items:      []domain.PurchaseItem{{PhotoID: f.photos[1].ID}},
	}}

	page, err := f.gallery.Browse(context.Background(), f.event.ID, domain.NewViewer(nil, "a@x.com"), FilterQuery{Bib: "45"})
	require.NoError(t, err)
	require.Len(t, page.Photos, 1)
	require.NotNil(t, page.Photos[0].OriginalURL)
	assert.Equal(t, "o2", *page.Photos[0].OriginalURL)
}

func TestBrowse_DisplaySettings(t *testing.T) {
	f := newGalleryFixture()
	f.event.SearchConfig.Metadata.Enabled = false
	f.event.SearchConfig.ExactTime.Enabled = false

	page, err := f.gallery.Browse(context.Background(), f.event.ID, domain.Viewer{}, FilterQuery{Bib: "12"})
	require.NoError(t, err)
	require.Len(t, page.Photos, 1)

	v := page.Photos[0]
	assert.Nil(t, v.CameraMake)
	assert.Nil(t, v.CameraModel)
	require.NotNil(t, v.TakenAt)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *v.TakenAt)
}

func TestBrowse_UnknownEvent(t *testing.T) {
	f := newGalleryFixture()
	_, err := f.gallery.Browse(context.Background(), uuid.New(), domain.Viewer{}, FilterQuery{})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestBrowseByFace(t *testing.T) {
	f := newGalleryFixture()
	f.faces.matches = []domain.FaceMatch{{PhotoID: f.photos[1].ID, Confidence: 0.97}}

	page, err := f.gallery.BrowseByFace(context.Background(), f.event.ID, domain.Viewer{}, selfie(), FilterQuery{Bib: "12"})
	require.NoError(t, err, "bib is reset by a face search")
	require.Len(t, page.Photos, 1)
	assert.Equal(t, f.photos[1].ID, page.Photos[0].ID)
	assert.Empty(t, page.Message)

	f.faces.matches = nil
	page, err = f.gallery.BrowseByFace(context.Background(), f.event.ID, domain.Viewer{}, selfie(), FilterQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Photos)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, "no photos found for this face", page.Message)

	f.faces.searchErr = errBoom
	_, err = f.gallery.BrowseByFace(context.Background(), f.event.ID, domain.Viewer{}, selfie(), FilterQuery{})
	assert.ErrorIs(t, err, ErrFaceSearchFailed)
}

func TestBrowseByFace_NoFaceService(t *testing.T) {
	event := newEvent()
	logger := testLogger()
	g := NewGallery(newMemEvents(event), newMemPhotos(), NewAccessResolver(&memPurchases{}, logger), nil, logger)

	_, err := g.BrowseByFace(context.Background(), event.ID, domain.Viewer{}, selfie(), FilterQuery{})
	assert.ErrorIs(t, err, ErrFilterDisabled)
}
