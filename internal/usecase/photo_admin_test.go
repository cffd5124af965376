package usecase

import (
	"context"
	"testing"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedPhoto(files *memFiles, eventID uuid.UUID) domain.Photo {
	id := uuid.New()
	prefix := "events/" + eventID.String()
	return domain.Photo{
		ID:           id,
		EventID:      eventID,
		OriginalURL:  files.put(prefix + "/originals/" + id.String() + ".jpg"),
		WatermarkURL: files.put(prefix + "/watermarks/" + id.String() + ".jpg"),
		ThumbnailURL: files.put(prefix + "/thumbnails/" + id.String() + ".jpg"),
	}
}

func TestDeletePhoto_RemovesExactlyItsObjects(t *testing.T) {
	files := newMemFiles()
	eventID := uuid.New()
	target := storedPhoto(files, eventID)
	target.EditedURL = strPtr(files.put("events/" + eventID.String() + "/edited/x.jpg"))
	neighbour := storedPhoto(files, eventID)
	photos := newMemPhotos(target, neighbour)
	uc := NewPhotoUseCase(photos, files, 0, testLogger())

	require.NoError(t, uc.DeletePhoto(context.Background(), target.ID))
	assert.Len(t, files.keys(), 3)
	for _, u := range neighbour.AssetURLs() {
		key, _ := files.KeyFromURL(u)
		assert.Contains(t, files.keys(), key)
	}
	assert.Equal(t, 1, photos.count())

	require.NoError(t, uc.DeletePhoto(context.Background(), target.ID), "second delete is a no-op")
	assert.Len(t, files.keys(), 3)
}

func TestDeletePhoto_StorageFailureKeepsRecord(t *testing.T) {
	files := newMemFiles()
	p := storedPhoto(files, uuid.New())
	photos := newMemPhotos(p)
	files.deleteErr = errBoom
	uc := NewPhotoUseCase(photos, files, 0, testLogger())

	assert.Error(t, uc.DeletePhoto(context.Background(), p.ID))
	assert.Equal(t, 1, photos.count())
}

func TestDeletePhotos_PerItemResults(t *testing.T) {
	files := newMemFiles()
	a := storedPhoto(files, uuid.New())
	photos := newMemPhotos(a)
	uc := NewPhotoUseCase(photos, files, 0, testLogger())

	missing := uuid.New()
	results := uc.DeletePhotos(context.Background(), []uuid.UUID{a.ID, missing, a.ID})
	require.Len(t, results, 2)
	assert.Equal(t, a.ID, results[0].PhotoID)
	assert.Empty(t, results[0].Error)
	assert.Empty(t, results[1].Error)
	assert.Empty(t, files.keys())
}

func TestUpdateBibAndRotation(t *testing.T) {
	files := newMemFiles()
	p := storedPhoto(files, uuid.New())
	photos := newMemPhotos(p)
	uc := NewPhotoUseCase(photos, files, 0, testLogger())
	ctx := context.Background()

	got, err := uc.UpdateBibNumber(ctx, p.ID, strPtr(" 301 "))
	require.NoError(t, err)
	assert.Equal(t, "301", *got.BibNumber)

	got, err = uc.UpdateBibNumber(ctx, p.ID, strPtr(""))
	require.NoError(t, err)
	assert.Nil(t, got.BibNumber)

	got, err = uc.UpdateRotation(ctx, p.ID, 270)
	require.NoError(t, err)
	assert.Equal(t, 270, got.Rotation)

	_, err = uc.UpdateRotation(ctx, p.ID, 45)
	assert.ErrorIs(t, err, ErrInvalidRotation)

	_, err = uc.UpdateBibNumber(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestAttachEditedVersion_ReplacesPrevious(t *testing.T) {
	files := newMemFiles()
	p := storedPhoto(files, uuid.New())
	photos := newMemPhotos(p)
	uc := NewPhotoUseCase(photos, files, 0, testLogger())
	ctx := context.Background()

	first, err := uc.AttachEditedVersion(ctx, p.ID, jpeg("edit1.jpg"))
	require.NoError(t, err)
	firstKey, _ := files.KeyFromURL(*first.EditedURL)
	assert.Contains(t, firstKey, "/edited/")

	second, err := uc.AttachEditedVersion(ctx, p.ID, jpeg("edit2.jpg"))
	require.NoError(t, err)
	secondKey, _ := files.KeyFromURL(*second.EditedURL)

	assert.NotContains(t, files.keys(), firstKey)
	assert.Contains(t, files.keys(), secondKey)
}

func TestAttachEditedVersion_DBFailureRemovesUpload(t *testing.T) {
	files := newMemFiles()
	p := storedPhoto(files, uuid.New())
	photos := newMemPhotos(p)
	uc := NewPhotoUseCase(photos, files, 0, testLogger())

	photos.saveErr = errBoom
	_, err := uc.AttachEditedVersion(context.Background(), p.ID, jpeg("edit.jpg"))
	assert.Error(t, err)
	assert.Len(t, files.keys(), 3)
}
