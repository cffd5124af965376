package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ingestFixture struct {
	event     *domain.Event
	files     *memFiles
	photos    *memPhotos
	bibs      *stubBibs
	faces     *stubFaces
	publisher *stubPublisher
	deps      IngestDeps
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		event:     newEvent(),
		files:     newMemFiles(),
		photos:    newMemPhotos(),
		bibs:      &stubBibs{bib: strPtr("1234")},
		faces:     &stubFaces{},
		publisher: &stubPublisher{},
	}
	taken := time.Date(2026, 5, 3, 9, 15, 0, 0, time.UTC)
	f.deps = IngestDeps{
		Events:     newMemEvents(f.event),
		Photos:     f.photos,
		Files:      f.files,
		Normalizer: stubNormalizer{},
		Watermark:  stubWatermark{files: f.files},
		Metadata:   stubMetadata{meta: &domain.CaptureMetadata{TakenAt: &taken, CameraMake: strPtr("Canon")}},
		Bibs:       f.bibs,
		Faces:      f.faces,
		Publisher:  f.publisher,
	}
	return f
}

func jpeg(name string) domain.UploadFile {
	return domain.UploadFile{Key: name, FileName: name, ContentType: "image/jpeg", Data: []byte("jpeg-bytes")}
}

func TestIngestOne_Success(t *testing.T) {
	f := newIngestFixture()
	in := NewIngestor(f.deps, IngestOptions{}, testLogger())

	photo, results, err := in.IngestOne(context.Background(), f.event.ID, uuid.New(), jpeg("IMG_1.JPG"))
	require.NoError(t, err)
	require.NotNil(t, photo)

	assert.Equal(t, f.event.ID, photo.EventID)
	assert.Equal(t, int64(1500), photo.PriceCents)
	assert.Equal(t, "1234", *photo.BibNumber)
	assert.Equal(t, "Canon", *photo.CameraMake)
	assert.NotEmpty(t, photo.OriginalURL)
	assert.Contains(t, photo.OriginalURL, ".jpg")
	assert.NotEmpty(t, photo.WatermarkURL)
	assert.NotEmpty(t, photo.ThumbnailURL)

	for _, r := range results {
		assert.Equal(t, OutcomeOK, r.Outcome, r.Step)
	}
	assert.Equal(t, 1, f.photos.count())
	assert.Equal(t, []uuid.UUID{photo.ID}, f.faces.enrolled)
	assert.Len(t, f.files.keys(), 3)
}

func TestIngestOne_WatermarkFailureRemovesOriginal(t *testing.T) {
	f := newIngestFixture()
	f.deps.Watermark = stubWatermark{files: f.files, err: errBoom}
	in := NewIngestor(f.deps, IngestOptions{}, testLogger())

	photo, results, err := in.IngestOne(context.Background(), f.event.ID, uuid.New(), jpeg("a.jpg"))
	require.Error(t, err)
	assert.Nil(t, photo)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepWatermark, stepErr.Step)
	assert.ErrorIs(t, err, errBoom)

	last := results[len(results)-1]
	assert.Equal(t, OutcomeFatal, last.Outcome)
	assert.Empty(t, f.files.keys(), "original must be deleted")
	assert.Equal(t, 0, f.photos.count())
	assert.Empty(t, f.faces.enrolled)
}

func TestIngestOne_PersistFailureRemovesAllObjects(t *testing.T) {
	f := newIngestFixture()
	f.photos.saveErr = errBoom
	in := NewIngestor(f.deps, IngestOptions{}, testLogger())

	_, _, err := in.IngestOne(context.Background(), f.event.ID, uuid.New(), jpeg("a.jpg"))

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepPersist, stepErr.Step)
	assert.Empty(t, f.files.keys())
}

func TestIngestOne_SoftFailuresDoNotAbort(t *testing.T) {
	f := newIngestFixture()
	f.deps.Metadata = stubMetadata{err: errBoom}
	f.bibs.err = errBoom
	f.faces.enrollErr = errBoom
	in := NewIngestor(f.deps, IngestOptions{}, testLogger())

	photo, results, err := in.IngestOne(context.Background(), f.event.ID, uuid.New(), jpeg("a.jpg"))
	require.NoError(t, err)
	assert.Nil(t, photo.BibNumber)
	assert.Nil(t, photo.TakenAt)

	soft := map[StepName]bool{}
	for _, r := range results {
		if r.Outcome == OutcomeSoft {
			soft[r.Step] = true
		}
	}
	assert.Equal(t, map[StepName]bool{StepMetadata: true, StepBibDetection: true, StepFaceEnroll: true}, soft)
	assert.Equal(t, 1, f.photos.count())
}

func TestIngestOne_ManualBibSkipsOCR(t *testing.T) {
	f := newIngestFixture()
	in := NewIngestor(f.deps, IngestOptions{}, testLogger())

	file := jpeg("a.jpg")
	file.BibNumber = strPtr("  77 ")
	photo, _, err := in.IngestOne(context.Background(), f.event.ID, uuid.New(), file)
	require.NoError(t, err)
	assert.Equal(t, "77", *photo.BibNumber)
	assert.Zero(t, f.bibs.calls())
}

func TestIngestOne_DeferredModePublishes(t *testing.T) {
	f := newIngestFixture()
	in := NewIngestor(f.deps, IngestOptions{BibMode: BibDetectionDeferred}, testLogger())

	photo, _, err := in.IngestOne(context.Background(), f.event.ID, uuid.New(), jpeg("a.jpg"))
	require.NoError(t, err)
	assert.Nil(t, photo.BibNumber)
	assert.Zero(t, f.bibs.calls())
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, photo.ID.String(), f.publisher.published[0].PhotoID)
}

func TestIngestOne_UnknownEvent(t *testing.T) {
	f := newIngestFixture()
	in := NewIngestor(f.deps, IngestOptions{}, testLogger())

	_, _, err := in.IngestOne(context.Background(), uuid.New(), uuid.New(), jpeg("a.jpg"))
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestIngestOne_StepTimeoutIsFailure(t *testing.T) {
	f := newIngestFixture()
	f.deps.Normalizer = blockingNormalizer{}
	in := NewIngestor(f.deps, IngestOptions{CallTimeout: 10 * time.Millisecond}, testLogger())

	_, _, err := in.IngestOne(context.Background(), f.event.ID, uuid.New(), jpeg("a.jpg"))

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepNormalize, stepErr.Step)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, f.files.keys())
}

type blockingNormalizer struct{}

func (blockingNormalizer) Normalize(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestIngestBatch_IsolatesFailures(t *testing.T) {
	f := newIngestFixture()
	f.files.failOn = func(attempt int) error {
		if attempt == 2 {
			return errBoom
		}
		return nil
	}
	in := NewIngestor(f.deps, IngestOptions{}, testLogger())

	var statuses []domain.UploadStatus
	files := []domain.UploadFile{jpeg("1.jpg"), jpeg("2.jpg"), jpeg("3.jpg")}
	results, err := in.IngestBatch(context.Background(), f.event.ID, uuid.New(), files, func(r domain.UploadResult) {
		statuses = append(statuses, r.Status)
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, domain.UploadSuccess, results[0].Status)
	assert.Equal(t, domain.UploadError, results[1].Status)
	assert.Equal(t, string(StepUpload), results[1].FailedStep)
	assert.Equal(t, domain.UploadSuccess, results[2].Status)
	assert.Len(t, statuses, 6)

	retry := FailedFiles(files, results)
	require.Len(t, retry, 1)
	assert.Equal(t, "2.jpg", retry[0].Key)
}

func TestIngestBatch_CancelBetweenFiles(t *testing.T) {
	f := newIngestFixture()
	in := NewIngestor(f.deps, IngestOptions{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	files := []domain.UploadFile{jpeg("1.jpg"), jpeg("2.jpg")}
	results, err := in.IngestBatch(ctx, f.event.ID, uuid.New(), files, func(r domain.UploadResult) {
		if r.Status == domain.UploadSuccess {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.UploadSuccess, results[0].Status)
	assert.Equal(t, domain.UploadPending, results[1].Status)
	assert.Equal(t, 1, f.photos.count())
}

func TestNormalizeBib(t *testing.T) {
	assert.Nil(t, NormalizeBib(nil))
	assert.Nil(t, NormalizeBib(strPtr("   ")))
	assert.Equal(t, "42", *NormalizeBib(strPtr(" 42 ")))
}
