package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/GoArmGo/BibFinder/internal/config"
	"github.com/GoArmGo/BibFinder/internal/messaging/payloads"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDetector struct {
	calls []uuid.UUID
	err   error
}

func (f *fakeDetector) DetectForPhoto(_ context.Context, id uuid.UUID) error {
	f.calls = append(f.calls, id)
	return f.err
}

type fakeConsumer struct {
	jobs    []payloads.BibDetectionPayload
	results []error
}

func (f *fakeConsumer) StartConsumingBibDetections(ctx context.Context, handler func(context.Context, payloads.BibDetectionPayload) error) error {
	for _, job := range f.jobs {
		f.results = append(f.results, handler(ctx, job))
	}
	return nil
}

func TestBibDetectionHandler(t *testing.T) {
	det := &fakeDetector{}
	h := bibDetectionHandler(det, testLogger())
	id := uuid.New()

	require.NoError(t, h(context.Background(), payloads.BibDetectionPayload{PhotoID: id.String()}))
	assert.Equal(t, []uuid.UUID{id}, det.calls)

	assert.NoError(t, h(context.Background(), payloads.BibDetectionPayload{PhotoID: "garbage"}))
	assert.Len(t, det.calls, 1)

	det.err = errors.New("ocr down")
	assert.Error(t, h(context.Background(), payloads.BibDetectionPayload{PhotoID: id.String()}))
}

func TestRunWorker_StopsOnCancel(t *testing.T) {
	det := &fakeDetector{}
	consumer := &fakeConsumer{jobs: []payloads.BibDetectionPayload{{PhotoID: uuid.NewString()}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, runWorker(ctx, det, consumer, testLogger()))
	assert.Len(t, det.calls, 1)
	assert.Equal(t, []error{nil}, consumer.results)
}

func TestRunServer_GracefulShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := &config.Config{ServerPort: itoa(port)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runServer(ctx, cfg, http.NotFoundHandler(), testLogger())
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + itoa(port) + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestShutdown_ClosesInReverseOrder(t *testing.T) {
	a := NewApp(&config.Config{}, testLogger(), nil, nil, nil)
	var order []string
	a.OnShutdown("db", func() error { order = append(order, "db"); return nil })
	a.OnShutdown("rabbitmq", func() error { order = append(order, "rabbitmq"); return errors.New("already closed") })

	err := a.Shutdown()
	assert.ErrorContains(t, err, "rabbitmq")
	assert.Equal(t, []string{"rabbitmq", "db"}, order)
}

func TestRun_UnknownMode(t *testing.T) {
	a := NewApp(&config.Config{}, testLogger(), nil, nil, nil)
	assert.Error(t, a.Run(context.Background(), "batch"))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
