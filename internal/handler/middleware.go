package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	headerViewerID       = "X-Viewer-ID"
	headerViewerEmail    = "X-Viewer-Email"
	headerPhotographerID = "X-Photographer-ID"
)

type ctxKey int

const (
	viewerKey ctxKey = iota
	photographerKey
)

// RequestLogger - middleware для логирования HTTP-запросов.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Оборачиваем ResponseWriter, чтобы знать статус
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"request_id", middleware.GetReqID(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// responseWriter нужен, чтобы перехватывать код ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap даёт http.ResponseController доступ к Flush исходного writer'а
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Identity читает личность зрителя и фотографа из заголовков внешнего слоя авторизации.
// Некорректный X-Viewer-ID - 400, отсутствие заголовков - анонимный зритель.
func Identity(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID *uuid.UUID
			if raw := strings.TrimSpace(r.Header.Get(headerViewerID)); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					respondWithError(w, http.StatusBadRequest, "некорректный "+headerViewerID, logger)
					return
				}
				userID = &id
			}
			ctx := context.WithValue(r.Context(), viewerKey, domain.NewViewer(userID, r.Header.Get(headerViewerEmail)))

			if raw := strings.TrimSpace(r.Header.Get(headerPhotographerID)); raw != "" {
				if id, err := uuid.Parse(raw); err == nil {
					ctx = context.WithValue(ctx, photographerKey, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// viewerFrom возвращает зрителя запроса, без middleware - анонимного
func viewerFrom(ctx context.Context) domain.Viewer {
	v, _ := ctx.Value(viewerKey).(domain.Viewer)
	return v
}

func photographerFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(photographerKey).(uuid.UUID)
	return id, ok
}

// RequirePhotographer пропускает только запросы с корректным X-Photographer-ID
func RequirePhotographer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := photographerFrom(r.Context()); !ok {
				respondWithError(w, http.StatusUnauthorized, "требуется "+headerPhotographerID, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
