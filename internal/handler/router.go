package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers набор обработчиков HTTP API
type Handlers struct {
	Upload  *UploadHandler
	Gallery *GalleryHandler
	Photo   *PhotoHandler
}

// NewRouter собирает маршруты API
func NewRouter(h Handlers, requestTimeout time.Duration, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(Identity(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Get("/photos", h.Gallery.ListPhotos)
		r.Get("/filters", h.Gallery.Filters)
		r.Post("/face-search", h.Gallery.FaceSearch)

		r.Group(func(r chi.Router) {
			r.Use(RequirePhotographer(logger))
			r.Post("/uploads", h.Upload.Upload)
			r.Post("/bib-scan", h.Upload.BibScan)
		})
	})

	r.Route("/photos", func(r chi.Router) {
		r.Use(RequirePhotographer(logger))
		r.Post("/bulk-delete", h.Photo.BulkDelete)
		r.Patch("/{photoID}/bib", h.Photo.UpdateBibNumber)
		r.Patch("/{photoID}/rotation", h.Photo.UpdateRotation)
		r.Put("/{photoID}/edited", h.Photo.AttachEditedVersion)
		r.Delete("/{photoID}", h.Photo.DeletePhoto)
	})

	return r
}
