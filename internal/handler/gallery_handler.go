package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/BibFinder/internal/usecase"
)

// GalleryHandler - поиск своих фото покупателем.
type GalleryHandler struct {
	gallery  usecase.GalleryUseCase
	maxBytes int64
	logger   *slog.Logger
}

func NewGalleryHandler(gallery usecase.GalleryUseCase, maxBytes int64, logger *slog.Logger) *GalleryHandler {
	return &GalleryHandler{
		gallery:  gallery,
		maxBytes: maxBytes,
		logger:   logger.With("component", "gallery_handler"),
	}
}

// ListPhotos - GET /events/{eventID}/photos?bib=&date=&time_from=&time_to=
func (h *GalleryHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	q, err := parseFilterQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	page, err := h.gallery.Browse(r.Context(), eventID, viewerFrom(r.Context()), q)
	if err != nil {
		respondWithUseCaseError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, page, h.logger)
}

// FaceSearch - POST /events/{eventID}/face-search, multipart поле selfie.
// Селфи живёт только в памяти запроса.
func (h *GalleryHandler) FaceSearch(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	q, err := parseFilterQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	form, err := parseMultipart(w, r, h.maxBytes)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	defer form.RemoveAll()

	headers := form.File["selfie"]
	if len(headers) != 1 {
		respondWithError(w, http.StatusBadRequest, "ожидается ровно один файл selfie", h.logger)
		return
	}
	probe, err := readUploadFile(headers[0], "selfie")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	page, err := h.gallery.BrowseByFace(r.Context(), eventID, viewerFrom(r.Context()), probe, q)
	if err != nil {
		respondWithUseCaseError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, page, h.logger)
}

// Filters - GET /events/{eventID}/filters
func (h *GalleryHandler) Filters(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	filters, err := h.gallery.ActiveFilters(r.Context(), eventID)
	if err != nil {
		respondWithUseCaseError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"filters": filters}, h.logger)
}
