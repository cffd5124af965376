package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/BibFinder/internal/usecase"
	"github.com/google/uuid"
)

// PhotoHandler - обработчик HTTP-запросов для управления загруженными фото.
type PhotoHandler struct {
	photoUseCase usecase.PhotoUseCase
	maxBytes     int64
	logger       *slog.Logger
}

// NewPhotoHandler создаёт новый экземпляр PhotoHandler.
func NewPhotoHandler(uc usecase.PhotoUseCase, maxBytes int64, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{
		photoUseCase: uc,
		maxBytes:     maxBytes,
		logger:       logger.With("component", "photo_handler"),
	}
}

type updateBibRequest struct {
	BibNumber *string `json:"bib_number"`
}

type updateRotationRequest struct {
	Rotation int `json:"rotation"`
}

type bulkDeleteRequest struct {
	PhotoIDs []uuid.UUID `json:"photo_ids"`
}

// UpdateBibNumber - PATCH /photos/{photoID}/bib, null или пустая строка очищают номер
func (h *PhotoHandler) UpdateBibNumber(w http.ResponseWriter, r *http.Request) {
	photoID, err := uuidParam(r, "photoID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	var req updateBibRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	photo, err := h.photoUseCase.UpdateBibNumber(r.Context(), photoID, req.BibNumber)
	if err != nil {
		respondWithUseCaseError(w, err, h.logger)
		return
	}
	h.logger.Info("bib number updated", "photo_id", photoID)
	respondWithJSON(w, http.StatusOK, photo, h.logger)
}

// UpdateRotation - PATCH /photos/{photoID}/rotation
func (h *PhotoHandler) UpdateRotation(w http.ResponseWriter, r *http.Request) {
	photoID, err := uuidParam(r, "photoID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	var req updateRotationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	photo, err := h.photoUseCase.UpdateRotation(r.Context(), photoID, req.Rotation)
	if err != nil {
		respondWithUseCaseError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, photo, h.logger)
}

// AttachEditedVersion - PUT /photos/{photoID}/edited, multipart поле file
func (h *PhotoHandler) AttachEditedVersion(w http.ResponseWriter, r *http.Request) {
	photoID, err := uuidParam(r, "photoID")
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

	headers := form.File["file"]
	if len(headers) != 1 {
		respondWithError(w, http.StatusBadRequest, "ожидается ровно один файл file", h.logger)
		return
	}
	file, err := readUploadFile(headers[0], photoID.String())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	photo, err := h.photoUseCase.AttachEditedVersion(r.Context(), photoID, file)
	if err != nil {
		respondWithUseCaseError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, photo, h.logger)
}

// DeletePhoto - DELETE /photos/{photoID}
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := uuidParam(r, "photoID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	if err := h.photoUseCase.DeletePhoto(r.Context(), photoID); err != nil {
		respondWithUseCaseError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete - POST /photos/bulk-delete
func (h *PhotoHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	if len(req.PhotoIDs) == 0 {
		respondWithError(w, http.StatusBadRequest, "photo_ids не может быть пустым", h.logger)
		return
	}

	results := h.photoUseCase.DeletePhotos(r.Context(), req.PhotoIDs)
	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	h.logger.Info("bulk delete finished", "requested", len(req.PhotoIDs), "failed", failed)
	respondWithJSON(w, http.StatusOK, map[string]any{"results": results, "failed": failed}, h.logger)
}
