package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/GoArmGo/BibFinder/internal/usecase"
)

// UploadHandler - загрузка фото фотографом и предварительное распознавание номеров.
type UploadHandler struct {
	upload        usecase.UploadUseCase
	scan          usecase.BibScanUseCase
	uploadLimiter chan struct{}
	maxBytes      int64
	logger        *slog.Logger
}

// NewUploadHandler создаёт обработчик; limiter ограничивает число одновременных сессий
func NewUploadHandler(
	upload usecase.UploadUseCase,
	scan usecase.BibScanUseCase,
	limiter chan struct{},
	maxBytes int64,
	logger *slog.Logger,
) *UploadHandler {
	return &UploadHandler{
		upload:        upload,
		scan:          scan,
		uploadLimiter: limiter,
		maxBytes:      maxBytes,
		logger:        logger.With("component", "upload_handler"),
	}
}

type uploadResponse struct {
	Results   []domain.UploadResult `json:"results"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	RetryKeys []string              `json:"retry_keys"`
}

// acquire занимает слот сессии загрузки; false - клиент ушёл раньше
func (h *UploadHandler) acquire(r *http.Request) bool {
	select {
	case h.uploadLimiter <- struct{}{}:
		return true
	case <-r.Context().Done():
		return false
	}
}

func (h *UploadHandler) release() {
	<-h.uploadLimiter
}

// Upload - POST /events/{eventID}/uploads
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuidParam(r, "eventID")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	photographerID, _ := photographerFrom(r.Context())

	form, err := parseMultipart(w, r, h.maxBytes)
	if err != nil {
		h.logger.Warn("invalid upload form", "event_id", eventID, "error", err)
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	defer form.RemoveAll()

	files, err := readUploadFiles(form)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	if !h.acquire(r) {
		return
	}
	defer h.release()

	h.logger.Info("upload session started", "event_id", eventID, "photographer_id", photographerID, "files", len(files))

	results, err := h.upload.IngestBatch(r.Context(), eventID, photographerID, files, nil)
	if err != nil && results == nil {
		respondWithUseCaseError(w, err, h.logger)
		return
	}

	resp := uploadResponse{Results: results, RetryKeys: []string{}}
	for _, f := range usecase.FailedFiles(files, results) {
		resp.RetryKeys = append(resp.RetryKeys, f.Key)
	}
	for _, res := range results {
		switch res.Status {
		case domain.UploadSuccess:
			resp.Succeeded++
		case domain.UploadError:
			resp.Failed++
		}
	}
	respondWithJSON(w, http.StatusOK, resp, h.logger)
}

// BibScan - POST /events/{eventID}/bib-scan.
// Ответ - NDJSON: строка прогресса после каждого файла, затем строка с предложениями.
func (h *UploadHandler) BibScan(w http.ResponseWriter, r *http.Request) {
	form, err := parseMultipart(w, r, h.maxBytes)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	defer form.RemoveAll()

	files, err := readUploadFiles(form)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	if !h.acquire(r) {
		return
	}
	defer h.release()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	emit := func(v any) {
		if err := enc.Encode(v); err != nil {
			h.logger.Warn("failed to write scan progress", "error", err)
			return
		}
		_ = rc.Flush()
	}

	suggestions, err := h.scan.ScanPending(r.Context(), files, func(p domain.ScanProgress) {
		emit(p)
	})
	if err != nil {
		h.logger.Warn("bib scan interrupted", "error", err, "done", len(suggestions))
		emit(map[string]any{"error": err.Error(), "suggestions": suggestions})
		return
	}
	emit(map[string]any{"suggestions": suggestions})
}
