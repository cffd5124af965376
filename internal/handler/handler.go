package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/GoArmGo/BibFinder/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const msgSearchFailed = "search failed, try again"

// respondWithJSON - отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError - отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"error": message}, logger)
}

// respondWithUseCaseError переводит ошибку бизнес-логики в HTTP-статус.
// Неизвестные ошибки логируются и отдаются клиенту без подробностей.
func respondWithUseCaseError(w http.ResponseWriter, err error, logger *slog.Logger) {
	switch {
	case errors.Is(err, usecase.ErrEventNotFound), errors.Is(err, usecase.ErrPhotoNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), logger)
	case errors.Is(err, usecase.ErrInvalidRotation),
		errors.Is(err, usecase.ErrExclusiveEntryPoints),
		errors.Is(err, usecase.ErrInvalidTimeRange),
		errors.Is(err, usecase.ErrEmptyFile):
		respondWithError(w, http.StatusBadRequest, err.Error(), logger)
	case errors.Is(err, usecase.ErrFilterDisabled):
		respondWithError(w, http.StatusForbidden, err.Error(), logger)
	case errors.Is(err, usecase.ErrFaceSearchFailed):
		logger.Warn("face search failed", "error", err)
		respondWithError(w, http.StatusBadGateway, msgSearchFailed, logger)
	default:
		logger.Error("request failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "internal error", logger)
	}
}

// uuidParam читает UUID из параметра маршрута
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("некорректный %s: %q", name, raw)
	}
	return id, nil
}

// decodeJSON читает тело запроса, неизвестные поля - ошибка
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("некорректное тело запроса: %w", err)
	}
	return nil
}

// readUploadFile читает один файл multipart-формы в память
func readUploadFile(fh *multipart.FileHeader, key string) (domain.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("не удалось открыть файл %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.UploadFile{}, fmt.Errorf("не удалось прочитать файл %s: %w", fh.Filename, err)
	}
	return domain.UploadFile{
		Key:         key,
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// readUploadFiles читает поле files и параллельные ему поля keys и bib.
// Пустой bib означает "номер не задан".
func readUploadFiles(form *multipart.Form) ([]domain.UploadFile, error) {
	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, errors.New("не передано ни одного файла")
	}
	keys := form.Value["keys"]
	bibs := form.Value["bib"]

	files := make([]domain.UploadFile, 0, len(headers))
	for i, fh := range headers {
		key := fmt.Sprintf("%d", i)
		if i < len(keys) && strings.TrimSpace(keys[i]) != "" {
			key = strings.TrimSpace(keys[i])
		}
		file, err := readUploadFile(fh, key)
		if err != nil {
			return nil, err
		}
		if i < len(bibs) {
			bib := bibs[i]
			file.BibNumber = usecase.NormalizeBib(&bib)
		}
		files = append(files, file)
	}
	return files, nil
}

// parseMultipart ограничивает тело запроса и разбирает форму
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("размер запроса превышает %d байт", maxBytes)
		}
		return nil, fmt.Errorf("некорректная multipart-форма: %w", err)
	}
	return r.MultipartForm, nil
}

// parseFilterQuery читает фильтры галереи из query-параметров
func parseFilterQuery(r *http.Request) (usecase.FilterQuery, error) {
	values := r.URL.Query()
	q := usecase.FilterQuery{Bib: values.Get("bib")}

	if raw := values.Get("date"); raw != "" {
		d, err := usecase.ParseDate(raw)
		if err != nil {
			return q, err
		}
		q.Date = d
	}
	if raw := values.Get("time_from"); raw != "" {
		t, err := usecase.ParseTimeOfDay(raw)
		if err != nil {
			return q, err
		}
		q.TimeFrom = t
	}
	if raw := values.Get("time_to"); raw != "" {
		t, err := usecase.ParseTimeOfDay(raw)
		if err != nil {
			return q, err
		}
		q.TimeTo = t
	}
	return q, nil
}
