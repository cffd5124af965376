package facematch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GoArmGo/BibFinder/internal/domain"
	"github.com/google/uuid"
)

// Client клиент внешнего сервиса биометрического поиска.
// Коллекция создаётся сервисом при первой записи.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.With("component", "facematch"),
	}
}

// Enroll добавляет лица с фото в коллекцию события.
// 422 означает, что лиц на фото нет, и ошибкой не считается.
func (c *Client) Enroll(ctx context.Context, collectionID string, photoID uuid.UUID, imageURL string) error {
	resp, err := c.post(ctx, c.collectionPath(collectionID, "faces"), enrollRequest{
		PhotoID:  photoID.String(),
		ImageURL: imageURL,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		c.logger.Debug("no faces to enroll", "photo_id", photoID)
		return nil
	case resp.StatusCode/100 != 2:
		return statusError(resp)
	}
	return nil
}

// Search возвращает совпадения в порядке ответа сервиса.
// Отсутствующая коллекция (404) - это пустой результат.
func (c *Client) Search(ctx context.Context, collectionID, probeURL string) ([]domain.FaceMatch, error) {
	start := time.Now()
	resp, err := c.post(ctx, c.collectionPath(collectionID, "search"), searchRequest{ImageURL: probeURL})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []domain.FaceMatch{}, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, statusError(resp)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ошибка декодирования JSON ответа сервиса лиц: %w", err)
	}

	matches := make([]domain.FaceMatch, 0, len(out.Matches))
	for _, m := range out.Matches {
		id, err := uuid.Parse(m.PhotoID)
		if err != nil {
			c.logger.Warn("face service returned an unknown photo id", "photo_id", m.PhotoID)
			continue
		}
		matches = append(matches, domain.FaceMatch{PhotoID: id, Confidence: m.Confidence})
	}

	c.logger.Debug("face search done",
		"collection", collectionID,
		"matches", len(matches),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return matches, nil
}

func (c *Client) collectionPath(collectionID, action string) string {
	return fmt.Sprintf("%s/v1/collections/%s/%s", c.baseURL, url.PathEscape(collectionID), action)
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования запроса: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP-запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения HTTP-запроса к сервису лиц: %w", err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("сервис лиц вернул статус %d: %s", resp.StatusCode, string(bodyBytes))
}
