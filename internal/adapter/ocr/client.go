package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type detectRequest struct {
	ImageURL string `json:"image_url"`
}

type detectResponse struct {
	BibNumber  *string `json:"bib_number"`
	Confidence float64 `json:"confidence"`
}

// Client клиент внешнего сервиса распознавания стартовых номеров
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
		logger:     logger.With("component", "ocr_client"),
	}
}

// DetectBib возвращает nil без ошибки, если номер на фото не найден
func (c *Client) DetectBib(ctx context.Context, imageURL string) (*string, error) {
	body, err := json.Marshal(detectRequest{ImageURL: imageURL})
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования запроса OCR: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/bib-detections", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP-запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения HTTP-запроса к OCR: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("OCR сервис вернул статус %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ошибка декодирования JSON ответа OCR: %w", err)
	}

	c.logger.Debug("bib detection done",
		"found", out.BibNumber != nil,
		"confidence", out.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if out.BibNumber == nil {
		return nil, nil
	}
	bib := strings.TrimSpace(*out.BibNumber)
	if bib == "" {
		return nil, nil
	}
	return &bib, nil
}
