package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrTooLarge объект больше допустимого размера
var ErrTooLarge = errors.New("fetched object exceeds size limit")

// ObjectStore даёт прямой доступ к объектам собственного бакета
type ObjectStore interface {
	KeyFromURL(publicURL string) (string, bool)
	GetFile(ctx context.Context, objectKey string) (io.ReadCloser, error)
}

// Client скачивает изображения по URL с ограничением размера.
// URL собственного бакета читаются через ObjectStore, остальные через HTTP.
type Client struct {
	httpClient *http.Client
	store      ObjectStore
	maxBytes   int64
}

func NewClient(maxBytes int64, store ObjectStore) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		store:      store,
		maxBytes:   maxBytes,
	}
}

// Fetch возвращает содержимое объекта целиком
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := c.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", url, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, url)
	}
	return data, nil
}

func (c *Client) open(ctx context.Context, url string) (io.ReadCloser, error) {
	if c.store != nil {
		if key, ok := c.store.KeyFromURL(url); ok {
			return c.store.GetFile(ctx, key)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP-запроса: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения HTTP-запроса к %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("неуспешный статус при скачивании %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}
