package ocr

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickBibNumber(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"", ""},
		{"no digits", ""},
		{"7", "7"},
		{" 12\n345 ", "345"},
		{"123 456", "123"},
		{"1234567 42", "42"},
		{"2026 10", "2026"},
	}
	for _, tt := range tests {
		got := PickBibNumber(tt.text)
		if tt.want == "" {
			assert.Nil(t, got, tt.text)
			continue
		}
		require.NotNil(t, got, tt.text)
		assert.Equal(t, tt.want, *got)
	}
}

func TestClient_DetectBib(t *testing.T) {
	var gotAuth string
	var gotReq detectRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/bib-detections", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		switch gotReq.ImageURL {
		case "found":
			_, _ = w.Write([]byte(`{"bib_number":" 1042 ","confidence":0.93}`))
		case "none":
			_, _ = w.Write([]byte(`{"bib_number":null}`))
		default:
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", slog.New(slog.NewTextHandler(io.Discard, nil)))

	bib, err := c.DetectBib(context.Background(), "found")
	require.NoError(t, err)
	assert.Equal(t, "1042", *bib)
	assert.Equal(t, "Bearer secret", gotAuth)

	bib, err = c.DetectBib(context.Background(), "none")
	require.NoError(t, err)
	assert.Nil(t, bib)

	_, err = c.DetectBib(context.Background(), "fail")
	assert.ErrorContains(t, err, "503")
}
