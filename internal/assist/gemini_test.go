package assist

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGemini(t *testing.T, h http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	g, err := NewGemini(context.Background(), srv.URL, "test-key")
	require.NoError(t, err)
	return g
}

func TestGeminiGenerateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/imagen-4.0-generate-001:predict"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "a red apple")
		assert.Contains(t, string(body), "1:1")
		assert.Contains(t, string(body), "image/png")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"predictions":[{"mimeType":"image/png","bytesBase64Encoded":"`+base64.StdEncoding.EncodeToString(png)+`"}]}`)
	})

	img, err := g.GenerateImage(context.Background(), "a red apple")
	require.NoError(t, err)
	assert.Equal(t, png, img)
}

func TestGeminiGenerateImageNoPredictions(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"predictions":[]}`)
	})

	_, err := g.GenerateImage(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestGeminiSuggestOrder(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "Milk, Apple")
		assert.Contains(t, string(body), "application/json")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":" [\"Apple\", \"Milk\"] "}]}}]}`)
	})

	names, err := g.SuggestOrder(context.Background(), []string{"Milk", "Apple"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "Milk"}, names)
}

func TestGeminiErrorStatus(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)
	})

	_, err := g.SuggestOrder(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "RESOURCE_EXHAUSTED")
}

func TestGeminiMalformedSortFallsBackThroughAdapter(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"not json"}]}}]}`)
	})

	a := NewAdapter(g)
	assert.Equal(t, []string{"Apple", "Milk"}, a.RequestCategorySort(context.Background(), []string{"Milk", "Apple"}))
}
