package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streetguide-server-go/internal/core/providers/vision"
	platformtesting "streetguide-server-go/internal/platform/testing"
)

func TestProvider_Analyze(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Stream   *bool  `json:"stream"`
		Format   string `json:"format"`
		Messages []struct {
			Role    string   `json:"role"`
			Content string   `json:"content"`
			Images  []string `json:"images"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"llava","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"{\"sceneDescription\":\"夜景\"}"},"done":true}`+"\n")
	}))
	defer srv.Close()

	p, err := NewProvider(vision.Config{
		Name:      "local",
		ModelName: "llava",
		BaseURL:   srv.URL + "/v1",
		Timeout:   5 * time.Second,
	}, platformtesting.SetupTestLogger(t))
	require.NoError(t, err)
	assert.False(t, p.SupportsTools())

	reply, err := p.Analyze(context.Background(), vision.Request{
		Prompt:     "分析",
		ImageBytes: []byte{0xFF, 0xD8, 0xFF},
		MIME:       "image/jpeg",
	})
	require.NoError(t, err)

	assert.Equal(t, `{"sceneDescription":"夜景"}`, reply.Text)
	assert.Empty(t, reply.Calls)

	assert.Equal(t, "llava", captured.Model)
	require.NotNil(t, captured.Stream)
	assert.False(t, *captured.Stream)
	assert.Equal(t, "json", captured.Format)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "分析", captured.Messages[0].Content)
	assert.Len(t, captured.Messages[0].Images, 1)
}

func TestProvider_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model not found"}`)
	}))
	defer srv.Close()

	p, err := NewProvider(vision.Config{ModelName: "missing", BaseURL: srv.URL, Timeout: time.Second}, platformtesting.SetupTestLogger(t))
	require.NoError(t, err)

	_, err = p.Analyze(context.Background(), vision.Request{Prompt: "p", ImageBytes: []byte{1}})
	assert.Error(t, err)
}

func TestNewProvider_RequiresModel(t *testing.T) {
	_, err := NewProvider(vision.Config{}, platformtesting.SetupTestLogger(t))
	assert.Error(t, err)
}
