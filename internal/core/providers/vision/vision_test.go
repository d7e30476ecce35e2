package vision

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streetguide-server-go/internal/platform/logging"
)

type stubProvider struct{}

func (stubProvider) Name() string        { return "stub" }
func (stubProvider) SupportsTools() bool { return false }
func (stubProvider) Analyze(context.Context, Request) (*Reply, error) {
	return &Reply{Text: "{}"}, nil
}
func (stubProvider) Close() error { return nil }

func TestRegistry(t *testing.T) {
	Register("Stub", func(cfg Config, _ *logging.Logger) (Provider, error) {
		return stubProvider{}, nil
	})

	p, err := Create(Config{Type: "stub"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "stub", p.Name())
	assert.Contains(t, Registered(), "stub")

	_, err = Create(Config{Type: "does-not-exist"}, nil)
	assert.Error(t, err)
}

func TestNewHTTPClient(t *testing.T) {
	client, err := NewHTTPClient(Config{Timeout: 3 * time.Second, Proxy: "http://127.0.0.1:7890"})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "example.com"}}
	proxy, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7890", proxy.Host)

	_, err = NewHTTPClient(Config{Proxy: "://bad"})
	assert.Error(t, err)
}

func TestStripThinkTags(t *testing.T) {
	tests := map[string]string{
		"plain":                               "plain",
		"<think>reasoning</think>{\"a\":1}":   "{\"a\":1}",
		"a<think>x</think>b<think>y</think>c": "abc",
		"answer <think>unterminated":          "answer",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripThinkTags(in))
	}
}
