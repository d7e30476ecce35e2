package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.ObserveAnalysis("ws", OutcomeCompleted)
	m.ObserveAnalysis("ws", OutcomeCompleted)
	m.ObserveAnalysis("http", OutcomeFallback)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.ObserveHTTP(http.MethodPost, "/analyze", http.StatusBadRequest)
	m.ObserveVoiceInput()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analysisTotal.WithLabelValues("ws", OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analysisTotal.WithLabelValues("http", OutcomeFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wsSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/analyze", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.voiceInputs))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAnalysis("ws", OutcomeCompleted)
		m.ObserveUpstream("openai", time.Second)
		m.SessionOpened()
		m.SessionClosed()
		m.ObserveHTTP("GET", "/health", 200)
		m.ObserveVoiceInput()
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveUpstream("openai", 300*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "streetguide_upstream_duration_seconds_count{provider=\"openai\"} 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestStartSpan_LogsWhenEnabled(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, shutdown, err := Setup(context.Background(), Config{Enabled: true, Service: "test"}, logger)
	require.NoError(t, err)
	defer shutdown(context.Background())

	assert.True(t, Enabled())
	_, end := StartSpan(context.Background(), "guide", "analyze")
	end(errors.New("boom"))
	RecordMetric(context.Background(), "guide.latency", 1.5, map[string]string{"b": "2", "a": "1"})

	out := buf.String()
	assert.Contains(t, out, "obs span start")
	assert.Contains(t, out, "obs span end")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, `"metric":"guide.latency"`)
}

func TestStartSpan_NoopWhenDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	metrics, _, err := Setup(context.Background(), Config{Enabled: false}, logger)
	require.NoError(t, err)
	require.NotNil(t, metrics)
	buf.Reset()

	_, end := StartSpan(context.Background(), "guide", "analyze")
	end(nil)

	assert.Empty(t, buf.String())
}
