package eventbus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streetguide-server-go/internal/platform/observability"
	platformtesting "streetguide-server-go/internal/platform/testing"
)

func TestBus_PublishSync(t *testing.T) {
	bus := New(2, platformtesting.SetupTestLogger(t))
	defer bus.Shutdown()

	var got VoiceEventData
	require.NoError(t, bus.Subscribe(EventVoiceInput, func(data VoiceEventData) {
		got = data
	}))

	bus.Publish(EventVoiceInput, VoiceEventData{SessionID: "s1", Source: SourceWebSocket})
	assert.Equal(t, "s1", got.SessionID)
}

func TestBus_PublishAsync(t *testing.T) {
	bus := New(4, platformtesting.SetupTestLogger(t))
	defer bus.Shutdown()

	var count atomic.Int32
	require.NoError(t, bus.SubscribeAsync(EventConnectionOpened, func(ConnectionEventData) {
		count.Add(1)
	}))

	for i := 0; i < 50; i++ {
		bus.PublishAsync(EventConnectionOpened, ConnectionEventData{SessionID: "s"})
	}
	bus.WaitAsync()

	assert.Equal(t, int32(50), count.Load())
}

func TestAsyncEventBus_StopDrainsQueue(t *testing.T) {
	aeb := NewAsyncEventBus(1)

	var mu sync.Mutex
	var seen []int
	require.NoError(t, aeb.SubscribeAsync("topic", func(i int) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		seen = append(seen, i)
		mu.Unlock()
	}))

	for i := 0; i < 10; i++ {
		assert.True(t, aeb.PublishAsync("topic", i))
	}
	aeb.Start()
	aeb.Stop()

	assert.Len(t, seen, 10)
	assert.False(t, aeb.PublishAsync("topic", 11))
	assert.Equal(t, int64(1), aeb.Dropped())

	// second stop is a no-op
	aeb.Stop()
}

func TestAsyncEventBus_RecoversFromPanic(t *testing.T) {
	aeb := NewAsyncEventBus(1)
	var panics atomic.Int32
	aeb.onPanic = func(string, any) { panics.Add(1) }
	aeb.Start()
	defer aeb.Stop()

	var handled atomic.Int32
	require.NoError(t, aeb.SubscribeAsync("boom", func(fail bool) {
		if fail {
			panic("handler failed")
		}
		handled.Add(1)
	}))

	aeb.PublishAsync("boom", true)
	aeb.PublishAsync("boom", false)
	aeb.WaitAsync()

	assert.Equal(t, int32(1), panics.Load())
	assert.Equal(t, int32(1), handled.Load())
}

func TestSetupSubscribers_FeedsMetrics(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	bus := New(2, logger)
	defer bus.Shutdown()

	metrics := observability.NewMetrics()
	require.NoError(t, SetupSubscribers(bus, metrics, logger))

	bus.PublishAsync(EventAnalysisCompleted, AnalysisEventData{Source: SourceWebSocket, Provider: "openai", Upstream: time.Second})
	bus.PublishAsync(EventAnalysisFallback, AnalysisEventData{Source: SourceHTTP, Reason: "parse"})
	bus.PublishAsync(EventAnalysisRejected, AnalysisEventData{Source: SourceHTTP})
	bus.PublishAsync(EventConnectionOpened, ConnectionEventData{SessionID: "a"})
	bus.PublishAsync(EventVoiceInput, VoiceEventData{SessionID: "a"})
	bus.WaitAsync()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `streetguide_analysis_total{outcome="completed",source="ws"} 1`)
	assert.Contains(t, body, `streetguide_analysis_total{outcome="fallback",source="http"} 1`)
	assert.Contains(t, body, `streetguide_analysis_total{outcome="rejected",source="http"} 1`)
	assert.Contains(t, body, `streetguide_upstream_duration_seconds_count{provider="openai"} 1`)
	assert.Contains(t, body, "streetguide_ws_sessions 1")
	assert.Contains(t, body, "streetguide_voice_inputs_total 1")
}
