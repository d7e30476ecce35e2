package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	platformconfig "streetguide-server-go/internal/platform/config"
	platformerrors "streetguide-server-go/internal/platform/errors"
	platformlogging "streetguide-server-go/internal/platform/logging"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	content := strings.ReplaceAll(body, "{{LOG_DIR}}", logDir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const mockConfig = `
log:
  log_level: error
  log_dir: {{LOG_DIR}}
  log_file: smoke.log
guide:
  mode: function_call
  mock_delay: 0s
  voice_delay: 0s
`

const ollamaConfig = `
log:
  log_level: error
  log_dir: {{LOG_DIR}}
  log_file: smoke.log
selected_module:
  VLLLM: OllamaVLLM
`

func initState(t *testing.T, opts Options) *appState {
	t.Helper()
	opts.DisableDotEnv = true
	state := &appState{opts: opts}
	t.Cleanup(state.close)
	require.NoError(t, executeInitSteps(context.Background(), InitGraph(), state))
	return state
}

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init-provider",
		"observability:setup-hooks",
		"eventbus:init-subscribers",
		"guide:init-provider",
		"guide:init-service",
	}
	require.Len(t, steps, len(want))

	seen := map[string]bool{}
	for i, step := range steps {
		assert.Equal(t, want[i], step.ID)
		for _, dep := range step.DependsOn {
			assert.True(t, seen[dep], "%s depends on %s which runs later", step.ID, dep)
		}
		seen[step.ID] = true
	}
}

func TestExecuteInitGraph_Mock(t *testing.T) {
	state := initState(t, Options{Mock: true, ConfigPath: writeConfig(t, mockConfig)})

	require.NotNil(t, state.config)
	require.NotNil(t, state.logger)
	require.NotNil(t, state.metrics)
	require.NotNil(t, state.bus)
	require.NotNil(t, state.analyzer)
	assert.NotNil(t, state.observabilityShutdown)
	assert.Nil(t, state.provider)
	assert.Equal(t, modeMock, state.mode)
	assert.Equal(t, modeMock, state.providerName)
}

func TestExecuteInitGraph_OllamaUsesJSONMode(t *testing.T) {
	state := initState(t, Options{ConfigPath: writeConfig(t, ollamaConfig)})

	require.NotNil(t, state.provider)
	assert.Equal(t, "ollama", state.provider.Name())
	assert.Equal(t, "OllamaVLLM", state.providerName)
	assert.Equal(t, platformconfig.ModeJSON, state.mode)
}

func TestExecuteInitGraph_UnknownProvider(t *testing.T) {
	path := writeConfig(t, mockConfig+`
selected_module:
  VLLLM: Nope
`)
	state := &appState{opts: Options{ConfigPath: path, DisableDotEnv: true}}
	t.Cleanup(state.close)

	err := executeInitSteps(context.Background(), InitGraph(), state)
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindConfig))
}

func TestExecuteInitSteps_MissingDependency(t *testing.T) {
	steps := []initStep{{
		ID:        "guide:init-service",
		DependsOn: []string{"guide:init-provider"},
		Execute:   func(context.Context, *appState) error { return nil },
	}}

	err := executeInitSteps(context.Background(), steps, &appState{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsKind(err, platformerrors.KindBootstrap))
	assert.Contains(t, err.Error(), "guide:init-provider")
}

func TestBuildHTTPStack_Mock(t *testing.T) {
	state := initState(t, Options{Mock: true, ConfigPath: writeConfig(t, mockConfig)})

	stack, err := buildHTTPStack(state)
	require.NoError(t, err)

	ts := httptest.NewServer(stack.engine)
	t.Cleanup(func() {
		stack.ws.Stop()
		ts.Close()
	})

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, modeMock, body["mode"])
	})

	t.Run("analyze", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/analyze", "application/json", strings.NewReader(
			`{"image":"data:image/jpeg;base64,AAAA","options":[{"description":"北","heading":0,"panoId":"p0"}]}`,
		))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body["sceneDescription"])
		assert.NotEmpty(t, body["analysisId"])
	})

	t.Run("websocket", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + state.config.Web.WebsocketPath
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&frame))
		assert.Equal(t, "connection_status", frame.Event)
		assert.Contains(t, string(frame.Data), "connected")
	})
}

func TestLogBootstrapGraphOutput(t *testing.T) {
	tmp := t.TempDir()
	logger, err := platformlogging.New(platformlogging.Config{Level: "info", Dir: tmp, Filename: "graph.log"})
	require.NoError(t, err)

	logBootstrapGraph(InitGraph(), logger)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(tmp, "graph.log"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "初始化依赖关系概览")
	for _, step := range InitGraph() {
		assert.Contains(t, content, step.ID)
	}
}
