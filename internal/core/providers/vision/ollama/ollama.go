package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"streetguide-server-go/internal/core/providers/vision"
	"streetguide-server-go/internal/platform/logging"
)

const defaultBaseURL = "http://localhost:11434"

// Provider 基于 Ollama /api/chat 的本地视觉模型提供者
type Provider struct {
	config vision.Config
	client *api.Client
	logger *logging.Logger
}

func init() {
	vision.Register("ollama", NewProvider)
}

// NewProvider 创建Ollama提供者
func NewProvider(cfg vision.Config, logger *logging.Logger) (vision.Provider, error) {
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("missing model name for VLLLM %s", cfg.Name)
	}

	// api.NewClient expects the server root, without /api or /v1
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	base = strings.TrimSuffix(strings.TrimSuffix(base, "/"), "/v1")
	base = strings.TrimSuffix(base, "/api")

	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL %q: %w", base, err)
	}

	httpClient, err := vision.NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = logging.DefaultLogger
	}
	logger.DebugTag("视觉", "Ollama视觉模型初始化成功: base_url=%s model=%s", baseURL, cfg.ModelName)

	return &Provider{
		config: cfg,
		client: api.NewClient(baseURL, httpClient),
		logger: logger,
	}, nil
}

func (p *Provider) Name() string { return "ollama" }

// SupportsTools reports false; the guide uses the JSON prompt instead.
func (p *Provider) SupportsTools() bool { return false }

func (p *Provider) Analyze(ctx context.Context, req vision.Request) (*vision.Reply, error) {
	stream := false
	options := map[string]any{}
	if p.config.Temperature > 0 {
		options["temperature"] = p.config.Temperature
	}
	if p.config.TopP > 0 {
		options["top_p"] = p.config.TopP
	}
	if p.config.MaxTokens > 0 {
		options["num_predict"] = p.config.MaxTokens
	}

	chatReq := &api.ChatRequest{
		Model: p.config.ModelName,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: req.Prompt,
				Images:  []api.ImageData{api.ImageData(req.ImageBytes)},
			},
		},
		Stream:  &stream,
		Format:  json.RawMessage(`"json"`),
		Options: options,
	}

	p.logger.DebugTag("视觉", "invoke Ollama chat: model=%s prompt_length=%d image_bytes=%d",
		p.config.ModelName, len(req.Prompt), len(req.ImageBytes))

	var content strings.Builder
	err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	return &vision.Reply{Text: vision.StripThinkTags(content.String())}, nil
}

func (p *Provider) Close() error {
	return nil
}
