package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"streetguide-server-go/internal/core/providers/vision"
	"streetguide-server-go/internal/platform/logging"
)

// Provider OpenAI兼容接口的视觉模型提供者（含 Gemini OpenAI 兼容端点）
type Provider struct {
	config vision.Config
	client *openai.Client
	logger *logging.Logger
}

// 注册提供者
func init() {
	vision.Register("openai", NewProvider)
}

// NewProvider 创建OpenAI兼容提供者
func NewProvider(cfg vision.Config, logger *logging.Logger) (vision.Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing API key for VLLLM %s", cfg.Name)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("missing model name for VLLLM %s", cfg.Name)
	}

	httpClient, err := vision.NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = httpClient

	if logger == nil {
		logger = logging.DefaultLogger
	}
	logger.DebugTag("视觉", "OpenAI兼容视觉模型初始化成功: base_url=%s model=%s", clientConfig.BaseURL, cfg.ModelName)

	return &Provider{
		config: cfg,
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}, nil
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) SupportsTools() bool { return true }

// Analyze 发送一次非流式多模态对话请求
func (p *Provider) Analyze(ctx context.Context, req vision.Request) (*vision.Reply, error) {
	message := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: req.Prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    fmt.Sprintf("data:%s;base64,%s", req.MIME, req.ImageBase64),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	}

	request := openai.ChatCompletionRequest{
		Model:       p.config.ModelName,
		Messages:    []openai.ChatCompletionMessage{message},
		MaxTokens:   p.config.MaxTokens,
		Temperature: p.config.Temperature,
		TopP:        p.config.TopP,
	}

	if req.Tool != nil {
		request.Tools = []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters:  req.Tool.Parameters,
			},
		}}
		request.ToolChoice = openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: req.Tool.Name},
		}
	} else if p.config.JSONResponse {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	p.logger.DebugTag("视觉", "invoke vision API: model=%s prompt_length=%d image_bytes=%d tools=%t",
		p.config.ModelName, len(req.Prompt), len(req.ImageBytes), req.Tool != nil)

	resp, err := p.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0].Message
	reply := &vision.Reply{Text: vision.StripThinkTags(choice.Content)}
	for _, call := range choice.ToolCalls {
		if call.Function.Name == "" {
			continue
		}
		reply.Calls = append(reply.Calls, vision.FunctionCall{
			Name:      call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		})
	}

	p.logger.DebugTag("视觉", "vision API 响应: finish_reason=%s text_length=%d calls=%d total_tokens=%d",
		resp.Choices[0].FinishReason, len(reply.Text), len(reply.Calls), resp.Usage.TotalTokens)

	return reply, nil
}

func (p *Provider) Close() error {
	return nil
}
