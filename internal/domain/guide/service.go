// Package guide turns street view requests into guide recommendations.
package guide

import (
	"context"
	"fmt"
	"time"

	"streetguide-server-go/internal/core/providers/vision"
	"streetguide-server-go/internal/domain/eventbus"
	"streetguide-server-go/internal/domain/image"
	"streetguide-server-go/internal/domain/prompt"
	"streetguide-server-go/internal/domain/streetview"
	"streetguide-server-go/internal/platform/config"
	"streetguide-server-go/internal/platform/errors"
	"streetguide-server-go/internal/platform/logging"
	"streetguide-server-go/internal/platform/observability"
)

// Analyzer 街景分析服务接口，由 AI 服务与模拟服务实现
type Analyzer interface {
	Analyze(ctx context.Context, req streetview.AnalysisRequest) (*streetview.AnalysisResult, error)
	Voice(ctx context.Context, in streetview.VoiceInput) (*streetview.VoiceReply, error)
}

// Options 构造 Service 所需依赖
type Options struct {
	Decoder  *image.Decoder
	Prompts  *prompt.Builder
	Provider vision.Provider
	// Mode is config.ModeFunctionCall or config.ModeJSON.
	Mode   string
	Bus    *eventbus.Bus
	Logger *logging.Logger
	Picker Picker
}

// Service 调用视觉模型的导游服务；任何失败都降级为备用响应
type Service struct {
	decoder  *image.Decoder
	prompts  *prompt.Builder
	provider vision.Provider
	mode     string
	bus      *eventbus.Bus
	logger   *logging.Logger
	pick     Picker
}

var _ Analyzer = (*Service)(nil)

// NewService 创建导游服务
func NewService(opts Options) (*Service, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("vision provider is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger
	}
	if opts.Decoder == nil {
		opts.Decoder = image.NewDecoder(nil, opts.Logger)
	}
	if opts.Prompts == nil {
		opts.Prompts = prompt.NewBuilder("", 5)
	}
	if opts.Mode == "" {
		opts.Mode = config.ModeFunctionCall
	}
	if opts.Picker == nil {
		opts.Picker = RandomPicker
	}

	return &Service{
		decoder:  opts.Decoder,
		prompts:  opts.Prompts,
		provider: opts.Provider,
		mode:     opts.Mode,
		bus:      opts.Bus,
		logger:   opts.Logger,
		pick:     opts.Picker,
	}, nil
}

// UsesTools reports whether requests go through function calling.
func (s *Service) UsesTools() bool {
	return s.mode == config.ModeFunctionCall && s.provider.SupportsTools()
}

// Analyze 分析街景。仅在上下文被取消时返回错误，其余失败返回备用响应。
func (s *Service) Analyze(ctx context.Context, req streetview.AnalysisRequest) (*streetview.AnalysisResult, error) {
	start := time.Now()
	ctx, end := observability.StartSpan(ctx, "guide", "analyze")

	s.logger.InfoTag("导游", "开始分析街景: session=%s options=%d visited=%d",
		req.SessionID, len(req.Options), len(req.VisitedHistory))

	result, upstream, err := s.analyze(ctx, req)
	event := eventbus.AnalysisEventData{
		SessionID: req.SessionID,
		Source:    req.Source,
		Provider:  s.provider.Name(),
		Duration:  time.Since(start),
		Upstream:  upstream,
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			end(ctxErr)
			return nil, ctxErr
		}
		end(err)
		s.logger.WarnTag("导游", "分析失败，使用备用响应: session=%s err=%v", req.SessionID, err)
		result = Fallback(req.Options, s.pick)
		event.Reason = string(errors.KindOf(err))
		event.HasDirection = result.NextDirection != nil
		s.bus.PublishAsync(eventbus.EventAnalysisFallback, event)
		return result, nil
	}

	end(nil)
	event.HasDirection = result.NextDirection != nil
	s.bus.PublishAsync(eventbus.EventAnalysisCompleted, event)
	s.logger.InfoTag("导游", "分析完成: session=%s duration=%s voice=%s",
		req.SessionID, event.Duration, describeParseInput(result.VoiceResponse))
	return result, nil
}

func (s *Service) analyze(ctx context.Context, req streetview.AnalysisRequest) (*streetview.AnalysisResult, time.Duration, error) {
	decoded, err := s.decoder.Decode(ctx, req.Image)
	if err != nil {
		return nil, 0, err
	}

	useTools := s.UsesTools()
	var text string
	if useTools {
		text, err = s.prompts.FunctionCall(req)
	} else {
		text, err = s.prompts.JSON(req)
	}
	if err != nil {
		return nil, 0, errors.Wrap(errors.KindDomain, "guide.prompt", "render prompt", err)
	}

	vreq := vision.Request{
		Prompt:      text,
		ImageBase64: decoded.Base64,
		ImageBytes:  decoded.Bytes,
		MIME:        decoded.MIME,
	}
	if useTools {
		tool := prompt.AnalyzeStreetviewTool()
		vreq.Tool = &vision.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		}
	}

	upstreamStart := time.Now()
	reply, err := s.provider.Analyze(ctx, vreq)
	upstream := time.Since(upstreamStart)
	if err != nil {
		return nil, upstream, errors.Wrap(errors.KindUpstream, "guide.provider", "vision provider call failed", err)
	}

	s.logger.DebugTag("导游", "模型原始响应: calls=%d text=%s", len(reply.Calls), describeParseInput(reply.Text))

	var result *streetview.AnalysisResult
	if useTools {
		result, err = ParseFunctionCall(reply, req.Options)
	} else {
		result, err = ParseText(reply.Text, req.Options)
	}
	if err != nil {
		return nil, upstream, err
	}
	return result, upstream, nil
}

// Voice 语音指令当前只返回固定确认语
func (s *Service) Voice(ctx context.Context, in streetview.VoiceInput) (*streetview.VoiceReply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.logger.InfoTag("导游", "收到语音输入: session=%s", in.SessionID)
	s.bus.PublishAsync(eventbus.EventVoiceInput, eventbus.VoiceEventData{SessionID: in.SessionID, Source: in.Source})
	return &streetview.VoiceReply{VoiceResponse: streetview.MsgVoiceAck}, nil
}

// Provider returns the configured vision provider name.
func (s *Service) Provider() string {
	return s.provider.Name()
}
