package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/semaphore"

	"streetguide-server-go/internal/domain/eventbus"
	"streetguide-server-go/internal/domain/guide"
	"streetguide-server-go/internal/domain/streetview"
	"streetguide-server-go/internal/platform/logging"
)

const (
	defaultMaxInflight = 4
	msgUnsupported     = "无法识别的请求"
)

// HandlerOptions 会话处理器依赖
type HandlerOptions struct {
	Analyzer    guide.Analyzer
	Bus         *eventbus.Bus
	Logger      *logging.Logger
	MaxInflight int64
	Now         func() time.Time
}

// Handler 处理单个 WebSocket 会话上的事件。
// 同一连接上的事件并发处理，并发数受 MaxInflight 限制。
type Handler struct {
	conn     *Connection
	analyzer guide.Analyzer
	bus      *eventbus.Bus
	logger   *logging.Logger
	inflight *semaphore.Weighted
	now      func() time.Time
	wg       sync.WaitGroup
}

var _ SessionHandler = (*Handler)(nil)

// NewHandler 创建会话处理器
func NewHandler(conn *Connection, opts HandlerOptions) *Handler {
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger
	}
	if opts.MaxInflight <= 0 {
		opts.MaxInflight = defaultMaxInflight
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		conn:     conn,
		analyzer: opts.Analyzer,
		bus:      opts.Bus,
		logger:   opts.Logger,
		inflight: semaphore.NewWeighted(opts.MaxInflight),
		now:      opts.Now,
	}
}

// SessionID returns the connection's session id.
func (h *Handler) SessionID() string {
	return h.conn.ID()
}

// Handle 发送连接状态后进入读循环，直到客户端断开或会话被关闭
func (h *Handler) Handle(ctx context.Context) {
	h.send(EventConnectionStatus, ConnectionStatus{Status: "connected", Message: streetview.MsgServiceOnline})

	for {
		_, payload, err := h.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.logger.WarnTag("WebSocket", "读取消息失败: session=%s err=%v", h.SessionID(), err)
			}
			return
		}

		if err := h.inflight.Acquire(ctx, 1); err != nil {
			return
		}
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			defer h.inflight.Release(1)
			h.dispatch(ctx, payload)
		}()
	}
}

// Close waits for in-flight events to finish.
func (h *Handler) Close() {
	h.wg.Wait()
}

func (h *Handler) dispatch(ctx context.Context, payload []byte) {
	var frame Frame
	if err := json.Unmarshal(payload, &frame); err != nil || frame.Event == "" {
		h.logger.WarnTag("WebSocket", "无法解析的消息: session=%s", h.SessionID())
		h.sendError(ErrMalformedFrame, msgUnsupported)
		return
	}

	h.logger.DebugTag("WebSocket", "收到事件: session=%s event=%s", h.SessionID(), frame.Event)

	switch frame.Event {
	case EventAnalyzeStreetview:
		h.handleAnalyze(ctx, frame.Data)
	case EventVoiceInput:
		h.handleVoice(ctx, frame.Data)
	case EventTestConnection:
		h.logger.InfoTag("WebSocket", "测试连接请求来自 %s", h.SessionID())
		h.send(EventTestResponse, TestResponse{
			Status:    "ok",
			Message:   streetview.MsgServiceHealthy,
			Timestamp: h.now().Format(time.RFC3339Nano),
		})
	default:
		h.sendError(fmt.Errorf("%w: %s", ErrUnknownEvent, frame.Event), msgUnsupported)
	}
}

func (h *Handler) handleAnalyze(ctx context.Context, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorTag("WebSocket", "街景分析处理异常: session=%s err=%v", h.SessionID(), r)
			h.send(EventAIResponse, guide.HandlerErrorResult())
		}
	}()

	var payload AnalyzePayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			h.logger.WarnTag("WebSocket", "分析请求格式错误: session=%s err=%v", h.SessionID(), err)
			h.send(EventAIResponse, guide.HandlerErrorResult())
			return
		}
	}

	req := streetview.AnalysisRequest{
		SessionID:      h.SessionID(),
		Source:         eventbus.SourceWebSocket,
		Image:          payload.CurrentImage,
		Options:        payload.AvailableOptions,
		VisitedHistory: payload.VisitedHistory,
		Personality:    payload.Personality,
	}
	if verr := streetview.Validate(req); verr != nil {
		h.bus.PublishAsync(eventbus.EventAnalysisRejected, eventbus.AnalysisEventData{
			SessionID: req.SessionID,
			Source:    req.Source,
			Reason:    verr.Message,
		})
		h.send(EventAIResponse, verr.Notice())
		return
	}

	result, err := h.analyzer.Analyze(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		h.logger.ErrorTag("WebSocket", "街景分析失败: session=%s err=%v", h.SessionID(), err)
		h.send(EventAIResponse, guide.HandlerErrorResult())
		return
	}
	h.send(EventAIResponse, result)
}

func (h *Handler) handleVoice(ctx context.Context, data json.RawMessage) {
	input := streetview.VoiceInput{
		SessionID: h.SessionID(),
		Source:    eventbus.SourceWebSocket,
		Payload:   map[string]any{},
	}
	if len(data) > 0 {
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			h.sendError(err, streetview.MsgVoiceFailed)
			return
		}
		if obj, ok := raw.(map[string]any); ok {
			input.Payload = obj
		} else if raw != nil {
			input.Payload["data"] = raw
		}
	}

	reply, err := h.analyzer.Voice(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		h.logger.ErrorTag("WebSocket", "语音处理失败: session=%s err=%v", h.SessionID(), err)
		h.sendError(err, streetview.MsgVoiceFailed)
		return
	}
	h.send(EventAIResponse, reply)
}

func (h *Handler) send(event string, data any) {
	if err := h.conn.WriteEvent(event, data); err != nil && !h.conn.IsClosed() {
		h.logger.WarnTag("WebSocket", "发送 %s 失败: session=%s err=%v", event, h.SessionID(), err)
	}
}

func (h *Handler) sendError(err error, message string) {
	h.send(EventAIError, ErrorPayload{Error: err.Error(), Message: message})
}
