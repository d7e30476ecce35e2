package guide

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"streetguide-server-go/internal/domain/eventbus"
	domainguide "streetguide-server-go/internal/domain/guide"
	"streetguide-server-go/internal/domain/streetview"
	"streetguide-server-go/internal/platform/errors"
	"streetguide-server-go/internal/platform/logging"
)

const landingHTML = `<!DOCTYPE html>
<html lang="zh-CN">
	<head>
		<meta charset="utf-8" />
		<title>AI 街景导游</title>
	</head>
	<body>
		<h1>AI 街景导游服务</h1>
		<p>WebSocket: <code>%s</code></p>
		<ul>
			<li><a href="/health">/health</a></li>
			<li><a href="/docs">/docs</a></li>
			<li><a href="/metrics">/metrics</a></li>
		</ul>
	</body>
</html>`

// Options 构造 HTTP 导游服务所需依赖
type Options struct {
	Analyzer      domainguide.Analyzer
	Info          Info
	WebsocketPath string
	Bus           *eventbus.Bus
	Logger        *logging.Logger
	Now           func() time.Time
}

// Service 导游服务的 HTTP 传输层实现
type Service struct {
	analyzer domainguide.Analyzer
	info     Info
	wsPath   string
	bus      *eventbus.Bus
	logger   *logging.Logger
	now      func() time.Time
}

// NewService 创建 HTTP 导游服务
func NewService(opts Options) (*Service, error) {
	if opts.Analyzer == nil {
		return nil, errors.New(errors.KindConfig, "http.guide.new", "analyzer is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		analyzer: opts.Analyzer,
		info:     opts.Info,
		wsPath:   opts.WebsocketPath,
		bus:      opts.Bus,
		logger:   opts.Logger,
		now:      opts.Now,
	}, nil
}

// Register 注册导游相关的 HTTP 路由
func (s *Service) Register(router gin.IRoutes) {
	router.GET("/", s.handleIndex)
	router.GET("/health", s.handleHealth)
	router.POST("/analyze", s.handleAnalyze)

	s.logger.InfoTag("HTTP", "导游服务路由注册完成")
}

func (s *Service) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fmt.Sprintf(landingHTML, s.wsPath)))
}

// handleHealth 健康检查
// @Summary 健康检查
// @Description 返回服务状态、运行模式与当前视觉模型
// @Tags Guide
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *Service) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: s.now().Format(time.RFC3339Nano),
		Mode:      s.info.Mode,
		Provider:  s.info.Provider,
	})
}

// handleAnalyze 街景分析
// @Summary 街景分析
// @Description 上传街景截图与可选方向，返回场景描述与下一步推荐方向。AI 调用失败时返回备用响应。
// @Tags Guide
// @Accept json
// @Produce json
// @Param request body AnalyzeRequest true "分析请求"
// @Success 200 {object} streetview.AnalysisResult
// @Failure 400 {object} streetview.Notice
// @Failure 500 {object} streetview.Notice
// @Router /analyze [post]
func (s *Service) handleAnalyze(c *gin.Context) {
	s.logger.InfoTag("HTTP", "收到HTTP分析请求")

	var body AnalyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.logger.WarnTag("HTTP", "HTTP分析请求解析失败: %v", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, streetview.Notice{VoiceResponse: streetview.MsgHTTPFailure})
		return
	}

	req := streetview.AnalysisRequest{
		SessionID:      "http-" + c.ClientIP(),
		Source:         eventbus.SourceHTTP,
		Image:          body.Image,
		Options:        body.Options,
		VisitedHistory: body.VisitedHistory,
		Personality:    body.Personality,
	}
	if verr := streetview.Validate(req); verr != nil {
		s.bus.PublishAsync(eventbus.EventAnalysisRejected, eventbus.AnalysisEventData{
			SessionID: req.SessionID,
			Source:    req.Source,
			Reason:    verr.Message,
		})
		c.JSON(http.StatusBadRequest, verr.Notice())
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		s.logger.ErrorTag("HTTP", "HTTP分析请求失败: %v", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, streetview.Notice{VoiceResponse: streetview.MsgHTTPFailure})
		return
	}

	c.JSON(http.StatusOK, result)
}
