package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"streetguide-server-go/internal/core/providers/vision"
	_ "streetguide-server-go/internal/core/providers/vision/ollama"
	_ "streetguide-server-go/internal/core/providers/vision/openai"
	"streetguide-server-go/internal/domain/eventbus"
	"streetguide-server-go/internal/domain/guide"
	domainimage "streetguide-server-go/internal/domain/image"
	"streetguide-server-go/internal/domain/prompt"
	platformconfig "streetguide-server-go/internal/platform/config"
	platformerrors "streetguide-server-go/internal/platform/errors"
	platformlogging "streetguide-server-go/internal/platform/logging"
	platformobservability "streetguide-server-go/internal/platform/observability"
	httptransport "streetguide-server-go/internal/transport/http"
	httpguide "streetguide-server-go/internal/transport/http/guide"
	"streetguide-server-go/internal/transport/ws"
)

const (
	modeMock            = "mock"
	eventWorkers        = 4
	httpShutdownTimeout = 10 * time.Second
	shutdownTimeout     = 15 * time.Second
)

// Options 启动选项
type Options struct {
	// Mock 使用预置场景，不调用视觉模型
	Mock bool
	// ConfigPath 覆盖 CONFIG_PATH / config.yaml
	ConfigPath string
	// DisableDotEnv 跳过 .env 加载
	DisableDotEnv bool
}

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	opts                  Options
	config                *platformconfig.Config
	configPath            string
	logger                *platformlogging.Logger
	slogger               *slog.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	metrics               *platformobservability.Metrics
	bus                   *eventbus.Bus
	provider              vision.Provider
	providerName          string
	analyzer              guide.Analyzer
	mode                  string
}

// close 按依赖的逆序释放资源
func (s *appState) close() {
	if s.bus != nil {
		s.bus.Shutdown()
	}
	if s.provider != nil {
		if err := s.provider.Close(); err != nil && s.logger != nil {
			s.logger.WarnTag("视觉", "视觉模型未正常关闭: %v", err)
		}
	}
	if s.observabilityShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.observabilityShutdown(shutdownCtx); err != nil && s.logger != nil {
			s.logger.WarnTag("引导", "可观测性未正常关闭: %v", err)
		}
	}
	if s.logger != nil {
		_ = s.logger.Close()
	}
}

// Run 启动整个服务生命周期，负责加载配置、初始化依赖和优雅关停。
func Run(ctx context.Context, opts Options) error {
	state := &appState{opts: opts}
	defer state.close()

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	if state.config == nil || state.logger == nil || state.analyzer == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger/analyzer not initialised",
		)
	}
	logger := state.logger

	logBootstrapGraph(steps, logger)

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return fmt.Errorf("启动 Http 服务失败: %w", err)
	}

	logger.InfoTag("引导", "服务已成功启动 mode=%s provider=%s", state.mode, state.providerName)

	return waitForShutdown(signalCtx, groupCtx, cancel, logger, group)
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	logger.InfoTag("引导", "初始化依赖关系概览")

	stepNames := map[string]string{
		"config:load":               "加载配置",
		"logging:init-provider":     "初始化日志提供者",
		"observability:setup-hooks": "设置可观测性钩子",
		"eventbus:init-subscribers": "初始化事件总线",
		"guide:init-provider":       "初始化视觉模型",
		"guide:init-service":        "初始化导游服务",
	}

	for _, step := range steps {
		name, ok := stepNames[step.ID]
		if !ok {
			name = step.Title
		}
		deps := "-"
		if len(step.DependsOn) > 0 {
			deps = strings.Join(step.DependsOn, ", ")
		}
		logger.InfoTag("引导", "%s (%s) <- %s", name, step.ID, deps)
	}
	logger.InfoTag("引导", "启动服务")
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph 返回按依赖顺序排列的初始化步骤
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "eventbus:init-subscribers",
			Title:     "Initialise event bus",
			DependsOn: []string{"observability:setup-hooks"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "guide:init-provider",
			Title:     "Initialise vision provider",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindConfig,
			Execute:   initProviderStep,
		},
		{
			ID:        "guide:init-service",
			Title:     "Initialise guide service",
			DependsOn: []string{"guide:init-provider", "eventbus:init-subscribers"},
			Kind:      platformerrors.KindDomain,
			Execute:   initGuideStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().
		WithDotEnv(!state.opts.DisableDotEnv).
		WithPath(state.opts.ConfigPath).
		Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load config", err)
	}

	state.config = result.Config
	state.configPath = result.Path
	if state.configPath == "" {
		state.configPath = "defaults"
	}
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logger = logger
	state.slogger = logger.Slog()
	platformlogging.DefaultLogger = logger

	logger.InfoTag(
		"引导",
		"日志模块就绪 [%s] %s",
		state.config.Log.Level,
		state.configPath,
	)
	logger.DebugTag("配置", "当前配置:\n%s", state.config.ToString())
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	if state.logger == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"observability:setup-hooks",
			"config/logger not initialised",
		)
	}

	cfg := platformobservability.Config{
		Enabled: strings.EqualFold(state.config.Log.Level, "debug"),
		Service: "streetguide",
	}

	metrics, shutdown, err := platformobservability.Setup(ctx, cfg, state.slogger)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "observability:setup-hooks", "failed to setup observability hooks", err)
	}
	state.metrics = metrics
	state.observabilityShutdown = shutdown
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	bus := eventbus.New(eventWorkers, state.logger)
	if err := eventbus.SetupSubscribers(bus, state.metrics, state.logger); err != nil {
		bus.Shutdown()
		return platformerrors.Wrap(platformerrors.KindBootstrap, "eventbus:init-subscribers", "failed to subscribe event handlers", err)
	}
	state.bus = bus
	return nil
}

func initProviderStep(_ context.Context, state *appState) error {
	if state.opts.Mock {
		state.providerName = modeMock
		state.logger.InfoTag("视觉", "模拟模式，不创建视觉模型")
		return nil
	}

	name, cfg, ok := state.config.SelectedVLLLM()
	if !ok {
		state.logger.ErrorTag("视觉", "未找到选中的 VLLLM 配置: %q", name)
		return platformerrors.New(platformerrors.KindConfig, "guide:init-provider", fmt.Sprintf("VLLLM provider %q not configured", name))
	}

	provider, err := vision.Create(vision.Config{
		Name:         name,
		Type:         cfg.Type,
		ModelName:    cfg.ModelName,
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		TopP:         cfg.TopP,
		Timeout:      cfg.Timeout,
		Proxy:        state.config.Server.Proxy,
		JSONResponse: cfg.JSONResponse,
	}, state.logger)
	if err != nil {
		state.logger.ErrorTag("视觉", "创建 provider 失败: %v", err)
		return platformerrors.Wrap(platformerrors.KindConfig, "guide:init-provider", "failed to create vision provider", err)
	}

	state.provider = provider
	state.providerName = name
	state.logger.InfoTag("视觉", "视觉模型就绪: %s (%s, %s)", name, cfg.Type, cfg.ModelName)
	return nil
}

func initGuideStep(_ context.Context, state *appState) error {
	guideCfg := state.config.Guide

	if state.opts.Mock {
		state.analyzer = guide.NewMockService(guide.MockOptions{
			Delay:      guideCfg.MockDelay,
			VoiceDelay: guideCfg.VoiceDelay,
			Bus:        state.bus,
			Logger:     state.logger,
		})
		state.mode = modeMock
		return nil
	}

	imageCfg := state.config.Image
	service, err := guide.NewService(guide.Options{
		Decoder:  domainimage.NewDecoder(&imageCfg, state.logger),
		Prompts:  prompt.NewBuilder(guideCfg.LocationHint, guideCfg.HistoryLimit).WithPersonality(guideCfg.Personality),
		Provider: state.provider,
		Mode:     guideCfg.Mode,
		Bus:      state.bus,
		Logger:   state.logger,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindDomain, "guide:init-service", "failed to create guide service", err)
	}

	state.analyzer = service
	state.mode = effectiveMode(service)
	return nil
}

// effectiveMode reports the effective analysis mode after tool support is taken into account.
func effectiveMode(service *guide.Service) string {
	if service.UsesTools() {
		return platformconfig.ModeFunctionCall
	}
	return platformconfig.ModeJSON
}

type httpStack struct {
	engine *gin.Engine
	ws     *ws.Server
}

func buildHTTPStack(state *appState) (*httpStack, error) {
	cfg := state.config
	logger := state.logger

	router, err := httptransport.Build(httptransport.Options{
		Config:  cfg,
		Logger:  logger,
		Metrics: state.metrics,
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "http:build-router", "failed to build router", err)
	}

	guideService, err := httpguide.NewService(httpguide.Options{
		Analyzer:      state.analyzer,
		Info:          httpguide.Info{Mode: state.mode, Provider: state.providerName},
		WebsocketPath: cfg.Web.WebsocketPath,
		Bus:           state.bus,
		Logger:        logger,
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "http:guide-service", "failed to create guide http service", err)
	}

	wsServer := ws.NewServer(ws.ServerConfig{
		Path:             cfg.Web.WebsocketPath,
		HandshakeTimeout: cfg.Transport.WebSocket.HandshakeTimeout,
		MaxMessageBytes:  cfg.Transport.WebSocket.MaxMessageBytes,
		MaxInflight:      cfg.Transport.WebSocket.MaxInflight,
		AllowedOrigins:   cfg.Web.CORSOrigins,
		IdleTimeout:      cfg.Transport.WebSocket.IdleTimeout,
	}, state.analyzer, state.bus, logger)

	guideService.Register(router.Engine)
	wsServer.Register(router.Engine)
	httptransport.RegisterDocs(router.Engine, logger)

	return &httpStack{engine: router.Engine, ws: wsServer}, nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	stack, err := buildHTTPStack(state)
	if err != nil {
		return err
	}
	logger := state.logger
	addr := state.config.Addr()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           stack.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "Gin 服务已启动，访问地址 http://%s", addr)
		logger.InfoTag("HTTP", "WebSocket 入口: ws://%s%s", addr, stack.ws.Path())
		logger.InfoTag("HTTP", "在线文档入口: http://%s/docs", addr)

		go func() {
			<-groupCtx.Done()
			// hijacked websocket connections are not closed by Shutdown
			stack.ws.Stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "HTTP 服务关闭失败: %v", err)
			} else {
				logger.InfoTag("HTTP", "HTTP 服务已优雅关闭")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "HTTP 服务启动失败: %v", err)
			return err
		}
		return nil
	})

	return nil
}

func waitForShutdown(
	signalCtx context.Context,
	groupCtx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	select {
	case <-signalCtx.Done():
		logger.InfoTag("引导", "收到系统信号 %v，正在进行资源清理", context.Cause(signalCtx))
	case <-groupCtx.Done():
		logger.WarnTag("引导", "服务异常退出，正在进行资源清理")
	}

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("引导", "服务关闭过程中出现错误: %v", err)
			return err
		}
		logger.InfoTag("引导", "所有服务已成功关闭")
	case <-time.After(shutdownTimeout):
		logger.ErrorTag("引导", "服务关闭超时，已强制退出")
		return errors.New("服务关闭超时")
	}
	return nil
}
