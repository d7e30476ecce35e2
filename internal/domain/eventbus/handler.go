package eventbus

import (
	"streetguide-server-go/internal/platform/logging"
	"streetguide-server-go/internal/platform/observability"
)

// MetricsSubscriber 将领域事件转换为 Prometheus 指标与日志
type MetricsSubscriber struct {
	metrics *observability.Metrics
	logger  *logging.Logger
}

// NewMetricsSubscriber 创建指标订阅者
func NewMetricsSubscriber(metrics *observability.Metrics, logger *logging.Logger) *MetricsSubscriber {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &MetricsSubscriber{metrics: metrics, logger: logger}
}

func (s *MetricsSubscriber) onCompleted(data AnalysisEventData) {
	s.metrics.ObserveAnalysis(data.Source, observability.OutcomeCompleted)
	if data.Provider != "" && data.Upstream > 0 {
		s.metrics.ObserveUpstream(data.Provider, data.Upstream)
	}
	s.logger.DebugTag("事件", "分析完成: session=%s source=%s duration=%s has_direction=%t",
		data.SessionID, data.Source, data.Duration, data.HasDirection)
}

func (s *MetricsSubscriber) onFallback(data AnalysisEventData) {
	s.metrics.ObserveAnalysis(data.Source, observability.OutcomeFallback)
	if data.Provider != "" && data.Upstream > 0 {
		s.metrics.ObserveUpstream(data.Provider, data.Upstream)
	}
	s.logger.DebugTag("事件", "分析降级: session=%s source=%s reason=%s",
		data.SessionID, data.Source, data.Reason)
}

func (s *MetricsSubscriber) onRejected(data AnalysisEventData) {
	s.metrics.ObserveAnalysis(data.Source, observability.OutcomeRejected)
}

func (s *MetricsSubscriber) onVoice(data VoiceEventData) {
	s.metrics.ObserveVoiceInput()
}

func (s *MetricsSubscriber) onOpened(data ConnectionEventData) {
	s.metrics.SessionOpened()
	s.logger.DebugTag("事件", "连接建立: session=%s remote=%s", data.SessionID, data.RemoteAddr)
}

func (s *MetricsSubscriber) onClosed(data ConnectionEventData) {
	s.metrics.SessionClosed()
	s.logger.DebugTag("事件", "连接关闭: session=%s", data.SessionID)
}

// SetupSubscribers 在异步总线上注册指标订阅者
func SetupSubscribers(bus *Bus, metrics *observability.Metrics, logger *logging.Logger) error {
	sub := NewMetricsSubscriber(metrics, logger)

	subscriptions := []struct {
		topic string
		fn    interface{}
	}{
		{EventAnalysisCompleted, sub.onCompleted},
		{EventAnalysisFallback, sub.onFallback},
		{EventAnalysisRejected, sub.onRejected},
		{EventVoiceInput, sub.onVoice},
		{EventConnectionOpened, sub.onOpened},
		{EventConnectionClosed, sub.onClosed},
	}

	for _, s := range subscriptions {
		if err := bus.SubscribeAsync(s.topic, s.fn); err != nil {
			return err
		}
	}
	return nil
}
