package eventbus

import "time"

// 事件类型定义
const (
	// 导游分析相关事件
	EventAnalysisCompleted = "guide:analysis_completed"
	EventAnalysisFallback  = "guide:analysis_fallback"
	EventAnalysisRejected  = "guide:analysis_rejected"
	EventVoiceInput        = "guide:voice_input"

	// 连接相关事件
	EventConnectionOpened = "connection:opened"
	EventConnectionClosed = "connection:closed"
)

// Request sources.
const (
	SourceWebSocket = "ws"
	SourceHTTP      = "http"
)

// AnalysisEventData 分析事件数据
type AnalysisEventData struct {
	SessionID    string        `json:"session_id"`
	Source       string        `json:"source"`
	Provider     string        `json:"provider,omitempty"`
	Duration     time.Duration `json:"duration"`
	Upstream     time.Duration `json:"upstream,omitempty"`
	HasDirection bool          `json:"has_direction"`
	Reason       string        `json:"reason,omitempty"`
}

type VoiceEventData struct {
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
}

type ConnectionEventData struct {
	SessionID  string `json:"session_id"`
	RemoteAddr string `json:"remote_addr,omitempty"`
}
