package streetview

import "errors"

// Client-facing messages.
const (
	MsgMissingImage   = "没有收到图像数据，请重试"
	MsgMissingOptions = "没有可选的探索方向"
	MsgHTTPFailure    = "分析过程中出现错误，请稍后重试"
	MsgServiceOnline  = "AI导游服务已连接"
	MsgServiceHealthy = "AI导游服务运行正常"
	MsgVoiceAck       = "我听到了您的指令，让我继续为您分析街景环境。"
	MsgRecognized     = "用户语音指令已识别"
	MsgAnalysisFailed = "AI分析出现错误，请稍后重试"
	MsgVoiceFailed    = "语音处理出现错误"
)

// ErrInvalidRequest marks a request rejected before analysis.
var ErrInvalidRequest = errors.New("invalid analysis request")

// ValidationError carries the message to show the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// Notice converts the error into the reply shape.
func (e *ValidationError) Notice() Notice {
	return Notice{VoiceResponse: e.Message}
}

// Validate checks the request for an image and at least one option, in that order.
func Validate(req AnalysisRequest) *ValidationError {
	if req.TrimmedImage() == "" {
		return &ValidationError{Message: MsgMissingImage}
	}
	if len(req.Options) == 0 {
		return &ValidationError{Message: MsgMissingOptions}
	}
	return nil
}
