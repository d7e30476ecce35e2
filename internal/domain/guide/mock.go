package guide

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"streetguide-server-go/internal/domain/eventbus"
	"streetguide-server-go/internal/domain/streetview"
	"streetguide-server-go/internal/platform/logging"
)

type mockScene struct {
	description   string
	detectedText  []string
	landmarks     []string
	voiceResponse string
}

var mockScenes = []mockScene{
	{
		description:   "这里是拉斯维加斯大道的中心地带，我看到华丽的赌场建筑和闪烁的霓虹灯标识。",
		detectedText:  []string{"CASINO", "HOTEL", "WELCOME TO LAS VEGAS", "BUFFET"},
		landmarks:     []string{"贝拉吉奥酒店", "音乐喷泉", "凯撒宫"},
		voiceResponse: "哇！我们现在在著名的拉斯维加斯大道上，前方是贝拉吉奥酒店，以其壮观的音乐喷泉而闻名。让我们向前走去看看那些华丽的建筑吧！",
	},
	{
		description:   "前方有一座现代化的商业建筑，玻璃幕墙反射着周围的灯光。",
		detectedText:  []string{"SHOPPING", "MALL", "OPEN 24/7", "PARKING"},
		landmarks:     []string{"购物中心", "停车场"},
		voiceResponse: "我看到前方有一个大型购物中心，24小时营业呢！里面应该有很多有趣的商店和餐厅。要不要去探索一下？",
	},
	{
		description:   "这里是一个繁忙的十字路口，有很多行人和车辆经过。",
		detectedText:  []string{"STOP", "WALK", "DON'T WALK", "TAXI"},
		landmarks:     []string{"交通信号灯", "人行横道"},
		voiceResponse: "我们来到了一个热闹的十字路口，这里人来人往，很有城市的活力。注意看那些交通标识，这就是典型的美国街道景象。",
	},
}

var mockVoiceReplies = []string{
	"我听到了您的指令，让我为您分析一下周围的环境。",
	"好的，我明白了。让我看看这里有什么有趣的地方。",
	"收到！我会根据您的喜好来选择探索方向。",
	"明白了，让我们继续我们的街景之旅吧！",
}

// MockOptions 模拟服务配置
type MockOptions struct {
	Delay      time.Duration
	VoiceDelay time.Duration
	Bus        *eventbus.Bus
	Logger     *logging.Logger
	Picker     Picker
	Now        func() time.Time
}

// MockService 不调用任何模型，返回预置的拉斯维加斯场景
type MockService struct {
	delay      time.Duration
	voiceDelay time.Duration
	bus        *eventbus.Bus
	logger     *logging.Logger
	pick       Picker
	now        func() time.Time
}

var _ Analyzer = (*MockService)(nil)

// NewMockService 创建模拟服务
func NewMockService(opts MockOptions) *MockService {
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger
	}
	if opts.Picker == nil {
		opts.Picker = RandomPicker
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MockService{
		delay:      opts.Delay,
		voiceDelay: opts.VoiceDelay,
		bus:        opts.Bus,
		logger:     opts.Logger,
		pick:       opts.Picker,
		now:        opts.Now,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Analyze 模拟处理耗时后返回随机场景与随机方向
func (m *MockService) Analyze(ctx context.Context, req streetview.AnalysisRequest) (*streetview.AnalysisResult, error) {
	start := m.now()
	m.logger.InfoTag("导游", "收到来自 %s 的街景分析请求(模拟)", req.SessionID)

	if err := sleep(ctx, m.delay); err != nil {
		return nil, err
	}

	scene := mockScenes[m.pick(len(mockScenes))]
	result := &streetview.AnalysisResult{
		SceneDescription: scene.description,
		DetectedText:     append([]string(nil), scene.detectedText...),
		Landmarks:        append([]string(nil), scene.landmarks...),
		VoiceResponse:    scene.voiceResponse,
	}

	if len(req.Options) > 0 {
		opt := req.Options[m.pick(len(req.Options))]
		desc := opt.Description
		if desc == "" {
			desc = "这个方向"
		}
		result.NextDirection = &streetview.NextDirection{
			PanoID:  opt.PanoID,
			Heading: opt.Heading,
			Reason:  fmt.Sprintf("我觉得%s看起来很有趣，让我们去探索一下吧！", desc),
		}
	}

	now := m.now()
	result.Timestamp = now.Format(time.RFC3339Nano)
	result.AnalysisID = fmt.Sprintf("analysis_%s_%s", req.SessionID,
		strconv.FormatFloat(float64(now.UnixMicro())/1e6, 'f', 6, 64))

	m.bus.PublishAsync(eventbus.EventAnalysisCompleted, eventbus.AnalysisEventData{
		SessionID:    req.SessionID,
		Source:       req.Source,
		Provider:     "mock",
		Duration:     now.Sub(start),
		HasDirection: result.NextDirection != nil,
	})
	m.logger.InfoTag("导游", "发送AI分析结果给 %s (模拟)", req.SessionID)

	return result.Normalize(), nil
}

// Voice 模拟语音识别
func (m *MockService) Voice(ctx context.Context, in streetview.VoiceInput) (*streetview.VoiceReply, error) {
	m.logger.InfoTag("导游", "收到来自 %s 的语音输入(模拟)", in.SessionID)

	if err := sleep(ctx, m.voiceDelay); err != nil {
		return nil, err
	}

	m.bus.PublishAsync(eventbus.EventVoiceInput, eventbus.VoiceEventData{SessionID: in.SessionID, Source: in.Source})
	return &streetview.VoiceReply{
		VoiceResponse:  mockVoiceReplies[m.pick(len(mockVoiceReplies))],
		RecognizedText: streetview.MsgRecognized,
		Timestamp:      m.now().Format(time.RFC3339Nano),
	}, nil
}

// Provider identifies the mock in health output.
func (m *MockService) Provider() string {
	return "mock"
}
