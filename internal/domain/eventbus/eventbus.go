package eventbus

import (
	evbus "github.com/asaskevich/EventBus"

	"streetguide-server-go/internal/platform/logging"
)

// Bus 组合同步事件总线与异步 worker 总线
type Bus struct {
	sync   evbus.Bus
	async  *AsyncEventBus
	logger *logging.Logger
}

// New 创建并启动事件总线
func New(workers int, logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	async := NewAsyncEventBus(workers)
	async.onPanic = func(topic string, r any) {
		logger.ErrorTag("事件", "异步事件处理 panic: topic=%s err=%v", topic, r)
	}
	async.Start()

	return &Bus{
		sync:   evbus.New(),
		async:  async,
		logger: logger,
	}
}

// Publish 发布同步事件
func (b *Bus) Publish(topic string, args ...interface{}) {
	if b == nil {
		return
	}
	b.sync.Publish(topic, args...)
}

// PublishAsync 发布异步事件
func (b *Bus) PublishAsync(topic string, args ...interface{}) {
	if b == nil {
		return
	}
	if !b.async.PublishAsync(topic, args...) {
		b.logger.WarnTag("事件", "异步事件被丢弃: topic=%s", topic)
	}
}

// Subscribe 订阅同步事件
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.sync.Subscribe(topic, fn)
}

// SubscribeAsync 订阅异步事件
func (b *Bus) SubscribeAsync(topic string, fn interface{}) error {
	return b.async.SubscribeAsync(topic, fn)
}

// WaitAsync 等待已接收的异步事件处理完成
func (b *Bus) WaitAsync() {
	b.async.WaitAsync()
}

// Shutdown 关闭事件总线，队列中的事件会先处理完
func (b *Bus) Shutdown() {
	if b == nil {
		return
	}
	b.async.Stop()
}
