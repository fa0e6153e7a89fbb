package reactor

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edwingeng/deque"
	"github.com/pingcap/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
)

// LoopConfig 事件循环配置
type LoopConfig struct {
	// Name 循环名称，用于日志和监控
	Name string
	// Clock 定时器时钟，测试中可替换为 clock.NewMock()
	Clock clock.Clock
	// Logger 日志器，默认不输出
	Logger *zap.Logger
}

// DefaultLoopConfig 默认循环配置
func DefaultLoopConfig() *LoopConfig {
	return &LoopConfig{
		Name:   "main",
		Clock:  clock.New(),
		Logger: zap.NewNop(),
	}
}

// Loop 单线程事件循环
type Loop struct {
	name   string
	clk    clock.Clock
	logger *zap.Logger

	// mu 保护 ready 与 closed，CallSoon 可以从任意 goroutine 调用
	mu     sync.Mutex
	ready  deque.Deque
	closed bool

	wakeup   chan struct{}
	done     chan struct{}
	running  atomic.Bool
	stopping atomic.Bool
}

// NewLoop 创建事件循环，config 为 nil 时使用默认配置
func NewLoop(config *LoopConfig) *Loop {
	def := DefaultLoopConfig()
	if config == nil {
		config = def
	}
	l := &Loop{
		name:   config.Name,
		clk:    config.Clock,
		logger: config.Logger,
		ready:  deque.NewDeque(),
		wakeup: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if l.name == "" {
		l.name = def.Name
	}
	if l.clk == nil {
		l.clk = def.Clock
	}
	if l.logger == nil {
		l.logger = def.Logger
	}
	l.logger = l.logger.With(zap.String("loop", l.name))
	return l
}

// Name 返回循环名称
func (l *Loop) Name() string {
	return l.name
}

// Clock 返回循环使用的时钟
func (l *Loop) Clock() clock.Clock {
	return l.clk
}

// Logger 返回循环的日志器
func (l *Loop) Logger() *zap.Logger {
	return l.logger
}

// CallSoon 安排 fn 在下一轮循环中执行
// 可从任意 goroutine 调用；循环结束后提交的回调会被丢弃。
func (l *Loop) CallSoon(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.logger.Debug("callback dropped, loop is closed")
		return
	}
	l.ready.PushBack(fn)
	l.mu.Unlock()

	select {
	case l.wakeup <- struct{}{}:
	default:
	}
}

// CallLater 在 d 之后安排 fn 执行，返回的定时器可用于取消
func (l *Loop) CallLater(d time.Duration, fn func()) *clock.Timer {
	return l.clk.AfterFunc(d, func() {
		l.CallSoon(fn)
	})
}

// Run 运行循环直到 Stop 被调用或 ctx 取消
// 一个 Loop 只能运行一次。
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return cerrors.ErrLoopRunning.GenWithStackByArgs()
	}
	defer l.close()

	l.logger.Info("event loop started")
	for {
		n := l.runOnce()
		if l.stopping.Load() {
			l.logger.Info("event loop stopped")
			return nil
		}
		// 每轮检查一次，持续自我调度的回调不能阻止取消
		if err := ctx.Err(); err != nil {
			return l.cancelled(err)
		}
		if n > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return l.cancelled(ctx.Err())
		case <-l.wakeup:
		}
	}
}

func (l *Loop) cancelled(err error) error {
	l.logger.Info("event loop cancelled", zap.Error(err))
	return errors.Trace(err)
}

// runOnce 执行一轮：只处理本轮开始前已就绪的回调
func (l *Loop) runOnce() int {
	l.mu.Lock()
	n := l.ready.Len()
	batch := make([]func(), 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, l.ready.PopFront().(func()))
	}
	l.mu.Unlock()

	for _, fn := range batch {
		l.invoke(fn)
	}
	loopCallbacks.WithLabelValues(l.name).Add(float64(n))
	return n
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			loopPanics.WithLabelValues(l.name).Inc()
			l.logger.Error("panic in loop callback",
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	fn()
}

func (l *Loop) close() {
	l.mu.Lock()
	l.closed = true
	l.ready = deque.NewDeque()
	l.mu.Unlock()
	close(l.done)
}

// Stop 请求循环在当前轮结束后退出
func (l *Loop) Stop() {
	l.stopping.Store(true)
	select {
	case l.wakeup <- struct{}{}:
	default:
	}
}

// Done 循环退出后关闭
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// IsRunning 循环是否正在运行
func (l *Loop) IsRunning() bool {
	select {
	case <-l.done:
		return false
	default:
		return l.running.Load()
	}
}

// Invoke 在循环中执行 fn 并等待其返回的 Future 完成
// 供循环之外的 goroutine 使用，不能在循环或协程内部调用。
func (l *Loop) Invoke(ctx context.Context, fn func() *Future) (any, error) {
	type outcome struct {
		value any
		err   error
	}
	ch := make(chan outcome, 1)
	l.CallSoon(func() {
		fn().AddCallback(func(f *Future) {
			v, err := f.Result()
			ch <- outcome{value: v, err: err}
		})
	})

	select {
	case o := <-ch:
		return o.value, o.err
	case <-ctx.Done():
		return nil, errors.Trace(ctx.Err())
	case <-l.done:
		return nil, cerrors.ErrLoopClosed.GenWithStackByArgs()
	}
}
