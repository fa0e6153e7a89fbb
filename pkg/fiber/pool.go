package fiber

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lwmacct/251216-go-pkg-arbiter/internal/queue"
	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/reactor"
)

// DefaultMaxWorkers 默认 Fiber 数上限
const DefaultMaxWorkers = 100

// Config Pool 配置
type Config struct {
	// Name 池名称，用于日志和监控标签
	Name string
	// MaxWorkers Fiber 数上限，<= 0 时使用 DefaultMaxWorkers
	MaxWorkers int
	// Logger 日志器，nil 时使用循环的日志器
	Logger *zap.Logger
}

// DefaultConfig 默认 Pool 配置
func DefaultConfig() *Config {
	return &Config{
		Name:       "default",
		MaxWorkers: DefaultMaxWorkers,
	}
}

// Pool 弹性、有上限的 Fiber 池
//
// 任意时刻 Available()+Busy() <= MaxWorkers()。
// 任务完成后 Fiber 优先接手排队中的任务，否则回到空闲集合。
type Pool struct {
	name       string
	loop       *reactor.Loop
	logger     *zap.Logger
	maxWorkers int

	available *queue.Queue[*Fiber]
	busy      map[string]*Fiber
	pending   *queue.Queue[*job]

	closing bool
	closed  *reactor.Future

	// ctx 传给每个任务，池关闭完成后取消
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool 创建 Fiber 池，config 为 nil 时使用默认配置
func NewPool(loop *reactor.Loop, config *Config) *Pool {
	def := DefaultConfig()
	if config == nil {
		config = def
	}
	p := &Pool{
		name:       config.Name,
		loop:       loop,
		logger:     config.Logger,
		maxWorkers: config.MaxWorkers,
		available:  queue.New[*Fiber](),
		busy:       make(map[string]*Fiber),
		pending:    queue.New[*job](),
	}
	if p.name == "" {
		p.name = def.Name
	}
	if p.maxWorkers <= 0 {
		p.maxWorkers = def.MaxWorkers
	}
	if p.logger == nil {
		p.logger = loop.Logger()
	}
	p.logger = p.logger.With(zap.String("pool", p.name))
	p.ctx, p.cancel = context.WithCancel(context.Background())
	return p
}

// Submit 提交任务并立即返回结果 Future
//
// 有空闲 Fiber 时直接交给它；未达到上限时创建新 Fiber；否则排队。
// 任务在下一轮循环开始执行。池关闭后提交以 ErrPoolClosed 失败。
func (p *Pool) Submit(fn Func) *reactor.Future {
	result := reactor.NewFuture(p.loop)
	if p.closing {
		submissions.WithLabelValues(p.name, outcomeRejected).Inc()
		_ = result.Fail(cerrors.ErrPoolClosed.GenWithStackByArgs())
		return result
	}

	j := &job{fn: fn, result: result}
	switch {
	case !p.available.Empty():
		f, _ := p.available.Pop()
		p.busy[f.id] = f
		f.assign(j)
	case p.Len() < p.maxWorkers:
		f := p.spawn(j)
		p.busy[f.id] = f
	default:
		p.pending.Push(j)
	}
	p.updateGauges()
	return result
}

// Wrap 返回一个每次调用都提交 fn 的函数
func (p *Pool) Wrap(fn Func) func() *reactor.Future {
	return func() *reactor.Future {
		return p.Submit(fn)
	}
}

func (p *Pool) spawn(j *job) *Fiber {
	f := &Fiber{
		id:    uuid.NewString(),
		pool:  p,
		state: StateRunning,
		job:   j,
	}
	f.co = p.loop.Go(f.main)
	spawnedFibers.WithLabelValues(p.name).Inc()
	p.logger.Debug("fiber spawned", zap.String("fiber", f.id), zap.Int("size", p.Len()+1))
	return f
}

// complete 在 Fiber 的协程上调用
func (p *Pool) complete(f *Fiber, j *job, o outcome) {
	if o.err != nil {
		submissions.WithLabelValues(p.name, outcomeFailed).Inc()
		_ = j.result.Fail(o.err)
	} else {
		submissions.WithLabelValues(p.name, outcomeResolved).Inc()
		_ = j.result.Resolve(o.value)
	}

	if next, ok := p.pending.Pop(); ok {
		f.job = next
		p.updateGauges()
		return
	}
	delete(p.busy, f.id)
	f.state = StateIdle
	p.available.Push(f)
	p.updateGauges()
	p.tryFinishShutdown()
}

// Shutdown 拒绝新的提交，等待执行中和排队中的任务完成后终止全部 Fiber
// 重复调用返回同一个 Future。
func (p *Pool) Shutdown() *reactor.Future {
	if p.closed != nil {
		return p.closed
	}
	p.closing = true
	p.closed = reactor.NewFuture(p.loop)
	p.logger.Info("fiber pool shutting down",
		zap.Int("busy", len(p.busy)),
		zap.Int("pending", p.pending.Len()))
	p.tryFinishShutdown()
	return p.closed
}

func (p *Pool) tryFinishShutdown() {
	if !p.closing || p.closed.Done() || len(p.busy) > 0 || !p.pending.Empty() {
		return
	}
	for _, f := range p.available.Drain() {
		f.terminate()
	}
	p.cancel()
	p.updateGauges()
	p.logger.Info("fiber pool terminated")
	_ = p.closed.Resolve(nil)
}

// Closed 是否已请求关闭
func (p *Pool) Closed() bool {
	return p.closing
}

// Available 空闲 Fiber 数
func (p *Pool) Available() int {
	return p.available.Len()
}

// AvailableIDs 空闲 Fiber 的 ID，按复用顺序排列
func (p *Pool) AvailableIDs() []string {
	fibers := p.available.Drain()
	ids := make([]string, 0, len(fibers))
	for _, f := range fibers {
		ids = append(ids, f.id)
		p.available.Push(f)
	}
	return ids
}

// Busy 正在执行任务的 Fiber 数
func (p *Pool) Busy() int {
	return len(p.busy)
}

// Len Fiber 总数
func (p *Pool) Len() int {
	return p.available.Len() + len(p.busy)
}

// Pending 排队中的任务数
func (p *Pool) Pending() int {
	return p.pending.Len()
}

// MaxWorkers Fiber 数上限
func (p *Pool) MaxWorkers() int {
	return p.maxWorkers
}

func (p *Pool) updateGauges() {
	availableFibers.WithLabelValues(p.name).Set(float64(p.available.Len()))
	busyFibers.WithLabelValues(p.name).Set(float64(len(p.busy)))
	pendingJobs.WithLabelValues(p.name).Set(float64(p.pending.Len()))
}
