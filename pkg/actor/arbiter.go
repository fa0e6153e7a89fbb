package actor

import (
	"context"
	"sort"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/reactor"
)

// ArbiterName Arbiter 自身作为 Actor 的名称
const ArbiterName = "arbiter"

// ArbiterConfig Arbiter 配置
type ArbiterConfig struct {
	// Name 系统名称，用于日志和监控标签
	Name string
	// MailboxSize 默认 Actor 邮箱大小，<= 0 表示不限
	MailboxSize int
	// Logger 日志器，nil 时使用循环的日志器
	Logger *zap.Logger
}

// DefaultArbiterConfig 默认 Arbiter 配置
func DefaultArbiterConfig() *ArbiterConfig {
	return &ArbiterConfig{
		Name:        "default",
		MailboxSize: 1024,
	}
}

// Arbiter 根 Actor，负责其他 Actor 的创建、查找与终止
//
// 注册表只在 Arbiter 自身的消息处理器中修改。
// Send、Spawn、Kill、Close 必须在循环 goroutine 或其协程上调用，
// 其他 goroutine 使用 Request 或 Ask。
type Arbiter struct {
	name   string
	loop   *reactor.Loop
	clk    clock.Clock
	logger *zap.Logger
	config *ArbiterConfig

	self    *Actor
	actors  map[string]*Actor
	closing bool
	closed  *reactor.Future

	stats systemCounters
}

// NewArbiter 创建 Arbiter，根 Actor 在下一轮循环中启动
func NewArbiter(loop *reactor.Loop, config *ArbiterConfig) *Arbiter {
	def := DefaultArbiterConfig()
	if config == nil {
		config = def
	}
	if config.Name == "" {
		config.Name = def.Name
	}

	logger := config.Logger
	if logger == nil {
		logger = loop.Logger()
	}

	a := &Arbiter{
		name:   config.Name,
		loop:   loop,
		clk:    loop.Clock(),
		logger: logger.With(zap.String("arbiter", config.Name)),
		config: config,
		actors: make(map[string]*Actor),
	}
	a.stats.startTime = a.clk.Now()
	a.self = newActor(a, &Spec{Name: ArbiterName, Behavior: BehaviorFunc(a.receive)}, 0)
	a.self.start()
	a.logger.Info("arbiter created")
	return a
}

// Name 返回系统名称
func (a *Arbiter) Name() string {
	return a.name
}

// Loop 返回 Arbiter 所在的循环
func (a *Arbiter) Loop() *reactor.Loop {
	return a.loop
}

// Send 向 target 发送消息，立即返回回复 Future
// target 为 "arbiter" 时发给 Arbiter 自身。
func (a *Arbiter) Send(target string, msg Message) *reactor.Future {
	reply := reactor.NewFuture(a.loop)
	env := &envelope{
		target:  target,
		message: msg,
		sentAt:  a.clk.Now(),
		reply:   reply,
	}

	cell := a.lookup(target)
	var err error
	if cell == nil {
		err = cerrors.ErrUnknownTarget.GenWithStackByArgs(target)
	} else {
		err = cell.enqueue(env)
	}
	if err != nil {
		a.stats.undeliverable.Inc()
		messageCounter.WithLabelValues(a.name, outcomeUndeliverable).Inc()
		a.logger.Debug("message undeliverable",
			zap.String("target", target),
			zap.String("kind", msg.Kind()),
			zap.Error(err))
		_ = reply.Fail(err)
		return reply
	}
	a.stats.messages.Inc()
	return reply
}

func (a *Arbiter) lookup(name string) *Actor {
	if name == ArbiterName {
		return a.self
	}
	return a.actors[name]
}

// Spawn 注册并启动 Actor，Future 以 *Config 完成
func (a *Arbiter) Spawn(spec *Spec) *reactor.Future {
	return a.Send(ArbiterName, &Run{Spec: spec})
}

// Kill 终止 Actor，Future 在其终止后完成
func (a *Arbiter) Kill(name string) *reactor.Future {
	return a.Send(ArbiterName, &KillActor{Name: name})
}

// Close 终止全部 Actor 后停止 Arbiter 自身
// 重复调用返回同一个 Future。
func (a *Arbiter) Close() *reactor.Future {
	if a.closed == nil {
		a.closed = a.Send(ArbiterName, &shutdown{})
	}
	return a.closed
}

// Done Arbiter 自身终止后完成
func (a *Arbiter) Done() *reactor.Future {
	return a.self.terminated
}

// Request 从循环之外的 goroutine 发送消息并等待回复
func (a *Arbiter) Request(ctx context.Context, target string, msg Message) (any, error) {
	return a.loop.Invoke(ctx, func() *reactor.Future {
		return a.Send(target, msg)
	})
}

// Count 当前注册的 Actor 数，可从任意 goroutine 调用
func (a *Arbiter) Count() int {
	return int(a.stats.active.Load())
}

// Stats 统计快照，可从任意 goroutine 调用
func (a *Arbiter) Stats() SystemStats {
	return a.stats.snapshot()
}

// exited 由 Actor 在终止后调用
func (a *Arbiter) exited(cell *Actor) {
	if cell == a.self {
		a.logger.Info("arbiter terminated")
		return
	}
	a.Send(ArbiterName, &actorExited{actor: cell})
}

// ============== 命令处理 ==============

func (a *Arbiter) receive(ctx *Context, msg Message) (any, error) {
	cmd, ok := msg.(Command)
	if !ok {
		return nil, cerrors.ErrUnknownCommand.GenWithStackByArgs(ArbiterName, msg.Kind())
	}

	switch m := cmd.(type) {
	case *Run:
		return a.handleRun(ctx, m)
	case *KillActor:
		return a.handleKill(ctx, m)
	case *ListActors:
		return a.names(), nil
	case *Info:
		return a.handleInfo(m)
	case *actorExited:
		a.remove(m.actor)
		return nil, nil
	case *shutdown:
		return a.handleShutdown(ctx)
	default:
		return nil, cerrors.ErrUnknownCommand.GenWithStackByArgs(ArbiterName, msg.Kind())
	}
}

// handleRun 注册并等待 Actor 进入 running
// Actor 的 OnStart 不能等待 Arbiter 的回复，否则二者互相等待。
func (a *Arbiter) handleRun(ctx *Context, cmd *Run) (any, error) {
	spec := cmd.Spec
	if spec == nil || spec.Behavior == nil {
		return nil, cerrors.ErrUsage.GenWithStackByArgs("run requires a spec with a behavior")
	}
	if err := ValidateName(spec.Name); err != nil {
		return nil, err
	}
	if a.closing {
		return nil, cerrors.ErrUsage.GenWithStackByArgs("arbiter is closing")
	}
	if existing, ok := a.actors[spec.Name]; ok {
		if existing.state != StateTerminated {
			return nil, cerrors.ErrActorExists.GenWithStackByArgs(spec.Name)
		}
		a.remove(existing)
	}

	size := spec.MailboxSize
	if size <= 0 {
		size = a.config.MailboxSize
	}
	cell := newActor(a, spec, size)
	a.actors[cell.name] = cell
	a.stats.active.Inc()
	activeActors.WithLabelValues(a.name).Inc()
	cell.start()

	cfg, err := ctx.Await(cell.started)
	if err != nil {
		a.remove(cell)
		return nil, err
	}
	a.stats.spawned.Inc()
	a.logger.Info("actor spawned", zap.String("actor", cell.name), zap.String("id", cell.id))
	return cfg, nil
}

func (a *Arbiter) handleKill(ctx *Context, cmd *KillActor) (any, error) {
	if cmd.Name == ArbiterName {
		return nil, cerrors.ErrUsage.GenWithStackByArgs("the arbiter cannot be killed, use Close")
	}
	cell, ok := a.actors[cmd.Name]
	if !ok {
		return nil, cerrors.ErrUnknownTarget.GenWithStackByArgs(cmd.Name)
	}

	cell.stop()
	_, err := ctx.Await(cell.terminated)
	a.remove(cell)
	a.logger.Info("actor killed", zap.String("actor", cell.name), zap.Error(err))
	return nil, err
}

func (a *Arbiter) handleInfo(cmd *Info) (any, error) {
	cell, ok := a.actors[cmd.Name]
	if !ok {
		return nil, cerrors.ErrUnknownTarget.GenWithStackByArgs(cmd.Name)
	}
	return &ActorInfo{
		Config:  cell.config,
		State:   cell.state,
		Pending: cell.mailbox.len(),
		Stats:   cell.Stats(),
	}, nil
}

func (a *Arbiter) handleShutdown(ctx *Context) (any, error) {
	a.closing = true
	a.logger.Info("arbiter shutting down", zap.Int("actors", len(a.actors)))

	names := a.names()
	cells := make([]*Actor, 0, len(names))
	for _, name := range names {
		cell := a.actors[name]
		cell.stop()
		cells = append(cells, cell)
	}

	var errs error
	for _, cell := range cells {
		_, err := ctx.Await(cell.terminated)
		errs = multierr.Append(errs, err)
		a.remove(cell)
	}
	ctx.Stop()
	return nil, errs
}

// remove 只删除仍指向 cell 的注册项
func (a *Arbiter) remove(cell *Actor) {
	if current, ok := a.actors[cell.name]; ok && current == cell {
		delete(a.actors, cell.name)
		a.stats.active.Dec()
		activeActors.WithLabelValues(a.name).Dec()
	}
}

func (a *Arbiter) names() []string {
	names := make([]string, 0, len(a.actors))
	for name := range a.actors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateName 检查 Actor 名称
// 名称不能为空，不能是保留名 "arbiter"，不能以 '!' 开头。
func ValidateName(name string) error {
	if name == "" || name == ArbiterName || strings.HasPrefix(name, "!") {
		return cerrors.ErrInvalidActorName.GenWithStackByArgs(name)
	}
	return nil
}
