package actor

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/reactor"
)

// Actor Arbiter 管理的执行单元
//
// 除 Name、ID、Stats 外，其余字段只在循环 goroutine 或 Actor 自身的协程上访问。
type Actor struct {
	id       string
	name     string
	behavior Behavior
	arbiter  *Arbiter
	loop     *reactor.Loop
	clk      clock.Clock
	logger   *zap.Logger

	state   State
	mailbox *mailbox
	config  Config
	stats   *StatsCollector

	// wake 在 Actor 空闲等待邮件时有效
	wake func()

	ctx    context.Context
	cancel context.CancelFunc

	started    *reactor.Future
	terminated *reactor.Future
}

func newActor(arb *Arbiter, spec *Spec, mailboxSize int) *Actor {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Actor{
		id:         uuid.NewString(),
		name:       spec.Name,
		behavior:   spec.Behavior,
		arbiter:    arb,
		loop:       arb.loop,
		clk:        arb.clk,
		state:      StateStarting,
		mailbox:    newMailbox(mailboxSize),
		stats:      NewStatsCollector(arb.clk),
		ctx:        ctx,
		cancel:     cancel,
		started:    reactor.NewFuture(arb.loop),
		terminated: reactor.NewFuture(arb.loop),
	}
	a.config = Config{
		ID:          a.id,
		Name:        a.name,
		MailboxSize: mailboxSize,
	}
	a.logger = arb.logger.With(zap.String("actor", a.name), zap.String("id", a.id))
	return a
}

// Name Actor 名称
func (a *Actor) Name() string {
	return a.name
}

// ID Actor 唯一标识
func (a *Actor) ID() string {
	return a.id
}

// State 当前状态
func (a *Actor) State() State {
	return a.state
}

// Config 运行配置
func (a *Actor) Config() Config {
	return a.config
}

// Stats 统计快照，可从任意 goroutine 调用
func (a *Actor) Stats() *ActorStats {
	return a.stats.Stats()
}

// Started 进入 running 后以 *Config 完成，启动失败时以错误完成
func (a *Actor) Started() *reactor.Future {
	return a.started
}

// Terminated 进入 terminated 后完成
func (a *Actor) Terminated() *reactor.Future {
	return a.terminated
}

func (a *Actor) start() {
	a.loop.Go(a.main)
}

// enqueue 投递消息，stopping 或 terminated 的 Actor 视为不存在
func (a *Actor) enqueue(env *envelope) error {
	if a.state == StateStopping || a.state == StateTerminated {
		return cerrors.ErrUnknownTarget.GenWithStackByArgs(a.name)
	}
	if !a.mailbox.push(env) {
		return cerrors.ErrMailboxFull.GenWithStackByArgs(a.name)
	}
	a.stats.RecordReceived()
	a.notify()
	return nil
}

// stop 请求停止，当前消息处理完成后生效
func (a *Actor) stop() {
	if a.state != StateStarting && a.state != StateRunning {
		return
	}
	a.logger.Debug("actor stopping")
	a.state = StateStopping
	a.notify()
}

func (a *Actor) notify() {
	if a.wake != nil {
		wake := a.wake
		a.wake = nil
		wake()
	}
}

func (a *Actor) main(co *reactor.Coroutine) {
	err := a.runStarter(co)
	if err == nil && a.state == StateStarting {
		a.state = StateRunning
		a.config.StartedAt = a.clk.Now()
		cfg := a.config
		_ = a.started.Resolve(&cfg)
		a.logger.Debug("actor started")
		a.serve(co)
	} else if err == nil {
		err = cerrors.ErrActorTerminated.GenWithStackByArgs(a.name, "run")
	}

	if err != nil {
		a.logger.Warn("actor failed to start", zap.Error(err))
		_ = a.started.Fail(err)
		a.state = StateStopping
	}

	a.discard()
	var stopErr error
	if err == nil {
		stopErr = a.runStopper(co)
	}
	a.state = StateTerminated
	a.cancel()
	a.logger.Debug("actor terminated")

	if stopErr != nil {
		_ = a.terminated.Fail(stopErr)
	} else {
		_ = a.terminated.Resolve(nil)
	}
	a.arbiter.exited(a)
}

// serve 在 running 期间逐条处理邮件
func (a *Actor) serve(co *reactor.Coroutine) {
	for a.state == StateRunning {
		env, ok := a.mailbox.pop()
		if !ok {
			a.wake = co.Resumer()
			co.Suspend()
			continue
		}
		a.handle(co, env)
	}
}

func (a *Actor) handle(co *reactor.Coroutine, env *envelope) {
	ctx := &Context{actor: a, co: co, message: env.message}
	start := a.clk.Now()
	v, err := a.receive(ctx, env.message)
	latency := a.clk.Since(start)
	handleDuration.WithLabelValues(a.arbiter.name).Observe(latency.Seconds())

	if err == nil {
		a.stats.RecordHandled(latency)
		messageCounter.WithLabelValues(a.arbiter.name, outcomeHandled).Inc()
		_ = env.reply.Resolve(v)
		return
	}

	fatal := IsFatal(err)
	err = cerrors.WrapCallable(unwrapFatal(err))
	a.stats.RecordError(err, latency)
	messageCounter.WithLabelValues(a.arbiter.name, outcomeFailed).Inc()
	_ = env.reply.Fail(err)
	if fatal {
		a.logger.Warn("fatal error in message handler",
			zap.String("kind", env.message.Kind()),
			zap.Error(err))
		a.stop()
	}
}

func (a *Actor) receive(ctx *Context, msg Message) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic in message handler",
				zap.String("kind", msg.Kind()),
				zap.Any("panic", r),
				zap.Stack("stack"))
			err = cerrors.FromPanic(r)
		}
	}()
	return a.behavior.Receive(ctx, msg)
}

func (a *Actor) runStarter(co *reactor.Coroutine) (err error) {
	starter, ok := a.behavior.(Starter)
	if !ok {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = cerrors.FromPanic(r)
		}
	}()
	return cerrors.WrapCallable(starter.OnStart(&Context{actor: a, co: co}))
}

func (a *Actor) runStopper(co *reactor.Coroutine) (err error) {
	stopper, ok := a.behavior.(Stopper)
	if !ok {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = cerrors.FromPanic(r)
		}
	}()
	return cerrors.WrapCallable(stopper.OnStop(&Context{actor: a, co: co}))
}

// discard 丢弃剩余邮件，回复以 ErrActorTerminated 失败
func (a *Actor) discard() {
	envs := a.mailbox.drain()
	if len(envs) == 0 {
		return
	}
	for _, env := range envs {
		_ = env.reply.Fail(cerrors.ErrActorTerminated.GenWithStackByArgs(a.name, env.message.Kind()))
	}
	a.stats.RecordDropped(len(envs))
	messageCounter.WithLabelValues(a.arbiter.name, outcomeDropped).Add(float64(len(envs)))
	a.logger.Debug("discarded queued messages", zap.Int("count", len(envs)))
}
