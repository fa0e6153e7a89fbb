package fiber

import (
	"context"
	"time"

	"go.uber.org/zap"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/reactor"
)

// State Fiber 状态
type State int

const (
	// StateIdle 空闲，可以复用
	StateIdle State = iota
	// StateRunning 正在执行任务
	StateRunning
	// StateSuspended 任务正在等待 Future 或 Lock
	StateSuspended
	// StateTerminated 池关闭后终止
	StateTerminated
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Func 提交给 Pool 的任务
// ctx 携带当前 Fiber，可用于 Wait、Lock 等操作
type Func func(ctx context.Context) (any, error)

// Fiber 协作式执行单元，只属于一个 Pool
type Fiber struct {
	id    string
	pool  *Pool
	co    *reactor.Coroutine
	state State
	job   *job
	wake  func()
}

type job struct {
	fn     Func
	result *reactor.Future
}

// ID Fiber 唯一标识
func (f *Fiber) ID() string {
	return f.id
}

// State 当前状态
func (f *Fiber) State() State {
	return f.state
}

func (f *Fiber) main(co *reactor.Coroutine) {
	for {
		j := f.job
		if j == nil {
			if f.state == StateTerminated {
				return
			}
			f.state = StateIdle
			f.wake = co.Resumer()
			co.Suspend()
			continue
		}
		f.job = nil
		f.state = StateRunning
		f.pool.complete(f, j, f.run(j))
	}
}

type outcome struct {
	value any
	err   error
}

func (f *Fiber) run(j *job) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			f.pool.logger.Warn("panic in fiber",
				zap.String("fiber", f.id),
				zap.Any("panic", r),
				zap.Stack("stack"))
			o = outcome{err: cerrors.WrapTask(cerrors.FromPanic(r))}
		}
	}()
	v, err := j.fn(withFiber(f.pool.ctx, f))
	return outcome{value: v, err: cerrors.WrapTask(err)}
}

// assign 交给空闲 Fiber 一个任务
func (f *Fiber) assign(j *job) {
	f.job = j
	f.notify()
}

func (f *Fiber) terminate() {
	f.state = StateTerminated
	f.notify()
}

func (f *Fiber) notify() {
	if f.wake != nil {
		wake := f.wake
		f.wake = nil
		wake()
	}
}

// suspend 在任务中挂起直到 Resumer 被调用
func (f *Fiber) suspend(wait func()) {
	f.state = StateSuspended
	wait()
	f.state = StateRunning
}

// ============== context ==============

type fiberKey struct{}

func withFiber(ctx context.Context, f *Fiber) context.Context {
	return context.WithValue(ctx, fiberKey{}, f)
}

// Current 返回 ctx 所属的 Fiber，不在 Fiber 中时返回 nil
func Current(ctx context.Context) *Fiber {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(fiberKey{}).(*Fiber)
	return f
}

func current(ctx context.Context, op string) (*Fiber, error) {
	f := Current(ctx)
	if f == nil {
		return nil, cerrors.ErrUsage.GenWithStackByArgs(op + " called outside a fiber")
	}
	return f, nil
}

// Wait 挂起当前 Fiber 直到 fut 完成
func Wait(ctx context.Context, fut *reactor.Future) (any, error) {
	f, err := current(ctx, "wait")
	if err != nil {
		return nil, err
	}
	var (
		v    any
		werr error
	)
	f.suspend(func() {
		v, werr = f.co.Await(fut)
	})
	return v, werr
}

// Sleep 挂起当前 Fiber 一段时间，期间循环继续执行其他任务
func Sleep(ctx context.Context, d time.Duration) error {
	f, err := current(ctx, "sleep")
	if err != nil {
		return err
	}
	loop := f.co.Loop()
	timer := reactor.NewFuture(loop)
	loop.CallLater(d, func() {
		_ = timer.Resolve(nil)
	})
	_, err = Wait(ctx, timer)
	return err
}
