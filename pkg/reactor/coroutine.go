package reactor

import (
	"runtime"

	"go.uber.org/zap"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
)

// Coroutine 运行在循环之上的可挂起任务
//
// 每个 Coroutine 拥有独立的 goroutine，但只在循环通过 switchIn 交出控制权时运行，
// 运行期间循环 goroutine 阻塞等待，直到协程 Suspend 或返回。
// 循环退出后，挂起中的协程通过 runtime.Goexit 结束。
type Coroutine struct {
	loop *Loop

	resume chan struct{}
	yield  chan struct{}

	// 以下字段只在持有控制权的 goroutine 上读写
	seq      uint64
	armed    bool
	finished bool
	aborted  bool
}

// Go 创建协程并在下一轮循环中开始执行 body
func (l *Loop) Go(body func(co *Coroutine)) *Coroutine {
	co := &Coroutine{
		loop:   l,
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
	}
	go co.main(body)
	l.CallSoon(co.switchIn)
	return co
}

// Spawn 以协程运行 fn，返回其结果的 Future
// fn 返回的错误与 panic 都以 CallableError 交付。
func (l *Loop) Spawn(fn func(co *Coroutine) (any, error)) *Future {
	f := NewFuture(l)
	l.Go(func(co *Coroutine) {
		v, err := co.call(fn)
		if err != nil {
			_ = f.Fail(err)
			return
		}
		_ = f.Resolve(v)
	})
	return f
}

func (co *Coroutine) call(fn func(co *Coroutine) (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = cerrors.FromPanic(r)
		}
	}()
	v, err = fn(co)
	return v, cerrors.WrapCallable(err)
}

func (co *Coroutine) main(body func(co *Coroutine)) {
	select {
	case <-co.resume:
	case <-co.loop.done:
		return
	}
	defer func() {
		if co.aborted {
			return
		}
		if r := recover(); r != nil {
			co.loop.logger.Error("panic in coroutine",
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
		co.finished = true
		co.yield <- struct{}{}
	}()
	body(co)
}

// switchIn 在循环 goroutine 上把控制权交给协程，直到协程让出
func (co *Coroutine) switchIn() {
	if co.finished {
		return
	}
	co.resume <- struct{}{}
	<-co.yield
}

// Loop 返回协程所属的循环
func (co *Coroutine) Loop() *Loop {
	return co.loop
}

// Finished 协程是否已返回
func (co *Coroutine) Finished() bool {
	return co.finished
}

// Suspend 让出控制权，直到 Resumer 返回的函数被调用
// 只能在协程自身的 goroutine 上调用。
func (co *Coroutine) Suspend() {
	co.yield <- struct{}{}
	select {
	case <-co.resume:
	case <-co.loop.done:
		co.aborted = true
		runtime.Goexit()
	}
}

// Resumer 返回唤醒当前这次挂起的函数
//
// 返回的函数可以在任意 goroutine 上调用，只生效一次；
// 协程再次调用 Resumer 后，旧的函数失效。
func (co *Coroutine) Resumer() func() {
	co.seq++
	seq := co.seq
	co.armed = true
	return func() {
		co.loop.CallSoon(func() {
			if !co.armed || co.seq != seq {
				return
			}
			co.armed = false
			co.switchIn()
		})
	}
}

// Await 挂起协程直到 f 完成，返回 f 的结果
func (co *Coroutine) Await(f *Future) (any, error) {
	wake := co.Resumer()
	f.AddCallback(func(*Future) {
		wake()
	})
	co.Suspend()
	return f.Result()
}
