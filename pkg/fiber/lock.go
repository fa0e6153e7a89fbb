package fiber

import (
	"context"

	"github.com/lwmacct/251216-go-pkg-arbiter/internal/queue"
	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
)

// Lock Fiber 之间的互斥锁
//
// 等待者按 FIFO 顺序获得锁；Release 把所有权直接转交给队首等待者，
// 该等待者在之后的某一轮循环中从 Acquire 返回。锁不可重入。
type Lock struct {
	owner   *Fiber
	waiters *queue.Queue[*waiter]
}

type waiter struct {
	fiber *Fiber
	wake  func()
}

// NewLock 创建互斥锁
func NewLock() *Lock {
	return &Lock{waiters: queue.New[*waiter]()}
}

// Acquire 获取锁，已被占用时挂起当前 Fiber 直到被授予
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	f, err := current(ctx, "lock acquire")
	if err != nil {
		return false, err
	}
	if l.owner == f {
		return false, cerrors.ErrUsage.GenWithStackByArgs("lock is not reentrant")
	}
	if l.owner == nil {
		l.owner = f
		return true, nil
	}

	f.suspend(func() {
		l.waiters.Push(&waiter{fiber: f, wake: f.co.Resumer()})
		f.co.Suspend()
	})
	return true, nil
}

// Release 释放锁，只有持有者可以释放
func (l *Lock) Release(ctx context.Context) error {
	f, err := current(ctx, "lock release")
	if err != nil {
		return err
	}
	if l.owner != f {
		return cerrors.ErrUsage.GenWithStackByArgs("lock released by a fiber that does not hold it")
	}

	if w, ok := l.waiters.Pop(); ok {
		l.owner = w.fiber
		w.wake()
		return nil
	}
	l.owner = nil
	return nil
}

// Locked 返回持有者的 Fiber ID，未被持有时返回空字符串
func (l *Lock) Locked() string {
	if l.owner == nil {
		return ""
	}
	return l.owner.id
}

// Waiters 等待中的 Fiber 数
func (l *Lock) Waiters() int {
	return l.waiters.Len()
}
