// Package queue 提供基于 edwingeng/deque 的泛型 FIFO 队列
//
// Queue 不加锁，只能在事件循环或其协程上使用。
package queue

import (
	"github.com/edwingeng/deque"
)

// Queue FIFO 队列
type Queue[T any] struct {
	deque deque.Deque
}

// New 创建空队列
func New[T any]() *Queue[T] {
	return &Queue[T]{
		deque: deque.NewDeque(),
	}
}

// Push 追加到队尾
func (q *Queue[T]) Push(elem T) {
	q.deque.PushBack(elem)
}

// Pop 取出队首元素
func (q *Queue[T]) Pop() (T, bool) {
	if q.deque.Empty() {
		var noVal T
		return noVal, false
	}
	return q.deque.PopFront().(T), true
}

// Drain 取出全部元素
func (q *Queue[T]) Drain() []T {
	elems := make([]T, 0, q.deque.Len())
	for !q.deque.Empty() {
		elems = append(elems, q.deque.PopFront().(T))
	}
	return elems
}

// Len 元素个数
func (q *Queue[T]) Len() int {
	return q.deque.Len()
}

// Empty 是否为空
func (q *Queue[T]) Empty() bool {
	return q.deque.Empty()
}
