package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := New[int]()
	assert.True(t, q.Empty())

	_, ok := q.Pop()
	assert.False(t, ok)

	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	assert.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.Empty())
}

func TestQueueDrain(t *testing.T) {
	q := New[string]()
	assert.Empty(t, q.Drain())

	q.Push("a")
	q.Push("b")
	q.Push("c")
	assert.Equal(t, []string{"a", "b", "c"}, q.Drain())
	assert.True(t, q.Empty())

	// 取空后仍可继续使用
	q.Push("d")
	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "d", v)
}
