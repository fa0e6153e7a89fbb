package actor

import (
	"time"

	"github.com/lwmacct/251216-go-pkg-arbiter/internal/queue"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/reactor"
)

// envelope 消息信封
// 发送方和接收方共享 reply
type envelope struct {
	target  string
	message Message
	sentAt  time.Time
	reply   *reactor.Future
}

// mailbox FIFO 邮箱，capacity <= 0 时不限容量
type mailbox struct {
	queue    *queue.Queue[*envelope]
	capacity int
}

func newMailbox(capacity int) *mailbox {
	return &mailbox{
		queue:    queue.New[*envelope](),
		capacity: capacity,
	}
}

// push 邮箱已满时返回 false
func (m *mailbox) push(env *envelope) bool {
	if m.capacity > 0 && m.queue.Len() >= m.capacity {
		return false
	}
	m.queue.Push(env)
	return true
}

func (m *mailbox) pop() (*envelope, bool) {
	return m.queue.Pop()
}

func (m *mailbox) drain() []*envelope {
	return m.queue.Drain()
}

func (m *mailbox) len() int {
	return m.queue.Len()
}
