package actor

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
)

// ═══════════════════════════════════════════════════════════════════════════
// Actor 统计信息
// ═══════════════════════════════════════════════════════════════════════════

// ActorStats Actor 运行时统计信息
type ActorStats struct {
	// 消息计数
	MessagesReceived int64 // 进入邮箱的消息总数
	MessagesHandled  int64 // 成功处理的消息数
	MessagesDropped  int64 // 终止时丢弃的消息数
	Errors           int64 // 处理器返回错误或 panic 的次数

	// 延迟统计
	TotalLatency   time.Duration // 总延迟（用于计算平均值）
	AverageLatency time.Duration // 平均延迟
	MaxLatency     time.Duration // 最大延迟
	MinLatency     time.Duration // 最小延迟

	// 时间戳
	StartedAt     time.Time // 启动时间
	LastMessageAt time.Time // 最后消息时间
	LastErrorAt   time.Time // 最后错误时间

	// 错误信息
	LastError error // 最后一个错误
}

// Clone 克隆统计信息
func (s *ActorStats) Clone() *ActorStats {
	c := *s
	return &c
}

// ═══════════════════════════════════════════════════════════════════════════
// StatsCollector 统计收集器
// ═══════════════════════════════════════════════════════════════════════════

// StatsCollector 线程安全的统计收集器
// 记录发生在循环上，Stats 可以从任意 goroutine 读取
type StatsCollector struct {
	clk   clock.Clock
	mu    sync.RWMutex
	stats ActorStats
}

// NewStatsCollector 创建统计收集器，clk 为 nil 时使用系统时钟
func NewStatsCollector(clk clock.Clock) *StatsCollector {
	if clk == nil {
		clk = clock.New()
	}
	c := &StatsCollector{clk: clk}
	c.Reset()
	return c
}

// RecordReceived 记录接收消息
func (c *StatsCollector) RecordReceived() {
	c.mu.Lock()
	c.stats.MessagesReceived++
	c.stats.LastMessageAt = c.clk.Now()
	c.mu.Unlock()
}

// RecordHandled 记录成功处理消息
func (c *StatsCollector) RecordHandled(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.MessagesHandled++
	c.recordLatency(latency)
}

// RecordError 记录处理失败
func (c *StatsCollector) RecordError(err error, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Errors++
	c.stats.LastError = err
	c.stats.LastErrorAt = c.clk.Now()
	c.recordLatency(latency)
}

// RecordDropped 记录终止时丢弃的消息
func (c *StatsCollector) RecordDropped(n int) {
	c.mu.Lock()
	c.stats.MessagesDropped += int64(n)
	c.mu.Unlock()
}

func (c *StatsCollector) recordLatency(latency time.Duration) {
	c.stats.TotalLatency += latency

	if done := c.stats.MessagesHandled + c.stats.Errors; done > 0 {
		c.stats.AverageLatency = c.stats.TotalLatency / time.Duration(done)
	}
	if latency > c.stats.MaxLatency {
		c.stats.MaxLatency = latency
	}
	if latency < c.stats.MinLatency {
		c.stats.MinLatency = latency
	}
}

// Stats 获取统计快照
func (c *StatsCollector) Stats() *ActorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats.Clone()
	if s.MessagesHandled+s.Errors == 0 {
		s.MinLatency = 0
	}
	return s
}

// Reset 重置统计
func (c *StatsCollector) Reset() {
	c.mu.Lock()
	c.stats = ActorStats{
		StartedAt:  c.clk.Now(),
		MinLatency: time.Duration(1<<63 - 1), // 最大值，确保第一次会被更新
	}
	c.mu.Unlock()
}

// ═══════════════════════════════════════════════════════════════════════════
// Arbiter 统计
// ═══════════════════════════════════════════════════════════════════════════

// SystemStats Arbiter 统计快照
type SystemStats struct {
	ActiveActors  int64 // 当前注册的 Actor 数
	TotalSpawned  int64 // 成功启动的 Actor 总数
	TotalMessages int64 // 成功投递的消息数
	Undeliverable int64 // 因目标不存在或邮箱已满而失败的发送数
	StartTime     time.Time
}

type systemCounters struct {
	active        atomic.Int64
	spawned       atomic.Int64
	messages      atomic.Int64
	undeliverable atomic.Int64
	startTime     time.Time
}

func (c *systemCounters) snapshot() SystemStats {
	return SystemStats{
		ActiveActors:  c.active.Load(),
		TotalSpawned:  c.spawned.Load(),
		TotalMessages: c.messages.Load(),
		Undeliverable: c.undeliverable.Load(),
		StartTime:     c.startTime,
	}
}
