package actor

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/reactor"
)

// Message Actor 消息接口
// 所有 Actor 间传递的消息都必须实现此接口
type Message interface {
	// Kind 返回消息类型标识，即命令名，用于路由和监控
	Kind() string
}

// State Actor 生命周期状态
type State int

const (
	// StateStarting 正在执行 OnStart
	StateStarting State = iota
	// StateRunning 正在处理消息
	StateRunning
	// StateStopping 不再接收消息，正在执行 OnStop
	StateStopping
	// StateTerminated 已终止并从注册表移除
	StateTerminated
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Behavior Actor 消息处理行为
// 返回值用于完成发送方的回复 Future，返回错误时回复以失败完成
type Behavior interface {
	Receive(ctx *Context, msg Message) (any, error)
}

// BehaviorFunc 函数式 Behavior，便于快速创建简单 Actor
type BehaviorFunc func(ctx *Context, msg Message) (any, error)

// Receive 实现 Behavior 接口
func (f BehaviorFunc) Receive(ctx *Context, msg Message) (any, error) {
	return f(ctx, msg)
}

// Starter 可选的启动钩子，在 Actor 进入 running 之前执行
// 返回错误时启动失败，run 命令以该错误失败
type Starter interface {
	OnStart(ctx *Context) error
}

// Stopper 可选的停止钩子，在 stopping 状态执行
type Stopper interface {
	OnStop(ctx *Context) error
}

// Spec 创建 Actor 所需的描述
type Spec struct {
	// Name Actor 名称，在 Arbiter 内唯一
	Name string
	// Behavior 消息处理行为
	Behavior Behavior
	// MailboxSize 邮箱容量，<= 0 时使用 Arbiter 默认值
	MailboxSize int
}

// Config Actor 运行配置，run 命令成功后返回
type Config struct {
	ID          string
	Name        string
	MailboxSize int
	StartedAt   time.Time
}

// Context Actor 执行上下文
// 只在当前消息处理期间有效，不要在处理器之外保存
type Context struct {
	actor   *Actor
	co      *reactor.Coroutine
	message Message
}

// Name 当前 Actor 名称
func (c *Context) Name() string {
	return c.actor.name
}

// Arbiter 获取所属 Arbiter
func (c *Context) Arbiter() *Arbiter {
	return c.actor.arbiter
}

// Message 获取当前正在处理的消息，OnStart/OnStop 中为 nil
func (c *Context) Message() Message {
	return c.message
}

// Send 向其他 Actor 发送消息
func (c *Context) Send(target string, msg Message) *reactor.Future {
	return c.actor.arbiter.Send(target, msg)
}

// Await 挂起当前处理器直到 f 完成
// 挂起期间 Actor 不会取出下一条消息
func (c *Context) Await(f *reactor.Future) (any, error) {
	return c.co.Await(f)
}

// Call 发送消息并等待回复
func (c *Context) Call(target string, msg Message) (any, error) {
	return c.Await(c.Send(target, msg))
}

// Context 获取 Go context，Actor 终止时取消
func (c *Context) Context() context.Context {
	return c.actor.ctx
}

// Logger 获取带 Actor 名称字段的日志器
func (c *Context) Logger() *zap.Logger {
	return c.actor.logger
}

// Stop 当前消息处理完成后停止 Actor
func (c *Context) Stop() {
	c.actor.stop()
}

// ============== Arbiter 命令 ==============

// Command Arbiter 能理解的命令集合
// 集合是封闭的，只有本包定义的类型实现它
type Command interface {
	Message
	arbiterCommand()
}

// Run 注册并启动新的 Actor，回复 *Config
type Run struct {
	Spec *Spec
}

// Kind 实现 Message 接口
func (*Run) Kind() string    { return "run" }
func (*Run) arbiterCommand() {}

// KillActor 终止指定 Actor，回复在其终止后完成
type KillActor struct {
	Name string
}

// Kind 实现 Message 接口
func (*KillActor) Kind() string    { return "kill_actor" }
func (*KillActor) arbiterCommand() {}

// ListActors 列出已注册的 Actor 名称，回复排序后的 []string
type ListActors struct{}

// Kind 实现 Message 接口
func (*ListActors) Kind() string    { return "list_actors" }
func (*ListActors) arbiterCommand() {}

// Info 查询单个 Actor，回复 *ActorInfo
type Info struct {
	Name string
}

// Kind 实现 Message 接口
func (*Info) Kind() string    { return "info" }
func (*Info) arbiterCommand() {}

// ActorInfo Info 命令的回复
type ActorInfo struct {
	Config  Config
	State   State
	Pending int
	Stats   *ActorStats
}

// actorExited Actor 自行终止后通知 Arbiter 清理注册表
type actorExited struct {
	actor *Actor
}

func (*actorExited) Kind() string    { return "actor_exited" }
func (*actorExited) arbiterCommand() {}

// shutdown 由 Arbiter.Close 发送
type shutdown struct{}

func (*shutdown) Kind() string    { return "shutdown" }
func (*shutdown) arbiterCommand() {}

// ============== 致命错误 ==============

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Cause() error  { return e.err }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal 标记错误对 Actor 自身是致命的
// 处理器返回致命错误后，回复以该错误失败，Actor 随后进入 stopping。
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal 判断错误是否被 Fatal 标记
func IsFatal(err error) bool {
	var fe *fatalError
	return stderrors.As(err, &fe)
}

func unwrapFatal(err error) error {
	var fe *fatalError
	if stderrors.As(err, &fe) {
		return fe.err
	}
	return err
}

// ============== 通用消息类型 ==============

// SimpleMessage 简单消息，用于快速创建消息
type SimpleMessage struct {
	kind    string
	Payload any
}

// NewSimpleMessage 创建简单消息
func NewSimpleMessage(kind string, payload any) *SimpleMessage {
	return &SimpleMessage{kind: kind, Payload: payload}
}

// Kind 实现 Message 接口
func (m *SimpleMessage) Kind() string { return m.kind }
