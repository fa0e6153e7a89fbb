package actor

import (
	"context"
	stderrors "errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/reactor"
)

// ============== 测试消息类型 ==============

type PingMessage struct{}

func (p *PingMessage) Kind() string { return "ping" }

type CountMessage struct {
	Value int
}

func (c *CountMessage) Kind() string { return "count" }

type EchoMessage struct {
	Text string
}

func (e *EchoMessage) Kind() string { return "echo" }

type PanicMessage struct{}

func (p *PanicMessage) Kind() string { return "panic" }

// ============== 测试 Actor ==============

// echoBehavior ping 回复 pong，echo 原样返回
func echoBehavior(_ *Context, msg Message) (any, error) {
	switch m := msg.(type) {
	case *PingMessage:
		return "pong", nil
	case *EchoMessage:
		return "Echo: " + m.Text, nil
	case *PanicMessage:
		panic("intentional panic")
	default:
		return nil, cerrors.ErrUnknownCommand.GenWithStackByArgs("echo", msg.Kind())
	}
}

// lifecycleActor 记录启动与停止
type lifecycleActor struct {
	startErr error
	stopErr  error
	started  bool
	stopped  bool
}

func (a *lifecycleActor) OnStart(_ *Context) error {
	a.started = true
	return a.startErr
}

func (a *lifecycleActor) OnStop(_ *Context) error {
	a.stopped = true
	return a.stopErr
}

func (a *lifecycleActor) Receive(ctx *Context, msg Message) (any, error) {
	return echoBehavior(ctx, msg)
}

func spawnEcho(t *testing.T, arb *Arbiter, name string) *Config {
	t.Helper()
	cfg, err := SpawnSync(testContext(t), arb, &Spec{Name: name, Behavior: BehaviorFunc(echoBehavior)})
	require.NoError(t, err)
	return cfg
}

// ============== 测试用例 ==============

func TestSpawnAndSend(t *testing.T) {
	arb := newTestArbiter(t, nil)

	cfg := spawnEcho(t, arb, "echo")
	assert.Equal(t, "echo", cfg.Name)
	assert.NotEmpty(t, cfg.ID)
	assert.Equal(t, 16, cfg.MailboxSize)
	assert.False(t, cfg.StartedAt.IsZero())

	v, err := arb.Request(testContext(t), "echo", &EchoMessage{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Echo: hello", v)

	pong, err := Ask[string](testContext(t), arb, "echo", &PingMessage{})
	require.NoError(t, err)
	assert.Equal(t, "pong", pong)
	assert.Equal(t, 1, arb.Count())
}

func TestSendUnknownTarget(t *testing.T) {
	arb := newTestArbiter(t, nil)

	_, err := arb.Request(testContext(t), "nobody", &PingMessage{})
	assert.True(t, cerrors.ErrUnknownTarget.Equal(err))
	assert.Equal(t, int64(1), arb.Stats().Undeliverable)
}

func TestKillActorThenSend(t *testing.T) {
	arb := newTestArbiter(t, nil)
	spawnEcho(t, arb, "worker")

	require.NoError(t, KillSync(testContext(t), arb, "worker"))
	assert.Equal(t, 0, arb.Count())

	_, err := arb.Request(testContext(t), "worker", &PingMessage{})
	assert.True(t, cerrors.ErrUnknownTarget.Equal(err))
}

func TestKillActorErrors(t *testing.T) {
	arb := newTestArbiter(t, nil)

	err := KillSync(testContext(t), arb, "missing")
	assert.True(t, cerrors.ErrUnknownTarget.Equal(err))

	err = KillSync(testContext(t), arb, ArbiterName)
	assert.True(t, cerrors.ErrUsage.Equal(err))
}

func TestMailboxFIFO(t *testing.T) {
	arb := newTestArbiter(t, nil)

	var received []int
	_, err := SpawnSync(testContext(t), arb, &Spec{
		Name: "counter",
		Behavior: BehaviorFunc(func(_ *Context, msg Message) (any, error) {
			m := msg.(*CountMessage)
			received = append(received, m.Value)
			return m.Value, nil
		}),
	})
	require.NoError(t, err)

	v, err := arb.loop.Invoke(testContext(t), func() *reactor.Future {
		futures := make([]*reactor.Future, 0, 10)
		for i := 0; i < 10; i++ {
			futures = append(futures, arb.Send("counter", &CountMessage{Value: i}))
		}
		return reactor.MultiAsync(arb.loop, futures...)
	})
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, v)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, received)
}

func TestHandlerAwaitKeepsOrder(t *testing.T) {
	arb := newTestArbiter(t, nil)

	var trace []string
	_, err := SpawnSync(testContext(t), arb, &Spec{
		Name: "slow",
		Behavior: BehaviorFunc(func(ctx *Context, msg Message) (any, error) {
			m := msg.(*EchoMessage)
			trace = append(trace, m.Text+":start")
			if m.Text == "first" {
				timer := reactor.NewFuture(arb.loop)
				arb.loop.CallLater(20*time.Millisecond, func() {
					_ = timer.Resolve(nil)
				})
				if _, err := ctx.Await(timer); err != nil {
					return nil, err
				}
			}
			trace = append(trace, m.Text+":end")
			return nil, nil
		}),
	})
	require.NoError(t, err)

	_, err = arb.loop.Invoke(testContext(t), func() *reactor.Future {
		return reactor.MultiAsync(arb.loop,
			arb.Send("slow", &EchoMessage{Text: "first"}),
			arb.Send("slow", &EchoMessage{Text: "second"}),
		)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first:start", "first:end", "second:start", "second:end"}, trace)
}

func TestHandlerError(t *testing.T) {
	arb := newTestArbiter(t, nil)
	boom := stderrors.New("boom")

	_, err := SpawnSync(testContext(t), arb, &Spec{
		Name: "failing",
		Behavior: BehaviorFunc(func(_ *Context, msg Message) (any, error) {
			if _, ok := msg.(*PingMessage); ok {
				return "pong", nil
			}
			return nil, boom
		}),
	})
	require.NoError(t, err)

	_, err = arb.Request(testContext(t), "failing", &EchoMessage{})
	require.Error(t, err)
	assert.True(t, cerrors.IsCallableFailure(err))
	assert.ErrorIs(t, err, boom)

	// 非致命错误不影响 Actor 继续运行
	v, err := arb.Request(testContext(t), "failing", &PingMessage{})
	require.NoError(t, err)
	assert.Equal(t, "pong", v)
}

func TestHandlerEOFIsPlainError(t *testing.T) {
	arb := newTestArbiter(t, nil)

	_, err := SpawnSync(testContext(t), arb, &Spec{
		Name: "reader",
		Behavior: BehaviorFunc(func(*Context, Message) (any, error) {
			return nil, io.EOF
		}),
	})
	require.NoError(t, err)

	_, err = arb.Request(testContext(t), "reader", &PingMessage{})
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)

	var ce *cerrors.CallableError
	require.ErrorAs(t, err, &ce)
	assert.False(t, ce.IsControlSignal())
}

func TestHandlerPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	arb := newTestArbiter(t, zap.New(core))
	spawnEcho(t, arb, "panicky")

	_, err := arb.Request(testContext(t), "panicky", &PanicMessage{})
	var ce *cerrors.CallableError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "intentional panic", ce.Panic())
	assert.Equal(t, 1, logs.FilterMessage("panic in message handler").Len())

	v, err := arb.Request(testContext(t), "panicky", &PingMessage{})
	require.NoError(t, err)
	assert.Equal(t, "pong", v)
}

func TestFatalErrorStopsActor(t *testing.T) {
	arb := newTestArbiter(t, nil)
	boom := stderrors.New("disk gone")

	_, err := SpawnSync(testContext(t), arb, &Spec{
		Name: "fragile",
		Behavior: BehaviorFunc(func(_ *Context, _ Message) (any, error) {
			return nil, Fatal(boom)
		}),
	})
	require.NoError(t, err)

	_, err = arb.Request(testContext(t), "fragile", &PingMessage{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsFatal(err))

	_, err = arb.Request(testContext(t), "fragile", &PingMessage{})
	assert.True(t, cerrors.ErrUnknownTarget.Equal(err))

	names, err := Ask[[]string](testContext(t), arb, ArbiterName, &ListActors{})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestKillDiscardsQueuedMessages(t *testing.T) {
	arb := newTestArbiter(t, nil)

	gate := reactor.NewFuture(arb.loop)
	_, err := SpawnSync(testContext(t), arb, &Spec{
		Name: "busy",
		Behavior: BehaviorFunc(func(ctx *Context, msg Message) (any, error) {
			if _, ok := msg.(*PingMessage); ok {
				return ctx.Await(gate)
			}
			return "handled", nil
		}),
	})
	require.NoError(t, err)

	v, err := arb.loop.Invoke(testContext(t), func() *reactor.Future {
		return arb.loop.Spawn(func(co *reactor.Coroutine) (any, error) {
			first := arb.Send("busy", &PingMessage{})
			queued := arb.Send("busy", &EchoMessage{Text: "late"})
			kill := arb.Kill("busy")
			arb.loop.CallLater(20*time.Millisecond, func() {
				_ = gate.Resolve("released")
			})

			_, killErr := co.Await(kill)
			firstValue, firstErr := co.Await(first)
			_, queuedErr := co.Await(queued)
			return []any{killErr, firstValue, firstErr, queuedErr}, nil
		})
	})
	require.NoError(t, err)

	results := v.([]any)
	assert.Nil(t, results[0])
	assert.Equal(t, "released", results[1])
	assert.Nil(t, results[2])
	assert.True(t, cerrors.ErrActorTerminated.Equal(results[3].(error)))
}

func TestMailboxFull(t *testing.T) {
	arb := newTestArbiter(t, nil)
	_, err := SpawnSync(testContext(t), arb, &Spec{
		Name:        "tiny",
		Behavior:    BehaviorFunc(echoBehavior),
		MailboxSize: 1,
	})
	require.NoError(t, err)

	v, err := arb.loop.Invoke(testContext(t), func() *reactor.Future {
		first := arb.Send("tiny", &PingMessage{})
		second := arb.Send("tiny", &PingMessage{})
		_, secondErr := second.Result()
		return reactor.MultiAsync(arb.loop, first, reactor.Resolved(arb.loop, secondErr))
	})
	require.NoError(t, err)

	results := v.([]any)
	assert.Equal(t, "pong", results[0])
	assert.True(t, cerrors.ErrMailboxFull.Equal(results[1].(error)))
}

func TestSpawnValidation(t *testing.T) {
	arb := newTestArbiter(t, nil)

	for _, name := range []string{"", ArbiterName, "!hidden"} {
		_, err := SpawnSync(testContext(t), arb, &Spec{Name: name, Behavior: BehaviorFunc(echoBehavior)})
		assert.True(t, cerrors.ErrInvalidActorName.Equal(err), "name %q", name)
	}

	_, err := SpawnSync(testContext(t), arb, &Spec{Name: "empty"})
	assert.True(t, cerrors.ErrUsage.Equal(err))

	spawnEcho(t, arb, "dup")
	_, err = SpawnSync(testContext(t), arb, &Spec{Name: "dup", Behavior: BehaviorFunc(echoBehavior)})
	assert.True(t, cerrors.ErrActorExists.Equal(err))
}

func TestStartFailure(t *testing.T) {
	arb := newTestArbiter(t, nil)
	startErr := stderrors.New("no config")
	la := &lifecycleActor{startErr: startErr}

	_, err := SpawnSync(testContext(t), arb, &Spec{Name: "broken", Behavior: la})
	require.Error(t, err)
	assert.ErrorIs(t, err, startErr)
	assert.True(t, la.started)
	assert.False(t, la.stopped)

	names, err := Ask[[]string](testContext(t), arb, ArbiterName, &ListActors{})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStopHook(t *testing.T) {
	arb := newTestArbiter(t, nil)
	stopErr := stderrors.New("flush failed")
	la := &lifecycleActor{stopErr: stopErr}

	_, err := SpawnSync(testContext(t), arb, &Spec{Name: "hooks", Behavior: la})
	require.NoError(t, err)
	assert.True(t, la.started)

	err = KillSync(testContext(t), arb, "hooks")
	assert.ErrorIs(t, err, stopErr)
	assert.True(t, la.stopped)
	assert.Equal(t, 0, arb.Count())
}

func TestListAndInfo(t *testing.T) {
	arb := newTestArbiter(t, nil)
	spawnEcho(t, arb, "b")
	spawnEcho(t, arb, "a")

	names, err := Ask[[]string](testContext(t), arb, ArbiterName, &ListActors{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	_, err = arb.Request(testContext(t), "a", &PingMessage{})
	require.NoError(t, err)

	info, err := Ask[*ActorInfo](testContext(t), arb, ArbiterName, &Info{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, "a", info.Config.Name)
	assert.Equal(t, StateRunning, info.State)
	assert.Equal(t, 0, info.Pending)
	assert.Equal(t, int64(1), info.Stats.MessagesReceived)
	assert.Equal(t, int64(1), info.Stats.MessagesHandled)

	_, err = Ask[*ActorInfo](testContext(t), arb, ArbiterName, &Info{Name: "zzz"})
	assert.True(t, cerrors.ErrUnknownTarget.Equal(err))
}

func TestArbiterUnknownCommand(t *testing.T) {
	arb := newTestArbiter(t, nil)

	_, err := arb.Request(testContext(t), ArbiterName, &PingMessage{})
	assert.True(t, cerrors.ErrUnknownCommand.Equal(err))
}

func TestAskTypeMismatch(t *testing.T) {
	arb := newTestArbiter(t, nil)
	spawnEcho(t, arb, "echo")

	_, err := Ask[int](testContext(t), arb, "echo", &PingMessage{})
	assert.True(t, cerrors.ErrUsage.Equal(err))
}

func TestActorsTalk(t *testing.T) {
	arb := newTestArbiter(t, nil)
	spawnEcho(t, arb, "backend")

	_, err := SpawnSync(testContext(t), arb, &Spec{
		Name: "frontend",
		Behavior: BehaviorFunc(func(ctx *Context, msg Message) (any, error) {
			return ctx.Call("backend", &EchoMessage{Text: "via " + ctx.Name()})
		}),
	})
	require.NoError(t, err)

	v, err := arb.Request(testContext(t), "frontend", &PingMessage{})
	require.NoError(t, err)
	assert.Equal(t, "Echo: via frontend", v)
}

func TestContextStop(t *testing.T) {
	arb := newTestArbiter(t, nil)

	_, err := SpawnSync(testContext(t), arb, &Spec{
		Name: "oneshot",
		Behavior: BehaviorFunc(func(ctx *Context, _ Message) (any, error) {
			ctx.Stop()
			return "bye", nil
		}),
	})
	require.NoError(t, err)

	v, err := arb.Request(testContext(t), "oneshot", &PingMessage{})
	require.NoError(t, err)
	assert.Equal(t, "bye", v)

	_, err = arb.Request(testContext(t), "oneshot", &PingMessage{})
	assert.True(t, cerrors.ErrUnknownTarget.Equal(err))
}

func TestArbiterClose(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	arb := newTestArbiter(t, zap.New(core))
	stopErr := stderrors.New("flush failed")
	first := &lifecycleActor{}
	second := &lifecycleActor{stopErr: stopErr}

	_, err := SpawnSync(testContext(t), arb, &Spec{Name: "first", Behavior: first})
	require.NoError(t, err)
	_, err = SpawnSync(testContext(t), arb, &Spec{Name: "second", Behavior: second})
	require.NoError(t, err)

	ctx := testContext(t)
	_, err = arb.loop.Invoke(ctx, arb.Close)
	assert.ErrorIs(t, err, stopErr)
	assert.True(t, first.stopped)
	assert.True(t, second.stopped)
	assert.Equal(t, 0, arb.Count())

	_, err = arb.loop.Invoke(ctx, arb.Done)
	require.NoError(t, err)

	_, err = arb.Request(ctx, ArbiterName, &ListActors{})
	assert.True(t, cerrors.ErrUnknownTarget.Equal(err))

	stats := arb.Stats()
	assert.Equal(t, int64(2), stats.TotalSpawned)
	assert.Equal(t, 2, logs.FilterMessage("actor spawned").Len())
	assert.Equal(t, 1, logs.FilterMessage("arbiter shutting down").Len())
}

func TestRequestContextCancel(t *testing.T) {
	arb := newTestArbiter(t, nil)

	gate := reactor.NewFuture(arb.loop)
	_, err := SpawnSync(testContext(t), arb, &Spec{
		Name: "stuck",
		Behavior: BehaviorFunc(func(ctx *Context, _ Message) (any, error) {
			return ctx.Await(gate)
		}),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = arb.Request(ctx, "stuck", &PingMessage{})
	assert.True(t, IsContextError(err))
	assert.NoError(t, IgnoreContextError(err))

	_, err = arb.loop.Invoke(testContext(t), func() *reactor.Future {
		return reactor.Resolved(arb.loop, gate.Resolve(nil))
	})
	require.NoError(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.Equal(t, "unknown", State(42).String())
}
