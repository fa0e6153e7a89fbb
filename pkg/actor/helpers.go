package actor

import (
	"context"

	"github.com/pingcap/errors"

	cerrors "github.com/lwmacct/251216-go-pkg-arbiter/pkg/errors"
)

// ═══════════════════════════════════════════════════════════════════════════
// 通用请求-回复辅助函数
// ═══════════════════════════════════════════════════════════════════════════

// Ask 从循环之外的 goroutine 向 Actor 发送消息并等待类型为 T 的回复
//
// 用法示例:
//
//	cfg, err := actor.Ask[*actor.Config](ctx, arb, actor.ArbiterName, &actor.Run{Spec: spec})
func Ask[T any](ctx context.Context, arb *Arbiter, target string, msg Message) (T, error) {
	var zero T

	v, err := arb.Request(ctx, target, msg)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	result, ok := v.(T)
	if !ok {
		return zero, cerrors.ErrUsage.GenWithStackByArgs("unexpected reply type for " + msg.Kind())
	}
	return result, nil
}

// SpawnSync 从循环之外的 goroutine 启动 Actor 并等待其进入 running
func SpawnSync(ctx context.Context, arb *Arbiter, spec *Spec) (*Config, error) {
	return Ask[*Config](ctx, arb, ArbiterName, &Run{Spec: spec})
}

// KillSync 从循环之外的 goroutine 终止 Actor 并等待其终止
func KillSync(ctx context.Context, arb *Arbiter, name string) error {
	_, err := arb.Request(ctx, ArbiterName, &KillActor{Name: name})
	return err
}

// ═══════════════════════════════════════════════════════════════════════════
// 错误处理工具
// ═══════════════════════════════════════════════════════════════════════════

// IsContextError 检查错误是否为 context 相关错误
func IsContextError(err error) bool {
	cause := errors.Cause(err)
	return cause == context.Canceled || cause == context.DeadlineExceeded
}

// IgnoreContextError 如果是 context 错误则返回 nil
func IgnoreContextError(err error) error {
	if IsContextError(err) {
		return nil
	}
	return err
}
