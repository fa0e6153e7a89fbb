// Package errors 定义运行时的错误分类
//
// 所有错误类别使用 pingcap/errors 的规范化错误（RFC code 形如 "ARBITER:ErrPoolClosed"），
// 通过 GenWithStackByArgs 生成带堆栈的实例，通过 Equal 判断类别：
//
//	if cerrors.ErrPoolClosed.Equal(err) { ... }
//
// Equal 会沿 Cause() 链查找根因，因此被 [CallableError] 包装后的错误仍可识别。
package errors

import (
	"github.com/pingcap/errors"
)

// errors
var (
	// ErrInvalidState Future 重复完成，或读取尚未完成的 Future
	ErrInvalidState = errors.Normalize(
		"invalid state: %s",
		errors.RFCCodeText("ARBITER:ErrInvalidState"),
	)
	// ErrUnknownTarget 向不存在或已终止的 Actor 发送消息
	ErrUnknownTarget = errors.Normalize(
		"unknown target actor %s",
		errors.RFCCodeText("ARBITER:ErrUnknownTarget"),
	)
	// ErrPoolClosed Fiber 池关闭后继续提交任务
	ErrPoolClosed = errors.Normalize(
		"fiber pool is closed",
		errors.RFCCodeText("ARBITER:ErrPoolClosed"),
	)
	// ErrUsage API 使用方式错误，例如在 Fiber 之外操作 Lock
	ErrUsage = errors.Normalize(
		"usage error: %s",
		errors.RFCCodeText("ARBITER:ErrUsage"),
	)
	ErrMailboxFull = errors.Normalize(
		"mailbox of actor %s is full",
		errors.RFCCodeText("ARBITER:ErrMailboxFull"),
	)
	// ErrActorTerminated Actor 停止时仍在邮箱中排队的消息
	ErrActorTerminated = errors.Normalize(
		"actor %s terminated before handling %s",
		errors.RFCCodeText("ARBITER:ErrActorTerminated"),
	)
	ErrActorExists = errors.Normalize(
		"actor %s already exists",
		errors.RFCCodeText("ARBITER:ErrActorExists"),
	)
	ErrInvalidActorName = errors.Normalize(
		"invalid actor name %q",
		errors.RFCCodeText("ARBITER:ErrInvalidActorName"),
	)
	ErrUnknownCommand = errors.Normalize(
		"actor %s does not understand command %s",
		errors.RFCCodeText("ARBITER:ErrUnknownCommand"),
	)
	ErrLoopClosed = errors.Normalize(
		"event loop is closed",
		errors.RFCCodeText("ARBITER:ErrLoopClosed"),
	)
	ErrLoopRunning = errors.Normalize(
		"event loop is already running",
		errors.RFCCodeText("ARBITER:ErrLoopRunning"),
	)
	ErrInvalidConfig = errors.Normalize(
		"invalid config: %s",
		errors.RFCCodeText("ARBITER:ErrInvalidConfig"),
	)
)
