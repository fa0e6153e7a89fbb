// Package actor 提供运行在单线程事件循环上的 Actor 模型
//
// 每个 Actor 是独立的执行单元：
// • 拥有私有状态（无需锁保护）
// • 通过 FIFO 邮箱接收消息
// • 消息处理串行化（一次处理一条，处理器等待 Future 时也不会取出下一条）
// • 通过回复 Future 返回处理结果
//
// # 核心组件
//
// [Arbiter] 是根 Actor（名称固定为 "arbiter"），持有全部 Actor 的注册表：
//
//	loop := reactor.NewLoop(nil)
//	arb := actor.NewArbiter(loop, nil)
//	go loop.Run(ctx)
//
// [Behavior] 定义消息处理行为，[BehaviorFunc] 提供函数式快捷方式，
// 可选实现 [Starter] 与 [Stopper] 钩子。
//
// [Arbiter.Send] 立即返回回复 Future；目标不存在、正在停止或已终止时以
// ErrUnknownTarget 失败，邮箱已满时以 ErrMailboxFull 失败。
//
// # Arbiter 命令
//
// Arbiter 只理解封闭的命令集合 [Command]：[Run] 注册并启动 Actor，
// [KillActor] 终止 Actor，[ListActors] 列出名称，[Info] 查询单个 Actor。
//
// # 生命周期
//
// starting → running → stopping → terminated。进入 stopping 后邮箱中剩余的消息被丢弃，
// 回复以 ErrActorTerminated 失败。处理器返回 [Fatal] 标记的错误时 Actor 自行停止。
//
// 循环之外的 goroutine 通过 [Arbiter.Request] 或 [Ask] 与 Actor 交互。
package actor
