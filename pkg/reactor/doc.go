// Package reactor 提供单线程协作式事件循环
//
// [Loop] 在一个 goroutine 上按 FIFO 顺序执行回调，Actor、Fiber 与 Future 的
// 全部状态变更都发生在这个 goroutine 上，因此无需加锁：
//
//	loop := reactor.NewLoop(nil)
//	go loop.Run(ctx)
//	defer loop.Stop()
//
// [Future] 是单次赋值的异步结果，回调总是在下一轮循环中执行，不会在
// Resolve 调用方的栈上同步执行。
//
// [Coroutine] 是可挂起的执行单元：它拥有自己的 goroutine，但只有在循环把
// 控制权交给它时才运行，直到它 Await 一个 Future 或主动 Suspend 再交还控制权。
// 同一时刻同一个 Loop 上只有一个 goroutine 在执行运行时代码。
//
// [MultiAsync] 聚合多个 Future，结果顺序与输入顺序一致。
//
// 其他 goroutine 通过 [Loop.CallSoon] 或 [Loop.Invoke] 与循环交互。
package reactor
