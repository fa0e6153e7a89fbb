// Package fiber 在单线程事件循环上运行阻塞风格的代码
//
// [Pool] 维护一组可复用的 [Fiber]。Submit 交给空闲 Fiber，或在未达到上限时创建新 Fiber，
// 否则排队等待；调用方立即得到结果 Future：
//
//	pool := fiber.NewPool(loop, nil)
//	fut := pool.Submit(func(ctx context.Context) (any, error) {
//		v, err := fiber.Wait(ctx, fetch())
//		...
//	})
//
// Fiber 内部通过 [Wait] 等待 Future，等待期间让出循环，完成后从原处继续。
// 当前 Fiber 通过 context 传递，[Current] 取出。
//
// [Lock] 是 Fiber 之间的互斥锁，按 FIFO 顺序授予，释放时所有权直接转交给队首等待者。
// 在 Fiber 之外调用 Lock 会返回 ErrUsage。
//
// Pool、Lock 的方法都必须在循环 goroutine 或其协程（包括 Fiber）上调用。
package fiber
