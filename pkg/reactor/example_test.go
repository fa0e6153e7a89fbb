package reactor_test

import (
	"context"
	"fmt"
	"time"

	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/reactor"
)

// Example_spawn 演示协程等待 Future
func Example_spawn() {
	loop := reactor.NewLoop(nil)
	go func() {
		_ = loop.Run(context.Background())
	}()
	defer func() {
		loop.Stop()
		<-loop.Done()
	}()

	v, err := loop.Invoke(context.Background(), func() *reactor.Future {
		return loop.Spawn(func(co *reactor.Coroutine) (any, error) {
			f := reactor.NewFuture(loop)
			loop.CallLater(time.Millisecond, func() {
				_ = f.Resolve("Hi!")
			})
			return co.Await(f)
		})
	})
	fmt.Println(v, err)

	// Output:
	// Hi! <nil>
}

// Example_multiAsync 演示聚合多个 Future
func Example_multiAsync() {
	loop := reactor.NewLoop(nil)
	go func() {
		_ = loop.Run(context.Background())
	}()
	defer func() {
		loop.Stop()
		<-loop.Done()
	}()

	v, _ := loop.Invoke(context.Background(), func() *reactor.Future {
		return reactor.MultiAsync(loop,
			reactor.Resolved(loop, 1),
			reactor.Resolved(loop, 2),
		)
	})
	fmt.Println(v)

	// Output:
	// [1 2]
}
