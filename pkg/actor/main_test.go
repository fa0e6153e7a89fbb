package actor

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/lwmacct/251216-go-pkg-arbiter/pkg/reactor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestArbiter 在后台循环上创建 Arbiter，测试结束时关闭
func newTestArbiter(t *testing.T, logger *zap.Logger) *Arbiter {
	t.Helper()
	loop := reactor.NewLoop(&reactor.LoopConfig{Name: t.Name(), Logger: logger})
	arb := NewArbiter(loop, &ArbiterConfig{Name: "test", MailboxSize: 16})
	go func() {
		_ = loop.Run(context.Background())
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = loop.Invoke(ctx, arb.Close)
		_, _ = loop.Invoke(ctx, arb.Done)
		loop.Stop()
		<-loop.Done()
	})
	return arb
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
