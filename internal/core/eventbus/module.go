package eventbus

import (
	"context"

	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"go.uber.org/fx"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	EventBus pkgif.EventBus
	Bus      *Bus
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideEventBus),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideEventBus 提供 EventBus 实例
func ProvideEventBus() Result {
	bus := NewBus()
	return Result{
		EventBus: bus,
		Bus:      bus,
	}
}

func registerLifecycle(lc fx.Lifecycle, bus *Bus) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return bus.Close()
		},
	})
}
