package tunnel

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-roomclient/config"
	"github.com/dep2p/go-roomclient/internal/core/identity"
	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/types"
)

// ============================================================================
// Fx 模块
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Keypair  *identity.Keypair
	Registry pkgif.ConnRegistry
	EventBus pkgif.EventBus       `optional:"true"`
	Config   *config.Config       `optional:"true"`
	Handler  pkgif.InboundHandler `name:"inbound_handler" optional:"true"`
}

// ModuleOutput 定义模块输出
type ModuleOutput struct {
	fx.Out

	Transport *Transport
	Rooms     *Rooms
	Service   *Service
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("tunnel",
		fx.Provide(ProvideTransport),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideTransport 提供隧道传输
func ProvideTransport(input ModuleInput) (ModuleOutput, error) {
	cfg := config.DefaultTunnelConfig()
	if input.Config != nil {
		cfg = input.Config.Tunnel
	}

	var opts []Option
	if input.EventBus != nil {
		em, err := input.EventBus.Emitter(new(types.EvtAttendantDiscovered))
		if err != nil {
			return ModuleOutput{}, fmt.Errorf("tunnel: create emitter: %w", err)
		}
		opts = append(opts, WithEmitter(em))
	}
	if input.Handler != nil {
		opts = append(opts, WithInboundHandler(input.Handler))
	}

	t := NewTransport(input.Keypair.ID(), input.Registry, cfg, opts...)
	return ModuleOutput{
		Transport: t,
		Rooms:     t.Rooms(),
		Service:   t.Service(),
	}, nil
}

func registerLifecycle(lc fx.Lifecycle, t *Transport) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return t.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return t.Close()
		},
	})
}
