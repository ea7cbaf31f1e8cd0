package alias

import (
	"net/http"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-roomclient/config"
	"github.com/dep2p/go-roomclient/internal/core/identity"
	"github.com/dep2p/go-roomclient/internal/core/tunnel"
	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Keypair    *identity.Keypair
	Rooms      *tunnel.Rooms
	Registry   pkgif.ConnRegistry
	Config     *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
	HTTPClient *http.Client   `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("alias",
		fx.Provide(ProvideService),
	)
}

// ProvideService 提供别名服务
func ProvideService(input ModuleInput) *Service {
	cfg := config.DefaultAliasConfig()
	if input.Config != nil {
		cfg = input.Config.Alias
	}
	var opts []Option
	if input.Clock != nil {
		opts = append(opts, WithClock(input.Clock))
	}
	if input.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(input.HTTPClient))
	} else {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout.Duration()}))
	}
	return NewService(input.Keypair, input.Rooms, input.Registry, cfg, opts...)
}
