package roomclient

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-roomclient/internal/core/alias"
	"github.com/dep2p/go-roomclient/internal/core/conn"
	"github.com/dep2p/go-roomclient/internal/core/eventbus"
	"github.com/dep2p/go-roomclient/internal/core/identity"
	"github.com/dep2p/go-roomclient/internal/core/tunnel"
	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/types"
)

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. Identity → EventBus
//  2. Conn（未注入外部注册表时）
//  3. Tunnel → Alias
//  4. 设置了隧道升级函数时，tunnel: 地址路由到隧道传输
func buildFxApp(cfg *clientConfig, c *Client) (*fx.App, error) {
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(cfg.config),

		identity.Module(),
		eventbus.Module(),
	}

	if cfg.keypair != nil {
		modules = append(modules, fx.Supply(fx.Annotated{Name: "user_keypair", Target: cfg.keypair}))
	}

	if cfg.registry != nil {
		reg := cfg.registry
		modules = append(modules, fx.Provide(func() pkgif.ConnRegistry { return reg }))
	} else {
		if cfg.dialer != nil {
			d := cfg.dialer
			modules = append(modules, fx.Provide(func() conn.Dialer { return d }))
		}
		modules = append(modules, conn.Module())
		if cfg.upgrader != nil {
			up := cfg.upgrader
			modules = append(modules, fx.Invoke(func(r *conn.Router, t *tunnel.Transport) {
				r.Handle(types.TunnelScheme, t, up)
			}))
		}
	}

	if cfg.handler != nil {
		modules = append(modules, fx.Supply(fx.Annotated{Name: "inbound_handler", Target: cfg.handler}))
	}
	if cfg.httpClient != nil {
		modules = append(modules, fx.Supply(cfg.httpClient))
	}
	if cfg.clock != nil {
		clk := cfg.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}

	modules = append(modules,
		tunnel.Module(),
		alias.Module(),
	)

	if len(cfg.userFxOptions) > 0 {
		modules = append(modules, cfg.userFxOptions...)
	}

	modules = append(modules,
		fx.Populate(&c.keypair, &c.transport, &c.service, &c.alias, &c.bus, &c.registry),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}
