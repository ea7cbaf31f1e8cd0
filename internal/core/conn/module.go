package conn

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-roomclient/config"
	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	EventBus pkgif.EventBus
	Config   *config.Config `optional:"true"`
	Dialer   Dialer         `optional:"true"`
}

// ModuleOutput 定义模块输出
type ModuleOutput struct {
	fx.Out

	Registry     *Registry
	ConnRegistry pkgif.ConnRegistry
	DB           *BadgerDB
	Router       *Router
}

// Module 返回 Fx 模块
//
// 提供:
//   - *Registry / pkgif.ConnRegistry: 连接注册表
//   - *BadgerDB: 地址库
//   - *Router: 注册表使用的拨号器，可在启动前注册协议路由
//
// 生命周期:
//   - OnStop: 断开所有会话，关闭地址库
func Module() fx.Option {
	return fx.Module("conn",
		fx.Provide(ProvideRegistry),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideRegistry 打开地址库并创建注册表
func ProvideRegistry(input ModuleInput) (ModuleOutput, error) {
	cfg := config.NewConfig()
	if input.Config != nil {
		cfg = input.Config
	}

	db, err := OpenBadgerDB(DBOptions{
		Path:     cfg.Storage.ConnDBPath(),
		InMemory: cfg.Storage.InMemory,
	})
	if err != nil {
		return ModuleOutput{}, err
	}

	router := NewRouter(input.Dialer)
	reg, err := NewRegistry(db, router, input.EventBus, WithEventBuffer(cfg.Tunnel.EventBuffer))
	if err != nil {
		_ = db.Close()
		return ModuleOutput{}, err
	}

	return ModuleOutput{
		Registry:     reg,
		ConnRegistry: reg,
		DB:           db,
		Router:       router,
	}, nil
}

func registerLifecycle(lc fx.Lifecycle, reg *Registry, db *BadgerDB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("正在关闭连接注册表")
			err := reg.Close(ctx)
			if cerr := db.Close(); cerr != nil {
				logger.Warn("地址库关闭失败", "error", cerr)
				if err == nil {
					err = cerr
				}
			}
			return err
		},
	})
}
