package identity

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-roomclient/config"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config  *config.Config `optional:"true"`
	Keypair *Keypair       `name:"user_keypair" optional:"true"`
}

// ProvideKeypair 提供本地密钥对
//
// 优先使用调用方注入的密钥对；否则从配置的密钥文件加载（不存在则创建）；
// 都没有时生成临时密钥对。
func ProvideKeypair(input ModuleInput) (*Keypair, error) {
	if input.Keypair != nil {
		return input.Keypair, nil
	}
	if input.Config != nil && input.Config.Identity.KeyFile != "" {
		return LoadOrCreateKeyFile(input.Config.Identity.KeyFile)
	}
	return GenerateKeypair()
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideKeypair),
	)
}
