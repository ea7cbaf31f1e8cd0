package roomclient

import (
	"fmt"
	"net/http"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-roomclient/config"
	"github.com/dep2p/go-roomclient/internal/core/conn"
	"github.com/dep2p/go-roomclient/internal/core/identity"
	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
)

// Option 客户端配置选项
type Option func(*clientConfig) error

// clientConfig 内部选项
type clientConfig struct {
	config *config.Config

	keypair  *identity.Keypair
	registry pkgif.ConnRegistry
	dialer   conn.Dialer
	upgrader conn.Upgrader

	httpClient *http.Client
	clock      clock.Clock
	handler    pkgif.InboundHandler

	userFxOptions []fx.Option
}

func newClientConfig() *clientConfig {
	return &clientConfig{config: config.NewConfig()}
}

// WithConfig 使用完整配置
func WithConfig(cfg *config.Config) Option {
	return func(c *clientConfig) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		c.config = cfg
		return nil
	}
}

// WithKeypair 使用指定身份
func WithKeypair(kp *identity.Keypair) Option {
	return func(c *clientConfig) error {
		if kp == nil {
			return fmt.Errorf("keypair cannot be nil")
		}
		c.keypair = kp
		return nil
	}
}

// WithKeyFile 从密钥文件加载身份，文件不存在时创建
func WithKeyFile(path string) Option {
	return func(c *clientConfig) error {
		c.config.Identity.KeyFile = path
		return nil
	}
}

// WithRegistry 使用外部连接注册表，不再启动内置的 conn 模块
func WithRegistry(reg pkgif.ConnRegistry) Option {
	return func(c *clientConfig) error {
		if reg == nil {
			return fmt.Errorf("registry cannot be nil")
		}
		c.registry = reg
		return nil
	}
}

// WithDialer 设置内置连接注册表使用的拨号器
func WithDialer(d conn.Dialer) Option {
	return func(c *clientConfig) error {
		c.dialer = d
		return nil
	}
}

// WithTunnelUpgrader 设置隧道连接的会话升级函数
//
// 设置后内置连接注册表把 tunnel: 地址交给隧道传输拨号，
// 再由 up 在得到的双工连接上建立 RPC 会话。使用 WithRegistry 时无效。
func WithTunnelUpgrader(up conn.Upgrader) Option {
	return func(c *clientConfig) error {
		if up == nil {
			return fmt.Errorf("upgrader cannot be nil")
		}
		c.upgrader = up
		return nil
	}
}

// WithDataDir 设置数据目录
func WithDataDir(dir string) Option {
	return func(c *clientConfig) error {
		if dir == "" {
			return fmt.Errorf("data dir cannot be empty")
		}
		c.config.Storage.DataDir = dir
		c.config.Storage.InMemory = false
		return nil
	}
}

// WithInMemoryStorage 地址库不落盘
func WithInMemoryStorage() Option {
	return func(c *clientConfig) error {
		c.config.Storage.InMemory = true
		return nil
	}
}

// WithHTTPClient 设置解析别名 URL 使用的 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) error {
		c.httpClient = hc
		return nil
	}
}

// WithClock 设置别名退避使用的时钟
func WithClock(clk clock.Clock) Option {
	return func(c *clientConfig) error {
		c.clock = clk
		return nil
	}
}

// WithInboundHandler 设置入站隧道处理器
func WithInboundHandler(h pkgif.InboundHandler) Option {
	return func(c *clientConfig) error {
		c.handler = h
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(c *clientConfig) error {
		c.userFxOptions = append(c.userFxOptions, opts...)
		return nil
	}
}
