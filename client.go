package roomclient

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-roomclient/config"
	"github.com/dep2p/go-roomclient/internal/core/alias"
	"github.com/dep2p/go-roomclient/internal/core/identity"
	"github.com/dep2p/go-roomclient/internal/core/tunnel"
	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/lib/log"
	"github.com/dep2p/go-roomclient/pkg/types"
)

var logger = log.Logger("roomclient")

const (
	startTimeout = 30 * time.Second
	stopTimeout  = 15 * time.Second
)

// Client 房间客户端
type Client struct {
	config *clientConfig
	app    *fx.App

	// ────────────────────────────────────────────────────────────────────────
	// 核心组件（由 Fx 注入）
	// ────────────────────────────────────────────────────────────────────────

	keypair   *identity.Keypair
	transport *tunnel.Transport
	service   *tunnel.Service
	alias     *alias.Service
	bus       pkgif.EventBus
	registry  pkgif.ConnRegistry

	mu      sync.Mutex
	started bool
	closed  bool
}

// ════════════════════════════════════════════════════════════════════════════
//                              构造函数
// ════════════════════════════════════════════════════════════════════════════

// New 创建客户端
//
// 创建但不启动，需要调用 Start()。
//
//	client, err := roomclient.New(
//	    roomclient.WithKeyFile("./data/secret"),
//	    roomclient.WithRegistry(registry),
//	)
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	// 默认日志配置已在 log 包初始化时按环境变量生效
	if cfg.config.Log != config.DefaultLogConfig() {
		setupLog(cfg.config.Log)
	}

	c := &Client{config: cfg}
	app, err := buildFxApp(cfg, c)
	if err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	c.app = app
	return c, nil
}

// setupLog 应用日志配置，环境变量优先
func setupLog(cfg config.LogConfig) {
	lc := log.ConfigFromEnv()
	if lc.Level == "" {
		lc.Level = cfg.Level
	}
	if lc.Format == "" {
		lc.Format = cfg.Format
	}
	log.Setup(lc)
}

// Start 快捷启动函数，等价于 New() + Start()
func Start(ctx context.Context, opts ...Option) (*Client, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("start client: %w", err)
	}
	return c, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期
// ════════════════════════════════════════════════════════════════════════════

// Start 启动客户端
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := c.app.Start(startCtx); err != nil {
		logger.Error("客户端启动失败", "error", err)
		return fmt.Errorf("start failed: %w", err)
	}
	c.started = true
	logger.Info("客户端已启动", "id", c.keypair.ID().ShortString())
	return nil
}

// Close 关闭客户端，关闭后不可重新启动
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if !c.started {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := c.app.Stop(ctx); err != nil {
		logger.Warn("客户端关闭失败", "error", err)
		return err
	}
	logger.Info("客户端已关闭")
	return nil
}

func (c *Client) running() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if !c.started {
		return ErrNotStarted
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              基本信息
// ════════════════════════════════════════════════════════════════════════════

// ID 本节点身份
func (c *Client) ID() types.FeedID {
	return c.keypair.ID()
}

// Rooms 当前观察中的房间
func (c *Client) Rooms() *tunnel.Rooms {
	return c.transport.Rooms()
}

// RoomIDs 观察中的房间身份，按字典序排列
func (c *Client) RoomIDs() []types.FeedID {
	return c.transport.Rooms().IDs()
}

// Registry 连接注册表
func (c *Client) Registry() pkgif.ConnRegistry {
	return c.registry
}

// Manifest 本地暴露的命名空间及方法清单
func (c *Client) Manifest() map[string]tunnel.Manifest {
	return map[string]tunnel.Manifest{
		"tunnel":     c.transport.Manifest(),
		"roomClient": alias.Manifest,
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              隧道
// ════════════════════════════════════════════════════════════════════════════

// Dial 经由房间连接 tunnel:<房间>:<目标> 地址
func (c *Client) Dial(ctx context.Context, addr string) (net.Conn, error) {
	if err := c.running(); err != nil {
		return nil, err
	}
	return c.transport.Dial(ctx, addr)
}

// Connect 处理房间 caller 转发来的 tunnel.connect 请求
//
// 失败时返回读写立即失败的流。
func (c *Client) Connect(ctx context.Context, caller types.FeedID, opts *types.ConnectOpts) net.Conn {
	if err := c.running(); err != nil {
		return tunnel.NewErrorConnFromError(err)
	}
	return c.service.Connect(ctx, caller, opts)
}

// Ping tunnel.ping
func (c *Client) Ping() int64 {
	return c.service.Ping()
}

// SetInboundHandler 设置入站隧道处理器
func (c *Client) SetInboundHandler(h pkgif.InboundHandler) {
	c.transport.SetInboundHandler(h)
}

// SubscribeDiscoveredAttendants 订阅经由房间新发现的在场者
func (c *Client) SubscribeDiscoveredAttendants(opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	return c.bus.Subscribe(new(types.EvtAttendantDiscovered), opts...)
}

// ════════════════════════════════════════════════════════════════════════════
//                              别名
// ════════════════════════════════════════════════════════════════════════════

// RegisterAlias 在房间注册别名，返回别名 URL
func (c *Client) RegisterAlias(ctx context.Context, room types.FeedID, name string) (string, error) {
	if err := c.running(); err != nil {
		return "", err
	}
	return c.alias.RegisterAlias(ctx, room, name)
}

// RevokeAlias 撤销别名
func (c *Client) RevokeAlias(ctx context.Context, room types.FeedID, name string) error {
	if err := c.running(); err != nil {
		return err
	}
	return c.alias.RevokeAlias(ctx, room, name)
}

// ConsumeAliasURI 解析别名 URI 并连接别名所有者
func (c *Client) ConsumeAliasURI(ctx context.Context, uri string) (pkgif.RPC, error) {
	if err := c.running(); err != nil {
		return nil, err
	}
	return c.alias.ConsumeAliasURI(ctx, uri)
}

// ConsumeAlias 连接别名所有者
func (c *Client) ConsumeAlias(ctx context.Context, opts alias.ConsumeOpts) (pkgif.RPC, error) {
	if err := c.running(); err != nil {
		return nil, err
	}
	return c.alias.ConsumeAlias(ctx, opts)
}
