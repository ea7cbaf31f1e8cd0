package conn

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
)

// StreamDialer 建立到地址的原始双工连接
type StreamDialer interface {
	Dial(ctx context.Context, addr string) (net.Conn, error)
}

// Upgrader 在原始连接上建立 RPC 会话
type Upgrader func(ctx context.Context, addr string, c net.Conn) (pkgif.RPC, error)

type route struct {
	dialer  StreamDialer
	upgrade Upgrader
}

// ============================================================================
//                              Router
// ============================================================================

// Router 按地址协议名分派拨号
//
// 注册过的协议先用 StreamDialer 建立双工连接，再由 Upgrader 建立会话；
// 其他地址交给 fallback。路由可以在注册表创建之后再注册。
type Router struct {
	fallback Dialer

	mu     sync.RWMutex
	routes map[string]route
}

var _ Dialer = (*Router)(nil)

// NewRouter 创建路由拨号器，fallback 为 nil 时未注册的协议返回 ErrNoDialer
func NewRouter(fallback Dialer) *Router {
	if fallback == nil {
		fallback = noDialer
	}
	return &Router{fallback: fallback, routes: make(map[string]route)}
}

// Handle 注册协议路由，重复注册时覆盖
func (r *Router) Handle(scheme string, d StreamDialer, up Upgrader) {
	r.mu.Lock()
	r.routes[scheme] = route{dialer: d, upgrade: up}
	r.mu.Unlock()
	logger.Debug("注册拨号路由", "scheme", scheme)
}

// Handles 协议是否已注册
func (r *Router) Handles(scheme string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.routes[scheme]
	return ok
}

// Dial 实现 Dialer
func (r *Router) Dial(ctx context.Context, addr string) (pkgif.RPC, error) {
	scheme, _, _ := strings.Cut(addr, ":")
	r.mu.RLock()
	rt, ok := r.routes[scheme]
	r.mu.RUnlock()
	if !ok {
		return r.fallback.Dial(ctx, addr)
	}

	c, err := rt.dialer.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	rpc, err := rt.upgrade(ctx, addr, c)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("conn: upgrade %s connection: %w", scheme, err)
	}
	return rpc, nil
}
