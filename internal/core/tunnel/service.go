package tunnel

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// ============================================================================
//                              入站服务
// ============================================================================

// Service 本地 tunnel 命名空间
//
// 房间收到别的节点的 tunnel.connect 请求后，会在与本节点的会话上调用 Connect。
type Service struct {
	t *Transport
}

// Service 返回入站服务
func (t *Transport) Service() *Service {
	return &Service{t: t}
}

// Connect 处理经由房间 caller 转发来的连接请求
//
// 返回交给房间的一端；本地的一端带上 tunnel:<caller>:<origin> 地址交给入站处理器。
// 失败时返回 ErrorConn，不返回 error。
func (s *Service) Connect(_ context.Context, caller types.FeedID, opts *types.ConnectOpts) net.Conn {
	if opts == nil {
		return NewErrorConn("opts *must* be provided")
	}
	t := s.t
	if opts.Target != t.localID {
		return NewErrorConn(fmt.Sprintf("cannot connect to %s, it is not this peer", opts.Target))
	}
	if opts.Portal != "" && opts.Portal != caller {
		return NewErrorConn(fmt.Sprintf("portal %s does not match caller %s", opts.Portal, caller))
	}
	o, ok := t.rooms.Get(caller)
	if !ok {
		return NewErrorConn(fmt.Sprintf("cannot connect to %s via %s, it is not a known room", opts.Target, caller))
	}
	if !opts.Origin.Valid() {
		return NewErrorConn(fmt.Sprintf("invalid origin %q", opts.Origin))
	}
	if !t.limiter.Allow(caller) {
		return NewErrorConn(fmt.Sprintf("too many tunnel requests from %s", caller))
	}

	local, remote := net.Pipe()
	if !o.accept(local, opts.Origin) {
		local.Close()
		remote.Close()
		return NewErrorConn("no handler for inbound tunnels")
	}
	logger.Debug("接受入站隧道", "portal", caller.ShortString(), "origin", opts.Origin.ShortString())
	return remote
}

// Ping 返回当前 Unix 毫秒时间
func (s *Service) Ping() int64 {
	return time.Now().UnixMilli()
}

// Manifest 本地 tunnel 命名空间的方法清单
func (s *Service) Manifest() Manifest {
	return TunnelManifest
}

// Permissions 匿名调用方权限
func (s *Service) Permissions() Permissions {
	return TunnelPermissions()
}
