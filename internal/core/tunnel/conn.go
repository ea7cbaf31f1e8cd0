package tunnel

import (
	"net"

	"github.com/google/uuid"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// Addr 隧道连接的 net.Addr
type Addr struct {
	types.TunnelAddress
}

var _ net.Addr = Addr{}

// Network 返回 "tunnel"
func (a Addr) Network() string { return types.TunnelScheme }

// Conn 经由房间建立的连接
//
// RemoteAddr 返回 tunnel:<portal>:<peer>，便于上层识别来源。
type Conn struct {
	net.Conn
	id     string
	local  Addr
	remote Addr
}

var _ net.Conn = (*Conn)(nil)

func newConn(inner net.Conn, local, remote types.TunnelAddress) *Conn {
	return &Conn{
		Conn:   inner,
		id:     uuid.NewString(),
		local:  Addr{local},
		remote: Addr{remote},
	}
}

// ID 连接唯一标识
func (c *Conn) ID() string { return c.id }

// LocalAddr 本地隧道地址
func (c *Conn) LocalAddr() net.Addr { return c.local }

// RemoteAddr 对端隧道地址
func (c *Conn) RemoteAddr() net.Addr { return c.remote }

