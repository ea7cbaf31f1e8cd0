package roomclient

import (
	"github.com/dep2p/go-roomclient/internal/core/alias"
	"github.com/dep2p/go-roomclient/internal/core/identity"
	"github.com/dep2p/go-roomclient/internal/core/tunnel"
	"github.com/dep2p/go-roomclient/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

type (
	// FeedID 节点身份 @<base64>.ed25519
	FeedID = types.FeedID

	// TunnelAddress 隧道地址
	TunnelAddress = types.TunnelAddress

	// ConsumeOpts 消费别名参数
	ConsumeOpts = alias.ConsumeOpts

	// Keypair 本地密钥对
	Keypair = identity.Keypair

	// Manifest 方法清单
	Manifest = tunnel.Manifest

	// Rooms 观察中的房间集合
	Rooms = tunnel.Rooms

	// RoomObserver 单个房间的观察者
	RoomObserver = tunnel.RoomObserver
)

// ParseTunnelAddress 解析 tunnel:<房间>:<目标> 地址
func ParseTunnelAddress(s string) (TunnelAddress, error) {
	return tunnel.Parse(s)
}

// ParseAliasURI 离线解析 ssb:experimental?action=consume-alias URI
func ParseAliasURI(uri string) (*ConsumeOpts, error) {
	return alias.ParseSSBURI(uri)
}

// GenerateKeypair 生成新的身份
func GenerateKeypair() (*Keypair, error) {
	return identity.GenerateKeypair()
}
