package interfaces

import (
	"context"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// ============================================================================
//                              连接注册表
// ============================================================================

// ConnEventType 连接事件类型
type ConnEventType string

const (
	// ConnEventConnected 连接建立
	ConnEventConnected ConnEventType = "connected"
	// ConnEventDisconnected 连接断开
	ConnEventDisconnected ConnEventType = "disconnected"
)

// ConnEvent 连接注册表发出的事件
type ConnEvent struct {
	Type    ConnEventType
	Address string

	// Key 对端身份，事件格式错误时可能为空
	Key types.FeedID

	// RPC 连接上的会话，仅 connected 事件携带
	RPC RPC
}

// ConnDB 持久化地址库
type ConnDB interface {
	Get(addr string) (types.PeerData, bool)
	Update(addr string, patches ...types.Patch)
	GetAddressForID(id types.FeedID) (string, bool)
	Entries() []types.PeerEntry
}

// ConnHub 活动连接表
type ConnHub interface {
	// Update 修改已连接地址的记录，地址未连接时什么也不做
	Update(addr string, patches ...types.Patch)
	Entries() []types.PeerEntry
}

// ConnRegistry 连接注册表/调度器协作方
//
// 本模块只决定暂存、连接或断开什么，不关心地址如何被实际拨号。
type ConnRegistry interface {
	// Listen 返回实时连接事件，ctx 结束后通道关闭
	Listen(ctx context.Context) <-chan ConnEvent

	Connect(ctx context.Context, addr string) (RPC, error)
	Disconnect(ctx context.Context, addr string) error

	Stage(addr string, data types.PeerData) bool
	Unstage(addr string) bool
	StagingEntries() []types.PeerEntry

	// Remember 持久化一个派生地址，供以后自动连接
	Remember(addr string, data types.PeerData)

	DB() ConnDB
	Hub() ConnHub
}
