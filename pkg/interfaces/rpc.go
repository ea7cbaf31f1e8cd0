package interfaces

import (
	"context"
	"net"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// ============================================================================
//                              RPC 会话
// ============================================================================

// Source 远端推送的流
//
// Next 在正常结束时返回 io.EOF。
// Abort 可以重复调用，调用后 Next 尽快返回。
type Source[T any] interface {
	Next(ctx context.Context) (T, error)
	Abort()
}

// RPC 与远端节点的一个已认证 RPC 会话
//
// 方法对应远端暴露的操作。远端未开放某个方法时，
// 调用返回的错误应当满足 errors.Is(err, tunnel.ErrMethodNotAllowed)，
// 或者错误文本以 "not in list of allowed methods" 结尾。
type RPC interface {
	// ID 远端身份
	ID() types.FeedID

	// RoomMetadata room.metadata()
	//
	// 返回 (nil, nil) 表示对方声明自己不是房间。
	RoomMetadata(ctx context.Context) (*types.RoomMetadata, error)

	// TunnelIsRoom tunnel.isRoom()（旧版探测）
	//
	// 返回 (nil, nil) 表示 false；只返回 true 时元数据为空。
	TunnelIsRoom(ctx context.Context) (*types.RoomMetadata, error)

	// RoomAttendants room.attendants() 事件流
	RoomAttendants(ctx context.Context) (Source[types.AttendantsEvent], error)

	// TunnelEndpoints tunnel.endpoints() 旧版快照流
	TunnelEndpoints(ctx context.Context) (Source[[]types.FeedID], error)

	// TunnelConnect tunnel.connect()，返回中继后的双工流
	//
	// 远端失败时可能返回一个读写都立即失败的流，而不是 error。
	TunnelConnect(ctx context.Context, opts types.ConnectOpts) (net.Conn, error)

	// RoomRegisterAlias room.registerAlias()，成功时返回别名 URL
	RoomRegisterAlias(ctx context.Context, alias, signature string) (string, error)

	// RoomRevokeAlias room.revokeAlias()
	RoomRevokeAlias(ctx context.Context, alias string) error

	// Close 请求远端结束会话
	Close(ctx context.Context) error
}

// InboundHandler 接收经由房间到达本节点的连接
type InboundHandler func(conn net.Conn)
