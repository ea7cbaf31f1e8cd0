package tunnel

import (
	"errors"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// Sentinel errors
var (
	// ErrInvalidAddress 隧道地址不合法
	ErrInvalidAddress = types.ErrInvalidTunnelAddress

	// ErrRoomOffline 找不到通往 portal 的路径
	ErrRoomOffline = errors.New("room is offline or unknown")

	// ErrConnectRefused 入站 tunnel.connect 被拒绝
	ErrConnectRefused = errors.New("tunnel: connect refused")

	// ErrMethodNotAllowed 远端未开放该方法
	//
	// 能力探测以此为回退信号，不作为用户可见的失败。
	ErrMethodNotAllowed = errors.New("not in list of allowed methods")

	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("tunnel: transport closed")

	// ErrAlreadyStarted 传输已启动
	ErrAlreadyStarted = errors.New("tunnel: already started")
)
