package roomclient

import "errors"

// 公共错误定义
var (
	// ErrNotStarted 客户端未启动
	ErrNotStarted = errors.New("roomclient: not started")

	// ErrAlreadyStarted 客户端已启动
	ErrAlreadyStarted = errors.New("roomclient: already started")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("roomclient: closed")
)
