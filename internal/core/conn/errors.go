package conn

import "errors"

var (
	// ErrNoDialer 没有配置拨号器
	ErrNoDialer = errors.New("conn: no dialer configured")

	// ErrClosed 注册表或地址库已关闭
	ErrClosed = errors.New("conn: closed")

	// ErrNotConnected 地址当前没有会话
	ErrNotConnected = errors.New("conn: not connected")
)
