package tunnel

import (
	"fmt"
	"net"
	"time"
)

// ============================================================================
//                              ErrorConn
// ============================================================================

// ErrorConn 一个表示失败的双工流
//
// 远程协议要求同步返回流（即使失败）时使用：
// 读立即返回包装的错误，写不消费任何数据并返回同一错误。
// 构造不做任何 I/O。
type ErrorConn struct {
	err error
}

var _ net.Conn = (*ErrorConn)(nil)

// NewErrorConn 创建错误流，读写都会得到 ErrConnectRefused 包装的 msg
func NewErrorConn(msg string) *ErrorConn {
	return &ErrorConn{err: fmt.Errorf("%w: %s", ErrConnectRefused, msg)}
}

// NewErrorConnFromError 用任意错误创建错误流
func NewErrorConnFromError(err error) *ErrorConn {
	return &ErrorConn{err: err}
}

// Err 返回包装的错误
func (c *ErrorConn) Err() error { return c.err }

// Read 立即返回包装的错误
func (c *ErrorConn) Read([]byte) (int, error) { return 0, c.err }

// Write 不消费数据，返回包装的错误
func (c *ErrorConn) Write([]byte) (int, error) { return 0, c.err }

// Close 无操作
func (c *ErrorConn) Close() error { return nil }

// LocalAddr 返回占位地址
func (c *ErrorConn) LocalAddr() net.Addr { return errorAddr{} }

// RemoteAddr 返回占位地址
func (c *ErrorConn) RemoteAddr() net.Addr { return errorAddr{} }

// SetDeadline 无操作
func (c *ErrorConn) SetDeadline(time.Time) error { return nil }

// SetReadDeadline 无操作
func (c *ErrorConn) SetReadDeadline(time.Time) error { return nil }

// SetWriteDeadline 无操作
func (c *ErrorConn) SetWriteDeadline(time.Time) error { return nil }

type errorAddr struct{}

func (errorAddr) Network() string { return "error" }
func (errorAddr) String() string  { return "error" }

// AsError 把流形式的失败转换为 error
//
// conn 是 ErrorConn 时返回其错误，否则返回 nil。
func AsError(conn net.Conn) error {
	if ec, ok := conn.(*ErrorConn); ok {
		return ec.err
	}
	return nil
}
