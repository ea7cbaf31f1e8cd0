package tunnel

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrorConn 测试错误流读写都立即失败
func TestErrorConn(t *testing.T) {
	c := NewErrorConn("opts *must* be provided")

	n, err := c.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrConnectRefused)
	assert.Contains(t, err.Error(), "opts *must* be provided")

	n, err = c.Write([]byte("hello"))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrConnectRefused)

	assert.NoError(t, c.Close())
	assert.Equal(t, "error", c.RemoteAddr().Network())
}

// TestAsError 测试流失败转换为 error
func TestAsError(t *testing.T) {
	cause := errors.New("boom")
	assert.Equal(t, cause, AsError(NewErrorConnFromError(cause)))

	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	assert.NoError(t, AsError(a))
}
