package alias

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrBadSignature 别名签名验证失败
	ErrBadSignature = errors.New("alias: the signature is wrong")

	// ErrRoomTimeout 等待房间被确认超时
	ErrRoomTimeout = errors.New("timed out waiting for room")

	// ErrUnsupportedURI 无法识别的别名 URI
	ErrUnsupportedURI = errors.New("alias: unsupported URI input")

	// ErrMissingURI URI 为空
	ErrMissingURI = errors.New("alias: missing URI input")
)

// ValidationError 参数校验失败
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bad %s: %s", e.Field, e.Value)
}

// RemoteError 别名服务返回的错误（原文）
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}
