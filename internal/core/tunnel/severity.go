package tunnel

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"syscall"
)

// Severity 订阅流结束原因的严重程度
type Severity int

const (
	// SeverityBenign 正常结束，静默忽略
	SeverityBenign Severity = iota
	// SeveritySevered 连接被切断，关闭观察者但不告警
	SeveritySevered
	// SeverityUnknown 未知错误，只告警，观察者保持
	SeverityUnknown
)

// String 返回严重程度名称
func (s Severity) String() string {
	switch s {
	case SeverityBenign:
		return "benign"
	case SeveritySevered:
		return "severed"
	default:
		return "unknown"
	}
}

// severedMessages 只能通过文本识别的断连错误
var severedMessages = []string{
	"hangup",
	"hang up",
	"connection reset",
	"broken pipe",
	"timed out",
	"write after end",
	"unexpected end of parent stream",
	"use of closed network connection",
	"stream is closed",
}

// ClassifyStreamError 对订阅流的结束错误分类
func ClassifyStreamError(err error) Severity {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return SeverityBenign
	}
	switch {
	case errors.Is(err, net.ErrClosed),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ETIMEDOUT):
		return SeveritySevered
	}
	msg := strings.ToLower(err.Error())
	for _, m := range severedMessages {
		if strings.Contains(msg, m) {
			return SeveritySevered
		}
	}
	return SeverityUnknown
}
