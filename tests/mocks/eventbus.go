package mocks

import (
	"sync"

	"github.com/dep2p/go-roomclient/pkg/interfaces"
)

// MockEmitter 记录发射的事件
type MockEmitter struct {
	mu     sync.Mutex
	events []interface{}
	closed bool

	// 可覆盖的方法
	EmitFunc func(event interface{}) error
}

var _ interfaces.Emitter = (*MockEmitter)(nil)

// NewMockEmitter 创建 MockEmitter
func NewMockEmitter() *MockEmitter {
	return &MockEmitter{}
}

// Emit 发射事件
func (e *MockEmitter) Emit(event interface{}) error {
	if e.EmitFunc != nil {
		return e.EmitFunc(event)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.events = append(e.events, event)
	}
	return nil
}

// Close 关闭发射器
func (e *MockEmitter) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

// Events 已发射的事件
func (e *MockEmitter) Events() []interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]interface{}(nil), e.events...)
}
