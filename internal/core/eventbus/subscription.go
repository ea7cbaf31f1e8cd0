package eventbus

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
)

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 订阅
type Subscription struct {
	bus       *Bus
	typ       reflect.Type
	out       chan interface{}
	closeOnce sync.Once
}

// Out 返回事件通道
func (s *Subscription) Out() <-chan interface{} {
	return s.out
}

// Close 取消订阅
//
// Close 是并发安全的，可以多次调用。
func (s *Subscription) Close() error {
	s.bus.removeSub(s)
	s.closeChan()
	return nil
}

func (s *Subscription) closeChan() {
	s.closeOnce.Do(func() {
		close(s.out)
	})
}

// ============================================================================
// Emitter 实现
// ============================================================================

// Emitter 事件发射器
type Emitter struct {
	bus    *Bus
	node   *node
	closed atomic.Bool
}

// Emit 发射事件
//
// 接受 T 或 *T，订阅者总是收到 T 的值。
func (e *Emitter) Emit(event interface{}) error {
	if e.closed.Load() {
		return errors.New("emitter is closed")
	}
	if e.bus.closed.Load() {
		return ErrClosed
	}

	if event == nil {
		return ErrInvalidEventType
	}
	v := reflect.ValueOf(event)
	if v.Kind() == reflect.Ptr && v.Type().Elem() == e.node.typ {
		if v.IsNil() {
			return ErrInvalidEventType
		}
		event = v.Elem().Interface()
	} else if v.Type() != e.node.typ {
		return ErrInvalidEventType
	}

	e.node.emit(event)
	return nil
}

// Close 关闭发射器
func (e *Emitter) Close() error {
	e.closed.Store(true)
	return nil
}
