package mocks

import (
	"context"
	"io"
	"sync"
)

type sourceItem[T any] struct {
	v   T
	err error
}

// MockSource 模拟 interfaces.Source
type MockSource[T any] struct {
	items   chan sourceItem[T]
	aborted chan struct{}
	once    sync.Once

	mu   sync.Mutex
	done error
}

// NewMockSource 创建 MockSource
func NewMockSource[T any]() *MockSource[T] {
	return &MockSource[T]{
		items:   make(chan sourceItem[T], 64),
		aborted: make(chan struct{}),
	}
}

// Push 推送一个值
func (s *MockSource[T]) Push(v T) {
	s.items <- sourceItem[T]{v: v}
}

// End 结束流，err 为 nil 时以 io.EOF 结束
func (s *MockSource[T]) End(err error) {
	if err == nil {
		err = io.EOF
	}
	s.items <- sourceItem[T]{err: err}
}

// Next 返回下一个值
func (s *MockSource[T]) Next(ctx context.Context) (T, error) {
	var zero T
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		return zero, done
	}

	select {
	case it := <-s.items:
		if it.err != nil {
			s.mu.Lock()
			s.done = it.err
			s.mu.Unlock()
		}
		return it.v, it.err
	case <-s.aborted:
		return zero, context.Canceled
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Abort 中止流
func (s *MockSource[T]) Abort() {
	s.once.Do(func() { close(s.aborted) })
}

// Aborted 是否已被中止
func (s *MockSource[T]) Aborted() bool {
	select {
	case <-s.aborted:
		return true
	default:
		return false
	}
}
