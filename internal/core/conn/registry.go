package conn

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/types"
)

// Dialer 建立到地址的 RPC 会话
type Dialer interface {
	Dial(ctx context.Context, addr string) (pkgif.RPC, error)
}

// DialerFunc 函数形式的 Dialer
type DialerFunc func(ctx context.Context, addr string) (pkgif.RPC, error)

// Dial 实现 Dialer
func (f DialerFunc) Dial(ctx context.Context, addr string) (pkgif.RPC, error) {
	return f(ctx, addr)
}

// noDialer 未配置拨号器时使用
var noDialer = DialerFunc(func(context.Context, string) (pkgif.RPC, error) {
	return nil, ErrNoDialer
})

// 确保实现了接口
var _ pkgif.ConnRegistry = (*Registry)(nil)

// Option 注册表选项
type Option func(*Registry)

// WithEventBuffer 设置 Listen 订阅的缓冲区大小
func WithEventBuffer(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.buffer = n
		}
	}
}

// ============================================================================
//                              Registry
// ============================================================================

// Registry 连接注册表
type Registry struct {
	db      *BadgerDB
	dialer  Dialer
	bus     pkgif.EventBus
	emitter pkgif.Emitter
	buffer  int

	hub     *table
	staging *table

	mu       sync.Mutex
	sessions map[string]pkgif.RPC
	closed   bool
}

// NewRegistry 创建连接注册表
//
// dialer 为 nil 时 Connect 总是返回 ErrNoDialer。
func NewRegistry(db *BadgerDB, dialer Dialer, bus pkgif.EventBus, opts ...Option) (*Registry, error) {
	if dialer == nil {
		dialer = noDialer
	}
	emitter, err := bus.Emitter(new(pkgif.ConnEvent))
	if err != nil {
		return nil, fmt.Errorf("conn: create emitter: %w", err)
	}
	r := &Registry{
		db:       db,
		dialer:   dialer,
		bus:      bus,
		emitter:  emitter,
		buffer:   256,
		hub:      newTable(),
		staging:  newTable(),
		sessions: make(map[string]pkgif.RPC),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Listen 订阅连接事件，ctx 结束后通道关闭
func (r *Registry) Listen(ctx context.Context) <-chan pkgif.ConnEvent {
	out := make(chan pkgif.ConnEvent)
	sub, err := r.bus.Subscribe(new(pkgif.ConnEvent), pkgif.BufSize(r.buffer))
	if err != nil {
		logger.Warn("订阅连接事件失败", "error", err)
		close(out)
		return out
	}

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub.Out():
				if !ok {
					return
				}
				ev, ok := raw.(pkgif.ConnEvent)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Connect 连接地址，已连接时返回现有会话
//
// 建立会话后地址从暂存区移入连接表，并发布 connected 事件。
func (r *Registry) Connect(ctx context.Context, addr string) (pkgif.RPC, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if rpc, ok := r.sessions[addr]; ok {
		r.mu.Unlock()
		return rpc, nil
	}
	r.mu.Unlock()

	rpc, err := r.dialer.Dial(ctx, addr)
	if err != nil {
		logger.Debug("连接失败", "addr", addr, "error", err)
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = rpc.Close(ctx)
		return nil, ErrClosed
	}
	if existing, ok := r.sessions[addr]; ok {
		// 并发连接同一地址，保留先建立的会话
		r.mu.Unlock()
		_ = rpc.Close(ctx)
		return existing, nil
	}
	data, staged := r.staging.remove(addr)
	if !staged {
		data, _ = r.db.Get(addr)
	}
	data.Key = rpc.ID()
	// 会话与连接表在同一临界区内变更
	r.sessions[addr] = rpc
	r.hub.set(addr, data)
	r.mu.Unlock()

	logger.Debug("已连接", "addr", addr, "key", rpc.ID().ShortString())
	r.emit(pkgif.ConnEvent{
		Type:    pkgif.ConnEventConnected,
		Address: addr,
		Key:     rpc.ID(),
		RPC:     rpc,
	})
	return rpc, nil
}

// Disconnect 断开地址，未连接时什么也不做
func (r *Registry) Disconnect(ctx context.Context, addr string) error {
	rpc, ok := r.detach(addr)
	if !ok {
		return nil
	}
	err := rpc.Close(ctx)
	if err != nil {
		logger.Debug("关闭会话失败", "addr", addr, "error", err)
	}
	return err
}

// Drop 会话已在远端结束时调用，移除连接并发布 disconnected 事件
func (r *Registry) Drop(addr string) {
	r.detach(addr)
}

func (r *Registry) detach(addr string) (pkgif.RPC, bool) {
	r.mu.Lock()
	rpc, ok := r.sessions[addr]
	if ok {
		delete(r.sessions, addr)
		r.hub.remove(addr)
	}
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	logger.Debug("已断开", "addr", addr, "key", rpc.ID().ShortString())
	r.emit(pkgif.ConnEvent{
		Type:    pkgif.ConnEventDisconnected,
		Address: addr,
		Key:     rpc.ID(),
	})
	return rpc, true
}

func (r *Registry) emit(ev pkgif.ConnEvent) {
	if err := r.emitter.Emit(ev); err != nil {
		logger.Debug("发布连接事件失败", "type", ev.Type, "addr", ev.Address, "error", err)
	}
}

// Connected 地址当前是否有会话
func (r *Registry) Connected(addr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[addr]
	return ok
}

// ============================================================================
//                              暂存区与地址库
// ============================================================================

// Stage 暂存地址，已连接或已暂存时返回 false
func (r *Registry) Stage(addr string, data types.PeerData) bool {
	if r.hub.Has(addr) {
		return false
	}
	return r.staging.add(addr, data)
}

// Unstage 移出暂存区
func (r *Registry) Unstage(addr string) bool {
	_, ok := r.staging.remove(addr)
	return ok
}

// StagingEntries 暂存区快照
func (r *Registry) StagingEntries() []types.PeerEntry {
	return r.staging.Entries()
}

// Remember 持久化地址
func (r *Registry) Remember(addr string, data types.PeerData) {
	r.db.Remember(addr, data)
}

// DB 地址库
func (r *Registry) DB() pkgif.ConnDB {
	return r.db
}

// Hub 连接表
func (r *Registry) Hub() pkgif.ConnHub {
	return r.hub
}

// Close 断开所有会话
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	addrs := make([]string, 0, len(r.sessions))
	for addr := range r.sessions {
		addrs = append(addrs, addr)
	}
	r.mu.Unlock()

	var errs []error
	for _, addr := range addrs {
		if err := r.Disconnect(ctx, addr); err != nil {
			errs = append(errs, err)
		}
	}
	_ = r.emitter.Close()
	return errors.Join(errs...)
}
