package eventbus

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrClosed 事件总线已关闭
	ErrClosed = errors.New("eventbus closed")
	// ErrInvalidEventType 无效的事件类型
	ErrInvalidEventType = errors.New("invalid event type")
	// ErrNonPointerType 非指针类型
	ErrNonPointerType = errors.New("subscribe called with non-pointer type")
)

// defaultBuffer 默认订阅缓冲区
const defaultBuffer = 16

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 事件总线
type Bus struct {
	mu     sync.RWMutex
	nodes  map[reflect.Type]*node
	closed atomic.Bool
}

var _ pkgif.EventBus = (*Bus)(nil)

// node 事件类型节点
type node struct {
	lk        sync.Mutex
	typ       reflect.Type
	sinks     []*Subscription
	keepLast  bool
	last      interface{}
	dropCount atomic.Int64
}

// NewBus 创建新的事件总线
func NewBus() *Bus {
	return &Bus{
		nodes: make(map[reflect.Type]*node),
	}
}

// Subscribe 订阅事件
func (b *Bus) Subscribe(eventType interface{}, opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	elem, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	settings := pkgif.SubscriptionSettings{Buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Buffer < 0 {
		settings.Buffer = 0
	}

	sub := &Subscription{
		bus: b,
		typ: elem,
		out: make(chan interface{}, settings.Buffer),
	}

	n := b.node(elem)
	n.lk.Lock()
	n.sinks = append(n.sinks, sub)
	if n.keepLast && n.last != nil {
		select {
		case sub.out <- n.last:
		default:
		}
	}
	n.lk.Unlock()

	return sub, nil
}

// Emitter 获取发射器
func (b *Bus) Emitter(eventType interface{}, opts ...pkgif.EmitterOpt) (pkgif.Emitter, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	elem, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	settings := pkgif.EmitterSettings{}
	for _, opt := range opts {
		opt(&settings)
	}

	n := b.node(elem)
	if settings.Stateful {
		n.lk.Lock()
		n.keepLast = true
		n.lk.Unlock()
	}

	return &Emitter{bus: b, node: n}, nil
}

// Close 关闭总线及所有订阅
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.mu.Lock()
	nodes := b.nodes
	b.nodes = make(map[reflect.Type]*node)
	b.mu.Unlock()

	for _, n := range nodes {
		n.lk.Lock()
		sinks := n.sinks
		n.sinks = nil
		n.lk.Unlock()
		for _, s := range sinks {
			s.closeChan()
		}
	}
	return nil
}

// ============================================================================
// 内部方法
// ============================================================================

func elemType(eventType interface{}) (reflect.Type, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	typ := reflect.TypeOf(eventType)
	if typ.Kind() != reflect.Ptr {
		return nil, ErrNonPointerType
	}
	return typ.Elem(), nil
}

// node 获取或创建事件类型节点
func (b *Bus) node(typ reflect.Type) *node {
	b.mu.RLock()
	n, ok := b.nodes[typ]
	b.mu.RUnlock()
	if ok {
		return n
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if n, ok = b.nodes[typ]; ok {
		return n
	}
	n = &node{typ: typ}
	b.nodes[typ] = n
	return n
}

// removeSub 移除订阅
func (b *Bus) removeSub(sub *Subscription) {
	b.mu.RLock()
	n, ok := b.nodes[sub.typ]
	b.mu.RUnlock()
	if !ok {
		return
	}

	n.lk.Lock()
	defer n.lk.Unlock()
	for i, s := range n.sinks {
		if s == sub {
			n.sinks = append(n.sinks[:i], n.sinks[i+1:]...)
			break
		}
	}
}

// emit 发射事件到所有订阅者
func (n *node) emit(event interface{}) {
	n.lk.Lock()
	defer n.lk.Unlock()

	if n.keepLast {
		n.last = event
	}

	for _, sub := range n.sinks {
		select {
		case sub.out <- event:
		default:
			// 每丢弃 100 个事件警告一次，避免日志泛滥
			if dropped := n.dropCount.Add(1); dropped%100 == 1 {
				logger.Warn("订阅者处理过慢，丢弃事件",
					"dropped", dropped,
					"type", n.typ)
			}
		}
	}
}
