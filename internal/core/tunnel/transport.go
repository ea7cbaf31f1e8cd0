package tunnel

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-roomclient/config"
	"github.com/dep2p/go-roomclient/internal/core/msaddr"
	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/types"
)

// ============================================================================
//                              Transport
// ============================================================================

// Transport 隧道传输
//
// 监听连接注册表的事件，探测新连接是否为房间，为每个房间维护一个 RoomObserver；
// 出站时经由房间拨号到目标节点。
type Transport struct {
	localID  types.FeedID
	registry pkgif.ConnRegistry
	emitter  pkgif.Emitter
	cfg      config.TunnelConfig

	rooms   *Rooms
	limiter *inboundLimiter
	handler atomic.Pointer[pkgif.InboundHandler]

	mu      sync.Mutex
	started bool
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc

	probed       chan probeResult
	observerDone chan *RoomObserver
	loopDone     chan struct{}
	probes       sync.WaitGroup
	releases     sync.WaitGroup

	// 以下字段只在事件循环中访问
	live    map[string]pkgif.ConnEvent
	pending map[types.FeedID]pendingProbe
	gen     uint64
}

// pendingProbe 正在进行的房间探测
//
// 每个身份只保留最新一次探测，结果回到事件循环时按 gen 核对。
type pendingProbe struct {
	gen     uint64
	address string
	cancel  context.CancelFunc
}

// probeResult 一次房间探测的结果
type probeResult struct {
	ev        pkgif.ConnEvent
	gen       uint64
	detection types.RoomDetection
	isRoom    bool
}

// Option 传输选项
type Option func(*Transport)

// WithEmitter 设置 EvtAttendantDiscovered 发射器
func WithEmitter(e pkgif.Emitter) Option {
	return func(t *Transport) { t.emitter = e }
}

// WithInboundHandler 设置入站连接处理器
func WithInboundHandler(h pkgif.InboundHandler) Option {
	return func(t *Transport) { t.SetInboundHandler(h) }
}

// NewTransport 创建隧道传输
func NewTransport(localID types.FeedID, registry pkgif.ConnRegistry, cfg config.TunnelConfig, opts ...Option) *Transport {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		localID:      localID,
		registry:     registry,
		cfg:          cfg,
		rooms:        newRooms(),
		limiter:      newInboundLimiter(cfg.InboundRateLimit, cfg.InboundBurst),
		ctx:          ctx,
		cancel:       cancel,
		probed:       make(chan probeResult),
		observerDone: make(chan *RoomObserver),
		loopDone:     make(chan struct{}),
		live:         make(map[string]pkgif.ConnEvent),
		pending:      make(map[types.FeedID]pendingProbe),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LocalID 本节点身份
func (t *Transport) LocalID() types.FeedID { return t.localID }

// Rooms 当前观察中的房间
func (t *Transport) Rooms() *Rooms { return t.rooms }

// Manifest 本地 tunnel 命名空间的方法清单
func (t *Transport) Manifest() Manifest { return TunnelManifest }

// SetInboundHandler 设置入站连接处理器
func (t *Transport) SetInboundHandler(h pkgif.InboundHandler) {
	if h == nil {
		t.handler.Store(nil)
		return
	}
	t.handler.Store(&h)
}

func (t *Transport) inboundHandler() pkgif.InboundHandler {
	if p := t.handler.Load(); p != nil {
		return *p
	}
	return nil
}

// Start 开始处理连接事件
func (t *Transport) Start(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true

	events := t.registry.Listen(t.ctx)
	go t.loop(events)

	logger.Info("隧道传输已启动", "local", t.localID.ShortString())
	return nil
}

// Close 停止事件循环并关闭所有观察者
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	started := t.started
	t.mu.Unlock()

	t.cancel()
	if started {
		<-t.loopDone
	}
	t.probes.Wait()

	for _, o := range t.rooms.drain() {
		t.teardown(o)
	}
	t.releases.Wait()
	logger.Info("隧道传输已关闭")
	return nil
}

// ============================================================================
//                              事件循环
// ============================================================================

func (t *Transport) loop(events <-chan pkgif.ConnEvent) {
	defer close(t.loopDone)
	for {
		select {
		case <-t.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.handleConnEvent(ev)
		case r := <-t.probed:
			t.probeDone(r)
		case o := <-t.observerDone:
			if cur, ok := t.rooms.Get(o.RoomID()); ok && cur == o {
				t.rooms.remove(o.RoomID())
				t.limiter.Forget(o.RoomID())
			}
		}
	}
}

func (t *Transport) handleConnEvent(ev pkgif.ConnEvent) {
	switch ev.Type {
	case pkgif.ConnEventConnected:
		t.onConnected(ev)
	case pkgif.ConnEventDisconnected:
		t.onDisconnected(ev)
	}
}

func (t *Transport) onConnected(ev pkgif.ConnEvent) {
	if !ev.Key.Valid() || ev.RPC == nil {
		logger.Debug("忽略缺少身份的连接事件", "addr", ev.Address)
		return
	}
	t.live[ev.Address] = ev
	if t.rooms.Has(ev.Key) {
		return
	}
	t.probe(ev)
}

// probe 探测连接是否为房间，取代同一身份尚未完成的探测
func (t *Transport) probe(ev pkgif.ConnEvent) {
	if p, ok := t.pending[ev.Key]; ok {
		p.cancel()
	}
	t.gen++
	gen := t.gen
	ctx, cancel := context.WithCancel(t.ctx)
	t.pending[ev.Key] = pendingProbe{gen: gen, address: ev.Address, cancel: cancel}

	t.probes.Add(1)
	go func() {
		defer t.probes.Done()
		defer cancel()
		d, ok := DetectRoom(ctx, ev.RPC)
		select {
		case t.probed <- probeResult{ev: ev, gen: gen, detection: d, isRoom: ok}:
		case <-t.ctx.Done():
		}
	}()
}

// probeDone 处理探测结果，会话已断开或已被更新的连接取代时丢弃
func (t *Transport) probeDone(r probeResult) {
	id := r.ev.Key
	p, ok := t.pending[id]
	if !ok || p.gen != r.gen {
		logger.Debug("丢弃过期的房间探测结果", "peer", id.ShortString(), "addr", r.ev.Address)
		return
	}
	delete(t.pending, id)
	if !r.isRoom {
		return
	}
	t.install(r.ev, r.detection)
}

// install 为确认的房间安装观察者，取代同一房间的旧观察者
func (t *Transport) install(ev pkgif.ConnEvent, d types.RoomDetection) {
	id := ev.Key
	if prev, ok := t.rooms.Get(id); ok {
		prev.Cancel()
	}
	o := newRoomObserver(ev, d, observerConfig{
		localID:  t.localID,
		registry: t.registry,
		emitter:  t.emitter,
		handler:  t.inboundHandler,
		onClosed: t.observerClosed,
	})
	o.start()
	t.rooms.swap(id, o)

	logger.Info("确认房间",
		"room", id.ShortString(),
		"name", d.Name(),
		"kind", d.Kind.String())
}

func (t *Transport) onDisconnected(ev pkgif.ConnEvent) {
	key := ev.Key
	if prev, ok := t.live[ev.Address]; ok {
		key = prev.Key
		delete(t.live, ev.Address)
	}
	if !key.Valid() {
		return
	}
	if p, ok := t.pending[key]; ok && p.address == ev.Address {
		p.cancel()
		delete(t.pending, key)
	}

	o, ok := t.rooms.Get(key)
	if !ok || o.Address() != ev.Address {
		return
	}
	t.rooms.remove(key)
	t.limiter.Forget(key)
	t.teardown(o)

	// 同一房间还有其他连接时重新探测
	for _, other := range t.live {
		if other.Key == key {
			t.probe(other)
			break
		}
	}
}

// teardown 在事件循环中完成观察者的本地清理，远程收尾在后台进行
func (t *Transport) teardown(o *RoomObserver) {
	release := o.stop()
	if release == nil {
		return
	}
	t.releases.Add(1)
	go func() {
		defer t.releases.Done()
		release()
	}()
}

// observerClosed 观察者自行关闭后通知事件循环移除
func (t *Transport) observerClosed(o *RoomObserver) {
	go func() {
		select {
		case t.observerDone <- o:
		case <-t.ctx.Done():
		}
	}()
}

// ============================================================================
//                              出站拨号
// ============================================================================

// Dial 解析隧道地址并经由房间拨号
func (t *Transport) Dial(ctx context.Context, addr string) (net.Conn, error) {
	ta, err := Parse(addr)
	if err != nil {
		return nil, err
	}
	return t.DialAddress(ctx, ta)
}

// DialAddress 经由 addr.Portal 拨号到 addr.Target
//
// 房间会话按以下顺序获取：
//  1. 正在观察的房间
//  2. 地址库中身份为 portal 的地址
//  3. 派生中继地址记录里的 roomAddress
func (t *Transport) DialAddress(ctx context.Context, addr types.TunnelAddress) (net.Conn, error) {
	addr, err := ParseOpts(addr)
	if err != nil {
		return nil, err
	}

	rpc, err := t.portalRPC(ctx, addr)
	if err != nil {
		return nil, err
	}

	conn, err := rpc.TunnelConnect(ctx, addr.ConnectOpts())
	if err != nil {
		return nil, fmt.Errorf("tunnel: connect to %s via %s: %w",
			addr.Target.ShortString(), addr.Portal.ShortString(), err)
	}
	if err := AsError(conn); err != nil {
		return nil, fmt.Errorf("tunnel: connect to %s via %s: %w",
			addr.Target.ShortString(), addr.Portal.ShortString(), err)
	}
	logger.Debug("隧道已建立", "portal", addr.Portal.ShortString(), "target", addr.Target.ShortString())
	return newConn(conn,
		types.TunnelAddress{Portal: addr.Portal, Target: t.localID},
		types.TunnelAddress{Portal: addr.Portal, Target: addr.Target},
	), nil
}

func (t *Transport) portalRPC(ctx context.Context, addr types.TunnelAddress) (pkgif.RPC, error) {
	portal := addr.Portal

	if o, ok := t.rooms.Get(portal); ok {
		return o.RPC(), nil
	}

	for _, e := range t.registry.DB().Entries() {
		key, ok := msaddr.KeyFromAddress(e.Address)
		if !ok || key != portal {
			continue
		}
		rpc, err := t.registry.Connect(ctx, e.Address)
		if err != nil {
			return nil, fmt.Errorf("tunnel: cannot reach room %s because: %w", portal, err)
		}
		return rpc, nil
	}

	relay := DeriveRelayAddress(portal, addr.Target)
	if data, ok := t.registry.DB().Get(relay); ok && data.Room == portal && data.RoomAddress != "" {
		rpc, err := t.registry.Connect(ctx, data.RoomAddress)
		if err != nil {
			return nil, fmt.Errorf("tunnel: cannot reach room %s because: %w", portal, err)
		}
		return rpc, nil
	}

	return nil, fmt.Errorf("tunnel: cannot connect to %s: room %s: %w", addr, portal, ErrRoomOffline)
}
