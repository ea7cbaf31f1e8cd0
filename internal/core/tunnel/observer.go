package tunnel

import (
	"context"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/types"
)

// closeTimeout 关闭观察者时远程调用的超时
const closeTimeout = 5 * time.Second

// ObserverState 观察者生命周期状态
type ObserverState int32

const (
	// StateDetected 已确认为房间，尚未订阅
	StateDetected ObserverState = iota
	// StateSubscribing 正在建立订阅
	StateSubscribing
	// StateActive 订阅流已建立
	StateActive
	// StateCancelled 被新的观察者取代
	StateCancelled
	// StateClosed 已关闭
	StateClosed
)

// String 返回状态名称
func (s ObserverState) String() string {
	switch s {
	case StateDetected:
		return "detected"
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	case StateCancelled:
		return "cancelled"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              RoomObserver
// ============================================================================

// RoomObserver 一个已确认房间连接的观察者
//
// 订阅房间的在场者（room.attendants，旧版回退到 tunnel.endpoints），
// 把可经由房间到达的节点暂存到连接注册表，并维护房间元数据与在线人数。
type RoomObserver struct {
	roomID    types.FeedID
	address   string
	rpc       pkgif.RPC
	detection types.RoomDetection

	localID  types.FeedID
	registry pkgif.ConnRegistry
	emitter  pkgif.Emitter
	handler  func() pkgif.InboundHandler
	onClosed func(*RoomObserver)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	state  atomic.Int32

	mu         sync.Mutex
	attendants map[types.FeedID]struct{}
	sources    []interface{ Abort() }
	legacy     bool

	closeOnce sync.Once
}

// observerConfig 创建观察者所需的协作方
type observerConfig struct {
	localID  types.FeedID
	registry pkgif.ConnRegistry
	emitter  pkgif.Emitter
	handler  func() pkgif.InboundHandler
	onClosed func(*RoomObserver)
}

func newRoomObserver(ev pkgif.ConnEvent, d types.RoomDetection, cfg observerConfig) *RoomObserver {
	ctx, cancel := context.WithCancel(context.Background())
	o := &RoomObserver{
		roomID:     ev.Key,
		address:    ev.Address,
		rpc:        ev.RPC,
		detection:  d,
		localID:    cfg.localID,
		registry:   cfg.registry,
		emitter:    cfg.emitter,
		handler:    cfg.handler,
		onClosed:   cfg.onClosed,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		attendants: make(map[types.FeedID]struct{}),
	}
	o.state.Store(int32(StateDetected))
	return o
}

// start 写入房间元数据并开始订阅
func (o *RoomObserver) start() {
	if patch := metadataPatch(o.detection); patch != nil {
		o.registry.DB().Update(o.address, patch)
		o.registry.Hub().Update(o.address, patch)
	}
	go o.run()
}

// RoomID 房间身份
func (o *RoomObserver) RoomID() types.FeedID { return o.roomID }

// Address 房间连接地址
func (o *RoomObserver) Address() string { return o.address }

// RPC 房间会话
func (o *RoomObserver) RPC() pkgif.RPC { return o.rpc }

// Detection 房间探测结果
func (o *RoomObserver) Detection() types.RoomDetection { return o.detection }

// State 当前状态
func (o *RoomObserver) State() ObserverState { return ObserverState(o.state.Load()) }

// Done 订阅 goroutine 退出后关闭
func (o *RoomObserver) Done() <-chan struct{} { return o.done }

// Legacy 是否使用旧版 tunnel.endpoints 订阅
func (o *RoomObserver) Legacy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.legacy
}

// Attendants 当前在场者（排序）
func (o *RoomObserver) Attendants() []types.FeedID {
	o.mu.Lock()
	ids := make([]types.FeedID, 0, len(o.attendants))
	for id := range o.attendants {
		ids = append(ids, id)
	}
	o.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// OnlineCount 在线人数
func (o *RoomObserver) OnlineCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.attendants)
}

// ============================================================================
//                              订阅
// ============================================================================

func (o *RoomObserver) run() {
	defer close(o.done)
	o.state.CompareAndSwap(int32(StateDetected), int32(StateSubscribing))

	err := o.followAttendants()
	if IsMethodMissing(err) && o.ctx.Err() == nil {
		logger.Debug("房间不支持 room.attendants，回退到 tunnel.endpoints",
			"room", o.roomID.ShortString())
		err = o.followEndpoints()
	}
	o.streamEnded(err)
}

func (o *RoomObserver) followAttendants() error {
	src, err := o.rpc.RoomAttendants(o.ctx)
	if err != nil {
		return err
	}
	if !o.track(src) {
		return context.Canceled
	}
	o.state.CompareAndSwap(int32(StateSubscribing), int32(StateActive))
	for {
		ev, err := src.Next(o.ctx)
		if err != nil {
			return err
		}
		o.attendantsUpdated(ev)
	}
}

func (o *RoomObserver) followEndpoints() error {
	src, err := o.rpc.TunnelEndpoints(o.ctx)
	if err != nil {
		return err
	}
	if !o.track(src) {
		return context.Canceled
	}
	o.mu.Lock()
	o.legacy = true
	o.mu.Unlock()
	o.state.CompareAndSwap(int32(StateSubscribing), int32(StateActive))
	for {
		ids, err := src.Next(o.ctx)
		if err != nil {
			return err
		}
		o.endpointsUpdated(ids)
	}
}

// track 记录订阅流以便取消；观察者已停止时立即中止该流
func (o *RoomObserver) track(src interface{ Abort() }) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctx.Err() != nil {
		src.Abort()
		return false
	}
	o.sources = append(o.sources, src)
	return true
}

func (o *RoomObserver) streamEnded(err error) {
	if o.ctx.Err() != nil {
		return
	}
	if IsMethodMissing(err) {
		logger.Debug("房间未提供在场者订阅", "room", o.roomID.ShortString())
		return
	}
	switch ClassifyStreamError(err) {
	case SeverityBenign:
		logger.Debug("在场者订阅流结束", "room", o.roomID.ShortString())
		return
	case SeveritySevered:
		logger.Debug("房间连接已断开", "room", o.roomID.ShortString(), "error", err)
	default:
		// 未知错误只记录，房间连接保持
		logger.Warn("在场者订阅流异常", "room", o.roomID.ShortString(), "error", err)
		return
	}
	o.Close()
	if o.onClosed != nil {
		o.onClosed(o)
	}
}

// ============================================================================
//                              在场者更新
// ============================================================================

func (o *RoomObserver) attendantsUpdated(ev types.AttendantsEvent) {
	var joined []types.FeedID
	var left types.FeedID

	o.mu.Lock()
	switch ev.Type {
	case types.AttendantsState:
		o.attendants = make(map[types.FeedID]struct{}, len(ev.IDs))
		for _, id := range ev.IDs {
			o.attendants[id] = struct{}{}
		}
		joined = ev.IDs
	case types.AttendantJoined:
		o.attendants[ev.ID] = struct{}{}
		joined = []types.FeedID{ev.ID}
	case types.AttendantLeft:
		delete(o.attendants, ev.ID)
		left = ev.ID
	default:
		o.mu.Unlock()
		logger.Debug("未知的在场者事件", "room", o.roomID.ShortString(), "type", ev.Type)
		return
	}
	count := len(o.attendants)
	o.mu.Unlock()

	o.setOnlineCount(count)
	for _, id := range joined {
		o.candidate(id, types.PeerTypeRoomAttendant)
	}
	if left != "" {
		o.departed(left)
	}
}

// endpointsUpdated 处理旧版完整快照
//
// 暂存区中属于本房间但不在新快照里的记录会被移除并断开。
func (o *RoomObserver) endpointsUpdated(ids []types.FeedID) {
	current := make(map[types.FeedID]struct{}, len(ids))
	for _, id := range ids {
		current[id] = struct{}{}
	}

	o.mu.Lock()
	o.attendants = current
	o.mu.Unlock()

	o.setOnlineCount(len(ids))

	for _, e := range o.registry.StagingEntries() {
		if e.Data.Room != o.roomID || e.Data.Key == "" {
			continue
		}
		if _, ok := current[e.Data.Key]; ok {
			continue
		}
		o.registry.Unstage(e.Address)
		if err := o.registry.Disconnect(o.ctx, e.Address); err != nil {
			logger.Debug("断开已离开的端点失败", "addr", e.Address, "error", err)
		}
	}

	for _, id := range ids {
		o.candidate(id, types.PeerTypeRoomEndpoint)
	}
}

func (o *RoomObserver) setOnlineCount(n int) {
	o.registry.Hub().Update(o.address, func(d *types.PeerData) {
		d.OnlineCount = n
	})
}

// candidate 暂存一个可经由房间到达的节点
//
// 房间自身、本节点、已连接或已暂存的地址都会被跳过。
func (o *RoomObserver) candidate(id types.FeedID, peerType string) {
	if !id.Valid() || id == o.roomID || id == o.localID {
		return
	}
	addr := DeriveRelayAddress(o.roomID, id)
	if o.connected(addr, id) || o.staged(addr) {
		return
	}
	added := o.registry.Stage(addr, types.PeerData{
		Type:        peerType,
		Key:         id,
		Room:        o.roomID,
		RoomName:    o.detection.Name(),
		RoomAddress: o.address,
	})
	if added && o.emitter != nil {
		err := o.emitter.Emit(&types.EvtAttendantDiscovered{
			Address:  addr,
			Key:      id,
			Room:     o.roomID,
			RoomName: o.detection.Name(),
			At:       time.Now(),
		})
		if err != nil {
			logger.Debug("发布在场者发现事件失败", "error", err)
		}
	}
}

// departed 在场者离开：移除暂存并断开经由本房间的连接
func (o *RoomObserver) departed(id types.FeedID) {
	addr := DeriveRelayAddress(o.roomID, id)
	o.registry.Unstage(addr)
	if err := o.registry.Disconnect(o.ctx, addr); err != nil {
		logger.Debug("断开已离开的在场者失败", "addr", addr, "error", err)
	}
}

func (o *RoomObserver) connected(addr string, id types.FeedID) bool {
	for _, e := range o.registry.Hub().Entries() {
		if e.Address == addr || e.Data.Key == id {
			return true
		}
	}
	return false
}

func (o *RoomObserver) staged(addr string) bool {
	for _, e := range o.registry.StagingEntries() {
		if e.Address == addr {
			return true
		}
	}
	return false
}

// ============================================================================
//                              入站
// ============================================================================

// accept 把入站隧道交给本地处理器
func (o *RoomObserver) accept(inner net.Conn, origin types.FeedID) bool {
	var h pkgif.InboundHandler
	if o.handler != nil {
		h = o.handler()
	}
	if h == nil {
		return false
	}
	conn := newConn(inner,
		types.TunnelAddress{Portal: o.roomID, Target: o.localID},
		types.TunnelAddress{Portal: o.roomID, Target: origin},
	)
	go h(conn)
	return true
}

// ============================================================================
//                              生命周期
// ============================================================================

// Cancel 停止订阅，不做其他清理
//
// 用于被同一房间的新观察者取代时。可以重复调用。
func (o *RoomObserver) Cancel() {
	o.state.CompareAndSwap(int32(StateDetected), int32(StateCancelled))
	o.state.CompareAndSwap(int32(StateSubscribing), int32(StateCancelled))
	o.state.CompareAndSwap(int32(StateActive), int32(StateCancelled))
	o.abort()
}

// Close 停止订阅、移除本房间暂存的记录、结束会话并断开房间连接
//
// 可以重复调用，也可以在订阅开始之前调用。
func (o *RoomObserver) Close() {
	if release := o.stop(); release != nil {
		release()
	}
}

// stop 完成本地清理，返回结束会话的远程收尾；已关闭时返回 nil
func (o *RoomObserver) stop() func() {
	var release func()
	o.closeOnce.Do(func() {
		o.state.Store(int32(StateClosed))
		o.abort()

		o.mu.Lock()
		attendants := o.attendants
		o.attendants = make(map[types.FeedID]struct{})
		o.mu.Unlock()

		for id := range attendants {
			o.registry.Unstage(DeriveRelayAddress(o.roomID, id))
		}
		for _, e := range o.registry.StagingEntries() {
			if e.Data.Room == o.roomID {
				o.registry.Unstage(e.Address)
			}
		}
		release = o.release
	})
	return release
}

// release 结束房间会话并断开连接，远端无响应时最多等待 closeTimeout
func (o *RoomObserver) release() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := o.rpc.Close(ctx); err != nil {
		logger.Debug("结束房间会话失败", "room", o.roomID.ShortString(), "error", err)
	}
	if err := o.registry.Disconnect(ctx, o.address); err != nil {
		logger.Debug("断开房间连接失败", "room", o.roomID.ShortString(), "error", err)
	}
	logger.Info("房间观察者已关闭", "room", o.roomID.ShortString())
}

func (o *RoomObserver) abort() {
	o.cancel()
	o.mu.Lock()
	sources := o.sources
	o.sources = nil
	o.mu.Unlock()
	for _, s := range sources {
		s.Abort()
	}
}
