package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/types"
)

// ErrNoRoute MockRegistry 默认的 Connect 错误
var ErrNoRoute = errors.New("mock registry: no route")

// MockRegistry 模拟 interfaces.ConnRegistry
//
// 地址库、连接表与暂存区都保存在内存中；Emit 推送连接事件给 Listen 的调用方。
type MockRegistry struct {
	mu      sync.Mutex
	db      map[string]types.PeerData
	hub     map[string]types.PeerData
	staging map[string]types.PeerData
	rpcs    map[string]interfaces.RPC
	events  chan interfaces.ConnEvent

	// 可覆盖的方法
	ConnectFunc    func(ctx context.Context, addr string) (interfaces.RPC, error)
	DisconnectFunc func(ctx context.Context, addr string) error

	// 调用记录
	connectCalls    []string
	disconnectCalls []string
	remembered      []types.PeerEntry
}

var _ interfaces.ConnRegistry = (*MockRegistry)(nil)

// NewMockRegistry 创建 MockRegistry
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{
		db:      make(map[string]types.PeerData),
		hub:     make(map[string]types.PeerData),
		staging: make(map[string]types.PeerData),
		rpcs:    make(map[string]interfaces.RPC),
		events:  make(chan interfaces.ConnEvent, 64),
	}
}

// Emit 推送连接事件
//
// 与真实注册表一致：connected 事件前地址进入连接表，disconnected 事件前移出。
func (r *MockRegistry) Emit(ev interfaces.ConnEvent) {
	r.mu.Lock()
	switch ev.Type {
	case interfaces.ConnEventConnected:
		if _, ok := r.hub[ev.Address]; !ok {
			r.hub[ev.Address] = types.PeerData{Key: ev.Key}
		}
	case interfaces.ConnEventDisconnected:
		delete(r.hub, ev.Address)
	}
	r.mu.Unlock()
	r.events <- ev
}

// SetRPC 设置 Connect(addr) 的返回值
func (r *MockRegistry) SetRPC(addr string, rpc interfaces.RPC) {
	r.mu.Lock()
	r.rpcs[addr] = rpc
	r.mu.Unlock()
}

// SetDB 写入地址库
func (r *MockRegistry) SetDB(addr string, data types.PeerData) {
	r.mu.Lock()
	r.db[addr] = data
	r.mu.Unlock()
}

// SetHub 写入连接表
func (r *MockRegistry) SetHub(addr string, data types.PeerData) {
	r.mu.Lock()
	r.hub[addr] = data
	r.mu.Unlock()
}

// DBData 读取地址库
func (r *MockRegistry) DBData(addr string) (types.PeerData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.db[addr]
	return d, ok
}

// HubData 读取连接表
func (r *MockRegistry) HubData(addr string) (types.PeerData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.hub[addr]
	return d, ok
}

// Staged 是否在暂存区
func (r *MockRegistry) Staged(addr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.staging[addr]
	return ok
}

// ConnectCalls Connect 调用记录
func (r *MockRegistry) ConnectCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.connectCalls...)
}

// DisconnectCalls Disconnect 调用记录
func (r *MockRegistry) DisconnectCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.disconnectCalls...)
}

// Remembered Remember 调用记录
func (r *MockRegistry) Remembered() []types.PeerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.PeerEntry(nil), r.remembered...)
}

// Listen 返回连接事件
func (r *MockRegistry) Listen(ctx context.Context) <-chan interfaces.ConnEvent {
	out := make(chan interfaces.ConnEvent, 64)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-r.events:
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

// Connect 连接地址
func (r *MockRegistry) Connect(ctx context.Context, addr string) (interfaces.RPC, error) {
	r.mu.Lock()
	r.connectCalls = append(r.connectCalls, addr)
	rpc, ok := r.rpcs[addr]
	r.mu.Unlock()

	if r.ConnectFunc != nil {
		return r.ConnectFunc(ctx, addr)
	}
	if !ok {
		return nil, ErrNoRoute
	}
	return rpc, nil
}

// Disconnect 断开地址
func (r *MockRegistry) Disconnect(ctx context.Context, addr string) error {
	r.mu.Lock()
	r.disconnectCalls = append(r.disconnectCalls, addr)
	delete(r.hub, addr)
	r.mu.Unlock()

	if r.DisconnectFunc != nil {
		return r.DisconnectFunc(ctx, addr)
	}
	return nil
}

// Stage 暂存，已存在时返回 false
func (r *MockRegistry) Stage(addr string, data types.PeerData) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staging[addr]; ok {
		return false
	}
	r.staging[addr] = data
	return true
}

// Unstage 移除暂存
func (r *MockRegistry) Unstage(addr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staging[addr]; !ok {
		return false
	}
	delete(r.staging, addr)
	return true
}

// StagingEntries 暂存区（按地址排序）
func (r *MockRegistry) StagingEntries() []types.PeerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedEntries(r.staging)
}

// Remember 持久化地址
func (r *MockRegistry) Remember(addr string, data types.PeerData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.db[addr] = data
	r.remembered = append(r.remembered, types.PeerEntry{Address: addr, Data: data})
}

// DB 地址库
func (r *MockRegistry) DB() interfaces.ConnDB {
	return mockTable{r: r, upsert: true, m: func() map[string]types.PeerData { return r.db }}
}

// Hub 连接表
func (r *MockRegistry) Hub() interfaces.ConnHub {
	return mockTable{r: r, m: func() map[string]types.PeerData { return r.hub }}
}

// mockTable upsert 为 false 时 Update 只修改已有记录（连接表语义）
type mockTable struct {
	r      *MockRegistry
	upsert bool
	m      func() map[string]types.PeerData
}

func (t mockTable) Get(addr string) (types.PeerData, bool) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	d, ok := t.m()[addr]
	return d, ok
}

func (t mockTable) Update(addr string, patches ...types.Patch) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	d, ok := t.m()[addr]
	if !ok && !t.upsert {
		return
	}
	d.Apply(patches...)
	t.m()[addr] = d
}

func (t mockTable) GetAddressForID(id types.FeedID) (string, bool) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	for _, e := range sortedEntries(t.m()) {
		if e.Data.Key == id {
			return e.Address, true
		}
	}
	return "", false
}

func (t mockTable) Entries() []types.PeerEntry {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	return sortedEntries(t.m())
}

func sortedEntries(m map[string]types.PeerData) []types.PeerEntry {
	out := make([]types.PeerEntry, 0, len(m))
	for addr, d := range m {
		out = append(out, types.PeerEntry{Address: addr, Data: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}
