package conn

import (
	"sort"
	"sync"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// table 内存中的地址表，用作连接表和暂存区
type table struct {
	mu      sync.RWMutex
	entries map[string]types.PeerData
}

func newTable() *table {
	return &table{entries: make(map[string]types.PeerData)}
}

// Get 获取地址记录
func (t *table) Get(addr string) (types.PeerData, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.entries[addr]
	return d, ok
}

// Has 地址是否存在
func (t *table) Has(addr string) bool {
	_, ok := t.Get(addr)
	return ok
}

// Update 修改已有的地址记录，地址不存在时什么也不做
func (t *table) Update(addr string, patches ...types.Patch) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.entries[addr]
	if !ok {
		return
	}
	d.Apply(patches...)
	t.entries[addr] = d
}

// set 写入地址记录，覆盖已有记录
func (t *table) set(addr string, data types.PeerData) {
	t.mu.Lock()
	t.entries[addr] = data
	t.mu.Unlock()
}

// add 仅在地址不存在时写入
func (t *table) add(addr string, data types.PeerData) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[addr]; ok {
		return false
	}
	t.entries[addr] = data
	return true
}

// remove 删除地址，返回删除前的记录
func (t *table) remove(addr string) (types.PeerData, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.entries[addr]
	delete(t.entries, addr)
	return d, ok
}

// Entries 按地址排序的快照
func (t *table) Entries() []types.PeerEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.PeerEntry, 0, len(t.entries))
	for addr, d := range t.entries {
		out = append(out, types.PeerEntry{Address: addr, Data: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Len 记录数
func (t *table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
