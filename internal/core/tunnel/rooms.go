package tunnel

import (
	"sort"
	"sync"

	"github.com/dep2p/go-roomclient/pkg/types"
)

// Rooms 房间身份到观察者的映射
//
// 只由 Transport 的事件循环写入，其他组件只读。
type Rooms struct {
	mu sync.RWMutex
	m  map[types.FeedID]*RoomObserver
}

func newRooms() *Rooms {
	return &Rooms{m: make(map[types.FeedID]*RoomObserver)}
}

// Get 获取观察者
func (r *Rooms) Get(id types.FeedID) (*RoomObserver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.m[id]
	return o, ok
}

// Has 是否正在观察该房间
func (r *Rooms) Has(id types.FeedID) bool {
	_, ok := r.Get(id)
	return ok
}

// Len 房间数
func (r *Rooms) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}

// IDs 返回排序后的房间身份
func (r *Rooms) IDs() []types.FeedID {
	r.mu.RLock()
	ids := make([]types.FeedID, 0, len(r.m))
	for id := range r.m {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// swap 安装观察者，返回被替换的旧观察者
func (r *Rooms) swap(id types.FeedID, o *RoomObserver) *RoomObserver {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.m[id]
	r.m[id] = o
	return prev
}

func (r *Rooms) remove(id types.FeedID) (*RoomObserver, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.m[id]
	delete(r.m, id)
	return o, ok
}

func (r *Rooms) drain() []*RoomObserver {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*RoomObserver, 0, len(r.m))
	for id, o := range r.m {
		out = append(out, o)
		delete(r.m, id)
	}
	return out
}
