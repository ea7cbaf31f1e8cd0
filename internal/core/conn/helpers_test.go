package conn

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-roomclient/internal/core/eventbus"
	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/lib/log"
	"github.com/dep2p/go-roomclient/pkg/types"
	"github.com/dep2p/go-roomclient/tests/mocks"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func init() {
	log.Discard()
}

func feed(b byte) types.FeedID {
	return types.NewFeedID(bytes.Repeat([]byte{b}, 32))
}

// fakeDialer 按地址返回预设会话
type fakeDialer struct {
	mu    sync.Mutex
	rpcs  map[string]*mocks.MockRPC
	dials []string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{rpcs: make(map[string]*mocks.MockRPC)}
}

func (d *fakeDialer) add(addr string, id types.FeedID) *mocks.MockRPC {
	d.mu.Lock()
	defer d.mu.Unlock()
	rpc := mocks.NewMockRPC(id)
	d.rpcs[addr] = rpc
	return rpc
}

func (d *fakeDialer) Dial(_ context.Context, addr string) (pkgif.RPC, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, addr)
	rpc, ok := d.rpcs[addr]
	if !ok {
		return nil, mocks.ErrNoRoute
	}
	return rpc, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dials)
}

func newTestRegistry(t *testing.T, dialer Dialer) *Registry {
	t.Helper()
	bus := eventbus.NewBus()
	t.Cleanup(func() { _ = bus.Close() })

	reg, err := NewRegistry(openMemDB(t), dialer, bus)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close(context.Background()) })
	return reg
}

func next(t *testing.T, ch <-chan pkgif.ConnEvent) pkgif.ConnEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for connection event")
	}
	return pkgif.ConnEvent{}
}
