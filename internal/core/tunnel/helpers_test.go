package tunnel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-roomclient/config"
	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/lib/log"
	"github.com/dep2p/go-roomclient/pkg/types"
	"github.com/dep2p/go-roomclient/tests/mocks"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var (
	localID = feed(0x01)
	roomID  = feed(0x02)
	aliceID = feed(0x0a)
	bobID   = feed(0x0b)
	carolID = feed(0x0c)
)

func init() {
	log.Discard()
}

// feed 生成测试身份
func feed(b byte) types.FeedID {
	return types.NewFeedID(bytes.Repeat([]byte{b}, 32))
}

// netAddr 生成带 shs 段的测试地址
func netAddr(host string, id types.FeedID) string {
	return "net:" + host + ":8008~shs:" + id.Key()
}

func newTestTransport(t *testing.T, reg *mocks.MockRegistry, cfg config.TunnelConfig, opts ...Option) *Transport {
	t.Helper()
	tr := NewTransport(localID, reg, cfg, opts...)
	require.NoError(t, tr.Start(context.Background()))
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func connected(addr string, rpc *mocks.MockRPC) pkgif.ConnEvent {
	return pkgif.ConnEvent{Type: pkgif.ConnEventConnected, Address: addr, Key: rpc.ID(), RPC: rpc}
}

func disconnected(addr string, id types.FeedID) pkgif.ConnEvent {
	return pkgif.ConnEvent{Type: pkgif.ConnEventDisconnected, Address: addr, Key: id}
}

// waitRoom 等待房间被观察
func waitRoom(t *testing.T, tr *Transport, id types.FeedID) *RoomObserver {
	t.Helper()
	require.Eventually(t, func() bool { return tr.Rooms().Has(id) }, waitFor, tick)
	o, _ := tr.Rooms().Get(id)
	return o
}
