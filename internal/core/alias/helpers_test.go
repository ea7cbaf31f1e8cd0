package alias

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-roomclient/config"
	"github.com/dep2p/go-roomclient/internal/core/identity"
	"github.com/dep2p/go-roomclient/internal/core/tunnel"
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

func keypair(t *testing.T, b byte) *identity.Keypair {
	t.Helper()
	kp, err := identity.KeypairFromSeed(bytes.Repeat([]byte{b}, 32))
	require.NoError(t, err)
	return kp
}

// fixture 一个房间、一个别名所有者和本节点
type fixture struct {
	local    *identity.Keypair
	user     *identity.Keypair
	roomID   types.FeedID
	roomAddr string
	relay    string
	opts     ConsumeOpts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	local := keypair(t, 1)
	user := keypair(t, 2)
	roomID := keypair(t, 3).ID()
	roomAddr := "net:room.example:8008~shs:" + roomID.Key()

	return &fixture{
		local:    local,
		user:     user,
		roomID:   roomID,
		roomAddr: roomAddr,
		relay:    tunnel.DeriveRelayAddress(roomID, user.ID()),
		opts: ConsumeOpts{
			MultiserverAddress: roomAddr,
			RoomID:             roomID,
			UserID:             user.ID(),
			Alias:              "alice",
			Signature:          SignRegistration(user, roomID, "alice"),
		},
	}
}

// room 启动隧道传输，并让连接房间地址时产生 connected 事件
type roomHarness struct {
	reg     *mocks.MockRegistry
	tr      *tunnel.Transport
	roomRPC *mocks.MockRPC
	userRPC *mocks.MockRPC
}

func newRoomHarness(t *testing.T, f *fixture, meta *types.RoomMetadata) *roomHarness {
	t.Helper()
	h := &roomHarness{
		reg:     mocks.NewMockRegistry(),
		roomRPC: mocks.NewMockRoom(f.roomID, meta),
		userRPC: mocks.NewMockRPC(f.user.ID()),
	}
	h.tr = tunnel.NewTransport(f.local.ID(), h.reg, config.DefaultTunnelConfig())
	require.NoError(t, h.tr.Start(context.Background()))
	t.Cleanup(func() { _ = h.tr.Close() })

	h.reg.ConnectFunc = func(_ context.Context, addr string) (pkgif.RPC, error) {
		switch addr {
		case f.roomAddr:
			h.reg.SetHub(addr, types.PeerData{Key: f.roomID})
			h.reg.Emit(pkgif.ConnEvent{
				Type:    pkgif.ConnEventConnected,
				Address: addr,
				Key:     f.roomID,
				RPC:     h.roomRPC,
			})
			return h.roomRPC, nil
		case f.relay:
			return h.userRPC, nil
		}
		return nil, mocks.ErrNoRoute
	}
	return h
}

func (h *roomHarness) service(f *fixture, opts ...Option) *Service {
	return NewService(f.local, h.tr.Rooms(), h.reg, config.DefaultAliasConfig(), opts...)
}

// countingRooms 永远不出现的房间，记录检查次数
type countingRooms struct {
	mu     sync.Mutex
	checks int
}

func (r *countingRooms) Get(types.FeedID) (*tunnel.RoomObserver, bool) {
	return nil, false
}

func (r *countingRooms) Has(types.FeedID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks++
	return false
}

func (r *countingRooms) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checks
}
