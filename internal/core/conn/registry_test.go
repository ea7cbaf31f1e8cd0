package conn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/types"
	"github.com/dep2p/go-roomclient/tests/mocks"
)

const roomAddr = "net:room.example:8008~shs:room"

// TestRegistry_ConnectEmitsEvent 测试连接后更新连接表并发布事件
func TestRegistry_ConnectEmitsEvent(t *testing.T) {
	d := newFakeDialer()
	roomID := feed(0x02)
	rpc := d.add(roomAddr, roomID)
	reg := newTestRegistry(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := reg.Listen(ctx)

	got, err := reg.Connect(ctx, roomAddr)
	require.NoError(t, err)
	assert.Same(t, rpc, got)

	ev := next(t, events)
	assert.Equal(t, pkgif.ConnEventConnected, ev.Type)
	assert.Equal(t, roomAddr, ev.Address)
	assert.Equal(t, roomID, ev.Key)
	assert.Same(t, rpc, ev.RPC)

	entries := reg.Hub().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, roomID, entries[0].Data.Key)
	assert.True(t, reg.Connected(roomAddr))

	// 已连接时复用会话
	again, err := reg.Connect(ctx, roomAddr)
	require.NoError(t, err)
	assert.Same(t, rpc, again)
	assert.Equal(t, 1, d.count())
}

// TestRegistry_ConnectFailure 测试拨号失败
func TestRegistry_ConnectFailure(t *testing.T) {
	reg := newTestRegistry(t, newFakeDialer())

	_, err := reg.Connect(context.Background(), roomAddr)
	assert.ErrorIs(t, err, mocks.ErrNoRoute)
	assert.Empty(t, reg.Hub().Entries())
}

// TestRegistry_NoDialer 测试未配置拨号器
func TestRegistry_NoDialer(t *testing.T) {
	reg := newTestRegistry(t, nil)

	_, err := reg.Connect(context.Background(), roomAddr)
	assert.ErrorIs(t, err, ErrNoDialer)
}

// TestRegistry_ConnectMovesStagedData 测试暂存数据随连接进入连接表
func TestRegistry_ConnectMovesStagedData(t *testing.T) {
	d := newFakeDialer()
	alice := feed(0x0a)
	addr := "tunnel:@room.ed25519:@alice.ed25519~shs:alice"
	d.add(addr, alice)
	reg := newTestRegistry(t, d)

	require.True(t, reg.Stage(addr, types.PeerData{Type: types.PeerTypeRoomAttendant, RoomName: "garden"}))
	assert.False(t, reg.Stage(addr, types.PeerData{}))

	_, err := reg.Connect(context.Background(), addr)
	require.NoError(t, err)

	assert.Empty(t, reg.StagingEntries())
	entries := reg.Hub().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, types.PeerData{Type: types.PeerTypeRoomAttendant, RoomName: "garden", Key: alice}, entries[0].Data)

	// 已连接的地址不能暂存
	assert.False(t, reg.Stage(addr, types.PeerData{}))
}

// TestRegistry_ConnectUsesStoredData 测试连接地址库中的地址
func TestRegistry_ConnectUsesStoredData(t *testing.T) {
	d := newFakeDialer()
	roomID := feed(0x02)
	d.add(roomAddr, roomID)
	reg := newTestRegistry(t, d)
	reg.DB().Update(roomAddr, func(p *types.PeerData) { p.Type = types.PeerTypeRoom; p.Name = "garden" })

	_, err := reg.Connect(context.Background(), roomAddr)
	require.NoError(t, err)

	entries := reg.Hub().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "garden", entries[0].Data.Name)
	assert.Equal(t, roomID, entries[0].Data.Key)
}

// TestRegistry_Disconnect 测试断开后关闭会话并发布事件
func TestRegistry_Disconnect(t *testing.T) {
	d := newFakeDialer()
	roomID := feed(0x02)
	rpc := d.add(roomAddr, roomID)
	reg := newTestRegistry(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := reg.Listen(ctx)

	_, err := reg.Connect(ctx, roomAddr)
	require.NoError(t, err)
	next(t, events)

	require.NoError(t, reg.Disconnect(ctx, roomAddr))
	ev := next(t, events)
	assert.Equal(t, pkgif.ConnEventDisconnected, ev.Type)
	assert.Equal(t, roomID, ev.Key)
	assert.Nil(t, ev.RPC)
	assert.Equal(t, 1, rpc.Calls("close"))
	assert.Empty(t, reg.Hub().Entries())

	// 未连接时什么也不做
	require.NoError(t, reg.Disconnect(ctx, roomAddr))
	assert.Equal(t, 1, rpc.Calls("close"))
}

// TestRegistry_Drop 测试远端结束会话
func TestRegistry_Drop(t *testing.T) {
	d := newFakeDialer()
	rpc := d.add(roomAddr, feed(0x02))
	reg := newTestRegistry(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := reg.Listen(ctx)

	_, err := reg.Connect(ctx, roomAddr)
	require.NoError(t, err)
	next(t, events)

	reg.Drop(roomAddr)
	assert.Equal(t, pkgif.ConnEventDisconnected, next(t, events).Type)
	assert.False(t, reg.Connected(roomAddr))
	assert.Equal(t, 0, rpc.Calls("close"))
}

// TestRegistry_ListenClosesWithContext 测试 ctx 结束后通道关闭
func TestRegistry_ListenClosesWithContext(t *testing.T) {
	reg := newTestRegistry(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	events := reg.Listen(ctx)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, waitFor, tick)
}

// TestRegistry_Remember 测试持久化派生地址
func TestRegistry_Remember(t *testing.T) {
	reg := newTestRegistry(t, nil)
	alice := feed(0x0a)

	reg.Remember("tunnel:r:a~shs:a", types.PeerData{Key: alice, Autoconnect: true})

	addr, ok := reg.DB().GetAddressForID(alice)
	require.True(t, ok)
	assert.Equal(t, "tunnel:r:a~shs:a", addr)
}

// TestRegistry_Close 测试关闭时断开所有会话
func TestRegistry_Close(t *testing.T) {
	d := newFakeDialer()
	a := d.add("net:a:1~shs:a", feed(0x0a))
	b := d.add("net:b:1~shs:b", feed(0x0b))
	reg := newTestRegistry(t, d)
	ctx := context.Background()

	_, err := reg.Connect(ctx, "net:a:1~shs:a")
	require.NoError(t, err)
	_, err = reg.Connect(ctx, "net:b:1~shs:b")
	require.NoError(t, err)

	require.NoError(t, reg.Close(ctx))
	assert.Equal(t, 1, a.Calls("close"))
	assert.Equal(t, 1, b.Calls("close"))
	assert.Empty(t, reg.Hub().Entries())

	_, err = reg.Connect(ctx, "net:a:1~shs:a")
	assert.ErrorIs(t, err, ErrClosed)
}

// TestRegistry_HubUpdateAfterDisconnect 测试断开后的连接表更新不会留下记录
func TestRegistry_HubUpdateAfterDisconnect(t *testing.T) {
	d := newFakeDialer()
	d.add(roomAddr, feed(0x02))
	reg := newTestRegistry(t, d)
	ctx := context.Background()

	_, err := reg.Connect(ctx, roomAddr)
	require.NoError(t, err)
	reg.Hub().Update(roomAddr, func(p *types.PeerData) { p.OnlineCount = 2 })
	h, ok := reg.hub.Get(roomAddr)
	require.True(t, ok)
	assert.Equal(t, 2, h.OnlineCount)

	require.NoError(t, reg.Disconnect(ctx, roomAddr))
	reg.Hub().Update(roomAddr, func(p *types.PeerData) { p.OnlineCount = 3 })

	_, ok = reg.hub.Get(roomAddr)
	assert.False(t, ok)
	assert.Empty(t, reg.Hub().Entries())

	// 未连接的地址可以被暂存
	assert.True(t, reg.Stage(roomAddr, types.PeerData{Type: types.PeerTypeRoom}))
}
