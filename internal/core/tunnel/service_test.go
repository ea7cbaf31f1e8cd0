package tunnel

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-roomclient/config"
	"github.com/dep2p/go-roomclient/pkg/types"
	"github.com/dep2p/go-roomclient/tests/mocks"
)

func readError(t *testing.T, conn net.Conn) error {
	t.Helper()
	_, err := conn.Read(make([]byte, 1))
	require.Error(t, err)
	return err
}

// TestService_ConnectRejects 测试入站请求校验
func TestService_ConnectRejects(t *testing.T) {
	reg := mocks.NewMockRegistry()
	tr := newTestTransport(t, reg, config.DefaultTunnelConfig(), WithInboundHandler(func(c net.Conn) { c.Close() }))
	svc := tr.Service()
	ctx := context.Background()

	err := readError(t, svc.Connect(ctx, roomID, nil))
	assert.Contains(t, err.Error(), "opts *must* be provided")

	err = readError(t, svc.Connect(ctx, roomID, &types.ConnectOpts{Target: bobID, Portal: roomID, Origin: aliceID}))
	assert.Contains(t, err.Error(), "not this peer")

	// 调用方不是已确认的房间
	err = readError(t, svc.Connect(ctx, roomID, &types.ConnectOpts{Target: localID, Portal: roomID, Origin: aliceID}))
	assert.Contains(t, err.Error(), "not a known room")

	rpc := mocks.NewMockRoom(roomID, &types.RoomMetadata{Name: "garden"})
	reg.Emit(connected(netAddr("room", roomID), rpc))
	waitRoom(t, tr, roomID)

	err = readError(t, svc.Connect(ctx, roomID, &types.ConnectOpts{Target: localID, Portal: roomID, Origin: "bad"}))
	assert.Contains(t, err.Error(), "invalid origin")

	err = readError(t, svc.Connect(ctx, roomID, &types.ConnectOpts{Target: localID, Portal: aliceID, Origin: aliceID}))
	assert.ErrorIs(t, err, ErrConnectRefused)
}

// TestService_ConnectAccepted 测试入站隧道交给处理器
func TestService_ConnectAccepted(t *testing.T) {
	reg := mocks.NewMockRegistry()
	accepted := make(chan net.Conn, 1)
	tr := newTestTransport(t, reg, config.DefaultTunnelConfig(), WithInboundHandler(func(c net.Conn) {
		accepted <- c
	}))

	rpc := mocks.NewMockRoom(roomID, &types.RoomMetadata{Name: "garden"})
	reg.Emit(connected(netAddr("room", roomID), rpc))
	waitRoom(t, tr, roomID)

	remote := tr.Service().Connect(context.Background(), roomID, &types.ConnectOpts{
		Target: localID,
		Portal: roomID,
		Origin: aliceID,
	})
	require.NoError(t, AsError(remote))
	defer remote.Close()

	local := <-accepted
	defer local.Close()
	assert.Equal(t, "tunnel:"+string(roomID)+":"+string(aliceID), local.RemoteAddr().String())
	tc, ok := local.(*Conn)
	require.True(t, ok)
	assert.NotEmpty(t, tc.ID())
	assert.Equal(t, aliceID, tc.RemoteAddr().(Addr).Target)

	go func() { _, _ = remote.Write([]byte("hello")) }()
	buf := make([]byte, 5)
	_, err := io.ReadFull(local, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}

// TestService_NoHandler 测试没有入站处理器时拒绝
func TestService_NoHandler(t *testing.T) {
	reg := mocks.NewMockRegistry()
	tr := newTestTransport(t, reg, config.DefaultTunnelConfig())

	rpc := mocks.NewMockRoom(roomID, &types.RoomMetadata{Name: "garden"})
	reg.Emit(connected(netAddr("room", roomID), rpc))
	waitRoom(t, tr, roomID)

	err := readError(t, tr.Service().Connect(context.Background(), roomID, &types.ConnectOpts{
		Target: localID, Portal: roomID, Origin: aliceID,
	}))
	assert.Contains(t, err.Error(), "no handler")
}

// TestService_RateLimit 测试入站请求限流
func TestService_RateLimit(t *testing.T) {
	cfg := config.DefaultTunnelConfig()
	cfg.InboundRateLimit = 0.001
	cfg.InboundBurst = 1

	reg := mocks.NewMockRegistry()
	tr := newTestTransport(t, reg, cfg, WithInboundHandler(func(c net.Conn) { c.Close() }))

	rpc := mocks.NewMockRoom(roomID, &types.RoomMetadata{Name: "garden"})
	reg.Emit(connected(netAddr("room", roomID), rpc))
	waitRoom(t, tr, roomID)

	opts := &types.ConnectOpts{Target: localID, Portal: roomID, Origin: aliceID}
	first := tr.Service().Connect(context.Background(), roomID, opts)
	require.NoError(t, AsError(first))
	first.Close()

	err := readError(t, tr.Service().Connect(context.Background(), roomID, opts))
	assert.Contains(t, err.Error(), "too many tunnel requests")
}

// TestService_ManifestAndPermissions 测试方法清单与权限
func TestService_ManifestAndPermissions(t *testing.T) {
	tr := NewTransport(localID, mocks.NewMockRegistry(), config.DefaultTunnelConfig())
	svc := tr.Service()

	m := svc.Manifest()
	assert.Equal(t, MethodDuplex, m["connect"])
	assert.Equal(t, MethodSource, m["endpoints"])
	assert.Equal(t, []string{"announce", "connect", "endpoints", "isRoom", "leave", "ping"}, m.Methods())

	p := svc.Permissions()
	assert.True(t, p.Allows("connect"))
	assert.True(t, p.Allows("ping"))
	assert.False(t, p.Allows("endpoints"))

	assert.Positive(t, svc.Ping())
	assert.NoError(t, CheckMethod("room", RoomManifest, "attendants"))
}
