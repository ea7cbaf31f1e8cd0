package conn

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/tests/mocks"
)

// pipeDialer 返回 net.Pipe 的一端并记录拨号地址
type pipeDialer struct {
	mu    sync.Mutex
	addrs []string
	peers []net.Conn
	err   error
}

func (d *pipeDialer) Dial(_ context.Context, addr string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addrs = append(d.addrs, addr)
	if d.err != nil {
		return nil, d.err
	}
	local, remote := net.Pipe()
	d.peers = append(d.peers, remote)
	return local, nil
}

func TestRouter_RoutesByScheme(t *testing.T) {
	fallback := newFakeDialer()
	fallbackRPC := fallback.add(roomAddr, feed(0x02))

	stream := &pipeDialer{}
	user := mocks.NewMockRPC(feed(0x05))
	var upgraded []string
	r := NewRouter(fallback)
	r.Handle("tunnel", stream, func(_ context.Context, addr string, c net.Conn) (pkgif.RPC, error) {
		require.NotNil(t, c)
		upgraded = append(upgraded, addr)
		return user, nil
	})
	assert.True(t, r.Handles("tunnel"))
	assert.False(t, r.Handles("net"))

	relay := "tunnel:" + feed(0x02).String() + ":" + feed(0x05).String() + "~shs:" + feed(0x05).String()
	rpc, err := r.Dial(context.Background(), relay)
	require.NoError(t, err)
	assert.Same(t, user, rpc)
	assert.Equal(t, []string{relay}, stream.addrs)
	assert.Equal(t, []string{relay}, upgraded)
	assert.Zero(t, fallback.count())

	rpc, err = r.Dial(context.Background(), roomAddr)
	require.NoError(t, err)
	assert.Same(t, fallbackRPC, rpc)
	assert.Len(t, stream.addrs, 1)
}

func TestRouter_UpgradeFailureClosesConn(t *testing.T) {
	stream := &pipeDialer{}
	boom := errors.New("handshake failed")
	r := NewRouter(nil)
	r.Handle("tunnel", stream, func(context.Context, string, net.Conn) (pkgif.RPC, error) {
		return nil, boom
	})

	_, err := r.Dial(context.Background(), "tunnel:a:b~shs:b")
	require.ErrorIs(t, err, boom)

	// 本端已关闭，对端写入失败
	require.Len(t, stream.peers, 1)
	_, werr := stream.peers[0].Write([]byte{1})
	assert.Error(t, werr)
}

func TestRouter_DialErrorAndNoFallback(t *testing.T) {
	boom := errors.New("room offline")
	r := NewRouter(nil)
	r.Handle("tunnel", &pipeDialer{err: boom}, func(context.Context, string, net.Conn) (pkgif.RPC, error) {
		t.Fatal("upgrade must not run after a failed dial")
		return nil, nil
	})

	_, err := r.Dial(context.Background(), "tunnel:a:b~shs:b")
	assert.ErrorIs(t, err, boom)

	_, err = r.Dial(context.Background(), roomAddr)
	assert.ErrorIs(t, err, ErrNoDialer)
}
