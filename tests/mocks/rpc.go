package mocks

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/types"
)

// MethodMissing 返回远端未开放方法时的错误
func MethodMissing(method string) error {
	return errors.New("method:" + method + " is not in list of allowed methods")
}

// AliasCall RoomRegisterAlias 调用记录
type AliasCall struct {
	Alias     string
	Signature string
}

// MockRPC 模拟 interfaces.RPC
//
// 未设置 XxxFunc 的方法返回 MethodMissing 错误。
// 设置了 Attendants/Endpoints 时对应订阅直接返回它们。
type MockRPC struct {
	IDValue types.FeedID

	Attendants *MockSource[types.AttendantsEvent]
	Endpoints  *MockSource[[]types.FeedID]

	// 可覆盖的方法
	RoomMetadataFunc      func(ctx context.Context) (*types.RoomMetadata, error)
	TunnelIsRoomFunc      func(ctx context.Context) (*types.RoomMetadata, error)
	RoomAttendantsFunc    func(ctx context.Context) (interfaces.Source[types.AttendantsEvent], error)
	TunnelEndpointsFunc   func(ctx context.Context) (interfaces.Source[[]types.FeedID], error)
	TunnelConnectFunc     func(ctx context.Context, opts types.ConnectOpts) (net.Conn, error)
	RoomRegisterAliasFunc func(ctx context.Context, alias, signature string) (string, error)
	RoomRevokeAliasFunc   func(ctx context.Context, alias string) error
	CloseFunc             func(ctx context.Context) error

	// 调用记录
	mu            sync.Mutex
	calls         map[string]int
	connectCalls  []types.ConnectOpts
	registerCalls []AliasCall
	revokeCalls   []string
}

var _ interfaces.RPC = (*MockRPC)(nil)

// NewMockRPC 创建 MockRPC
func NewMockRPC(id types.FeedID) *MockRPC {
	return &MockRPC{IDValue: id, calls: make(map[string]int)}
}

// NewMockRoom 创建一个 room.metadata 返回 meta 的 MockRPC
func NewMockRoom(id types.FeedID, meta *types.RoomMetadata) *MockRPC {
	m := NewMockRPC(id)
	m.RoomMetadataFunc = func(context.Context) (*types.RoomMetadata, error) {
		return meta, nil
	}
	m.Attendants = NewMockSource[types.AttendantsEvent]()
	return m
}

func (m *MockRPC) record(method string) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
	m.mu.Unlock()
}

// Calls 返回方法被调用次数
func (m *MockRPC) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// ConnectCalls 返回 TunnelConnect 调用参数
func (m *MockRPC) ConnectCalls() []types.ConnectOpts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.ConnectOpts(nil), m.connectCalls...)
}

// RegisterAliasCalls 返回 RoomRegisterAlias 调用参数
func (m *MockRPC) RegisterAliasCalls() []AliasCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AliasCall(nil), m.registerCalls...)
}

// RevokeAliasCalls 返回 RoomRevokeAlias 调用参数
func (m *MockRPC) RevokeAliasCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.revokeCalls...)
}

// ID 返回远端身份
func (m *MockRPC) ID() types.FeedID {
	return m.IDValue
}

// RoomMetadata room.metadata()
func (m *MockRPC) RoomMetadata(ctx context.Context) (*types.RoomMetadata, error) {
	m.record("room.metadata")
	if m.RoomMetadataFunc != nil {
		return m.RoomMetadataFunc(ctx)
	}
	return nil, MethodMissing("room.metadata")
}

// TunnelIsRoom tunnel.isRoom()
func (m *MockRPC) TunnelIsRoom(ctx context.Context) (*types.RoomMetadata, error) {
	m.record("tunnel.isRoom")
	if m.TunnelIsRoomFunc != nil {
		return m.TunnelIsRoomFunc(ctx)
	}
	return nil, MethodMissing("tunnel.isRoom")
}

// RoomAttendants room.attendants()
func (m *MockRPC) RoomAttendants(ctx context.Context) (interfaces.Source[types.AttendantsEvent], error) {
	m.record("room.attendants")
	if m.RoomAttendantsFunc != nil {
		return m.RoomAttendantsFunc(ctx)
	}
	if m.Attendants != nil {
		return m.Attendants, nil
	}
	return nil, MethodMissing("room.attendants")
}

// TunnelEndpoints tunnel.endpoints()
func (m *MockRPC) TunnelEndpoints(ctx context.Context) (interfaces.Source[[]types.FeedID], error) {
	m.record("tunnel.endpoints")
	if m.TunnelEndpointsFunc != nil {
		return m.TunnelEndpointsFunc(ctx)
	}
	if m.Endpoints != nil {
		return m.Endpoints, nil
	}
	return nil, MethodMissing("tunnel.endpoints")
}

// TunnelConnect tunnel.connect()
func (m *MockRPC) TunnelConnect(ctx context.Context, opts types.ConnectOpts) (net.Conn, error) {
	m.record("tunnel.connect")
	m.mu.Lock()
	m.connectCalls = append(m.connectCalls, opts)
	m.mu.Unlock()
	if m.TunnelConnectFunc != nil {
		return m.TunnelConnectFunc(ctx, opts)
	}
	local, remote := net.Pipe()
	go remote.Close()
	return local, nil
}

// RoomRegisterAlias room.registerAlias()
func (m *MockRPC) RoomRegisterAlias(ctx context.Context, alias, signature string) (string, error) {
	m.record("room.registerAlias")
	m.mu.Lock()
	m.registerCalls = append(m.registerCalls, AliasCall{Alias: alias, Signature: signature})
	m.mu.Unlock()
	if m.RoomRegisterAliasFunc != nil {
		return m.RoomRegisterAliasFunc(ctx, alias, signature)
	}
	return "", MethodMissing("room.registerAlias")
}

// RoomRevokeAlias room.revokeAlias()
func (m *MockRPC) RoomRevokeAlias(ctx context.Context, alias string) error {
	m.record("room.revokeAlias")
	m.mu.Lock()
	m.revokeCalls = append(m.revokeCalls, alias)
	m.mu.Unlock()
	if m.RoomRevokeAliasFunc != nil {
		return m.RoomRevokeAliasFunc(ctx, alias)
	}
	return MethodMissing("room.revokeAlias")
}

// Close 结束会话
func (m *MockRPC) Close(ctx context.Context) error {
	m.record("close")
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx)
	}
	return nil
}
