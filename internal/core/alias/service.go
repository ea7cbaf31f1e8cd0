package alias

import (
	"context"
	"fmt"
	"net/http"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-roomclient/config"
	"github.com/dep2p/go-roomclient/internal/core/identity"
	"github.com/dep2p/go-roomclient/internal/core/tunnel"
	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/types"
)

// RoomSet 正在观察的房间
//
// *tunnel.Rooms 实现了该接口。
type RoomSet interface {
	Get(id types.FeedID) (*tunnel.RoomObserver, bool)
	Has(id types.FeedID) bool
}

// Manifest roomClient 命名空间
var Manifest = tunnel.Manifest{
	"consumeAliasUri": tunnel.MethodAsync,
	"registerAlias":   tunnel.MethodAsync,
	"revokeAlias":     tunnel.MethodAsync,
}

// ============================================================================
//                              Service
// ============================================================================

// Service 别名服务
type Service struct {
	keypair  *identity.Keypair
	rooms    RoomSet
	registry pkgif.ConnRegistry
	cfg      config.AliasConfig

	clock  clock.Clock
	client *http.Client
}

// Option 服务选项
type Option func(*Service)

// WithClock 设置退避等待使用的时钟
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithHTTPClient 设置解析别名 URL 使用的 HTTP 客户端
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

// NewService 创建别名服务
func NewService(kp *identity.Keypair, rooms RoomSet, registry pkgif.ConnRegistry, cfg config.AliasConfig, opts ...Option) *Service {
	s := &Service{
		keypair:  kp,
		rooms:    rooms,
		registry: registry,
		cfg:      cfg,
		clock:    clock.New(),
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
//                              注册与撤销
// ============================================================================

// RegisterAlias 在房间注册别名，返回房间给出的别名 URL
func (s *Service) RegisterAlias(ctx context.Context, room types.FeedID, alias string) (string, error) {
	if alias == "" {
		return "", fmt.Errorf("alias: cannot registerAlias: %w", &ValidationError{Field: "alias", Value: alias})
	}
	rpc, err := s.roomRPC(ctx, "registerAlias", room)
	if err != nil {
		return "", err
	}
	sig := SignRegistration(s.keypair, room, alias)
	url, err := rpc.RoomRegisterAlias(ctx, alias, sig)
	if err != nil {
		return "", err
	}
	logger.Info("别名已注册", "room", room.ShortString(), "alias", alias)
	return url, nil
}

// RevokeAlias 撤销别名
//
// 房间通过会话认证调用方，不需要签名。
func (s *Service) RevokeAlias(ctx context.Context, room types.FeedID, alias string) error {
	if alias == "" {
		return fmt.Errorf("alias: cannot revokeAlias: %w", &ValidationError{Field: "alias", Value: alias})
	}
	rpc, err := s.roomRPC(ctx, "revokeAlias", room)
	if err != nil {
		return err
	}
	if err := rpc.RoomRevokeAlias(ctx, alias); err != nil {
		return err
	}
	logger.Info("别名已撤销", "room", room.ShortString(), "alias", alias)
	return nil
}

// roomRPC 获取房间会话：优先使用正在观察的房间，否则连接地址库中的房间地址
func (s *Service) roomRPC(ctx context.Context, op string, room types.FeedID) (pkgif.RPC, error) {
	if !room.Valid() {
		return nil, fmt.Errorf("alias: cannot %s at invalid room %s: %w", op, room,
			&ValidationError{Field: "room", Value: string(room)})
	}
	if o, ok := s.rooms.Get(room); ok {
		return o.RPC(), nil
	}
	if addr, ok := s.registry.DB().GetAddressForID(room); ok {
		rpc, err := s.registry.Connect(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("alias: cannot %s because cant reach the room %s due to: %w", op, room, err)
		}
		return rpc, nil
	}
	return nil, fmt.Errorf("alias: cannot %s at room %s: %w", op, room, tunnel.ErrRoomOffline)
}

// ============================================================================
//                              消费别名
// ============================================================================

// ConsumeAlias 连接别名所有者
//
// 校验与签名验证失败时不做任何网络操作。签名有效时连接房间，
// 按退避序列等待房间被确认，再经由房间连接别名所有者。
func (s *Service) ConsumeAlias(ctx context.Context, opts ConsumeOpts) (pkgif.RPC, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("alias: cannot consumeAlias: %w", err)
	}
	if !opts.Registration().Verify(opts.Signature) {
		return nil, fmt.Errorf("cannot consumeAlias %s: %w", opts.Alias, ErrBadSignature)
	}

	room := opts.RoomID
	roomAddr := opts.MultiserverAddress
	known := s.knownRoom(roomAddr)

	if _, err := s.registry.Connect(ctx, roomAddr); err != nil {
		return nil, fmt.Errorf("alias: cannot consumeAlias %s because cannot connect to room %s due to: %w",
			opts.Alias, room, err)
	}

	waits := Schedule(s.cfg.BackoffInitial.Duration(), s.cfg.BackoffMax.Duration())
	ready, err := poll(ctx, s.clock, waits, func() bool { return s.rooms.Has(room) })
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, fmt.Errorf("alias: cannot consumeAlias %s: room %s: %w", opts.Alias, room, ErrRoomTimeout)
	}

	roomData, _ := s.registry.DB().Get(roomAddr)
	relay := tunnel.DeriveRelayAddress(room, opts.UserID)

	rpc, err := s.registry.Connect(ctx, relay)
	if err != nil {
		if !known && !s.throughRoom(room) {
			if derr := s.registry.Disconnect(ctx, roomAddr); derr != nil {
				logger.Debug("断开临时房间连接失败", "room", room.ShortString(), "error", derr)
			}
		}
		return nil, fmt.Errorf("alias: %s appears to be offline: %w", opts.Alias, err)
	}

	if s.cfg.RememberAliases && !roomData.Membership {
		s.registry.Remember(relay, types.PeerData{
			Type:        types.PeerTypeRoomAttendant,
			Key:         opts.UserID,
			Room:        room,
			RoomAddress: roomAddr,
			Alias:       opts.Alias,
			Autoconnect: true,
		})
	}
	logger.Info("已连接别名", "alias", opts.Alias, "room", room.ShortString())
	return rpc, nil
}

// ConsumeAliasURI 解析别名 URI 并消费
func (s *Service) ConsumeAliasURI(ctx context.Context, input string) (pkgif.RPC, error) {
	opts, err := s.ResolveURI(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.ConsumeAlias(ctx, *opts)
}

// knownRoom 房间地址在连接之前是否已知（地址库中有记录或已连接）
func (s *Service) knownRoom(addr string) bool {
	if _, ok := s.registry.DB().Get(addr); ok {
		return true
	}
	for _, e := range s.registry.Hub().Entries() {
		if e.Address == addr {
			return true
		}
	}
	return false
}

// throughRoom 是否有其他节点正经由该房间连接
func (s *Service) throughRoom(room types.FeedID) bool {
	for _, e := range s.registry.Hub().Entries() {
		if e.Data.Room == room {
			return true
		}
	}
	return false
}
