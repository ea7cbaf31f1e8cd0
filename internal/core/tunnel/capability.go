package tunnel

import (
	"context"
	"errors"
	"strings"

	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/types"
)

// ============================================================================
//                              能力探测
// ============================================================================

// IsMethodMissing 判断错误是否表示"远端未开放该方法"
//
// 兼容只能给出文本错误的远端：错误文本以 "not in list of allowed methods" 结尾即视为缺失。
func IsMethodMissing(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMethodNotAllowed) {
		return true
	}
	return strings.HasSuffix(strings.TrimSpace(err.Error()), ErrMethodNotAllowed.Error())
}

// ProbeOutcome 一次能力探测的结果
type ProbeOutcome int

const (
	// ProbeSupported 方法存在且调用成功
	ProbeSupported ProbeOutcome = iota
	// ProbeNotSupported 远端未开放该方法，可以回退
	ProbeNotSupported
	// ProbeFailed 方法存在但调用失败
	ProbeFailed
)

// String 返回结果名称
func (o ProbeOutcome) String() string {
	switch o {
	case ProbeSupported:
		return "supported"
	case ProbeNotSupported:
		return "not-supported"
	case ProbeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProbeResult 带标签的探测结果
type ProbeResult[T any] struct {
	Outcome ProbeOutcome
	Value   T
	Err     error
}

// Probe 调用一个可能不存在的远程方法
func Probe[T any](ctx context.Context, call func(context.Context) (T, error)) ProbeResult[T] {
	v, err := call(ctx)
	switch {
	case err == nil:
		return ProbeResult[T]{Outcome: ProbeSupported, Value: v}
	case IsMethodMissing(err):
		return ProbeResult[T]{Outcome: ProbeNotSupported, Err: err}
	default:
		return ProbeResult[T]{Outcome: ProbeFailed, Err: err}
	}
}

// DetectRoom 判断对端是否为房间
//
// 依次尝试 room.metadata() 与 tunnel.isRoom()。
// 只有前者明确不存在时才尝试后者；前者调用失败则直接判定不是房间。
func DetectRoom(ctx context.Context, rpc pkgif.RPC) (types.RoomDetection, bool) {
	modern := Probe(ctx, rpc.RoomMetadata)
	switch modern.Outcome {
	case ProbeSupported:
		if modern.Value == nil {
			return types.RoomDetection{}, false
		}
		return types.RoomDetection{Kind: types.DetectedModern, Metadata: modern.Value}, true

	case ProbeNotSupported:
		legacy := Probe(ctx, rpc.TunnelIsRoom)
		if legacy.Outcome == ProbeSupported && legacy.Value != nil {
			return types.RoomDetection{Kind: types.DetectedLegacy, Metadata: legacy.Value}, true
		}
		if legacy.Outcome == ProbeFailed {
			logger.Debug("tunnel.isRoom 调用失败", "peer", rpc.ID().ShortString(), "error", legacy.Err)
		}
		return types.RoomDetection{}, false

	default:
		logger.Debug("room.metadata 调用失败", "peer", rpc.ID().ShortString(), "error", modern.Err)
		return types.RoomDetection{}, false
	}
}

// metadataPatch 把探测到的房间元数据转换为注册表更新
//
// 元数据为空时返回 nil。标志位只会被置为 true，已记录的标志不会被清除。
func metadataPatch(d types.RoomDetection) types.Patch {
	m := d.Metadata
	if m.IsEmpty() {
		return nil
	}
	legacy := d.Kind == types.DetectedLegacy
	return func(p *types.PeerData) {
		p.Type = types.PeerTypeRoom
		if m.Name != "" {
			p.Name = m.Name
		}
		if m.Membership {
			p.Membership = true
		}
		if legacy || m.HasFeature(types.FeatureRoom1) {
			p.OpenInvites = true
		}
		if m.HasFeature(types.FeatureRoom2) {
			p.SupportsRoom2 = true
		}
		if m.HasFeature(types.FeatureAlias) {
			p.SupportsAliases = true
		}
		if m.HasFeature(types.FeatureHTTPAuth) {
			p.SupportsHTTPAuth = true
		}
		if m.HasFeature(types.FeatureHTTPInvite) {
			p.SupportsHTTPInvite = true
		}
	}
}
