package tunnel

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dep2p/go-roomclient/pkg/types"
	"github.com/dep2p/go-roomclient/tests/mocks"
)

// TestIsMethodMissing 测试方法缺失识别
func TestIsMethodMissing(t *testing.T) {
	assert.False(t, IsMethodMissing(nil))
	assert.True(t, IsMethodMissing(ErrMethodNotAllowed))
	assert.True(t, IsMethodMissing(fmt.Errorf("rpc: %w", ErrMethodNotAllowed)))
	assert.True(t, IsMethodMissing(mocks.MethodMissing("room.metadata")))
	assert.True(t, IsMethodMissing(CheckMethod("tunnel", TunnelManifest, "nope")))
	assert.False(t, IsMethodMissing(errors.New("connection reset")))
}

// TestDetectRoom_Modern 测试 room.metadata 成功时不再调用 tunnel.isRoom
func TestDetectRoom_Modern(t *testing.T) {
	rpc := mocks.NewMockRoom(roomID, &types.RoomMetadata{Name: "garden"})

	d, ok := DetectRoom(context.Background(), rpc)
	assert.True(t, ok)
	assert.Equal(t, types.DetectedModern, d.Kind)
	assert.Equal(t, "garden", d.Name())
	assert.Equal(t, 0, rpc.Calls("tunnel.isRoom"))
}

// TestDetectRoom_ModernSaysNo 测试 room.metadata 返回 false
func TestDetectRoom_ModernSaysNo(t *testing.T) {
	rpc := mocks.NewMockRoom(roomID, nil)

	_, ok := DetectRoom(context.Background(), rpc)
	assert.False(t, ok)
	assert.Equal(t, 0, rpc.Calls("tunnel.isRoom"))
}

// TestDetectRoom_LegacyFallback 测试 room.metadata 缺失时调用一次 tunnel.isRoom
func TestDetectRoom_LegacyFallback(t *testing.T) {
	rpc := mocks.NewMockRPC(roomID)
	rpc.TunnelIsRoomFunc = func(context.Context) (*types.RoomMetadata, error) {
		return &types.RoomMetadata{}, nil
	}

	d, ok := DetectRoom(context.Background(), rpc)
	assert.True(t, ok)
	assert.Equal(t, types.DetectedLegacy, d.Kind)
	assert.Equal(t, 1, rpc.Calls("room.metadata"))
	assert.Equal(t, 1, rpc.Calls("tunnel.isRoom"))
}

// TestDetectRoom_LegacySaysNo 测试旧版探测返回 false
func TestDetectRoom_LegacySaysNo(t *testing.T) {
	rpc := mocks.NewMockRPC(roomID)
	rpc.TunnelIsRoomFunc = func(context.Context) (*types.RoomMetadata, error) {
		return nil, nil
	}

	_, ok := DetectRoom(context.Background(), rpc)
	assert.False(t, ok)
}

// TestDetectRoom_NeitherMethod 测试两个方法都不存在
func TestDetectRoom_NeitherMethod(t *testing.T) {
	rpc := mocks.NewMockRPC(roomID)

	_, ok := DetectRoom(context.Background(), rpc)
	assert.False(t, ok)
	assert.Equal(t, 1, rpc.Calls("tunnel.isRoom"))
}

// TestDetectRoom_OtherErrorSkipsFallback 测试 room.metadata 其他错误时不回退
func TestDetectRoom_OtherErrorSkipsFallback(t *testing.T) {
	rpc := mocks.NewMockRPC(roomID)
	rpc.RoomMetadataFunc = func(context.Context) (*types.RoomMetadata, error) {
		return nil, errors.New("remote exploded")
	}

	_, ok := DetectRoom(context.Background(), rpc)
	assert.False(t, ok)
	assert.Equal(t, 0, rpc.Calls("tunnel.isRoom"))
}

// TestMetadataPatch 测试元数据转换
func TestMetadataPatch(t *testing.T) {
	assert.Nil(t, metadataPatch(types.RoomDetection{Kind: types.DetectedLegacy, Metadata: &types.RoomMetadata{}}))

	patch := metadataPatch(types.RoomDetection{
		Kind: types.DetectedLegacy,
		Metadata: &types.RoomMetadata{
			Name:       "garden",
			Membership: true,
			Features:   []string{types.FeatureRoom2, types.FeatureAlias, types.FeatureHTTPInvite},
		},
	})
	var d types.PeerData
	d.Apply(patch)

	assert.Equal(t, types.PeerTypeRoom, d.Type)
	assert.Equal(t, "garden", d.Name)
	assert.True(t, d.Membership)
	assert.True(t, d.OpenInvites)
	assert.True(t, d.SupportsRoom2)
	assert.True(t, d.SupportsAliases)
	assert.False(t, d.SupportsHTTPAuth)
	assert.True(t, d.SupportsHTTPInvite)
}

// TestMetadataPatch_KeepsStoredFlags 测试元数据更新不清除已记录的标志
func TestMetadataPatch_KeepsStoredFlags(t *testing.T) {
	d := types.PeerData{
		Membership:       true,
		SupportsAliases:  true,
		SupportsHTTPAuth: true,
		OnlineCount:      3,
	}
	d.Apply(metadataPatch(types.RoomDetection{
		Kind:     types.DetectedModern,
		Metadata: &types.RoomMetadata{Name: "garden", Features: []string{types.FeatureRoom2}},
	}))

	assert.Equal(t, types.PeerTypeRoom, d.Type)
	assert.Equal(t, "garden", d.Name)
	assert.True(t, d.Membership)
	assert.True(t, d.SupportsAliases)
	assert.True(t, d.SupportsHTTPAuth)
	assert.True(t, d.SupportsRoom2)
	assert.False(t, d.OpenInvites)
	assert.Equal(t, 3, d.OnlineCount)
}
