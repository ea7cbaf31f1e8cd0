package tunnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-roomclient/internal/core/eventbus"
	"github.com/dep2p/go-roomclient/internal/core/identity"
	pkgif "github.com/dep2p/go-roomclient/pkg/interfaces"
	"github.com/dep2p/go-roomclient/pkg/types"
	"github.com/dep2p/go-roomclient/tests/mocks"
)

// TestModule 测试 Fx 模块装配与生命周期
func TestModule(t *testing.T) {
	kp, err := identity.GenerateKeypair()
	require.NoError(t, err)
	reg := mocks.NewMockRegistry()

	var tr *Transport
	var bus pkgif.EventBus
	app := fxtest.New(t,
		fx.Supply(kp),
		fx.Provide(func() pkgif.ConnRegistry { return reg }),
		eventbus.Module(),
		Module(),
		fx.Populate(&tr, &bus),
	)
	app.RequireStart()

	sub, err := bus.Subscribe(new(types.EvtAttendantDiscovered))
	require.NoError(t, err)
	defer sub.Close()

	assert.Equal(t, kp.ID(), tr.LocalID())

	rpc := mocks.NewMockRoom(roomID, &types.RoomMetadata{Name: "garden"})
	reg.Emit(connected(netAddr("room", roomID), rpc))
	waitRoom(t, tr, roomID)
	rpc.Attendants.Push(types.AttendantsEvent{Type: types.AttendantJoined, ID: aliceID})

	evt := (<-sub.Out()).(types.EvtAttendantDiscovered)
	assert.Equal(t, aliceID, evt.Key)
	assert.Equal(t, DeriveRelayAddress(roomID, aliceID), evt.Address)

	app.RequireStop()
	assert.Equal(t, 0, tr.Rooms().Len())
}
