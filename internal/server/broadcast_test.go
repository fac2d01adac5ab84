package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/sketch-party/internal/protocol"
)

// newChanClient builds a client backed only by its send channel,
// enough to observe what the server pushes to it.
func newChanClient(id, room string) *Client {
	return &Client{
		ID:       id,
		Name:     id,
		RoomCode: room,
		send:     make(chan []byte, 8),
	}
}

func received(t *testing.T, c *Client) []*protocol.Message {
	t.Helper()

	var msgs []*protocol.Message
	for {
		select {
		case data := <-c.send:
			msg, err := protocol.Decode(data)
			require.NoError(t, err)
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func TestBroadcast_ReachesEveryClient(t *testing.T) {
	t.Parallel()

	lobby := newChanClient("c1", "")
	inRoom := newChanClient("c2", "ABCD")
	s := &Server{clients: map[string]*Client{"c1": lobby, "c2": inRoom}}

	s.Broadcast(protocol.MustNewMessage(protocol.MsgPong, nil))

	assert.Len(t, received(t, lobby), 1)
	assert.Len(t, received(t, inRoom), 1)
	assert.Equal(t, 2, s.GetOnlineCount())
}

func TestBroadcastToLobby_SkipsRoomMembers(t *testing.T) {
	t.Parallel()

	lobby := newChanClient("c1", "")
	inRoom := newChanClient("c2", "ABCD")
	s := &Server{clients: map[string]*Client{"c1": lobby, "c2": inRoom}}

	s.BroadcastToLobby(protocol.MustNewMessage(protocol.MsgPong, nil))

	assert.Len(t, received(t, lobby), 1)
	assert.Empty(t, received(t, inRoom))
}

func TestEnterMaintenanceMode_NotifiesLobby(t *testing.T) {
	t.Parallel()

	lobby := newChanClient("c1", "")
	s := &Server{clients: map[string]*Client{"c1": lobby}}
	require.False(t, s.IsMaintenanceMode())

	s.EnterMaintenanceMode()

	assert.True(t, s.IsMaintenanceMode())
	msgs := received(t, lobby)
	require.Len(t, msgs, 1)
	require.Equal(t, protocol.MsgError, msgs[0].Type)

	payload, err := protocol.ParsePayload[protocol.ErrorPayload](msgs[0])
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeMaintenance, payload.Code)
}
