package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/sketch-party/internal/apperrors"
	"github.com/palemoky/sketch-party/internal/protocol"
	"github.com/palemoky/sketch-party/internal/testutil"
)

func TestDraw_LobbyUsesSharedCanvas(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	s.Draw(clients[0].ID, protocol.CanvasAction{StrokeID: "s1", Tool: "pen"})

	s.mu.Lock()
	log := s.canvas.Log()
	s.mu.Unlock()
	require.Len(t, log, 1)
	assert.Equal(t, clients[0].ID, log[0].UserID)
	assert.Equal(t, "base", log[0].LayerID, "defaults to the user's active layer")

	// Everyone in the room sees the stroke
	for _, c := range clients {
		assert.NotNil(t, c.LastOfType(protocol.MsgDrawBroadcast))
	}
}

func TestDraw_SpectatorCannotDraw(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, 1)
	spec, err := s.Join(testutil.NewSimpleClient("spec", "Watcher"), "Watcher", "", true)
	require.NoError(t, err)

	s.Draw(spec.ID, protocol.CanvasAction{StrokeID: "s1", Tool: "pen"})

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.canvas.Log())
}

func TestDraw_OnlyDrawerDuringTurnGame(t *testing.T) {
	t.Parallel()

	s, e, _, drawerID, guesser := newTurnGame(t, 2)
	finalize(s, e, "chat")

	s.Draw(guesser.ID, protocol.CanvasAction{StrokeID: "s1", Tool: "pen"})
	s.Draw(drawerID, protocol.CanvasAction{StrokeID: "s2", Tool: "pen"})

	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.canvas.Log()
	require.Len(t, log, 1)
	assert.Equal(t, drawerID, log[0].UserID)
}

func TestUndoRedo_RoundTripOnSharedCanvas(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	s.Draw(clients[0].ID, protocol.CanvasAction{StrokeID: "s1", Tool: "pen"})
	s.Undo(clients[0].ID)

	s.mu.Lock()
	assert.Empty(t, s.canvas.Log())
	s.mu.Unlock()

	s.Redo(clients[0].ID)

	s.mu.Lock()
	assert.Len(t, s.canvas.Log(), 1)
	s.mu.Unlock()

	// Both users got the rebuilt canvas state
	for _, c := range clients {
		assert.NotEmpty(t, c.MessagesOfType(protocol.MsgCanvasState))
	}
}

func TestUndo_NothingToUndoReportsError(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	s.Undo(clients[0].ID)

	msg := clients[0].LastOfType(protocol.MsgError)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeNothingToUndo, payload.Code)
}

func TestUndo_OnlyOwnStrokes(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	s.Draw(clients[0].ID, protocol.CanvasAction{StrokeID: "s1", Tool: "pen"})

	// The other user has nothing of their own to undo
	s.Undo(clients[1].ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.canvas.Log(), 1)
}

func TestClearCanvas_ResetsEverything(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	s.Draw(clients[0].ID, protocol.CanvasAction{StrokeID: "s1", Tool: "pen"})
	s.ClearCanvas(clients[0].ID)

	s.mu.Lock()
	assert.Empty(t, s.canvas.Log())
	assert.False(t, s.canvas.CanUndo(clients[0].ID))
	s.mu.Unlock()

	assert.NotNil(t, clients[1].LastOfType(protocol.MsgCanvasCleared))
}

// --- layers ---

func TestAddLayer_LeaderOnlyInLobby(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	err := s.AddLayer(clients[1].ID, "sketch")
	assert.ErrorIs(t, err, apperrors.ErrNotYourTurn)

	require.NoError(t, s.AddLayer(clients[0].ID, "sketch"))

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.layers, 2)
	assert.Equal(t, "sketch", s.layers[1].Name)
}

func TestDeleteLayer_KeepsAtLeastOne(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	err := s.DeleteLayer(clients[0].ID, "base")
	assert.ErrorIs(t, err, apperrors.ErrInvalidLayer)
}

func TestDeleteLayer_PurgesActionsAndReassignsUsers(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)
	require.NoError(t, s.AddLayer(clients[0].ID, "sketch"))

	s.mu.Lock()
	layerID := s.layers[1].ID
	s.findUser(clients[1].ID).ActiveLayer = layerID
	s.mu.Unlock()

	s.Draw(clients[0].ID, protocol.CanvasAction{StrokeID: "s1", LayerID: layerID, Tool: "pen"})
	s.Draw(clients[0].ID, protocol.CanvasAction{StrokeID: "s2", LayerID: "base", Tool: "pen"})

	require.NoError(t, s.DeleteLayer(clients[0].ID, layerID))

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.layers, 1)
	// Only the surviving layer's stroke remains
	log := s.canvas.Log()
	require.Len(t, log, 1)
	assert.Equal(t, "base", log[0].LayerID)
	// Users pointing at the deleted layer fall back to the first one
	assert.Equal(t, "base", s.findUser(clients[1].ID).ActiveLayer)
}

func TestRenameLayer(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	assert.ErrorIs(t, s.RenameLayer(clients[0].ID, "missing", "x"), apperrors.ErrInvalidLayer)
	assert.ErrorIs(t, s.RenameLayer(clients[0].ID, "base", ""), apperrors.ErrInvalidLayer)

	require.NoError(t, s.RenameLayer(clients[0].ID, "base", "outline"))
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, "outline", s.layers[0].Name)
}

func TestReorderLayers_RequiresExactPermutation(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)
	require.NoError(t, s.AddLayer(clients[0].ID, "sketch"))

	s.mu.Lock()
	first, second := s.layers[0].ID, s.layers[1].ID
	s.mu.Unlock()

	assert.ErrorIs(t, s.ReorderLayers(clients[0].ID, []string{first}), apperrors.ErrInvalidLayer)
	assert.ErrorIs(t, s.ReorderLayers(clients[0].ID, []string{first, first}), apperrors.ErrInvalidLayer)
	assert.ErrorIs(t, s.ReorderLayers(clients[0].ID, []string{first, "missing"}), apperrors.ErrInvalidLayer)

	require.NoError(t, s.ReorderLayers(clients[0].ID, []string{second, first}))
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, second, s.layers[0].ID)
	assert.Equal(t, first, s.layers[1].ID)
}

func TestLayerManagement_DrawerDuringTurnGame(t *testing.T) {
	t.Parallel()

	s, _, _, drawerID, guesser := newTurnGame(t, 2)

	assert.ErrorIs(t, s.AddLayer(guesser.ID, "x"), apperrors.ErrNotYourTurn)
	assert.NoError(t, s.AddLayer(drawerID, "x"))
}
