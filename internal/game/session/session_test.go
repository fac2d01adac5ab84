package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/sketch-party/internal/apperrors"
	"github.com/palemoky/sketch-party/internal/config"
	"github.com/palemoky/sketch-party/internal/game/words"
	"github.com/palemoky/sketch-party/internal/protocol"
	"github.com/palemoky/sketch-party/internal/testutil"
)

// newTestSession creates a session with n active players already joined.
func newTestSession(t *testing.T, n int) (*Session, []*testutil.SimpleClient) {
	t.Helper()

	cfg := config.Default()
	s := New("123456", &cfg.Game, words.NewDictionary(nil), nil, nil)
	t.Cleanup(s.Close)

	clients := make([]*testutil.SimpleClient, n)
	for i := range clients {
		c := testutil.NewSimpleClient(fmt.Sprintf("p%d", i+1), fmt.Sprintf("Player%d", i+1))
		_, err := s.Join(c, c.Name, "", false)
		require.NoError(t, err)
		clients[i] = c
	}
	return s, clients
}

func setMode(s *Session, mode protocol.GameMode) {
	s.mu.Lock()
	s.settings.Mode = mode
	s.mu.Unlock()
}

// beginTestGame skips the ready check and starts the engine directly.
func beginTestGame(s *Session) {
	s.mu.Lock()
	s.beginGame()
	s.mu.Unlock()
}

func TestJoin_FirstPlayerBecomesLeader(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, clients[0].ID, s.leaderID)
	assert.Len(t, s.users, 2)
}

func TestJoin_SpectatorNeverLeads(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	s := New("123456", &cfg.Game, words.NewDictionary(nil), nil, nil)
	t.Cleanup(s.Close)

	spec := testutil.NewSimpleClient("spec", "Watcher")
	_, err := s.Join(spec, "Watcher", "", true)
	require.NoError(t, err)

	player := testutil.NewSimpleClient("p1", "Player1")
	_, err = s.Join(player, "Player1", "", false)
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, "p1", s.leaderID)
}

func TestJoin_RoomFull(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Game.MaxPlayers = 2
	s := New("123456", &cfg.Game, words.NewDictionary(nil), nil, nil)
	t.Cleanup(s.Close)

	for i := 0; i < 2; i++ {
		c := testutil.NewSimpleClient(fmt.Sprintf("p%d", i+1), "P")
		_, err := s.Join(c, "P", "", false)
		require.NoError(t, err)
	}

	_, err := s.Join(testutil.NewSimpleClient("p3", "P"), "P", "", false)
	assert.ErrorIs(t, err, apperrors.ErrRoomFull)

	// Spectators are not bound by the player cap
	_, err = s.Join(testutil.NewSimpleClient("spec", "W"), "W", "", true)
	assert.NoError(t, err)
}

func TestJoin_DuplicateUsernameGetsSuffix(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, 1)

	u, err := s.Join(testutil.NewSimpleClient("p2", "Player1"), "Player1", "", false)
	require.NoError(t, err)
	assert.Equal(t, "Player1_2", u.Username)

	u3, err := s.Join(testutil.NewSimpleClient("p3", "Player1"), "Player1", "", false)
	require.NoError(t, err)
	assert.Equal(t, "Player1_3", u3.Username)
}

func TestSanitizeUsername(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Alice", sanitizeUsername("  Alice  "))
	assert.Equal(t, "Bob", sanitizeUsername("B\x00o\tb"))

	long := sanitizeUsername("abcdefghijklmnopqrstuvwxyz")
	assert.Len(t, []rune(long), maxUsernameLen)

	// Empty input falls back to a generated name
	assert.NotEmpty(t, sanitizeUsername("\x00\x01"))
}

func TestLeave_LeaderTransfers(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 3)

	remaining := s.Leave(clients[0].ID)
	assert.Equal(t, 2, remaining)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, clients[1].ID, s.leaderID)
}

func TestLeave_LastPlayerEmptiesRoom(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 1)

	assert.Equal(t, 0, s.Leave(clients[0].ID))
	assert.True(t, s.Empty())
}

func TestUpdateSettings_OnlyLeaderInLobby(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	ns := protocol.Settings{Mode: protocol.ModeCreative, DrawTime: 60}
	err := s.UpdateSettings(clients[1].ID, ns)
	assert.ErrorIs(t, err, apperrors.ErrNotLeader)

	err = s.UpdateSettings(clients[0].ID, ns)
	assert.NoError(t, err)

	s.mu.Lock()
	assert.Equal(t, protocol.ModeCreative, s.settings.Mode)
	assert.Equal(t, 60, s.settings.DrawTime)
	s.mu.Unlock()
}

func TestUpdateSettings_ClampsOutOfRangeValues(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	s.mu.Lock()
	before := s.settings
	s.mu.Unlock()

	err := s.UpdateSettings(clients[0].ID, protocol.Settings{
		Mode:     "bogus",
		DrawTime: 9999,
		Rounds:   -1,
	})
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, before.Mode, s.settings.Mode)
	assert.Equal(t, before.DrawTime, s.settings.DrawTime)
	assert.Equal(t, before.Rounds, s.settings.Rounds)
}

func TestUpdateSettings_RejectedDuringGame(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)
	beginTestGame(s)

	err := s.UpdateSettings(clients[0].ID, protocol.Settings{DrawTime: 60})
	assert.ErrorIs(t, err, apperrors.ErrGameStarted)
}

func TestChat_BroadcastInLobby(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	s.Chat(clients[0].ID, "hello")

	msg := clients[1].LastOfType(protocol.MsgChatMessage)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.ChatMessagePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "hello", payload.Text)
	assert.Equal(t, clients[0].ID, payload.UserID)
}

func TestChat_EmptyTextDropped(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)

	s.Chat(clients[0].ID, "   ")
	assert.Empty(t, clients[1].MessagesOfType(protocol.MsgChatMessage))
}
