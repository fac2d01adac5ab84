package session

import (
	"context"
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

// newTurnGame starts a classic game and returns the engine with its drawer
// and one guesser client resolved.
func newTurnGame(t *testing.T, n int) (*Session, *turnEngine, []*testutil.SimpleClient, string, *testutil.SimpleClient) {
	t.Helper()

	s, clients := newTestSession(t, n)
	beginTestGame(s)

	s.mu.Lock()
	e, ok := s.engine.(*turnEngine)
	require.True(t, ok)
	drawerID := e.currentDrawerID()
	s.mu.Unlock()

	var guesser *testutil.SimpleClient
	for _, c := range clients {
		if c.ID != drawerID {
			guesser = c
			break
		}
	}
	require.NotNil(t, guesser)
	return s, e, clients, drawerID, guesser
}

func finalize(s *Session, e *turnEngine, word string) {
	s.mu.Lock()
	e.finalizeWord(word)
	s.mu.Unlock()
}

func TestTurnEngine_StartBroadcastsTurnOrder(t *testing.T) {
	t.Parallel()

	_, _, clients, _, _ := newTurnGame(t, 3)

	msg := clients[0].LastOfType(protocol.MsgGameStarted)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.GameStartedPayload](msg)
	require.NoError(t, err)

	// The order is shuffled but must be a permutation of the players
	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, payload.TurnOrder)
	assert.Equal(t, 3, payload.TotalRounds)
}

func TestTurnEngine_RoundStartMasksWordForGuessers(t *testing.T) {
	t.Parallel()

	s, e, clients, drawerID, guesser := newTurnGame(t, 2)
	finalize(s, e, "chat")

	msg := guesser.LastOfType(protocol.MsgRoundStart)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.RoundStartPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "_ _ _ _", payload.Hint)

	var drawer *testutil.SimpleClient
	for _, c := range clients {
		if c.ID == drawerID {
			drawer = c
		}
	}
	require.NotNil(t, drawer)
	word := drawer.LastOfType(protocol.MsgYourWord)
	require.NotNil(t, word)
	wp, err := protocol.ParsePayload[protocol.YourWordPayload](word)
	require.NoError(t, err)
	assert.Equal(t, "CHAT", wp.Word)
}

func TestTurnEngine_FinalizeWordIsOneShot(t *testing.T) {
	t.Parallel()

	s, e, _, _, _ := newTurnGame(t, 2)
	finalize(s, e, "chat")
	finalize(s, e, "house")

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, "CHAT", e.word, "late timeout pick must not replace the chosen word")
}

func TestTurnEngine_ChooseWordFromOptions(t *testing.T) {
	t.Parallel()

	s, e, _, drawerID, _ := newTurnGame(t, 2)

	s.mu.Lock()
	opts := e.options
	s.mu.Unlock()
	require.NotEmpty(t, opts)

	s.ChooseWord(drawerID, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, normalizeGuess(opts[1]), e.word)
	assert.Nil(t, e.options, "options are discarded once the word is set")
}

func TestTurnEngine_CorrectGuessScores(t *testing.T) {
	t.Parallel()

	s, e, _, drawerID, guesser := newTurnGame(t, 3)
	finalize(s, e, "chat")

	s.Chat(guesser.ID, "CHAT")

	s.mu.Lock()
	defer s.mu.Unlock()
	// First guesser at full time: 100 base + 200 time bonus + 50 first bonus
	assert.Equal(t, 350, e.scores[guesser.ID])
	// Drawer earns 250/(active-1) per correct guess
	assert.Equal(t, 125, e.scores[drawerID])
	assert.True(t, e.guessed[guesser.ID])
	assert.False(t, e.roundEnded, "one guesser of two still missing")
}

func TestTurnEngine_GuessedWordNotBroadcast(t *testing.T) {
	t.Parallel()

	s, e, clients, _, guesser := newTurnGame(t, 3)
	finalize(s, e, "chat")

	s.Chat(guesser.ID, "chat")

	for _, c := range clients {
		for _, m := range c.MessagesOfType(protocol.MsgChatMessage) {
			payload, err := protocol.ParsePayload[protocol.ChatMessagePayload](m)
			require.NoError(t, err)
			assert.NotEqual(t, "chat", payload.Text)
		}
		assert.NotNil(t, c.LastOfType(protocol.MsgPlayerGuessed))
	}
}

func TestTurnEngine_WrongGuessIsChat(t *testing.T) {
	t.Parallel()

	s, e, clients, _, guesser := newTurnGame(t, 2)
	finalize(s, e, "chat")

	s.Chat(guesser.ID, "house")

	msg := clients[0].LastOfType(protocol.MsgChatMessage)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.ChatMessagePayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "house", payload.Text)
}

func TestTurnEngine_AllGuessedEndsRound(t *testing.T) {
	t.Parallel()

	s, e, clients, _, guesser := newTurnGame(t, 2)
	finalize(s, e, "chat")

	s.Chat(guesser.ID, "chat")

	s.mu.Lock()
	assert.True(t, e.roundEnded)
	s.mu.Unlock()

	msg := clients[0].LastOfType(protocol.MsgRoundEnd)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.RoundEndPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "all_guessed", payload.Reason)
	assert.Equal(t, "CHAT", payload.Word)
}

func TestTurnEngine_EndRoundIdempotent(t *testing.T) {
	t.Parallel()

	s, e, clients, _, _ := newTurnGame(t, 2)
	finalize(s, e, "chat")

	s.mu.Lock()
	e.endRound("time_up")
	e.endRound("time_up")
	s.mu.Unlock()

	assert.Len(t, clients[0].MessagesOfType(protocol.MsgRoundEnd), 1)
}

func TestTurnEngine_RepeatGuessIgnored(t *testing.T) {
	t.Parallel()

	s, e, _, _, guesser := newTurnGame(t, 3)
	finalize(s, e, "chat")

	s.Chat(guesser.ID, "chat")
	s.Chat(guesser.ID, "chat")

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 350, e.scores[guesser.ID], "second hit must not double the score")
}

func TestTurnEngine_DrawerGuessIgnored(t *testing.T) {
	t.Parallel()

	s, e, _, drawerID, _ := newTurnGame(t, 3)
	finalize(s, e, "chat")

	s.Chat(drawerID, "chat")

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Zero(t, e.scores[drawerID])
	assert.False(t, e.guessed[drawerID])
}

func TestTurnEngine_DrawerLeaveEndsRound(t *testing.T) {
	t.Parallel()

	s, e, clients, drawerID, _ := newTurnGame(t, 3)
	finalize(s, e, "chat")

	s.Leave(drawerID)

	var witness *testutil.SimpleClient
	for _, c := range clients {
		if c.ID != drawerID {
			witness = c
			break
		}
	}
	msg := witness.LastOfType(protocol.MsgRoundEnd)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.RoundEndPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "drawer_left", payload.Reason)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, StatePlaying, s.state, "two players remain, the game goes on")
	assert.True(t, e.roundEnded)
}

func TestTurnEngine_BelowMinimumEndsGame(t *testing.T) {
	t.Parallel()

	s, e, clients, _, guesser := newTurnGame(t, 2)
	finalize(s, e, "chat")
	s.Chat(guesser.ID, "chat")

	s.Leave(clients[0].ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, StateLobby, s.state)
	assert.Nil(t, s.engine)
}

func TestTurnEngine_DepartedKeepTheirScore(t *testing.T) {
	t.Parallel()

	s, e, clients, _, guesser := newTurnGame(t, 3)
	finalize(s, e, "chat")
	s.Chat(guesser.ID, "chat")

	s.Leave(guesser.ID)

	s.mu.Lock()
	e.endGame("done")
	s.mu.Unlock()

	// The departed player's snapshot survives in the results, marked as left
	var witness *testutil.SimpleClient
	for _, c := range clients {
		if c.ID != guesser.ID {
			witness = c
			break
		}
	}
	msg := witness.LastOfType(protocol.MsgGameEnded)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.GameEndedPayload](msg)
	require.NoError(t, err)

	found := false
	for _, r := range payload.Results {
		if r.ID == guesser.ID {
			found = true
			assert.True(t, r.Left)
			assert.Equal(t, 350, r.Score)
		}
	}
	assert.True(t, found)
}

func TestTurnEngine_PersonalHint(t *testing.T) {
	t.Parallel()

	s, e, _, _, guesser := newTurnGame(t, 2)
	finalize(s, e, "chat")

	s.RequestHint(guesser.ID)

	msg := guesser.LastOfType(protocol.MsgPersonalHint)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.PersonalHintPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, 0, payload.HintsLeft)
	assert.Contains(t, payload.Hint, "_", "a single reveal keeps the rest masked")

	// Credits exhausted, the next request fails
	s.RequestHint(guesser.ID)
	fail := guesser.LastOfType(protocol.MsgHintFailed)
	require.NotNil(t, fail)
	fp, err := protocol.ParsePayload[protocol.HintFailedPayload](fail)
	require.NoError(t, err)
	assert.Equal(t, "no_hints_left", fp.Reason)
}

func TestTurnEngine_DrawerCannotRequestHint(t *testing.T) {
	t.Parallel()

	s, e, clients, drawerID, _ := newTurnGame(t, 2)
	finalize(s, e, "chat")

	s.RequestHint(drawerID)

	for _, c := range clients {
		if c.ID == drawerID {
			assert.Empty(t, c.MessagesOfType(protocol.MsgPersonalHint))
			assert.Empty(t, c.MessagesOfType(protocol.MsgHintFailed))
		}
	}
}

func TestTurnEngine_CustomWordValidation(t *testing.T) {
	t.Parallel()

	s, clients := newTestSession(t, 2)
	setMode(s, protocol.ModeCustom)
	beginTestGame(s)

	s.mu.Lock()
	e := s.engine.(*turnEngine)
	drawerID := e.currentDrawerID()
	s.mu.Unlock()

	var guesserID string
	for _, c := range clients {
		if c.ID != drawerID {
			guesserID = c.ID
		}
	}

	assert.ErrorIs(t, s.CustomWord(guesserID, "chat"), apperrors.ErrNotYourTurn)

	long := make([]byte, 0, 80)
	for i := 0; i < 40; i++ {
		long = append(long, 'a', 'b')
	}
	assert.ErrorIs(t, s.CustomWord(drawerID, string(long)), apperrors.ErrWordTooLong)

	require.NoError(t, s.CustomWord(drawerID, "secret word"))
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, "SECRET WORD", e.word)
}

func TestTurnEngine_CanDrawOnlyDrawerWithWord(t *testing.T) {
	t.Parallel()

	s, e, _, drawerID, guesser := newTurnGame(t, 2)

	s.mu.Lock()
	drawer := s.findUser(drawerID)
	other := s.findUser(guesser.ID)
	assert.False(t, e.canDraw(drawer), "no word chosen yet")
	s.mu.Unlock()

	finalize(s, e, "chat")

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.True(t, e.canDraw(drawer))
	assert.False(t, e.canDraw(other))
}

func TestTurnEngine_LastPendingGuesserLeaveEndsRound(t *testing.T) {
	t.Parallel()

	s, e, clients, drawerID, _ := newTurnGame(t, 4)
	finalize(s, e, "chat")

	var guessers []*testutil.SimpleClient
	for _, c := range clients {
		if c.ID != drawerID {
			guessers = append(guessers, c)
		}
	}
	require.Len(t, guessers, 3)

	s.Chat(guessers[0].ID, "chat")
	s.Chat(guessers[1].ID, "chat")

	s.mu.Lock()
	assert.False(t, e.roundEnded, "one guesser has not answered yet")
	s.mu.Unlock()

	s.Leave(guessers[2].ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.True(t, e.roundEnded, "everyone still in the room has guessed")

	msg := guessers[0].LastOfType(protocol.MsgRoundEnd)
	require.NotNil(t, msg)
	payload, err := protocol.ParsePayload[protocol.RoundEndPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "all_guessed", payload.Reason)
}

func TestTurnEngine_DepartedGuesserDoesNotCountAsAnswered(t *testing.T) {
	t.Parallel()

	s, e, clients, drawerID, _ := newTurnGame(t, 4)
	finalize(s, e, "chat")

	var guessers []*testutil.SimpleClient
	for _, c := range clients {
		if c.ID != drawerID {
			guessers = append(guessers, c)
		}
	}
	require.Len(t, guessers, 3)

	s.Chat(guessers[0].ID, "chat")
	s.Chat(guessers[1].ID, "chat")
	s.Leave(guessers[0].ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.False(t, e.roundEnded, "a remaining guesser still has not answered")
}

// stalledThemes blocks word generation until the request context expires.
type stalledThemes struct{}

func (stalledThemes) ThemeWords(ctx context.Context, theme string, count int) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTurnEngine_ThemedFallbackArmedDuringGeneration(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	s := New("123456", &cfg.Game, words.NewDictionary(nil), stalledThemes{}, nil)
	t.Cleanup(s.Close)

	for i := 1; i <= 2; i++ {
		c := testutil.NewSimpleClient(fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i))
		_, err := s.Join(c, c.Name, "", false)
		require.NoError(t, err)
	}
	setMode(s, protocol.ModeThemed)
	beginTestGame(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engine.(*turnEngine)
	require.True(t, ok)

	// The word pool is empty and the provider hangs, so the dictionary
	// fallback timer must already be ticking toward the choice deadline
	assert.NotNil(t, e.choiceTimer, "choice timeout must not wait for generation")
	assert.Empty(t, e.word)
}
