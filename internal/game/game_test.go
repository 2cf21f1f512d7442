package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavin024/colorclash/internal/engine"
	"github.com/kavin024/colorclash/internal/models"
)

// recorder captures events the way the websocket hub would receive them.
type recorder struct {
	all       []Event
	perPlayer map[string][]Event
}

func newRecorder() *recorder {
	return &recorder{perPlayer: make(map[string][]Event)}
}

func (r *recorder) lastOfType(typ EventType) (Event, bool) {
	for i := len(r.all) - 1; i >= 0; i-- {
		if r.all[i].Type == typ {
			return r.all[i], true
		}
	}
	return Event{}, false
}

func setupGame(t *testing.T, numPlayers int) (*Game, []*models.Player, *recorder, *sync.Mutex) {
	t.Helper()
	players := make([]*models.Player, numPlayers)
	for i := range players {
		players[i] = &models.Player{
			ID:        fmt.Sprintf("conn-%d", i),
			Nickname:  fmt.Sprintf("p%d", i),
			Connected: true,
		}
	}
	var mu sync.Mutex
	g := New("TEST42", players, 7, &mu)
	g.TurnDuration = 0 // no clock unless a test arms it

	rec := newRecorder()
	g.BroadcastFn = func(ev Event) { rec.all = append(rec.all, ev) }
	g.BroadcastToPlayerFn = func(connID string, ev Event) {
		rec.perPlayer[connID] = append(rec.perPlayer[connID], ev)
	}
	t.Cleanup(g.Stop)
	return g, players, rec, &mu
}

func TestPlayCardValidation(t *testing.T) {
	g, _, _, _ := setupGame(t, 3)

	err := g.PlayCard("stranger", 0, "")
	assert.Equal(t, models.ErrPlayerNotFound, models.KindOf(err))

	err = g.PlayCard("conn-1", 0, "")
	assert.Equal(t, models.ErrNotYourTurn, models.KindOf(err))

	err = g.PlayCard("conn-0", 99, "")
	assert.Equal(t, models.ErrInvalidCard, models.KindOf(err))
	err = g.PlayCard("conn-0", -1, "")
	assert.Equal(t, models.ErrInvalidCard, models.KindOf(err))

	g.State.CurrentColor = engine.ColorRed
	g.State.Hands[0][0] = engine.Card{Color: engine.ColorBlue, Type: engine.TypeNumber, Value: 3}
	g.State.DiscardPile = []engine.Card{{Color: engine.ColorRed, Type: engine.TypeNumber, Value: 5}}
	err = g.PlayCard("conn-0", 0, "")
	assert.Equal(t, models.ErrInvalidMove, models.KindOf(err))

	g.State.Hands[0][0] = engine.Card{Color: engine.ColorWild, Type: engine.TypeWild}
	err = g.PlayCard("conn-0", 0, "")
	assert.Equal(t, models.ErrMissingColorChoice, models.KindOf(err))
	err = g.PlayCard("conn-0", 0, "purple")
	assert.Equal(t, models.ErrMissingColorChoice, models.KindOf(err))
}

func TestPlayCardDrawTwoFlow(t *testing.T) {
	g, _, rec, _ := setupGame(t, 3)
	g.State.CurrentColor = engine.ColorRed
	g.State.Hands[0][0] = engine.Card{Color: engine.ColorRed, Type: engine.TypeDrawTwo}
	victimBefore := len(g.State.Hands[1])

	require.NoError(t, g.PlayCard("conn-0", 0, ""))

	ev, ok := rec.lastOfType(EventDrawPenalty)
	require.True(t, ok)
	assert.Equal(t, "p0", ev.Player)
	assert.Equal(t, "p1", ev.Target)
	assert.Equal(t, 2, ev.Payload["drew"])

	assert.Len(t, g.State.Hands[1], victimBefore+2)
	assert.Equal(t, 2, g.State.CurrentPlayerIndex)

	// Actor and victim both get refreshed private hands.
	assert.NotEmpty(t, rec.perPlayer["conn-0"])
	assert.NotEmpty(t, rec.perPlayer["conn-1"])

	turn, ok := rec.lastOfType(EventTurn)
	require.True(t, ok)
	assert.Equal(t, "p2", turn.Player)
}

func TestPlayCardReverseHeadsUpKeepsTurn(t *testing.T) {
	g, _, rec, _ := setupGame(t, 2)
	g.State.CurrentColor = engine.ColorGreen
	g.State.Hands[0][0] = engine.Card{Color: engine.ColorGreen, Type: engine.TypeReverse}

	require.NoError(t, g.PlayCard("conn-0", 0, ""))

	assert.Equal(t, 0, g.State.CurrentPlayerIndex, "reverse heads-up skips the opponent")
	turn, ok := rec.lastOfType(EventTurn)
	require.True(t, ok)
	assert.Equal(t, "p0", turn.Player)
}

func TestWinningPlayEndsGame(t *testing.T) {
	g, _, rec, _ := setupGame(t, 3)
	g.State.CurrentColor = engine.ColorRed
	g.State.Hands[0] = []engine.Card{{Color: engine.ColorRed, Type: engine.TypeNumber, Value: 4}}
	g.State.Hands[1] = g.State.Hands[1][:2]

	require.NoError(t, g.PlayCard("conn-0", 0, ""))

	require.True(t, g.Finished())
	assert.Equal(t, "p0", g.WinnerNickname())

	end, ok := rec.lastOfType(EventGameEnd)
	require.True(t, ok)
	assert.Equal(t, "p0", end.Player)
	require.Len(t, end.Rankings, 3)
	assert.Equal(t, RankEntry{Rank: 1, Nickname: "p0", CardsLeft: 0}, end.Rankings[0])
	assert.Equal(t, "p1", end.Rankings[1].Nickname)
	assert.Equal(t, "p2", end.Rankings[2].Nickname)

	// The game is over: further intents are rejected.
	err := g.DrawCard("conn-1")
	assert.Equal(t, models.ErrInvalidMove, models.KindOf(err))
}

func TestDrawCardAdvancesTurn(t *testing.T) {
	g, _, rec, _ := setupGame(t, 3)
	before := len(g.State.Hands[0])

	err := g.DrawCard("conn-1")
	assert.Equal(t, models.ErrNotYourTurn, models.KindOf(err))

	require.NoError(t, g.DrawCard("conn-0"))
	assert.Len(t, g.State.Hands[0], before+1)
	assert.Equal(t, 1, g.State.CurrentPlayerIndex)

	ev, ok := rec.lastOfType(EventDraw)
	require.True(t, ok)
	assert.Equal(t, "p0", ev.Player)
	assert.Nil(t, ev.Hand, "public draw event never carries cards")
}

func TestCallClash(t *testing.T) {
	g, players, rec, _ := setupGame(t, 3)

	err := g.CallClash("conn-1")
	assert.Equal(t, models.ErrInvalidMove, models.KindOf(err), "seven cards is not a clash")

	g.State.Hands[1] = g.State.Hands[1][:1]
	require.NoError(t, g.CallClash("conn-1"))
	assert.True(t, players[1].ClashSafe)
	assert.Equal(t, "p1", g.ClashCalledBy)

	ev, ok := rec.lastOfType(EventClashCalled)
	require.True(t, ok)
	assert.Equal(t, "p1", ev.Player)
}

func TestAccuseClash(t *testing.T) {
	g, players, rec, _ := setupGame(t, 3)

	err := g.AccuseClash("conn-0", "conn-1")
	assert.Equal(t, models.ErrInvalidAccusationTarget, models.KindOf(err), "target holds more than one card")

	g.State.Hands[1] = g.State.Hands[1][:1]
	require.NoError(t, g.AccuseClash("conn-0", "conn-1"))
	assert.Len(t, g.State.Hands[1], 3, "penalty is two cards")

	ev, ok := rec.lastOfType(EventClashAccused)
	require.True(t, ok)
	assert.Equal(t, "p0", ev.Player)
	assert.Equal(t, "p1", ev.Target)

	// A player who called safe cannot be accused.
	g.State.Hands[2] = g.State.Hands[2][:1]
	players[2].ClashSafe = true
	err = g.AccuseClash("conn-0", "conn-2")
	assert.Equal(t, models.ErrInvalidAccusationTarget, models.KindOf(err))

	err = g.AccuseClash("conn-0", "stranger")
	assert.Equal(t, models.ErrPlayerNotFound, models.KindOf(err))
}

func TestClashSafetyClearsOnNextPlay(t *testing.T) {
	g, players, _, _ := setupGame(t, 2)
	g.State.CurrentColor = engine.ColorRed
	g.State.Hands[0] = []engine.Card{
		{Color: engine.ColorRed, Type: engine.TypeNumber, Value: 1},
		{Color: engine.ColorRed, Type: engine.TypeNumber, Value: 2},
	}

	g.State.Hands[1] = []engine.Card{{Color: engine.ColorRed, Type: engine.TypeNumber, Value: 3}}
	require.NoError(t, g.CallClash("conn-1"))
	require.NoError(t, g.PlayCard("conn-0", 0, ""))

	assert.Empty(t, g.ClashCalledBy, "any play clears the room-wide call")
	assert.True(t, players[1].ClashSafe, "the caller's own flag persists until they play")

	require.NoError(t, g.PlayCard("conn-1", 0, ""))
	assert.False(t, players[1].ClashSafe)
}

func TestTurnTimeoutForcesDraw(t *testing.T) {
	g, _, rec, mu := setupGame(t, 2)
	g.TurnDuration = 30 * time.Millisecond

	mu.Lock()
	before := len(g.State.Hands[0])
	g.Begin()
	mu.Unlock()

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, len(g.State.Hands[0]), before, "expired turn forces a draw")
	ev, ok := rec.lastOfType(EventDraw)
	require.True(t, ok)
	assert.Equal(t, "timeout", ev.Payload["reason"])
}

func TestTurnTimeoutSkipsDisconnectedSilently(t *testing.T) {
	g, players, rec, mu := setupGame(t, 3)
	g.TurnDuration = 30 * time.Millisecond
	players[0].Connected = false

	mu.Lock()
	before := len(g.State.Hands[0])
	g.Begin()
	mu.Unlock()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, g.State.Hands[0], before, "no penalty draw for a disconnected player")
	found := false
	for _, ev := range rec.all {
		if ev.Type == EventSkip && ev.Payload["reason"] == "disconnected" {
			found = true
		}
	}
	assert.True(t, found, "skip event with disconnected reason")
}

func TestPublicEventsCarryNoHands(t *testing.T) {
	g, _, rec, _ := setupGame(t, 3)
	g.Begin()
	g.State.CurrentColor = engine.ColorRed
	g.State.Hands[0][0] = engine.Card{Color: engine.ColorRed, Type: engine.TypeNumber, Value: 5}
	require.NoError(t, g.PlayCard("conn-0", 0, ""))

	for _, ev := range rec.all {
		assert.Nilf(t, ev.Hand, "broadcast event %s must not carry a hand", ev.Type)
	}
	snap, ok := rec.lastOfType(EventGameState)
	require.True(t, ok)
	require.NotNil(t, snap.State)
	for _, p := range snap.State.Players {
		assert.Positive(t, p.CardCount)
	}
}

func TestPrivateHandIsACopy(t *testing.T) {
	g, _, _, _ := setupGame(t, 2)
	hand, ok := g.PrivateHand("conn-0")
	require.True(t, ok)
	require.NotEmpty(t, hand)
	hand[0] = engine.Card{Color: engine.ColorRed, Type: engine.TypeNumber, Value: 9}
	assert.NotEqual(t, hand[0], g.State.Hands[0][0])
}
