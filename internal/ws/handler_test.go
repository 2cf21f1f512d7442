package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavin024/colorclash/internal/game"
	"github.com/kavin024/colorclash/internal/models"
	"github.com/kavin024/colorclash/internal/room"
)

// fakeSessions records the intents the dispatcher routed.
type fakeSessions struct {
	calls []string
	err   error

	createdCode string
	snapshot    *room.RoomState
}

func (f *fakeSessions) CreateRoom(connID, nickname string) (string, error) {
	f.calls = append(f.calls, "create:"+nickname)
	return f.createdCode, f.err
}

func (f *fakeSessions) JoinRoom(connID, nickname, code string) error {
	f.calls = append(f.calls, "join:"+code+":"+nickname)
	return f.err
}

func (f *fakeSessions) Reconnect(connID, code, nickname, oldID string) error {
	f.calls = append(f.calls, "reconnect:"+code+":"+oldID)
	return f.err
}

func (f *fakeSessions) Kick(connID, targetID string) error {
	f.calls = append(f.calls, "kick:"+targetID)
	return f.err
}

func (f *fakeSessions) StartGame(connID string) error {
	f.calls = append(f.calls, "start")
	return f.err
}

func (f *fakeSessions) PlayCard(connID string, cardIndex int, chosenColor string) error {
	f.calls = append(f.calls, "play")
	return f.err
}

func (f *fakeSessions) DrawCard(connID string) error {
	f.calls = append(f.calls, "draw")
	return f.err
}

func (f *fakeSessions) CallClash(connID string) error {
	f.calls = append(f.calls, "call_clash")
	return f.err
}

func (f *fakeSessions) AccuseClash(connID, targetID string) error {
	f.calls = append(f.calls, "accuse:"+targetID)
	return f.err
}

func (f *fakeSessions) Rematch(connID string) error {
	f.calls = append(f.calls, "rematch")
	return f.err
}

func (f *fakeSessions) Chat(connID, message string) error {
	f.calls = append(f.calls, "chat:"+message)
	return f.err
}

func (f *fakeSessions) DisconnectNotify(connID string) {
	f.calls = append(f.calls, "disconnect")
}

func (f *fakeSessions) RoomSnapshot(code string) (*room.RoomState, bool) {
	return f.snapshot, f.snapshot != nil
}

func env(t *testing.T, typ string, data interface{}) Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Envelope{Type: typ, Data: raw}
}

func TestDispatchRoutesIntents(t *testing.T) {
	sessions := &fakeSessions{createdCode: "ABCDEF"}
	s := NewServer(NewHub(), sessions)
	c := newClient("conn", nil)
	s.hub.register(c)

	s.dispatch(c, env(t, "join_room", map[string]string{"code": " abcdef ", "nickname": "Ann"}))
	s.dispatch(c, env(t, "start_game", struct{}{}))
	s.dispatch(c, env(t, "play_card", map[string]interface{}{"cardIndex": 2, "color": "red"}))
	s.dispatch(c, env(t, "draw_card", struct{}{}))
	s.dispatch(c, env(t, "call_clash", struct{}{}))
	s.dispatch(c, env(t, "accuse_clash", map[string]string{"targetId": "bob"}))
	s.dispatch(c, env(t, "rematch", struct{}{}))
	s.dispatch(c, env(t, "chat", map[string]string{"message": "hi"}))

	assert.Equal(t, []string{
		"join:ABCDEF:Ann",
		"start",
		"play",
		"draw",
		"call_clash",
		"accuse:bob",
		"rematch",
		"chat:hi",
	}, sessions.calls)
	assert.Empty(t, drain(c), "accepted intents get no direct reply")
}

func TestDispatchRejectionSendsErrorReply(t *testing.T) {
	sessions := &fakeSessions{err: models.NewError(models.ErrNotYourTurn, "wait")}
	s := NewServer(NewHub(), sessions)
	c := newClient("conn", nil)
	s.hub.register(c)

	s.dispatch(c, env(t, "draw_card", struct{}{}))

	msgs := drain(c)
	require.Len(t, msgs, 1)
	reply, ok := msgs[0].(errorReply)
	require.True(t, ok)
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, models.ErrNotYourTurn, reply.Kind)
}

func TestDispatchUnknownType(t *testing.T) {
	sessions := &fakeSessions{}
	s := NewServer(NewHub(), sessions)
	c := newClient("conn", nil)
	s.hub.register(c)

	s.dispatch(c, Envelope{Type: "nonsense"})

	msgs := drain(c)
	require.Len(t, msgs, 1)
	reply := msgs[0].(errorReply)
	assert.Equal(t, models.ErrInvalidMove, reply.Kind)
	assert.Empty(t, sessions.calls)
}

func TestDispatchCreateRoomSubscribesAndAcks(t *testing.T) {
	sessions := &fakeSessions{
		createdCode: "ABCDEF",
		snapshot:    &room.RoomState{Code: "ABCDEF", Phase: room.PhaseLobby},
	}
	s := NewServer(NewHub(), sessions)
	c := newClient("conn", nil)
	s.hub.register(c)

	s.dispatch(c, env(t, "create_room", map[string]string{"nickname": "Ann"}))

	require.Len(t, drain(c), 1, "creator gets the snapshot ack")
	// The creator now hears room broadcasts.
	s.hub.ToRoom("ABCDEF", game.Event{Type: game.EventChat})
	assert.Len(t, drain(c), 1)
}

func TestDispatchFailedJoinDoesNotSubscribe(t *testing.T) {
	sessions := &fakeSessions{err: models.NewError(models.ErrRoomFull, "full")}
	s := NewServer(NewHub(), sessions)
	c := newClient("conn", nil)
	s.hub.register(c)

	s.dispatch(c, env(t, "join_room", map[string]string{"code": "ABCDEF", "nickname": "Ann"}))

	msgs := drain(c)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.ErrRoomFull, msgs[0].(errorReply).Kind)

	s.hub.ToRoom("ABCDEF", game.Event{Type: game.EventChat})
	assert.Empty(t, drain(c), "rejected joiner is not subscribed")
}

func TestRoomLookupEndpoint(t *testing.T) {
	sessions := &fakeSessions{snapshot: &room.RoomState{Code: "ABCDEF", Phase: room.PhaseLobby}}
	srv := httptest.NewServer(NewServer(NewHub(), sessions).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/rooms/ABCDEF")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got room.RoomState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "ABCDEF", got.Code)

	sessions.snapshot = nil
	resp2, err := http.Get(srv.URL + "/rooms/NOPE")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewServer(NewHub(), &fakeSessions{}).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
