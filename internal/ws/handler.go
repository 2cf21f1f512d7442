package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kavin024/colorclash/internal/models"
	"github.com/kavin024/colorclash/internal/room"
)

// SessionManager is the slice of the session layer the transport needs.
type SessionManager interface {
	CreateRoom(connID, nickname string) (string, error)
	JoinRoom(connID, nickname, code string) error
	Reconnect(connID, code, nickname, oldID string) error
	Kick(connID, targetID string) error
	StartGame(connID string) error
	PlayCard(connID string, cardIndex int, chosenColor string) error
	DrawCard(connID string) error
	CallClash(connID string) error
	AccuseClash(connID, targetID string) error
	Rematch(connID string) error
	Chat(connID, message string) error
	DisconnectNotify(connID string)
	RoomSnapshot(code string) (*room.RoomState, bool)
}

// Envelope is the inbound client message frame.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// errorReply is the outbound frame for a rejected intent.
type errorReply struct {
	Type    string           `json:"type"`
	Kind    models.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// Server exposes the websocket endpoint and the small HTTP surface.
type Server struct {
	hub      *Hub
	sessions SessionManager
	log      *logrus.Entry
}

// NewServer wires the transport to the session layer.
func NewServer(hub *Hub, sessions SessionManager) *Server {
	return &Server{hub: hub, sessions: sessions, log: logrus.WithField("component", "ws")}
}

// Routes builds the HTTP mux: the websocket endpoint, a liveness
// probe, and a room lookup for join screens.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /rooms/{code}", s.handleRoomLookup)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleRoomLookup(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.sessions.RoomSnapshot(r.PathValue("code"))
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The game is session-scoped with no cookies to steal.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}

	connID := uuid.NewString()
	c := newClient(connID, conn)
	s.hub.register(c)
	go c.writePump(context.Background())

	defer func() {
		c.close()
		s.hub.unregister(connID)
		s.sessions.DisconnectNotify(connID)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	s.log.WithField("conn", connID).Debug("client connected")
	ctx := r.Context()
	for {
		var env Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			s.log.WithField("conn", connID).WithError(err).Debug("client disconnected")
			return
		}
		s.dispatch(c, env)
	}
}

// dispatch decodes one client intent and applies it via the session
// manager, replying with a typed error on rejection.
func (s *Server) dispatch(c *client, env Envelope) {
	var err error
	switch env.Type {
	case "create_room":
		var d struct {
			Nickname string `json:"nickname"`
		}
		if err = json.Unmarshal(env.Data, &d); err != nil {
			break
		}
		var code string
		if code, err = s.sessions.CreateRoom(c.id, d.Nickname); err != nil {
			break
		}
		s.hub.joinRoom(c.id, code)
		// The create broadcast predates this client's subscription, so
		// ack with the snapshot directly.
		if snap, ok := s.sessions.RoomSnapshot(code); ok {
			c.enqueue(map[string]interface{}{"type": "room_state", "payload": map[string]interface{}{"room": snap}})
		}

	case "join_room":
		var d struct {
			Code     string `json:"code"`
			Nickname string `json:"nickname"`
		}
		if err = json.Unmarshal(env.Data, &d); err != nil {
			break
		}
		code := strings.ToUpper(strings.TrimSpace(d.Code))
		// Subscribe first so the join broadcast reaches the joiner too.
		s.hub.joinRoom(c.id, code)
		if err = s.sessions.JoinRoom(c.id, d.Nickname, code); err != nil {
			s.hub.leaveRoom(c.id, code)
		}

	case "reconnect":
		var d struct {
			Code     string `json:"code"`
			Nickname string `json:"nickname"`
			OldID    string `json:"oldId"`
		}
		if err = json.Unmarshal(env.Data, &d); err != nil {
			break
		}
		code := strings.ToUpper(strings.TrimSpace(d.Code))
		s.hub.joinRoom(c.id, code)
		if err = s.sessions.Reconnect(c.id, code, d.Nickname, d.OldID); err != nil {
			s.hub.leaveRoom(c.id, code)
		}

	case "kick":
		var d struct {
			TargetID string `json:"targetId"`
		}
		if err = json.Unmarshal(env.Data, &d); err != nil {
			break
		}
		if err = s.sessions.Kick(c.id, d.TargetID); err == nil {
			s.hub.unregisterFromRooms(d.TargetID)
		}

	case "start_game":
		err = s.sessions.StartGame(c.id)

	case "play_card":
		var d struct {
			CardIndex int    `json:"cardIndex"`
			Color     string `json:"color"`
		}
		if err = json.Unmarshal(env.Data, &d); err != nil {
			break
		}
		err = s.sessions.PlayCard(c.id, d.CardIndex, d.Color)

	case "draw_card":
		err = s.sessions.DrawCard(c.id)

	case "call_clash":
		err = s.sessions.CallClash(c.id)

	case "accuse_clash":
		var d struct {
			TargetID string `json:"targetId"`
		}
		if err = json.Unmarshal(env.Data, &d); err != nil {
			break
		}
		err = s.sessions.AccuseClash(c.id, d.TargetID)

	case "rematch":
		err = s.sessions.Rematch(c.id)

	case "chat":
		var d struct {
			Message string `json:"message"`
		}
		if err = json.Unmarshal(env.Data, &d); err != nil {
			break
		}
		err = s.sessions.Chat(c.id, d.Message)

	default:
		err = models.NewError(models.ErrInvalidMove, "unknown message type")
	}

	if err != nil {
		s.replyError(c, err)
	}
}

func (s *Server) replyError(c *client, err error) {
	var appErr *models.Error
	if !errors.As(err, &appErr) {
		appErr = models.NewError(models.ErrInvalidMove, "malformed request")
	}
	c.enqueue(errorReply{Type: "error", Kind: appErr.Kind, Message: appErr.Message})
}
