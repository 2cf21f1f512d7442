package ws

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// client is one websocket connection. Outbound messages go through the
// buffered send channel so broadcasts never block under a room lock; a
// slow consumer gets its connection closed rather than stalling a game.
type client struct {
	id   string
	conn *websocket.Conn
	send chan interface{}
	done chan struct{}
	log  *logrus.Entry
}

func newClient(id string, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan interface{}, sendBuffer),
		done: make(chan struct{}),
		log:  logrus.WithField("conn", id),
	}
}

// enqueue hands a message to the writer without blocking. Messages to
// a congested or closing client are dropped.
func (c *client) enqueue(msg interface{}) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		c.log.Warn("send buffer full, dropping message")
	}
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with pings. It owns all writes to conn.
func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, msg)
			cancel()
			if err != nil {
				c.log.WithError(err).Debug("write failed, closing")
				c.conn.Close(websocket.StatusInternalError, "write failure")
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				c.log.WithError(err).Debug("ping failed, closing")
				c.conn.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// close signals the writer to stop. Safe to call once.
func (c *client) close() {
	close(c.done)
}
