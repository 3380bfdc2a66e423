package notify

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendQueueSize = 16
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
	maxMessage    = 512
)

// Client is one live staff connection inside its room.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	staffID uint
	send    chan []byte
}

// enqueue hands a frame to the write pump without ever blocking an
// emit; a full queue means the consumer is too slow and the frame is
// dropped (delivery is best-effort).
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	default:
		c.hub.log.Warn("dropping event for slow consumer", zap.Uint("staff_id", c.staffID))
	}
}

// readPump drains inbound frames. The bus carries no client commands
// yet, so reads only serve pong handling and close detection.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
