package server

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is one websocket connection bound to a single room.
type Client struct {
	sessionId string
	conn      *websocket.Conn
	room      *Room
	log       *log.Logger
	send      chan *ServerMessage
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewClient(sessionId string, conn *websocket.Conn, room *Room, l *log.Logger) *Client {
	return &Client{
		sessionId: sessionId,
		conn:      conn,
		room:      room,
		log:       l,
		send:      make(chan *ServerMessage, sendBufferSize),
		stop:      make(chan struct{}),
	}
}

func (c *Client) SessionId() string {
	return c.sessionId
}

// Write pumps queued messages to the connection. It exits once the client
// stops or its room is disposed, flushing whatever is still queued first.
func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("client %q write exiting", c.sessionId)
	}()

	for {
		select {
		case msg := <-c.send:
			if !c.writeMessage(msg) {
				return
			}
		case <-c.stop:
			c.flush()
			return
		case <-c.room.Done():
			c.flush()
			c.sendMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "room disposed"))
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) flush() {
	for {
		select {
		case msg := <-c.send:
			if !c.writeMessage(msg) {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) writeMessage(msg *ServerMessage) bool {
	bytes, err := json.Marshal(msg)
	if err != nil {
		c.log.Println("failed to serialize message:", err)
		return true
	}

	return c.sendMessage(websocket.TextMessage, bytes)
}

// Read decodes inbound frames into commands and hands them to the room.
// Malformed or unknown messages are answered here and never reach the room.
func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Printf("client %q read exiting", c.sessionId)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(0))
			continue
		}

		cmd, err := decodeCommand(&msg)
		if err != nil {
			c.log.Printf("client %q: %v", c.sessionId, err)
			if errors.Is(err, errUnknownMessage) {
				c.queueMessage(ErrUnknownMessageType(msg.Id))
			} else {
				c.queueMessage(ErrInvalidMessage(msg.Id))
			}
			continue
		}

		msg.client = c
		msg.command = cmd
		msg.Timestamp = Now()

		if err := c.room.Dispatch(&msg); err != nil {
			if errors.Is(err, ErrRoomDisposed) {
				return
			}
			c.log.Printf("inbox full for room %q", c.room.id)
			c.queueMessage(ErrServiceUnavailable(msg.Id))
		}
	}
}

// queueMessage never blocks the room loop. A client that cannot keep up
// loses the message.
func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("send buffer full for client %q, dropping %s", c.sessionId, msg.Type)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Client) cleanup() {
	if err := c.room.Leave(c); err != nil && !errors.Is(err, ErrRoomDisposed) {
		c.log.Printf("leave room %q: %v", c.room.id, err)
	}
	c.stopClient()
}
