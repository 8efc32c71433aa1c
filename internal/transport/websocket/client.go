package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	invokeTimeout  = 60 * time.Second
	laneSize       = 256
)

// orderedChannels mutate state that depends on call order. Invokes on them are
// answered one at a time per client, in the order they were read; everything
// else runs concurrently.
var orderedChannels = map[string]bool{
	domain.ChannelCreateSession:   true,
	domain.ChannelExecuteCommand:  true,
	domain.ChannelTerminalHistory: true,
	domain.ChannelCloseSession:    true,
	domain.ChannelListSessions:    true,
	domain.ChannelCreateDirectory: true,
	domain.ChannelCreateFile:      true,
	domain.ChannelDeleteFile:      true,
	domain.ChannelDeleteDirectory: true,
	domain.ChannelRenameItem:      true,
}

// Invoker answers invoke messages.
type Invoker interface {
	Invoke(ctx context.Context, channel string, args []json.RawMessage) (any, error)
}

type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	invoker    Invoker
	send       chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	remoteAddr string
	log        logger.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, invoker Invoker, log logger.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		invoker:    invoker,
		send:       make(chan []byte, 256),
		done:       make(chan struct{}),
		remoteAddr: conn.RemoteAddr().String(),
		log:        log,
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) readPump(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		c.hub.leave(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	lane := make(chan domain.WsClientMessage, laneSize)
	go c.drain(ctx, lane)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("ws: client disconnected", "remote_addr", c.remoteAddr, "error", err)
			}
			return
		}

		var msg domain.WsClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.log.Error("ws: invalid json message", "error", err)
			continue
		}

		switch msg.Type {
		case domain.WsInvoke:
			if !orderedChannels[msg.Channel] {
				go c.invoke(ctx, msg)
				continue
			}
			select {
			case lane <- msg:
			case <-ctx.Done():
				return
			}

		case domain.WsSubscribe:
			c.hub.sub(&Subscription{client: c, channel: msg.Channel}, true)

		case domain.WsUnsubscribe:
			c.hub.sub(&Subscription{client: c, channel: msg.Channel}, false)

		default:
			c.log.Warn("ws: unknown message type", "type", msg.Type)
		}
	}
}

func (c *Client) drain(ctx context.Context, lane <-chan domain.WsClientMessage) {
	for {
		select {
		case msg := <-lane:
			c.invoke(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) invoke(ctx context.Context, msg domain.WsClientMessage) {
	ctx, cancel := context.WithTimeout(ctx, invokeTimeout)
	defer cancel()

	reply := domain.WsReplyMessage{Type: domain.WsReply, ID: msg.ID, Channel: msg.Channel}

	result, err := c.invoker.Invoke(ctx, msg.Channel, msg.Args)
	if err != nil {
		reply.Error = err.Error()
	} else {
		reply.Result = result
	}

	payload, err := json.Marshal(reply)
	if err != nil {
		c.log.Error("ws: failed to marshal reply", "channel", msg.Channel, "error", err)
		return
	}

	select {
	case c.send <- payload:
	case <-c.done:
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
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			_, err = w.Write(message)
			if err != nil {
				w.Close()
				return
			}

			if err := w.Close(); err != nil {
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
