// Package websocket
package websocket

import (
	"context"
	"encoding/json"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"
)

// Hub fans push events out to the clients subscribed to their channel. It
// implements domain.Publisher.
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *Subscription
	unsubscribe chan *Subscription
	events      chan *domain.WsServerEvent

	done chan struct{}

	log logger.Logger
}

type Subscription struct {
	client  *Client
	channel string
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients:  make(map[*Client]bool),
		channels: make(map[string]map[*Client]bool),

		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *Subscription),
		unsubscribe: make(chan *Subscription),
		events:      make(chan *domain.WsServerEvent, 256),

		done: make(chan struct{}),

		log: log,
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for client := range h.clients {
			h.remove(client)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.log.Info("ws: client registered", "remote_addr", client.remoteAddr, "total_clients", len(h.clients))

		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(client)
				h.log.Info("ws: client unregistered", "remote_addr", client.remoteAddr, "total_clients", len(h.clients))
			}

		case sub := <-h.subscribe:
			if !h.clients[sub.client] {
				continue
			}
			if h.channels[sub.channel] == nil {
				h.channels[sub.channel] = make(map[*Client]bool)
			}
			h.channels[sub.channel][sub.client] = true
			h.log.Debug("ws: client subscribed", "remote_addr", sub.client.remoteAddr, "channel", sub.channel)

		case sub := <-h.unsubscribe:
			if subs, ok := h.channels[sub.channel]; ok && subs[sub.client] {
				delete(subs, sub.client)
				if len(subs) == 0 {
					delete(h.channels, sub.channel)
				}
				h.log.Debug("ws: client unsubscribed", "remote_addr", sub.client.remoteAddr, "channel", sub.channel)
			}

		case event := <-h.events:
			h.handleEvent(event)
		}
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	client.close()

	for channel, subs := range h.channels {
		if subs[client] {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.channels, channel)
			}
		}
	}
}

func (h *Hub) handleEvent(event *domain.WsServerEvent) {
	subs, ok := h.channels[event.Channel]
	if !ok {
		return
	}

	message, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws: failed to marshal server event", "channel", event.Channel, "error", err)
		return
	}

	for client := range subs {
		select {
		case client.send <- message:
		default:
			h.log.Warn("ws: client channel full, force unregister", "remote_addr", client.remoteAddr)
			h.remove(client)
		}
	}
}

// Publish queues a push event. It blocks while the queue is full and returns
// immediately once the hub has stopped.
func (h *Hub) Publish(channel string, payload any) {
	select {
	case h.events <- &domain.WsServerEvent{Type: domain.WsEvent, Channel: channel, Payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) sub(s *Subscription, on bool) {
	ch := h.unsubscribe
	if on {
		ch = h.subscribe
	}
	select {
	case ch <- s:
	case <-h.done:
	}
}
