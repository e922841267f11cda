package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/wordbomb-backend/internal/engine"
	"github.com/DoyleJ11/wordbomb-backend/internal/types"
)

type HubMsg interface{ isHubMsg() }

// Register adds a client. Initial frames are queued for it before any later
// broadcast.
type Register struct {
	ClientID string
	Outbox   chan types.ServerMessage
	Initial  []types.ServerMessage
}

type Unregister struct {
	ClientID string
}

type Broadcast struct {
	Frames []types.ServerMessage
}

// SendTo delivers a frame to a single client.
type SendTo struct {
	ClientID string
	Frame    types.ServerMessage
}

type CountClients struct {
	Reply chan int
}

type ShutdownHub struct{}

func (Register) isHubMsg()     {}
func (Unregister) isHubMsg()   {}
func (Broadcast) isHubMsg()    {}
func (SendTo) isHubMsg()       {}
func (CountClients) isHubMsg() {}
func (ShutdownHub) isHubMsg()  {}

// Hub fans frames out to every connected client. It is the only owner of
// the client outboxes.
type Hub struct {
	inbox   chan HubMsg
	clients map[string]chan types.ServerMessage
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zap.Logger
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 256),
		clients: make(map[string]chan types.ServerMessage),
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Subscribe registers outbox and seeds it with the rendered events. Calls made
// from the same goroutine as Publish keep their relative order.
func (h *Hub) Subscribe(clientID string, outbox chan types.ServerMessage, initial []engine.Event) {
	frames := make([]types.ServerMessage, len(initial))
	for i, ev := range initial {
		frames[i] = types.FromEvent(ev)
	}
	h.send(Register{ClientID: clientID, Outbox: outbox, Initial: frames})
}

func (h *Hub) Remove(clientID string) {
	h.send(Unregister{ClientID: clientID})
}

// Publish renders engine events and broadcasts them in order.
func (h *Hub) Publish(events []engine.Event) {
	if len(events) == 0 {
		return
	}
	frames := make([]types.ServerMessage, len(events))
	for i, ev := range events {
		frames[i] = types.FromEvent(ev)
	}
	h.send(Broadcast{Frames: frames})
}

func (h *Hub) Notify(clientID string, err error) {
	h.send(SendTo{ClientID: clientID, Frame: types.ErrorMessage(err)})
}

func (h *Hub) send(m HubMsg) {
	select {
	case h.inbox <- m:
	case <-h.ctx.Done():
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Register:
				if old, ok := h.clients[msg.ClientID]; ok {
					close(old)
				}
				h.clients[msg.ClientID] = msg.Outbox
				for _, f := range msg.Initial {
					if !h.deliver(msg.ClientID, msg.Outbox, f) {
						break
					}
				}

			case Unregister:
				if ch, ok := h.clients[msg.ClientID]; ok {
					close(ch)
					delete(h.clients, msg.ClientID)
				}

			case Broadcast:
				for _, f := range msg.Frames {
					h.broadcast(f)
				}

			case SendTo:
				if ch, ok := h.clients[msg.ClientID]; ok {
					h.deliver(msg.ClientID, ch, msg.Frame)
				}

			case CountClients:
				msg.Reply <- len(h.clients)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) broadcast(f types.ServerMessage) {
	for id, ch := range h.clients {
		h.deliver(id, ch, f)
	}
}

// deliver reports false when the client was dropped.
func (h *Hub) deliver(id string, ch chan types.ServerMessage, f types.ServerMessage) bool {
	select {
	case ch <- f:
		return true
	default:
		// Client is slow/full - drop them.
		h.log.Warn("dropping slow client", zap.String("client", id))
		close(ch)
		delete(h.clients, id)
		return false
	}
}

func (h *Hub) shutdown() {
	for id, ch := range h.clients {
		close(ch) // Tell client no more frames
		delete(h.clients, id)
	}
	h.cancel()
}
