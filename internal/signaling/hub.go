package signaling

import (
	"context"
	"log/slog"
	"time"

	"github.com/rozovalentina/musicnet-signaling-server/internal/protocol"
)

// Hub is the central brain of the signaling server. It owns the room
// registry, the set of live connections, and the membership index mapping
// each connection to its current room. All state changes flow through the
// hub's single Run goroutine; registry access is additionally serialized by
// the registry's own lock so the sweeper can run beside it.
type Hub struct {
	registry *Registry
	log      *slog.Logger

	// clients maps connection id to client for directed emits.
	clients map[string]*Client

	// roomOf is the explicit "current room of connection" index. A
	// connection occupies at most one room at a time.
	roomOf map[string]string

	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for dropped or closing clients.
	Unregister chan *Client

	// Inbound carries decoded client messages into the hub loop.
	Inbound chan *InboundMessage

	// done is closed when Run exits, releasing any goroutine still trying
	// to hand the hub a client or a message.
	done chan struct{}

	// now is the hub's clock, injectable for tests.
	now func() time.Time
}

// InboundMessage pairs a raw envelope with the client that sent it.
type InboundMessage struct {
	Client   *Client
	Envelope *protocol.Envelope
}

// NewHub creates a hub around the given registry.
func NewHub(registry *Registry, log *slog.Logger) *Hub {
	return &Hub{
		registry:   registry,
		log:        log,
		clients:    make(map[string]*Client),
		roomOf:     make(map[string]string),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *InboundMessage, 64),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Done is closed once the hub's Run loop has exited. Senders on Register,
// Unregister, and Inbound must select against it so a shutdown cannot
// strand them.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run is the hub's main processing loop. It exits when ctx is cancelled,
// closing every remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, c := range h.clients {
				h.disconnect(c)
			}
			return

		case client := <-h.Register:
			h.clients[client.ID] = client
			h.log.Debug("client registered", "conn", client.ID)

		case client := <-h.Unregister:
			h.disconnect(client)

		case msg := <-h.Inbound:
			h.handleEnvelope(msg.Client, msg.Envelope)
		}
	}
}

// handleEnvelope normalizes and dispatches one client message. It is the
// handler boundary: an internal fault is caught here, logged, and reported
// to the originating connection only, so one room's failure cannot touch
// another room's state.
func (h *Hub) handleEnvelope(c *Client, env *protocol.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("handler panic", "conn", c.ID, "event", env.Event, "panic", r)
			h.emit(c.ID, errorEnvelope(errorEventFor(env.Event), errInternal))
		}
	}()

	in, err := protocol.Normalize(env)
	if err != nil {
		h.log.Warn("unparseable message", "conn", c.ID, "err", err)
		h.emit(c.ID, errorEnvelope(errorEventFor(env.Event), ErrInvalidPayload))
		return
	}

	switch in.Event {
	case protocol.EventCreateRoom:
		h.handleCreate(c, in)
	case protocol.EventJoinRoom:
		h.handleJoin(c, in)
	case protocol.EventLeaveRoom:
		h.handleLeave(c, in)
	case protocol.EventOffer, protocol.EventAnswer, protocol.EventICECandidate,
		protocol.EventUpdateScore, protocol.EventUpdateSettings, protocol.EventStartGame:
		h.handleRelay(c, in)
	default:
		h.log.Warn("unknown event", "conn", c.ID, "event", in.Event)
	}
}

// handleCreate serves createRoom. The creator becomes sole member and host
// of a waiting room.
func (h *Hub) handleCreate(c *Client, in *protocol.Inbound) {
	if cur, ok := h.currentRoom(c.ID); ok {
		h.log.Warn("create while in a room", "conn", c.ID, "room", cur)
		h.emit(c.ID, errorEnvelope(protocol.EventRoomError, ErrNotAuthorized))
		return
	}
	if err := h.registry.Create(in.Room, c.ID, h.now()); err != nil {
		if err == ErrAlreadyExists {
			h.emit(c.ID, protocol.MustEnvelope(protocol.EventRoomExists, in.Room, protocol.ErrorPayload{
				Code:    errorCode(err),
				Message: err.Error(),
			}))
			return
		}
		h.emit(c.ID, errorEnvelope(protocol.EventRoomError, err))
		return
	}
	h.roomOf[c.ID] = in.Room
	h.log.Info("room created", "room", in.Room, "host", c.ID)
	h.emit(c.ID, protocol.MustEnvelope(protocol.EventRoomCreated, in.Room, protocol.RoomCreated{Room: in.Room}))
}

// handleJoin serves joinRoom. A successful second join moves the room to
// configuring and tells each member its role and peer.
func (h *Hub) handleJoin(c *Client, in *protocol.Inbound) {
	if cur, ok := h.currentRoom(c.ID); ok {
		h.log.Warn("join while in a room", "conn", c.ID, "room", cur)
		h.emit(c.ID, errorEnvelope(protocol.EventRoomError, ErrNotAuthorized))
		return
	}

	var (
		hostID string
		peerID string
		scores map[string]float64
	)
	err := h.registry.Update(in.Room, func(room *Room) error {
		if room.Empty() {
			// A crashed disconnect left a shell awaiting the sweeper;
			// treat it as gone.
			return ErrNotFound
		}
		if err := room.AddMember(c.ID, h.now()); err != nil {
			return err
		}
		hostID = room.HostID
		peerID, _ = room.Other(c.ID)
		scores = room.snapshotScores()
		return nil
	})
	if err != nil {
		h.emit(c.ID, errorEnvelope(protocol.EventRoomError, err))
		return
	}

	h.roomOf[c.ID] = in.Room
	h.log.Info("player joined", "room", in.Room, "conn", c.ID)

	h.emit(peerID, protocol.MustEnvelope(protocol.EventPlayerJoined, in.Room, protocol.PlayerJoined{
		Room:     in.Room,
		PlayerID: c.ID,
	}))
	h.emit(peerID, protocol.MustEnvelope(protocol.EventRoomReady, in.Room, protocol.RoomReady{
		Room:   in.Room,
		IsHost: peerID == hostID,
		PeerID: c.ID,
		Scores: scores,
	}))
	h.emit(c.ID, protocol.MustEnvelope(protocol.EventRoomReady, in.Room, protocol.RoomReady{
		Room:   in.Room,
		IsHost: c.ID == hostID,
		PeerID: peerID,
		Scores: scores,
	}))
}

// currentRoom resolves the connection's live room. The sweeper reclaims
// rooms without the hub's involvement, so an index entry can outlive its
// room; such an entry is dropped here rather than left to lock the
// connection out of creating or joining anything else.
func (h *Hub) currentRoom(connID string) (string, bool) {
	code, ok := h.roomOf[connID]
	if !ok {
		return "", false
	}
	if !h.registry.Has(code) {
		h.log.Debug("dropping swept room from index", "conn", connID, "room", code)
		delete(h.roomOf, connID)
		return "", false
	}
	return code, true
}

// handleLeave serves an explicit leaveRoom.
func (h *Hub) handleLeave(c *Client, in *protocol.Inbound) {
	code := in.Room
	if code == "" {
		code = h.roomOf[c.ID]
	}
	if code == "" {
		h.emit(c.ID, errorEnvelope(protocol.EventRoomError, ErrRoomUnresolved))
		return
	}
	if err := h.removeFromRoom(c.ID, code, protocol.EventPlayerLeft); err != nil {
		h.emit(c.ID, errorEnvelope(protocol.EventRoomError, err))
	}
}

// disconnect tears down a client: its room membership, its table entries,
// and its send channel. Safe to run once per connection regardless of what
// partial state existed.
func (h *Hub) disconnect(c *Client) {
	if _, live := h.clients[c.ID]; !live {
		return
	}
	if code, ok := h.roomOf[c.ID]; ok {
		if err := h.removeFromRoom(c.ID, code, protocol.EventPlayerDisconnected); err != nil {
			h.log.Debug("disconnect cleanup", "conn", c.ID, "room", code, "err", err)
		}
	}
	delete(h.clients, c.ID)
	delete(h.roomOf, c.ID)
	close(c.send)
	h.log.Info("client disconnected", "conn", c.ID)
}

// removeFromRoom is the shared departure path for leave and disconnect.
// goneEvent names the notification the remaining member receives. The host
// role passes to the oldest remaining member, which is told of its
// promotion exactly once; an emptied room is deleted before the event ends.
func (h *Hub) removeFromRoom(id, code string, goneEvent string) error {
	var (
		promoted  string
		remaining string
		hostID    string
		emptied   bool
	)
	err := h.registry.Update(code, func(room *Room) error {
		removed, newHost := room.RemoveMember(id, h.now())
		if !removed {
			return ErrNotAuthorized
		}
		promoted = newHost
		emptied = room.Empty()
		if !emptied {
			remaining = room.Members[0]
			hostID = room.HostID
		}
		return nil
	})
	if err != nil {
		// Drop a stale index entry for a room the sweeper already
		// reclaimed, but only when the index actually points there.
		if err == ErrNotFound && h.roomOf[id] == code {
			delete(h.roomOf, id)
		}
		return err
	}
	delete(h.roomOf, id)

	if emptied {
		h.registry.Delete(code)
		h.log.Info("room deleted", "room", code)
		return nil
	}

	if promoted != "" {
		h.emit(promoted, protocol.MustEnvelope(protocol.EventPromotedToHost, code, protocol.PromotedToHost{Room: code}))
	}
	gone := protocol.PlayerGone{Room: code, PlayerID: id, HostID: &hostID}
	h.emit(remaining, protocol.MustEnvelope(goneEvent, code, gone))
	h.log.Info("player left", "room", code, "conn", id, "host", hostID)
	return nil
}

// emit queues an envelope for one connection. Delivery is best-effort: a
// dead or saturated client drops the message.
func (h *Hub) emit(connID string, env *protocol.Envelope) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case c.send <- env:
	default:
		h.log.Warn("send buffer full, dropping", "conn", connID, "event", env.Event)
	}
}

// errorEventFor picks the error reply event matching an inbound event.
func errorEventFor(event string) string {
	switch event {
	case protocol.EventOffer:
		return protocol.EventOfferError
	case protocol.EventAnswer:
		return protocol.EventAnswerError
	case protocol.EventICECandidate:
		return protocol.EventICECandidateError
	case protocol.EventUpdateScore:
		return protocol.EventScoreUpdateError
	default:
		return protocol.EventRoomError
	}
}
