package signaling

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/rozovalentina/musicnet-signaling-server/internal/protocol"
)

// handleRelay serves the payload-bearing events: offer, answer,
// iceCandidate, updateScore, and the host-gated updateSettings and
// startGame. Every one of them follows the same discipline: resolve the
// room, check membership, validate the payload structurally, mutate and
// touch the room inside one registry critical section, and only then emit.
// Handshake payloads are forwarded to the other member verbatim with the
// sender's id attached; the server never interprets their contents.
func (h *Hub) handleRelay(c *Client, in *protocol.Inbound) {
	code, err := h.resolveRoom(c, in)
	if err != nil {
		h.emit(c.ID, errorEnvelope(errorEventFor(in.Event), err))
		return
	}

	var out []directed
	err = h.registry.Update(code, func(room *Room) error {
		if !room.HasMember(c.ID) {
			return ErrNotAuthorized
		}
		var applyErr error
		out, applyErr = h.applyRelay(c.ID, code, room, in)
		if applyErr != nil {
			return applyErr
		}
		room.Touch(h.now())
		return nil
	})
	if err != nil {
		if err == ErrNotFound && h.roomOf[c.ID] == code {
			delete(h.roomOf, c.ID)
		}
		h.emit(c.ID, errorEnvelope(errorEventFor(in.Event), err))
		return
	}
	for _, d := range out {
		h.emit(d.to, d.env)
	}
}

// directed is an outbound envelope bound to one recipient, built inside a
// registry critical section and flushed after the mutation commits.
type directed struct {
	to  string
	env *protocol.Envelope
}

// resolveRoom returns the explicit room code from the message or, when
// omitted, the sender's current room from the membership index.
func (h *Hub) resolveRoom(c *Client, in *protocol.Inbound) (string, error) {
	if in.Room != "" {
		return in.Room, nil
	}
	if code, ok := h.roomOf[c.ID]; ok {
		return code, nil
	}
	return "", ErrRoomUnresolved
}

// applyRelay validates one relay message against room state and produces
// the outbound notifications. It runs inside the registry critical section
// and must not emit directly; notifications are issued by the caller after
// the mutation is committed.
func (h *Hub) applyRelay(senderID, code string, room *Room, in *protocol.Inbound) ([]directed, error) {
	switch in.Event {
	case protocol.EventOffer, protocol.EventAnswer:
		var desc webrtc.SessionDescription
		if err := unmarshalPayload(in.Data, &desc); err != nil {
			return nil, ErrInvalidPayload
		}
		if !protocol.ValidSessionDescription(&desc) {
			return nil, ErrInvalidPayload
		}
		return h.forward(senderID, code, room, in.Event, protocol.Signal{
			Room:        code,
			From:        senderID,
			Description: &desc,
		})

	case protocol.EventICECandidate:
		var cand webrtc.ICECandidateInit
		if err := unmarshalPayload(in.Data, &cand); err != nil {
			return nil, ErrInvalidPayload
		}
		if !protocol.ValidICECandidate(&cand) {
			return nil, ErrInvalidPayload
		}
		return h.forward(senderID, code, room, in.Event, protocol.Signal{
			Room:      code,
			From:      senderID,
			Candidate: &cand,
		})

	case protocol.EventUpdateScore:
		var score protocol.ScorePayload
		if err := unmarshalPayload(in.Data, &score); err != nil {
			return nil, ErrInvalidPayload
		}
		if !score.Valid() {
			return nil, ErrInvalidPayload
		}
		room.Scores[senderID] = *score.Score
		return h.forward(senderID, code, room, protocol.EventOpponentScoreUpdate, protocol.OpponentScore{
			Room:     code,
			PlayerID: senderID,
			Score:    *score.Score,
		})

	case protocol.EventUpdateSettings:
		if room.HostID != senderID {
			return nil, ErrNotAuthorized
		}
		var settings protocol.GameSettings
		if err := unmarshalPayload(in.Data, &settings); err != nil {
			return nil, ErrInvalidPayload
		}
		if !settings.Valid() {
			return nil, ErrInvalidPayload
		}
		room.Settings = &settings
		out := h.toMembers(room, protocol.EventSettingsUpdated, protocol.SettingsUpdated{
			Room:     code,
			Settings: settings,
		})
		// Configuration is complete; tell the room the start phase begins.
		out = append(out, h.toMembers(room, protocol.EventGameStarting, protocol.GameStarting{Room: code})...)
		return out, nil

	case protocol.EventStartGame:
		if room.HostID != senderID {
			return nil, ErrNotAuthorized
		}
		if room.Status != StatusConfiguring || room.Settings == nil || len(room.Members) < maxMembers {
			return nil, ErrNotAuthorized
		}
		room.Status = StatusPlaying
		return h.toMembers(room, protocol.EventGameStarted, protocol.GameStarted{
			Room:     code,
			Settings: *room.Settings,
		}), nil
	}
	return nil, ErrInvalidPayload
}

// forward builds the strict 1:1 delivery to the non-sending member. A solo
// room has nobody to forward to; the message is dropped after the state
// update, matching the relay's best-effort contract.
func (h *Hub) forward(senderID, code string, room *Room, event string, payload any) ([]directed, error) {
	other, ok := room.Other(senderID)
	if !ok {
		h.log.Debug("no peer to forward to", "room", code, "event", event)
		return nil, nil
	}
	return []directed{{to: other, env: protocol.MustEnvelope(event, code, payload)}}, nil
}

// toMembers addresses one payload to every current member.
func (h *Hub) toMembers(room *Room, event string, payload any) []directed {
	out := make([]directed, 0, len(room.Members))
	for _, id := range room.Members {
		out = append(out, directed{to: id, env: protocol.MustEnvelope(event, room.Code, payload)})
	}
	return out
}

// unmarshalPayload decodes strictly: absent or non-object data fails.
func unmarshalPayload(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return ErrInvalidPayload
	}
	return json.Unmarshal(data, v)
}
