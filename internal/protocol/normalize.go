package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed reports an envelope that cannot be coerced into the
// canonical shape.
var ErrMalformed = errors.New("malformed envelope")

// Inbound is the canonical form of a client message after shape coercion.
// Room is empty when the client omitted the code and it must be inferred
// from the sender's current membership.
type Inbound struct {
	Event string
	Room  string
	Data  json.RawMessage
}

// Normalize coerces the three accepted inbound shapes into one Inbound:
//
//  1. canonical: {"event": E, "room": "ABC123", "data": {...}}
//  2. payload-embedded or payload-only: {"event": E, "data": {...}} where
//     data may carry the code in a room/roomId/roomCode field, or omit it
//     entirely (room inferred from membership); for the room-management
//     events the data may also be the bare code as a JSON string
//  3. legacy positional: {"event": E, "args": ["ABC123", {...}]}
//
// This is the only place shape sniffing happens; handlers downstream see
// canonical messages exclusively.
func Normalize(env *Envelope) (*Inbound, error) {
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrMalformed)
	}

	in := &Inbound{Event: env.Event, Room: env.Room, Data: env.Data}

	if len(env.Args) > 0 {
		var code string
		if err := json.Unmarshal(env.Args[0], &code); err != nil {
			return nil, fmt.Errorf("%w: positional room code is not a string", ErrMalformed)
		}
		in.Room = code
		in.Data = nil
		if len(env.Args) > 1 {
			in.Data = env.Args[1]
		}
		return in, nil
	}

	if in.Room != "" || len(in.Data) == 0 {
		return in, nil
	}

	// No top-level room: the code may ride inside the payload, or the
	// payload may itself be the bare code.
	in.Data = json.RawMessage(bytes.TrimSpace(in.Data))
	if len(in.Data) == 0 {
		return in, nil
	}
	switch in.Data[0] {
	case '"':
		var code string
		if err := json.Unmarshal(in.Data, &code); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		in.Room = code
		in.Data = nil
	case '{':
		var probe struct {
			Room     string `json:"room"`
			RoomID   string `json:"roomId"`
			RoomCode string `json:"roomCode"`
		}
		if err := json.Unmarshal(in.Data, &probe); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch {
		case probe.Room != "":
			in.Room = probe.Room
		case probe.RoomID != "":
			in.Room = probe.RoomID
		case probe.RoomCode != "":
			in.Room = probe.RoomCode
		}
	}
	return in, nil
}
