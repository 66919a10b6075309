// Package protocol defines the websocket wire format shared by the server
// and its clients: the message envelope, the event name catalog, and the
// payload types carried by each event.
//
// WebRTC session descriptions and ICE candidates use the pion types directly
// so that browser and pion clients can exchange them without translation.
// The server validates their structure but never inspects or rewrites the
// SDP or candidate contents.
package protocol

import (
	"encoding/json"
	"math"

	"github.com/pion/webrtc/v4"
)

// Client-to-server event names.
const (
	EventCreateRoom     = "createRoom"
	EventJoinRoom       = "joinRoom"
	EventLeaveRoom      = "leaveRoom"
	EventOffer          = "offer"
	EventAnswer         = "answer"
	EventICECandidate   = "iceCandidate"
	EventUpdateScore    = "updateScore"
	EventUpdateSettings = "updateSettings"
	EventStartGame      = "startGame"
)

// Server-to-client event names.
const (
	EventRoomCreated         = "roomCreated"
	EventRoomExists          = "roomExists"
	EventPlayerJoined        = "playerJoined"
	EventRoomReady           = "roomReady"
	EventPromotedToHost      = "promotedToHost"
	EventPlayerLeft          = "playerLeft"
	EventPlayerDisconnected  = "playerDisconnected"
	EventSettingsUpdated     = "settingsUpdated"
	EventGameStarting        = "gameStarting"
	EventGameStarted         = "gameStarted"
	EventOpponentScoreUpdate = "opponentScoreUpdate"

	EventRoomError         = "roomError"
	EventScoreUpdateError  = "scoreUpdateError"
	EventOfferError        = "offerError"
	EventAnswerError       = "answerError"
	EventICECandidateError = "iceCandidateError"
)

// Envelope is the wire frame for every message in both directions.
//
// The canonical client-to-server shape is {"event": E, "room": CODE,
// "data": {...}}. Two additional inbound shapes are accepted for
// compatibility with older clients; Normalize folds them into the canonical
// form before any handler sees them.
type Envelope struct {
	Event string          `json:"event"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`

	// Args carries the legacy positional form: the room code followed by
	// an optional payload, mirroring socket.io's emit(code, payload).
	Args []json.RawMessage `json:"args,omitempty"`
}

// ScorePayload is the data of an updateScore event. Score is a pointer so a
// missing field is distinguishable from a legitimate zero.
type ScorePayload struct {
	RoomID string   `json:"roomId,omitempty"`
	Score  *float64 `json:"score"`
}

// Valid reports whether the payload carries a finite numeric score.
func (p *ScorePayload) Valid() bool {
	return p.Score != nil && !math.IsNaN(*p.Score) && !math.IsInf(*p.Score, 0)
}

// GameSettings is the host-chosen configuration for a session. All fields
// are required; a partial payload is rejected.
type GameSettings struct {
	GameMode         string `json:"gameMode"`
	TargetScore      int    `json:"targetScore"`
	RoundTimeSeconds int    `json:"roundTimeSeconds"`
}

// Valid reports whether every required settings field is present and usable.
func (s *GameSettings) Valid() bool {
	return s.GameMode != "" && s.TargetScore > 0 && s.RoundTimeSeconds > 0
}

// ValidSessionDescription reports whether an offer or answer payload carries
// a usable session description: a known type and a non-empty body.
func ValidSessionDescription(desc *webrtc.SessionDescription) bool {
	if desc == nil || desc.SDP == "" {
		return false
	}
	switch desc.Type {
	case webrtc.SDPTypeOffer, webrtc.SDPTypePranswer, webrtc.SDPTypeAnswer, webrtc.SDPTypeRollback:
		return true
	default:
		return false
	}
}

// ValidICECandidate reports whether an ICE candidate payload carries a
// non-empty candidate string and a media stream identification tag.
func ValidICECandidate(cand *webrtc.ICECandidateInit) bool {
	return cand != nil && cand.Candidate != "" && cand.SDPMid != nil && *cand.SDPMid != ""
}

// Signal is the envelope data for a relayed offer, answer, or iceCandidate.
// From identifies the sending peer so the recipient can correlate state.
type Signal struct {
	Room        string                     `json:"room"`
	From        string                     `json:"from,omitempty"`
	Description *webrtc.SessionDescription `json:"description,omitempty"`
	Candidate   *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

// RoomCreated is the reply to a successful createRoom.
type RoomCreated struct {
	Room string `json:"room"`
}

// PlayerJoined notifies the existing member that a peer has arrived.
type PlayerJoined struct {
	Room     string `json:"room"`
	PlayerID string `json:"playerId"`
}

// RoomReady is sent to each member once the room reaches two players. Each
// recipient gets its own role flag and its peer's identifier.
type RoomReady struct {
	Room   string             `json:"room"`
	IsHost bool               `json:"isHost"`
	PeerID string             `json:"peerId"`
	Scores map[string]float64 `json:"scores"`
}

// PromotedToHost tells a member it is now the room's host.
type PromotedToHost struct {
	Room string `json:"room"`
}

// PlayerGone notifies the remaining member of a departure, via playerLeft
// for an explicit leave or playerDisconnected for a transport drop. HostID
// is the post-departure host, or null if the room emptied.
type PlayerGone struct {
	Room     string  `json:"room"`
	PlayerID string  `json:"playerId"`
	HostID   *string `json:"hostId"`
}

// SettingsUpdated broadcasts the host's configuration to the room.
type SettingsUpdated struct {
	Room     string       `json:"room"`
	Settings GameSettings `json:"settings"`
}

// GameStarting tells the room its configuration is complete and the host
// may now start.
type GameStarting struct {
	Room string `json:"room"`
}

// GameStarted broadcasts the transition into play.
type GameStarted struct {
	Room     string       `json:"room"`
	Settings GameSettings `json:"settings"`
}

// OpponentScore carries a score change to the non-sending member.
type OpponentScore struct {
	Room     string  `json:"room"`
	PlayerID string  `json:"playerId"`
	Score    float64 `json:"score"`
}

// ErrorPayload is the data of every error reply event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MustEnvelope wraps a payload into an outbound envelope. Marshal failures
// cannot happen for the payload types above, so they are swallowed into an
// empty data field rather than propagated.
func MustEnvelope(event, room string, payload any) *Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		data = nil
	}
	return &Envelope{Event: event, Room: room, Data: data}
}
