package signaling

import (
	"time"

	"github.com/rozovalentina/musicnet-signaling-server/internal/protocol"
)

// Status is the lifecycle stage of a room. It advances monotonically
// (waiting → configuring → playing) except that losing a member during
// configuration drops the room back to waiting. A playing room keeps its
// status when a member disconnects; the abandoned game is surfaced to the
// remaining peer rather than auto-terminated.
type Status int8

const (
	// StatusWaiting means the room has a single member waiting for a peer.
	StatusWaiting Status = iota

	// StatusConfiguring means both members are present and the host is
	// choosing the game settings.
	StatusConfiguring

	// StatusPlaying means the host started the game.
	StatusPlaying
)

// String returns a human-readable status for logs.
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusConfiguring:
		return "configuring"
	case StatusPlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// maxMembers is the hard cap on room occupancy.
const maxMembers = 2

// Room is a two-player session. All fields are guarded by the Registry;
// nothing outside a registry critical section may hold a *Room.
type Room struct {
	Code string

	// Members is in join order. The first entry is the original host
	// candidate; host promotion always picks the oldest remaining member.
	Members []string

	HostID   string
	Status   Status
	Scores   map[string]float64
	Settings *protocol.GameSettings

	CreatedAt      time.Time
	LastActivityAt time.Time
}

func newRoom(code, creator string, now time.Time) *Room {
	return &Room{
		Code:           code,
		Members:        []string{creator},
		HostID:         creator,
		Status:         StatusWaiting,
		Scores:         map[string]float64{creator: 0},
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// AddMember appends a member and opens its score entry. Fails with ErrFull
// at the occupancy cap. A second member moves the room into configuration.
func (r *Room) AddMember(id string, now time.Time) error {
	if len(r.Members) >= maxMembers {
		return ErrFull
	}
	r.Members = append(r.Members, id)
	r.Scores[id] = 0
	if len(r.Members) == maxMembers && r.Status == StatusWaiting {
		r.Status = StatusConfiguring
	}
	r.LastActivityAt = now
	return nil
}

// RemoveMember drops a member and its score entry. It reports whether the
// id was a member and, when the departing member was the host and someone
// remains, the id of the newly promoted host. Losing a member during
// configuration reverts the room to waiting.
func (r *Room) RemoveMember(id string, now time.Time) (removed bool, promoted string) {
	idx := -1
	for i, m := range r.Members {
		if m == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, ""
	}
	r.Members = append(r.Members[:idx], r.Members[idx+1:]...)
	delete(r.Scores, id)
	r.LastActivityAt = now

	if r.Status == StatusConfiguring && len(r.Members) < maxMembers {
		r.Status = StatusWaiting
	}
	if r.HostID == id && len(r.Members) > 0 {
		r.HostID = r.Members[0]
		promoted = r.HostID
	}
	return true, promoted
}

// HasMember reports whether id is a current member.
func (r *Room) HasMember(id string) bool {
	for _, m := range r.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Other returns the member that is not id, if one exists.
func (r *Room) Other(id string) (string, bool) {
	for _, m := range r.Members {
		if m != id {
			return m, true
		}
	}
	return "", false
}

// Empty reports whether the room has no members left.
func (r *Room) Empty() bool {
	return len(r.Members) == 0
}

// Touch records activity for the lifecycle sweeper.
func (r *Room) Touch(now time.Time) {
	r.LastActivityAt = now
}

// snapshotScores copies the score table for inclusion in outbound payloads,
// so the payload cannot alias registry-owned state.
func (r *Room) snapshotScores() map[string]float64 {
	out := make(map[string]float64, len(r.Scores))
	for id, s := range r.Scores {
		out[id] = s
	}
	return out
}
