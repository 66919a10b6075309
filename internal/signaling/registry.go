package signaling

import (
	"regexp"
	"sync"
	"time"
)

// codePattern is the room code format: six uppercase letters or digits.
// Codes are validated before any table access.
var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// ValidCode reports whether code satisfies the room code format.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Registry is the sole long-lived owner of all rooms. Handlers and the
// sweeper share it concurrently; every read-decide-mutate sequence on a
// room runs as one critical section via Update, so membership and host
// identity are never observed mid-transition. The sections are short and
// never block on I/O, so a single table mutex is sufficient.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// Create inserts a new room with creator as sole member and host. Fails
// with ErrInvalidCode on a malformed code and ErrAlreadyExists when the
// code is taken.
func (reg *Registry) Create(code, creator string, now time.Time) error {
	if !ValidCode(code) {
		return ErrInvalidCode
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.rooms[code]; ok {
		return ErrAlreadyExists
	}
	reg.rooms[code] = newRoom(code, creator, now)
	return nil
}

// Update runs fn on the room under the registry lock. fn must not retain
// the *Room or perform I/O. Fails with ErrInvalidCode or ErrNotFound before
// fn runs; otherwise returns fn's error.
func (reg *Registry) Update(code string, fn func(*Room) error) error {
	if !ValidCode(code) {
		return ErrInvalidCode
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[code]
	if !ok {
		return ErrNotFound
	}
	return fn(room)
}

// Has reports whether a room with this code currently exists.
func (reg *Registry) Has(code string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	_, ok := reg.rooms[code]
	return ok
}

// Delete removes the room if present. Safe to call for a room that is
// already gone.
func (reg *Registry) Delete(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Expire deletes and returns the codes of rooms the sweeper should
// reclaim: rooms still waiting past waitingTTL since creation, and empty
// rooms idle past emptyGrace (a disconnect whose cleanup never ran).
func (reg *Registry) Expire(now time.Time, waitingTTL, emptyGrace time.Duration) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var reclaimed []string
	for code, room := range reg.rooms {
		switch {
		case room.Status == StatusWaiting && now.Sub(room.CreatedAt) > waitingTTL:
			reclaimed = append(reclaimed, code)
		case room.Empty() && now.Sub(room.LastActivityAt) > emptyGrace:
			reclaimed = append(reclaimed, code)
		}
	}
	for _, code := range reclaimed {
		delete(reg.rooms, code)
	}
	return reclaimed
}
