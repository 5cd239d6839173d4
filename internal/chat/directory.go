package chat

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vmac/httpchat/internal/domain"
)

var ErrRoomNotFound = errors.New("room not found")

// Directory is the process-wide name to room registry. Entries are added
// only, never removed: a name, once bound, refers to the same Room for the
// lifetime of the process.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]*Room
}

// NewDirectory builds the registry and, when defaultRoom is non-empty,
// binds it immediately so the room exists before the first login.
func NewDirectory(defaultRoom domain.RoomName) *Directory {
	d := &Directory{rooms: make(map[domain.RoomName]*Room)}
	if defaultRoom != "" {
		d.rooms[defaultRoom] = NewRoom(defaultRoom)
		log.Info().Str("module", "chat.directory").Str("room", string(defaultRoom)).Msg("default room created")
	}
	return d
}

// GetOrCreate returns the room bound to name, creating and binding it when
// absent. Concurrent calls for the same unbound name observe one instance.
func (d *Directory) GetOrCreate(name domain.RoomName) *Room {
	d.mu.RLock()
	room, ok := d.rooms[name]
	d.mu.RUnlock()

	if ok {
		return room
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok = d.rooms[name]; !ok {
		room = NewRoom(name)
		d.rooms[name] = room
		log.Info().Str("module", "chat.directory").Str("room", string(name)).Msg("room created")
	}
	return room
}

// Lookup is a pure read; it never creates a room.
func (d *Directory) Lookup(name domain.RoomName) (*Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[name]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// RoomInfo is a read-only view for APIs.
type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
}

func (d *Directory) List() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, RoomInfo{Name: r.Name(), MemberCount: r.MemberCount()})
	}
	return out
}
