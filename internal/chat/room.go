// Package chat implements the room membership and message routing core:
// the room directory, the rooms themselves, and the per-connection command
// state machine. Transport is abstracted behind the Sender interface.
package chat

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vmac/httpchat/internal/domain"
)

// member pairs a user with its transport endpoint.
type member struct {
	user *domain.User
	out  Sender
}

// Room is a named broadcast group. Membership is the only room state; rooms
// are never destroyed, they just sit empty. Join, Leave and Broadcast on the
// same Room are mutually exclusive; different rooms do not share a lock.
type Room struct {
	name domain.RoomName

	mu      sync.Mutex
	members map[string]member // identity -> member
	order   []string          // identities in insertion order
}

func NewRoom(name domain.RoomName) *Room {
	return &Room{
		name:    name,
		members: make(map[string]member),
	}
}

func (r *Room) Name() domain.RoomName { return r.name }

// Join adds the user to the room. It returns false without side effects when
// the identity is already a member. On success the joiner receives the full
// member list as one response, and every member, joiner included, receives a
// join notice (notices pass no sender, so nobody is excluded).
func (r *Room) Join(user *domain.User, out Sender) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[user.Identity]; ok {
		return false
	}
	r.members[user.Identity] = member{user: user, out: out}
	r.order = append(r.order, user.Identity)

	r.sendTo(out, "list/"+strings.Join(r.order, ","))
	r.broadcastLocked("", ":"+user.Identity+" joined channel")
	log.Info().Str("module", "chat.room").Str("room", string(r.name)).Str("identity", user.Identity).Int("members", len(r.order)).Msg("member joined")
	return true
}

// Leave removes the user and notifies the remaining members. Leaving a room
// one is not a member of is a no-op.
func (r *Room) Leave(user *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[user.Identity]; !ok {
		return
	}
	delete(r.members, user.Identity)
	for i, id := range r.order {
		if id == user.Identity {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.broadcastLocked("", ":"+user.Identity+" left channel")
	log.Info().Str("module", "chat.room").Str("room", string(r.name)).Str("identity", user.Identity).Int("members", len(r.order)).Msg("member left")
}

// Broadcast delivers text to every current member, at most once each. A
// non-empty sender identity is excluded from delivery of its own message;
// system notices pass "" and reach everyone.
func (r *Room) Broadcast(sender, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(sender, text)
}

// SendChat prefixes a member's chat line with its identity and fans it out
// to the rest of the room.
func (r *Room) SendChat(sender *domain.User, text string) {
	r.Broadcast(sender.Identity, sender.Identity+": "+text)
}

// MemberList returns a membership snapshot in insertion order.
func (r *Room) MemberList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

func (r *Room) broadcastLocked(sender, text string) {
	for _, id := range r.order {
		if sender != "" && id == sender {
			continue
		}
		r.sendTo(r.members[id].out, text)
	}
}

func (r *Room) sendTo(out Sender, text string) {
	if err := out.Send(text); err != nil {
		log.Warn().Str("module", "chat.room").Str("room", string(r.name)).Err(err).Msg("dropped outbound message")
	}
}
