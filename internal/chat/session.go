package chat

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vmac/httpchat/internal/domain"
)

// Session is the per-connection command state machine. It is either Unjoined
// (room == nil) or InRoom, and holds at most one room membership at a time.
//
// The gateway delivers inbound frames for one connection sequentially; the
// session mutex additionally serializes disconnect teardown against message
// handling, so a session never processes a frame concurrently with its own
// teardown.
type Session struct {
	user *domain.User
	dir  *Directory
	out  Sender

	mu     sync.Mutex
	room   *Room // nil while unjoined
	closed bool
}

// NewSession rejects a nil user or empty identity; that is a contract
// violation by the gateway and fatal to session construction.
func NewSession(user *domain.User, dir *Directory, out Sender) (*Session, error) {
	if user == nil || user.Identity == "" {
		return nil, domain.ErrIdentityEmpty
	}
	return &Session{user: user, dir: dir, out: out}, nil
}

func (s *Session) Identity() string { return s.user.Identity }

// CurrentRoom reports the room this session is a member of, if any.
func (s *Session) CurrentRoom() (domain.RoomName, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return "", false
	}
	return s.room.Name(), true
}

// OnMessage handles one inbound session frame, decoded as UTF-8 text.
// Command keywords match case-insensitively; the argument of /join and any
// echoed text keep their original casing. Unrecognized input is echoed back
// with a leading slash, a quirk clients rely on.
func (s *Session) OnMessage(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	msg := string(data)
	lower := strings.ToLower(msg)
	switch {
	case lower == "/list":
		s.handleList()
	case lower == "/join" || strings.HasPrefix(lower, "/join "):
		s.handleJoin(strings.TrimPrefix(msg[len("/join"):], " "))
	case lower == "/leave":
		s.handleLeave()
	case lower == "/help":
		s.send("help/ask the admin ;-)")
	case lower == "/random":
		s.send(fmt.Sprintf("random/%v", rand.Float64()*100))
	default:
		s.send("/" + msg)
	}
}

// OnChannelMessage handles room-bound chat text. Slash-commands never reach
// this path; the session consumes those in OnMessage. Chat sent while not in
// a room is dropped.
func (s *Session) OnChannelMessage(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.room == nil {
		log.Warn().Str("module", "chat.session").Str("identity", s.user.Identity).Msg("channel message while not in a room")
		return
	}
	s.room.SendChat(s.user, string(data))
}

// OnDisconnect runs the terminal transition: leave the current room, if any,
// and refuse all further frames. Safe to call more than once.
func (s *Session) OnDisconnect(graceful bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.room != nil {
		s.room.Leave(s.user)
		s.room = nil
	}
	reason := "forced"
	if graceful {
		reason = "graceful"
	}
	log.Info().Str("module", "chat.session").Str("identity", s.user.Identity).Str("reason", reason).Msg("user logged out")
}

func (s *Session) handleList() {
	if s.room == nil {
		s.send("No room joined")
		return
	}
	s.send("list/" + strings.Join(s.room.MemberList(), ","))
}

func (s *Session) handleJoin(arg string) {
	if s.room != nil {
		s.send("Leave current channel first")
		return
	}
	name := arg
	if fields := strings.Fields(arg); len(fields) > 0 {
		name = fields[0]
	}
	if name == "" || len(name) > domain.MaxRoomNameLen {
		s.send("join/Invalid room name: " + name)
		return
	}

	room := s.dir.GetOrCreate(domain.RoomName(name))
	if !room.Join(s.user, s.out) {
		// Identities are unique among active sessions, so a duplicate here
		// means a stale membership from an earlier session of this name.
		log.Warn().Str("module", "chat.session").Str("identity", s.user.Identity).Str("room", name).Msg("already a member")
	}
	s.room = room
}

func (s *Session) handleLeave() {
	if s.room == nil {
		s.send("leave/you are not in a room")
		return
	}
	name := s.room.Name()
	s.room.Leave(s.user)
	s.room = nil
	s.send("leave/Room " + string(name) + " left")
}

func (s *Session) send(text string) {
	if err := s.out.Send(text); err != nil {
		log.Warn().Str("module", "chat.session").Str("identity", s.user.Identity).Err(err).Msg("dropped response")
	}
}
