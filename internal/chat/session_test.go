package chat_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmac/httpchat/internal/chat"
	"github.com/vmac/httpchat/internal/domain"
)

func newTestSession(t *testing.T, identity string, dir *chat.Directory) (*chat.Session, *recordingSender) {
	t.Helper()
	out := &recordingSender{}
	sess, err := chat.NewSession(mustUser(t, identity), dir, out)
	require.NoError(t, err)
	return sess, out
}

func TestNewSessionRequiresIdentity(t *testing.T) {
	dir := chat.NewDirectory("")

	_, err := chat.NewSession(nil, dir, &recordingSender{})
	require.ErrorIs(t, err, domain.ErrIdentityEmpty)

	_, err = chat.NewSession(&domain.User{}, dir, &recordingSender{})
	require.ErrorIs(t, err, domain.ErrIdentityEmpty)
}

func TestSessionListUnjoined(t *testing.T) {
	sess, out := newTestSession(t, "C", chat.NewDirectory(""))

	sess.OnMessage([]byte("/list"))

	assert.Equal(t, []string{"No room joined"}, out.Messages())
}

func TestSessionLeaveUnjoined(t *testing.T) {
	sess, out := newTestSession(t, "C", chat.NewDirectory(""))

	sess.OnMessage([]byte("/leave"))

	assert.Equal(t, []string{"leave/you are not in a room"}, out.Messages())
}

func TestSessionHelp(t *testing.T) {
	sess, out := newTestSession(t, "A", chat.NewDirectory(""))

	sess.OnMessage([]byte("/help"))

	assert.Equal(t, []string{"help/ask the admin ;-)"}, out.Messages())
}

func TestSessionRandomRange(t *testing.T) {
	sess, out := newTestSession(t, "A", chat.NewDirectory(""))

	for i := 0; i < 20; i++ {
		sess.OnMessage([]byte("/random"))
	}

	msgs := out.Messages()
	require.Len(t, msgs, 20)
	for _, msg := range msgs {
		require.True(t, strings.HasPrefix(msg, "random/"), "unexpected response %q", msg)
		v, err := strconv.ParseFloat(strings.TrimPrefix(msg, "random/"), 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 100.0)
	}
}

// Unrecognized input outside a room is echoed back with a leading slash.
// Intentional wire behavior, not a bug to fix.
func TestSessionEchoesUnrecognizedInput(t *testing.T) {
	sess, out := newTestSession(t, "A", chat.NewDirectory(""))

	sess.OnMessage([]byte("hello World"))
	sess.OnMessage([]byte("/unknown"))

	assert.Equal(t, []string{"/hello World", "//unknown"}, out.Messages())
}

func TestSessionJoinCreatesRoom(t *testing.T) {
	dir := chat.NewDirectory("")
	sess, out := newTestSession(t, "A", dir)

	sess.OnMessage([]byte("/join lobby"))

	assert.Equal(t, []string{"list/A", ":A joined channel"}, out.Messages())
	room, err := dir.Lookup("lobby")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, room.MemberList())

	name, ok := sess.CurrentRoom()
	require.True(t, ok)
	assert.Equal(t, "lobby", string(name))
}

func TestSessionSecondJoinRejected(t *testing.T) {
	dir := chat.NewDirectory("")
	sess, out := newTestSession(t, "A", dir)
	sess.OnMessage([]byte("/join lobby"))
	out.Reset()

	sess.OnMessage([]byte("/join other"))

	assert.Equal(t, []string{"Leave current channel first"}, out.Messages())
	_, err := dir.Lookup("other")
	assert.ErrorIs(t, err, chat.ErrRoomNotFound, "a rejected join must not create the room")
	name, _ := sess.CurrentRoom()
	assert.Equal(t, "lobby", string(name))
}

func TestSessionJoinInvalidRoomName(t *testing.T) {
	dir := chat.NewDirectory("")
	sess, out := newTestSession(t, "A", dir)

	sess.OnMessage([]byte("/join"))
	sess.OnMessage([]byte("/join "))

	assert.Equal(t, []string{
		"join/Invalid room name: ",
		"join/Invalid room name: ",
	}, out.Messages())
	_, ok := sess.CurrentRoom()
	assert.False(t, ok)
	assert.Empty(t, dir.List())
}

func TestSessionCommandsCaseInsensitive(t *testing.T) {
	dir := chat.NewDirectory("")
	sess, out := newTestSession(t, "A", dir)

	sess.OnMessage([]byte("/JOIN Lobby"))
	sess.OnMessage([]byte("/LIST"))
	sess.OnMessage([]byte("/Leave"))

	// The room name keeps its original casing, only the keyword folds.
	assert.Equal(t, []string{
		"list/A",
		":A joined channel",
		"list/A",
		"leave/Room Lobby left",
	}, out.Messages())
	_, err := dir.Lookup("Lobby")
	assert.NoError(t, err)
}

// The full two-party walkthrough: join, join, leave, list.
func TestSessionJoinLeaveScenario(t *testing.T) {
	dir := chat.NewDirectory("")
	a, aOut := newTestSession(t, "A", dir)
	b, bOut := newTestSession(t, "B", dir)

	a.OnMessage([]byte("/join lobby"))
	assert.Equal(t, []string{"list/A", ":A joined channel"}, aOut.Messages())

	b.OnMessage([]byte("/join lobby"))
	assert.Equal(t, []string{"list/A,B", ":B joined channel"}, bOut.Messages())
	assert.Contains(t, aOut.Messages(), ":B joined channel")

	aOut.Reset()
	bOut.Reset()

	b.OnMessage([]byte("/leave"))
	assert.Equal(t, []string{"leave/Room lobby left"}, bOut.Messages())
	assert.Equal(t, []string{":B left channel"}, aOut.Messages())

	aOut.Reset()
	a.OnMessage([]byte("/list"))
	assert.Equal(t, []string{"list/A"}, aOut.Messages())
}

func TestSessionChannelMessageFanOut(t *testing.T) {
	dir := chat.NewDirectory("")
	a, aOut := newTestSession(t, "A", dir)
	b, bOut := newTestSession(t, "B", dir)
	a.OnMessage([]byte("/join lobby"))
	b.OnMessage([]byte("/join lobby"))
	aOut.Reset()
	bOut.Reset()

	a.OnChannelMessage([]byte("hi all"))

	assert.Equal(t, []string{"A: hi all"}, bOut.Messages())
	assert.Empty(t, aOut.Messages(), "sender does not receive its own chat")
}

func TestSessionChannelMessageOutsideRoomDropped(t *testing.T) {
	sess, out := newTestSession(t, "A", chat.NewDirectory(""))

	sess.OnChannelMessage([]byte("shouting into the void"))

	assert.Empty(t, out.Messages())
}

func TestSessionDisconnectLeavesRoom(t *testing.T) {
	dir := chat.NewDirectory("")
	a, aOut := newTestSession(t, "A", dir)
	b, bOut := newTestSession(t, "B", dir)
	a.OnMessage([]byte("/join lobby"))
	b.OnMessage([]byte("/join lobby"))
	aOut.Reset()
	bOut.Reset()

	b.OnDisconnect(true)

	assert.Equal(t, []string{":B left channel"}, aOut.Messages())
	room, err := dir.Lookup("lobby")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, room.MemberList())

	// A closed session ignores everything, including a second disconnect.
	bOut.Reset()
	b.OnMessage([]byte("/list"))
	b.OnChannelMessage([]byte("late"))
	b.OnDisconnect(false)
	assert.Empty(t, bOut.Messages())
}

func TestSessionDisconnectWhileUnjoined(t *testing.T) {
	sess, out := newTestSession(t, "A", chat.NewDirectory(""))

	sess.OnDisconnect(false)

	assert.Empty(t, out.Messages())
}
