package chat

// Sender delivers one outbound payload to a connected client. Implementations
// must not block; delivery is fire-and-forget from the core's perspective and
// reliability is the transport's concern.
type Sender interface {
	Send(text string) error
}
