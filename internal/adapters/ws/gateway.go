// Package ws is the WebSocket gateway: it logs clients in, owns the
// read/write pumps for each connection, and routes inbound frames to the
// chat core. Frames are JSON envelopes split by destination, session or
// channel:
//
//	{"type":"session","data":"/join lobby"}   command for the session
//	{"type":"channel","data":"hello"}         chat for the current room
//	{"type":"ping"}                           answered with "pong"
//
// Responses and broadcasts go out as plain text frames.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vmac/httpchat/internal/chat"
	"github.com/vmac/httpchat/internal/config"
	"github.com/vmac/httpchat/internal/domain"
)

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
)

type Gateway struct {
	dir      *chat.Directory
	cfg      *config.Config
	reg      *registry
	upgrader websocket.Upgrader
}

func NewGateway(dir *chat.Directory, cfg *config.Config) *Gateway {
	return &Gateway{
		dir: dir,
		cfg: cfg,
		reg: newRegistry(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS logs a client in and hands the connection to the pumps.
// Identity resolution order: ?name= query, cookie session from an earlier
// visit, generated guest name. A name already held by an active connection
// is rejected before the upgrade.
func (g *Gateway) HandleWS(ctx context.Context, c *gin.Context) {
	store := sessions.Default(c)

	identity := strings.TrimSpace(c.Query("name"))
	if identity == "" {
		if v, ok := store.Get("identity").(string); ok {
			identity = v
		}
	}
	if identity == "" {
		identity = "guest-" + uuid.NewString()[:8]
	}

	user, err := domain.NewUser(identity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !g.reg.Claim(user.Identity) {
		log.Warn().Str("module", "adapters.ws").Str("identity", user.Identity).Msg("name already in use")
		c.JSON(http.StatusConflict, gin.H{"error": "name already in use"})
		return
	}

	store.Set("identity", user.Identity)
	if err := store.Save(); err != nil {
		log.Warn().Str("module", "adapters.ws").Err(err).Msg("session cookie save")
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.reg.Release(user.Identity)
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}
	conn.SetReadLimit(g.cfg.ReadLimit)

	wc := newWSConn(conn, sendBuffer)
	sess, err := chat.NewSession(user, g.dir, wc)
	if err != nil {
		g.reg.Release(user.Identity)
		wc.Close()
		log.Error().Err(err).Str("module", "adapters.ws").Msg("session setup")
		return
	}
	log.Info().Str("module", "adapters.ws").Str("identity", user.Identity).Int("active", g.reg.ActiveCount()).Msg("user logged in")

	connCtx, cancel := context.WithCancel(ctx)
	go g.writePump(connCtx, wc)
	go g.readPump(connCtx, cancel, sess, wc)
}

func (g *Gateway) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(g.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) readPump(ctx context.Context, cancel context.CancelFunc, sess *chat.Session, c *wsConn) {
	graceful := false
	defer func() {
		sess.OnDisconnect(graceful)
		g.reg.Release(sess.Identity())
		cancel()
		c.Close()
		log.Info().Str("module", "adapters.ws").Str("identity", sess.Identity()).Msg("readPump closing")
	}()

	for {
		select {
		case <-ctx.Done():
			// Server shutdown, not a client fault.
			graceful = true
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				graceful = websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
				if !graceful {
					log.Warn().Err(err).Str("module", "adapters.ws").Str("identity", sess.Identity()).Msg("readPump read error")
				}
				return
			}
			g.dispatch(sess, c, data)
		}
	}
}

func (g *Gateway) dispatch(sess *chat.Session, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Str("identity", sess.Identity()).Msg("bad frame")
		return
	}

	switch env.Type {
	case "session":
		sess.OnMessage([]byte(env.Data))
	case "channel":
		sess.OnChannelMessage([]byte(env.Data))
	case "ping":
		_ = c.TrySend([]byte("pong"))
	default:
		log.Warn().Str("module", "adapters.ws").Str("type", env.Type).Msg("unknown frame type")
	}
}
