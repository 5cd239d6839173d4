// Package http wires the gin router: the static browser client, the
// WebSocket login endpoint, and a small read-only REST surface over the
// room directory.
package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vmac/httpchat/internal/adapters/ws"
	"github.com/vmac/httpchat/internal/chat"
	"github.com/vmac/httpchat/internal/config"
	"github.com/vmac/httpchat/internal/domain"
)

func SetupRouter(ctx context.Context, cfg *config.Config, dir *chat.Directory) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ChatSessions", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	gw := ws.NewGateway(dir, cfg)
	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		gw.HandleWS(ctx, c)
	})

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, dir.List())
	})

	// Lookup without auto-create: unknown names are a 404, unlike /join.
	api.GET("/rooms/:name", func(c *gin.Context) {
		room, err := dir.Lookup(domain.RoomName(c.Param("name")))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, chat.RoomInfo{Name: room.Name(), MemberCount: room.MemberCount()})
	})

	return r
}
