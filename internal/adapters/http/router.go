package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ProJect3K/DriveChat-kmitl/internal/adapters/ws"
	"github.com/ProJect3K/DriveChat-kmitl/internal/config"
	"github.com/ProJect3K/DriveChat-kmitl/internal/core"
)

// ClientTokenMiddleware gives every browser a stable identity across
// reconnects, carried in the cookie session.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get("ct").(string)
		if token == "" {
			token = uuid.NewString()
			session.Set("ct", token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save failed")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, coord *core.Coordinator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("DriveChatSessions", store))
	r.Use(ClientTokenMiddleware())

	h := &Handlers{Coord: coord}
	r.POST("/rooms", h.CreateRoom)
	r.GET("/rooms/random", h.RandomRoom)
	r.GET("/rooms/debug", h.DebugRooms)

	ctl := ws.NewController(coord, cfg)
	r.GET("/ws/:room/:username", func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
