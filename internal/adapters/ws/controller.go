package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ProJect3K/DriveChat-kmitl/internal/config"
	"github.com/ProJect3K/DriveChat-kmitl/internal/core"
	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

// Controller upgrades /ws/:room/:username requests and runs one session
// loop per connection, pushing every inbound line through the coordinator.
type Controller struct {
	coord    *core.Coordinator
	cfg      *config.Config
	upgrader websocket.Upgrader
}

func NewController(coord *core.Coordinator, cfg *config.Config) *Controller {
	return &Controller{
		coord: coord,
		cfg:   cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	room := domain.RoomName(c.Param("room"))
	username := strings.TrimSpace(c.Param("username"))
	sid := c.GetString("client_token")

	if err := domain.ValidateUsername(username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sock, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "adapters.ws").Str("sid", sid).Str("room", string(room)).Str("user", username).Msg("new WS connection")

	conn := NewConnection(sock)
	if err := ctl.coord.Connect(conn, room, username); err != nil {
		// Rejected before the pumps start; write the reason directly.
		_ = sock.WriteMessage(websocket.TextMessage, []byte("System: "+err.Error()))
		_ = sock.Close()
		log.Info().Err(err).Str("module", "adapters.ws").Str("room", string(room)).Str("user", username).Msg("join rejected")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go conn.writePump(ctx, ctl.cfg.PingPeriod, ctl.cfg.WriteTimeout)

	ctl.readLoop(ctx, conn, sock, username, sid)
}

// readLoop blocks on the socket until it drops. Its exit is the single
// place the disconnect cleanup runs.
func (ctl *Controller) readLoop(ctx context.Context, conn *Connection, sock Socket, username, sid string) {
	defer func() {
		ctl.coord.Disconnect(conn)
		conn.Close()
		log.Info().Str("module", "adapters.ws").Str("sid", sid).Str("user", username).Msg("session closed")
	}()

	sock.SetReadLimit(ctl.cfg.ReadLimit)
	pongWait := ctl.cfg.PingPeriod * 10 / 9
	_ = sock.SetReadDeadline(time.Now().Add(pongWait))
	sock.SetPongHandler(func(string) error {
		return sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := sock.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "adapters.ws").Str("user", username).Msg("read ended")
				return
			}
			ctl.coord.HandleMessage(conn, username, string(data))
		}
	}
}
