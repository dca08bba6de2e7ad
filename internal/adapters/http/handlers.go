package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ProJect3K/DriveChat-kmitl/internal/core"
	"github.com/ProJect3K/DriveChat-kmitl/internal/domain"
)

type Handlers struct {
	Coord *core.Coordinator
}

type createRoomRequest struct {
	RoomName      string `json:"room_name" binding:"required"`
	Capacity      int    `json:"capacity"`
	CreatorType   string `json:"creator_type"`
	TransportType string `json:"transport_type"`
}

// CreateRoom registers a room for a driver. Every rejection is a 400 with
// a human-readable reason and no side effects.
func (h *Handlers) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payload"})
		return
	}
	room, err := h.Coord.CreateRoom(
		domain.RoomName(req.RoomName),
		req.Capacity,
		domain.Transport(req.TransportType),
		domain.Role(req.CreatorType),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": room.Name, "capacity": room.Capacity})
}

// RandomRoom matches a passenger with a joinable room of the requested
// transport type.
func (h *Handlers) RandomRoom(c *gin.Context) {
	summary := h.Coord.RandomRoom(
		domain.Transport(c.Query("transport_type")),
		domain.Role(c.Query("user_type")),
	)
	if summary == nil {
		c.JSON(http.StatusOK, gin.H{"room": nil})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DebugRooms dumps every live room with occupancy and countdown.
func (h *Handlers) DebugRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.Coord.DebugSnapshot())
}
