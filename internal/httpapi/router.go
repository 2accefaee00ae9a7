package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/bomberman-gg/hub/internal/hub"
)

// NewRouter assembles the gin engine for a hub, including the CORS
// middleware every room worker and the matchmaking frontend rely on.
func NewRouter(coordinator *hub.Coordinator) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	h := NewHandler(coordinator)

	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.POST("/matchmaking", h.Matchmaking)

	room := router.Group("/room")
	{
		room.POST("/:id/start", h.RoomStart)
		room.POST("/:id/close", h.RoomClose)
	}

	router.GET("/debug/", h.Debug)
	router.GET("/debug/ws", h.DebugWS)

	return router
}
