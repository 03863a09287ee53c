package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/huddlemap/huddle/internal/adapters/signal"
	"github.com/huddlemap/huddle/internal/app"
	"github.com/huddlemap/huddle/internal/config"
	"github.com/huddlemap/huddle/internal/domain"
)

// ClientTokenMiddleware tags each browser with a stable token, used to
// correlate REST calls with ws sessions in the logs.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, hub *app.Hub, ctl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/", handleStatus)

	api := r.Group("/api")
	api.GET("/status", handleStatus)

	api.POST("/create-room", func(c *gin.Context) {
		room := hub.Rooms.CreateRoom()
		c.JSON(http.StatusOK, gin.H{"roomCode": room.Room().Code})
	})

	api.GET("/room/:code", func(c *gin.Context) {
		code := domain.NormalizeCode(c.Param("code"))
		exists, count := hub.Rooms.Info(code)
		if !exists {
			c.JSON(http.StatusOK, gin.H{"exists": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"exists": true, "userCount": count})
	})

	api.GET("/ws", ctl.HandleWS)

	return r
}

func handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
