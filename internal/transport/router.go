package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/wordpot/internal/config"
	"github.com/dkeye/wordpot/internal/game"
	"github.com/dkeye/wordpot/internal/server"
)

func SetupRouter(cfg *config.Config, srv *server.Server, reg *game.Registry) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/api/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": reg.JoinableRooms()})
	})

	r.GET("/ws", func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Error().Str("module", "transport").Err(err).Msg("ws upgrade failed")
			return
		}
		ws.SetReadLimit(int64(cfg.ReadLimit))
		log.Debug().Str("module", "transport").Str("remote", ws.RemoteAddr().String()).Msg("ws connection accepted")
		go srv.HandleConn(newWSConn(ws, pingPeriod, pongWait))
	})

	return r
}
