package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	routerx "github.com/tanpawarit/servicedesk/agent/agents/router"
)

type Config struct {
	Addr  string `envconfig:"ADDR" split_words:"true" default:":8080"`
	Debug bool   `envconfig:"DEBUG" split_words:"true" default:"false"`
}

// ChatService is the routing surface the HTTP layer depends on.
type ChatService interface {
	Route(ctx context.Context, sessionID string, text string) (routerx.Reply, error)
}

// New builds the gin engine with all routes registered.
func New(cfg Config, svc ChatService) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/chat", chatHandler(svc))

	return r
}

// requestLogger tags every request with an id and logs its outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		log.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}
