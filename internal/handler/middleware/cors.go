package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tradeboard/pointhub/internal/config"
)

// CORS answers pre-flight requests with an empty 200.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:              cfg.AllowedMethods,
		AllowHeaders:              cfg.AllowedHeaders,
		AllowCredentials:          cfg.AllowCredentials,
		MaxAge:                    time.Duration(cfg.MaxAge.Seconds()) * time.Second,
		OptionsResponseStatusCode: http.StatusOK,
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			break
		}
	}
	if !c.AllowAllOrigins {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(c)
}
