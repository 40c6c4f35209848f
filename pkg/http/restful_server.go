package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/glucose-watch-service/pkg/auth"
	"liyu1981.xyz/glucose-watch-service/pkg/cgm"
	"liyu1981.xyz/glucose-watch-service/pkg/monitor"
)

const DefaultKeepAlive = 25 * time.Second

type RestfulServer struct {
	Server  *gin.Engine
	Monitor *monitor.Monitor
	Signer  *auth.Signer

	// Poller is nil when no CGM provider is configured; the dexcom routes
	// then answer 503.
	Poller *cgm.Poller

	// RateLimiterStore guards register and login per client IP. nil disables it.
	RateLimiterStore *monitor.RateLimiterStore

	KeepAlive    time.Duration
	SecureCookie bool
}

func (rs *RestfulServer) CheckClientLimiter(key string) bool {
	if rs.RateLimiterStore == nil {
		return true
	}
	return rs.RateLimiterStore.Allow(key)
}

func (rs *RestfulServer) keepAlive() time.Duration {
	if rs.KeepAlive <= 0 {
		return DefaultKeepAlive
	}
	return rs.KeepAlive
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)

	api := rs.Server.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", rs.RateLimitByClientIP(), rs.Register)
		authGroup.POST("/login", rs.RateLimitByClientIP(), rs.Login)
		authGroup.GET("/me", rs.Authenticate(), rs.Me)
	}

	protected := api.Group("", rs.Authenticate())
	{
		protected.GET("/status", rs.GetStatus)
		protected.POST("/status/:statusId/acknowledge", rs.RequireParent(false), rs.AcknowledgeStatus)

		protected.GET("/glucose", rs.GetGlucose)
		protected.POST("/glucose", rs.PostGlucose)

		protected.GET("/athlete", rs.GetAthlete)

		protected.GET("/messages", rs.GetMessages)
		protected.POST("/messages", rs.PostMessage)
		protected.POST("/messages/:messageId/read", rs.MarkMessageRead)

		protected.GET("/notifications/stream", rs.RequireParent(true), rs.Stream)
	}

	dexcom := protected.Group("/dexcom", rs.RequireAdmin())
	{
		dexcom.GET("/auth", rs.DexcomAuth)
		dexcom.GET("/callback", rs.DexcomCallback)
		dexcom.POST("/sync", rs.DexcomSync)
	}
}
