package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/glucose-watch-service/pkg/apperr"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

const (
	contextKeyUser  = "user"
	tokenCookieName = "token"
)

// credential reads the bearer token from the Authorization header, falling
// back to the token cookie set at login.
func credential(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(tokenCookieName); err == nil {
		return cookie
	}
	return ""
}

func (rs *RestfulServer) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := credential(c)
		if raw == "" {
			rs.abortWithError(c, apperr.Unauthorized("authentication required"))
			return
		}

		claims, err := rs.Signer.Verify(raw)
		if err != nil {
			rs.abortWithError(c, apperr.Unauthorized("invalid or expired token"))
			return
		}

		user, err := rs.Monitor.User.GetUser(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				rs.abortWithError(c, apperr.Unauthorized("invalid or expired token"))
				return
			}
			rs.abortWithError(c, err)
			return
		}

		c.Set(contextKeyUser, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(contextKeyUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// RequireParent lets only PARENT accounts through. The stream endpoint
// answers 401 for anyone else, other routes 403.
func (rs *RestfulServer) RequireParent(asUnauthorized bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || user.Role != models.RoleParent {
			if asUnauthorized {
				rs.abortWithError(c, apperr.Unauthorized("parent credential required"))
			} else {
				rs.abortWithError(c, apperr.Forbidden("parent access required"))
			}
			return
		}
		c.Next()
	}
}

func (rs *RestfulServer) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsAdmin {
			rs.abortWithError(c, apperr.Forbidden("admin access required"))
			return
		}
		c.Next()
	}
}

func (rs *RestfulServer) RateLimitByClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rs.CheckClientLimiter(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// abortWithError answers with the status mapped from the error kind. Internal
// causes are logged and never sent to the caller.
func (rs *RestfulServer) abortWithError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger := common.GetLoggerWith(common.LoggerNameRestfulServer)
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.PublicMessage(err)})
}
