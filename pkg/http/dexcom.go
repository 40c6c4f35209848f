package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/glucose-watch-service/pkg/apperr"
	"liyu1981.xyz/glucose-watch-service/pkg/cgm"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
)

func (rs *RestfulServer) DexcomAuth(c *gin.Context) {
	if rs.Poller == nil {
		rs.abortWithError(c, apperr.Unavailable("cgm provider not configured"))
		return
	}

	state, err := rs.Poller.States.Issue(c.Request.Context())
	if err != nil {
		rs.abortWithError(c, apperr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": rs.Poller.Provider.AuthCodeURL(state)})
}

func (rs *RestfulServer) DexcomCallback(c *gin.Context) {
	if rs.Poller == nil {
		rs.abortWithError(c, apperr.Unavailable("cgm provider not configured"))
		return
	}

	ok, err := rs.Poller.States.Consume(c.Request.Context(), c.Query("state"))
	if err != nil {
		rs.abortWithError(c, apperr.Internal(err))
		return
	}
	if !ok {
		rs.abortWithError(c, apperr.Invalid("invalid oauth state"))
		return
	}
	code := c.Query("code")
	if code == "" {
		rs.abortWithError(c, apperr.Invalid("missing authorization code"))
		return
	}

	if err := rs.Poller.Link(c.Request.Context(), code); err != nil {
		rs.abortWithError(c, cgmError(err))
		return
	}

	common.GetLoggerWith(
		common.LoggerNameRestfulServer,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryToken),
	).Info("Provider account linked", zap.Uint("byUserId", currentUser(c).ID))

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (rs *RestfulServer) DexcomSync(c *gin.Context) {
	if rs.Poller == nil {
		rs.abortWithError(c, apperr.Unavailable("cgm provider not configured"))
		return
	}

	result, err := rs.Poller.RunCycle(c.Request.Context())
	if err != nil {
		rs.abortWithError(c, cgmError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

func cgmError(err error) error {
	switch {
	case errors.Is(err, cgm.ErrCycleInFlight):
		return apperr.Wrap(err, apperr.KindBusy, "a sync is already running")
	case errors.Is(err, cgm.ErrNoAthlete):
		return apperr.Wrap(err, apperr.KindNotFound, "no athlete designated")
	case errors.Is(err, cgm.ErrNotLinked):
		return apperr.Wrap(err, apperr.KindInvalid, "athlete has not linked a provider account")
	case errors.Is(err, cgm.ErrTokenRefresh), errors.Is(err, cgm.ErrProviderStatus):
		return apperr.Wrap(err, apperr.KindUnavailable, "cgm provider unavailable")
	default:
		return apperr.Internal(err)
	}
}
