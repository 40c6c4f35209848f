package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"liyu1981.xyz/glucose-watch-service/pkg/apperr"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
	"liyu1981.xyz/glucose-watch-service/pkg/monitor"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

const (
	maxHistoryLimit = 100
	// manual readings may run slightly ahead of the server clock
	maxManualClockSkew = 5 * time.Minute
)

func invalidRequest(c *gin.Context, issues any) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid input", "issues": issues})
}

// idParam parses a positive numeric path parameter. Anything else is treated
// as an unknown resource.
func idParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

type RegisterRequest struct {
	Name     string `json:"name" zog:"name"`
	Email    string `json:"email" zog:"email"`
	Password string `json:"password" zog:"password"`
}

var registerRequestSchema = z.Struct(z.Shape{
	"Name":     z.String(),
	"Email":    z.String().Email().Required(),
	"Password": z.String().Min(8).Required(),
})

func (rs *RestfulServer) Register(c *gin.Context) {
	var req RegisterRequest
	if errs := registerRequestSchema.Parse(zhttp.Request(c.Request), &req); errs != nil {
		invalidRequest(c, errs)
		return
	}

	user, err := rs.Monitor.User.Register(c.Request.Context(), models.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		rs.abortWithError(c, err)
		return
	}

	rs.respondWithToken(c, http.StatusCreated, user)
}

type LoginRequest struct {
	Email    string `json:"email" zog:"email"`
	Password string `json:"password" zog:"password"`
}

var loginRequestSchema = z.Struct(z.Shape{
	"Email":    z.String().Required(),
	"Password": z.String().Required(),
})

func (rs *RestfulServer) Login(c *gin.Context) {
	var req LoginRequest
	if errs := loginRequestSchema.Parse(zhttp.Request(c.Request), &req); errs != nil {
		invalidRequest(c, errs)
		return
	}

	user, err := rs.Monitor.User.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}

	rs.respondWithToken(c, http.StatusOK, user)
}

func (rs *RestfulServer) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := rs.Signer.Issue(user)
	if err != nil {
		rs.abortWithError(c, apperr.Internal(err))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookieName, token, int(rs.Signer.Expiry().Seconds()), "/", "", rs.SecureCookie, true)
	c.JSON(status, gin.H{"token": token, "user": user})
}

func (rs *RestfulServer) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (rs *RestfulServer) GetStatus(c *gin.Context) {
	current, err := rs.Monitor.Athlete.CurrentStatus(c.Request.Context())
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

func (rs *RestfulServer) AcknowledgeStatus(c *gin.Context) {
	statusID, ok := idParam(c, "statusId")
	if !ok {
		rs.abortWithError(c, apperr.NotFound("status not found"))
		return
	}

	status, err := rs.Monitor.Status.Acknowledge(c.Request.Context(), statusID, currentUser(c).ID)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (rs *RestfulServer) GetGlucose(c *gin.Context) {
	ctx := c.Request.Context()
	limit := common.ParseLimit(c.Query("limit"), monitor.DefaultReadingsLimit, monitor.MaxReadingsLimit)

	athlete, err := rs.Monitor.User.GetAthlete(ctx)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	if athlete == nil {
		c.JSON(http.StatusOK, []models.GlucoseReading{})
		return
	}

	readings, err := rs.Monitor.Reading.ListReadings(ctx, athlete.ID, limit, 0)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, readings)
}

type GlucoseRequest struct {
	Value      float64   `json:"value" zog:"value"`
	RecordedAt time.Time `json:"recordedAt" zog:"recordedAt"`
}

var glucoseRequestSchema = z.Struct(z.Shape{
	"Value": z.Float64().GT(0).Required(),
	// defaults to now when absent
	"RecordedAt": z.Time(),
})

// PostGlucose records a manual reading for the athlete. It goes through the
// same ingest pipeline as provider readings.
func (rs *RestfulServer) PostGlucose(c *gin.Context) {
	ctx := c.Request.Context()

	user := currentUser(c)
	if !user.IsAthlete && !user.IsAdmin {
		rs.abortWithError(c, apperr.Forbidden("only the athlete or an admin can record readings"))
		return
	}

	var req GlucoseRequest
	if errs := glucoseRequestSchema.Parse(zhttp.Request(c.Request), &req); errs != nil {
		invalidRequest(c, errs)
		return
	}
	if req.RecordedAt.IsZero() {
		req.RecordedAt = time.Now()
	}
	if req.RecordedAt.After(time.Now().Add(maxManualClockSkew)) {
		rs.abortWithError(c, apperr.Invalid("recordedAt cannot be in the future"))
		return
	}

	athlete, err := rs.Monitor.User.GetAthlete(ctx)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	if athlete == nil {
		rs.abortWithError(c, apperr.NotFound("no athlete designated"))
		return
	}

	res, err := rs.Monitor.Reading.IngestReading(ctx, athlete.ID, &models.GlucoseReading{
		RecordedAt: req.RecordedAt,
		Value:      req.Value,
		Source:     models.ReadingSourceManual,
	})
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	if res.Duplicate {
		c.JSON(http.StatusOK, gin.H{"duplicate": true})
		return
	}
	c.JSON(http.StatusCreated, res.Reading)
}

func (rs *RestfulServer) GetAthlete(c *gin.Context) {
	limit := common.ParseLimit(c.Query("limit"), monitor.DefaultHistoryLimit, maxHistoryLimit)

	view, err := rs.Monitor.Athlete.View(c.Request.Context(), currentUser(c).ID, limit)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (rs *RestfulServer) GetMessages(c *gin.Context) {
	limit := common.ParseLimit(c.Query("limit"), monitor.DefaultMessageLimit, monitor.MaxMessageLimit)

	messages, err := rs.Monitor.Message.List(c.Request.Context(), currentUser(c).ID, limit)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

type MessageRequest struct {
	ReceiverID int    `json:"receiverId" zog:"receiverId"`
	Content    string `json:"content" zog:"content"`
}

var messageRequestSchema = z.Struct(z.Shape{
	"ReceiverID": z.Int().GT(0).Required(),
	"Content":    z.String().Required(),
})

func (rs *RestfulServer) PostMessage(c *gin.Context) {
	var req MessageRequest
	if errs := messageRequestSchema.Parse(zhttp.Request(c.Request), &req); errs != nil {
		invalidRequest(c, errs)
		return
	}

	message, err := rs.Monitor.Message.Send(c.Request.Context(), currentUser(c).ID, uint(req.ReceiverID), req.Content)
	if err != nil {
		rs.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (rs *RestfulServer) MarkMessageRead(c *gin.Context) {
	messageID, ok := idParam(c, "messageId")
	if !ok {
		rs.abortWithError(c, apperr.NotFound("message not found"))
		return
	}

	if err := rs.Monitor.Message.MarkRead(c.Request.Context(), messageID, currentUser(c).ID); err != nil {
		rs.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
