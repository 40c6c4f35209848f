package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/glucose-watch-service/pkg/apperr"
	"liyu1981.xyz/glucose-watch-service/pkg/common"
	"liyu1981.xyz/glucose-watch-service/pkg/events"
)

var connectedFrame = []byte(`{"type":"connected"}`)

func writeDataFrame(w io.Writer, data []byte) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// Stream holds one bus subscription open for as long as the client stays
// connected, writing every update as a server-sent event. It returns when
// the client goes away, the subscriber is dropped for falling behind, or
// the server base context is cancelled at shutdown.
func (rs *RestfulServer) Stream(c *gin.Context) {
	logger := common.GetLoggerWith(
		common.LoggerNameRestfulServer,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryStream),
	)

	sub, err := rs.Monitor.Bus.Subscribe(events.TopicDexcomDataUpdated)
	if err != nil {
		if errors.Is(err, events.ErrTooManySubscribers) {
			rs.abortWithError(c, apperr.Unavailable("too many open streams"))
			return
		}
		rs.abortWithError(c, apperr.Internal(err))
		return
	}
	defer sub.Unsubscribe()

	userID := currentUser(c).ID
	logger.Info("Stream opened", zap.Uint("userId", userID), zap.String("subscription", sub.ID))
	defer logger.Info("Stream closed", zap.Uint("userId", userID), zap.String("subscription", sub.ID))

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if err := writeDataFrame(c.Writer, connectedFrame); err != nil {
		return
	}
	c.Writer.Flush()

	ticker := time.NewTicker(rs.keepAlive())
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false

		case ev, ok := <-sub.C():
			if !ok {
				logger.Warn("Stream subscriber dropped", zap.Uint("userId", userID), zap.Bool("overflow", sub.Dropped()))
				return false
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				logger.Error("Failed to encode event", zap.String("topic", ev.Topic), zap.Error(err))
				return true
			}
			return writeDataFrame(w, data) == nil

		case <-ticker.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		}
	})
}
