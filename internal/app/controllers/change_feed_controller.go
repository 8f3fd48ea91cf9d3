package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/models/dto"
	"github.com/yigit/enrollhub/internal/middleware"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
	"github.com/yigit/enrollhub/internal/pkg/websocket"
)

// ChangeFeedController streams committed changes over WebSocket
type ChangeFeedController struct {
	feed *websocket.Handler
}

// NewChangeFeedController creates a new ChangeFeedController
func NewChangeFeedController(feed *websocket.Handler) *ChangeFeedController {
	return &ChangeFeedController{feed: feed}
}

// optionalIDQuery reads a positive id from the query string. An absent
// parameter yields 0.
func optionalIDQuery(ctx *gin.Context, name, label string) (int64, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError(label+" must be a positive number"))
		return 0, false
	}
	return id, true
}

// StreamChanges upgrades to a WebSocket that receives a JSON ChangeEvent
// per committed write
// @Summary Subscribe to changes
// @Description Streams student, course and enrollment changes. studentId and courseId narrow the stream.
// @Tags changes
// @Param studentId query int false "Only changes touching this student"
// @Param courseId query int false "Only changes touching this course"
// @Success 101 {string} string "Switching Protocols"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /changes [get]
func (c *ChangeFeedController) StreamChanges(ctx *gin.Context) {
	studentID, ok := optionalIDQuery(ctx, "studentId", "Student ID")
	if !ok {
		return
	}
	courseID, ok := optionalIDQuery(ctx, "courseId", "Course ID")
	if !ok {
		return
	}

	err := c.feed.Serve(ctx.Writer, ctx.Request, websocket.Filter{StudentID: studentID, CourseID: courseID})
	switch {
	case errors.Is(err, websocket.ErrHubClosed):
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeStoreUnavailable, "Change feed is not running"),
		))
	case err != nil:
		zerolog.Ctx(ctx.Request.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
	}
}
