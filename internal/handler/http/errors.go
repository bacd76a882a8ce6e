package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/service"
)

// HandleServiceError 把业务层错误映射为 HTTP 状态码。
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrRegistrationFailed), errors.Is(err, service.ErrInvalidInput):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidInviteCode),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrMeetingNotFound),
		errors.Is(err, service.ErrActionItemNotFound),
		errors.Is(err, service.ErrSummaryNotFound),
		errors.Is(err, service.ErrUserNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrMeetingConflict),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrMeetingNotActive),
		errors.Is(err, service.ErrMeetingBusy):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrExtractionFailed):
		// 模型调用失败是可见的降级状态而不是服务器故障
		ErrorResponse(c, http.StatusBadGateway, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// currentUserID 从 Gin 上下文取出 Auth 中间件写入的用户 ID。
// 返回 false 时已经写好了错误响应。
func currentUserID(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("Handler: User ID not found in context, middleware missing or failed?")
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("Handler: User ID in context is not uint")
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error processing user ID")
		return 0, false
	}
	return userID, true
}
