package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/service"
)

// ActionItemHandler 封装行动项相关的 HTTP 处理逻辑
type ActionItemHandler struct {
	actionItemService *service.ActionItemService
}

// NewActionItemHandler 创建 ActionItemHandler 实例
func NewActionItemHandler(actionItemService *service.ActionItemService) *ActionItemHandler {
	return &ActionItemHandler{actionItemService: actionItemService}
}

// ListByMeeting 列出会议下的全部行动项
func (h *ActionItemHandler) ListByMeeting(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meetingID, ok := parseIDParam(c, "meetingId")
	if !ok {
		return
	}

	items, err := h.actionItemService.ListByMeeting(c.Request.Context(), userID, meetingID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meeting_id": meetingID, "action_items": items})
}

// ListByRoom 列出房间下全部会议的行动项
func (h *ActionItemHandler) ListByRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := parseIDParam(c, "roomId")
	if !ok {
		return
	}

	items, err := h.actionItemService.ListByRoom(c.Request.Context(), userID, roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "action_items": items})
}

// ToggleStatus 在 pending 与 completed 之间翻转行动项状态
func (h *ActionItemHandler) ToggleStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "item_id": itemID})

	item, err := h.actionItemService.ToggleStatus(c.Request.Context(), userID, itemID)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.ToggleStatus: Failed to toggle action item")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("status", item.Status).Info("Handler.ToggleStatus: Action item toggled")
	c.JSON(http.StatusOK, item)
}
