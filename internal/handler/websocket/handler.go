package websocket

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/hub"
	"scrum-and-tell/internal/service"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册
type WebSocketHandler struct {
	upgrader       websocket.Upgrader
	hub            *hub.Hub
	meetingService *service.MeetingService
}

// NewWebSocketHandler 创建 WebSocketHandler 实例
func NewWebSocketHandler(h *hub.Hub, meetingService *service.MeetingService) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if meetingService == nil {
		panic("MeetingService cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 允许所有来源连接 (生产环境应配置具体的允许来源)
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &WebSocketHandler{
		upgrader:       upgrader,
		hub:            h,
		meetingService: meetingService,
	}
}

// HandleConnection 处理 WebSocket 连接请求
// URL 预期格式: /ws/meeting/{meetingId}
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	logCtx := logrus.WithFields(logrus.Fields{})

	// 1. 获取认证用户 ID (由 Auth 中间件设置)
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logCtx.Warn("WS Handler: User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logCtx.Error("WS Handler: User ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	logCtx = logCtx.WithField("user_id", userID)

	// 2. 获取并验证会议 ID (从 URL 参数)
	meetingIDStr := c.Param("meetingId")
	meetingIDUint64, err := strconv.ParseUint(meetingIDStr, 10, 32)
	if err != nil {
		logCtx.WithError(err).Warnf("WS Handler: Invalid meeting ID format: %s", meetingIDStr)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meeting ID format"})
		return
	}
	meetingID := uint(meetingIDUint64)
	logCtx = logCtx.WithField("meeting_id", meetingID)

	// 3. 验证会议存在、归属于调用者且未结束
	meeting, err := h.meetingService.FindMeetingByID(c.Request.Context(), userID, meetingID)
	if err != nil {
		if errors.Is(err, service.ErrMeetingNotFound) {
			logCtx.Warn("WS Handler: Meeting not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "Meeting not found"})
		} else if errors.Is(err, service.ErrUnauthorized) {
			logCtx.Warn("WS Handler: Caller does not own the meeting's room")
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this meeting"})
		} else {
			logCtx.WithError(err).Error("WS Handler: Error checking meeting existence")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate meeting"})
		}
		return
	}
	if meeting.Status.IsTerminal() {
		logCtx.Warn("WS Handler: Meeting already ended")
		c.JSON(http.StatusConflict, gin.H{"error": "Meeting already ended"})
		return
	}
	logCtx.Debug("WS Handler: Meeting validated")

	// 4. 升级 HTTP 连接到 WebSocket
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 方法会自动发送 HTTP 错误响应，所以这里只需要记录日志
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}
	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	// 5. 创建 Client 并注册到 Hub
	client := hub.NewClient(h.hub, conn, meetingID, userID)

	registerMsg := hub.HubMessage{
		Type:      "register",
		Client:    client,
		MeetingID: client.MeetingID(),
		UserID:    client.UserID(),
	}
	if !h.hub.QueueMessage(registerMsg) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		client.CloseConn()
		return
	}
	logCtx.Info("WS Handler: Client registration request queued to Hub")

	// 6. 启动客户端的读写 Goroutine
	go client.Run()

	logCtx.Info("WS Handler: Client read/write pumps started")
}
