package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/service"
)

// RoomHandler 封装了与房间管理相关的 HTTP 处理逻辑
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 创建 RoomHandler 实例
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// CreateRoomRequest 定义创建房间请求的结构体。
// goal 和 context 是发言抽取与总结的背景输入，创建时可以为空，之后可更新。
type CreateRoomRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=100"`
	Goal    string `json:"goal" binding:"omitempty,max=2000"`
	Context string `json:"context" binding:"omitempty,max=4000"`
}

// CreateRoomResponse 定义创建房间成功的响应结构体
type CreateRoomResponse struct {
	Message    string `json:"message"`
	RoomID     uint   `json:"room_id"`
	InviteCode string `json:"invite_code"`
}

// CreateRoom 处理创建新房间的请求
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.CreateRoom: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	newRoom, err := h.roomService.CreateRoom(c.Request.Context(), userID, req.Name, req.Goal, req.Context)
	if err != nil {
		logCtx.WithError(err).Error("Handler.CreateRoom: Failed to create room via service")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithFields(logrus.Fields{"room_id": newRoom.ID, "invite_code": newRoom.InviteCode}).Info("Handler.CreateRoom: Room created successfully")
	c.JSON(http.StatusOK, CreateRoomResponse{
		Message:    "Room created successfully",
		RoomID:     newRoom.ID,
		InviteCode: newRoom.InviteCode,
	})
}

// JoinRoomRequest 定义加入房间请求的结构体
type JoinRoomRequest struct {
	InviteCode string `json:"invite_code" binding:"required,len=6"`
}

// JoinRoomResponse 定义加入房间成功的响应结构体
type JoinRoomResponse struct {
	Message string `json:"message"`
	RoomID  uint   `json:"room_id"`
	Name    string `json:"name"`
}

// JoinRoom 处理用户加入房间的请求
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.JoinRoom: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: invite_code is required"})
		return
	}
	logCtx = logCtx.WithField("invite_code", req.InviteCode)

	joinedRoom, err := h.roomService.JoinRoom(c.Request.Context(), userID, req.InviteCode)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.JoinRoom: Failed to join room via service")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("room_id", joinedRoom.ID).Info("Handler.JoinRoom: User joined room successfully")
	c.JSON(http.StatusOK, JoinRoomResponse{
		Message: "Joined room successfully",
		RoomID:  joinedRoom.ID,
		Name:    joinedRoom.Name,
	})
}

// UpdateBriefRequest 定义更新房间目标与背景的请求结构体
type UpdateBriefRequest struct {
	Goal    string `json:"goal" binding:"omitempty,max=2000"`
	Context string `json:"context" binding:"omitempty,max=4000"`
}

// UpdateBrief 处理更新房间目标与背景的请求（仅房主）
func (h *RoomHandler) UpdateBrief(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := parseIDParam(c, "roomId")
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	var req UpdateBriefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.UpdateBrief: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	room, err := h.roomService.UpdateRoomBrief(c.Request.Context(), userID, roomID, req.Goal, req.Context)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.UpdateBrief: Failed to update room brief")
		HandleServiceError(c, err)
		return
	}

	logCtx.Info("Handler.UpdateBrief: Room brief updated")
	c.JSON(http.StatusOK, gin.H{
		"message": "Room brief updated",
		"room_id": room.ID,
		"goal":    room.Goal,
		"context": room.Context,
	})
}

// parseIDParam 解析 URL 中的数字 ID 参数。
// 返回 false 时已经写好了错误响应。
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		logrus.WithError(err).Warnf("Handler: Invalid %s format: %s", name, raw)
		ErrorResponse(c, http.StatusBadRequest, "Invalid "+name+" format")
		return 0, false
	}
	return uint(id), true
}
