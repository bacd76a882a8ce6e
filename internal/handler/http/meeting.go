package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/service"
)

// MeetingHandler 封装了会议生命周期相关的 HTTP 处理逻辑
type MeetingHandler struct {
	meetingService *service.MeetingService
	turnService    *service.TurnService
}

// NewMeetingHandler 创建 MeetingHandler 实例
func NewMeetingHandler(meetingService *service.MeetingService, turnService *service.TurnService) *MeetingHandler {
	return &MeetingHandler{meetingService: meetingService, turnService: turnService}
}

// meetingResponse 是会议状态的统一响应结构。
type meetingResponse struct {
	MeetingID uint                 `json:"meeting_id"`
	RoomID    uint                 `json:"room_id"`
	Status    domain.MeetingStatus `json:"status"`
	SubState  domain.SubState      `json:"sub_state,omitempty"`
	StartedAt *time.Time           `json:"started_at,omitempty"`
	EndedAt   *time.Time           `json:"ended_at,omitempty"`
}

func toMeetingResponse(m *domain.Meeting) meetingResponse {
	return meetingResponse{
		MeetingID: m.ID,
		RoomID:    m.RoomID,
		Status:    m.Status,
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
	}
}

// Create 处理在房间内创建会议的请求（进入 lobby 状态）
func (h *MeetingHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := parseIDParam(c, "roomId")
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	meeting, err := h.meetingService.CreateMeeting(c.Request.Context(), userID, roomID)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.CreateMeeting: Failed to create meeting")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("meeting_id", meeting.ID).Info("Handler.CreateMeeting: Meeting created")
	c.JSON(http.StatusOK, toMeetingResponse(meeting))
}

// Start 处理开始/恢复会议的请求（lobby 或 paused → active）
func (h *MeetingHandler) Start(c *gin.Context) {
	h.transition(c, "Start", h.meetingService.StartMeeting)
}

// Pause 处理暂停会议的请求（active → paused）
func (h *MeetingHandler) Pause(c *gin.Context) {
	h.transition(c, "Pause", h.meetingService.PauseMeeting)
}

// End 处理结束会议的请求（任意非终态 → ended，幂等）
func (h *MeetingHandler) End(c *gin.Context) {
	h.transition(c, "End", h.meetingService.EndMeeting)
}

// transition 是三个生命周期转换共用的处理骨架。
func (h *MeetingHandler) transition(c *gin.Context, op string, fn func(ctx context.Context, userID, meetingID uint) (*domain.Meeting, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meetingID, ok := parseIDParam(c, "meetingId")
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "meeting_id": meetingID, "op": op})

	meeting, err := fn(c.Request.Context(), userID, meetingID)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.Meeting: Transition rejected")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("status", meeting.Status).Info("Handler.Meeting: Transition applied")
	c.JSON(http.StatusOK, toMeetingResponse(meeting))
}

// Get 返回会议当前的持久化状态
func (h *MeetingHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meetingID, ok := parseIDParam(c, "meetingId")
	if !ok {
		return
	}

	meeting, subState, err := h.meetingService.GetMeetingState(c.Request.Context(), userID, meetingID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	resp := toMeetingResponse(meeting)
	resp.SubState = subState
	c.JSON(http.StatusOK, resp)
}

// SetSubStateRequest 定义设置临时子状态的请求结构体
type SetSubStateRequest struct {
	State string `json:"state" binding:"required,oneof=listening processing speaking none"`
}

// SetSubState 设置会议的临时子状态（仅 active 状态下生效）
func (h *MeetingHandler) SetSubState(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meetingID, ok := parseIDParam(c, "meetingId")
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "meeting_id": meetingID})

	var req SetSubStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.SetSubState: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	if err := h.meetingService.SetSubState(c.Request.Context(), userID, meetingID, domain.SubState(req.State)); err != nil {
		logCtx.WithError(err).Warn("Handler.SetSubState: Failed to set sub-state")
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sub-state updated", "state": req.State})
}

// GetTranscript 返回会议的全部发言与逐发言抽取结果
func (h *MeetingHandler) GetTranscript(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meetingID, ok := parseIDParam(c, "meetingId")
	if !ok {
		return
	}

	turns, updates, err := h.turnService.GetTranscript(c.Request.Context(), userID, meetingID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meeting_id": meetingID,
		"turns":      turns,
		"updates":    updates,
	})
}
