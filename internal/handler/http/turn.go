package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/service"
)

// TurnHandler 暴露发言处理的 HTTP 入口。
// 常规路径是 WebSocket 上报，这个入口供无长连接的客户端和脚本使用，
// 语义与 WebSocket 路径完全一致。
type TurnHandler struct {
	turnService *service.TurnService
}

// NewTurnHandler 创建 TurnHandler 实例
func NewTurnHandler(turnService *service.TurnService) *TurnHandler {
	return &TurnHandler{turnService: turnService}
}

// SubmitTurnRequest 定义提交发言的请求结构体
type SubmitTurnRequest struct {
	SpeakerID   string    `json:"speaker_id" binding:"required,max=100"`
	SpeakerName string    `json:"speaker_name" binding:"required,max=100"`
	Text        string    `json:"text" binding:"required"`
	StartedAt   time.Time `json:"started_at" binding:"omitempty"`
	EndedAt     time.Time `json:"ended_at" binding:"omitempty"`
}

// Submit 处理一条完整发言
func (h *TurnHandler) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meetingID, ok := parseIDParam(c, "meetingId")
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "meeting_id": meetingID})

	var req SubmitTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.SubmitTurn: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	result, err := h.turnService.ProcessTurn(c.Request.Context(), userID, meetingID, service.TurnInput{
		SpeakerID:   req.SpeakerID,
		SpeakerName: req.SpeakerName,
		Text:        req.Text,
		StartedAt:   req.StartedAt,
		EndedAt:     req.EndedAt,
	})
	if err != nil {
		logCtx.WithError(err).Warn("Handler.SubmitTurn: Turn processing failed")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("turn_id", result.Turn.ID).Info("Handler.SubmitTurn: Turn processed")
	c.JSON(http.StatusOK, gin.H{
		"turn_id":        result.Turn.ID,
		"summary":        result.Update.Summary,
		"risks":          result.Update.Risks,
		"gaps":           result.Update.Gaps,
		"action_items":   result.ActionItems,
		"agent_response": result.AgentResponse,
	})
}
