package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/service"
)

// SummaryHandler 封装会议总结相关的 HTTP 处理逻辑。
// 结束会议时总结会经后台任务自动生成，这里的 Generate 是手动重新生成入口。
type SummaryHandler struct {
	summaryService *service.SummaryService
}

// NewSummaryHandler 创建 SummaryHandler 实例
func NewSummaryHandler(summaryService *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// Generate 同步生成（或重新生成）会议总结
func (h *SummaryHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meetingID, ok := parseIDParam(c, "meetingId")
	if !ok {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "meeting_id": meetingID})

	summary, err := h.summaryService.GenerateSummary(c.Request.Context(), userID, meetingID)
	if err != nil {
		logCtx.WithError(err).Warn("Handler.GenerateSummary: Failed to generate summary")
		HandleServiceError(c, err)
		return
	}

	logCtx.Info("Handler.GenerateSummary: Summary generated")
	c.JSON(http.StatusOK, summary)
}

// Get 返回已生成的会议总结
func (h *SummaryHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	meetingID, ok := parseIDParam(c, "meetingId")
	if !ok {
		return
	}

	summary, err := h.summaryService.GetSummary(c.Request.Context(), userID, meetingID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
