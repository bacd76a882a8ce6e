package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/service"
	"scrum-and-tell/internal/tasks"
)

// SummaryGenerationHandler 处理会后总结生成任务。
type SummaryGenerationHandler struct {
	summaryService *service.SummaryService
}

// NewSummaryGenerationHandler 创建 Handler 实例
func NewSummaryGenerationHandler(summaryService *service.SummaryService) *SummaryGenerationHandler {
	if summaryService == nil {
		panic("summaryService must be non-nil for SummaryGenerationHandler")
	}
	return &SummaryGenerationHandler{summaryService: summaryService}
}

// ProcessTask 实现 asynq.Handler 接口。
// 任务由 EndMeeting 入队，鉴权发生在入队一侧，这里以系统身份执行。
func (h *SummaryGenerationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})
	logCtx.Info("Processing summary generation task...")

	var payload tasks.SummaryGenerationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	summary, err := h.summaryService.GenerateSummaryAsSystem(ctx, payload.MeetingID)
	if err != nil {
		// 并发在途直接重试，会议消失则放弃
		if err == service.ErrMeetingNotFound {
			logCtx.WithField("meeting_id", payload.MeetingID).Warn("Meeting no longer exists, skipping summary generation")
			return fmt.Errorf("meeting %d not found: %w", payload.MeetingID, asynq.SkipRetry)
		}
		logCtx.WithError(err).Errorf("Failed to generate summary for meeting %d", payload.MeetingID)
		return fmt.Errorf("failed to generate summary for meeting %d: %w", payload.MeetingID, err)
	}

	logCtx.WithFields(logrus.Fields{
		"meeting_id": payload.MeetingID,
		"summary_id": summary.ID,
	}).Info("Summary generation task processed successfully")
	return nil
}
