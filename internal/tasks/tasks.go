package tasks

import "encoding/json"

// 定义任务类型常量
const (
	// TypeSummaryGeneration 会议汇总生成任务类型
	TypeSummaryGeneration = "summary:generate"
)

// SummaryGenerationPayload 定义了会议汇总生成任务的数据结构
type SummaryGenerationPayload struct {
	MeetingID uint `json:"meeting_id"`
}

// NewSummaryGenerationTask 创建会议汇总生成任务的 payload。
// 返回序列化后的字节，由调用方包装成 asynq.Task。
func NewSummaryGenerationTask(meetingID uint) ([]byte, error) {
	payload := SummaryGenerationPayload{MeetingID: meetingID}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return payloadBytes, nil
}
