// Package llm 封装对托管大模型 API 的结构化抽取与总结调用。
// 模型被当作黑盒函数：输入固定字段，输出必须是符合约定 schema 的 JSON，
// 解析失败或缺少必填字段一律视为本次调用失败，不做部分恢复。
package llm

import "context"

// ProposedAction 是抽取结果中的一条建议行动。
type ProposedAction struct {
	Task  string `json:"task"`
	Owner string `json:"owner"` // 可能为空，调用方负责默认值
}

// ExtractionInput 是结构化抽取调用的输入。
type ExtractionInput struct {
	UtteranceText string // 发言原文
	SpeakerName   string // 发言者展示名
	RoomContext   string // 房间背景摘要
	RoomGoal      string // 房间会议目标
}

// ExtractionResult 是结构化抽取调用的输出 schema。
type ExtractionResult struct {
	Summary         string           `json:"summary"`
	Risks           []string         `json:"risks"`
	Gaps            []string         `json:"gaps"`
	ProposedActions []ProposedAction `json:"proposed_actions"`
	AgentResponse   string           `json:"agent_response"` // 主持人口头回应，交给语音客户端播报
}

// TurnLine 是总结输入中的一条带发言者标注的发言。
type TurnLine struct {
	SpeakerName string `json:"speaker_name"`
	Text        string `json:"text"`
}

// SpeakerDigest 是总结输入中的一条发言抽取摘要。
type SpeakerDigest struct {
	SpeakerName string   `json:"speaker_name"`
	Summary     string   `json:"summary"`
	Risks       []string `json:"risks"`
	Gaps        []string `json:"gaps"`
	ActionTasks []string `json:"action_tasks"`
}

// ActionDigest 是总结输入中的一条行动项。
type ActionDigest struct {
	Task   string `json:"task"`
	Owner  string `json:"owner"`
	Status string `json:"status"`
}

// SummaryInput 是会议总结调用的输入。
type SummaryInput struct {
	Turns       []TurnLine      `json:"turns"`
	Updates     []SpeakerDigest `json:"speaker_updates"`
	ActionItems []ActionDigest  `json:"action_items"`
	RoomGoal    string          `json:"room_goal"`
	RoomContext string          `json:"room_context"`
}

// SummaryResult 是会议总结调用的输出 schema。
type SummaryResult struct {
	Overview  string   `json:"overview"`
	Decisions []string `json:"decisions"`
	Risks     []string `json:"risks"`
	NextSteps []string `json:"next_steps"`
}

// Client 定义核心流程依赖的两个模型调用。
// Service 层只依赖该接口，测试时用假实现替换。
type Client interface {
	// Extract 将一条发言 + 房间上下文转换为结构化抽取结果。
	Extract(ctx context.Context, input ExtractionInput) (*ExtractionResult, error)

	// Summarize 将会议累计数据转换为最终汇总。
	Summarize(ctx context.Context, input SummaryInput) (*SummaryResult, error)
}
