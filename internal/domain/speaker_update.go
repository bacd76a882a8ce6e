package domain

import "time"

// SpeakerUpdate 表示对一条 Turn 的结构化抽取结果。
// 每条被成功处理的 Turn 最多产生一条 SpeakerUpdate；整个会议期间只追加不修改。
type SpeakerUpdate struct {
	ID          uint       `gorm:"primaryKey"`         // 抽取结果的唯一标识符 (主键)
	MeetingID   uint       `gorm:"index;not null"`     // 所属会议 ID (外键关联 Meeting.ID, 添加索引)
	SpeakerID   string     `gorm:"size:191;not null"`  // 发言者标识，与对应 Turn 一致
	SpeakerName string     `gorm:"size:191;not null"`  // 发言者展示名
	Summary     string     `gorm:"type:text;not null"` // 该发言的一段式摘要
	Risks       StringList `gorm:"type:text"`          // 抽取出的风险列表
	Gaps        StringList `gorm:"type:text"`          // 抽取出的缺口/未明确事项列表
	ActionTasks StringList `gorm:"type:text"`          // 抽取出的建议行动的任务描述（仅文本，归属人记录在 ActionItem）
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
}
