package domain

import "time"

// MeetingSummary 表示会议结束后生成的唯一汇总记录。
// 不变式：每个会议最多一条 (MeetingID 上有唯一索引)；
// 重复生成时就地覆盖已有记录 (同一 ID，刷新字段和 GeneratedAt)，
// 使总结生成在重试下幂等。
type MeetingSummary struct {
	ID          uint       `gorm:"primaryKey"`            // 汇总记录的唯一标识符 (主键)
	MeetingID   uint       `gorm:"uniqueIndex;not null"`  // 所属会议 ID，唯一索引保证每会议最多一条
	RoomID      uint       `gorm:"index;not null"`        // 所属房间 ID (冗余)
	Overview    string     `gorm:"type:text;not null"`    // 会议总体概述
	Decisions   StringList `gorm:"type:text"`             // 会议中做出的决定
	Risks       StringList `gorm:"type:text"`             // 汇总出的风险
	NextSteps   StringList `gorm:"type:text"`             // 后续步骤
	GeneratedAt time.Time  `gorm:"not null"`              // 本次生成（或覆盖）的时间
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}
