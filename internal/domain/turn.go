package domain

import "time"

// Turn 表示会议中某位发言者的一条完整发言（转录条目）。
// 创建后不可变；按 StartedAt 升序排列即为会议转录。
type Turn struct {
	ID          uint      `gorm:"primaryKey"`       // 发言记录的唯一标识符 (主键)
	MeetingID   uint      `gorm:"index;not null"`   // 所属会议 ID (外键关联 Meeting.ID, 添加索引)
	SpeakerID   string    `gorm:"size:191;not null"` // 发言者标识 (来自语音客户端，不一定是注册用户)
	SpeakerName string    `gorm:"size:191;not null"` // 发言者展示名
	Text        string    `gorm:"type:text;not null"` // 原始发言文本
	StartedAt   time.Time `gorm:"index;not null"`   // 发言开始时间 (排序键)
	EndedAt     time.Time `gorm:"not null"`         // 发言结束时间
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}
