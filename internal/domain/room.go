package domain

import "time"

// Room 表示一个会议室（房间）。
// 房间由创建者拥有，携带会议目标 (Goal) 和背景信息 (Context)，
// 这两个字段会作为上下文传递给抽取和总结调用。
type Room struct {
	ID         uint      `gorm:"primaryKey"`                    // 房间唯一标识符 (主键)
	OwnerID    uint      `gorm:"index;not null"`                // 创建该房间的用户 ID (外键关联到 User.ID, 添加索引)
	Name       string    `gorm:"size:191;not null"`             // 房间名称
	Goal       string    `gorm:"type:text"`                     // 房间的会议目标陈述
	Context    string    `gorm:"type:text"`                     // 房间的背景摘要（例如上传文档的提炼结果）
	InviteCode string    `gorm:"uniqueIndex;size:191;not null"` // 用于加入房间的邀请码，必须唯一且不能为空
	CreatedAt  time.Time `gorm:"autoCreateTime"`                // 房间创建时间 (GORM 自动填充)
	LastActive time.Time `gorm:"index"`                         // 房间最后活跃时间 (用于清理不活跃房间等)
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}
