package domain

import "time"

// ActionItemStatus 表示行动项的完成状态。
// 状态只由用户手动切换 (pending ⇄ completed)，核心流程不会基于时间修改它。
type ActionItemStatus string

const (
	ActionItemStatusPending   ActionItemStatus = "pending"
	ActionItemStatusCompleted ActionItemStatus = "completed"
)

// DefaultActionOwner 是抽取结果未给出归属人时使用的默认值。
const DefaultActionOwner = "Unassigned"

// ActionItem 表示从发言抽取出的一个任务。
// RoomID 为冗余字段，方便按房间维度查询所有行动项。
type ActionItem struct {
	ID        uint             `gorm:"primaryKey"`        // 行动项的唯一标识符 (主键)
	MeetingID uint             `gorm:"index;not null"`    // 所属会议 ID (外键关联 Meeting.ID, 添加索引)
	RoomID    uint             `gorm:"index;not null"`    // 所属房间 ID (冗余，加速房间级查询)
	Task      string           `gorm:"type:text;not null"` // 任务描述
	Owner     string           `gorm:"size:191;not null;default:'Unassigned'"` // 归属人 (自由文本)
	Status    ActionItemStatus `gorm:"size:20;not null;default:'pending'"`     // 完成状态
	CreatedAt time.Time        `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime"`
}

// Toggle 在 pending 和 completed 之间切换状态。
func (a *ActionItem) Toggle() {
	if a.Status == ActionItemStatusCompleted {
		a.Status = ActionItemStatusPending
	} else {
		a.Status = ActionItemStatusCompleted
	}
}
