package domain

import "time"

// MeetingStatus 表示会议的持久化生命周期状态。
// 状态机: lobby (初始) → active ⇄ paused → ended (终态)。
type MeetingStatus string

const (
	MeetingStatusLobby  MeetingStatus = "lobby"
	MeetingStatusActive MeetingStatus = "active"
	MeetingStatusPaused MeetingStatus = "paused"
	MeetingStatusEnded  MeetingStatus = "ended"
)

// IsTerminal 返回该状态是否为终态 (ended)。
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusEnded
}

// SubState 表示会议进行中的瞬时子状态。
// 子状态只属于当前活跃的主持会话，存储在 Redis 中并带 TTL，
// 永远不会写入 MySQL；会话断开后自然衰减为空。
type SubState string

const (
	SubStateNone       SubState = ""
	SubStateListening  SubState = "listening"
	SubStateProcessing SubState = "processing"
	SubStateSpeaking   SubState = "speaking"
)

// Meeting 表示房间内的一次引导式会议。
// 不变式：一个房间同时最多只有一个状态属于 {lobby, active, paused} 的会议；
// StartedAt 在首次进入 active 时设置且之后不再改变；
// EndedAt 在进入 ended 时设置且该转换不可逆。
type Meeting struct {
	ID        uint          `gorm:"primaryKey"`                // 会议唯一标识符 (主键)
	RoomID    uint          `gorm:"index;not null"`            // 所属房间 ID (外键关联 Room.ID, 添加索引)
	Status    MeetingStatus `gorm:"size:20;index;not null"`    // 持久化生命周期状态
	StartedAt *time.Time    // 首次进入 active 的时间，未开始时为 NULL
	EndedAt   *time.Time    // 进入 ended 的时间，未结束时为 NULL
	CreatedAt time.Time     `gorm:"autoCreateTime"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime"`
}

// IsOpen 返回会议是否处于非终态 (lobby/active/paused)。
func (m *Meeting) IsOpen() bool {
	return !m.Status.IsTerminal()
}
