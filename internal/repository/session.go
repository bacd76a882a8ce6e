package repository

import (
	"context"
	"time"

	"scrum-and-tell/internal/domain"
)

// SessionRepository 定义了与会议实时会话状态相关的操作，由 Redis 实现。
// 这里保存的都是瞬时状态：子状态带 TTL 自动衰减，事件通过 Pub/Sub 分发，
// 不落任何持久化数据。
type SessionRepository interface {
	// === Sub-state ===

	// SetSubState 写入会议的瞬时子状态 (listening/processing/speaking)，
	// ttl 到期后自动清除，避免失联会话把会议卡在 processing。
	SetSubState(ctx context.Context, meetingID uint, state domain.SubState, ttl time.Duration) error

	// GetSubState 读取会议当前的子状态。
	// 没有记录时返回 domain.SubStateNone 和 nil 错误。
	GetSubState(ctx context.Context, meetingID uint) (domain.SubState, error)

	// ClearSubState 清除会议的子状态（暂停/结束时调用）。
	ClearSubState(ctx context.Context, meetingID uint) error

	// === PubSub ===

	// PublishMeetingEvent 将一条事件（已序列化的 JSON）发布到会议频道，
	// 供各节点的 Hub 广播给该会议的 WebSocket 客户端。
	PublishMeetingEvent(ctx context.Context, meetingID uint, payload []byte) error

	// === Rate Limiting ===

	// CheckRateLimit 检查给定 key 的请求频率是否超限，并递增计数。
	// 返回 true 如果超限，false 如果未超限。
	CheckRateLimit(ctx context.Context, key string, limit int, duration time.Duration) (bool, error)

	// CleanupMeetingState 清理会议相关的 Redis key（会议结束时调用）。
	CleanupMeetingState(ctx context.Context, meetingID uint) error
}
