package repository

import (
	"context"

	"scrum-and-tell/internal/domain"
)

// TurnRepository 定义了发言记录（转录条目）的存储和查询。
// Turn 创建后不可变，因此只有插入和读取操作。
type TurnRepository interface {
	// Save 保存一条新的发言记录。
	Save(ctx context.Context, turn *domain.Turn) error

	// FindByMeeting 获取指定会议的全部发言，按 StartedAt 升序排列。
	// 会议规模假定足够小，不做分页（已知的扩展边界）。
	FindByMeeting(ctx context.Context, meetingID uint) ([]domain.Turn, error)
}

// SpeakerUpdateRepository 定义了结构化抽取结果的存储和查询。
type SpeakerUpdateRepository interface {
	// Save 保存一条新的抽取结果。
	Save(ctx context.Context, update *domain.SpeakerUpdate) error

	// FindByMeeting 获取指定会议的全部抽取结果，按创建时间升序排列。
	FindByMeeting(ctx context.Context, meetingID uint) ([]domain.SpeakerUpdate, error)
}
