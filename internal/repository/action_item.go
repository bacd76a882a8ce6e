package repository

import (
	"context"

	"scrum-and-tell/internal/domain"
)

// ActionItemRepository 定义了行动项的存储和查询。
type ActionItemRepository interface {
	// SaveBatch 批量保存行动项（一条发言可能抽取出多个任务）。
	SaveBatch(ctx context.Context, items []domain.ActionItem) error

	// Save 保存单个行动项（用于状态切换等更新操作）。
	Save(ctx context.Context, item *domain.ActionItem) error

	// FindByID 根据 ID 查找行动项。
	// 如果不存在，应返回 repository.ErrActionItemNotFound。
	FindByID(ctx context.Context, id uint) (*domain.ActionItem, error)

	// FindByMeeting 获取指定会议的全部行动项，按创建时间升序排列。
	FindByMeeting(ctx context.Context, meetingID uint) ([]domain.ActionItem, error)

	// FindByRoom 获取指定房间的全部行动项（跨会议）。
	FindByRoom(ctx context.Context, roomID uint) ([]domain.ActionItem, error)
}
