package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/repository"
)

// GormActionItemRepository 是 ActionItemRepository 接口的 GORM 实现
type GormActionItemRepository struct {
	db *gorm.DB
}

// NewGormActionItemRepository 创建 GormActionItemRepository 实例
func NewGormActionItemRepository(db *gorm.DB) *GormActionItemRepository {
	if db == nil {
		panic("database connection cannot be nil for GormActionItemRepository")
	}
	return &GormActionItemRepository{db: db}
}

// SaveBatch 实现批量保存行动项
// GORM 的 Create 方法支持传入切片进行批量插入
func (r *GormActionItemRepository) SaveBatch(ctx context.Context, items []domain.ActionItem) error {
	if len(items) == 0 {
		return nil // 没有行动项需要保存，直接返回
	}
	err := r.db.WithContext(ctx).Create(&items).Error
	if err != nil {
		return fmt.Errorf("gorm: failed to save action item batch (size %d): %w", len(items), err)
	}
	return nil
}

// Save 实现保存单个行动项（状态切换等更新操作）
func (r *GormActionItemRepository) Save(ctx context.Context, item *domain.ActionItem) error {
	err := r.db.WithContext(ctx).Save(item).Error
	if err != nil {
		return fmt.Errorf("gorm: save action item (id: %d): %w", item.ID, err)
	}
	return nil
}

// FindByID 实现根据 ID 查找行动项
func (r *GormActionItemRepository) FindByID(ctx context.Context, id uint) (*domain.ActionItem, error) {
	var item domain.ActionItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrActionItemNotFound
		}
		return nil, fmt.Errorf("gorm: find action item by id %d: %w", id, err)
	}
	return &item, nil
}

// FindByMeeting 实现按会议获取全部行动项，按创建时间升序
func (r *GormActionItemRepository) FindByMeeting(ctx context.Context, meetingID uint) ([]domain.ActionItem, error) {
	var items []domain.ActionItem
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find action items for meeting %d: %w", meetingID, err)
	}
	return items, nil
}

// FindByRoom 实现按房间获取全部行动项（跨会议）
func (r *GormActionItemRepository) FindByRoom(ctx context.Context, roomID uint) ([]domain.ActionItem, error) {
	var items []domain.ActionItem
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find action items for room %d: %w", roomID, err)
	}
	return items, nil
}
