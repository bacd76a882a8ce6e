package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/repository"
)

// GormSummaryRepository 是 SummaryRepository 接口的 GORM 实现
type GormSummaryRepository struct {
	db *gorm.DB
}

// NewGormSummaryRepository 创建 GormSummaryRepository 实例
func NewGormSummaryRepository(db *gorm.DB) *GormSummaryRepository {
	if db == nil {
		panic("database connection cannot be nil for GormSummaryRepository")
	}
	return &GormSummaryRepository{db: db}
}

// FindByMeeting 实现获取指定会议的汇总记录
func (r *GormSummaryRepository) FindByMeeting(ctx context.Context, meetingID uint) (*domain.MeetingSummary, error) {
	var summary domain.MeetingSummary
	err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID).First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSummaryNotFound
		}
		return nil, fmt.Errorf("gorm: find summary for meeting %d: %w", meetingID, err)
	}
	return &summary, nil
}

// Save 实现保存汇总记录（创建或就地更新）
// MeetingID 上的唯一索引会在并发插入时触发 ErrDuplicateEntry，兜底保证每会议最多一条。
func (r *GormSummaryRepository) Save(ctx context.Context, summary *domain.MeetingSummary) error {
	err := r.db.WithContext(ctx).Save(summary).Error
	if err != nil {
		if mapped := mapDuplicateEntry(err); errors.Is(mapped, repository.ErrDuplicateEntry) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save summary (id: %d, meeting: %d): %w", summary.ID, summary.MeetingID, err)
	}
	return nil
}
