package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"scrum-and-tell/internal/domain"
)

// GormTurnRepository 是 TurnRepository 接口的 GORM 实现
type GormTurnRepository struct {
	db *gorm.DB
}

// NewGormTurnRepository 创建 GormTurnRepository 实例
func NewGormTurnRepository(db *gorm.DB) *GormTurnRepository {
	if db == nil {
		panic("database connection cannot be nil for GormTurnRepository")
	}
	return &GormTurnRepository{db: db}
}

// Save 实现保存一条新的发言记录
func (r *GormTurnRepository) Save(ctx context.Context, turn *domain.Turn) error {
	err := r.db.WithContext(ctx).Create(turn).Error
	if err != nil {
		return fmt.Errorf("gorm: save turn (meeting: %d, speaker: %s): %w",
			turn.MeetingID, turn.SpeakerID, err)
	}
	return nil
}

// FindByMeeting 实现按会议获取全部发言，按开始时间升序
func (r *GormTurnRepository) FindByMeeting(ctx context.Context, meetingID uint) ([]domain.Turn, error) {
	var turns []domain.Turn
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("started_at asc").
		Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find turns for meeting %d: %w", meetingID, err)
	}
	return turns, nil
}

// GormSpeakerUpdateRepository 是 SpeakerUpdateRepository 接口的 GORM 实现
type GormSpeakerUpdateRepository struct {
	db *gorm.DB
}

// NewGormSpeakerUpdateRepository 创建 GormSpeakerUpdateRepository 实例
func NewGormSpeakerUpdateRepository(db *gorm.DB) *GormSpeakerUpdateRepository {
	if db == nil {
		panic("database connection cannot be nil for GormSpeakerUpdateRepository")
	}
	return &GormSpeakerUpdateRepository{db: db}
}

// Save 实现保存一条新的抽取结果
func (r *GormSpeakerUpdateRepository) Save(ctx context.Context, update *domain.SpeakerUpdate) error {
	err := r.db.WithContext(ctx).Create(update).Error
	if err != nil {
		return fmt.Errorf("gorm: save speaker update (meeting: %d, speaker: %s): %w",
			update.MeetingID, update.SpeakerID, err)
	}
	return nil
}

// FindByMeeting 实现按会议获取全部抽取结果，按创建时间升序
func (r *GormSpeakerUpdateRepository) FindByMeeting(ctx context.Context, meetingID uint) ([]domain.SpeakerUpdate, error) {
	var updates []domain.SpeakerUpdate
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at asc").
		Find(&updates).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find speaker updates for meeting %d: %w", meetingID, err)
	}
	return updates, nil
}
