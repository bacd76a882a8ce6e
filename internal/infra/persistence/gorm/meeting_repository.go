package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/repository"
)

// GormMeetingRepository 是 MeetingRepository 接口的 GORM 实现
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewGormMeetingRepository 创建 GormMeetingRepository 实例
func NewGormMeetingRepository(db *gorm.DB) *GormMeetingRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMeetingRepository")
	}
	return &GormMeetingRepository{db: db}
}

// FindByID 实现根据会议 ID 查找会议
func (r *GormMeetingRepository) FindByID(ctx context.Context, id uint) (*domain.Meeting, error) {
	var meeting domain.Meeting
	err := r.db.WithContext(ctx).First(&meeting, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("gorm: find meeting by id %d: %w", id, err)
	}
	return &meeting, nil
}

// FindOpenByRoom 实现查找房间当前未结束的会议
// "未结束"即状态属于 {lobby, active, paused}；同一房间最多只应有一条。
func (r *GormMeetingRepository) FindOpenByRoom(ctx context.Context, roomID uint) (*domain.Meeting, error) {
	var meeting domain.Meeting
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND status IN ?", roomID, []domain.MeetingStatus{
			domain.MeetingStatusLobby,
			domain.MeetingStatusActive,
			domain.MeetingStatusPaused,
		}).
		First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("gorm: find open meeting for room %d: %w", roomID, err)
	}
	return &meeting, nil
}

// Save 实现保存会议信息（创建或更新）
func (r *GormMeetingRepository) Save(ctx context.Context, meeting *domain.Meeting) error {
	err := r.db.WithContext(ctx).Save(meeting).Error
	if err != nil {
		return fmt.Errorf("gorm: save meeting (id: %d, room: %d, status: %s): %w",
			meeting.ID, meeting.RoomID, meeting.Status, err)
	}
	return nil
}
