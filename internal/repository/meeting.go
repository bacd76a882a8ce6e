package repository

import (
	"context"

	"scrum-and-tell/internal/domain"
)

// MeetingRepository 定义了会议生命周期记录的存储和检索操作。
type MeetingRepository interface {
	// FindByID 根据会议 ID 查找会议。
	// 如果会议不存在，应返回 repository.ErrMeetingNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Meeting, error)

	// FindOpenByRoom 查找指定房间当前处于非终态 (lobby/active/paused) 的会议。
	// 用于维持"每个房间最多一个未结束会议"的不变式。
	// 如果不存在，返回 repository.ErrMeetingNotFound。
	FindOpenByRoom(ctx context.Context, roomID uint) (*domain.Meeting, error)

	// Save 保存会议信息（创建或更新）。
	Save(ctx context.Context, meeting *domain.Meeting) error
}
