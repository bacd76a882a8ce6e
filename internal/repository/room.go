package repository

import (
	"context"

	"scrum-and-tell/internal/domain"
)

// RoomRepository 定义了房间数据的存储和检索操作。
type RoomRepository interface {
	// FindByID 根据房间 ID 查找房间。
	// 如果房间不存在，应返回 repository.ErrRoomNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// FindByInviteCode 根据邀请码查找房间。
	FindByInviteCode(ctx context.Context, code string) (*domain.Room, error)

	// Save 保存房间信息。
	// 如果房间已存在 (基于 ID)，则更新；否则创建新房间。
	Save(ctx context.Context, room *domain.Room) error

	// IsInviteCodeExists 检查邀请码是否已存在。
	IsInviteCodeExists(ctx context.Context, code string) (bool, error)
}
