package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/repository"
)

// RoomService 负责房间管理相关的业务逻辑。
type RoomService struct {
	roomRepo repository.RoomRepository
}

// NewRoomService 创建 RoomService 实例。
func NewRoomService(roomRepo repository.RoomRepository) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	return &RoomService{roomRepo: roomRepo}
}

// CreateRoom 创建一个新房间。
// name 必填；goal 和 roomContext 是传给抽取/总结调用的会议目标与背景，可以后补。
func (s *RoomService) CreateRoom(ctx context.Context, ownerID uint, name, goal, roomContext string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "name": name})

	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrInvalidInput)
	}

	// 1. 生成唯一的邀请码
	inviteCode, err := s.generateUniqueInviteCode(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate unique invite code")
		return nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("invite_code", inviteCode)

	// 2. 创建并保存房间
	room := &domain.Room{
		OwnerID:    ownerID,
		Name:       name,
		Goal:       goal,
		Context:    roomContext,
		InviteCode: inviteCode,
		LastActive: time.Now().UTC(),
	}
	err = s.roomRepo.Save(ctx, room)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 邀请码唯一性已预先检查过，理论上不应发生
			logCtx.WithError(err).Error("Failed to save new room due to duplicate entry (invite code conflict?)")
			return nil, ErrInternalServer
		}
		logCtx.WithError(err).Error("Failed to save new room to database")
		return nil, ErrInternalServer
	}

	logCtx.WithField("room_id", room.ID).Info("Room created successfully")
	return room, nil
}

// JoinRoom 处理用户通过邀请码加入房间。
func (s *RoomService) JoinRoom(ctx context.Context, userID uint, inviteCode string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "invite_code": inviteCode})

	room, err := s.roomRepo.FindByInviteCode(ctx, inviteCode)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.WithError(err).Warn("Failed to find room by invite code: Not found")
			return nil, ErrInvalidInviteCode
		}
		logCtx.WithError(err).Warn("Failed to find room by invite code: Repository error")
		return nil, ErrInternalServer
	}
	if room == nil { // 防御
		logCtx.Warn("Failed to find room by invite code (repo returned nil room without error)")
		return nil, ErrInvalidInviteCode
	}
	logCtx = logCtx.WithField("room_id", room.ID)

	// 更新房间最后活跃时间（尽力而为，失败不阻断加入）
	room.LastActive = time.Now().UTC()
	if err := s.roomRepo.Save(ctx, room); err != nil {
		logCtx.WithError(err).Warn("Failed to update room last active time")
	}

	logCtx.Info("User joined room successfully")
	return room, nil
}

// FindRoomByID 根据 ID 查找房间，供 Handler 和其他 Service 使用。
func (s *RoomService) FindRoomByID(ctx context.Context, roomID uint) (*domain.Room, error) {
	logCtx := logrus.WithField("room_id", roomID)
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("FindRoomByID: Room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("FindRoomByID: Repository error")
		return nil, ErrInternalServer
	}
	if room == nil { // 防御
		logCtx.Warn("FindRoomByID: Repository returned nil room without error")
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// UpdateRoomBrief 更新房间的会议目标与背景，仅房主可操作。
func (s *RoomService) UpdateRoomBrief(ctx context.Context, userID, roomID uint, goal, roomContext string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	room, err := s.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.OwnerID != userID {
		logCtx.Warn("UpdateRoomBrief: Caller does not own the room")
		return nil, ErrUnauthorized
	}

	room.Goal = goal
	room.Context = roomContext
	if err := s.roomRepo.Save(ctx, room); err != nil {
		logCtx.WithError(err).Error("UpdateRoomBrief: Failed to save room")
		return nil, ErrInternalServer
	}

	logCtx.Info("Room brief updated successfully")
	return room, nil
}

// --- 私有辅助函数 ---

// generateUniqueInviteCode 生成唯一的邀请码
func (s *RoomService) generateUniqueInviteCode(ctx context.Context) (string, error) {
	const letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	const codeLength = 6
	const maxAttempts = 10

	b := make([]byte, codeLength)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for i := range b {
			b[i] = letters[int(b[i])%len(letters)]
		}
		code := string(b)

		exists, err := s.roomRepo.IsInviteCodeExists(ctx, code)
		if err != nil {
			logrus.WithError(err).WithField("invite_code", code).Error("Database error checking invite code uniqueness")
			return "", fmt.Errorf("database error checking invite code: %w", err)
		}
		if !exists {
			logrus.WithField("invite_code", code).Debugf("Generated unique invite code after %d attempt(s).", attempt+1)
			return code, nil
		}
		// code 已存在，重试
		logrus.WithField("invite_code", code).Warnf("Generated invite code already exists, retrying (attempt %d)...", attempt+1)
	}
	return "", fmt.Errorf("failed to generate a unique invite code after %d attempts", maxAttempts)
}
