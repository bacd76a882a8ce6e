package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/repository"
)

// ActionItemService 提供行动项的查询与状态翻转。
type ActionItemService struct {
	itemRepo    repository.ActionItemRepository
	meetingRepo repository.MeetingRepository
	roomRepo    repository.RoomRepository
}

// NewActionItemService 创建 ActionItemService 实例。
func NewActionItemService(
	itemRepo repository.ActionItemRepository,
	meetingRepo repository.MeetingRepository,
	roomRepo repository.RoomRepository,
) *ActionItemService {
	if itemRepo == nil || meetingRepo == nil || roomRepo == nil {
		panic("all dependencies must be non-nil for ActionItemService")
	}
	return &ActionItemService{
		itemRepo:    itemRepo,
		meetingRepo: meetingRepo,
		roomRepo:    roomRepo,
	}
}

// ToggleStatus 在 pending 与 completed 之间翻转行动项状态。
func (s *ActionItemService) ToggleStatus(ctx context.Context, userID, itemID uint) (*domain.ActionItem, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrActionItemNotFound) {
			return nil, ErrActionItemNotFound
		}
		logrus.WithError(err).WithField("item_id", itemID).Error("ToggleStatus: Failed to load action item")
		return nil, ErrInternalServer
	}
	if err := s.authorizeRoom(ctx, userID, item.RoomID); err != nil {
		return nil, err
	}

	item.Toggle()
	if err := s.itemRepo.Save(ctx, item); err != nil {
		logrus.WithError(err).WithField("item_id", itemID).Error("ToggleStatus: Failed to persist action item")
		return nil, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{
		"item_id": itemID,
		"status":  item.Status,
	}).Info("Action item status toggled")
	return item, nil
}

// ListByMeeting 列出会议下的全部行动项。
func (s *ActionItemService) ListByMeeting(ctx context.Context, userID, meetingID uint) ([]domain.ActionItem, error) {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return nil, ErrMeetingNotFound
		}
		logrus.WithError(err).WithField("meeting_id", meetingID).Error("ListByMeeting: Failed to load meeting")
		return nil, ErrInternalServer
	}
	if err := s.authorizeRoom(ctx, userID, meeting.RoomID); err != nil {
		return nil, err
	}
	items, err := s.itemRepo.FindByMeeting(ctx, meetingID)
	if err != nil {
		logrus.WithError(err).WithField("meeting_id", meetingID).Error("ListByMeeting: Failed to load action items")
		return nil, ErrInternalServer
	}
	return items, nil
}

// ListByRoom 列出房间下的全部行动项（跨会议）。
func (s *ActionItemService) ListByRoom(ctx context.Context, userID, roomID uint) ([]domain.ActionItem, error) {
	if err := s.authorizeRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	items, err := s.itemRepo.FindByRoom(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("ListByRoom: Failed to load action items")
		return nil, ErrInternalServer
	}
	return items, nil
}

// authorizeRoom 检查调用者是否为房主。
func (s *ActionItemService) authorizeRoom(ctx context.Context, userID, roomID uint) error {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to load room for authorization")
		return ErrInternalServer
	}
	if room.OwnerID != userID {
		return ErrUnauthorized
	}
	return nil
}
