package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/repository/mocks"
	"scrum-and-tell/internal/service"
)

func newActionItemService(itemRepo *mocks.ActionItemRepository, meetingRepo *mocks.MeetingRepository, roomRepo *mocks.RoomRepository) *service.ActionItemService {
	return service.NewActionItemService(itemRepo, meetingRepo, roomRepo)
}

func TestActionItemService_ToggleStatus_PendingToCompleted(t *testing.T) {
	mockItemRepo := new(mocks.ActionItemRepository)
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	svc := newActionItemService(mockItemRepo, mockMeetingRepo, mockRoomRepo)
	ctx := context.Background()

	item := &domain.ActionItem{MeetingID: meetingID, RoomID: roomID, Task: "Review rollback plan", Owner: "Bob", Status: domain.ActionItemStatusPending}
	item.ID = 42
	mockItemRepo.On("FindByID", ctx, uint(42)).Return(item, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	mockItemRepo.On("Save", ctx, mock.MatchedBy(func(saved *domain.ActionItem) bool {
		return saved.ID == 42 && saved.Status == domain.ActionItemStatusCompleted
	})).Return(nil).Once()

	toggled, err := svc.ToggleStatus(ctx, ownerID, 42)

	assert.NoError(t, err)
	assert.Equal(t, domain.ActionItemStatusCompleted, toggled.Status)
	mockItemRepo.AssertExpectations(t)
}

func TestActionItemService_ToggleStatus_CompletedToPending(t *testing.T) {
	mockItemRepo := new(mocks.ActionItemRepository)
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	svc := newActionItemService(mockItemRepo, mockMeetingRepo, mockRoomRepo)
	ctx := context.Background()

	item := &domain.ActionItem{RoomID: roomID, Task: "done thing", Status: domain.ActionItemStatusCompleted}
	item.ID = 43
	mockItemRepo.On("FindByID", ctx, uint(43)).Return(item, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	mockItemRepo.On("Save", ctx, mock.AnythingOfType("*domain.ActionItem")).Return(nil).Once()

	toggled, err := svc.ToggleStatus(ctx, ownerID, 43)

	assert.NoError(t, err)
	assert.Equal(t, domain.ActionItemStatusPending, toggled.Status)
}

func TestActionItemService_ToggleStatus_NotOwner(t *testing.T) {
	mockItemRepo := new(mocks.ActionItemRepository)
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	svc := newActionItemService(mockItemRepo, mockMeetingRepo, mockRoomRepo)
	ctx := context.Background()

	item := &domain.ActionItem{RoomID: roomID, Status: domain.ActionItemStatusPending}
	item.ID = 44
	mockItemRepo.On("FindByID", ctx, uint(44)).Return(item, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()

	_, err := svc.ToggleStatus(ctx, otherID, 44)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrUnauthorized))
	mockItemRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestActionItemService_ListByMeeting(t *testing.T) {
	mockItemRepo := new(mocks.ActionItemRepository)
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	svc := newActionItemService(mockItemRepo, mockMeetingRepo, mockRoomRepo)
	ctx := context.Background()

	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusEnded}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	items := []domain.ActionItem{
		{MeetingID: meetingID, RoomID: roomID, Task: "a", Owner: "Bob"},
		{MeetingID: meetingID, RoomID: roomID, Task: "b", Owner: domain.DefaultActionOwner},
	}
	mockItemRepo.On("FindByMeeting", ctx, meetingID).Return(items, nil).Once()

	got, err := svc.ListByMeeting(ctx, ownerID, meetingID)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
}
