package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/repository"
	"scrum-and-tell/internal/repository/mocks"
	"scrum-and-tell/internal/service"
)

func TestRoomService_CreateRoom_Success(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	mockRoomRepo.On("IsInviteCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockRoomRepo.On("Save", ctx, mock.MatchedBy(func(room *domain.Room) bool {
		return room.OwnerID == ownerID && room.Name == "standup" &&
			room.Goal == "ship v2" && len(room.InviteCode) == 6
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Room).ID = roomID
		}).
		Return(nil).Once()

	room, err := roomService.CreateRoom(ctx, ownerID, "standup", "ship v2", "backend team")

	assert.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, roomID, room.ID)
	assert.NotEmpty(t, room.InviteCode)

	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_CreateRoom_EmptyName(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)

	_, err := roomService.CreateRoom(context.Background(), ownerID, "", "", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidInput))
	mockRoomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRoomService_CreateRoom_RetriesOnInviteCodeCollision(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	// 第一次生成的邀请码已存在，应重新生成
	mockRoomRepo.On("IsInviteCodeExists", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
	mockRoomRepo.On("IsInviteCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockRoomRepo.On("Save", ctx, mock.AnythingOfType("*domain.Room")).Return(nil).Once()

	_, err := roomService.CreateRoom(ctx, ownerID, "standup", "", "")

	assert.NoError(t, err)
	mockRoomRepo.AssertExpectations(t)
}

func TestRoomService_JoinRoom_InvalidCode(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	mockRoomRepo.On("FindByInviteCode", ctx, "ZZZZZZ").Return(nil, repository.ErrRoomNotFound).Once()

	_, err := roomService.JoinRoom(ctx, otherID, "ZZZZZZ")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidInviteCode))
}

func TestRoomService_JoinRoom_UpdatesLastActive(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	room := ownedRoom()
	mockRoomRepo.On("FindByInviteCode", ctx, "ABC123").Return(room, nil).Once()
	mockRoomRepo.On("Save", ctx, mock.MatchedBy(func(saved *domain.Room) bool {
		return !saved.LastActive.IsZero()
	})).Return(nil).Once()

	joined, err := roomService.JoinRoom(ctx, otherID, "ABC123")

	assert.NoError(t, err)
	assert.Equal(t, roomID, joined.ID)
}

func TestRoomService_UpdateRoomBrief_NotOwner(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()

	_, err := roomService.UpdateRoomBrief(ctx, otherID, roomID, "new goal", "new context")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrUnauthorized))
	mockRoomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRoomService_UpdateRoomBrief_Success(t *testing.T) {
	mockRoomRepo := new(mocks.RoomRepository)
	roomService := service.NewRoomService(mockRoomRepo)
	ctx := context.Background()

	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	mockRoomRepo.On("Save", ctx, mock.MatchedBy(func(room *domain.Room) bool {
		return room.Goal == "new goal" && room.Context == "new context"
	})).Return(nil).Once()

	updated, err := roomService.UpdateRoomBrief(ctx, ownerID, roomID, "new goal", "new context")

	assert.NoError(t, err)
	assert.Equal(t, "new goal", updated.Goal)
	mockRoomRepo.AssertExpectations(t)
}
