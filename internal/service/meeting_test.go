package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/repository"
	"scrum-and-tell/internal/repository/mocks"
	"scrum-and-tell/internal/service"
)

// mockEnqueuer 是 service.TaskEnqueuer 的 Mock
type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	ret := m.Called(task)
	var r0 *asynq.TaskInfo
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*asynq.TaskInfo)
	}
	return r0, ret.Error(1)
}

const (
	ownerID   = uint(1)
	otherID   = uint(2)
	roomID    = uint(10)
	meetingID = uint(100)
)

func ownedRoom() *domain.Room {
	return &domain.Room{ID: roomID, OwnerID: ownerID, Name: "standup", Goal: "ship v2", Context: "backend team"}
}

func newMeetingService(meetingRepo *mocks.MeetingRepository, roomRepo *mocks.RoomRepository, sessionRepo *mocks.SessionRepository) *service.MeetingService {
	return service.NewMeetingService(meetingRepo, roomRepo, sessionRepo, nil)
}

// --- CreateMeeting ---

func TestMeetingService_CreateMeeting_Success(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)
	ctx := context.Background()

	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	mockMeetingRepo.On("FindOpenByRoom", ctx, roomID).Return(nil, repository.ErrMeetingNotFound).Once()
	mockMeetingRepo.On("Save", ctx, mock.MatchedBy(func(m *domain.Meeting) bool {
		return m.RoomID == roomID && m.Status == domain.MeetingStatusLobby
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Meeting).ID = meetingID
		}).
		Return(nil).Once()

	meeting, err := svc.CreateMeeting(ctx, ownerID, roomID)

	assert.NoError(t, err)
	require.NotNil(t, meeting)
	assert.Equal(t, meetingID, meeting.ID)
	assert.Equal(t, domain.MeetingStatusLobby, meeting.Status)
	assert.Nil(t, meeting.StartedAt, "lobby 状态下不应有开始时间")

	mockMeetingRepo.AssertExpectations(t)
	mockRoomRepo.AssertExpectations(t)
}

func TestMeetingService_CreateMeeting_ConflictWithOpenMeeting(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)
	ctx := context.Background()

	open := &domain.Meeting{ID: 99, RoomID: roomID, Status: domain.MeetingStatusActive}
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	mockMeetingRepo.On("FindOpenByRoom", ctx, roomID).Return(open, nil).Once()

	_, err := svc.CreateMeeting(ctx, ownerID, roomID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrMeetingConflict))
	// 冲突时不得写入新记录
	mockMeetingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMeetingService_CreateMeeting_NotOwner(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)
	ctx := context.Background()

	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()

	_, err := svc.CreateMeeting(ctx, otherID, roomID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrUnauthorized))
	mockMeetingRepo.AssertNotCalled(t, "FindOpenByRoom", mock.Anything, mock.Anything)
	mockMeetingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- StartMeeting ---

func TestMeetingService_StartMeeting_FromLobby_SetsStartedAt(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)
	ctx := context.Background()

	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusLobby}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	mockMeetingRepo.On("Save", ctx, mock.AnythingOfType("*domain.Meeting")).Return(nil).Once()
	mockSessionRepo.On("PublishMeetingEvent", ctx, meetingID, mock.Anything).Return(nil).Once()

	started, err := svc.StartMeeting(ctx, ownerID, meetingID)

	assert.NoError(t, err)
	require.NotNil(t, started)
	assert.Equal(t, domain.MeetingStatusActive, started.Status)
	require.NotNil(t, started.StartedAt, "首次进入 active 应记录开始时间")

	mockMeetingRepo.AssertExpectations(t)
}

func TestMeetingService_StartMeeting_FromPaused_KeepsStartedAt(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)
	ctx := context.Background()

	originalStart := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusPaused, StartedAt: &originalStart}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	mockMeetingRepo.On("Save", ctx, mock.AnythingOfType("*domain.Meeting")).Return(nil).Once()
	mockSessionRepo.On("PublishMeetingEvent", ctx, meetingID, mock.Anything).Return(nil).Once()

	resumed, err := svc.StartMeeting(ctx, ownerID, meetingID)

	assert.NoError(t, err)
	require.NotNil(t, resumed.StartedAt)
	assert.Equal(t, originalStart, *resumed.StartedAt, "暂停后恢复不应改写开始时间")
}

func TestMeetingService_StartMeeting_FromEnded_Invalid(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)
	ctx := context.Background()

	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusEnded}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()

	_, err := svc.StartMeeting(ctx, ownerID, meetingID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidTransition))
	mockMeetingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- PauseMeeting ---

func TestMeetingService_PauseMeeting_FromActive(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)
	ctx := context.Background()

	now := time.Now().UTC()
	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusActive, StartedAt: &now}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	mockMeetingRepo.On("Save", ctx, mock.AnythingOfType("*domain.Meeting")).Return(nil).Once()
	mockSessionRepo.On("ClearSubState", ctx, meetingID).Return(nil).Once()
	mockSessionRepo.On("PublishMeetingEvent", ctx, meetingID, mock.Anything).Return(nil).Once()

	paused, err := svc.PauseMeeting(ctx, ownerID, meetingID)

	assert.NoError(t, err)
	assert.Equal(t, domain.MeetingStatusPaused, paused.Status)
	mockSessionRepo.AssertExpectations(t)
}

func TestMeetingService_PauseMeeting_FromLobby_Invalid(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)
	ctx := context.Background()

	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusLobby}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()

	_, err := svc.PauseMeeting(ctx, ownerID, meetingID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidTransition))
	mockMeetingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- EndMeeting ---

func TestMeetingService_EndMeeting_EnqueuesSummaryTask(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	enqueuer := new(mockEnqueuer)
	svc := service.NewMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo, enqueuer)
	ctx := context.Background()

	now := time.Now().UTC()
	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusActive, StartedAt: &now}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	mockMeetingRepo.On("Save", ctx, mock.AnythingOfType("*domain.Meeting")).Return(nil).Once()
	mockSessionRepo.On("CleanupMeetingState", ctx, meetingID).Return(nil).Once()
	mockSessionRepo.On("PublishMeetingEvent", ctx, meetingID, mock.Anything).Return(nil).Once()
	enqueuer.On("Enqueue", mock.MatchedBy(func(task *asynq.Task) bool {
		return task.Type() == "summary:generate"
	})).Return(&asynq.TaskInfo{ID: "task-1"}, nil).Once()

	ended, err := svc.EndMeeting(ctx, ownerID, meetingID)

	assert.NoError(t, err)
	assert.Equal(t, domain.MeetingStatusEnded, ended.Status)
	require.NotNil(t, ended.EndedAt)
	enqueuer.AssertExpectations(t)
	mockSessionRepo.AssertExpectations(t)
}

func TestMeetingService_EndMeeting_EnqueueFailureDoesNotBlock(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	enqueuer := new(mockEnqueuer)
	svc := service.NewMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo, enqueuer)
	ctx := context.Background()

	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusActive}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	mockMeetingRepo.On("Save", ctx, mock.AnythingOfType("*domain.Meeting")).Return(nil).Once()
	mockSessionRepo.On("CleanupMeetingState", ctx, meetingID).Return(nil).Once()
	mockSessionRepo.On("PublishMeetingEvent", ctx, meetingID, mock.Anything).Return(nil).Once()
	enqueuer.On("Enqueue", mock.Anything).Return(nil, errors.New("redis down")).Once()

	ended, err := svc.EndMeeting(ctx, ownerID, meetingID)

	// 入队失败不能阻止会议进入终态
	assert.NoError(t, err)
	assert.Equal(t, domain.MeetingStatusEnded, ended.Status)
}

func TestMeetingService_EndMeeting_Idempotent(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	enqueuer := new(mockEnqueuer)
	svc := service.NewMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo, enqueuer)
	ctx := context.Background()

	endedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusEnded, EndedAt: &endedAt}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()

	result, err := svc.EndMeeting(ctx, ownerID, meetingID)

	assert.NoError(t, err, "重复结束应是成功的 no-op")
	assert.Equal(t, endedAt, *result.EndedAt, "结束时间不应被改写")
	mockMeetingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	enqueuer.AssertNotCalled(t, "Enqueue", mock.Anything)
}

// --- SetSubState ---

func TestMeetingService_SetSubState_NotActive_NoOp(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)
	ctx := context.Background()

	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusPaused}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()

	err := svc.SetSubState(ctx, ownerID, meetingID, domain.SubStateListening)

	assert.NoError(t, err)
	mockSessionRepo.AssertNotCalled(t, "SetSubState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMeetingService_SetSubState_InvalidValue(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)

	err := svc.SetSubState(context.Background(), ownerID, meetingID, domain.SubState("shouting"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidInput))
	mockMeetingRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// --- GetMeetingState ---

func TestMeetingService_GetMeetingState_ActiveReadsSubState(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)
	ctx := context.Background()

	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusActive}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()
	mockSessionRepo.On("GetSubState", ctx, meetingID).Return(domain.SubStateListening, nil).Once()

	got, subState, err := svc.GetMeetingState(ctx, ownerID, meetingID)

	assert.NoError(t, err)
	assert.Equal(t, meetingID, got.ID)
	assert.Equal(t, domain.SubStateListening, subState)
}

func TestMeetingService_GetMeetingState_NotActiveSkipsRedis(t *testing.T) {
	mockMeetingRepo := new(mocks.MeetingRepository)
	mockRoomRepo := new(mocks.RoomRepository)
	mockSessionRepo := new(mocks.SessionRepository)
	svc := newMeetingService(mockMeetingRepo, mockRoomRepo, mockSessionRepo)
	ctx := context.Background()

	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusLobby}
	mockMeetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	mockRoomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()

	_, subState, err := svc.GetMeetingState(ctx, ownerID, meetingID)

	assert.NoError(t, err)
	assert.Equal(t, domain.SubStateNone, subState, "非 active 会议不应携带子状态")
	mockSessionRepo.AssertNotCalled(t, "GetSubState", mock.Anything, mock.Anything)
}
