// Package mocks 提供 repository 接口的 testify Mock 实现，仅用于测试。
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"scrum-and-tell/internal/domain"
)

// UserRepository 是 repository.UserRepository 的 Mock
type UserRepository struct {
	mock.Mock
}

func (_m *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ret := _m.Called(ctx, username)
	var r0 *domain.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.User)
	}
	return r0, ret.Error(1)
}

func (_m *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	ret := _m.Called(ctx, id)
	var r0 *domain.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.User)
	}
	return r0, ret.Error(1)
}

func (_m *UserRepository) Save(ctx context.Context, user *domain.User) error {
	ret := _m.Called(ctx, user)
	return ret.Error(0)
}

// RoomRepository 是 repository.RoomRepository 的 Mock
type RoomRepository struct {
	mock.Mock
}

func (_m *RoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	ret := _m.Called(ctx, id)
	var r0 *domain.Room
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Room)
	}
	return r0, ret.Error(1)
}

func (_m *RoomRepository) FindByInviteCode(ctx context.Context, code string) (*domain.Room, error) {
	ret := _m.Called(ctx, code)
	var r0 *domain.Room
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Room)
	}
	return r0, ret.Error(1)
}

func (_m *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	ret := _m.Called(ctx, room)
	return ret.Error(0)
}

func (_m *RoomRepository) IsInviteCodeExists(ctx context.Context, code string) (bool, error) {
	ret := _m.Called(ctx, code)
	return ret.Bool(0), ret.Error(1)
}

// MeetingRepository 是 repository.MeetingRepository 的 Mock
type MeetingRepository struct {
	mock.Mock
}

func (_m *MeetingRepository) FindByID(ctx context.Context, id uint) (*domain.Meeting, error) {
	ret := _m.Called(ctx, id)
	var r0 *domain.Meeting
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Meeting)
	}
	return r0, ret.Error(1)
}

func (_m *MeetingRepository) FindOpenByRoom(ctx context.Context, roomID uint) (*domain.Meeting, error) {
	ret := _m.Called(ctx, roomID)
	var r0 *domain.Meeting
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.Meeting)
	}
	return r0, ret.Error(1)
}

func (_m *MeetingRepository) Save(ctx context.Context, meeting *domain.Meeting) error {
	ret := _m.Called(ctx, meeting)
	return ret.Error(0)
}

// TurnRepository 是 repository.TurnRepository 的 Mock
type TurnRepository struct {
	mock.Mock
}

func (_m *TurnRepository) Save(ctx context.Context, turn *domain.Turn) error {
	ret := _m.Called(ctx, turn)
	return ret.Error(0)
}

func (_m *TurnRepository) FindByMeeting(ctx context.Context, meetingID uint) ([]domain.Turn, error) {
	ret := _m.Called(ctx, meetingID)
	var r0 []domain.Turn
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.Turn)
	}
	return r0, ret.Error(1)
}

// SpeakerUpdateRepository 是 repository.SpeakerUpdateRepository 的 Mock
type SpeakerUpdateRepository struct {
	mock.Mock
}

func (_m *SpeakerUpdateRepository) Save(ctx context.Context, update *domain.SpeakerUpdate) error {
	ret := _m.Called(ctx, update)
	return ret.Error(0)
}

func (_m *SpeakerUpdateRepository) FindByMeeting(ctx context.Context, meetingID uint) ([]domain.SpeakerUpdate, error) {
	ret := _m.Called(ctx, meetingID)
	var r0 []domain.SpeakerUpdate
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.SpeakerUpdate)
	}
	return r0, ret.Error(1)
}

// ActionItemRepository 是 repository.ActionItemRepository 的 Mock
type ActionItemRepository struct {
	mock.Mock
}

func (_m *ActionItemRepository) SaveBatch(ctx context.Context, items []domain.ActionItem) error {
	ret := _m.Called(ctx, items)
	return ret.Error(0)
}

func (_m *ActionItemRepository) Save(ctx context.Context, item *domain.ActionItem) error {
	ret := _m.Called(ctx, item)
	return ret.Error(0)
}

func (_m *ActionItemRepository) FindByID(ctx context.Context, id uint) (*domain.ActionItem, error) {
	ret := _m.Called(ctx, id)
	var r0 *domain.ActionItem
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.ActionItem)
	}
	return r0, ret.Error(1)
}

func (_m *ActionItemRepository) FindByMeeting(ctx context.Context, meetingID uint) ([]domain.ActionItem, error) {
	ret := _m.Called(ctx, meetingID)
	var r0 []domain.ActionItem
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.ActionItem)
	}
	return r0, ret.Error(1)
}

func (_m *ActionItemRepository) FindByRoom(ctx context.Context, roomID uint) ([]domain.ActionItem, error) {
	ret := _m.Called(ctx, roomID)
	var r0 []domain.ActionItem
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.ActionItem)
	}
	return r0, ret.Error(1)
}

// SummaryRepository 是 repository.SummaryRepository 的 Mock
type SummaryRepository struct {
	mock.Mock
}

func (_m *SummaryRepository) FindByMeeting(ctx context.Context, meetingID uint) (*domain.MeetingSummary, error) {
	ret := _m.Called(ctx, meetingID)
	var r0 *domain.MeetingSummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*domain.MeetingSummary)
	}
	return r0, ret.Error(1)
}

func (_m *SummaryRepository) Save(ctx context.Context, summary *domain.MeetingSummary) error {
	ret := _m.Called(ctx, summary)
	return ret.Error(0)
}

// SessionRepository 是 repository.SessionRepository 的 Mock
type SessionRepository struct {
	mock.Mock
}

func (_m *SessionRepository) SetSubState(ctx context.Context, meetingID uint, state domain.SubState, ttl time.Duration) error {
	ret := _m.Called(ctx, meetingID, state, ttl)
	return ret.Error(0)
}

func (_m *SessionRepository) GetSubState(ctx context.Context, meetingID uint) (domain.SubState, error) {
	ret := _m.Called(ctx, meetingID)
	return ret.Get(0).(domain.SubState), ret.Error(1)
}

func (_m *SessionRepository) ClearSubState(ctx context.Context, meetingID uint) error {
	ret := _m.Called(ctx, meetingID)
	return ret.Error(0)
}

func (_m *SessionRepository) PublishMeetingEvent(ctx context.Context, meetingID uint, payload []byte) error {
	ret := _m.Called(ctx, meetingID, payload)
	return ret.Error(0)
}

func (_m *SessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, duration time.Duration) (bool, error) {
	ret := _m.Called(ctx, key, limit, duration)
	return ret.Bool(0), ret.Error(1)
}

func (_m *SessionRepository) CleanupMeetingState(ctx context.Context, meetingID uint) error {
	ret := _m.Called(ctx, meetingID)
	return ret.Error(0)
}
