package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/llm"
	llmmocks "scrum-and-tell/internal/llm/mocks"
	"scrum-and-tell/internal/repository/mocks"
	"scrum-and-tell/internal/service"
)

type turnFixture struct {
	meetingRepo *mocks.MeetingRepository
	roomRepo    *mocks.RoomRepository
	turnRepo    *mocks.TurnRepository
	updateRepo  *mocks.SpeakerUpdateRepository
	itemRepo    *mocks.ActionItemRepository
	sessionRepo *mocks.SessionRepository
	extractor   *llmmocks.Client
	svc         *service.TurnService
}

func newTurnFixture() *turnFixture {
	f := &turnFixture{
		meetingRepo: new(mocks.MeetingRepository),
		roomRepo:    new(mocks.RoomRepository),
		turnRepo:    new(mocks.TurnRepository),
		updateRepo:  new(mocks.SpeakerUpdateRepository),
		itemRepo:    new(mocks.ActionItemRepository),
		sessionRepo: new(mocks.SessionRepository),
		extractor:   new(llmmocks.Client),
	}
	f.svc = service.NewTurnService(f.meetingRepo, f.roomRepo, f.turnRepo, f.updateRepo, f.itemRepo, f.sessionRepo, f.extractor)
	return f
}

func (f *turnFixture) expectActiveMeeting(ctx context.Context) {
	now := time.Now().UTC()
	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusActive, StartedAt: &now}
	f.meetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil)
	f.roomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil)
}

func sampleTurnInput() service.TurnInput {
	return service.TurnInput{
		SpeakerID:   "alice",
		SpeakerName: "Alice",
		Text:        "Yesterday I finished the migration. Bob should review the rollback plan.",
		StartedAt:   time.Date(2025, 6, 1, 9, 5, 0, 0, time.UTC),
		EndedAt:     time.Date(2025, 6, 1, 9, 6, 0, 0, time.UTC),
	}
}

func TestTurnService_ProcessTurn_Success(t *testing.T) {
	f := newTurnFixture()
	ctx := context.Background()
	f.expectActiveMeeting(ctx)

	f.sessionRepo.On("SetSubState", ctx, meetingID, domain.SubStateProcessing, mock.Anything).Return(nil).Once()
	f.sessionRepo.On("SetSubState", ctx, meetingID, domain.SubStateListening, mock.Anything).Return(nil).Once()

	f.turnRepo.On("Save", ctx, mock.MatchedBy(func(turn *domain.Turn) bool {
		return turn.MeetingID == meetingID && turn.SpeakerID == "alice" && turn.Text != ""
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Turn).ID = 500
		}).
		Return(nil).Once()

	extraction := &llm.ExtractionResult{
		Summary:       "Finished the migration.",
		Risks:         []string{"rollback untested"},
		Gaps:          []string{},
		AgentResponse: "Thanks Alice. Bob, the rollback review is on you.",
		ProposedActions: []llm.ProposedAction{
			{Task: "Review the rollback plan", Owner: "Bob"},
			{Task: "Document migration steps", Owner: "   "}, // 归属人缺失
		},
	}
	f.extractor.On("Extract", ctx, mock.MatchedBy(func(in llm.ExtractionInput) bool {
		// 房间目标与背景必须传给抽取调用
		return in.SpeakerName == "Alice" && in.RoomGoal == "ship v2" && in.RoomContext == "backend team"
	})).Return(extraction, nil).Once()

	f.updateRepo.On("Save", ctx, mock.MatchedBy(func(u *domain.SpeakerUpdate) bool {
		return u.MeetingID == meetingID && u.Summary == "Finished the migration." && len(u.ActionTasks) == 2
	})).Return(nil).Once()

	f.itemRepo.On("SaveBatch", ctx, mock.MatchedBy(func(items []domain.ActionItem) bool {
		if len(items) != 2 {
			return false
		}
		// 空白归属人替换为默认值
		return items[0].Owner == "Bob" && items[1].Owner == domain.DefaultActionOwner &&
			items[0].Status == domain.ActionItemStatusPending
	})).Return(nil).Once()

	f.sessionRepo.On("PublishMeetingEvent", ctx, meetingID, mock.Anything).Return(nil).Once()

	result, err := f.svc.ProcessTurn(ctx, ownerID, meetingID, sampleTurnInput())

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, uint(500), result.Turn.ID)
	assert.Equal(t, "Thanks Alice. Bob, the rollback review is on you.", result.AgentResponse)
	assert.Len(t, result.ActionItems, 2)

	f.turnRepo.AssertExpectations(t)
	f.updateRepo.AssertExpectations(t)
	f.itemRepo.AssertExpectations(t)
	f.sessionRepo.AssertExpectations(t)
	f.extractor.AssertExpectations(t)
}

func TestTurnService_ProcessTurn_MeetingNotActive(t *testing.T) {
	f := newTurnFixture()
	ctx := context.Background()

	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusPaused}
	f.meetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil).Once()
	f.roomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil).Once()

	_, err := f.svc.ProcessTurn(ctx, ownerID, meetingID, sampleTurnInput())

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrMeetingNotActive))
	// 非 active 状态下不得有任何副作用
	f.turnRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestTurnService_ProcessTurn_EmptyText(t *testing.T) {
	f := newTurnFixture()

	input := sampleTurnInput()
	input.Text = "   "
	_, err := f.svc.ProcessTurn(context.Background(), ownerID, meetingID, input)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidInput))
	f.meetingRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestTurnService_ProcessTurn_ExtractionFailure_RetainsRawTurn(t *testing.T) {
	f := newTurnFixture()
	ctx := context.Background()
	f.expectActiveMeeting(ctx)

	f.sessionRepo.On("SetSubState", ctx, meetingID, domain.SubStateProcessing, mock.Anything).Return(nil).Once()
	// 失败路径也必须回到 listening
	f.sessionRepo.On("SetSubState", ctx, meetingID, domain.SubStateListening, mock.Anything).Return(nil).Once()

	f.turnRepo.On("Save", ctx, mock.AnythingOfType("*domain.Turn")).Return(nil).Once()
	f.extractor.On("Extract", ctx, mock.Anything).Return(nil, errors.New("model timeout")).Once()

	_, err := f.svc.ProcessTurn(ctx, ownerID, meetingID, sampleTurnInput())

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrExtractionFailed))
	// 原始 Turn 已落库且不回滚；结构化结果不写入
	f.turnRepo.AssertExpectations(t)
	f.updateRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.itemRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	f.sessionRepo.AssertExpectations(t)
}

func TestTurnService_ProcessTurn_RejectsConcurrentTurn(t *testing.T) {
	f := newTurnFixture()
	ctx := context.Background()
	f.expectActiveMeeting(ctx)

	f.sessionRepo.On("SetSubState", ctx, meetingID, mock.Anything, mock.Anything).Return(nil)
	f.sessionRepo.On("PublishMeetingEvent", ctx, meetingID, mock.Anything).Return(nil)
	f.turnRepo.On("Save", ctx, mock.AnythingOfType("*domain.Turn")).Return(nil).Once()

	extraction := &llm.ExtractionResult{Summary: "ok", AgentResponse: "noted"}
	f.extractor.On("Extract", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			// 第一条发言仍在处理中时，同一会议的第二条必须被拒绝
			_, err := f.svc.ProcessTurn(ctx, ownerID, meetingID, sampleTurnInput())
			require.Error(t, err)
			assert.True(t, errors.Is(err, service.ErrMeetingBusy))
		}).
		Return(extraction, nil).Once()
	f.updateRepo.On("Save", ctx, mock.AnythingOfType("*domain.SpeakerUpdate")).Return(nil).Once()

	result, err := f.svc.ProcessTurn(ctx, ownerID, meetingID, sampleTurnInput())

	assert.NoError(t, err, "第一条发言应正常完成")
	require.NotNil(t, result)
	// 没有行动项时不应调用批量写入
	f.itemRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
}

func TestTurnService_GetTranscript(t *testing.T) {
	f := newTurnFixture()
	ctx := context.Background()
	f.expectActiveMeeting(ctx)

	turns := []domain.Turn{{MeetingID: meetingID, SpeakerName: "Alice", Text: "done"}}
	updates := []domain.SpeakerUpdate{{MeetingID: meetingID, SpeakerName: "Alice", Summary: "done"}}
	f.turnRepo.On("FindByMeeting", ctx, meetingID).Return(turns, nil).Once()
	f.updateRepo.On("FindByMeeting", ctx, meetingID).Return(updates, nil).Once()

	gotTurns, gotUpdates, err := f.svc.GetTranscript(ctx, ownerID, meetingID)

	assert.NoError(t, err)
	assert.Len(t, gotTurns, 1)
	assert.Len(t, gotUpdates, 1)
}
