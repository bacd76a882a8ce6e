package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/llm"
	llmmocks "scrum-and-tell/internal/llm/mocks"
	"scrum-and-tell/internal/repository"
	"scrum-and-tell/internal/repository/mocks"
	"scrum-and-tell/internal/service"
)

type summaryFixture struct {
	meetingRepo *mocks.MeetingRepository
	roomRepo    *mocks.RoomRepository
	turnRepo    *mocks.TurnRepository
	updateRepo  *mocks.SpeakerUpdateRepository
	itemRepo    *mocks.ActionItemRepository
	summaryRepo *mocks.SummaryRepository
	summarizer  *llmmocks.Client
	svc         *service.SummaryService
}

func newSummaryFixture() *summaryFixture {
	f := &summaryFixture{
		meetingRepo: new(mocks.MeetingRepository),
		roomRepo:    new(mocks.RoomRepository),
		turnRepo:    new(mocks.TurnRepository),
		updateRepo:  new(mocks.SpeakerUpdateRepository),
		itemRepo:    new(mocks.ActionItemRepository),
		summaryRepo: new(mocks.SummaryRepository),
		summarizer:  new(llmmocks.Client),
	}
	f.svc = service.NewSummaryService(f.meetingRepo, f.roomRepo, f.turnRepo, f.updateRepo, f.itemRepo, f.summaryRepo, f.summarizer)
	return f
}

func (f *summaryFixture) expectEndedMeeting(ctx context.Context) {
	meeting := &domain.Meeting{ID: meetingID, RoomID: roomID, Status: domain.MeetingStatusEnded}
	f.meetingRepo.On("FindByID", ctx, meetingID).Return(meeting, nil)
	f.roomRepo.On("FindByID", ctx, roomID).Return(ownedRoom(), nil)
}

func (f *summaryFixture) expectAggregationData(ctx context.Context) {
	turns := []domain.Turn{
		{MeetingID: meetingID, SpeakerName: "Alice", Text: "migration done"},
		{MeetingID: meetingID, SpeakerName: "Bob", Text: "review pending"},
	}
	updates := []domain.SpeakerUpdate{
		{
			MeetingID:   meetingID,
			SpeakerName: "Alice",
			Summary:     "migration done",
			Risks:       domain.StringList{"rollback untested"},
			ActionTasks: domain.StringList{"Review rollback plan"},
		},
	}
	items := []domain.ActionItem{
		{MeetingID: meetingID, RoomID: roomID, Task: "Review rollback plan", Owner: "Bob", Status: domain.ActionItemStatusPending},
	}
	f.turnRepo.On("FindByMeeting", ctx, meetingID).Return(turns, nil).Once()
	f.updateRepo.On("FindByMeeting", ctx, meetingID).Return(updates, nil).Once()
	f.itemRepo.On("FindByMeeting", ctx, meetingID).Return(items, nil).Once()
}

func sampleSummaryResult() *llm.SummaryResult {
	return &llm.SummaryResult{
		Overview:  "Migration shipped, rollback review outstanding.",
		Decisions: []string{"ship v2 this week"},
		Risks:     []string{"rollback untested"},
		NextSteps: []string{"Bob reviews rollback plan"},
	}
}

func TestSummaryService_GenerateSummary_CreatesNewRecord(t *testing.T) {
	f := newSummaryFixture()
	ctx := context.Background()
	f.expectEndedMeeting(ctx)
	f.expectAggregationData(ctx)

	f.summarizer.On("Summarize", ctx, mock.MatchedBy(func(in llm.SummaryInput) bool {
		// 总结输入必须携带完整聚合数据：发言、抽取摘要（含建议行动）、行动项（含状态）
		return in.RoomGoal == "ship v2" && len(in.Turns) == 2 &&
			len(in.Updates) == 1 && len(in.Updates[0].ActionTasks) == 1 &&
			len(in.ActionItems) == 1 && in.ActionItems[0].Status == string(domain.ActionItemStatusPending)
	})).Return(sampleSummaryResult(), nil).Once()

	f.summaryRepo.On("FindByMeeting", ctx, meetingID).Return(nil, repository.ErrSummaryNotFound).Once()
	f.summaryRepo.On("Save", ctx, mock.MatchedBy(func(s *domain.MeetingSummary) bool {
		return s.ID == 0 && s.MeetingID == meetingID && s.RoomID == roomID &&
			s.Overview == "Migration shipped, rollback review outstanding." && !s.GeneratedAt.IsZero()
	})).Return(nil).Once()

	summary, err := f.svc.GenerateSummary(ctx, ownerID, meetingID)

	assert.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, meetingID, summary.MeetingID)

	f.summaryRepo.AssertExpectations(t)
	f.summarizer.AssertExpectations(t)
}

func TestSummaryService_GenerateSummary_OverwritesExisting(t *testing.T) {
	f := newSummaryFixture()
	ctx := context.Background()
	f.expectEndedMeeting(ctx)
	f.expectAggregationData(ctx)

	f.summarizer.On("Summarize", ctx, mock.Anything).Return(sampleSummaryResult(), nil).Once()

	existing := &domain.MeetingSummary{MeetingID: meetingID, RoomID: roomID, Overview: "stale overview"}
	existing.ID = 7
	f.summaryRepo.On("FindByMeeting", ctx, meetingID).Return(existing, nil).Once()
	// 重新生成必须原地覆盖同一条记录，不新增
	f.summaryRepo.On("Save", ctx, mock.MatchedBy(func(s *domain.MeetingSummary) bool {
		return s.ID == 7 && s.Overview == "Migration shipped, rollback review outstanding."
	})).Return(nil).Once()

	summary, err := f.svc.GenerateSummary(ctx, ownerID, meetingID)

	assert.NoError(t, err)
	assert.Equal(t, uint(7), summary.ID)
	f.summaryRepo.AssertExpectations(t)
}

func TestSummaryService_GenerateSummary_SummarizeFails(t *testing.T) {
	f := newSummaryFixture()
	ctx := context.Background()
	f.expectEndedMeeting(ctx)
	f.expectAggregationData(ctx)

	f.summarizer.On("Summarize", ctx, mock.Anything).Return(nil, errors.New("model timeout")).Once()

	_, err := f.svc.GenerateSummary(ctx, ownerID, meetingID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrExtractionFailed))
	f.summaryRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSummaryService_GenerateSummary_NotOwner(t *testing.T) {
	f := newSummaryFixture()
	ctx := context.Background()
	f.expectEndedMeeting(ctx)

	_, err := f.svc.GenerateSummary(ctx, otherID, meetingID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrUnauthorized))
	f.summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything)
}

func TestSummaryService_GenerateSummaryAsSystem_SkipsOwnerCheck(t *testing.T) {
	f := newSummaryFixture()
	ctx := context.Background()
	f.expectEndedMeeting(ctx)
	f.expectAggregationData(ctx)

	f.summarizer.On("Summarize", ctx, mock.Anything).Return(sampleSummaryResult(), nil).Once()
	f.summaryRepo.On("FindByMeeting", ctx, meetingID).Return(nil, repository.ErrSummaryNotFound).Once()
	f.summaryRepo.On("Save", ctx, mock.AnythingOfType("*domain.MeetingSummary")).Return(nil).Once()

	// worker 路径没有调用者身份
	summary, err := f.svc.GenerateSummaryAsSystem(ctx, meetingID)

	assert.NoError(t, err)
	require.NotNil(t, summary)
}

func TestSummaryService_GetSummary_NotFound(t *testing.T) {
	f := newSummaryFixture()
	ctx := context.Background()
	f.expectEndedMeeting(ctx)

	f.summaryRepo.On("FindByMeeting", ctx, meetingID).Return(nil, repository.ErrSummaryNotFound).Once()

	_, err := f.svc.GetSummary(ctx, ownerID, meetingID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrSummaryNotFound))
}
