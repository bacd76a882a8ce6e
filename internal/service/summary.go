package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/llm"
	"scrum-and-tell/internal/repository"
)

// SummaryService 实现会议总结聚合：
// 汇总全部发言、抽取结果与行动项，一次汇总调用生成会议总结并按会议去重落库。
// 同一会议同一时刻最多一次汇总在途，和发言处理共用同一套进程内保护策略。
type SummaryService struct {
	meetingRepo repository.MeetingRepository
	roomRepo    repository.RoomRepository
	turnRepo    repository.TurnRepository
	updateRepo  repository.SpeakerUpdateRepository
	itemRepo    repository.ActionItemRepository
	summaryRepo repository.SummaryRepository
	summarizer  llm.Client
	inflight    *inflightSet
}

// NewSummaryService 创建 SummaryService 实例。
func NewSummaryService(
	meetingRepo repository.MeetingRepository,
	roomRepo repository.RoomRepository,
	turnRepo repository.TurnRepository,
	updateRepo repository.SpeakerUpdateRepository,
	itemRepo repository.ActionItemRepository,
	summaryRepo repository.SummaryRepository,
	summarizer llm.Client,
) *SummaryService {
	if meetingRepo == nil || roomRepo == nil || turnRepo == nil ||
		updateRepo == nil || itemRepo == nil || summaryRepo == nil || summarizer == nil {
		panic("all dependencies must be non-nil for SummaryService")
	}
	return &SummaryService{
		meetingRepo: meetingRepo,
		roomRepo:    roomRepo,
		turnRepo:    turnRepo,
		updateRepo:  updateRepo,
		itemRepo:    itemRepo,
		summaryRepo: summaryRepo,
		summarizer:  summarizer,
		inflight:    newInflightSet(),
	}
}

// GenerateSummary 由房主主动触发总结生成。
// 重复生成是幂等更新：同一会议只保留一条总结记录，重新生成原地覆盖。
func (s *SummaryService) GenerateSummary(ctx context.Context, userID, meetingID uint) (*domain.MeetingSummary, error) {
	meeting, room, err := s.authorizeMeeting(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, meeting, room)
}

// GenerateSummaryAsSystem 由后台任务触发，跳过房主校验。
// 鉴权发生在入队一侧（只有 EndMeeting 会入队），worker 以系统身份执行。
func (s *SummaryService) GenerateSummaryAsSystem(ctx context.Context, meetingID uint) (*domain.MeetingSummary, error) {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return nil, ErrMeetingNotFound
		}
		logrus.WithError(err).WithField("meeting_id", meetingID).Error("GenerateSummaryAsSystem: Failed to load meeting")
		return nil, ErrInternalServer
	}
	room, err := s.roomRepo.FindByID(ctx, meeting.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_id", meeting.RoomID).Error("GenerateSummaryAsSystem: Failed to load room")
		return nil, ErrInternalServer
	}
	return s.generate(ctx, meeting, room)
}

// GetSummary 获取已生成的会议总结。
func (s *SummaryService) GetSummary(ctx context.Context, userID, meetingID uint) (*domain.MeetingSummary, error) {
	if _, _, err := s.authorizeMeeting(ctx, userID, meetingID); err != nil {
		return nil, err
	}
	summary, err := s.summaryRepo.FindByMeeting(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrSummaryNotFound) {
			return nil, ErrSummaryNotFound
		}
		logrus.WithError(err).WithField("meeting_id", meetingID).Error("GetSummary: Failed to load summary")
		return nil, ErrInternalServer
	}
	return summary, nil
}

// generate 执行实际的聚合与落库。
func (s *SummaryService) generate(ctx context.Context, meeting *domain.Meeting, room *domain.Room) (*domain.MeetingSummary, error) {
	logCtx := logrus.WithFields(logrus.Fields{"meeting_id": meeting.ID, "room_id": room.ID})

	if !s.inflight.acquire(meeting.ID) {
		logCtx.Warn("GenerateSummary: Another summary generation is in flight for this meeting")
		return nil, ErrMeetingBusy
	}
	defer s.inflight.release(meeting.ID)

	turns, err := s.turnRepo.FindByMeeting(ctx, meeting.ID)
	if err != nil {
		logCtx.WithError(err).Error("GenerateSummary: Failed to load turns")
		return nil, ErrInternalServer
	}
	updates, err := s.updateRepo.FindByMeeting(ctx, meeting.ID)
	if err != nil {
		logCtx.WithError(err).Error("GenerateSummary: Failed to load speaker updates")
		return nil, ErrInternalServer
	}
	items, err := s.itemRepo.FindByMeeting(ctx, meeting.ID)
	if err != nil {
		logCtx.WithError(err).Error("GenerateSummary: Failed to load action items")
		return nil, ErrInternalServer
	}

	input := llm.SummaryInput{
		RoomGoal:    room.Goal,
		RoomContext: room.Context,
		Turns:       make([]llm.TurnLine, 0, len(turns)),
		Updates:     make([]llm.SpeakerDigest, 0, len(updates)),
		ActionItems: make([]llm.ActionDigest, 0, len(items)),
	}
	for _, t := range turns {
		input.Turns = append(input.Turns, llm.TurnLine{SpeakerName: t.SpeakerName, Text: t.Text})
	}
	for _, u := range updates {
		input.Updates = append(input.Updates, llm.SpeakerDigest{
			SpeakerName: u.SpeakerName,
			Summary:     u.Summary,
			Risks:       u.Risks,
			Gaps:        u.Gaps,
			ActionTasks: u.ActionTasks,
		})
	}
	for _, it := range items {
		input.ActionItems = append(input.ActionItems, llm.ActionDigest{
			Task:   it.Task,
			Owner:  it.Owner,
			Status: string(it.Status),
		})
	}

	result, err := s.summarizer.Summarize(ctx, input)
	if err != nil {
		logCtx.WithError(err).Error("GenerateSummary: Summarization failed")
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	// 按会议去重：已有记录原地覆盖，否则新建
	summary, err := s.summaryRepo.FindByMeeting(ctx, meeting.ID)
	if err != nil && !errors.Is(err, repository.ErrSummaryNotFound) {
		logCtx.WithError(err).Error("GenerateSummary: Failed to check existing summary")
		return nil, ErrInternalServer
	}
	if summary == nil {
		summary = &domain.MeetingSummary{MeetingID: meeting.ID, RoomID: room.ID}
	}
	summary.Overview = result.Overview
	summary.Decisions = domain.StringList(result.Decisions)
	summary.Risks = domain.StringList(result.Risks)
	summary.NextSteps = domain.StringList(result.NextSteps)
	summary.GeneratedAt = time.Now().UTC()

	if err := s.summaryRepo.Save(ctx, summary); err != nil {
		logCtx.WithError(err).Error("GenerateSummary: Failed to persist summary")
		return nil, ErrInternalServer
	}

	logCtx.WithFields(logrus.Fields{
		"turns":        len(turns),
		"action_items": len(items),
	}).Info("Meeting summary generated")
	return summary, nil
}

// authorizeMeeting 获取会议及其房间并检查调用者是否为房主。
func (s *SummaryService) authorizeMeeting(ctx context.Context, userID, meetingID uint) (*domain.Meeting, *domain.Room, error) {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return nil, nil, ErrMeetingNotFound
		}
		logrus.WithError(err).WithField("meeting_id", meetingID).Error("Failed to load meeting for authorization")
		return nil, nil, ErrInternalServer
	}
	room, err := s.roomRepo.FindByID(ctx, meeting.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_id", meeting.RoomID).Error("Failed to load room for authorization")
		return nil, nil, ErrInternalServer
	}
	if room.OwnerID != userID {
		return nil, nil, ErrUnauthorized
	}
	return meeting, room, nil
}
