package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/llm"
	"scrum-and-tell/internal/repository"
)

// TurnInput 是一条发言完成事件携带的数据。
type TurnInput struct {
	SpeakerID   string
	SpeakerName string
	Text        string
	StartedAt   time.Time
	EndedAt     time.Time
}

// TurnResult 是一次成功处理的产出。
type TurnResult struct {
	Turn          *domain.Turn
	Update        *domain.SpeakerUpdate
	ActionItems   []domain.ActionItem
	AgentResponse string // 主持人口头回应，交给语音客户端播报
}

// TurnService 实现发言处理管线：
// 一条发言 → 持久化 Turn → 抽取调用 → 持久化 SpeakerUpdate + ActionItems。
// 同一会议同一时刻最多一次抽取在途（进程内标志，见 inflightSet 的说明）。
type TurnService struct {
	meetingRepo repository.MeetingRepository
	roomRepo    repository.RoomRepository
	turnRepo    repository.TurnRepository
	updateRepo  repository.SpeakerUpdateRepository
	itemRepo    repository.ActionItemRepository
	sessionRepo repository.SessionRepository
	extractor   llm.Client
	inflight    *inflightSet
}

// NewTurnService 创建 TurnService 实例。
func NewTurnService(
	meetingRepo repository.MeetingRepository,
	roomRepo repository.RoomRepository,
	turnRepo repository.TurnRepository,
	updateRepo repository.SpeakerUpdateRepository,
	itemRepo repository.ActionItemRepository,
	sessionRepo repository.SessionRepository,
	extractor llm.Client,
) *TurnService {
	if meetingRepo == nil || roomRepo == nil || turnRepo == nil ||
		updateRepo == nil || itemRepo == nil || sessionRepo == nil || extractor == nil {
		panic("all dependencies must be non-nil for TurnService")
	}
	return &TurnService{
		meetingRepo: meetingRepo,
		roomRepo:    roomRepo,
		turnRepo:    turnRepo,
		updateRepo:  updateRepo,
		itemRepo:    itemRepo,
		sessionRepo: sessionRepo,
		extractor:   extractor,
		inflight:    newInflightSet(),
	}
}

// ProcessTurn 处理一条完整发言。
// 前置条件：会议持久化状态为 active（否则 ErrMeetingNotActive，无副作用）；
// 该会议没有其他处理中的发言（否则 ErrMeetingBusy，不排队，由上游决定重投或丢弃）。
// 原始 Turn 在抽取之前无条件落库：抽取失败时转录仍然保留，
// 这是可见的降级状态而不是致命错误，不做回滚。
// 无论成功失败，子状态都会回到 listening，绝不把会议留在 processing。
func (s *TurnService) ProcessTurn(ctx context.Context, userID, meetingID uint, input TurnInput) (*TurnResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"meeting_id": meetingID,
		"speaker_id": input.SpeakerID,
	})

	if strings.TrimSpace(input.Text) == "" {
		return nil, fmt.Errorf("%w: utterance text is empty", ErrInvalidInput)
	}

	// 1. 鉴权 + 状态门禁
	meeting, room, err := s.authorizeMeeting(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != domain.MeetingStatusActive {
		logCtx.WithField("status", meeting.Status).Warn("ProcessTurn: Meeting is not active, rejecting turn")
		return nil, ErrMeetingNotActive
	}

	// 2. 在途保护：同一会议串行处理，不排队
	if !s.inflight.acquire(meetingID) {
		logCtx.Warn("ProcessTurn: Another turn is in flight for this meeting, rejecting")
		return nil, ErrMeetingBusy
	}
	defer s.inflight.release(meetingID)

	// 3. 进入 processing 子状态；退出时无论成败都回到 listening
	if err := s.sessionRepo.SetSubState(ctx, meetingID, domain.SubStateProcessing, subStateTTL); err != nil {
		logCtx.WithError(err).Warn("ProcessTurn: Failed to set processing sub-state")
	}
	defer func() {
		if err := s.sessionRepo.SetSubState(ctx, meetingID, domain.SubStateListening, subStateTTL); err != nil {
			logCtx.WithError(err).Warn("ProcessTurn: Failed to reset sub-state to listening")
		}
	}()

	// 4. 先落库原始发言，保证转录永不丢失
	now := time.Now().UTC()
	startedAt := input.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}
	endedAt := input.EndedAt
	if endedAt.IsZero() {
		endedAt = now
	}
	turn := &domain.Turn{
		MeetingID:   meetingID,
		SpeakerID:   input.SpeakerID,
		SpeakerName: input.SpeakerName,
		Text:        input.Text,
		StartedAt:   startedAt,
		EndedAt:     endedAt,
	}
	if err := s.turnRepo.Save(ctx, turn); err != nil {
		logCtx.WithError(err).Error("ProcessTurn: Failed to persist raw turn")
		return nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("turn_id", turn.ID)

	// 5. 抽取调用
	extraction, err := s.extractor.Extract(ctx, llm.ExtractionInput{
		UtteranceText: input.Text,
		SpeakerName:   input.SpeakerName,
		RoomContext:   room.Context,
		RoomGoal:      room.Goal,
	})
	if err != nil {
		// 原始 Turn 保留，转录可见但没有结构化结果
		logCtx.WithError(err).Error("ProcessTurn: Extraction failed, raw turn retained")
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	// 6. 持久化抽取结果
	actionTasks := make(domain.StringList, 0, len(extraction.ProposedActions))
	for _, pa := range extraction.ProposedActions {
		actionTasks = append(actionTasks, pa.Task)
	}
	update := &domain.SpeakerUpdate{
		MeetingID:   meetingID,
		SpeakerID:   input.SpeakerID,
		SpeakerName: input.SpeakerName,
		Summary:     extraction.Summary,
		Risks:       domain.StringList(extraction.Risks),
		Gaps:        domain.StringList(extraction.Gaps),
		ActionTasks: actionTasks,
	}
	if err := s.updateRepo.Save(ctx, update); err != nil {
		logCtx.WithError(err).Error("ProcessTurn: Failed to persist speaker update")
		return nil, ErrInternalServer
	}

	// 7. 批量持久化行动项（归属人缺失时默认 "Unassigned"）
	items := make([]domain.ActionItem, 0, len(extraction.ProposedActions))
	for _, pa := range extraction.ProposedActions {
		owner := strings.TrimSpace(pa.Owner)
		if owner == "" {
			owner = domain.DefaultActionOwner
		}
		items = append(items, domain.ActionItem{
			MeetingID: meetingID,
			RoomID:    room.ID,
			Task:      pa.Task,
			Owner:     owner,
			Status:    domain.ActionItemStatusPending,
		})
	}
	if len(items) > 0 {
		if err := s.itemRepo.SaveBatch(ctx, items); err != nil {
			logCtx.WithError(err).Error("ProcessTurn: Failed to persist action items")
			return nil, ErrInternalServer
		}
	}

	result := &TurnResult{
		Turn:          turn,
		Update:        update,
		ActionItems:   items,
		AgentResponse: extraction.AgentResponse,
	}
	s.publishTurnEvent(ctx, meetingID, result)

	logCtx.WithFields(logrus.Fields{
		"action_items": len(items),
		"risks":        len(extraction.Risks),
		"gaps":         len(extraction.Gaps),
	}).Info("Turn processed successfully")
	return result, nil
}

// GetTranscript 获取会议的全部发言与抽取结果，供回放/展示使用。
func (s *TurnService) GetTranscript(ctx context.Context, userID, meetingID uint) ([]domain.Turn, []domain.SpeakerUpdate, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "meeting_id": meetingID})

	if _, _, err := s.authorizeMeeting(ctx, userID, meetingID); err != nil {
		return nil, nil, err
	}

	turns, err := s.turnRepo.FindByMeeting(ctx, meetingID)
	if err != nil {
		logCtx.WithError(err).Error("GetTranscript: Failed to load turns")
		return nil, nil, ErrInternalServer
	}
	updates, err := s.updateRepo.FindByMeeting(ctx, meetingID)
	if err != nil {
		logCtx.WithError(err).Error("GetTranscript: Failed to load speaker updates")
		return nil, nil, ErrInternalServer
	}
	return turns, updates, nil
}

// --- 私有辅助函数 ---

// authorizeMeeting 获取会议及其房间并检查调用者是否为房主。
func (s *TurnService) authorizeMeeting(ctx context.Context, userID, meetingID uint) (*domain.Meeting, *domain.Room, error) {
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
		logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": room.ID}).Warn("Caller does not own the room")
		return nil, nil, ErrUnauthorized
	}
	return meeting, room, nil
}

// publishTurnEvent 将处理结果广播到会议频道（尽力而为）。
func (s *TurnService) publishTurnEvent(ctx context.Context, meetingID uint, result *TurnResult) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":           "turn_processed",
		"event_id":       uuid.NewString(),
		"meeting_id":     meetingID,
		"turn_id":        result.Turn.ID,
		"speaker_name":   result.Turn.SpeakerName,
		"summary":        result.Update.Summary,
		"risks":          result.Update.Risks,
		"gaps":           result.Update.Gaps,
		"action_items":   len(result.ActionItems),
		"agent_response": result.AgentResponse,
	})
	if err != nil {
		return
	}
	if err := s.sessionRepo.PublishMeetingEvent(ctx, meetingID, payload); err != nil {
		logrus.WithError(err).WithField("meeting_id", meetingID).Warn("Failed to publish turn event")
	}
}
