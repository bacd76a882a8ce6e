package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/repository"
	"scrum-and-tell/internal/tasks"
)

// subStateTTL 是瞬时子状态在 Redis 中的存活时间。
// 失联的主持会话超过该时间后，会议自动回到"无子状态"，不会永远卡在 processing。
const subStateTTL = 2 * time.Minute

// TaskEnqueuer 抽象了 asynq.Client 的入队能力，方便测试替换。
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// MeetingService 实现会议生命周期状态机。
// 状态机: lobby (初始) → active ⇄ paused → ended (终态)。
// 所有转换操作先做房主鉴权，未授权调用不产生任何状态变化。
type MeetingService struct {
	meetingRepo repository.MeetingRepository
	roomRepo    repository.RoomRepository
	sessionRepo repository.SessionRepository
	enqueuer    TaskEnqueuer // 会议结束时入队汇总生成任务；可以为 nil (例如测试)
}

// NewMeetingService 创建 MeetingService 实例。
func NewMeetingService(
	meetingRepo repository.MeetingRepository,
	roomRepo repository.RoomRepository,
	sessionRepo repository.SessionRepository,
	enqueuer TaskEnqueuer,
) *MeetingService {
	if meetingRepo == nil || roomRepo == nil || sessionRepo == nil {
		panic("MeetingRepository, RoomRepository and SessionRepository must be non-nil for MeetingService")
	}
	return &MeetingService{
		meetingRepo: meetingRepo,
		roomRepo:    roomRepo,
		sessionRepo: sessionRepo,
		enqueuer:    enqueuer,
	}
}

// CreateMeeting 在房间内创建一个新会议 (状态 lobby)。
// 不变式：一个房间同时最多一个未结束会议，违反时返回 ErrMeetingConflict 且不产生新记录。
func (s *MeetingService) CreateMeeting(ctx context.Context, userID, roomID uint) (*domain.Meeting, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID})

	if _, err := s.authorizeRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}

	// 检查房间是否已有未结束会议
	existing, err := s.meetingRepo.FindOpenByRoom(ctx, roomID)
	if err != nil && !errors.Is(err, repository.ErrMeetingNotFound) {
		logCtx.WithError(err).Error("CreateMeeting: Failed to check for open meeting")
		return nil, ErrInternalServer
	}
	if existing != nil {
		logCtx.WithField("existing_meeting_id", existing.ID).Warn("CreateMeeting: Room already has an open meeting")
		return nil, ErrMeetingConflict
	}

	meeting := &domain.Meeting{
		RoomID: roomID,
		Status: domain.MeetingStatusLobby,
	}
	if err := s.meetingRepo.Save(ctx, meeting); err != nil {
		logCtx.WithError(err).Error("CreateMeeting: Failed to save new meeting")
		return nil, ErrInternalServer
	}

	logCtx.WithField("meeting_id", meeting.ID).Info("Meeting created successfully")
	return meeting, nil
}

// StartMeeting 将会议从 lobby 或 paused 转换为 active。
// StartedAt 只在首次进入 active 时设置，之后的暂停/恢复不再改变它。
func (s *MeetingService) StartMeeting(ctx context.Context, userID, meetingID uint) (*domain.Meeting, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "meeting_id": meetingID})

	meeting, _, err := s.authorizeMeeting(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}

	switch meeting.Status {
	case domain.MeetingStatusLobby, domain.MeetingStatusPaused:
		// 合法转换
	default:
		logCtx.WithField("status", meeting.Status).Warn("StartMeeting: Invalid transition")
		return nil, ErrInvalidTransition
	}

	if meeting.StartedAt == nil {
		now := time.Now().UTC()
		meeting.StartedAt = &now
	}
	meeting.Status = domain.MeetingStatusActive
	if err := s.meetingRepo.Save(ctx, meeting); err != nil {
		logCtx.WithError(err).Error("StartMeeting: Failed to save meeting")
		return nil, ErrInternalServer
	}

	s.publishStatusEvent(ctx, meeting)
	logCtx.Info("Meeting started")
	return meeting, nil
}

// PauseMeeting 将会议从 active 转换为 paused；其他状态返回 ErrInvalidTransition。
func (s *MeetingService) PauseMeeting(ctx context.Context, userID, meetingID uint) (*domain.Meeting, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "meeting_id": meetingID})

	meeting, _, err := s.authorizeMeeting(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}

	if meeting.Status != domain.MeetingStatusActive {
		logCtx.WithField("status", meeting.Status).Warn("PauseMeeting: Invalid transition")
		return nil, ErrInvalidTransition
	}

	meeting.Status = domain.MeetingStatusPaused
	if err := s.meetingRepo.Save(ctx, meeting); err != nil {
		logCtx.WithError(err).Error("PauseMeeting: Failed to save meeting")
		return nil, ErrInternalServer
	}

	// 暂停时清除子状态（尽力而为）
	if err := s.sessionRepo.ClearSubState(ctx, meetingID); err != nil {
		logCtx.WithError(err).Warn("PauseMeeting: Failed to clear sub-state")
	}

	s.publishStatusEvent(ctx, meeting)
	logCtx.Info("Meeting paused")
	return meeting, nil
}

// EndMeeting 将会议转换为终态 ended。
// 幂等：对已结束的会议再次调用是成功的 no-op，不报错。
// 结束后入队汇总生成任务（尽力而为，入队失败不阻断结束）。
func (s *MeetingService) EndMeeting(ctx context.Context, userID, meetingID uint) (*domain.Meeting, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "meeting_id": meetingID})

	meeting, _, err := s.authorizeMeeting(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}

	if meeting.Status == domain.MeetingStatusEnded {
		logCtx.Debug("EndMeeting: Meeting already ended, no-op")
		return meeting, nil
	}

	if meeting.EndedAt == nil {
		now := time.Now().UTC()
		meeting.EndedAt = &now
	}
	meeting.Status = domain.MeetingStatusEnded
	if err := s.meetingRepo.Save(ctx, meeting); err != nil {
		logCtx.WithError(err).Error("EndMeeting: Failed to save meeting")
		return nil, ErrInternalServer
	}

	// 清理瞬时会话状态（尽力而为）
	if err := s.sessionRepo.CleanupMeetingState(ctx, meetingID); err != nil {
		logCtx.WithError(err).Warn("EndMeeting: Failed to cleanup session state")
	}

	s.publishStatusEvent(ctx, meeting)
	s.enqueueSummaryTask(meetingID, logCtx)

	logCtx.Info("Meeting ended")
	return meeting, nil
}

// SetSubState 更新会议的瞬时子状态。
// 会议的持久化状态不是 active 时为 no-op（返回成功但不做任何事）。
func (s *MeetingService) SetSubState(ctx context.Context, userID, meetingID uint, state domain.SubState) error {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "meeting_id": meetingID, "sub_state": state})

	switch state {
	case domain.SubStateNone, domain.SubStateListening, domain.SubStateProcessing, domain.SubStateSpeaking:
		// 合法值
	default:
		return ErrInvalidInput
	}

	meeting, _, err := s.authorizeMeeting(ctx, userID, meetingID)
	if err != nil {
		return err
	}

	if meeting.Status != domain.MeetingStatusActive {
		logCtx.WithField("status", meeting.Status).Debug("SetSubState: Meeting not active, no-op")
		return nil
	}

	if err := s.sessionRepo.SetSubState(ctx, meetingID, state, subStateTTL); err != nil {
		logCtx.WithError(err).Error("SetSubState: Failed to set sub-state")
		return ErrInternalServer
	}

	s.publishSubStateEvent(ctx, meetingID, state)
	return nil
}

// FindMeetingByID 根据 ID 查找会议并做房主鉴权，供 Handler 使用。
func (s *MeetingService) FindMeetingByID(ctx context.Context, userID, meetingID uint) (*domain.Meeting, error) {
	meeting, _, err := s.authorizeMeeting(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

// GetMeetingState 返回会议及其当前子状态。
// 子状态只对 active 会议有意义；Redis 读取失败降级为 none，不影响主查询。
func (s *MeetingService) GetMeetingState(ctx context.Context, userID, meetingID uint) (*domain.Meeting, domain.SubState, error) {
	meeting, _, err := s.authorizeMeeting(ctx, userID, meetingID)
	if err != nil {
		return nil, domain.SubStateNone, err
	}
	subState := domain.SubStateNone
	if meeting.Status == domain.MeetingStatusActive {
		state, err := s.sessionRepo.GetSubState(ctx, meetingID)
		if err != nil {
			logrus.WithError(err).WithField("meeting_id", meetingID).Warn("GetMeetingState: Failed to read sub-state")
		} else {
			subState = state
		}
	}
	return meeting, subState, nil
}

// --- 私有辅助函数 ---

// authorizeRoom 获取房间并检查调用者是否为房主。
func (s *MeetingService) authorizeRoom(ctx context.Context, userID, roomID uint) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to load room for authorization")
		return nil, ErrInternalServer
	}
	if room.OwnerID != userID {
		logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": roomID}).Warn("Caller does not own the room")
		return nil, ErrUnauthorized
	}
	return room, nil
}

// authorizeMeeting 获取会议及其房间并检查调用者是否为房主。
func (s *MeetingService) authorizeMeeting(ctx context.Context, userID, meetingID uint) (*domain.Meeting, *domain.Room, error) {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			return nil, nil, ErrMeetingNotFound
		}
		logrus.WithError(err).WithField("meeting_id", meetingID).Error("Failed to load meeting for authorization")
		return nil, nil, ErrInternalServer
	}
	room, err := s.authorizeRoom(ctx, userID, meeting.RoomID)
	if err != nil {
		return nil, nil, err
	}
	return meeting, room, nil
}

// publishStatusEvent 将状态变化广播到会议频道（尽力而为）。
func (s *MeetingService) publishStatusEvent(ctx context.Context, meeting *domain.Meeting) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":       "meeting_status",
		"event_id":   uuid.NewString(),
		"meeting_id": meeting.ID,
		"status":     meeting.Status,
	})
	if err != nil {
		return
	}
	if err := s.sessionRepo.PublishMeetingEvent(ctx, meeting.ID, payload); err != nil {
		logrus.WithError(err).WithField("meeting_id", meeting.ID).Warn("Failed to publish meeting status event")
	}
}

// publishSubStateEvent 将子状态变化广播到会议频道（尽力而为）。
func (s *MeetingService) publishSubStateEvent(ctx context.Context, meetingID uint, state domain.SubState) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":       "sub_state",
		"event_id":   uuid.NewString(),
		"meeting_id": meetingID,
		"sub_state":  state,
	})
	if err != nil {
		return
	}
	if err := s.sessionRepo.PublishMeetingEvent(ctx, meetingID, payload); err != nil {
		logrus.WithError(err).WithField("meeting_id", meetingID).Warn("Failed to publish sub-state event")
	}
}

// enqueueSummaryTask 入队汇总生成任务，失败只记录日志。
func (s *MeetingService) enqueueSummaryTask(meetingID uint, logCtx *logrus.Entry) {
	if s.enqueuer == nil {
		logCtx.Debug("EndMeeting: No task enqueuer configured, skipping summary task")
		return
	}
	payload, err := tasks.NewSummaryGenerationTask(meetingID)
	if err != nil {
		logCtx.WithError(err).Error("EndMeeting: Failed to build summary task payload")
		return
	}
	task := asynq.NewTask(tasks.TypeSummaryGeneration, payload)
	info, err := s.enqueuer.Enqueue(task, asynq.Queue("default"), asynq.MaxRetry(5))
	if err != nil {
		// 汇总生成失败不能阻止会议进入终态；留给用户手动重新生成
		logCtx.WithError(err).Error("EndMeeting: Failed to enqueue summary generation task")
		return
	}
	logCtx.WithField("task_id", info.ID).Info("Summary generation task enqueued")
}
