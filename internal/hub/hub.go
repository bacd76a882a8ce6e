package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"scrum-and-tell/internal/service"
	redisstate "scrum-and-tell/internal/infra/state/redis"
)

// 包级别的 WebSocket 常量，供 hub 和 client 包内使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	// 发言文本可能较长，给足余量
	maxMessageSize = 16384
)

// HubMessage 定义了在 Hub 内部通道传递的消息类型
type HubMessage struct {
	Type      string  // "register", "unregister", "utterance"
	MeetingID uint    // 会议 ID
	UserID    uint    // 来源用户 ID
	Client    *Client // 仅用于 register/unregister（和 utterance 关联的 client）
	RawData   []byte  // 仅用于 utterance（原始 WebSocket 消息）
}

// utteranceMessage 是客户端通过 WebSocket 上报的发言完成事件。
type utteranceMessage struct {
	Type        string    `json:"type"`
	SpeakerID   string    `json:"speaker_id"`
	SpeakerName string    `json:"speaker_name"`
	Text        string    `json:"text"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}

// Hub 维护活跃客户端集合并协调消息处理。
// 广播走 Redis 频道：服务层把事件 Publish 到会议频道，
// Hub 为每个有客户端的会议维护一个订阅并把消息扇出到本地连接。
// 本地处理成功后不直接广播，避免和订阅转发重复投递。
type Hub struct {
	messageChan chan HubMessage

	// 客户端集合，按 MeetingID 组织
	meetings   map[uint]map[*Client]bool
	meetingsMu sync.RWMutex

	// 每个会议一个 Redis 订阅
	subs   map[uint]*meetingSubscription
	subsMu sync.Mutex

	turnService *service.TurnService
	redisClient *redis.Client
	keyPrefix   string
}

// meetingSubscription 持有一个会议频道的 Redis 订阅及其取消函数。
type meetingSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub(turnService *service.TurnService, redisClient *redis.Client, keyPrefix string) *Hub {
	if turnService == nil {
		panic("TurnService cannot be nil for Hub")
	}
	if redisClient == nil {
		panic("Redis client cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		meetings:    make(map[uint]map[*Client]bool),
		subs:        make(map[uint]*meetingSubscription),
		turnService: turnService,
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
	}
}

// Run 启动 Hub 的主事件处理循环。
// 它应该在一个单独的 goroutine 中运行。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for msg := range h.messageChan {
		switch msg.Type {
		case "register":
			h.registerClient(msg.Client)
		case "unregister":
			h.unregisterClient(msg.Client)
		case "utterance":
			// 发言处理涉及模型调用，异步执行避免阻塞 Hub 主循环；
			// 同一会议的串行化由服务层的在途保护负责
			go h.handleUtterance(msg)
		default:
			log.Warnf("Hub: Received unknown message type: %s from user %d in meeting %d", msg.Type, msg.UserID, msg.MeetingID)
		}
	}
	log.Info("Hub is shutting down...")
}

// registerClient 处理客户端注册逻辑
func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	meetingID := client.MeetingID()
	logCtx := logrus.WithFields(logrus.Fields{
		"meeting_id": meetingID,
		"user_id":    client.UserID(),
		"action":     "registerClient",
	})

	h.meetingsMu.Lock()
	if _, ok := h.meetings[meetingID]; !ok {
		h.meetings[meetingID] = make(map[*Client]bool)
		logCtx.Info("Client list created for new meeting")
	}
	h.meetings[meetingID][client] = true
	h.meetingsMu.Unlock()
	logCtx.Info("Client registered to Hub")

	h.ensureSubscription(meetingID)
}

// unregisterClient 处理客户端注销逻辑
func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	meetingID := client.MeetingID()
	logCtx := logrus.WithFields(logrus.Fields{
		"meeting_id": meetingID,
		"user_id":    client.UserID(),
		"action":     "unregisterClient",
	})

	meetingEmpty := false
	h.meetingsMu.Lock()
	if meetingClients, exists := h.meetings[meetingID]; exists {
		if _, clientExists := meetingClients[client]; clientExists {
			delete(meetingClients, client)

			// 防止重复关闭 panic
			select {
			case <-client.send:
				logCtx.Warn("Client send channel already closed or has data during unregister")
			default:
				close(client.send)
			}

			if len(meetingClients) == 0 {
				delete(h.meetings, meetingID)
				meetingEmpty = true
			}
		} else {
			logCtx.Warn("Client not found in meeting during unregister")
		}
	} else {
		logCtx.Warn("Meeting not found during client unregister")
	}
	h.meetingsMu.Unlock()

	if meetingEmpty {
		h.dropSubscription(meetingID)
		logCtx.Info("Meeting empty, subscription dropped")
	}
	logCtx.Info("Client unregistered from Hub")
}

// handleUtterance 异步处理客户端上报的发言完成事件
func (h *Hub) handleUtterance(msg HubMessage) {
	ctx := context.Background()
	logCtx := logrus.WithFields(logrus.Fields{
		"meeting_id": msg.MeetingID,
		"user_id":    msg.UserID,
		"operation":  "handleUtterance",
	})

	var um utteranceMessage
	if err := json.Unmarshal(msg.RawData, &um); err != nil {
		logCtx.WithError(err).Warn("Failed to unmarshal client message")
		h.sendError(msg.Client, "invalid_message", "Malformed message")
		return
	}
	if um.Type != "utterance_complete" {
		logCtx.Warnf("Unsupported client message type: %s", um.Type)
		h.sendError(msg.Client, "invalid_message", "Unsupported message type")
		return
	}

	result, err := h.turnService.ProcessTurn(ctx, msg.UserID, msg.MeetingID, service.TurnInput{
		SpeakerID:   um.SpeakerID,
		SpeakerName: um.SpeakerName,
		Text:        um.Text,
		StartedAt:   um.StartedAt,
		EndedAt:     um.EndedAt,
	})
	if err != nil {
		logCtx.WithError(err).Warn("Turn processing failed")
		h.sendError(msg.Client, errorCode(err), err.Error())
		return
	}

	// 广播由服务层发布的 Redis 事件经订阅转发完成，
	// 这里只给发言的客户端一个带完整结果的直接回执
	ack, marshalErr := json.Marshal(map[string]interface{}{
		"type":           "turn_ack",
		"turn_id":        result.Turn.ID,
		"summary":        result.Update.Summary,
		"risks":          result.Update.Risks,
		"gaps":           result.Update.Gaps,
		"action_items":   result.ActionItems,
		"agent_response": result.AgentResponse,
	})
	if marshalErr == nil {
		h.sendDirect(msg.Client, ack)
	}
	logCtx.WithField("turn_id", result.Turn.ID).Info("Utterance processed via Hub")
}

// ensureSubscription 保证会议频道有且只有一个 Redis 订阅。
func (h *Hub) ensureSubscription(meetingID uint) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	if _, ok := h.subs[meetingID]; ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	channel := redisstate.MeetingChannel(h.keyPrefix, meetingID)
	pubsub := h.redisClient.Subscribe(ctx, channel)
	h.subs[meetingID] = &meetingSubscription{pubsub: pubsub, cancel: cancel}

	go h.forwardEvents(ctx, meetingID, pubsub)
	logrus.WithFields(logrus.Fields{"meeting_id": meetingID, "channel": channel}).Info("Subscribed to meeting channel")
}

// dropSubscription 取消并移除会议频道的订阅。
func (h *Hub) dropSubscription(meetingID uint) {
	h.subsMu.Lock()
	sub, ok := h.subs[meetingID]
	if ok {
		delete(h.subs, meetingID)
	}
	h.subsMu.Unlock()
	if !ok {
		return
	}
	sub.cancel()
	if err := sub.pubsub.Close(); err != nil {
		logrus.WithError(err).WithField("meeting_id", meetingID).Warn("Failed to close meeting subscription")
	}
}

// forwardEvents 把 Redis 频道上的事件扇出到本地客户端。
func (h *Hub) forwardEvents(ctx context.Context, meetingID uint, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(meetingID, []byte(msg.Payload))
		}
	}
}

// broadcast 将消息发送给指定会议的所有本地客户端。
func (h *Hub) broadcast(meetingID uint, message []byte) {
	h.meetingsMu.RLock()
	meetingClients, ok := h.meetings[meetingID]
	clientsToSend := make([]*Client, 0, len(meetingClients))
	if ok {
		for client := range meetingClients {
			clientsToSend = append(clientsToSend, client)
		}
	}
	h.meetingsMu.RUnlock()

	if len(clientsToSend) == 0 {
		return
	}

	for _, client := range clientsToSend {
		// 非阻塞发送，避免单个慢客户端阻塞广播
		select {
		case client.send <- message:
		default:
			logrus.WithFields(logrus.Fields{
				"meeting_id":       meetingID,
				"receiver_user_id": client.UserID(),
			}).Warn("Client send channel full during broadcast, skipping this client")
		}
	}
}

// sendDirect 向单个客户端发送消息（非阻塞）。
func (h *Hub) sendDirect(client *Client, message []byte) {
	if client == nil {
		return
	}
	select {
	case client.send <- message:
	default:
		logrus.WithFields(logrus.Fields{
			"meeting_id": client.MeetingID(),
			"user_id":    client.UserID(),
		}).Warn("Client send channel full, dropping direct message")
	}
}

// sendError 向单个客户端发送错误帧。
func (h *Hub) sendError(client *Client, code, message string) {
	payload, err := json.Marshal(map[string]string{
		"type":    "error",
		"code":    code,
		"message": message,
	})
	if err != nil {
		return
	}
	h.sendDirect(client, payload)
}

// errorCode 把服务层错误映射成客户端可识别的错误码。
func errorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrMeetingBusy):
		return "meeting_busy"
	case errors.Is(err, service.ErrMeetingNotActive):
		return "meeting_not_active"
	case errors.Is(err, service.ErrExtractionFailed):
		return "extraction_failed"
	case errors.Is(err, service.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, service.ErrMeetingNotFound):
		return "meeting_not_found"
	case errors.Is(err, service.ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal_error"
	}
}

// QueueMessage 将消息放入 Hub 的处理队列（非阻塞）。
// 这是 Client 向 Hub 发送消息的安全方式。
// 返回 true 如果消息成功入队，false 如果队列已满。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithFields(logrus.Fields{
			"message_type": msg.Type,
			"meeting_id":   msg.MeetingID,
			"user_id":      msg.UserID,
		}).Warn("Hub message channel full, dropping message")
		return false
	}
}

// StopAllSubscriptions 关闭全部会议订阅，供优雅退出时调用。
func (h *Hub) StopAllSubscriptions() {
	h.subsMu.Lock()
	subs := h.subs
	h.subs = make(map[uint]*meetingSubscription)
	h.subsMu.Unlock()

	for meetingID, sub := range subs {
		sub.cancel()
		if err := sub.pubsub.Close(); err != nil {
			logrus.WithError(err).WithField("meeting_id", meetingID).Warn("Failed to close meeting subscription")
		}
	}
}
