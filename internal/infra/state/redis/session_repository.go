package redisstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"scrum-and-tell/internal/domain"
)

// RedisSessionRepository 是 SessionRepository 接口的 Redis 实现
type RedisSessionRepository struct {
	client *redis.Client
	// Redis key 的前缀，方便多环境共用同一个 Redis
	keyPrefix string
}

// NewRedisSessionRepository 创建 RedisSessionRepository 实例
func NewRedisSessionRepository(client *redis.Client, keyPrefix string) *RedisSessionRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisSessionRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "st:" // 默认前缀 "st:" (scrum-and-tell)
	}
	return &RedisSessionRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key Generation Helpers ---

func (r *RedisSessionRepository) meetingSubStateKey(meetingID uint) string {
	return fmt.Sprintf("%smeeting:%d:substate", r.keyPrefix, meetingID)
}

func (r *RedisSessionRepository) rateLimitKey(key string) string {
	return fmt.Sprintf("%sratelimit:%s", r.keyPrefix, key)
}

// MeetingChannel 返回会议事件的 Pub/Sub 频道名。
// Hub 订阅该频道以便把事件广播给本节点连接的客户端。
func MeetingChannel(keyPrefix string, meetingID uint) string {
	return fmt.Sprintf("%smeeting:%d:events", keyPrefix, meetingID)
}

// --- SessionRepository Interface Implementation ---

// SetSubState 写入会议的瞬时子状态，带 TTL 自动衰减。
func (r *RedisSessionRepository) SetSubState(ctx context.Context, meetingID uint, state domain.SubState, ttl time.Duration) error {
	key := r.meetingSubStateKey(meetingID)
	if state == domain.SubStateNone {
		// 写入空状态等价于清除
		return r.ClearSubState(ctx, meetingID)
	}
	if err := r.client.Set(ctx, key, string(state), ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to set sub-state for meeting %d on key %s: %w", meetingID, key, err)
	}
	return nil
}

// GetSubState 读取会议当前的子状态；没有记录时返回 SubStateNone。
func (r *RedisSessionRepository) GetSubState(ctx context.Context, meetingID uint) (domain.SubState, error) {
	key := r.meetingSubStateKey(meetingID)
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SubStateNone, nil // Key 不存在视为无子状态
		}
		return domain.SubStateNone, fmt.Errorf("redis: failed to get sub-state for meeting %d from %s: %w", meetingID, key, err)
	}
	return domain.SubState(val), nil
}

// ClearSubState 清除会议的子状态。
func (r *RedisSessionRepository) ClearSubState(ctx context.Context, meetingID uint) error {
	key := r.meetingSubStateKey(meetingID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: failed to clear sub-state for meeting %d on key %s: %w", meetingID, key, err)
	}
	return nil
}

// PublishMeetingEvent 将事件发布到会议频道。
func (r *RedisSessionRepository) PublishMeetingEvent(ctx context.Context, meetingID uint, payload []byte) error {
	channel := MeetingChannel(r.keyPrefix, meetingID)
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: failed to publish meeting event for meeting %d on channel %s: %w", meetingID, channel, err)
	}
	return nil
}

// CheckRateLimit 检查给定 key 的请求频率是否超限，并递增计数。
// 使用 INCR + 首次设置过期的经典计数器方案。
func (r *RedisSessionRepository) CheckRateLimit(ctx context.Context, key string, limit int, duration time.Duration) (bool, error) {
	redisKey := r.rateLimitKey(key)
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to increment rate limit counter on key %s: %w", redisKey, err)
	}
	if count == 1 {
		// 第一次计数时设置窗口过期
		if err := r.client.Expire(ctx, redisKey, duration).Err(); err != nil {
			return false, fmt.Errorf("redis: failed to set rate limit expiry on key %s: %w", redisKey, err)
		}
	}
	return count > int64(limit), nil
}

// CleanupMeetingState 清理会议相关的 Redis key。
func (r *RedisSessionRepository) CleanupMeetingState(ctx context.Context, meetingID uint) error {
	keys := []string{
		r.meetingSubStateKey(meetingID),
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: failed to cleanup state for meeting %d: %w", meetingID, err)
	}
	return nil
}
