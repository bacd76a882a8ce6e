package repository

import (
	"context"

	"scrum-and-tell/internal/domain"
)

// SummaryRepository 定义了会议汇总记录的存储和查询。
type SummaryRepository interface {
	// FindByMeeting 获取指定会议的汇总记录。
	// 如果尚未生成，应返回 repository.ErrSummaryNotFound。
	FindByMeeting(ctx context.Context, meetingID uint) (*domain.MeetingSummary, error)

	// Save 保存汇总记录。
	// 调用方负责实现"每会议最多一条"：已存在时复用原记录的 ID 就地更新，
	// 不存在时插入新记录。MeetingID 上的唯一索引兜底防止重复插入。
	Save(ctx context.Context, summary *domain.MeetingSummary) error
}
