// Package mocks 提供 llm.Client 接口的 testify Mock 实现，仅用于测试。
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"scrum-and-tell/internal/llm"
)

// Client 是 llm.Client 的 Mock
type Client struct {
	mock.Mock
}

func (_m *Client) Extract(ctx context.Context, input llm.ExtractionInput) (*llm.ExtractionResult, error) {
	ret := _m.Called(ctx, input)
	var r0 *llm.ExtractionResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*llm.ExtractionResult)
	}
	return r0, ret.Error(1)
}

func (_m *Client) Summarize(ctx context.Context, input llm.SummaryInput) (*llm.SummaryResult, error) {
	ret := _m.Called(ctx, input)
	var r0 *llm.SummaryResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*llm.SummaryResult)
	}
	return r0, ret.Error(1)
}
