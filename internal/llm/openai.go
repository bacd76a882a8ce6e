package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const extractionSystemPrompt = `You are the facilitator of a structured team meeting ("Scrum & Tell").
You receive one participant utterance plus the room's goal and context.
Respond ONLY with a JSON object of this exact shape:
{"summary": string, "risks": [string], "gaps": [string],
 "proposed_actions": [{"task": string, "owner": string}], "agent_response": string}
Rules:
- "summary" is a single short paragraph capturing what the speaker reported.
- Be proactive about actions: any mentioned commitment, pending task or implied
  follow-up must appear in "proposed_actions". Attribute it to a person named in
  the utterance; otherwise to the speaker; for group tasks use owner "Team".
- "agent_response" is one or two natural spoken sentences acknowledging the
  speaker and, when useful, asking the single most valuable follow-up question.
- Use empty arrays, never null.`

const summarySystemPrompt = `You summarize a finished team meeting from its accumulated data
(turns, per-speaker extractions, action items, room goal and context).
Respond ONLY with a JSON object of this exact shape:
{"overview": string, "decisions": [string], "risks": [string], "next_steps": [string]}
"overview" is a few sentences; the lists may be empty arrays, never null.`

// OpenAIClient 是 Client 接口基于 OpenAI Chat Completions 的实现。
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient 创建 OpenAIClient 实例。
// model 为空时使用 gpt-4o-mini；timeout 为每次调用的上限。
func NewOpenAIClient(apiKey, model string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key cannot be empty")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}, nil
}

// Extract 实现结构化抽取调用。
func (c *OpenAIClient) Extract(ctx context.Context, input ExtractionInput) (*ExtractionResult, error) {
	userContent := fmt.Sprintf(
		"Room goal:\n%s\n\nRoom context:\n%s\n\nSpeaker: %s\nUtterance:\n%s",
		input.RoomGoal, input.RoomContext, input.SpeakerName, input.UtteranceText)

	raw, err := c.complete(ctx, extractionSystemPrompt, userContent)
	if err != nil {
		return nil, err
	}

	var result ExtractionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("llm: malformed extraction response: %w", err)
	}
	// schema 校验：摘要和口头回应是必填字段；列表字段规整为非 nil
	if result.Summary == "" {
		return nil, fmt.Errorf("llm: extraction response missing required field 'summary'")
	}
	if result.AgentResponse == "" {
		return nil, fmt.Errorf("llm: extraction response missing required field 'agent_response'")
	}
	if result.Risks == nil {
		result.Risks = []string{}
	}
	if result.Gaps == nil {
		result.Gaps = []string{}
	}
	if result.ProposedActions == nil {
		result.ProposedActions = []ProposedAction{}
	}
	return &result, nil
}

// Summarize 实现会议总结调用。
func (c *OpenAIClient) Summarize(ctx context.Context, input SummaryInput) (*SummaryResult, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to marshal summary input: %w", err)
	}

	raw, err := c.complete(ctx, summarySystemPrompt, string(payload))
	if err != nil {
		return nil, err
	}

	var result SummaryResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("llm: malformed summary response: %w", err)
	}
	if result.Overview == "" {
		return nil, fmt.Errorf("llm: summary response missing required field 'overview'")
	}
	if result.Decisions == nil {
		result.Decisions = []string{}
	}
	if result.Risks == nil {
		result.Risks = []string{}
	}
	if result.NextSteps == nil {
		result.NextSteps = []string{}
	}
	return &result, nil
}

// complete 发起一次非流式 chat completion 并返回首个 choice 的文本。
func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userContent},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		logrus.WithError(err).WithField("model", c.model).Warn("LLM chat completion failed")
		return "", fmt.Errorf("llm: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("llm: empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}
