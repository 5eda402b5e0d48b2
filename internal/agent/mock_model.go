package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse 定义了 MockChatModel 的单次预期响应
type MockResponse struct {
	Content string
	Error   error
}

// MockChatModel 用于测试的 model.ToolCallingChatModel 实现。
// 设置了 SequentialResponses 时按顺序返回，否则总是返回 ExpectedResponse/ExpectedError。
type MockChatModel struct {
	ExpectedResponse string
	ExpectedError    error

	SequentialResponses []MockResponse

	mu               sync.Mutex
	responseIndex    int
	receivedMessages [][]*schema.Message
	receivedOptions  []*model.Options
}

var _ model.ToolCallingChatModel = (*MockChatModel)(nil)

// NewMockChatModel 创建一个返回固定响应的 MockChatModel
func NewMockChatModel(expectedResponse string, expectedError error) *MockChatModel {
	return &MockChatModel{
		ExpectedResponse: expectedResponse,
		ExpectedError:    expectedError,
	}
}

// NewMockChatModelSequential 创建一个按顺序返回不同响应的 MockChatModel
func NewMockChatModelSequential(responses ...MockResponse) *MockChatModel {
	return &MockChatModel{SequentialResponses: responses}
}

// Generate 记录收到的消息并返回预设响应
func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	received := make([]*schema.Message, len(input))
	copy(received, input)
	m.receivedMessages = append(m.receivedMessages, received)
	m.receivedOptions = append(m.receivedOptions, model.GetCommonOptions(&model.Options{}, opts...))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(m.SequentialResponses) > 0 {
		if m.responseIndex >= len(m.SequentialResponses) {
			return nil, errors.New("mock model has run out of sequential responses")
		}
		resp := m.SequentialResponses[m.responseIndex]
		m.responseIndex++
		if resp.Error != nil {
			return nil, resp.Error
		}
		return schema.AssistantMessage(resp.Content, nil), nil
	}

	if m.ExpectedError != nil {
		return nil, m.ExpectedError
	}
	return schema.AssistantMessage(m.ExpectedResponse, nil), nil
}

// Stream 未实现
func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming not implemented in MockChatModel")
}

// WithTools 返回自身
func (m *MockChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// Calls 返回 Generate 被调用的次数
func (m *MockChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.receivedMessages)
}

// LastMessages 返回最近一次调用收到的消息
func (m *MockChatModel) LastMessages() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.receivedMessages) == 0 {
		return nil
	}
	return m.receivedMessages[len(m.receivedMessages)-1]
}

// LastOptions 返回最近一次调用解析后的通用选项
func (m *MockChatModel) LastOptions() *model.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.receivedOptions) == 0 {
		return nil
	}
	return m.receivedOptions[len(m.receivedOptions)-1]
}
