package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"ai-resume-go/internal/tracing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultBaseURL DashScope 的 OpenAI 兼容接口
	DefaultBaseURL   = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	DefaultModelName = "qwen-turbo"

	chatCompletionsPath = "/chat/completions"
)

// ChatModelOption 配置 ChatModel
type ChatModelOption func(*ChatModel)

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(c *http.Client) ChatModelOption {
	return func(m *ChatModel) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// WithChatLogger 设置日志记录器
func WithChatLogger(l *log.Logger) ChatModelOption {
	return func(m *ChatModel) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDefaults 设置未在调用时指定的温度和最大 token
func WithDefaults(temperature float32, maxTokens int) ChatModelOption {
	return func(m *ChatModel) {
		m.temperature = temperature
		m.maxTokens = maxTokens
	}
}

// ChatModel 通过 OpenAI 兼容的 chat/completions 接口访问大模型，
// 实现 eino 的 model.ToolCallingChatModel。
type ChatModel struct {
	apiKey      string
	modelName   string
	endpoint    string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
	logger      *log.Logger
	tools       []openAITool
}

var _ model.ToolCallingChatModel = (*ChatModel)(nil)

// NewChatModel 创建模型客户端，baseURL 和 modelName 为空时使用默认值
func NewChatModel(apiKey, modelName, baseURL string, opts ...ChatModelOption) (*ChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModelName
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}

	m := &ChatModel{
		apiKey:     apiKey,
		modelName:  modelName,
		endpoint:   strings.TrimRight(baseURL, "/") + chatCompletionsPath,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     log.New(io.Discard, "[ChatModel] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"`
}

type chatMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	TopP        *float32      `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Tools       []openAITool  `json:"tools,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// buildRequest 把 eino 消息和调用选项转换为请求体
func (m *ChatModel) buildRequest(messages []*schema.Message, options ...model.Option) chatCompletionRequest {
	defaults := &model.Options{Model: &m.modelName}
	if m.temperature > 0 {
		t := m.temperature
		defaults.Temperature = &t
	}
	if m.maxTokens > 0 {
		n := m.maxTokens
		defaults.MaxTokens = &n
	}
	opts := model.GetCommonOptions(defaults, options...)

	req := chatCompletionRequest{
		Model:       m.modelName,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		TopP:        opts.TopP,
		Stop:        opts.Stop,
		Tools:       m.tools,
	}
	if opts.Model != nil && *opts.Model != "" {
		req.Model = *opts.Model
	}

	req.Messages = make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		content := msg.Content
		cm := chatMessage{
			Role:       string(msg.Role),
			Content:    &content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			call := openAIToolCall{ID: tc.ID, Type: "function"}
			call.Function.Name = tc.Function.Name
			call.Function.Arguments = tc.Function.Arguments
			cm.ToolCalls = append(cm.ToolCalls, call)
		}
		req.Messages = append(req.Messages, cm)
	}
	return req
}

// Generate 实现 model.BaseChatModel 接口
func (m *ChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	reqPayload := m.buildRequest(messages, options...)

	ctx, span := tracing.StartSpan(ctx, "llm.ChatCompletion",
		attribute.String("llm.model", reqPayload.Model),
		attribute.Int("llm.message_count", len(reqPayload.Messages)),
	)
	defer span.End()

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		tracing.RecordError(span, err, tracing.ClassifyError(err, tracing.ErrorTypeLLM))
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}
	m.logger.Printf("model=%s status=%d elapsed=%s", reqPayload.Model, httpResp.StatusCode, time.Since(start))

	if httpResp.StatusCode != http.StatusOK {
		err := fmt.Errorf("API 请求失败，状态 %d: %s", httpResp.StatusCode, tracing.TruncateString(string(bodyBytes), 500))
		tracing.RecordHTTPError(span, err, httpResp.StatusCode)
		return nil, err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, fmt.Errorf("反序列化 API 响应失败: %w", err)
	}
	if resp.Error != nil {
		err := fmt.Errorf("API 返回错误 %s: %s", resp.Error.Code, resp.Error.Message)
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}
	if len(resp.Choices) == 0 {
		err := fmt.Errorf("API 返回空 choices")
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}

	choice := resp.Choices[0]
	out := &schema.Message{Role: schema.Assistant}
	if choice.Message.Role != "" {
		out.Role = schema.RoleType(choice.Message.Role)
	}
	if choice.Message.Content != nil {
		out.Content = *choice.Message.Content
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, schema.ToolCall{
			ID: tc.ID,
			Function: schema.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	out.ResponseMeta = &schema.ResponseMeta{FinishReason: choice.FinishReason}
	if resp.Usage != nil {
		out.ResponseMeta.Usage = &schema.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		span.SetAttributes(attribute.Int("llm.usage.total_tokens", resp.Usage.TotalTokens))
	}
	return out, nil
}

// Stream 流式输出未实现，简历定制只需要完整回复
func (m *ChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("ChatModel 不支持 Stream")
}

// WithTools 返回绑定了工具的新实例，不修改当前实例
func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	clone := *m
	clone.tools = make([]openAITool, 0, len(tools))
	for _, info := range tools {
		if info == nil {
			continue
		}
		var params interface{} = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
		if info.ParamsOneOf != nil {
			js, err := info.ParamsOneOf.ToOpenAPIV3()
			if err != nil {
				return nil, fmt.Errorf("转换工具 %s 参数失败: %w", info.Name, err)
			}
			if js != nil {
				params = js
			}
		}
		clone.tools = append(clone.tools, openAITool{
			Type:     "function",
			Function: openAIFunction{Name: info.Name, Description: info.Desc, Parameters: params},
		})
	}
	return &clone, nil
}
