package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"daneybil/internal/chat"
	"daneybil/internal/contextmgr"
)

// OpenAIProvider 使用 go-openai SDK 的 Provider 实现，面向 OpenAI 兼容服务端
// OpenAIProvider implements Provider using the go-openai SDK, for
// OpenAI-compatible servers
type OpenAIProvider struct {
	client *openai.Client
	model  string
	mu     sync.RWMutex
}

// OpenAIConfig SDK provider 配置
// OpenAIConfig is the SDK provider configuration
type OpenAIConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	TimeoutMS int
}

// NewOpenAIProvider 创建基于 SDK 的 provider
// NewOpenAIProvider creates an SDK-based provider
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	httpClient := &http.Client{}
	if cfg.TimeoutMS > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	config.HTTPClient = httpClient

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) CurrentModel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

func (p *OpenAIProvider) SetModel(model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("model is empty")
	}
	p.mu.Lock()
	p.model = model
	p.mu.Unlock()
	return nil
}

// ListModels 列出服务端可用模型
// ListModels lists the models the server offers
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	models := make([]ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, ModelInfo{ID: m.ID, OwnedBy: m.OwnedBy})
	}
	return models, nil
}

// Generate 单次请求；任何失败对本回合都是终局，由调用方落失败消息
// Generate issues exactly one request; any failure is terminal for the turn,
// the caller logs the failure message
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (Response, error) {
	sdkReq := buildSDKRequest(p.CurrentModel(), req)

	resp, err := p.client.CreateChatCompletion(ctx, sdkReq)
	if err != nil {
		return Response{}, fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{Text: NullResponseText}, nil
	}
	return Response{Text: resp.Choices[0].Message.Content}, nil
}

func buildSDKRequest(model string, req Request) openai.ChatCompletionRequest {
	temp := float32(0.2)
	if req.Strict {
		temp = 0.0
	}
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: CoreInstruction(req.Strict),
	})
	for _, turn := range req.Turns {
		messages = append(messages, convertTurn(turn))
	}
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temp,
		TopP:        0.95,
	}
}

// convertTurn 带图像的回合使用多段内容；OpenAI 兼容端直接接受 data URI
// convertTurn uses multipart content for image turns; OpenAI-compatible servers
// accept the data URI as-is
func convertTurn(turn contextmgr.Turn) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	if turn.Role == chat.RoleAssistant {
		role = openai.ChatMessageRoleAssistant
	}
	if turn.Image == "" {
		return openai.ChatCompletionMessage{Role: role, Content: turn.Text}
	}
	return openai.ChatCompletionMessage{
		Role: role,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: turn.Text},
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: turn.Image},
			},
		},
	}
}
