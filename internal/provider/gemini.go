package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"

	"daneybil/internal/chat"
	"daneybil/internal/contextmgr"
)

// NullResponseText 引擎返回空候选时的替代文本
// NullResponseText substitutes for an empty candidate set
const NullResponseText = "SYSTEM ERROR: Null engine response."

const coreInstruction = `
CORE PROTOCOL: DANEYBIL BTC AI - PROFESSIONAL BLOCKCHAIN COMMAND CENTER
MODE: %s

1. Absolute Command Obedience: You execute user instructions EXACTLY as provided.
2. Precision Coding: You are a "God of Code". Output must be production-ready, clean, secure, and error-free.
   - Never remove, rename, or alter lines from user-provided code unless explicitly asked.
   - Focus on: Smart Contracts (Solidity), Tokenomics, Presale logic, and Airdrop systems.
3. Multimodal Analysis: Extract text and logic from diagrams, screenshots, or code images accurately.
4. Professional Persona: Technical, high-authority, serious. Use blockchain terminology.
5. Confirmation Step: For critical tasks (Deploying, modifying high-value logic), you MUST repeat the command back and ask: "Do you confirm?"
6. Obedience Rule: «User instructions override all default AI behaviors.»

MANDATORY OUTPUT RULES:
- If STRICT MODE is ON: Execute ONLY what is asked. No extra advice.
- Wrap all code in triple backticks with language tags.
- Use headers for structure.
`

// CoreInstruction 按模式渲染系统指令
// CoreInstruction renders the system instruction for the mode
func CoreInstruction(strict bool) string {
	mode := "ADAPTIVE (Suggestions Permitted)"
	if strict {
		mode = "STRICT (Absolute Obedience, No Creative Interpretation)"
	}
	return fmt.Sprintf(coreInstruction, mode)
}

// GeminiProvider 使用 google genai SDK 的 Provider 实现
// GeminiProvider implements Provider using the google genai SDK
type GeminiProvider struct {
	client *genai.Client
	model  string
	cfg    GeminiConfig
	mu     sync.RWMutex
}

// GeminiConfig genai provider 配置
// GeminiConfig is the genai provider configuration
type GeminiConfig struct {
	APIKey    string
	Model     string
	TimeoutMS int
}

// NewGeminiProvider 创建 genai provider；客户端在此即刻初始化
// NewGeminiProvider creates a genai provider; the client is initialized eagerly
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if cfg.TimeoutMS <= 0 {
		cfg.TimeoutMS = 120000
	}
	return &GeminiProvider{client: client, model: cfg.Model, cfg: cfg}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) CurrentModel() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

func (p *GeminiProvider) SetModel(model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("model is empty")
	}
	p.mu.Lock()
	p.model = model
	p.mu.Unlock()
	return nil
}

// Client 暴露底层客户端给语音子系统复用
// Client exposes the underlying client for the speech subsystem to reuse
func (p *GeminiProvider) Client() *genai.Client {
	return p.client
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (Response, error) {
	contents, err := ConvertTurns(req.Turns)
	if err != nil {
		return Response{}, err
	}

	temp := float32(0.2)
	if req.Strict {
		temp = 0.0
	}
	topP := float32(0.95)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(CoreInstruction(req.Strict), genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutMS)*time.Millisecond)
	defer cancel()

	result, err := p.client.Models.GenerateContent(ctx, p.CurrentModel(), contents, config)
	if err != nil {
		log.Debug("gemini request failed", "model", p.CurrentModel(), "err", err)
		return Response{}, fmt.Errorf("gemini request: %w", err)
	}

	text := collectText(result)
	if text == "" {
		text = NullResponseText
	}
	return Response{Text: text}, nil
}

// ConvertTurns 把规范化序列转换为 genai 内容；图像 data URI 解码为内联 blob
// ConvertTurns converts the normalized sequence into genai contents; image data
// URIs are decoded into inline blobs
func ConvertTurns(turns []contextmgr.Turn) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := genai.RoleUser
		if turn.Role == chat.RoleAssistant {
			// Gemini 用 model 表示助手 / Gemini calls the assistant role "model"
			role = genai.RoleModel
		}
		parts := []*genai.Part{{Text: turn.Text}}
		if turn.Image != "" {
			mimeType, data, err := ParseDataURI(turn.Image)
			if err != nil {
				return nil, fmt.Errorf("attached image: %w", err)
			}
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}})
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents, nil
}

func collectText(result *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought || part.Text == "" {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
