package provider

import (
	"context"

	"daneybil/internal/contextmgr"
)

// Request 封装一次命令执行请求
// Request wraps a single command execution call
type Request struct {
	// Turns 已规范化的严格交替序列，最后一项是用户回合
	// Turns is the normalized strictly alternating sequence ending on a user turn
	Turns []contextmgr.Turn

	// Strict 精确模式：温度 0，禁止任何附加建议
	// Strict mode: temperature 0, no unsolicited advice
	Strict bool
}

// Response 完整响应
// Response is the complete response
type Response struct {
	Text string
}

// ModelInfo 模型基本信息
// ModelInfo describes a model
type ModelInfo struct {
	ID      string
	OwnedBy string
}

// Provider 模型提供方接口，面向未来多 provider 扩展
// Provider is the model backend interface, designed for future multi-provider extensibility
type Provider interface {
	// Generate 发送一次完整的命令请求并返回回复文本
	// Generate sends one complete command request and returns the reply text
	Generate(ctx context.Context, req Request) (Response, error)

	// Name 返回 provider 名称
	// Name returns the provider name
	Name() string

	// CurrentModel 返回当前活跃模型
	// CurrentModel returns the current active model
	CurrentModel() string

	// SetModel 切换活跃模型
	// SetModel switches the active model
	SetModel(model string) error
}
