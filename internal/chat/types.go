package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// 角色常量，受远端补全契约约束只允许两种
// Role constants; the remote completion contract only allows these two
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultSessionID 进程启动时的保留会话 ID
// DefaultSessionID is the reserved session id that exists before any user interaction
const DefaultSessionID = "default"

// SeedGreeting 每个会话的第一条助手消息
// SeedGreeting is the first assistant message of every session
const SeedGreeting = "DANEYBIL BTC AI online. Awaiting your commands. Zero-mistake protocol active. System is in high-precision mode."

// Message 对话中的一个回合；追加后不可变
// Message is one turn in a conversation; immutable once appended
type Message struct {
	ID                string    `json:"id"`
	Role              string    `json:"role"`
	Text              string    `json:"text"`
	Image             string    `json:"image,omitempty"` // data URI; user turns only
	Timestamp         time.Time `json:"timestamp"`
	HasCode           bool      `json:"has_code,omitempty"`
	NeedsConfirmation bool      `json:"needs_confirmation,omitempty"`
}

// Session 一个具名的持久化对话
// Session is a named, persisted conversation
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewUserMessage 构造用户回合，时间戳取与上一条消息的较大值以保证单调
// NewUserMessage builds a user turn; the timestamp is clamped to be monotone
// non-decreasing relative to prev
func NewUserMessage(text, image string, prev time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      text,
		Image:     image,
		Timestamp: clampTime(time.Now(), prev),
	}
}

// NewAssistantMessage 构造助手回合并一次性计算派生标记
// NewAssistantMessage builds an assistant turn and computes derived flags once
func NewAssistantMessage(text string, prev time.Time) Message {
	return Message{
		ID:                uuid.NewString(),
		Role:              RoleAssistant,
		Text:              text,
		Timestamp:         clampTime(time.Now(), prev),
		HasCode:           HasFencedCode(text),
		NeedsConfirmation: RequestsConfirmation(text),
	}
}

// SeedMessage 会话的开场问候
// SeedMessage is the opening greeting of a session
func SeedMessage() Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Text:      SeedGreeting,
		Timestamp: time.Now(),
	}
}

// NewSession 创建只含开场问候的会话
// NewSession creates a session holding only the seed greeting
func NewSession(id string) Session {
	seed := SeedMessage()
	return Session{
		ID:          id,
		Messages:    []Message{seed},
		LastUpdated: seed.Timestamp,
	}
}

// LastTimestamp 返回日志中最后一条消息的时间戳
// LastTimestamp returns the timestamp of the last logged message
func (s Session) LastTimestamp() time.Time {
	if len(s.Messages) == 0 {
		return time.Time{}
	}
	return s.Messages[len(s.Messages)-1].Timestamp
}

// HasUserTurns 日志是否已超出开场问候
// HasUserTurns reports whether the log has grown past the seed greeting
func (s Session) HasUserTurns() bool {
	return len(s.Messages) > 1
}

// RequestsConfirmation 助手文本是否要求显式确认
// RequestsConfirmation reports whether assistant text demands explicit confirmation
func RequestsConfirmation(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "do you confirm") || strings.Contains(lower, "please confirm")
}

// InferTitle 从第一条真实用户消息推导会话标题（截断前缀，48 个字符）
// InferTitle derives a session title from the first real user message (48-rune prefix)
func InferTitle(messages []Message) string {
	for _, msg := range messages {
		if msg.Role != RoleUser {
			continue
		}
		t := strings.TrimSpace(msg.Text)
		if t == "" {
			continue
		}
		runes := []rune(t)
		if len(runes) > 48 {
			return string(runes[:48]) + "..."
		}
		return t
	}
	return "new session"
}

func clampTime(now, prev time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}
