package contextmgr

import (
	"strings"

	"daneybil/internal/chat"
)

// Turn 提交给远端补全调用的一个 (role, content) 条目
// Turn is one (role, content) entry submitted to the remote completion call
type Turn struct {
	Role  string
	Text  string
	Image string // data URI; rides on the entry carrying the new utterance
}

// Normalize 把消息日志和一条新的用户输入变换为严格交替的上游回合序列。
// 规则：序列以 user 开头、user/assistant 严格交替、新输入是最后一个用户条目。
// 开场问候（助手所写）以及任何与期望角色不匹配的消息被跳过，而不是补造填充；
// 被跳过的消息只是从上游视图排除，持久化日志不受影响。
//
// Normalize transforms the message log plus a new user utterance into the
// strictly alternating upstream turn sequence. The sequence starts with user,
// alternates user/assistant, and ends with the new utterance as the final
// user-authored entry. The seed greeting and any message whose role does not
// match the expected cursor are skipped, never padded; skipped messages are
// excluded from the upstream view only, the persisted log is untouched.
func Normalize(log []chat.Message, text, image string) []Turn {
	turns := NormalizeHistory(log)

	if len(turns) > 0 && turns[len(turns)-1].Role == chat.RoleUser {
		// 合并而不是产生两个连续的 user 条目 / Merge instead of two consecutive user entries
		last := &turns[len(turns)-1]
		last.Text = last.Text + "\n" + text
		if image != "" {
			last.Image = image
		}
		return turns
	}

	return append(turns, Turn{Role: chat.RoleUser, Text: text, Image: image})
}

// NormalizeHistory 只做日志的交替化，不追加新输入；已交替的日志原样通过
// NormalizeHistory alternates the log without appending a new utterance; an
// already-alternating log passes through unchanged
func NormalizeHistory(log []chat.Message) []Turn {
	turns := make([]Turn, 0, len(log))
	expected := chat.RoleUser
	for _, msg := range log {
		if msg.Role != expected {
			continue
		}
		turns = append(turns, Turn{Role: msg.Role, Text: msg.Text, Image: msg.Image})
		expected = flip(expected)
	}
	return turns
}

// MergeText 规范化序列中最后一个条目携带的文本（用于测试断言和日志）
// MergeText returns the text carried by the final entry (for assertions and logs)
func MergeText(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	return turns[len(turns)-1].Text
}

func flip(role string) string {
	if role == chat.RoleUser {
		return chat.RoleAssistant
	}
	return chat.RoleUser
}

// Alternates 校验序列是否以 user 开头且严格交替
// Alternates reports whether the sequence starts with user and strictly alternates
func Alternates(turns []Turn) bool {
	expected := chat.RoleUser
	for _, turn := range turns {
		if turn.Role != expected {
			return false
		}
		expected = flip(expected)
	}
	return true
}

// Preview 供状态栏显示的简短序列描述
// Preview is a short sequence description for the status bar
func Preview(turns []Turn) string {
	parts := make([]string, 0, len(turns))
	for _, turn := range turns {
		parts = append(parts, turn.Role)
	}
	return strings.Join(parts, "→")
}
