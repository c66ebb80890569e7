package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"daneybil/internal/chat"
)

// RenderMarkdown 使用 Glamour 渲染 markdown 文本
// RenderMarkdown renders markdown text using Glamour
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimRight(rendered, "\n")
}

// RenderTranscript 把完整消息日志渲染为聊天面板内容
// RenderTranscript renders the full message log as chat panel content
func RenderTranscript(messages []chat.Message, theme Theme, width int) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		switch msg.Role {
		case chat.RoleUser:
			b.WriteString(theme.UserStyle.Render("▸ COMMANDER"))
			b.WriteString("\n")
			b.WriteString(msg.Text)
			if msg.Image != "" {
				b.WriteString("\n")
				b.WriteString(theme.MutedStyle.Render("  [image attached]"))
			}
		default:
			b.WriteString(theme.TitleStyle.Render("◂ DANEYBIL"))
			b.WriteString("\n")
			b.WriteString(RenderMarkdown(msg.Text, width))
			if msg.NeedsConfirmation {
				b.WriteString("\n")
				b.WriteString(theme.ConfirmStyle.Render("⚠ CONFIRMATION REQUIRED"))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
