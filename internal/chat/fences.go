package chat

import "strings"

const fence = "```"

// NarrationPlaceholder 朗读时替换代码块的占位短语
// NarrationPlaceholder replaces fenced code when text is narrated
const NarrationPlaceholder = " (Code output omitted for audio) "

// HasFencedCode 文本是否含有成对的三反引号围栏
// HasFencedCode reports whether text contains a matched pair of triple-backtick fences
func HasFencedCode(text string) bool {
	open := strings.Index(text, fence)
	if open < 0 {
		return false
	}
	return strings.Contains(text[open+len(fence):], fence)
}

// FirstCodeBlock 返回第一个围栏代码段的内部内容，剥掉围栏和可选语言标签
// FirstCodeBlock returns the inner content of the first fenced segment,
// stripping the fences and the optional language tag
func FirstCodeBlock(text string) (string, bool) {
	open := strings.Index(text, fence)
	if open < 0 {
		return "", false
	}
	rest := text[open+len(fence):]
	end := strings.Index(rest, fence)
	if end < 0 {
		return "", false
	}
	inner := rest[:end]
	// 开围栏后第一行是语言标签 / The first line after the opening fence is the language tag
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		tag := strings.TrimSpace(inner[:nl])
		if isLanguageTag(tag) {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner), true
}

// StripCodeBlocks 用占位短语替换所有围栏代码段
// StripCodeBlocks replaces every fenced segment with the narration placeholder
func StripCodeBlocks(text string) string {
	var b strings.Builder
	for {
		open := strings.Index(text, fence)
		if open < 0 {
			b.WriteString(text)
			return b.String()
		}
		rest := text[open+len(fence):]
		end := strings.Index(rest, fence)
		if end < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:open])
		b.WriteString(NarrationPlaceholder)
		text = rest[end+len(fence):]
	}
}

// isLanguageTag 语言标签只允许字母数字和少量标点
// isLanguageTag allows only alphanumerics and a little punctuation
func isLanguageTag(tag string) bool {
	if tag == "" {
		return true
	}
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '+' || r == '-' || r == '#' || r == '.':
		default:
			return false
		}
	}
	return true
}
