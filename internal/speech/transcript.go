package speech

import (
	"strings"
	"sync"
)

// Transcript 语音输入的转写缓冲：最终片段逐段提交，中间片段只作预览、
// 随时被替换。外部 STT 引擎只需要推送 (fragment, final) 对。
//
// Transcript buffers voice-input transcription: final fragments are committed
// one by one, interim fragments are preview only and replaced at will. An
// external STT engine just pushes (fragment, final) pairs.
type Transcript struct {
	mu        sync.Mutex
	committed strings.Builder
	interim   string
}

// Push 接收一个转写片段
// Push receives one transcription fragment
func (t *Transcript) Push(fragment string, final bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if final {
		t.committed.WriteString(fragment)
		t.interim = ""
		return
	}
	t.interim = fragment
}

// Committed 已提交的文本；只有它会进入待发送输入
// Committed is the committed text; only this reaches the pending input
func (t *Transcript) Committed() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed.String()
}

// Preview 已提交文本加当前中间片段，用于显示
// Preview is committed text plus the current interim fragment, for display
func (t *Transcript) Preview() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed.String() + t.interim
}

// Reset 清空缓冲（开始新一轮听写）
// Reset clears the buffer (a new dictation round)
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.committed.Reset()
	t.interim = ""
	t.mu.Unlock()
}
