package speech

import (
	"sync"
	"time"
)

// Cursor 回放游标：入站帧按到达顺序排在游标之后无缝播放；空闲后到达的
// 帧从当前时间开始。打断时游标归零。
//
// Cursor is the playback cursor: inbound frames are scheduled gaplessly behind
// the cursor in arrival order; a frame arriving after idle starts now. A
// barge-in resets the cursor to zero.
type Cursor struct {
	mu   sync.Mutex
	next time.Time
}

// Schedule 返回一帧的开始时刻并推进游标
// Schedule returns the frame's start instant and advances the cursor
func (c *Cursor) Schedule(now time.Time, frame time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := c.next
	if now.After(start) {
		start = now
	}
	c.next = start.Add(frame)
	return start
}

// Reset 打断：丢弃排期，游标归零
// Reset on barge-in: scheduled time is discarded, the cursor returns to zero
func (c *Cursor) Reset() {
	c.mu.Lock()
	c.next = time.Time{}
	c.mu.Unlock()
}

// Next 当前游标位置（测试与诊断用）
// Next is the current cursor position (tests and diagnostics)
func (c *Cursor) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}
