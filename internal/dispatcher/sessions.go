package dispatcher

import (
	"fmt"

	"github.com/google/uuid"

	"daneybil/internal/chat"
	"daneybil/internal/storage"
)

// StartSession 挂起当前会话并开启一个全新会话
// StartSession parks the current session and opens a fresh one
func (d *Dispatcher) StartSession() (chat.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight {
		return chat.Session{}, ErrBusy
	}
	d.sessions = storage.Upsert(d.sessions, d.current)
	d.current = chat.NewSession(uuid.NewString())
	d.state = StateIdle
	return d.current, nil
}

// ResumeSession 切换到集合中的已有会话
// ResumeSession switches to an existing session in the collection
func (d *Dispatcher) ResumeSession(id string) (chat.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight {
		return chat.Session{}, ErrBusy
	}
	target, ok := storage.Find(d.sessions, id)
	if !ok {
		return chat.Session{}, fmt.Errorf("session not found: %s", id)
	}
	d.sessions = storage.Upsert(d.sessions, d.current)
	d.current = target
	// 确认状态从日志尾部恢复 / Confirmation state recovers from the log tail
	d.state = StateIdle
	if n := len(target.Messages); n > 0 && target.Messages[n-1].NeedsConfirmation {
		d.state = StateAwaitingConfirmation
	}
	return d.current, nil
}

// Sessions 返回集合快照，最近更新在前；当前会话若可持久化也包含在内
// Sessions returns a snapshot of the collection, most recent first; the current
// session is included when it qualifies for persistence
func (d *Dispatcher) Sessions() []chat.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return storage.Upsert(d.sessions, d.current)
}

// Current 当前会话快照
// Current returns a snapshot of the current session
func (d *Dispatcher) Current() chat.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := d.current
	snap.Messages = append([]chat.Message(nil), d.current.Messages...)
	return snap
}
