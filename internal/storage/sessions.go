package storage

import (
	"sort"

	"daneybil/internal/chat"
)

// MaxSessions 集合容量上限；超出时淘汰最久未更新的会话
// MaxSessions caps the collection; the least recently updated sessions are
// evicted past it
const MaxSessions = 20

// ShouldPersist 只持久化已超出开场问候的会话
// ShouldPersist keeps only sessions that have grown past the seed greeting
func ShouldPersist(s chat.Session) bool {
	return s.HasUserTurns()
}

// Upsert 把会话放到集合最前端；同 ID 的旧条目被替换。不满足持久化条件的会话
// 会从集合移除而不是插入。
// Upsert moves the session to the front of the collection, replacing any entry
// with the same id. A session that does not qualify for persistence is removed
// rather than inserted.
func Upsert(sessions []chat.Session, s chat.Session) []chat.Session {
	out := make([]chat.Session, 0, len(sessions)+1)
	if ShouldPersist(s) {
		out = append(out, s)
	}
	for _, existing := range sessions {
		if existing.ID == s.ID {
			continue
		}
		out = append(out, existing)
	}
	if len(out) > MaxSessions {
		out = out[:MaxSessions]
	}
	return out
}

// SortByRecency 按最近更新排序，最新在前
// SortByRecency orders sessions most recently updated first
func SortByRecency(sessions []chat.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastUpdated.After(sessions[j].LastUpdated)
	})
}

// Find 按 ID 查找会话
// Find looks a session up by id
func Find(sessions []chat.Session, id string) (chat.Session, bool) {
	for _, s := range sessions {
		if s.ID == id {
			return s, true
		}
	}
	return chat.Session{}, false
}
