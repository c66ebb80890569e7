package storage

import "daneybil/internal/chat"

// Store 会话持久化接口；整库以单个 blob 读写
// Store is the session persistence interface; the whole collection is read and
// written as a single blob
type Store interface {
	// LoadAll 返回按最近更新排序的全部会话
	// LoadAll returns every session, most recently updated first
	LoadAll() ([]chat.Session, error)

	// SaveAll 原子替换整个会话集合
	// SaveAll atomically replaces the whole session collection
	SaveAll(sessions []chat.Session) error

	// 生命周期 / Lifecycle
	Close() error
}
