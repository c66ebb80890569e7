package storage

import (
	"fmt"
	"testing"
	"time"

	"daneybil/internal/chat"
)

func TestUpsertFrontInsert(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	coll := []chat.Session{sessionAt("old", "old command", base)}

	coll = Upsert(coll, sessionAt("new", "new command", base.Add(time.Minute)))
	if len(coll) != 2 || coll[0].ID != "new" {
		t.Fatalf("front insert failed: %+v", ids(coll))
	}

	// 重新 upsert 已有会话应移动到最前 / Re-upserting moves it to the front
	coll = Upsert(coll, sessionAt("old", "old command again", base.Add(2*time.Minute)))
	if len(coll) != 2 || coll[0].ID != "old" {
		t.Fatalf("move-to-front failed: %+v", ids(coll))
	}
}

func TestUpsertSkipsSeedOnlySession(t *testing.T) {
	coll := Upsert(nil, chat.NewSession("empty"))
	if len(coll) != 0 {
		t.Fatalf("seed-only session persisted: %+v", ids(coll))
	}
}

func TestUpsertRemovesSessionThatShrankToSeed(t *testing.T) {
	base := time.Now().UTC()
	coll := []chat.Session{sessionAt("s", "cmd", base)}
	coll = Upsert(coll, chat.NewSession("s"))
	if len(coll) != 0 {
		t.Fatalf("shrunk session should be removed: %+v", ids(coll))
	}
}

func TestUpsertCapsAtMaxSessions(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var coll []chat.Session
	for i := 0; i < MaxSessions+5; i++ {
		id := fmt.Sprintf("s%02d", i)
		coll = Upsert(coll, sessionAt(id, "cmd "+id, base.Add(time.Duration(i)*time.Minute)))
	}
	if len(coll) != MaxSessions {
		t.Fatalf("len=%d, want %d", len(coll), MaxSessions)
	}
	// 最新的在最前，最旧的被淘汰 / Newest first, oldest evicted
	if coll[0].ID != "s24" {
		t.Fatalf("front=%s, want s24", coll[0].ID)
	}
	if _, ok := Find(coll, "s00"); ok {
		t.Fatal("oldest session should be evicted")
	}
}

func TestSortByRecency(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	coll := []chat.Session{
		sessionAt("a", "x", base),
		sessionAt("c", "x", base.Add(2*time.Hour)),
		sessionAt("b", "x", base.Add(time.Hour)),
	}
	SortByRecency(coll)
	if coll[0].ID != "c" || coll[1].ID != "b" || coll[2].ID != "a" {
		t.Fatalf("order: %+v", ids(coll))
	}
}

func ids(coll []chat.Session) []string {
	out := make([]string, 0, len(coll))
	for _, s := range coll {
		out = append(out, s.ID)
	}
	return out
}
