package contextmgr

import (
	"strings"
	"testing"

	"daneybil/internal/chat"
)

func seedLog(texts ...string) []chat.Message {
	log := []chat.Message{{Role: chat.RoleAssistant, Text: chat.SeedGreeting}}
	role := chat.RoleUser
	for _, text := range texts {
		log = append(log, chat.Message{Role: role, Text: text})
		if role == chat.RoleUser {
			role = chat.RoleAssistant
		} else {
			role = chat.RoleUser
		}
	}
	return log
}

func TestNormalizeSeedOnly(t *testing.T) {
	turns := Normalize(seedLog(), "deploy token contract", "")
	if len(turns) != 1 {
		t.Fatalf("len=%d, want 1 (%v)", len(turns), turns)
	}
	if turns[0].Role != chat.RoleUser || turns[0].Text != "deploy token contract" {
		t.Fatalf("turn unexpected: %+v", turns[0])
	}
}

func TestNormalizeAlternatingLog(t *testing.T) {
	log := seedLog("audit the presale", "Audit complete.", "now the airdrop", "Airdrop logic verified.")
	turns := Normalize(log, "deploy it", "")

	if !Alternates(turns) {
		t.Fatalf("sequence does not alternate: %s", Preview(turns))
	}
	if len(turns) != 5 {
		t.Fatalf("len=%d, want 5", len(turns))
	}
	last := turns[len(turns)-1]
	if last.Role != chat.RoleUser || !strings.HasSuffix(last.Text, "deploy it") {
		t.Fatalf("last turn unexpected: %+v", last)
	}
}

func TestNormalizeMergesTrailingUser(t *testing.T) {
	// 日志以用户回合结束（上一回合失败后重新输入的情形）
	// Log ends on a user turn (re-issued input after a failed turn)
	log := seedLog("first command")
	turns := Normalize(log, "second command", "")

	if len(turns) != 1 {
		t.Fatalf("len=%d, want 1 merged turn (%s)", len(turns), Preview(turns))
	}
	if turns[0].Text != "first command\nsecond command" {
		t.Fatalf("merged text=%q", turns[0].Text)
	}
}

func TestNormalizeImageOnMergedEntry(t *testing.T) {
	log := seedLog("look at this diagram")
	turns := Normalize(log, "and extract the logic", "data:image/png;base64,AAAA")
	if len(turns) != 1 {
		t.Fatalf("len=%d, want 1", len(turns))
	}
	if turns[0].Image != "data:image/png;base64,AAAA" {
		t.Fatalf("image not attached to merged entry: %+v", turns[0])
	}
}

func TestNormalizeImageOnAppendedEntry(t *testing.T) {
	log := seedLog("hello", "Hello, Commander.")
	turns := Normalize(log, "analyze this", "data:image/png;base64,BBBB")
	last := turns[len(turns)-1]
	if last.Image != "data:image/png;base64,BBBB" || last.Text != "analyze this" {
		t.Fatalf("appended entry unexpected: %+v", last)
	}
}

func TestNormalizeSkipsMismatchedRoles(t *testing.T) {
	// 连续两条助手消息（一次失败回合会产生这种形态）
	// Two consecutive assistant messages (a failed turn produces this shape)
	log := []chat.Message{
		{Role: chat.RoleAssistant, Text: chat.SeedGreeting},
		{Role: chat.RoleUser, Text: "deploy"},
		{Role: chat.RoleAssistant, Text: "COMMAND FAILURE..."},
		{Role: chat.RoleAssistant, Text: "Do you confirm?"},
	}
	turns := Normalize(log, "yes", "")
	if !Alternates(turns) {
		t.Fatalf("sequence does not alternate: %s", Preview(turns))
	}
	// seed 和第二条助手消息被排除 / seed and the second assistant message are excluded
	if len(turns) != 3 {
		t.Fatalf("len=%d, want 3 (%s)", len(turns), Preview(turns))
	}
}

func TestNormalizeHistoryIdentity(t *testing.T) {
	log := []chat.Message{
		{Role: chat.RoleUser, Text: "a"},
		{Role: chat.RoleAssistant, Text: "b"},
		{Role: chat.RoleUser, Text: "c"},
		{Role: chat.RoleAssistant, Text: "d"},
	}
	turns := NormalizeHistory(log)
	if len(turns) != len(log) {
		t.Fatalf("len=%d, want %d", len(turns), len(log))
	}
	for i, turn := range turns {
		if turn.Role != log[i].Role || turn.Text != log[i].Text {
			t.Fatalf("turn %d changed: %+v vs %+v", i, turn, log[i])
		}
	}
}

func TestNormalizeAlwaysAlternatesProperty(t *testing.T) {
	// 多种打乱形态都必须产出合法序列
	// Every scrambled shape must yield a legal sequence
	shapes := [][]chat.Message{
		nil,
		{{Role: chat.RoleAssistant, Text: "a"}, {Role: chat.RoleAssistant, Text: "b"}},
		{{Role: chat.RoleUser, Text: "a"}, {Role: chat.RoleUser, Text: "b"}},
		{{Role: chat.RoleAssistant, Text: "a"}, {Role: chat.RoleUser, Text: "b"}, {Role: chat.RoleUser, Text: "c"}, {Role: chat.RoleAssistant, Text: "d"}},
	}
	for i, log := range shapes {
		turns := Normalize(log, "final input", "")
		if !Alternates(turns) {
			t.Fatalf("shape %d does not alternate: %s", i, Preview(turns))
		}
		if len(turns) == 0 || turns[len(turns)-1].Role != chat.RoleUser {
			t.Fatalf("shape %d does not end on user: %s", i, Preview(turns))
		}
		if !strings.HasSuffix(MergeText(turns), "final input") {
			t.Fatalf("shape %d lost the new utterance: %q", i, MergeText(turns))
		}
	}
}
