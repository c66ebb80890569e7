package chat

import (
	"strings"
	"testing"
	"time"
)

func TestHasFencedCode(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"no code here", false},
		{"```go\nfmt.Println(1)\n```", true},
		{"before ```solidity\ncontract X {}\n``` after", true},
		{"unterminated ``` fence", false},
		{"", false},
		{"``````", true},
	}
	for _, tc := range cases {
		if got := HasFencedCode(tc.text); got != tc.want {
			t.Fatalf("HasFencedCode(%q)=%v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestRequestsConfirmation(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Deploy command received. Do you confirm?", true},
		{"PLEASE CONFIRM the airdrop parameters.", true},
		{"please Confirm", true},
		{"Deployment complete.", false},
		{"confirmation is not requested here", false},
	}
	for _, tc := range cases {
		if got := RequestsConfirmation(tc.text); got != tc.want {
			t.Fatalf("RequestsConfirmation(%q)=%v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestFirstCodeBlock(t *testing.T) {
	text := "Here is the contract:\n```solidity\npragma solidity ^0.8.0;\ncontract Token {}\n```\nand a second one:\n```js\nconsole.log(1)\n```"
	code, ok := FirstCodeBlock(text)
	if !ok {
		t.Fatal("FirstCodeBlock: expected a code block")
	}
	if !strings.HasPrefix(code, "pragma solidity") || strings.Contains(code, "solidity\npragma") {
		t.Fatalf("FirstCodeBlock stripped wrong content: %q", code)
	}
	if strings.Contains(code, "```") {
		t.Fatalf("FirstCodeBlock left a fence in: %q", code)
	}

	if _, ok := FirstCodeBlock("no fences"); ok {
		t.Fatal("FirstCodeBlock: expected no code block")
	}

	// 无语言标签 / Without a language tag
	code, ok = FirstCodeBlock("```\nplain\n```")
	if !ok || code != "plain" {
		t.Fatalf("FirstCodeBlock(no tag)=%q ok=%v", code, ok)
	}
}

func TestStripCodeBlocks(t *testing.T) {
	text := "Result:\n```go\nfmt.Println(1)\n```\ndone"
	got := StripCodeBlocks(text)
	if strings.Contains(got, "fmt.Println") {
		t.Fatalf("StripCodeBlocks kept code: %q", got)
	}
	if !strings.Contains(got, NarrationPlaceholder) {
		t.Fatalf("StripCodeBlocks missing placeholder: %q", got)
	}
	if !strings.HasPrefix(got, "Result:\n") || !strings.HasSuffix(got, "\ndone") {
		t.Fatalf("StripCodeBlocks mangled prose: %q", got)
	}

	if got := StripCodeBlocks("no code"); got != "no code" {
		t.Fatalf("StripCodeBlocks(no code)=%q", got)
	}
}

func TestNewAssistantMessageDerivedFlags(t *testing.T) {
	msg := NewAssistantMessage("Deploying now. Do you confirm?\n```bash\nforge deploy\n```", time.Time{})
	if msg.Role != RoleAssistant {
		t.Fatalf("Role=%q", msg.Role)
	}
	if !msg.HasCode {
		t.Fatal("HasCode should be true")
	}
	if !msg.NeedsConfirmation {
		t.Fatal("NeedsConfirmation should be true")
	}
	if msg.ID == "" {
		t.Fatal("ID should be set")
	}
}

func TestTimestampMonotone(t *testing.T) {
	future := time.Now().Add(time.Hour)
	msg := NewUserMessage("hi", "", future)
	if msg.Timestamp.Before(future) {
		t.Fatalf("timestamp %v went backwards past %v", msg.Timestamp, future)
	}
}

func TestNewSessionSeed(t *testing.T) {
	s := NewSession(DefaultSessionID)
	if len(s.Messages) != 1 {
		t.Fatalf("seed session has %d messages, want 1", len(s.Messages))
	}
	if s.Messages[0].Role != RoleAssistant || s.Messages[0].Text != SeedGreeting {
		t.Fatalf("seed message unexpected: %+v", s.Messages[0])
	}
	if s.HasUserTurns() {
		t.Fatal("seed-only session must not count as having user turns")
	}
}

func TestInferTitle(t *testing.T) {
	msgs := []Message{
		{Role: RoleAssistant, Text: SeedGreeting},
		{Role: RoleUser, Text: "  deploy token contract  "},
	}
	if got := InferTitle(msgs); got != "deploy token contract" {
		t.Fatalf("InferTitle=%q", got)
	}

	long := strings.Repeat("x", 80)
	msgs[1].Text = long
	got := InferTitle(msgs)
	if len([]rune(got)) != 51 || !strings.HasSuffix(got, "...") {
		t.Fatalf("InferTitle(long)=%q", got)
	}

	if got := InferTitle(nil); got != "new session" {
		t.Fatalf("InferTitle(nil)=%q", got)
	}
}
