package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"daneybil/internal/config"
	"daneybil/internal/dispatcher"
	"daneybil/internal/i18n"
	"daneybil/internal/provider"
)

type scriptProvider struct{ reply string }

func (s *scriptProvider) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	return provider.Response{Text: s.reply}, nil
}
func (s *scriptProvider) Name() string            { return "script" }
func (s *scriptProvider) CurrentModel() string    { return "gemini-3-pro-preview" }
func (s *scriptProvider) SetModel(m string) error { return nil }

func newTestLoop(t *testing.T, script string, reply string) (*Loop, *bytes.Buffer) {
	t.Helper()
	prov := &scriptProvider{reply: reply}
	sys := config.NewSystem(config.SystemDefaults{StrictMode: true})
	d := dispatcher.New(prov, sys, nil, nil)

	out := &bytes.Buffer{}
	return &Loop{
		dispatch: d,
		prov:     prov,
		sys:      sys,
		locale:   i18n.New("en"),
		out:      out,
		input:    newBasicLineInput(strings.NewReader(script), nil),
	}, out
}

func TestRunSubmitAndExit(t *testing.T) {
	loop, out := newTestLoop(t, "audit the presale\n/exit\n", "Audit complete. Zero defects.")
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Audit complete. Zero defects.") {
		t.Fatalf("reply missing from output:\n%s", got)
	}
	if !strings.Contains(got, "Link terminated.") {
		t.Fatalf("exit message missing:\n%s", got)
	}
}

func TestRunEOFEndsLoop(t *testing.T) {
	loop, out := newTestLoop(t, "", "unused")
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "Link terminated.") {
		t.Fatalf("EOF should end the loop cleanly:\n%s", out.String())
	}
}

func TestToggleCommands(t *testing.T) {
	loop, out := newTestLoop(t, "/strict\n/audio\n/copy\n/exit\n", "unused")
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Adaptive mode engaged") {
		t.Fatalf("strict toggle output missing:\n%s", got)
	}
	if !strings.Contains(got, "Narration enabled.") || !strings.Contains(got, "Auto-copy enabled.") {
		t.Fatalf("audio/copy toggle output missing:\n%s", got)
	}
	if loop.sys.StrictMode() {
		t.Fatal("/strict should have flipped strict mode off")
	}
}

func TestConfirmationFlow(t *testing.T) {
	loop, out := newTestLoop(t, "deploy the token sale\n/confirm\n/exit\n",
		"Deploying TokenSale to mainnet. Do you confirm?")
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Command awaiting confirmation") {
		t.Fatalf("confirmation hint missing:\n%s", got)
	}
}

func TestConfirmWithoutPending(t *testing.T) {
	loop, out := newTestLoop(t, "/confirm\n/exit\n", "unused")
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "No command is awaiting confirmation.") {
		t.Fatalf("error text missing:\n%s", out.String())
	}
}

func TestSessionsEmptyAndNew(t *testing.T) {
	loop, out := newTestLoop(t, "/sessions\n/new\n/exit\n", "unused")
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "No saved sessions.") {
		t.Fatalf("empty session list missing:\n%s", got)
	}
	if !strings.Contains(got, "Started new session") {
		t.Fatalf("new session message missing:\n%s", got)
	}
}
