package i18n

import "testing"

func TestNew_English(t *testing.T) {
	i := New("en")
	if i.Locale() != "en" {
		t.Fatalf("Locale()=%q, want en", i.Locale())
	}
	if got := i.T("status.ready"); got != "Ready" {
		t.Fatalf("T(status.ready)=%q, want Ready", got)
	}
}

func TestNew_Chinese(t *testing.T) {
	i := New("zh-CN")
	if i.Locale() != "zh-CN" {
		t.Fatalf("Locale()=%q, want zh-CN", i.Locale())
	}
	if got := i.T("status.ready"); got != "就绪" {
		t.Fatalf("T(status.ready)=%q, want 就绪", got)
	}
}

func TestChineseFallsBackToEnglish(t *testing.T) {
	i := New("zh_CN.UTF-8")
	if i.Locale() != "zh-CN" {
		t.Fatalf("Locale()=%q, want zh-CN", i.Locale())
	}
	// 中文目录未覆盖的键回退英文 / Keys absent from the zh catalog fall back to English
	if got := i.T("repl.help"); got == "repl.help" || got == "" {
		t.Fatalf("repl.help should fall back to the English catalog")
	}
}

func TestPickPriority(t *testing.T) {
	// 第一个非空候选胜出 / The first non-empty candidate wins
	if got := Pick("", "zh-CN"); got != "zh-CN" {
		t.Fatalf("Pick=%q, want zh-CN", got)
	}
	if got := Pick("en", "zh-CN"); got != "en" {
		t.Fatalf("Pick=%q, want en", got)
	}
}

func TestPickFallsBackToEnvironment(t *testing.T) {
	t.Setenv("DANEYBIL_LANG", "zh_CN.UTF-8")
	if got := Pick("", ""); got != "zh-CN" {
		t.Fatalf("Pick=%q, want zh-CN from DANEYBIL_LANG", got)
	}
}

func TestUnknownLocaleLandsOnEnglish(t *testing.T) {
	i := New("fr-FR")
	if i.Locale() != "en" {
		t.Fatalf("Locale()=%q, want en", i.Locale())
	}
	if got := i.T("status.ready"); got != "Ready" {
		t.Fatalf("T(status.ready)=%q", got)
	}
}

func TestUnknownKeyReturnsKey(t *testing.T) {
	i := New("en")
	if got := i.T("no.such.key"); got != "no.such.key" {
		t.Fatalf("T(no.such.key)=%q", got)
	}
}

func TestFormatArgs(t *testing.T) {
	i := New("en")
	if got := i.T("status.tokens", 1234); got != "~1234 tokens" {
		t.Fatalf("T(status.tokens, 1234)=%q", got)
	}
}
