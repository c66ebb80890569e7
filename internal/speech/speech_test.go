package speech

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDecodePCM16LE(t *testing.T) {
	data := make([]byte, 6)
	binary.LittleEndian.PutUint16(data[0:], uint16(int16(0)))
	binary.LittleEndian.PutUint16(data[2:], uint16(0x8000))
	binary.LittleEndian.PutUint16(data[4:], uint16(int16(16384)))

	samples, err := DecodePCM16LE(data)
	if err != nil {
		t.Fatalf("DecodePCM16LE: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("len=%d, want 3", len(samples))
	}
	if samples[0] != 0 || samples[1] != -1.0 || samples[2] != 0.5 {
		t.Fatalf("samples=%v", samples)
	}
}

func TestDecodePCM16LEOddLength(t *testing.T) {
	if _, err := DecodePCM16LE([]byte{0x01}); err == nil {
		t.Fatal("odd length should fail")
	}
}

func TestFrameDuration(t *testing.T) {
	// 24000 采样 @ 24kHz = 1s / 24000 samples at 24kHz is one second
	if got := FrameDuration(24000*bytesPerSample, NarrationSampleRate); got != time.Second {
		t.Fatalf("duration=%v, want 1s", got)
	}
	if got := FrameDuration(0, LiveOutputSampleRate); got != 0 {
		t.Fatalf("duration=%v, want 0", got)
	}
}

func TestCursorGaplessScheduling(t *testing.T) {
	var c Cursor
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	first := c.Schedule(now, 100*time.Millisecond)
	if !first.Equal(now) {
		t.Fatalf("first start=%v, want now", first)
	}
	// 第二帧在第一帧仍在播放时到达，应无缝接续
	// The second frame arrives while the first still plays; it must chain gaplessly
	second := c.Schedule(now.Add(20*time.Millisecond), 100*time.Millisecond)
	if !second.Equal(now.Add(100 * time.Millisecond)) {
		t.Fatalf("second start=%v, want %v", second, now.Add(100*time.Millisecond))
	}
}

func TestCursorIdleGap(t *testing.T) {
	var c Cursor
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	c.Schedule(now, 50*time.Millisecond)

	// 播放全部结束后的帧从当前时间开始 / A frame after playback drained starts now
	late := now.Add(5 * time.Second)
	start := c.Schedule(late, 50*time.Millisecond)
	if !start.Equal(late) {
		t.Fatalf("start=%v, want %v", start, late)
	}
}

func TestCursorReset(t *testing.T) {
	var c Cursor
	now := time.Now()
	c.Schedule(now, time.Second)
	c.Reset()
	if !c.Next().IsZero() {
		t.Fatalf("cursor=%v, want zero after reset", c.Next())
	}
}

func TestTranscriptFinalAndInterim(t *testing.T) {
	var tr Transcript
	tr.Push("deploy the ", true)
	tr.Push("tok", false)
	if tr.Committed() != "deploy the " {
		t.Fatalf("committed=%q", tr.Committed())
	}
	if tr.Preview() != "deploy the tok" {
		t.Fatalf("preview=%q", tr.Preview())
	}

	// 中间片段被替换而不是累积 / Interim fragments replace, never accumulate
	tr.Push("token", false)
	if tr.Preview() != "deploy the token" {
		t.Fatalf("preview=%q", tr.Preview())
	}

	tr.Push("token contract", true)
	if tr.Committed() != "deploy the token contract" {
		t.Fatalf("committed=%q", tr.Committed())
	}
	if tr.Preview() != tr.Committed() {
		t.Fatal("final push should clear the interim fragment")
	}

	tr.Reset()
	if tr.Preview() != "" {
		t.Fatal("reset should clear everything")
	}
}

func TestNarrationPrompt(t *testing.T) {
	text := "Deploying.\n```solidity\ncontract T {}\n```\nConfirm receipt."
	prompt := NarrationPrompt(text)
	if !strings.HasPrefix(prompt, NarrationPrefix) {
		t.Fatalf("prompt missing prefix: %q", prompt)
	}
	if strings.Contains(prompt, "contract T") {
		t.Fatalf("code leaked into narration: %q", prompt)
	}
	if !strings.Contains(prompt, " (Code output omitted for audio) ") {
		t.Fatalf("placeholder missing: %q", prompt)
	}
}

func TestWAVDirSink(t *testing.T) {
	dir := t.TempDir()
	sink := &WAVDirSink{Dir: dir}

	pcm := make([]byte, 480*bytesPerSample)
	if err := sink.Play(context.Background(), pcm, NarrationSampleRate); err != nil {
		t.Fatalf("Play: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries=%d err=%v, want 1 wav file", len(entries), err)
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read clip: %v", err)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE header")
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != NarrationSampleRate {
		t.Fatalf("sample rate=%d, want %d", got, NarrationSampleRate)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); int(got) != len(pcm) {
		t.Fatalf("data length=%d, want %d", got, len(pcm))
	}
}
