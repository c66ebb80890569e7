package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Sink 接收待播放的 PCM 片段；硬件回放留给实现方
// Sink receives PCM clips for playback; playback hardware is the
// implementation's concern
type Sink interface {
	Play(ctx context.Context, pcm []byte, sampleRate int) error
}

// WAVDirSink 把每个片段写成目录下带时间戳的 WAV 文件
// WAVDirSink writes each clip as a timestamped WAV file in a directory
type WAVDirSink struct {
	Dir string
}

func (s *WAVDirSink) Play(_ context.Context, pcm []byte, sampleRate int) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create narration directory: %w", err)
	}
	name := fmt.Sprintf("narration_%s.wav", time.Now().UTC().Format("20060102T150405.000"))
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, wrapWAV(pcm, sampleRate), 0o644); err != nil {
		return fmt.Errorf("write narration clip: %w", err)
	}
	return nil
}

// wrapWAV 给 s16le 单声道数据加上 RIFF/WAVE 头
// wrapWAV prepends a RIFF/WAVE header to s16le mono data
func wrapWAV(pcm []byte, sampleRate int) []byte {
	const headerLen = 44
	out := make([]byte, headerLen+len(pcm))
	byteRate := sampleRate * bytesPerSample

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(out[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(bytesPerSample))
	binary.LittleEndian.PutUint16(out[34:36], 16) // bits per sample
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[headerLen:], pcm)
	return out
}
