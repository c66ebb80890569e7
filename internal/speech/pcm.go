package speech

import (
	"encoding/binary"
	"fmt"
	"time"
)

// 固定的 PCM 契约：小端 16-bit 单声道
// Fixed PCM contract: little-endian 16-bit mono
const (
	NarrationSampleRate = 24000 // TTS 输出 / TTS output
	LiveInputSampleRate = 16000 // 麦克风上行 / mic uplink
	LiveOutputSampleRate = 24000

	bytesPerSample = 2
)

// DecodePCM16LE 把 s16le 字节解码为 [-1,1] 的浮点采样
// DecodePCM16LE decodes s16le bytes into float samples in [-1,1]
func DecodePCM16LE(data []byte) ([]float32, error) {
	if len(data)%bytesPerSample != 0 {
		return nil, fmt.Errorf("pcm data length %d is not sample-aligned", len(data))
	}
	samples := make([]float32, len(data)/bytesPerSample)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*bytesPerSample:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples, nil
}

// FrameDuration s16le 单声道帧在给定采样率下的时长
// FrameDuration is the length of an s16le mono frame at the given sample rate
func FrameDuration(nBytes, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := nBytes / bytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
