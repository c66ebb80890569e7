package speech

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"
)

// LiveSystemInstruction 语音通话的固定人设
// LiveSystemInstruction is the fixed voice-call persona
const LiveSystemInstruction = "You are the DANEYBIL AI Voice Interface. Keep responses professional, technical, and concise."

// MicMIMEType 麦克风上行的 PCM 声明
// MicMIMEType declares the mic uplink PCM format
const MicMIMEType = "audio/pcm;rate=16000"

// Frame 一段入站音频与其排期的开始时刻
// Frame is one inbound audio clip with its scheduled start instant
type Frame struct {
	Data  []byte
	Start time.Time
}

// CallConfig 通话参数
// CallConfig holds the call parameters
type CallConfig struct {
	Model string
	Voice string
}

// Call 与 Live API 的全双工语音通话。出站麦克风帧按序发送；入站帧按回放
// 游标排期；服务端打断信号丢弃所有已排期未播放的缓冲并让游标归零。
// 与消息日志完全解耦。
//
// Call is a full-duplex voice call against the Live API. Outbound mic frames
// are sent in order; inbound frames are scheduled by the playback cursor; a
// server interruption discards every scheduled-unplayed buffer and resets the
// cursor. Fully decoupled from the message log.
type Call struct {
	client *genai.Client
	cfg    CallConfig

	session *genai.Session
	cursor  Cursor
	muted   atomic.Bool

	frames     chan Frame
	interrupts chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// NewCall 创建通话对象；Start 之前不会联网
// NewCall creates the call object; no network until Start
func NewCall(client *genai.Client, cfg CallConfig) *Call {
	return &Call{
		client:     client,
		cfg:        cfg,
		frames:     make(chan Frame, 64),
		interrupts: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Start 建立连接并启动接收循环
// Start opens the connection and launches the receive loop
func (c *Call) Start(ctx context.Context) error {
	session, err := c.client.Live.Connect(ctx, c.cfg.Model, &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.cfg.Voice},
			},
		},
		SystemInstruction: genai.NewContentFromText(LiveSystemInstruction, genai.RoleUser),
	})
	if err != nil {
		return fmt.Errorf("connect live session: %w", err)
	}
	c.session = session
	go c.receiveLoop()
	return nil
}

// SendMic 发送一帧麦克风音频；静音时静默丢弃
// SendMic sends one mic frame; silently dropped while muted
func (c *Call) SendMic(data []byte) error {
	if c.muted.Load() {
		return nil
	}
	if err := c.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{Data: data, MIMEType: MicMIMEType},
	}); err != nil {
		return fmt.Errorf("send mic frame: %w", err)
	}
	return nil
}

// SetMuted 切换麦克风静音；不影响入站播放
// SetMuted toggles mic mute; inbound playback is unaffected
func (c *Call) SetMuted(v bool) {
	c.muted.Store(v)
}

// Muted 当前静音状态 / Muted reports the mute state
func (c *Call) Muted() bool {
	return c.muted.Load()
}

// Frames 入站帧通道，按排期顺序交付
// Frames is the inbound frame channel, delivered in schedule order
func (c *Call) Frames() <-chan Frame {
	return c.frames
}

// Interrupts 打断通知；收到后消费方必须停止当前播放
// Interrupts notifies barge-ins; the consumer must stop current playback
func (c *Call) Interrupts() <-chan struct{} {
	return c.interrupts
}

// Done 通话结束信号 / Done signals the end of the call
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Close 结束通话 / Close ends the call
func (c *Call) Close() {
	c.closeOnce.Do(func() {
		if c.session != nil {
			c.session.Close()
		}
		close(c.done)
	})
}

func (c *Call) receiveLoop() {
	defer c.Close()
	for {
		msg, err := c.session.Receive()
		if err != nil {
			log.Debug("live receive ended", "err", err)
			return
		}
		content := msg.ServerContent
		if content == nil {
			continue
		}

		if content.Interrupted {
			c.handleInterrupt()
			continue
		}

		if content.ModelTurn == nil {
			continue
		}
		for _, part := range content.ModelTurn.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			data := part.InlineData.Data
			start := c.cursor.Schedule(time.Now(), FrameDuration(len(data), LiveOutputSampleRate))
			select {
			case c.frames <- Frame{Data: data, Start: start}:
			case <-c.done:
				return
			}
		}
	}
}

// handleInterrupt 丢弃已排期未播放的帧并让游标归零
// handleInterrupt discards scheduled-unplayed frames and zeroes the cursor
func (c *Call) handleInterrupt() {
	c.cursor.Reset()
	for {
		select {
		case <-c.frames:
		default:
			select {
			case c.interrupts <- struct{}{}:
			default:
			}
			return
		}
	}
}
