package speech

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"daneybil/internal/chat"
)

// NarrationPrefix 合成请求的固定引导语
// NarrationPrefix is the fixed lead-in of every synthesis request
const NarrationPrefix = "Professional Narration: "

// Narrator 把助手回复合成为语音并交给 Sink
// Narrator synthesizes assistant replies and hands them to the Sink
type Narrator struct {
	client *genai.Client
	model  string
	voice  string
	sink   Sink
}

// NewNarrator 创建朗读器；client 与 provider 共享
// NewNarrator creates a narrator; the client is shared with the provider
func NewNarrator(client *genai.Client, model, voice string, sink Sink) *Narrator {
	return &Narrator{client: client, model: model, voice: voice, sink: sink}
}

// NarrationPrompt 去除代码块并加上引导语
// NarrationPrompt strips code fences and prepends the lead-in
func NarrationPrompt(text string) string {
	return NarrationPrefix + chat.StripCodeBlocks(text)
}

// Narrate 合成一段回复并播放；任何失败只向上返回，不打断对话
// Narrate synthesizes one reply and plays it; failures propagate up without
// disturbing the conversation
func (n *Narrator) Narrate(ctx context.Context, text string) error {
	contents := []*genai.Content{{Parts: []*genai.Part{{Text: NarrationPrompt(text)}}}}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: n.voice},
			},
		},
	}

	result, err := n.client.Models.GenerateContent(ctx, n.model, contents, config)
	if err != nil {
		return fmt.Errorf("synthesize narration: %w", err)
	}

	pcm := extractAudio(result)
	if len(pcm) == 0 {
		return fmt.Errorf("narration response carries no audio")
	}
	return n.sink.Play(ctx, pcm, NarrationSampleRate)
}

// extractAudio 取第一段内联音频字节（SDK 已做 base64 解码）
// extractAudio picks the first inline audio bytes (base64-decoded by the SDK)
func extractAudio(result *genai.GenerateContentResponse) []byte {
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}
