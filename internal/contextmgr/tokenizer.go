package contextmgr

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer 回合序列的 token 计数器，tiktoken 不可用时退回启发式
// Tokenizer counts tokens for turn sequences, with a heuristic fallback when
// tiktoken is unavailable
type Tokenizer struct {
	encoder  *tiktoken.Tiktoken
	fallback bool
	mu       sync.RWMutex
}

var (
	defaultTokenizer     *Tokenizer
	defaultTokenizerOnce sync.Once
)

// DefaultTokenizer 返回全局默认 tokenizer
// DefaultTokenizer returns the global default tokenizer
func DefaultTokenizer() *Tokenizer {
	defaultTokenizerOnce.Do(func() {
		defaultTokenizer = NewTokenizer("cl100k_base")
	})
	return defaultTokenizer
}

// NewTokenizer 创建 tokenizer；离线环境可能没有 BPE 缓存，此时退回启发式
// NewTokenizer creates a tokenizer; offline environments may lack the BPE
// cache, in which case the heuristic is used
func NewTokenizer(encodingName string) *Tokenizer {
	t := &Tokenizer{}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		t.fallback = true
		return t
	}
	t.encoder = enc
	return t
}

// Count 计算整个回合序列的 token 总数
// Count returns the total token count for a turn sequence
func (t *Tokenizer) Count(turns []Turn) int {
	total := 0
	for _, turn := range turns {
		// 每条消息约 4 token 的结构开销 / ~4 tokens of per-message overhead
		total += 4 + t.CountText(turn.Role) + t.CountText(turn.Text)
	}
	return total
}

// CountText 计算单个文本的 token 数
// CountText counts tokens for one text string
func (t *Tokenizer) CountText(text string) int {
	if text == "" {
		return 0
	}
	if t.fallback {
		return heuristicTokenCount(text)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.encoder.Encode(text, nil, nil))
}

// EstimateTokens 用默认 tokenizer 估算序列 token 数
// EstimateTokens estimates the sequence token count with the default tokenizer
func EstimateTokens(turns []Turn) int {
	return DefaultTokenizer().Count(turns)
}

// heuristicTokenCount 启发式估算：CJK 约每字 1.5 token，ASCII 约 4 字符 1 token
// heuristicTokenCount: CJK ~1.5 tokens per rune, ASCII ~4 chars per token
func heuristicTokenCount(text string) int {
	cjk := 0
	ascii := 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			ascii++
		}
	}
	estimate := int(float64(cjk)*1.5 + float64(ascii)*0.25)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x3000 && r <= 0x303F) ||
		(r >= 0xFF00 && r <= 0xFFEF) ||
		(r >= 0xAC00 && r <= 0xD7AF)
}
