package dispatcher

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"daneybil/internal/chat"
	"daneybil/internal/config"
	"daneybil/internal/contextmgr"
	"daneybil/internal/provider"
	"daneybil/internal/storage"
)

// 失败与确认的固定文案；对话协议的一部分，不做本地化
// Fixed failure and confirmation phrases; part of the conversation protocol,
// never localized
const (
	FailureText     = "COMMAND FAILURE: Critical exception encountered. Resetting precision buffers. Please re-issue command."
	AuthFailureText = "CRITICAL ERROR: API Key missing or invalid. Verify system environment."

	ConfirmUtterance = "I CONFIRM THIS COMMAND. EXECUTE."
	CancelUtterance  = "CANCEL COMMAND."
)

var (
	// ErrEmptyUtterance 空提交，不落任何消息
	// ErrEmptyUtterance rejects empty submissions; no message is appended
	ErrEmptyUtterance = errors.New("utterance is empty")

	// ErrBusy 上一次提交仍在进行
	// ErrBusy rejects a submission while a prior one is in flight
	ErrBusy = errors.New("a submission is already in flight")

	// ErrCredentialsRequired 凭证失败闩锁已置位
	// ErrCredentialsRequired is returned once the credentials latch is set
	ErrCredentialsRequired = errors.New("credentials required")

	// ErrNotAwaitingConfirmation 当前没有待确认的命令
	// ErrNotAwaitingConfirmation means no command is pending confirmation
	ErrNotAwaitingConfirmation = errors.New("no command awaiting confirmation")

	// ErrNothingInFlight Await 在没有已开始的提交时被调用
	// ErrNothingInFlight means Await was called with no begun submission
	ErrNothingInFlight = errors.New("no submission in flight")
)

// State 会话的确认状态
// State is the per-session confirmation state
type State int

const (
	StateIdle State = iota
	StateAwaitingConfirmation
)

// Narrator 朗读副作用的接收方；实现负责去除代码块并合成语音
// Narrator receives the narration side effect; implementations strip code
// fences and synthesize speech
type Narrator interface {
	Narrate(ctx context.Context, text string) error
}

// Outcome 一次提交的结果；失败同样以助手消息的形式呈现
// Outcome is the result of one submission; failures surface as assistant
// messages too
type Outcome struct {
	Reply                chat.Message
	AwaitingConfirmation bool
	CredentialsRequired  bool
}

// Dispatcher 把用户输入变成一次完整的命令回合：校验、追加、规范化、调用
// provider、分类回复、触发副作用并持久化。每个会话同一时刻只允许一次在途提交。
//
// Dispatcher turns user input into one complete command turn: validate, append,
// normalize, call the provider, classify the reply, fire side effects, and
// persist. Only one submission may be in flight per session.
type Dispatcher struct {
	provider provider.Provider
	sys      *config.System
	store    storage.Store
	narrator Narrator

	mu                  sync.Mutex
	sessions            []chat.Session
	current             chat.Session
	state               State
	inflight            bool
	pending             pendingTurn
	credentialsRequired bool
}

// pendingTurn Begin 和 Await 之间携带的回合数据
// pendingTurn carries the turn data between Begin and Await
type pendingTurn struct {
	turns  []contextmgr.Turn
	strict bool
}

// New 创建 dispatcher；restored 是启动时从存储载入的会话集合
// New creates a dispatcher; restored is the session collection loaded from
// storage at startup
func New(p provider.Provider, sys *config.System, store storage.Store, restored []chat.Session) *Dispatcher {
	return &Dispatcher{
		provider: p,
		sys:      sys,
		store:    store,
		sessions: restored,
		current:  chat.NewSession(chat.DefaultSessionID),
	}
}

// SetNarrator 注入朗读实现；nil 表示关闭朗读副作用
// SetNarrator injects the narration implementation; nil disables the side effect
func (d *Dispatcher) SetNarrator(n Narrator) {
	d.mu.Lock()
	d.narrator = n
	d.mu.Unlock()
}

// Submit 执行一次完整的命令回合
// Submit executes one complete command turn
func (d *Dispatcher) Submit(ctx context.Context, text, image string) (Outcome, error) {
	if err := d.Begin(text, image); err != nil {
		return Outcome{}, err
	}
	return d.Await(ctx)
}

// Begin 校验并同步追加用户消息，标记提交在途。拆成两步是为了让 UI 在
// 网络等待开始之前就能渲染出用户回合；Await 完成其余部分。
//
// Begin validates and synchronously appends the user message, marking the
// submission in flight. The split lets a UI render the user turn before the
// network wait starts; Await completes the rest.
func (d *Dispatcher) Begin(text, image string) error {
	text = strings.TrimSpace(text)
	if text == "" && image == "" {
		return ErrEmptyUtterance
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.credentialsRequired {
		return ErrCredentialsRequired
	}
	if d.inflight {
		return ErrBusy
	}
	d.inflight = true

	logBefore := append([]chat.Message(nil), d.current.Messages...)
	userMsg := chat.NewUserMessage(text, image, d.current.LastTimestamp())
	d.current.Messages = append(d.current.Messages, userMsg)
	d.current.LastUpdated = userMsg.Timestamp
	d.pending = pendingTurn{
		turns:  contextmgr.Normalize(logBefore, text, image),
		strict: d.sys.StrictMode(),
	}
	return nil
}

// Await 执行已开始提交的网络调用并完成回合
// Await runs the begun submission's network call and completes the turn
func (d *Dispatcher) Await(ctx context.Context) (Outcome, error) {
	d.mu.Lock()
	if !d.inflight {
		d.mu.Unlock()
		return Outcome{}, ErrNothingInFlight
	}
	pending := d.pending
	d.mu.Unlock()

	resp, err := d.provider.Generate(ctx, provider.Request{Turns: pending.turns, Strict: pending.strict})

	d.mu.Lock()
	defer d.mu.Unlock()
	d.inflight = false
	d.pending = pendingTurn{}

	var reply chat.Message
	if err != nil {
		replyText := FailureText
		if IsAuthDenied(err) {
			replyText = AuthFailureText
			d.credentialsRequired = true
		}
		log.Debug("command turn failed", "err", err)
		reply = chat.NewAssistantMessage(replyText, d.current.LastTimestamp())
		d.state = StateIdle
	} else {
		reply = chat.NewAssistantMessage(resp.Text, d.current.LastTimestamp())
		if reply.NeedsConfirmation {
			d.state = StateAwaitingConfirmation
		} else {
			d.state = StateIdle
		}
		d.fireSideEffects(reply)
	}

	d.current.Messages = append(d.current.Messages, reply)
	d.current.LastUpdated = reply.Timestamp
	if d.current.Title == "" {
		d.current.Title = chat.InferTitle(d.current.Messages)
	}
	d.persistLocked()

	return Outcome{
		Reply:                reply,
		AwaitingConfirmation: d.state == StateAwaitingConfirmation,
		CredentialsRequired:  d.credentialsRequired,
	}, nil
}

// Confirm 提交固定的确认话语；仅在待确认状态下允许
// Confirm submits the fixed confirmation utterance; only legal while awaiting
func (d *Dispatcher) Confirm(ctx context.Context) (Outcome, error) {
	if err := d.BeginConfirm(); err != nil {
		return Outcome{}, err
	}
	return d.Await(ctx)
}

// Cancel 提交固定的取消话语；仅在待确认状态下允许
// Cancel submits the fixed cancellation utterance; only legal while awaiting
func (d *Dispatcher) Cancel(ctx context.Context) (Outcome, error) {
	if err := d.BeginCancel(); err != nil {
		return Outcome{}, err
	}
	return d.Await(ctx)
}

// BeginConfirm Begin 的确认变体，供两段式 UI 使用
// BeginConfirm is the confirmation variant of Begin for two-phase UIs
func (d *Dispatcher) BeginConfirm() error {
	if d.ConfirmationState() != StateAwaitingConfirmation {
		return ErrNotAwaitingConfirmation
	}
	return d.Begin(ConfirmUtterance, "")
}

// BeginCancel Begin 的取消变体
// BeginCancel is the cancellation variant of Begin
func (d *Dispatcher) BeginCancel() error {
	if d.ConfirmationState() != StateAwaitingConfirmation {
		return ErrNotAwaitingConfirmation
	}
	return d.Begin(CancelUtterance, "")
}

// ConfirmationState 当前确认状态
// ConfirmationState returns the current confirmation state
func (d *Dispatcher) ConfirmationState() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Processing 是否有在途提交
// Processing reports whether a submission is in flight
func (d *Dispatcher) Processing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight
}

// CredentialsRequired 凭证闩锁状态
// CredentialsRequired reports the credentials latch
func (d *Dispatcher) CredentialsRequired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.credentialsRequired
}

// ResetCredentials 清除凭证闩锁（例如用户换了 key 之后）
// ResetCredentials clears the credentials latch (after the user swaps keys)
func (d *Dispatcher) ResetCredentials() {
	d.mu.Lock()
	d.credentialsRequired = false
	d.mu.Unlock()
}

// fireSideEffects 尽力而为，失败只记日志；调用方持有 d.mu
// fireSideEffects is best effort, failures are logged only; caller holds d.mu
func (d *Dispatcher) fireSideEffects(reply chat.Message) {
	if d.sys.AudioOutputEnabled() && d.narrator != nil {
		go func(text string) {
			if err := d.narrator.Narrate(context.Background(), text); err != nil {
				log.Warn("narration failed", "err", err)
			}
		}(reply.Text)
	}
	if d.sys.AutoCopyEnabled() && reply.HasCode {
		go func(text string) {
			code, ok := chat.FirstCodeBlock(text)
			if !ok {
				return
			}
			if err := clipboardWriteAll(code); err != nil {
				log.Warn("clipboard copy failed", "err", err)
			}
		}(reply.Text)
	}
}

// persistLocked 按持久化规则写回会话集合；调用方持有 d.mu
// persistLocked writes the session collection back per the persistence rules;
// caller holds d.mu
func (d *Dispatcher) persistLocked() {
	if d.store == nil {
		return
	}
	d.sessions = storage.Upsert(d.sessions, d.current)
	if err := d.store.SaveAll(d.sessions); err != nil {
		log.Warn("session persist failed", "session", d.current.ID, "err", err)
	}
}

// IsAuthDenied 判定失败是否属于凭证拒绝
// IsAuthDenied reports whether a failure is a credential denial
func IsAuthDenied(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"403", "404", "permission denied", "permission_denied", "not found", "not_found", "api key", "api_key"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
