package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"daneybil/internal/chat"
	"daneybil/internal/config"
	"daneybil/internal/contextmgr"
	"daneybil/internal/dispatcher"
	"daneybil/internal/i18n"
	"daneybil/internal/provider"
)

// ANSI colors for the prompt
const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[90m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
	ansiRed    = "\x1b[31m"
	ansiBold   = "\x1b[1m"
)

// LiveStarter 启动一次语音通话并阻塞到通话结束；由 cmd 层注入
// LiveStarter starts one voice call and blocks until it ends; injected by cmd
type LiveStarter func(ctx context.Context) error

// Loop 行模式 REPL：读一行、走 dispatcher、打印回复
// Loop is the line-mode REPL: read a line, run the dispatcher, print the reply
type Loop struct {
	dispatch *dispatcher.Dispatcher
	prov     provider.Provider
	sys      *config.System
	locale   *i18n.I18n

	out          io.Writer
	input        lineInput
	pendingImage string
	live         LiveStarter
}

// NewLoop 组装 REPL
// NewLoop assembles the REPL
func NewLoop(d *dispatcher.Dispatcher, prov provider.Provider, sys *config.System, out io.Writer, historyDir string) (*Loop, error) {
	in, err := newLineInput(filepath.Join(historyDir, "repl_history"))
	if err != nil && in == nil {
		return nil, err
	}
	return &Loop{
		dispatch: d,
		prov:     prov,
		sys:      sys,
		locale:   i18n.Global(),
		out:      out,
		input:    in,
	}, nil
}

// SetLiveStarter 注入 /call 的实现
// SetLiveStarter injects the /call implementation
func (l *Loop) SetLiveStarter(s LiveStarter) {
	l.live = s
}

// Run 运行直到 /exit 或 EOF
// Run runs until /exit or EOF
func (l *Loop) Run(ctx context.Context) error {
	defer func() { _ = l.input.Close() }()

	l.printSeed()
	for {
		text, err := l.input.ReadLine(l.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(l.out, l.locale.T("repl.bye"))
				return nil
			}
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "/") {
			if quit := l.runCommand(ctx, text); quit {
				return nil
			}
			continue
		}
		l.submit(ctx, func(c context.Context) (dispatcher.Outcome, error) {
			image := l.pendingImage
			l.pendingImage = ""
			return l.dispatch.Submit(c, text, image)
		})
	}
}

// prompt 形如 "strict · ~123 tokens > "
// prompt looks like "strict · ~123 tokens > "
func (l *Loop) prompt() string {
	mode := l.locale.T("status.adaptive")
	color := ansiCyan
	if l.sys.StrictMode() {
		mode = l.locale.T("status.strict")
		color = ansiGreen
	}
	session := l.dispatch.Current()
	tokens := contextmgr.EstimateTokens(contextmgr.NormalizeHistory(session.Messages))

	if l.dispatch.ConfirmationState() == dispatcher.StateAwaitingConfirmation {
		return fmt.Sprintf("%s%s%s %s·%s %s⚠ confirm?%s > ",
			color, mode, ansiReset, ansiDim, ansiReset, ansiYellow, ansiReset)
	}
	return fmt.Sprintf("%s%s%s %s· %s ·%s > ",
		color, mode, ansiReset, ansiDim, l.locale.T("status.tokens", tokens), ansiReset)
}

func (l *Loop) printSeed() {
	fmt.Fprintf(l.out, "%s%s%s\n\n", ansiBold, chat.SeedGreeting, ansiReset)
}

// runCommand 处理斜杠命令；返回 true 表示退出
// runCommand handles one slash command; true means quit
func (l *Loop) runCommand(ctx context.Context, text string) bool {
	fields := strings.Fields(text)
	arg := ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	switch fields[0] {
	case "/exit", "/quit":
		fmt.Fprintln(l.out, l.locale.T("repl.bye"))
		return true

	case "/help":
		fmt.Fprintln(l.out, l.locale.T("repl.help"))

	case "/sessions":
		l.printSessions()

	case "/resume":
		l.resume(arg)

	case "/new":
		if fresh, err := l.dispatch.StartSession(); err != nil {
			l.printError(err)
		} else {
			fmt.Fprintln(l.out, l.locale.T("sessions.created", shortID(fresh.ID)))
		}

	case "/strict":
		l.sys.SetStrictMode(!l.sys.StrictMode())
		l.printToggle("strict", l.sys.StrictMode())

	case "/audio":
		l.sys.SetAudioOutputEnabled(!l.sys.AudioOutputEnabled())
		l.printToggle("audio", l.sys.AudioOutputEnabled())

	case "/copy":
		l.sys.SetAutoCopyEnabled(!l.sys.AutoCopyEnabled())
		l.printToggle("copy", l.sys.AutoCopyEnabled())

	case "/attach":
		l.attach(arg)

	case "/confirm":
		l.submit(ctx, l.dispatch.Confirm)

	case "/cancel":
		l.submit(ctx, l.dispatch.Cancel)

	case "/key":
		l.dispatch.ResetCredentials()
		fmt.Fprintln(l.out, l.locale.T("status.ready"))

	case "/model":
		if arg == "" {
			fmt.Fprintln(l.out, l.locale.T("repl.model", l.prov.CurrentModel()))
		} else if err := l.prov.SetModel(arg); err != nil {
			l.printError(err)
		} else {
			fmt.Fprintln(l.out, l.locale.T("repl.model", arg))
		}

	case "/call":
		l.runLiveCall(ctx)

	default:
		fmt.Fprintln(l.out, l.locale.T("repl.help"))
	}
	return false
}

func (l *Loop) submit(ctx context.Context, call func(context.Context) (dispatcher.Outcome, error)) {
	fmt.Fprintf(l.out, "%s%s%s\n", ansiDim, l.locale.T("status.processing"), ansiReset)
	out, err := call(ctx)
	if err != nil {
		l.printError(err)
		return
	}
	fmt.Fprintf(l.out, "\n%s\n\n", out.Reply.Text)
	if out.AwaitingConfirmation {
		fmt.Fprintf(l.out, "%s%s · /confirm · /cancel%s\n",
			ansiYellow, l.locale.T("confirm.pending"), ansiReset)
	}
	if out.CredentialsRequired {
		fmt.Fprintf(l.out, "%s%s%s\n", ansiRed, l.locale.T("error.credentials"), ansiReset)
	}
}

func (l *Loop) printSessions() {
	sessions := l.dispatch.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintln(l.out, l.locale.T("sessions.empty"))
		return
	}
	fmt.Fprintln(l.out, l.locale.T("sessions.header"))
	for i, s := range sessions {
		fmt.Fprintf(l.out, "  %2d. %s %s(%s, %d msgs)%s\n",
			i+1, s.Title, ansiDim, shortID(s.ID), len(s.Messages), ansiReset)
	}
}

func (l *Loop) resume(arg string) {
	sessions := l.dispatch.Sessions()
	if idx, err := strconv.Atoi(arg); err == nil && idx >= 1 && idx <= len(sessions) {
		arg = sessions[idx-1].ID
	}
	resumed, err := l.dispatch.ResumeSession(arg)
	if err != nil {
		fmt.Fprintln(l.out, l.locale.T("sessions.not_found", arg))
		return
	}
	fmt.Fprintln(l.out, l.locale.T("sessions.switched", shortID(resumed.ID)))
	// 回放最后一条助手消息方便接续 / Replay the last assistant message to pick up
	for i := len(resumed.Messages) - 1; i >= 0; i-- {
		if resumed.Messages[i].Role == chat.RoleAssistant {
			fmt.Fprintf(l.out, "\n%s\n\n", resumed.Messages[i].Text)
			break
		}
	}
}

func (l *Loop) attach(path string) {
	uri, err := provider.LoadImageDataURI(path)
	if err != nil {
		fmt.Fprintln(l.out, l.locale.T("error.attach_not_found", path))
		return
	}
	l.pendingImage = uri
	fmt.Fprintln(l.out, l.locale.T("repl.attached", filepath.Base(path)))
}

func (l *Loop) runLiveCall(ctx context.Context) {
	if l.live == nil {
		fmt.Fprintln(l.out, l.locale.T("repl.help"))
		return
	}
	fmt.Fprintln(l.out, l.locale.T("live.started"))
	if err := l.live(ctx); err != nil {
		l.printError(err)
	}
	fmt.Fprintln(l.out, l.locale.T("live.ended"))
}

func (l *Loop) printToggle(what string, on bool) {
	state := "off"
	if on {
		state = "on"
	}
	fmt.Fprintln(l.out, l.locale.T("toggle."+what+"_"+state))
}

func (l *Loop) printError(err error) {
	var text string
	switch {
	case errors.Is(err, dispatcher.ErrBusy):
		text = l.locale.T("error.busy")
	case errors.Is(err, dispatcher.ErrEmptyUtterance):
		text = l.locale.T("error.empty")
	case errors.Is(err, dispatcher.ErrCredentialsRequired):
		text = l.locale.T("error.credentials")
	case errors.Is(err, dispatcher.ErrNotAwaitingConfirmation):
		text = l.locale.T("error.not_awaiting")
	default:
		text = err.Error()
	}
	fmt.Fprintf(l.out, "%s%s%s\n", ansiRed, text, ansiReset)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
