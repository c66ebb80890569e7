package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"daneybil/internal/config"
	"daneybil/internal/contextmgr"
	"daneybil/internal/dispatcher"
	"daneybil/internal/i18n"
	"daneybil/internal/provider"
)

// --- Tea Messages ---

// OutcomeMsg 一次提交完成
// OutcomeMsg reports a finished submission
type OutcomeMsg struct {
	Outcome dispatcher.Outcome
	Err     error
}

// NoticeMsg 状态提示行
// NoticeMsg is a one-line status notice
type NoticeMsg struct{ Text string }

// App Bubble Tea 主 Model
// App is the main Bubble Tea model
type App struct {
	// 布局 / Layout
	width  int
	height int

	// 面板 / Panels
	chatView viewport.Model

	// 输入 / Input
	input textarea.Model

	// 协作对象 / Collaborators
	dispatch *dispatcher.Dispatcher
	prov     provider.Provider
	sys      *config.System

	// 状态 / State
	processing      bool
	awaitingConfirm bool
	credsRequired   bool
	pendingImage    string
	notice          string
	lastError       string
	tokens          int

	// 配置 / Config
	theme  Theme
	keys   KeyMap
	locale *i18n.I18n
}

// NewApp 创建 TUI 应用
// NewApp creates a new TUI application
func NewApp(d *dispatcher.Dispatcher, prov provider.Provider, sys *config.System) App {
	ta := textarea.New()
	ta.Placeholder = i18n.T("input.placeholder")
	ta.CharLimit = 8192
	ta.SetHeight(3)
	ta.Focus()

	return App{
		input:    ta,
		dispatch: d,
		prov:     prov,
		sys:      sys,
		theme:    DarkTheme(),
		keys:     DefaultKeyMap(),
		locale:   i18n.Global(),
	}
}

func (a App) Init() tea.Cmd {
	return textarea.Blink
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, a.keys.ToggleStrict):
			a.sys.SetStrictMode(!a.sys.StrictMode())
			a.notice = a.toggleNotice("strict", a.sys.StrictMode())
			return a, nil

		case key.Matches(msg, a.keys.ToggleAudio):
			a.sys.SetAudioOutputEnabled(!a.sys.AudioOutputEnabled())
			a.notice = a.toggleNotice("audio", a.sys.AudioOutputEnabled())
			return a, nil

		case key.Matches(msg, a.keys.ToggleCopy):
			a.sys.SetAutoCopyEnabled(!a.sys.AutoCopyEnabled())
			a.notice = a.toggleNotice("copy", a.sys.AutoCopyEnabled())
			return a, nil

		case key.Matches(msg, a.keys.NewSession):
			if fresh, err := a.dispatch.StartSession(); err == nil {
				a.notice = a.locale.T("sessions.created", shortID(fresh.ID))
				a.awaitingConfirm = false
				a.refreshChat()
			}
			return a, nil

		case key.Matches(msg, a.keys.Submit):
			return a.submitInput()

		case key.Matches(msg, a.keys.PageUp):
			a.chatView.HalfViewUp()
			return a, nil

		case key.Matches(msg, a.keys.PageDown):
			a.chatView.HalfViewDown()
			return a, nil
		}

		// 待确认且输入为空时，y/n 直接裁决
		// While awaiting with an empty input, y/n decide directly
		if a.awaitingConfirm && strings.TrimSpace(a.input.Value()) == "" {
			switch msg.String() {
			case "y":
				return a.launch(a.dispatch.BeginConfirm)
			case "n":
				return a.launch(a.dispatch.BeginCancel)
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()
		return a, nil

	case OutcomeMsg:
		a.processing = false
		if msg.Err != nil {
			a.lastError = msg.Err.Error()
			a.notice = a.errorNotice(msg.Err)
		} else {
			a.lastError = ""
			a.awaitingConfirm = msg.Outcome.AwaitingConfirmation
			a.credsRequired = msg.Outcome.CredentialsRequired
		}
		a.refreshChat()
		return a, nil

	case NoticeMsg:
		a.notice = msg.Text
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// submitInput 解析输入：斜杠命令就地处理，其余作为命令回合提交
// submitInput parses the input: slash commands are handled in place, anything
// else is submitted as a command turn
func (a App) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(a.input.Value())
	if text == "" {
		return a, nil
	}
	if strings.HasPrefix(text, "/") {
		a.input.Reset()
		return a.runSlashCommand(text)
	}

	image := a.pendingImage
	a.pendingImage = ""
	a.input.Reset()
	return a.launch(func() error { return a.dispatch.Begin(text, image) })
}

// launch 同步追加用户回合并立刻重绘，网络等待留给返回的命令；
// 这样用户消息在任何网络延迟之前就已出现在面板上
// launch appends the user turn synchronously and redraws at once, leaving only
// the network wait to the returned command; the user's message shows on the
// panel before any network latency
func (a App) launch(begin func() error) (tea.Model, tea.Cmd) {
	if err := begin(); err != nil {
		a.notice = a.errorNotice(err)
		return a, nil
	}
	a.processing = true
	a.notice = ""
	a.refreshChat()
	cmd := func() tea.Msg {
		out, err := a.dispatch.Await(context.Background())
		return OutcomeMsg{Outcome: out, Err: err}
	}
	return a, cmd
}

func (a App) runSlashCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	arg := ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	switch fields[0] {
	case "/new":
		if fresh, err := a.dispatch.StartSession(); err != nil {
			a.notice = a.errorNotice(err)
		} else {
			a.notice = a.locale.T("sessions.created", shortID(fresh.ID))
			a.awaitingConfirm = false
			a.refreshChat()
		}
	case "/sessions":
		a.notice = a.sessionList()
	case "/resume":
		a.resumeByArg(arg)
	case "/attach":
		uri, err := provider.LoadImageDataURI(arg)
		if err != nil {
			a.notice = a.locale.T("error.attach_not_found", arg)
		} else {
			a.pendingImage = uri
			a.notice = a.locale.T("repl.attached", filepath.Base(arg))
		}
	case "/key":
		a.dispatch.ResetCredentials()
		a.credsRequired = false
		a.notice = a.locale.T("status.ready")
	case "/model":
		if arg == "" {
			a.notice = a.locale.T("repl.model", a.prov.CurrentModel())
		} else if err := a.prov.SetModel(arg); err != nil {
			a.notice = a.errorNotice(err)
		} else {
			a.notice = a.locale.T("repl.model", arg)
		}
	default:
		a.notice = a.locale.T("repl.help")
	}
	return a, nil
}

func (a *App) resumeByArg(arg string) {
	sessions := a.dispatch.Sessions()
	if idx, err := strconv.Atoi(arg); err == nil && idx >= 1 && idx <= len(sessions) {
		arg = sessions[idx-1].ID
	}
	if resumed, err := a.dispatch.ResumeSession(arg); err != nil {
		a.notice = a.locale.T("sessions.not_found", arg)
	} else {
		a.notice = a.locale.T("sessions.switched", shortID(resumed.ID))
		a.awaitingConfirm = a.dispatch.ConfirmationState() == dispatcher.StateAwaitingConfirmation
		a.refreshChat()
	}
}

func (a App) sessionList() string {
	sessions := a.dispatch.Sessions()
	if len(sessions) == 0 {
		return a.locale.T("sessions.empty")
	}
	var b strings.Builder
	b.WriteString(a.locale.T("sessions.header"))
	for i, s := range sessions {
		b.WriteString(fmt.Sprintf(" · %d:%s", i+1, s.Title))
	}
	return b.String()
}

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	inputHeight := 5
	statusHeight := 1
	noticeHeight := 1
	panelHeight := a.height - inputHeight - statusHeight - noticeHeight
	if panelHeight < 3 {
		panelHeight = 3
	}

	panel := lipgloss.NewStyle().Width(a.width).Height(panelHeight).Render(a.chatView.View())
	noticeLine := a.renderNotice(a.width)
	inputBox := a.theme.InputStyle.Width(a.width).Render(a.input.View())
	statusBar := a.renderStatusBar(a.width)

	return lipgloss.JoinVertical(lipgloss.Left, panel, noticeLine, inputBox, statusBar)
}

// --- 内部方法 / Internal methods ---

func (a *App) relayout() {
	panelHeight := a.height - 8
	if panelHeight < 3 {
		panelHeight = 3
	}
	a.chatView = viewport.New(a.width, panelHeight)
	a.input.SetWidth(a.width - 4)
	a.refreshChat()
}

// refreshChat 从当前会话重建聊天面板并更新 token 估计
// refreshChat rebuilds the chat panel from the current session and refreshes
// the token estimate
func (a *App) refreshChat() {
	session := a.dispatch.Current()
	width := a.width
	if width <= 0 {
		width = 80
	}
	a.chatView.SetContent(RenderTranscript(session.Messages, a.theme, width))
	a.chatView.GotoBottom()
	a.tokens = contextmgr.EstimateTokens(contextmgr.NormalizeHistory(session.Messages))
}

func (a App) renderNotice(width int) string {
	switch {
	case a.awaitingConfirm && !a.processing:
		text := a.locale.T("confirm.pending") + " · " + a.locale.T("confirm.keys")
		return a.theme.ConfirmStyle.Width(width).Render(text)
	case a.credsRequired:
		return a.theme.DangerStyle.Width(width).Render(a.locale.T("error.credentials"))
	case a.notice != "":
		return a.theme.MutedStyle.Width(width).Render(" " + a.notice)
	default:
		return a.theme.MutedStyle.Width(width).Render(" " + a.keyHints())
	}
}

// keyHints 空闲时展示的快捷键提示行
// keyHints is the shortcut hint line shown while idle
func (a App) keyHints() string {
	return strings.Join([]string{
		a.locale.T("keys.submit"),
		a.locale.T("keys.strict"),
		a.locale.T("keys.audio"),
		a.locale.T("keys.copy"),
		a.locale.T("keys.newsess"),
		a.locale.T("keys.quit"),
		a.locale.T("input.attach_hint"),
	}, " · ")
}

func (a App) renderStatusBar(width int) string {
	status := a.locale.T("status.ready")
	if a.processing {
		status = a.locale.T("status.processing")
	}
	mode := a.locale.T("status.adaptive")
	if a.sys.StrictMode() {
		mode = a.locale.T("status.strict")
	}
	audio := a.locale.T("status.audio_off")
	if a.sys.AudioOutputEnabled() {
		audio = a.locale.T("status.audio_on")
	}
	copyState := a.locale.T("status.copy_off")
	if a.sys.AutoCopyEnabled() {
		copyState = a.locale.T("status.copy_on")
	}

	left := fmt.Sprintf(" %s · %s · %s · %s", status, mode, audio, copyState)
	right := fmt.Sprintf("%s · %s  ", a.prov.CurrentModel(), a.locale.T("status.tokens", a.tokens))

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	bar := left + strings.Repeat(" ", gap) + right
	return a.theme.StatusBarStyle.Width(width).Render(bar)
}

func (a App) toggleNotice(what string, on bool) string {
	state := "off"
	if on {
		state = "on"
	}
	return a.locale.T("toggle." + what + "_" + state)
}

func (a App) errorNotice(err error) string {
	switch {
	case errors.Is(err, dispatcher.ErrBusy):
		return a.locale.T("error.busy")
	case errors.Is(err, dispatcher.ErrEmptyUtterance):
		return a.locale.T("error.empty")
	case errors.Is(err, dispatcher.ErrCredentialsRequired):
		return a.locale.T("error.credentials")
	case errors.Is(err, dispatcher.ErrNotAwaitingConfirmation):
		return a.locale.T("error.not_awaiting")
	default:
		return err.Error()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Run 启动 Bubble Tea TUI
// Run starts the Bubble Tea TUI application
func Run(d *dispatcher.Dispatcher, prov provider.Provider, sys *config.System) error {
	app := NewApp(d, prov, sys)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
