// Package tui is the bubbletea terminal front-end for a conversation session.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/papercomputeco/devchat/pkg/chat"
	"github.com/papercomputeco/devchat/pkg/codeblock"
	"github.com/papercomputeco/devchat/pkg/render"
	"github.com/papercomputeco/devchat/pkg/session"
)

const helpText = "enter send • tab chat/image • ctrl+y copy code • ctrl+s save code • ctrl+c quit"

// Notifier turns session change notifications into redraws. Pass Notify as
// session.Options.OnChange before building the Model.
type Notifier struct {
	ch chan struct{}
}

// NewNotifier creates a Notifier.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Notify records that the session changed. Bursts coalesce into one redraw.
func (n *Notifier) Notify(session.Snapshot) {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

func (n *Notifier) wait() tea.Msg {
	<-n.ch
	return changedMsg{}
}

type changedMsg struct{}

type submittedMsg struct {
	outcome session.Outcome
}

type ackExpiredMsg struct{}

// Options configures a Model.
type Options struct {
	Renderer *render.Renderer
	Copier   *codeblock.Copier

	// SaveDir is where ctrl+s writes code blocks. Empty means the working
	// directory.
	SaveDir string
}

// Model is the bubbletea model of the chat screen.
type Model struct {
	ctx      context.Context
	session  *session.Session
	notifier *Notifier
	renderer *render.Renderer
	copier   *codeblock.Copier
	saveDir  string

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	width  int
	height int
	status string
	failed bool
}

// New creates a Model for sess. notifier must be the one whose Notify was
// installed as the session's OnChange hook.
func New(ctx context.Context, sess *session.Session, notifier *Notifier, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask for Python, HTML or React code..."
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	copier := opts.Copier
	if copier == nil {
		copier = codeblock.NewCopier()
	}
	saveDir := opts.SaveDir
	if saveDir == "" {
		saveDir = "."
	}

	m := Model{
		ctx:      ctx,
		session:  sess,
		notifier: notifier,
		renderer: opts.Renderer,
		copier:   copier,
		saveDir:  saveDir,
		viewport: viewport.New(80, 20),
		input:    ta,
		spinner:  sp,
		width:    80,
		height:   24,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.notifier.wait)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(msg.Width)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-m.input.Height()-4, 1)
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m, m.submit()
		case "tab":
			mode := m.session.ToggleMode()
			m.setStatus(fmt.Sprintf("switched to %s mode", mode), false)
			return m, nil
		case "ctrl+y":
			return m, m.copyLastBlock()
		case "ctrl+s":
			m.saveLastBlock()
			return m, nil
		}

	case changedMsg:
		// The log grew or loading flipped: show the newest entry.
		m.refresh()
		return m, m.notifier.wait

	case submittedMsg:
		if msg.outcome == session.Busy {
			m.setStatus("still waiting for the previous reply", true)
		}
		m.refresh()
		return m, nil

	case ackExpiredMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("devchat"))
	b.WriteString(" ")
	b.WriteString(modeBadge(m.session.Mode()))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.input.View())

	return b.String()
}

// submit hands the draft to the session. The reply arrives through the
// change notifications while Submit blocks in its own goroutine.
func (m *Model) submit() tea.Cmd {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if m.session.Loading() {
		m.setStatus("still waiting for the previous reply", true)
		return nil
	}

	m.input.Reset()
	m.status = ""
	m.session.SetInput(text)

	sess, ctx := m.session, m.ctx
	return func() tea.Msg {
		return submittedMsg{outcome: sess.SubmitInput(ctx)}
	}
}

func (m *Model) copyLastBlock() tea.Cmd {
	block, ok := LastCodeBlock(m.session.Messages())
	if !ok {
		m.setStatus("no code block to copy", true)
		return nil
	}
	if err := m.copier.Copy(block); err != nil {
		m.setStatus(err.Error(), true)
		return nil
	}
	m.status = ""
	return tea.Tick(codeblock.AckWindow, func(time.Time) tea.Msg {
		return ackExpiredMsg{}
	})
}

func (m *Model) saveLastBlock() {
	block, ok := LastCodeBlock(m.session.Messages())
	if !ok {
		m.setStatus("no code block to save", true)
		return
	}
	path, err := block.Save(m.saveDir)
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus("saved "+path, false)
}

func (m *Model) setStatus(status string, failed bool) {
	m.status = status
	m.failed = failed
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderLog(m.session.Messages()))
	m.viewport.GotoBottom()
}

func (m Model) renderLog(log []chat.Message) string {
	entries := make([]string, 0, len(log))
	for _, msg := range log {
		label := assistantLabelStyle.Render("Assistant")
		if msg.Role == chat.RoleUser {
			label = userLabelStyle.Render("You")
		}
		entries = append(entries, label+"\n"+m.renderer.Message(msg))
	}
	return strings.Join(entries, "\n\n")
}

func (m Model) statusLine() string {
	switch {
	case m.session.Loading():
		return m.spinner.View() + statusStyle.Render(" thinking...")
	case m.copier.Copied():
		return ackStyle.Render("Copied!")
	case m.status != "" && m.failed:
		return errorStyle.Render(m.status)
	case m.status != "":
		return statusStyle.Render(m.status)
	default:
		return statusStyle.Render(helpText)
	}
}

func modeBadge(mode chat.Mode) string {
	if mode == chat.ModeImage {
		return imageModeStyle.Render("image")
	}
	return chatModeStyle.Render("chat")
}

// LastCodeBlock returns the last fenced code block of the newest assistant
// text reply that has one.
func LastCodeBlock(log []chat.Message) (codeblock.Block, bool) {
	for i := len(log) - 1; i >= 0; i-- {
		msg := log[i]
		if msg.Role != chat.RoleAssistant || msg.IsImage() {
			continue
		}
		if blocks := codeblock.Extract(msg.Content); len(blocks) > 0 {
			return blocks[len(blocks)-1], true
		}
	}
	return codeblock.Block{}, false
}

// Run starts the full-screen front-end and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx)).Run()
	return err
}
