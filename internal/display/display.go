// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type manages a persistent status bar (results state, sort and
// applied-filter chips) and an input prompt at the bottom of the
// terminal. Result listings and notices are printed above the rendered
// area via Program.Println / Printf, so concurrent writes never garble
// the display.
//
// The prompt has two modes, toggled with Tab: command mode, where a line
// is submitted on Enter, and search mode, where every keystroke is fed to
// the debounced title search.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
	"github.com/hammamikhairi/ottobrowse/internal/engine"
	"github.com/hammamikhairi/ottobrowse/internal/facet"
	"github.com/hammamikhairi/ottobrowse/internal/results"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	chipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4e7")).
			Background(lipgloss.Color("#3f3f46")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	searchPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#bbf7d0"))

	// BannerStyle is the muted slate used for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

const (
	commandPrompt = "otto> "
	searchPrompt  = "find> "
)

// Browser is the part of the browsing engine the UI reads and drives.
type Browser interface {
	View() results.View
	Chips() []facet.Chip
	Snapshot() (domain.FacetSet, domain.SortKey)
	Messages() *results.Messages
	OpenSearch() *engine.SearchField
}

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may safely
// call [UI.Println], [UI.Printf], and read from [UI.InputChan] at any
// time after [UI.WaitReady] returns.
type UI struct {
	program atomic.Pointer[tea.Program]
	browser Browser
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	done    atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI(b Browser) *UI {
	return &UI{
		browser: b,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Listen forwards a results transition to the event loop. It never
// blocks, so it is safe to register as an engine change listener.
func (u *UI) Listen(v results.View) {
	p := u.program.Load()
	if p == nil || u.done.Load() {
		return
	}
	go p.Send(viewMsg(v))
}

// Println prints a line above the prompt. Thread-safe.
// If the program hasn't started yet, falls back to fmt.Println.
func (u *UI) Println(a ...interface{}) {
	if p := u.program.Load(); p != nil && !u.done.Load() {
		p.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt. Thread-safe.
func (u *UI) Printf(format string, a ...interface{}) {
	if p := u.program.Load(); p != nil && !u.done.Load() {
		p.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed command-mode lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ── Styled print helpers ─────────────────────────────────────────

// PrintNotice prints an informational line.
func (u *UI) PrintNotice(text string) {
	u.Println(noticeStyle.Render("  " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("otto") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// ShowView prints the full listing of v.
func (u *UI) ShowView(v results.View) {
	u.Println(RenderView(v, 0))
}

// PrintChips lists the applied filters, or the no-filter notice.
func (u *UI) PrintChips(chips []facet.Chip, msgs *results.Messages) {
	if len(chips) == 0 {
		u.PrintHint(msgs.NoFilters())
		return
	}
	u.Println("  " + RenderChips(chips))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if p := u.program.Load(); p != nil {
		p.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	m := newModel(u.browser, u.inputCh, u.readyCh, u.PrintUserInput)
	p := tea.NewProgram(m)
	u.program.Store(p)

	_, err := p.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type inputMode int

const (
	modeCommand inputMode = iota
	modeSearch
)

// viewMsg carries a results transition into the event loop.
type viewMsg results.View

type model struct {
	browser Browser
	input   textinput.Model
	spin    spinner.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string) // prints user input into scrollback

	mode   inputMode
	search *engine.SearchField
	view   results.View
	width  int

	// What has been printed to the scrollback so far, so a loaded page
	// only prints the new rows.
	printedKey   string
	printedCount int
}

func newModel(b Browser, inputCh chan<- string, readyCh chan struct{}, echo func(string)) model {
	ti := textinput.New()
	// Use a plain-text prompt so the textinput width math stays correct.
	ti.Prompt = commandPrompt
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60 // updated on first WindowSizeMsg

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = loadingStyle

	v := b.View()
	return model{
		browser:      b,
		input:        ti,
		spin:         sp,
		inputCh:      inputCh,
		readyCh:      readyCh,
		echoFn:       echo,
		view:         v,
		printedKey:   v.Query.Key(),
		printedCount: len(v.Items),
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spin.Tick, signalReady(m.readyCh)}
	if len(m.view.Items) > 0 {
		cmds = append(cmds, tea.Println(RenderView(m.view, 0)))
	}
	return tea.Batch(cmds...)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if ch != nil {
			close(ch)
		}
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.leaveSearch()
			return m, tea.Quit
		case tea.KeyTab:
			if m.mode == modeSearch {
				m.leaveSearch()
			} else {
				m.enterSearch()
			}
			return m, nil
		case tea.KeyEsc:
			if m.mode == modeSearch {
				m.leaveSearch()
			}
			return m, nil
		case tea.KeyEnter:
			if m.mode == modeSearch {
				return m, nil
			}
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				// Return a Cmd that prints the echo; this runs
				// outside Update so it won't deadlock on msgs.
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.mode == modeSearch && m.input.Value() != before {
			m.search.Type(m.input.Value())
		}
		return m, cmd

	case viewMsg:
		return m.applyView(results.View(msg))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(commandPrompt) {
			m.input.Width = msg.Width - len(commandPrompt)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// applyView keeps the newest view and prints settled results.
func (m model) applyView(v results.View) (tea.Model, tea.Cmd) {
	if v.Rev <= m.view.Rev {
		return m, nil
	}
	m.view = v

	cmds := []tea.Cmd{tea.SetWindowTitle(windowTitle(v))}
	switch v.State {
	case results.StatePopulated, results.StateEmpty:
		from := 0
		if key := v.Query.Key(); key == m.printedKey && m.printedCount > 0 && len(v.Items) > m.printedCount {
			from = m.printedCount
		}
		m.printedKey = v.Query.Key()
		m.printedCount = len(v.Items)
		cmds = append(cmds, tea.Println(RenderView(v, from)))
	case results.StateErrored:
		cmds = append(cmds, tea.Println(RenderView(v, 0)))
	}
	return m, tea.Batch(cmds...)
}

func (m *model) enterSearch() {
	m.search = m.browser.OpenSearch()
	m.mode = modeSearch
	m.input.Prompt = searchPrompt
	m.input.PromptStyle = searchPromptStyle
	m.input.SetValue(m.search.Text())
	m.input.CursorEnd()
}

func (m *model) leaveSearch() {
	if m.search != nil {
		m.search.Close()
		m.search = nil
	}
	m.mode = modeCommand
	m.input.Prompt = commandPrompt
	m.input.PromptStyle = promptStyle
	m.input.Reset()
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.renderBar())
	b.WriteByte('\n')
	b.WriteString(m.renderChipLine())
	b.WriteByte('\n')

	// Blank line before prompt for visual separation.
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderBar() string {
	var parts []string

	switch m.view.State {
	case results.StateLoading:
		parts = append(parts, m.spin.View()+" "+loadingStyle.Render(m.view.Message))
	case results.StateErrored:
		parts = append(parts, errorStyle.Render(m.view.Message))
	default:
		parts = append(parts, labelStyle.Render(m.view.Message))
	}

	if _, sk := m.browser.Snapshot(); sk.IsSet() {
		parts = append(parts, labelStyle.Render("sort: "+string(sk)))
	}
	if m.mode == modeSearch {
		parts = append(parts, labelStyle.Render("search mode (Tab to leave)"))
	}

	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barBg.Width(w).Render(content)
}

func (m model) renderChipLine() string {
	chips := m.browser.Chips()
	if len(chips) == 0 {
		return secondaryStyle.Render(" " + m.browser.Messages().NoFilters())
	}
	return " " + RenderChips(chips)
}

func windowTitle(v results.View) string {
	if v.State == results.StateLoading {
		return "OttoBrowse"
	}
	return "OttoBrowse: " + v.Message
}
