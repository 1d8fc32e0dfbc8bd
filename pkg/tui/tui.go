// Package tui provides a terminal user interface for smfplay
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/james-see/smfplay/pkg/midifile"
	"github.com/james-see/smfplay/pkg/player"
)

// Acid-inspired color scheme
var (
	acidGreen  = lipgloss.Color("#39FF14")
	acidYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(acidGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(acidYellow).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(acidGreen).
			Padding(1, 2)
)

// maxTraceLines bounds the check trace shown in the result box
const maxTraceLines = 20

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateRunning
	StateResult
)

// Action is what the selected file is used for
type Action int

const (
	ActionPlay Action = iota
	ActionCheck
	ActionAnalyze
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
}

var menuItems = []MenuItem{
	{Title: "Play", Description: "Play a MIDI file on the configured output", Action: ActionPlay},
	{Title: "Check", Description: "Decode every track and trace its events", Action: ActionCheck},
	{Title: "Analyze", Description: "Compute duration, bars and event counts", Action: ActionAnalyze},
	{Title: "Exit", Description: "Exit the application", Action: ActionExit},
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	item         MenuItem
	cfg          *midifile.RunConfig
	opts         player.Options

	updates  chan tea.Msg
	cancel   context.CancelFunc
	progress progressMsg

	trace    string
	analysis *player.Analysis
	stopped  bool
	quitting bool // quit once the run has released its devices
	err      error
	width    int
	height   int
}

// progressMsg reports the playback position
type progressMsg struct {
	bar   int
	ticks uint64
	notes int
	mute  bool
}

// runDoneMsg signals the end of a run
type runDoneMsg struct {
	trace    string
	analysis *player.Analysis
	err      error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model playing with cfg and opts
func New(cfg *midifile.RunConfig, opts player.Options) Model {
	if cfg == nil {
		cfg = midifile.DefaultRunConfig()
	}

	fp := filepicker.New()
	fp.AllowedTypes = []string{".mid", ".midi", ".smf", ".kar", ".gz"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(acidGreen)

	return Model{
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
		cfg:        cfg,
		opts:       opts,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs to receive all messages
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			return m.start()
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateRunning:
			return m.updateRunning(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		m.progress = msg
		return m, waitForUpdate(m.updates)

	case runDoneMsg:
		m.state = StateResult
		m.trace = msg.trace
		m.analysis = msg.analysis
		m.err = msg.err
		if m.stopped && errors.Is(msg.err, context.Canceled) {
			m.err = nil
		}
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		m.item = menuItems[m.menuIndex]
		if m.item.Action == ActionExit {
			return m, tea.Quit
		}
		m.state = StateFilePicker
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateRunning(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "s", " ":
		if m.cancel != nil {
			m.stopped = true
			m.cancel()
		}
	case "ctrl+c":
		if m.cancel == nil {
			return m, tea.Quit
		}
		m.stopped = true
		m.quitting = true
		m.cancel()
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.trace = ""
		m.analysis = nil
		m.stopped = false
		m.progress = progressMsg{}
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// start launches the selected action in the background
func (m Model) start() (tea.Model, tea.Cmd) {
	m.state = StateRunning
	m.updates = make(chan tea.Msg, 16)
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	go run(ctx, m.item.Action, m.selectedFile, m.cfg, m.opts, m.updates)
	return m, tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

func waitForUpdate(updates <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func run(ctx context.Context, action Action, path string, cfg *midifile.RunConfig, opts player.Options, updates chan<- tea.Msg) {
	data, err := player.Load(path)
	if err != nil {
		updates <- runDoneMsg{err: err}
		return
	}

	switch action {
	case ActionCheck:
		var trace strings.Builder
		err := player.New(cfg, opts).Check(data, &trace)
		updates <- runDoneMsg{trace: trace.String(), err: err}
	case ActionAnalyze:
		a, err := player.New(cfg, opts).Analyze(data)
		updates <- runDoneMsg{analysis: a, err: err}
	default:
		// The trace would write over the screen.
		opts.Trace = nil
		err := player.New(cfg, opts).Play(ctx, data, newMonitor(updates))
		updates <- runDoneMsg{err: err}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateRunning:
		s.WriteString(m.viewRunning())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT ACTION "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(acidYellow).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" %s: SELECT MIDI FILE ", strings.ToUpper(m.item.Title))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewRunning() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" %s ", strings.ToUpper(m.item.Title))))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	if m.item.Action == ActionPlay {
		state := "playing"
		switch {
		case m.stopped:
			state = "stopping"
		case m.progress.mute:
			state = "skipping"
		}
		s.WriteString(statusStyle.Render(fmt.Sprintf("  bar %d • tick %d • %d notes • %s",
			m.progress.bar+1, m.progress.ticks, m.progress.notes, state)))
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("esc: stop"))
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	switch {
	case m.err != nil:
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s failed: %s", m.item.Title, m.err.Error())))
	case m.analysis != nil:
		a := m.analysis
		s.WriteString(titleStyle.Render(" ANALYSIS "))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("File:     %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Format:   %d, %d tracks, division %d\n", a.Format, a.Tracks, a.Division))
		s.WriteString(fmt.Sprintf("Duration: %s (%d ticks, %d bars)\n", a.Duration.Round(time.Millisecond), a.Ticks, a.LastBar))
		s.WriteString(fmt.Sprintf("Notes:    %d on channels %v", a.Notes, a.Channels))
		if len(a.TrackNames) > 0 {
			s.WriteString(fmt.Sprintf("\nTracks:   %s", strings.Join(a.TrackNames, ", ")))
		}
	default:
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		switch {
		case m.stopped:
			s.WriteString(successStyle.Render("✓ Playback stopped"))
		case m.item.Action == ActionCheck:
			s.WriteString(successStyle.Render("✓ File is well formed"))
		default:
			s.WriteString(successStyle.Render("✓ Playback complete!"))
		}
		if m.trace != "" {
			s.WriteString("\n\n")
			s.WriteString(clip(m.trace, maxTraceLines))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

// clip keeps the first n lines of text
func clip(text string, n int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:n], "\n") + fmt.Sprintf("\n… %d more lines", len(lines)-n)
}

func asciiLogo() string {
	logo := `
  ____  __  __ _____ ____  _        _ __   __
 / ___||  \/  |  ___|  _ \| |      / \\ \ / /
 \___ \| |\/| | |_  | |_) | |     / _ \\ V /
  ___) | |  | |  _| |  __/| |___ / ___ \| |
 |____/|_|  |_|_|   |_|   |_____/_/   \_\_|
`
	return lipgloss.NewStyle().Foreground(acidGreen).Render(logo)
}

// Run starts the TUI application
func Run(cfg *midifile.RunConfig, opts player.Options) error {
	p := tea.NewProgram(New(cfg, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
