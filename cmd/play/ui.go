package main

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/generativefiction/fortuna-engine/pkg/console"
	"github.com/generativefiction/fortuna-engine/pkg/game"
)

const placeholderText = "What do you do?"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	goalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	flavorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")). // bright green
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// UI is the BubbleTea model for local play.
// https://github.com/charmbracelet/bubbletea
type UI struct {
	session  *game.Session
	viewport viewport.Model
	input    textinput.Model

	// transcript holds unstyled lines for the clipboard.
	transcript []string
	rendered   []string
	ready      bool
	width      int
	height     int
}

type commandResultMsg struct {
	echo     string
	messages []console.Message
	gameOver bool
}

func newUI(session *game.Session) *UI {
	ti := textinput.New()
	ti.Placeholder = placeholderText
	ti.Prompt = promptStyle.Render(">> ")
	ti.CharLimit = 200
	ti.Focus()

	vp := viewport.New(80, 24)
	vp.MouseWheelEnabled = true

	ui := &UI{
		session:  session,
		viewport: vp,
		input:    ti,
	}
	ui.appendStyled(titleStyle.Render("THE FORTUNA"), "THE FORTUNA")
	ui.append(console.Message{Text: "Type commands like \"look\", \"north\", or tell someone something in quotes."})
	// The world already buffered the chapter opening.
	for _, msg := range session.World.Output().Drain() {
		ui.append(msg)
	}
	return ui
}

func (m *UI) Init() tea.Cmd {
	return textinput.Blink
}

func (m *UI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 3
		m.input.Width = msg.Width - 6
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlY:
			// Best effort; play continues if no clipboard is available.
			_ = clipboard.WriteAll(strings.Join(m.transcript, "\n"))
			return m, nil
		case tea.KeyEnter:
			command := strings.TrimSpace(m.input.Value())
			if command == "" {
				return m, nil
			}
			if command == "quit" || command == "exit" {
				return m, tea.Quit
			}
			m.input.Reset()
			return m, m.runCommand(command)
		}

	case commandResultMsg:
		m.appendStyled(userStyle.Render(">> "+msg.echo), ">> "+msg.echo)
		for _, message := range msg.messages {
			m.append(message)
		}
		if msg.gameOver {
			m.appendStyled(titleStyle.Render("THE END"), "THE END")
		}
		m.refresh()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// runCommand executes the command against the engine. Model calls can
// take seconds, so this runs as a tea.Cmd off the update loop.
func (m *UI) runCommand(command string) tea.Cmd {
	return func() tea.Msg {
		m.session.HandleCommand(context.Background(), command)
		w := m.session.World
		return commandResultMsg{
			echo:     command,
			messages: w.Output().Drain(),
			gameOver: w.GameOver(),
		}
	}
}

func (m *UI) append(msg console.Message) {
	if msg.Pause {
		sep := separatorStyle.Render(strings.Repeat("·", 3))
		m.rendered = append(m.rendered, sep)
		m.transcript = append(m.transcript, "")
	}
	m.appendStyled(styleFor(msg.Style).Render(msg.Text), msg.Text)
}

func (m *UI) appendStyled(rendered, plain string) {
	m.rendered = append(m.rendered, rendered, "")
	m.transcript = append(m.transcript, plain, "")
}

func styleFor(style console.Style) lipgloss.Style {
	switch style {
	case console.StyleWarning:
		return warningStyle
	case console.StyleFlavor:
		return flavorStyle
	case console.StyleAction:
		return actionStyle
	case console.StyleHeader:
		return headerStyle
	case console.StyleGoal:
		return goalStyle
	case console.StyleSuccess:
		return successStyle
	default:
		return lipgloss.NewStyle()
	}
}

func (m *UI) refresh() {
	width := m.viewport.Width - 4
	if width < 20 {
		width = 20
	}
	var sb strings.Builder
	for _, line := range m.rendered {
		sb.WriteString(wordwrap.String(line, width))
		sb.WriteString("\n")
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m *UI) View() string {
	if !m.ready {
		return "Loading..."
	}
	help := separatorStyle.Render("enter: act • ctrl+y: copy transcript • ctrl+c: quit")
	return m.viewport.View() + "\n" + m.input.View() + "\n" + help
}

var _ tea.Model = (*UI)(nil)
