package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/grave-master/internal/engine"
	apperrors "github.com/tatianab/grave-master/internal/errors"
	"github.com/tatianab/grave-master/internal/models"
)

// Game is the part of the engine the interface drives.
type Game interface {
	NewConversation(ctx context.Context, opts engine.NewGameOptions) (engine.View, error)
	Resume(ctx context.Context, id string) (engine.View, error)
	ProcessTurn(ctx context.Context, id, input string) (engine.View, error)
}

type sessionState int

const (
	stateChooseCharacter sessionState = iota
	stateLoading
	statePlaying
	stateError
)

const choosePlaceholder = "mortacia or suzerain, add 'party' to travel with companions"

type model struct {
	state          sessionState
	game           Game
	conversationID string
	view           *models.GameSession
	textInput      textinput.Model
	viewport       viewport.Model
	renderer       *glamour.TermRenderer
	err            error
	gameLog        string
	width          int
	height         int
	busy           bool
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F1F1F")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D7AF5F")).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AF87FF")).
			Bold(true).
			Underline(true)
)

func NewModel(game Game, conversationID string) model {
	ti := textinput.New()
	ti.Placeholder = choosePlaceholder
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	m := model{
		state:          stateChooseCharacter,
		game:           game,
		conversationID: conversationID,
		textInput:      ti,
	}
	if conversationID != "" {
		m.state = stateLoading
	}
	return m
}

func (m model) Init() tea.Cmd {
	if m.conversationID != "" {
		return tea.Batch(textinput.Blink, m.resume(m.conversationID))
	}
	return textinput.Blink
}

type startedMsg struct {
	view engine.View
}

type turnProcessedMsg struct {
	view engine.View
	err  error
}

type errMsg struct {
	err error
}

func (m model) logWidth() int {
	return int(float64(m.width) * 0.7)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			if m.state == stateChooseCharacter {
				opts := parseChoice(m.textInput.Value())
				m.textInput.Reset()
				m.state = stateLoading
				return m, m.start(opts)
			}
			if m.state == statePlaying {
				action := strings.TrimSpace(m.textInput.Value())
				if action == "" || m.busy {
					return m, nil
				}
				m.textInput.Reset()

				if action == "/quit" {
					return m, tea.Quit
				}
				if action == "/restart" {
					m.state = stateChooseCharacter
					m.gameLog = ""
					m.view = nil
					m.conversationID = ""
					m.textInput.Placeholder = choosePlaceholder
					return m, nil
				}

				styledAction := userStyle.Width(m.logWidth()).Render("> " + action)
				m.appendLog(styledAction)
				m.busy = true
				return m, m.processTurn(action)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.logWidth()
		m.viewport.Height = msg.Height - 6
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(m.logWidth()-4, 20)),
		)
		if m.state == statePlaying {
			m.viewport.SetContent(m.gameLog)
		}

	case startedMsg:
		m.conversationID = msg.view.ID
		m.view = msg.view.State
		m.state = statePlaying
		if m.viewport.Width == 0 {
			m.viewport = viewport.New(m.logWidth(), max(m.height-6, 5))
		}
		m.gameLog = ""
		m.appendLog(gameStyle.Bold(true).Render("The Grave Master"))
		m.appendLog(m.renderNarrative(msg.view.Response))
		m.textInput.Placeholder = "What do you do?"
		m.textInput.Reset()
		return m, nil

	case turnProcessedMsg:
		m.busy = false
		if msg.err != nil {
			if apperrors.IsRetryable(msg.err) {
				m.appendLog(noticeStyle.Render("The Grave Master is silent. Nothing happened; try again."))
				return m, nil
			}
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		if msg.view.Rejected {
			m.appendLog(noticeStyle.Width(m.logWidth()).Render(msg.view.Response))
			return m, nil
		}
		m.view = msg.view.State
		m.appendLog(m.renderNarrative(msg.view.Response))
		return m, nil

	case errMsg:
		m.err = msg.err
		m.state = stateError
		return m, nil
	}

	if m.state == stateChooseCharacter || m.state == statePlaying {
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) appendLog(s string) {
	if m.gameLog != "" {
		m.gameLog += "\n\n"
	}
	m.gameLog += s
	m.viewport.SetContent(m.gameLog)
	m.viewport.GotoBottom()
}

func (m model) renderNarrative(text string) string {
	if m.renderer != nil {
		if out, err := m.renderer.Render(text); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return gameStyle.Width(m.logWidth()).Render(text)
}

// parseChoice reads "suzerain party" style input.
func parseChoice(s string) engine.NewGameOptions {
	var opts engine.NewGameOptions
	for _, word := range strings.Fields(strings.ToLower(s)) {
		switch word {
		case "party":
			opts.Party = true
		case engine.PresetMortacia, engine.PresetSuzerain:
			opts.Preset = word
		}
	}
	return opts
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateChooseCharacter:
		s = fmt.Sprintf(
			"Welcome to the underworld.\n\n%s\n\n%s",
			"Who descends into Tartarus?",
			m.textInput.View(),
		)

	case stateLoading:
		s = "\n  The Grave Master prepares the dead... please wait.\n"

	case statePlaying:
		mainView := lipgloss.JoinHorizontal(lipgloss.Top,
			m.viewport.View(),
			m.renderState(),
		)

		help := helpStyle.Render("Commands: n/s/e/w/ne/nw/se/sw/u/d, take, drop, equip, search room, add/remove <name> to/from party, /restart, /quit")
		if m.busy {
			help = helpStyle.Render("The Grave Master is speaking...")
		}

		s = lipgloss.JoinVertical(lipgloss.Left,
			mainView,
			"\n"+m.textInput.View(),
			"\n"+help,
		)

	case stateError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.", m.err)
	}

	return "\n" + s + "\n"
}

func (m model) renderState() string {
	if m.view == nil {
		return ""
	}
	v := m.view

	var b strings.Builder
	b.WriteString(titleStyle.Render("LOCATION") + "\n")
	fmt.Fprintf(&b, "X: %d, Y: %d, Z: %d\nRooms visited: %d\nTurns: %d\n\n", v.Position.X, v.Position.Y, v.Position.Z, len(v.Graph.Visited), v.Turns)

	b.WriteString(titleStyle.Render("EXITS") + "\n")
	if node, ok := v.Graph.Lookup(v.Position); ok && len(node.Exits) > 0 {
		exits := make([]string, len(node.Exits))
		for i, d := range node.Exits {
			exits[i] = string(d)
		}
		b.WriteString(strings.Join(exits, ", ") + "\n\n")
	} else {
		b.WriteString("(none)\n\n")
	}

	if p := v.Player; p != nil {
		b.WriteString(titleStyle.Render(strings.ToUpper(p.Name)) + "\n")
		fmt.Fprintf(&b, "Level %d %s\nHP: %d/%d\nXP: %d\n", p.Level, p.Class, p.HP, p.MaxHP, p.XP)
		if len(p.Equipped) > 0 {
			fmt.Fprintf(&b, "Equipped: %s\n", strings.Join(p.Equipped, ", "))
		}
		b.WriteString("\n")
	}

	if len(v.Party) > 0 {
		b.WriteString(titleStyle.Render("PARTY") + "\n")
		for _, e := range v.Party {
			fmt.Fprintf(&b, "- %s (L%d %s)\n", e.Name, e.Level, e.Class)
		}
		b.WriteString("\n")
	}

	room := v.CurrentRoom()
	if len(room.Monsters) > 0 {
		b.WriteString(titleStyle.Render("MONSTERS") + "\n")
		for _, e := range room.Monsters {
			fmt.Fprintf(&b, "- %s (L%d %s)\n", e.Name, e.Level, e.Race)
		}
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render("INVENTORY") + "\n")
	if len(v.Inventory) == 0 {
		b.WriteString("(empty)")
	} else {
		for _, item := range v.Inventory {
			b.WriteString("- " + item + "\n")
		}
	}

	stateWidth := int(float64(m.width) * 0.28)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(b.String())
}

func (m model) start(opts engine.NewGameOptions) tea.Cmd {
	return func() tea.Msg {
		view, err := m.game.NewConversation(context.Background(), opts)
		if err != nil {
			return errMsg{err}
		}
		return startedMsg{view}
	}
}

func (m model) resume(id string) tea.Cmd {
	return func() tea.Msg {
		view, err := m.game.Resume(context.Background(), id)
		if err != nil {
			return errMsg{err}
		}
		return startedMsg{view}
	}
}

func (m model) processTurn(action string) tea.Cmd {
	id := m.conversationID
	return func() tea.Msg {
		view, err := m.game.ProcessTurn(context.Background(), id, action)
		return turnProcessedMsg{view, err}
	}
}

// Run starts the interface. A non-empty conversationID resumes that
// conversation instead of asking for a character.
func Run(game Game, conversationID string) error {
	p := tea.NewProgram(NewModel(game, conversationID), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
