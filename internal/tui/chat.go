// Package tui is the interactive chat shell over the query engine.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aria-labs/ariaquery/internal/engine"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
)

// maxHistory caps the transcript kept on screen.
const maxHistory = 40

type chatEntry struct {
	query  string
	answer string
	isErr  bool
}

// App is the chat model.
type App struct {
	ctx     context.Context
	eng     *engine.Engine
	input   string
	history []chatEntry
	width   int
	height  int
	busy    bool
}

func New(ctx context.Context, eng *engine.Engine) *App {
	return &App{ctx: ctx, eng: eng}
}

type answerMsg struct {
	query  string
	answer string
	isErr  bool
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case answerMsg:
		a.busy = false
		a.history = append(a.history, chatEntry{query: msg.query, answer: msg.answer, isErr: msg.isErr})
		if len(a.history) > maxHistory {
			a.history = a.history[len(a.history)-maxHistory:]
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return a, tea.Quit
		case tea.KeyEnter:
			q := strings.TrimSpace(a.input)
			a.input = ""
			if q == "" || a.busy {
				return a, nil
			}
			if q == "exit" || q == "quit" {
				return a, tea.Quit
			}
			a.busy = true
			return a, a.ask(q)
		case tea.KeyBackspace:
			if len(a.input) > 0 {
				a.input = a.input[:len(a.input)-1]
			}
			return a, nil
		case tea.KeySpace:
			a.input += " "
			return a, nil
		case tea.KeyRunes:
			a.input += string(msg.Runes)
			return a, nil
		}
	}
	return a, nil
}

func (a *App) ask(query string) tea.Cmd {
	return func() tea.Msg {
		res := a.eng.ProcessQuery(a.ctx, query, nil)
		if res == nil {
			return answerMsg{query: query, answer: "That doesn't look like a data question I can answer from your records. Try asking about spending, subscriptions, tasks, emails, habits, focus time, or your calendar."}
		}
		return answerMsg{query: query, answer: res.Answer, isErr: res.Type == "error"}
	}
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ariaquery") + dimStyle.Render("  ·  ask about your data, esc to quit"))
	b.WriteString("\n\n")

	for _, e := range a.history {
		b.WriteString(userStyle.Render("you ") + e.query + "\n")
		style := answerStyle
		if e.isErr {
			style = errStyle
		}
		for _, line := range strings.Split(e.answer, "\n") {
			b.WriteString(style.Render("    " + line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if a.busy {
		b.WriteString(dimStyle.Render("thinking...") + "\n")
	}
	b.WriteString(promptStyle.Render("> ") + a.input)
	return b.String()
}
