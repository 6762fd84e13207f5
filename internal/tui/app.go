// Package tui is a minimal chat surface over the command dispatcher.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cajabot/cajabot/internal/dispatch"
)

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

type chatLine struct {
	fromUser bool
	text     string
}

// App is the bubbletea model for the chat client.
type App struct {
	ctx         context.Context
	dispatcher  *dispatch.Dispatcher
	callerID    string
	history     []chatLine
	input       string
	suggestions []string
	width       int
	height      int
}

// New builds the chat app for one caller identity.
func New(ctx context.Context, dispatcher *dispatch.Dispatcher, callerID string) App {
	return App{
		ctx:        ctx,
		dispatcher: dispatcher,
		callerID:   callerID,
		history: []chatLine{
			{text: "Hola, soy cajabot. Escribe un comando como \"crear venta\" o \"ver bancos\"."},
		},
	}
}

func (a App) Init() tea.Cmd { return nil }

type responseMsg dispatch.Response

func (a App) submit(text string) tea.Cmd {
	ctx, dispatcher, callerID := a.ctx, a.dispatcher, a.callerID
	return func() tea.Msg {
		return responseMsg(dispatcher.Handle(ctx, dispatch.Request{Text: text, CallerID: callerID}))
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case responseMsg:
		a.history = append(a.history, chatLine{text: msg.ResponseText})
		a.suggestions = msg.Suggestions
		return a, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return a, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(a.input)
			if text == "" {
				return a, nil
			}
			a.history = append(a.history, chatLine{fromUser: true, text: text})
			a.input = ""
			return a, a.submit(text)
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

func (a App) View() string {
	var b strings.Builder
	for _, line := range a.history {
		if line.fromUser {
			b.WriteString(userStyle.Render("tú> ") + line.text + "\n")
		} else {
			b.WriteString(botStyle.Render(line.text) + "\n")
		}
	}
	if len(a.suggestions) > 0 {
		b.WriteString(hintStyle.Render("sugerencias: "+strings.Join(a.suggestions, " · ")) + "\n")
	}
	b.WriteString(promptStyle.Render("> ") + a.input + "█")
	return b.String()
}
