package cli

import (
	"context"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/mgersbach/studymate/internal/models"
)

// chatTheme holds the color scheme for the chat display.
type chatTheme struct {
	You     lipgloss.Color
	AI      lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Spinner lipgloss.Color
}

var defaultChatTheme = chatTheme{
	You:     lipgloss.Color("#5FAFD7"), // light blue
	AI:      lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Spinner: lipgloss.Color("#5FAFD7"),
}

func (t chatTheme) youStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.You).Bold(true)
}

func (t chatTheme) aiStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.AI).Bold(true)
}

func (t chatTheme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error)
}

func (t chatTheme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// chunkMsg carries one streamed piece of the reply.
type chunkMsg string

// replyDoneMsg carries the final cleaned reply, or the request error.
type replyDoneMsg struct {
	reply string
	err   error
}

// chatModel is the bubbletea model for the interactive chat session.
type chatModel struct {
	input      textinput.Model
	spin       spinner.Model
	theme      chatTheme
	transcript string
	history    []models.Turn
	partial    string
	events     chan tea.Msg
	waiting    bool
	quitting   bool
}

func newChatModel() chatModel {
	ti := textinput.New()
	ti.Placeholder = "Say something..."
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return chatModel{
		input: ti,
		spin:  sp,
		theme: defaultChatTheme,
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			return m.send(text)
		}

	case chunkMsg:
		m.partial += string(msg)
		return m, m.nextEvent()

	case replyDoneMsg:
		m.waiting = false
		m.partial = ""
		if msg.err != nil {
			m.transcript += m.theme.errorStyle().Render("error: "+msg.err.Error()) + "\n\n"
			return m, nil
		}
		m.transcript += m.theme.aiStyle().Render("StudyMate: ") + msg.reply + "\n\n"
		m.history = append(m.history, models.Turn{Role: models.RoleAI, Content: msg.reply})
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

// send records the user turn and starts the streaming request.
func (m chatModel) send(text string) (tea.Model, tea.Cmd) {
	m.transcript += m.theme.youStyle().Render("You: ") + text + "\n"
	m.history = append(m.history, models.Turn{Role: models.RoleUser, Content: text})
	m.waiting = true
	m.events = make(chan tea.Msg, 16)

	window := historyWindow(m.history[:len(m.history)-1])
	events := m.events

	go func() {
		reply, err := apiClient.ChatStream(context.Background(), userID, text, chatAPIKey, window, func(chunk string) {
			events <- chunkMsg(chunk)
		})
		events <- replyDoneMsg{reply: reply, err: err}
		close(events)
	}()

	return m, tea.Batch(m.spin.Tick, m.nextEvent())
}

// nextEvent waits for the next message from the streaming goroutine.
func (m chatModel) nextEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

func (m chatModel) View() tea.View {
	var b strings.Builder
	b.WriteString(m.transcript)

	if m.waiting {
		if m.partial != "" {
			b.WriteString(m.theme.aiStyle().Render("StudyMate: ") + m.partial + "\n")
		} else {
			b.WriteString(m.spin.View() + " thinking...\n")
		}
	} else if !m.quitting {
		b.WriteString(m.input.View() + "\n")
		b.WriteString(m.theme.hintStyle().Render("enter to send, esc to quit") + "\n")
	}

	return tea.NewView(b.String())
}

// runChatTUI starts the interactive chat session.
func runChatTUI() error {
	p := tea.NewProgram(newChatModel())
	_, err := p.Run()
	return err
}
