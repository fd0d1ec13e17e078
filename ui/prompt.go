package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrExit is returned by Prompt when the user leaves the chat.
var ErrExit = errors.New("exit")

const promptPrefix = "> "

var exitWords = map[string]bool{
	"exit": true,
	"quit": true,
	"q":    true,
}

// IsExit reports whether input ends an interactive session. Empty input
// counts as leaving.
func IsExit(input string) bool {
	input = strings.TrimSpace(input)
	return input == "" || exitWords[strings.ToLower(input)]
}

type promptModel struct {
	input     textinput.Model
	submitted bool
	aborted   bool
}

func newPromptModel(placeholder string) promptModel {
	ti := textinput.New()
	ti.Prompt = PromptStyle.Render(promptPrefix)
	ti.Placeholder = placeholder
	ti.CharLimit = 0
	ti.Focus()
	return promptModel{input: ti}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.submitted || m.aborted {
		return ""
	}
	return m.input.View()
}

// Prompt reads one line of input. It returns ErrExit when the user aborts
// or enters an exit word.
func Prompt(in io.Reader, out io.Writer, placeholder string) (string, error) {
	p := tea.NewProgram(newPromptModel(placeholder), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	m := final.(promptModel)
	value := m.input.Value()
	if m.aborted || IsExit(value) {
		return "", ErrExit
	}

	fmt.Fprintln(out, PromptStyle.Render(promptPrefix)+value)
	return value, nil
}
