package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"mqjs"
	"mqjs/pkg/compiler"
	mqerrors "mqjs/pkg/errors"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive read-eval-print loop",
	Args:  cobra.NoArgs,
	RunE:  runRepl,
}

func runRepl(cmd *cobra.Command, args []string) error {
	e, err := newEngineFromFlags()
	if err != nil {
		return err
	}
	defer e.Destroy()

	m := newReplModel(e)
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

type replEntry struct {
	input  string
	output string
	isErr  bool
}

// replModel is a line-buffered REPL: each Enter either evaluates the
// accumulated input or, if it ends mid-expression, waits for another
// line. A trailing compile error whose position sits at end-of-input is
// treated as "needs more input" rather than a real failure, the way a
// bracket-counting REPL detects an unterminated block. Evaluation runs
// on its own goroutine so the spinner keeps animating while a script
// that runs long (an unbounded loop under a low interrupt budget, a
// heavy GC pass) is still executing.
type replModel struct {
	engine     *mqjs.Engine
	history    []replEntry
	pending    string
	input      string
	width      int
	spinner    spinner.Model
	evaluating bool
}

type evalDoneMsg struct {
	source string
	result string
	isErr  bool
}

func newReplModel(e *mqjs.Engine) *replModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	return &replModel{engine: e, width: 80, spinner: sp}
}

func (m *replModel) Init() tea.Cmd { return nil }

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case spinner.TickMsg:
		if !m.evaluating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case evalDoneMsg:
		m.evaluating = false
		m.history = append(m.history, replEntry{input: msg.source, output: msg.result, isErr: msg.isErr})
		return m, nil
	case tea.KeyMsg:
		if m.evaluating {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
			return m, nil
		case tea.KeyRunes, tea.KeySpace:
			m.input += string(msg.Runes)
			if msg.Type == tea.KeySpace {
				m.input += " "
			}
			return m, nil
		}
	}
	return m, nil
}

// submit either buffers an unfinished statement or launches evaluation
// as a tea.Cmd, returning a spinner tick alongside it so the animation
// starts on the same frame.
func (m *replModel) submit() tea.Cmd {
	source := m.pending + m.input
	m.input = ""

	if needsMoreInput(source) {
		m.pending = source + "\n"
		return nil
	}
	m.pending = ""
	m.evaluating = true

	engine := m.engine
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		result, errs := engine.Eval(source)
		if len(errs) > 0 {
			return evalDoneMsg{source: source, result: firstMessage(errs), isErr: true}
		}
		return evalDoneMsg{source: source, result: engine.VM.ToDisplayString(result)}
	})
}

// needsMoreInput does a parse-only pass and reports whether the last
// failure is a compile error at the very end of the source (on the EOF
// token), the signal a statement was left open (an unclosed brace or
// paren).
func needsMoreInput(source string) bool {
	_, errs := compiler.Compile(source)
	if len(errs) == 0 {
		return false
	}
	last := errs[len(errs)-1]
	if last.Kind() != "Compile" {
		return false
	}
	return last.Pos().StartPos >= len(source)
}

func firstMessage(errs []mqerrors.MqjsError) string {
	if len(errs) == 0 {
		return ""
	}
	return fmt.Sprintf("%s Error: %s", errs[0].Kind(), errs[0].Message())
}

func (m *replModel) View() string {
	prompt := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Render("mqjs>")
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	resultStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	var b strings.Builder
	for _, entry := range m.history {
		b.WriteString(prompt + " " + entry.input + "\n")
		if entry.isErr {
			b.WriteString(errStyle.Render(entry.output) + "\n")
		} else {
			b.WriteString(resultStyle.Render(entry.output) + "\n")
		}
	}
	if m.evaluating {
		b.WriteString(m.spinner.View() + " evaluating...")
		return b.String()
	}

	continuePrompt := prompt
	if m.pending != "" {
		continuePrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Render("  ...")
	}
	b.WriteString(continuePrompt + " " + m.input)
	return b.String()
}
