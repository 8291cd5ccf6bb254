package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/querypad-io/querypad/analysis"
	"github.com/querypad-io/querypad/suggest"
)

var ErrNotATerminal = errors.New("edit requires an interactive terminal")

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Interactive editor with inline ghost-text suggestions",
		ArgsUsage: "[file.sql]",
		Action:    runEdit,
	}
}

func runEdit(ctx context.Context, cmd *cli.Command) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return ErrNotATerminal
	}

	var initial string

	if args := cmd.Args().Slice(); len(args) > 0 {
		text, err := readQuery(args[0])
		if err != nil {
			return err
		}

		initial = strings.TrimRight(text, "\n")
	}

	engine := buildEngine(ctx, cmd)

	model := newEditModel(ctx, engine, initial)

	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))

	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("running editor: %w", err)
	}

	if m, ok := final.(*editModel); ok && m.accepted {
		fmt.Println(m.input.Value())
	}

	return nil
}

// editStyles are the lipgloss styles for the editor demo.
type editStyles struct {
	Prompt  lipgloss.Style
	Ghost   lipgloss.Style
	Alt     lipgloss.Style
	Error   lipgloss.Style
	Prereq  lipgloss.Style
	Warning lipgloss.Style
	Hint    lipgloss.Style
}

func defaultEditStyles() editStyles {
	return editStyles{
		Prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6")).Bold(true), // blue-500
		Ghost:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),            // gray-500
		Alt:     lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")),            // gray-700
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),            // red-500
		Prereq:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")),            // amber-500
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308")),            // yellow-500
		Hint:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af")),            // gray-400
	}
}

// ghostMsg carries an inline suggestion back from the async evaluator.
type ghostMsg struct {
	seq   int
	ghost *suggest.InlineSuggestion
}

// editModel is the bubbletea model for the one-line editor demo.
type editModel struct {
	ctx      context.Context //nolint:containedctx // bubbletea commands need it across Update calls
	engine   *suggest.Engine
	analyzer *analysis.Analyzer
	styles   editStyles

	input    textinput.Model
	analyzed *analysis.AnalyzedQuery

	// seq orders ghost evaluations; stale results are dropped.
	seq   int
	ghost *suggest.InlineSuggestion

	accepted bool
}

func newEditModel(ctx context.Context, engine *suggest.Engine, initial string) *editModel {
	input := textinput.New()
	input.Placeholder = "SELECT ..."
	input.Prompt = ""
	input.SetValue(initial)
	input.CursorEnd()
	input.Focus()

	analyzer := analysis.NewAnalyzer()

	return &editModel{
		ctx:      ctx,
		engine:   engine,
		analyzer: analyzer,
		styles:   defaultEditStyles(),
		input:    input,
		analyzed: analyzer.Analyze(initial),
	}
}

func (m *editModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.evaluate())
}

func (m *editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.accepted = true

			return m, tea.Quit
		case tea.KeyTab:
			if m.ghost != nil {
				m.input.SetValue(m.input.Value() + m.ghost.Text)
				m.input.CursorEnd()
				m.ghost = nil

				m.analyzed = m.analyzer.Analyze(m.input.Value())

				return m, m.evaluate()
			}
		}
	case ghostMsg:
		if msg.seq == m.seq {
			m.ghost = msg.ghost
		}

		return m, nil
	}

	var cmd tea.Cmd

	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() != before {
		m.ghost = nil
		m.analyzed = m.analyzer.Analyze(m.input.Value())

		return m, tea.Batch(cmd, m.evaluate())
	}

	return m, cmd
}

// evaluate kicks off an async ghost evaluation for the current text.
// The sequence number discards results that arrive after another edit.
func (m *editModel) evaluate() tea.Cmd {
	m.seq++
	seq := m.seq
	text := m.input.Value()
	offset := m.input.Position()

	return func() tea.Msg {
		return ghostMsg{
			seq:   seq,
			ghost: m.engine.Inline(m.ctx, text, offset),
		}
	}
}

func (m *editModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Prompt.Render("sql> "))
	b.WriteString(m.input.View())

	// Ghost text renders dimmed after the cursor, never inserted.
	if m.ghost != nil && m.input.Position() == len(m.input.Value()) {
		b.WriteString(m.styles.Ghost.Render(m.ghost.Text))

		if len(m.ghost.Alternatives) > 0 {
			b.WriteString(m.styles.Alt.Render("  (" + strings.Join(m.ghost.Alternatives, ", ") + ")"))
		}
	}

	b.WriteString("\n")

	for _, d := range m.analyzed.Diagnostics {
		style := m.styles.Warning

		switch d.Severity {
		case analysis.SeverityError:
			style = m.styles.Error
		case analysis.SeverityPrereq:
			style = m.styles.Prereq
		case analysis.SeverityWarning:
		}

		b.WriteString(style.Render(fmt.Sprintf("  %s: %s", severityLabel(d.Severity), d.Message)))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Hint.Render("  tab accept ghost · enter print · esc quit"))
	b.WriteString("\n")

	return b.String()
}
