package ui

import (
	"fmt"
	"strings"

	"latchkey/pkg/concurrency/lock"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// EventKind selects how a scenario event is rendered.
type EventKind int

const (
	EventInfo EventKind = iota
	EventGrant
	EventBlocked
	EventVictim
)

// Event is one line of the scenario log.
type Event struct {
	Text string
	Kind EventKind
}

// Step is a single scripted action against the lock manager. Run performs
// the action and describes what happened.
type Step struct {
	Label string
	Run   func() Event
}

// Scenario builds a fresh manager plus the steps that drive it. The model
// re-invokes it on rewind so every run starts from clean state.
type Scenario func() (*lock.Manager, []Step)

// Model is the terminal inspector: it steps through a contention scenario
// and shows the manager's bookkeeping after every action.
type Model struct {
	scenario Scenario
	manager  *lock.Manager
	script   []Step
	position int
	events   []Event

	showJSON bool
	width    int
	height   int
	keys     keyMap
	help     help.Model
}

func NewModel(scenario Scenario) Model {
	manager, script := scenario()
	return Model{
		scenario: scenario,
		manager:  manager,
		script:   script,
		keys:     keys,
		help:     help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Step):
			if m.position < len(m.script) {
				step := m.script[m.position]
				m.position++
				m.events = append(m.events, step.Run())
			}

		case key.Matches(msg, m.keys.Rewind):
			m.manager, m.script = m.scenario()
			m.position = 0
			m.events = nil

		case key.Matches(msg, m.keys.ToggleJSON):
			m.showJSON = !m.showJSON
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("latchkey · lock manager inspector"))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Scenario"))
	b.WriteString("\n")
	b.WriteString(m.renderScript())

	b.WriteString(sectionStyle.Render("Events"))
	b.WriteString("\n")
	b.WriteString(m.renderEvents())

	b.WriteString(sectionStyle.Render("Manager state"))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.renderSnapshot()))
	b.WriteString("\n")

	b.WriteString(statusBarStyle.Render(m.help.ShortHelpView([]key.Binding{
		m.keys.Step, m.keys.Rewind, m.keys.ToggleJSON, m.keys.Quit,
	})))
	return b.String()
}

func (m Model) renderScript() string {
	var b strings.Builder
	for i, step := range m.script {
		marker := "  "
		style := mutedStyle
		switch {
		case i < m.position:
			marker = "✓ "
		case i == m.position:
			marker = "→ "
			style = eventStyle
		}
		b.WriteString(style.Render(marker + step.Label))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderEvents() string {
	if len(m.events) == 0 {
		return mutedStyle.Render("press enter to run the first step") + "\n"
	}

	var b strings.Builder
	for _, event := range m.events {
		style := eventStyle
		switch event.Kind {
		case EventGrant:
			style = grantStyle
		case EventBlocked:
			style = blockedStyle
		case EventVictim:
			style = victimStyle
		}
		b.WriteString(style.Render(event.Text))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderSnapshot() string {
	snap := m.manager.Snapshot()

	if m.showJSON {
		data, err := snap.JSON()
		if err != nil {
			return victimStyle.Render(fmt.Sprintf("snapshot encoding failed: %v", err))
		}
		return string(data)
	}

	var b strings.Builder
	for _, tbl := range snap.Tables {
		line := tbl.Table
		if tbl.HasLocks {
			line += " " + blockedStyle.Render("[locked]")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	for _, txn := range snap.Transactions {
		line := fmt.Sprintf("%s (importance %d)", txn.Trans, txn.Importance)
		if len(txn.Held) > 0 {
			line += "  holds " + strings.Join(txn.Held, ", ")
		}
		if txn.Pending != "" {
			line += "  " + blockedStyle.Render("waits on "+txn.Pending)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	for _, bucket := range snap.Buckets {
		b.WriteString(fmt.Sprintf("queue[%d]: %s", bucket.Importance, strings.Join(bucket.Transactions, " → ")))
		b.WriteString("\n")
	}

	out := b.String()
	if out == "" {
		out = mutedStyle.Render("no registrations")
	}
	return strings.TrimRight(out, "\n")
}
