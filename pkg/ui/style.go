package ui

import "github.com/charmbracelet/lipgloss"

var (
	bgDark   = lipgloss.Color("#0F172A")
	bgMedium = lipgloss.Color("#1E293B")

	textPrimary   = lipgloss.Color("#F8FAFC")
	textSecondary = lipgloss.Color("#CBD5E1")
	textMuted     = lipgloss.Color("#64748B")

	accentColor  = lipgloss.Color("#34D399")
	blockedColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#F87171")
)

var (
	titleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B5CF6")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 2).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(textSecondary).
			Bold(true).
			MarginTop(1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(textMuted).
			Padding(0, 1)

	eventStyle   = lipgloss.NewStyle().Foreground(textPrimary)
	grantStyle   = lipgloss.NewStyle().Foreground(accentColor)
	blockedStyle = lipgloss.NewStyle().Foreground(blockedColor)
	victimStyle  = lipgloss.NewStyle().Foreground(errorColor).Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(bgMedium).
			Foreground(textSecondary).
			Padding(0, 1).
			MarginTop(1)

	mutedStyle = lipgloss.NewStyle().Foreground(textMuted)
)
