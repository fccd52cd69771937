package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/medsim/medsim/internal"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(sidebarWidth)

	sidebarFocusedStyle = sidebarStyle.BorderForeground(lipgloss.Color("86"))

	gameStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	gameCursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	gameCurrentMarker = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("●")

	doctorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	patientStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true)
	systemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	resultStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("214")).
			PaddingLeft(1)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)

	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
)

func (m Model) View() string {
	var main strings.Builder
	main.WriteString(m.transcript.View())
	main.WriteString("\n")

	switch {
	case m.view.Busy:
		main.WriteString(m.spinner.View() + " " + m.busyText())
		main.WriteString("\n")
	case m.view.Current.AcceptsInput():
		main.WriteString(m.message.View())
		main.WriteString("\n")
		main.WriteString(m.diagnosis.View())
		main.WriteString("\n")
	}
	if m.view.Error != "" {
		main.WriteString(errorStyle.Render(m.view.Error))
		main.WriteString("\n")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), " ", main.String())

	help := helpStyle.Render("tab: focus • enter: submit/open • ctrl+n: " +
		strings.ToLower(m.catalog.Text(internal.TextNewGame)) + " • esc: quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.catalog.Text(internal.TextTitle)),
		body,
		help,
	)
}

func (m Model) busyText() string {
	if m.focus == focusDiagnosis {
		return m.catalog.Text(internal.TextFinishing)
	}
	return m.catalog.Text(internal.TextSending)
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(m.catalog.Text(internal.TextPastGames)))
	b.WriteString("\n\n")

	var currentID int64 = -1
	if m.view.Current != nil {
		currentID = m.view.Current.ID
	}

	for i, g := range m.view.Past {
		marker := " "
		if g.ID == currentID {
			marker = gameCurrentMarker
		}
		line := fmt.Sprintf("%s %s\n  %s: %s\n  %s: %s",
			marker,
			g.StartTime.Local().Format("2006-01-02 15:04"),
			m.catalog.Text(internal.TextDiagnosis), m.diagnosisLabel(g),
			m.catalog.Text(internal.TextScore), m.scoreLabel(g),
		)
		style := gameStyle
		if m.focus == focusSidebar && i == m.cursor {
			style = gameCursorStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if m.focus == focusSidebar {
		return sidebarFocusedStyle.Render(b.String())
	}
	return sidebarStyle.Render(b.String())
}

func (m Model) diagnosisLabel(g *internal.Session) string {
	if !g.IsFinished || g.Diagnosis == nil {
		return m.catalog.Text(internal.TextNotFinished)
	}
	return *g.Diagnosis
}

func (m Model) scoreLabel(g *internal.Session) string {
	if g.Score == nil {
		return m.catalog.Text(internal.TextNoScore)
	}
	return fmt.Sprintf("%d", *g.Score)
}

// renderTranscript formats the messages of game for a pane width wide.
// While busy, unconfirmed doctor lines are dimmed.
func renderTranscript(game *internal.Session, width int, busy bool) string {
	if game == nil {
		return ""
	}
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for _, msg := range game.Messages {
		var label string
		switch msg.Sender {
		case internal.SenderDoctor:
			label = doctorStyle.Render(string(msg.Sender))
		case internal.SenderPatient:
			label = patientStyle.Render(string(msg.Sender))
		default:
			label = systemStyle.Render(string(msg.Sender))
		}
		if !msg.Timestamp.IsZero() {
			label += helpStyle.Render(" " + msg.Timestamp.Local().Format("15:04"))
		}
		b.WriteString(label)
		b.WriteString("\n")

		content := msg.Content
		switch {
		case msg.IsResult:
			content = resultStyle.Width(width - 2).Render(content)
		case busy && msg.IsProvisional() && msg.Sender == internal.SenderDoctor:
			content = pendingStyle.Width(width).Render(content)
		default:
			content = wrap.Render(content)
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
