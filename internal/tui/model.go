// Package tui is the interactive game screen: a side panel with past games,
// the transcript, the message input and the diagnosis input.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/medsim/medsim/internal"
	"github.com/medsim/medsim/internal/api"
	"github.com/medsim/medsim/internal/game"
)

type focus int

const (
	focusMessage focus = iota
	focusDiagnosis
	focusSidebar
)

const sidebarWidth = 32

// storeChangedMsg means the store published a new state
type storeChangedMsg struct{}

// opDoneMsg carries the result of a store operation
type opDoneMsg struct {
	err error
}

// Model is the bubbletea model for `medsim play`
type Model struct {
	store      *game.Store
	catalog    *internal.Catalog
	difficulty internal.Difficulty
	changes    chan struct{}

	view       game.View
	message    textinput.Model
	diagnosis  textinput.Model
	spinner    spinner.Model
	transcript viewport.Model

	focus         focus
	cursor        int
	width         int
	height        int
	loginRequired bool
}

// New builds the screen for store. difficulty is used by ctrl+n.
func New(store *game.Store, catalog *internal.Catalog, difficulty internal.Difficulty) Model {
	changes := make(chan struct{}, 1)
	store.OnChange(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	message := textinput.New()
	message.Placeholder = catalog.Text(internal.TextMessagePlaceholder)
	message.Prompt = "> "
	message.Focus()

	diagnosis := textinput.New()
	diagnosis.Placeholder = catalog.Text(internal.TextDiagnosisPlaceholder)
	diagnosis.Prompt = "? "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		store:      store,
		catalog:    catalog,
		difficulty: difficulty,
		changes:    changes,
		view:       store.Snapshot(),
		message:    message,
		diagnosis:  diagnosis,
		spinner:    sp,
		transcript: viewport.New(80, 20),
		width:      120,
		height:     30,
	}
}

// LoginRequired reports whether the screen closed because the stored login
// is missing or was rejected
func (m Model) LoginRequired() bool {
	return m.loginRequired
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.run(m.store.Open),
		m.waitForChange(),
		m.spinner.Tick,
		textinput.Blink,
	)
}

// waitForChange blocks until the store publishes a change
func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		<-ch
		return storeChangedMsg{}
	}
}

// run executes one store operation off the UI loop. In-flight requests are
// never cancelled.
func (m Model) run(op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: op(context.Background())}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case storeChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case opDoneMsg:
		m.refresh()
		if m.view.LoggedOut || errors.Is(msg.err, api.ErrLoginRequired) {
			m.loginRequired = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.cycleFocus()
		return m, nil
	case "ctrl+n":
		if m.view.Busy {
			return m, nil
		}
		difficulty := m.difficulty
		return m, m.run(func(ctx context.Context) error {
			return m.store.NewGame(ctx, difficulty)
		})
	case "enter":
		return m, m.submit()
	}

	if m.focus == focusSidebar {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.view.Past)-1 {
				m.cursor++
			}
		}
		return m, nil
	}

	// inputs are disabled while a request is outstanding
	if m.view.Busy || !m.view.Current.AcceptsInput() {
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusMessage {
		m.message, cmd = m.message.Update(msg)
		m.store.SetDraft(m.message.Value())
	} else {
		m.diagnosis, cmd = m.diagnosis.Update(msg)
		m.store.SetDiagnosis(m.diagnosis.Value())
	}
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	if m.view.Busy {
		return nil
	}
	switch m.focus {
	case focusMessage:
		return m.run(m.store.Send)
	case focusDiagnosis:
		return m.run(m.store.EndGame)
	default:
		if m.cursor < 0 || m.cursor >= len(m.view.Past) {
			return nil
		}
		id := m.view.Past[m.cursor].ID
		return m.run(func(ctx context.Context) error {
			return m.store.Select(ctx, id)
		})
	}
}

// cycleFocus moves message -> diagnosis -> side panel. Finished games have
// no inputs, so focus stays on the side panel.
func (m *Model) cycleFocus() {
	if !m.view.Current.AcceptsInput() {
		m.setFocus(focusSidebar)
		return
	}
	m.setFocus((m.focus + 1) % 3)
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.message.Blur()
	m.diagnosis.Blur()
	switch f {
	case focusMessage:
		m.message.Focus()
	case focusDiagnosis:
		m.diagnosis.Focus()
	}
}

// refresh pulls the latest store state into the model
func (m *Model) refresh() {
	m.view = m.store.Snapshot()

	if m.message.Value() != m.view.Draft {
		m.message.SetValue(m.view.Draft)
	}
	if m.diagnosis.Value() != m.view.Diagnosis {
		m.diagnosis.SetValue(m.view.Diagnosis)
	}
	if m.cursor >= len(m.view.Past) {
		m.cursor = len(m.view.Past) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.focus != focusSidebar && !m.view.Current.AcceptsInput() {
		m.setFocus(focusSidebar)
	}

	m.transcript.SetContent(renderTranscript(m.view.Current, m.transcript.Width, m.view.Busy))
	m.transcript.GotoBottom()
}

func (m *Model) resize() {
	w := m.width - sidebarWidth - 4
	if w < 20 {
		w = 20
	}
	h := m.height - 9
	if h < 5 {
		h = 5
	}
	m.transcript.Width = w
	m.transcript.Height = h
	m.message.Width = w - 4
	m.diagnosis.Width = w - 4
	m.transcript.SetContent(renderTranscript(m.view.Current, w, m.view.Busy))
	m.transcript.GotoBottom()
}

// Run shows the screen until the user quits. It returns
// api.ErrLoginRequired if the login was missing or rejected.
func Run(store *game.Store, catalog *internal.Catalog, difficulty internal.Difficulty) error {
	p := tea.NewProgram(New(store, catalog, difficulty), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.LoginRequired() {
		return api.ErrLoginRequired
	}
	return nil
}
