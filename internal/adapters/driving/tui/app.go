package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/keymap"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/messages"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/styles"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/views/reader"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/views/retrieve"
)

// App is the root Bubbletea model. It routes messages to the active view.
type App struct {
	ports  *Ports
	styles *styles.Styles

	retrieveView *retrieve.View
	readerView   *reader.View

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates the application. It fails when a required port is missing.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	return &App{
		ports:        ports,
		styles:       s,
		retrieveView: retrieve.NewView(s, km, ports.Retrieval, ports.Answer),
		readerView:   reader.NewView(s, km),
		currentView:  messages.ViewRetrieve,
	}, nil
}

// WithContext sets the context passed to service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.retrieveView.WithContext(ctx)
	return a
}

// WithTopK sets how many passages each query retrieves.
func (a *App) WithTopK(k int) *App {
	a.retrieveView.WithTopK(k)
	return a
}

// Init sets the window title, starts the cursor and reads the serving build.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("visarag"),
		a.retrieveView.Init(),
		a.loadBuild,
	)
}

func (a *App) loadBuild() tea.Msg {
	m, err := a.ports.Retrieval.Manifest()
	return messages.BuildLoaded{Manifest: m, Err: err}
}

// Update routes a message to the view that owns it.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.currentView {
		case messages.ViewHelp:
			a.currentView = messages.ViewRetrieve
			return a, nil
		case messages.ViewReader:
			a.readerView, cmd = a.readerView.Update(msg)
		default:
			a.retrieveView, cmd = a.retrieveView.Update(msg)
		}
		return a, cmd

	case messages.PassageSelected:
		a.readerView.SetPassage(msg.Passage)
		a.currentView = messages.ViewReader
		return a, nil

	case messages.AnswerCompleted:
		a.retrieveView, cmd = a.retrieveView.Update(msg)
		if msg.Err != nil {
			a.err = msg.Err
			return a, cmd
		}
		a.err = nil
		a.readerView.SetAnswer(msg.Answer)
		a.currentView = messages.ViewReader
		return a, cmd

	case messages.RetrievalCompleted:
		a.err = msg.Err
		a.retrieveView, cmd = a.retrieveView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.retrieveView, cmd = a.retrieveView.Update(msg)
		return a, cmd

	case messages.BuildLoaded:
		a.retrieveView, cmd = a.retrieveView.Update(msg)
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewReader:
		a.readerView, cmd = a.readerView.Update(msg)
	case messages.ViewRetrieve, messages.ViewHelp:
		a.retrieveView, cmd = a.retrieveView.Update(msg)
	}
	return a, cmd
}

// View renders the active view.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.currentView {
	case messages.ViewReader:
		return a.readerView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.retrieveView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Query form:
  (type)         Question, country or visa type
  tab/shift+tab  Move between fields
  enter          Retrieve passages
  esc            Back to the passage list

Passages:
  j/k, ↑/↓       Move selection
  enter          Read the passage in full
  a              Ask the answer model about these passages
  n              New question, same filters
  esc            Edit the query
  q              Quit

Reader:
  ↑/↓, pgup/pgdn Scroll
  esc            Back to the passages

` + a.styles.Muted.Render("Press any key to return.")
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error reported by a service call.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions resizes every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.retrieveView.SetDimensions(width, height)
	a.readerView.SetDimensions(width, height)
}
