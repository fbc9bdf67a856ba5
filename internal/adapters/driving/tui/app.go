package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/coursemate/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/coursemate/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/coursemate/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/coursemate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/coursemate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/coursemate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// Rows taken by everything except the transcript: header, input with its
// border, status bar.
const chromeHeight = 5

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	status     *status.Bar
	transcript *transcript.Transcript
	viewport   viewport.Model
	spinner    spinner.Model

	// sessionID is the conversation the next question belongs to.
	sessionID string

	// waiting is true while a question is in flight.
	waiting bool

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has received its first window size.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new chat application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		status:     status.NewBar(s, km),
		transcript: transcript.New(s),
		viewport:   viewport.New(80, 20),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Muted)),
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithSession continues an existing session.
func (a *App) WithSession(sessionID string) *App {
	a.sessionID = sessionID
	a.status.SetSession(sessionID)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("coursemate"),
		a.input.Init(),
		a.loadCourses(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.AnswerReceived:
		a.waiting = false
		a.status.Clear()
		if msg.Err != nil {
			a.err = msg.Err
			a.status.SetState(status.StateError)
			a.status.SetMessage(msg.Err.Error())
			a.transcript.AddError(msg.Err.Error())
		} else if msg.Answer != nil {
			a.err = nil
			a.sessionID = msg.Answer.SessionID
			a.status.SetSession(a.sessionID)
			a.transcript.AddAnswer(msg.Answer.Answer, msg.Answer.Sources)
		}
		a.refresh()
		return a, nil

	case messages.SessionCleared:
		a.sessionID = ""
		a.status.SetSession("")
		a.transcript.Reset()
		if msg.Err != nil {
			a.err = msg.Err
			a.status.SetState(status.StateError)
			a.status.SetMessage(msg.Err.Error())
		} else {
			a.status.Clear()
			a.status.SetMessage("New session")
		}
		a.refresh()
		return a, nil

	case messages.CoursesLoaded:
		if msg.Err != nil {
			a.transcript.AddError(msg.Err.Error())
		} else if msg.Analytics != nil {
			a.transcript.AddNotice(formatCatalog(msg.Analytics))
		}
		a.refresh()
		return a, nil

	case spinner.TickMsg:
		if !a.waiting {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.status.SetMessage(a.spinner.View() + " Thinking...")
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(keyStr, a.keymap.ScrollUp), keymap.Matches(keyStr, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case a.waiting:
		// Ignore typing while an answer is pending.
		return a, nil

	case keymap.Matches(keyStr, a.keymap.Send):
		return a, a.submit()

	case keymap.Matches(keyStr, a.keymap.NewSession):
		return a, a.clearSession()

	case keymap.Matches(keyStr, a.keymap.Courses):
		return a, a.loadCourses()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit sends the typed question.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if question == "" {
		return nil
	}
	a.input.Reset()
	a.transcript.AddQuestion(question)
	a.waiting = true
	a.err = nil
	a.status.SetState(status.StateThinking)
	a.status.SetMessage("")
	a.refresh()

	return tea.Batch(a.ask(question, a.sessionID), a.spinner.Tick)
}

func (a *App) ask(question, sessionID string) tea.Cmd {
	ctx := a.ctx
	query := a.ports.Query
	return func() tea.Msg {
		answer, err := query.Query(ctx, question, sessionID)
		return messages.AnswerReceived{Query: question, Answer: answer, Err: err}
	}
}

func (a *App) clearSession() tea.Cmd {
	ctx := a.ctx
	query := a.ports.Query
	sessionID := a.sessionID
	return func() tea.Msg {
		if sessionID == "" {
			return messages.SessionCleared{}
		}
		err := query.ClearSession(ctx, sessionID)
		if errors.Is(err, domain.ErrNotFound) {
			err = nil
		}
		return messages.SessionCleared{Err: err}
	}
}

func (a *App) loadCourses() tea.Cmd {
	ctx := a.ctx
	query := a.ports.Query
	return func() tea.Msg {
		stats, err := query.CourseAnalytics(ctx)
		return messages.CoursesLoaded{Analytics: stats, Err: err}
	}
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (a *App) refresh() {
	a.viewport.SetContent(a.transcript.Render(a.viewport.Width))
	a.viewport.GotoBottom()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := a.styles.Title.Render("coursemate") + a.styles.Muted.Render("  ask anything about your courses")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		a.viewport.View(),
		a.input.View(),
		a.status.View(),
	)
}

// SetDimensions sets the terminal dimensions and lays out the components.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.viewport.Width = width
	a.viewport.Height = max(height-chromeHeight, 1)
	a.input.SetWidth(width)
	a.status.SetWidth(width)
	a.refresh()
}

// SessionID returns the current session ID.
func (a *App) SessionID() string {
	return a.sessionID
}

// Waiting reports whether a question is in flight.
func (a *App) Waiting() bool {
	return a.waiting
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}

// Transcript returns the conversation.
func (a *App) Transcript() *transcript.Transcript {
	return a.transcript
}

// Run starts the chat program and blocks until it exits.
func Run(ctx context.Context, ports *Ports, sessionID string) error {
	app, err := NewApp(ports)
	if err != nil {
		return err
	}
	app.WithContext(ctx).WithSession(sessionID)

	p := tea.NewProgram(app, tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func formatCatalog(stats *domain.CourseAnalytics) string {
	if stats.TotalCourses == 0 {
		return "No courses loaded. Run `coursemate ingest <dir>` first."
	}
	return fmt.Sprintf("%d courses: %s", stats.TotalCourses, strings.Join(stats.CourseTitles, ", "))
}
