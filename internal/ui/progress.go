package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Progress creates progress indicators.
type Progress interface {
	Start(title string, total int) ProgressBar
	Spinner(title string) Spinner
}

// ProgressBar is a determinate indicator. Increment may be called from
// several goroutines.
type ProgressBar interface {
	Increment(n int)
	SetTitle(title string)
	Done()
}

// Spinner is an indeterminate indicator.
type Spinner interface {
	SetTitle(title string)
	Stop()
}

// progressImpl implements the Progress interface.
type progressImpl struct {
	theme    *Theme
	headless *HeadlessManager
	writer   io.Writer
	teaOpts  []tea.ProgramOption
}

// NewProgress creates a Progress writing to w, or os.Stdout when w is nil.
func NewProgress(theme *Theme, hm *HeadlessManager, w io.Writer) Progress {
	if w == nil {
		w = os.Stdout
	}
	return &progressImpl{theme: theme, headless: hm, writer: w}
}

// newProgressImpl creates a progressImpl with extra program options (for testing).
func newProgressImpl(theme *Theme, hm *HeadlessManager, w io.Writer, opts ...tea.ProgramOption) *progressImpl {
	return &progressImpl{theme: theme, headless: hm, writer: w, teaOpts: opts}
}

func (p *progressImpl) plain() bool {
	return p.headless.IsHeadless() || p.theme.NoColor
}

func (p *progressImpl) program(m tea.Model) *tea.Program {
	opts := append([]tea.ProgramOption{tea.WithOutput(p.writer)}, p.teaOpts...)
	return tea.NewProgram(m, opts...)
}

// Start creates a determinate progress bar with the given total.
// In headless mode it returns a log-based progress bar.
func (p *progressImpl) Start(title string, total int) ProgressBar {
	if p.plain() {
		return newHeadlessProgressBar(title, total, p.writer)
	}
	return startInteractiveProgressBar(p.program(newProgressModel(p.theme, title, total)))
}

// Spinner creates an indeterminate spinner.
// In headless mode it prints the title as a log line.
func (p *progressImpl) Spinner(title string) Spinner {
	if p.plain() {
		return newHeadlessSpinner(title, p.writer)
	}
	return startInteractiveSpinner(p.program(newSpinnerModel(p.theme, title)))
}

// --- interactiveSpinner ---

type spinnerTitleMsg string

type spinnerStopMsg struct{}

// spinnerModel is the bubbletea Model for the animated spinner.
type spinnerModel struct {
	spinner spinner.Model
	title   string
	done    bool
}

func newSpinnerModel(theme *Theme, title string) spinnerModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	if !theme.NoColor {
		s.Style = lipgloss.NewStyle().Foreground(theme.color(theme.Colors.Primary))
	}
	return spinnerModel{spinner: s, title: title}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTitleMsg:
		m.title = string(msg)
		return m, nil
	case spinnerStopMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}

// interactiveSpinner implements Spinner with an animated bubbles spinner.
type interactiveSpinner struct {
	program *tea.Program
	once    sync.Once
}

func startInteractiveSpinner(p *tea.Program) *interactiveSpinner {
	go func() {
		_, _ = p.Run()
	}()
	return &interactiveSpinner{program: p}
}

func (s *interactiveSpinner) SetTitle(title string) {
	s.program.Send(spinnerTitleMsg(title))
}

// Stop halts the spinner and waits for the program to exit.
func (s *interactiveSpinner) Stop() {
	s.once.Do(func() {
		s.program.Send(spinnerStopMsg{})
		s.program.Wait()
	})
}

// --- interactiveProgressBar ---

type progressIncrMsg int

type progressTitleMsg string

type progressDoneMsg struct{}

// progressModel is the bubbletea Model for the animated progress bar.
type progressModel struct {
	bar     progress.Model
	title   string
	current int
	total   int
	done    bool
}

func newProgressModel(theme *Theme, title string, total int) progressModel {
	opts := []progress.Option{progress.WithWidth(40)}
	if theme.NoColor {
		opts = append(opts, progress.WithoutPercentage(), progress.WithSolidFill("#"))
	} else {
		opts = append(opts, progress.WithGradient(theme.Colors.Primary, theme.Colors.Secondary))
	}
	return progressModel{bar: progress.New(opts...), title: title, total: total}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressIncrMsg:
		m.current = min(m.current+int(msg), m.total)
		return m, nil
	case progressTitleMsg:
		m.title = string(msg)
		return m, nil
	case progressDoneMsg:
		m.current = m.total
		m.done = true
		return m, tea.Quit
	case progress.FrameMsg:
		pm, cmd := m.bar.Update(msg)
		m.bar = pm.(progress.Model)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	return m.bar.ViewAs(fraction(m.current, m.total)) + " " + fmt.Sprintf("[%d/%d] %s\n", m.current, m.total, m.title)
}

func fraction(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(current) / float64(total)
}

// interactiveProgressBar implements ProgressBar with an animated bubbles progress bar.
type interactiveProgressBar struct {
	program *tea.Program
	once    sync.Once
}

func startInteractiveProgressBar(p *tea.Program) *interactiveProgressBar {
	go func() {
		_, _ = p.Run()
	}()
	return &interactiveProgressBar{program: p}
}

func (b *interactiveProgressBar) Increment(n int) {
	b.program.Send(progressIncrMsg(n))
}

func (b *interactiveProgressBar) SetTitle(title string) {
	b.program.Send(progressTitleMsg(title))
}

// Done completes the progress bar at 100% and waits for the program to exit.
func (b *interactiveProgressBar) Done() {
	b.once.Do(func() {
		b.program.Send(progressDoneMsg{})
		b.program.Wait()
	})
}

// --- headlessProgressBar ---

// headlessSteps is the number of log lines a headless bar prints before Done.
const headlessSteps = 10

// headlessProgressBar writes a line each time another tenth of the total
// completes, plus a final line on Done.
type headlessProgressBar struct {
	mu       sync.Mutex
	title    string
	total    int
	current  int
	lastStep int
	finished bool
	writer   io.Writer
}

func newHeadlessProgressBar(title string, total int, w io.Writer) *headlessProgressBar {
	return &headlessProgressBar{title: title, total: total, writer: w}
}

func (b *headlessProgressBar) Increment(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished {
		return
	}
	b.current = min(b.current+n, b.total)
	if b.total <= 0 {
		return
	}
	if step := b.current * headlessSteps / b.total; step > b.lastStep && b.current < b.total {
		b.lastStep = step
		b.printLocked()
	}
}

func (b *headlessProgressBar) SetTitle(title string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.title = title
}

// Done prints the final line once.
func (b *headlessProgressBar) Done() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished {
		return
	}
	b.finished = true
	b.current = b.total
	b.printLocked()
}

func (b *headlessProgressBar) printLocked() {
	_, _ = fmt.Fprintf(b.writer, "[%d/%d] %s\n", b.current, b.total, b.title)
}

// --- headlessSpinner ---

// headlessSpinner prints each title as a log line.
type headlessSpinner struct {
	mu      sync.Mutex
	writer  io.Writer
	stopped bool
}

func newHeadlessSpinner(title string, w io.Writer) *headlessSpinner {
	_, _ = fmt.Fprintf(w, "%s\n", title)
	return &headlessSpinner{writer: w}
}

func (s *headlessSpinner) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		_, _ = fmt.Fprintf(s.writer, "%s\n", title)
	}
}

func (s *headlessSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}
