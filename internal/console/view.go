// Package console is a terminal rendition of the CSV editing view.
//
// It provides the capabilities the dispatcher needs: a modal text prompt, a
// modal alert, the upload dialog with its inline error line, and a refresh
// that refetches the file listing and redraws it.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/JonMunkholm/csvedit/internal/client"
	"github.com/JonMunkholm/csvedit/internal/dispatch"
	"github.com/JonMunkholm/csvedit/internal/logging"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
)

// ErrNoHandler is returned by Fire when nothing is bound to the event kind.
var ErrNoHandler = errors.New("no handler bound")

var (
	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// Lister fetches the view state shown after a refresh.
type Lister interface {
	ListFiles(ctx context.Context) ([]client.FileSummary, error)
}

// PromptFunc asks the user for a line of input; ok is false on dismissal.
type PromptFunc func(ctx context.Context, label string) (value string, ok bool)

// Option configures a View.
type Option func(*View)

// WithPrompt replaces the interactive prompt, e.g. for scripted input.
func WithPrompt(fn PromptFunc) Option {
	return func(v *View) {
		v.prompt = fn
	}
}

// View is the terminal view. It is safe for concurrent use.
type View struct {
	in     io.Reader
	out    io.Writer
	lister Lister
	prompt PromptFunc
	lines  *bufio.Reader

	handlers map[dispatch.Kind]dispatch.Handler

	mu          sync.Mutex
	dialogOpen  bool
	dialogError string
	files       []client.FileSummary
	refreshes   int
}

// New creates a View reading keys from in and drawing to out.
func New(in io.Reader, out io.Writer, lister Lister, opts ...Option) *View {
	v := &View{
		in:       in,
		out:      out,
		lister:   lister,
		handlers: make(map[dispatch.Kind]dispatch.Handler),
	}
	v.prompt = v.runPrompt
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// On implements dispatch.Binder.
func (v *View) On(kind dispatch.Kind, h dispatch.Handler) {
	v.handlers[kind] = h
}

// Fire delivers ev to the handler bound for its kind. An upload event opens
// the upload dialog first.
func (v *View) Fire(ctx context.Context, ev dispatch.Event) (dispatch.Outcome, error) {
	h, ok := v.handlers[ev.Kind]
	if !ok {
		return dispatch.Failed, fmt.Errorf("%s: %w", ev.Kind, ErrNoHandler)
	}
	if ev.Kind == dispatch.UploadSubmitted {
		v.openDialog()
	}
	return h(ctx, ev)
}

// RequestInput implements dispatch.Input.
func (v *View) RequestInput(ctx context.Context, label string) (string, bool) {
	return v.prompt(ctx, label)
}

// runPrompt asks for one value. A terminal gets a Bubble Tea text input;
// anything else (pipes, files, /dev/null) is read a line at a time.
func (v *View) runPrompt(ctx context.Context, label string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !isTerminal(v.in) {
		return v.readLine(ctx, label)
	}
	return v.runTeaPrompt(ctx, label)
}

// readLine reads one newline-terminated value. An empty line is a value;
// end of input before a newline is a dismissal.
func (v *View) readLine(ctx context.Context, label string) (string, bool) {
	if v.lines == nil {
		v.lines = bufio.NewReader(v.in)
	}
	fmt.Fprintln(v.out, labelStyle.Render(label))

	line, err := v.lines.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			logging.FromContext(ctx).Warn("prompt failed", "error", err)
		}
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

// runTeaPrompt runs a Bubble Tea text input until it is submitted or
// dismissed. Any terminal failure counts as a dismissal.
func (v *View) runTeaPrompt(ctx context.Context, label string) (string, bool) {
	p := tea.NewProgram(newPromptModel(label),
		tea.WithInput(v.in),
		tea.WithOutput(v.out),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		logging.FromContext(ctx).Warn("prompt failed", "error", err)
		return "", false
	}

	m, ok := final.(promptModel)
	if !ok {
		return "", false
	}
	return m.result()
}

// Notify implements dispatch.Notifier with a bordered alert.
func (v *View) Notify(_ context.Context, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.out, alertStyle.Render(message))
}

func (v *View) openDialog() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dialogOpen = true
	v.dialogError = ""
}

// Close implements dispatch.UploadDialog.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dialogOpen = false
	v.dialogError = ""
	fmt.Fprintln(v.out, okStyle.Render("Upload complete."))
}

// ShowError implements dispatch.UploadDialog. The dialog stays open.
func (v *View) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dialogError = message
	fmt.Fprintln(v.out, errorStyle.Render(message))
}

// DialogOpen reports whether the upload dialog is open.
func (v *View) DialogOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dialogOpen
}

// DialogError returns the text in the upload dialog's error line.
func (v *View) DialogError() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dialogError
}

// Refresh implements dispatch.Refresher: the listing is refetched and the
// previous state discarded before anything is drawn.
func (v *View) Refresh(ctx context.Context) error {
	files, err := v.lister.ListFiles(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.refreshes++
	v.files = nil
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	v.files = files

	fmt.Fprintln(v.out, renderFiles(files))
	return nil
}

// Files returns the listing fetched by the last refresh.
func (v *View) Files() []client.FileSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]client.FileSummary(nil), v.files...)
}

// Refreshes returns how many times the view has been refreshed.
func (v *View) Refreshes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refreshes
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderFiles(files []client.FileSummary) string {
	if len(files) == 0 {
		return "No files uploaded."
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "FILENAME", "SIZE", "UPLOADED").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, f := range files {
		t.Row(strconv.FormatInt(f.ID, 10), f.Filename, strconv.FormatFloat(f.Size, 'f', -1, 64), f.UploadedAt)
	}
	return t.String()
}
