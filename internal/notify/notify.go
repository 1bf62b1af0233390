package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarn    Level = "warning"
	LevelError   Level = "error"
)

// Notifier reports outcomes to the user. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Success(title, msg string)
	Warn(title, msg string)
	Error(title, msg string)
}

var (
	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Console prints styled notifications. Success goes to Out; warnings and
// errors go to Err and are also logged.
type Console struct {
	mu  sync.Mutex
	Out io.Writer
	Err io.Writer
	Log *slog.Logger
}

// NewConsole returns a Console writing to out and errw.
func NewConsole(out, errw io.Writer, log *slog.Logger) *Console {
	return &Console{Out: out, Err: errw, Log: log}
}

func (c *Console) Success(title, msg string) {
	c.print(c.Out, successStyle.Render("✓ "+title), msg)
}

func (c *Console) Warn(title, msg string) {
	if c.Log != nil {
		c.Log.Warn(msg, "title", title)
	}
	c.print(c.Err, warnStyle.Render("! "+title), msg)
}

func (c *Console) Error(title, msg string) {
	if c.Log != nil {
		c.Log.Error(msg, "title", title)
	}
	c.print(c.Err, errorStyle.Render("✗ "+title), msg)
}

func (c *Console) print(w io.Writer, head, msg string) {
	if w == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(w, "%s %s\n", head, dimStyle.Render(msg))
}

// Notification is one recorded notification.
type Notification struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Recorder keeps notifications in memory, newest last, up to Limit entries
// (unbounded when Limit is 0).
type Recorder struct {
	mu    sync.Mutex
	items []Notification
	Limit int
}

func (r *Recorder) Success(title, msg string) { r.add(LevelSuccess, title, msg) }
func (r *Recorder) Warn(title, msg string) { r.add(LevelWarn, title, msg) }
func (r *Recorder) Error(title, msg string) { r.add(LevelError, title, msg) }

func (r *Recorder) add(level Level, title, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Title: title, Message: msg, Time: time.Now()})
	if r.Limit > 0 && len(r.items) > r.Limit {
		r.items = r.items[len(r.items)-r.Limit:]
	}
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Count returns how many recorded notifications have the given level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.items {
		if it.Level == level {
			n++
		}
	}
	return n
}

// Multi fans notifications out to several notifiers.
type Multi []Notifier

func (m Multi) Success(title, msg string) {
	for _, n := range m {
		n.Success(title, msg)
	}
}

func (m Multi) Warn(title, msg string) {
	for _, n := range m {
		n.Warn(title, msg)
	}
}

func (m Multi) Error(title, msg string) {
	for _, n := range m {
		n.Error(title, msg)
	}
}
