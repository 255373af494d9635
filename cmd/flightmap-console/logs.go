package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogManager manages the log panel and message history. It is also an
// io.Writer so the standard logger can be pointed at it.
type LogManager struct {
	textView *tview.TextView

	// messages stores recent log messages
	messages []LogMessage

	maxMessages int

	// mu protects concurrent access to messages
	mu sync.Mutex

	// redraw is called after messages change; nil until the app runs
	redraw func()
}

// LogMessage represents a single log entry
type LogMessage struct {
	Time    time.Time
	Level   LogLevel
	Message string
}

// NewLogManager creates a new log manager
func NewLogManager(maxMessages int) *LogManager {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(maxMessages)

	textView.SetBorder(true).SetTitle(" Logs ")

	return &LogManager{
		textView:    textView,
		messages:    make([]LogMessage, 0, maxMessages),
		maxMessages: maxMessages,
	}
}

// GetView returns the tview component
func (lm *LogManager) GetView() tview.Primitive {
	return lm.textView
}

// SetRedraw sets the function that schedules a redraw after new messages.
func (lm *LogManager) SetRedraw(f func()) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.redraw = f
}

// AddLog adds a log message with the specified level
func (lm *LogManager) AddLog(level LogLevel, format string, args ...interface{}) {
	lm.mu.Lock()

	lm.messages = append(lm.messages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})

	// Trim old messages if we exceed max
	if len(lm.messages) > lm.maxMessages {
		lm.messages = lm.messages[len(lm.messages)-lm.maxMessages:]
	}
	redraw := lm.redraw
	lm.mu.Unlock()

	if redraw != nil {
		redraw()
	} else {
		lm.Refresh()
	}
}

// Info logs an info message
func (lm *LogManager) Info(format string, args ...interface{}) {
	lm.AddLog(LogLevelInfo, format, args...)
}

// Warn logs a warning message
func (lm *LogManager) Warn(format string, args ...interface{}) {
	lm.AddLog(LogLevelWarn, format, args...)
}

// Error logs an error message
func (lm *LogManager) Error(format string, args ...interface{}) {
	lm.AddLog(LogLevelError, format, args...)
}

// Write implements io.Writer for log.SetOutput. Lines starting with ✗ are
// errors; everything else is info.
func (lm *LogManager) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		level := LogLevelInfo
		if strings.Contains(line, "✗") {
			level = LogLevelError
		}
		lm.AddLog(level, "%s", tview.Escape(line))
	}
	return len(p), nil
}

// Messages returns a copy of the retained messages.
func (lm *LogManager) Messages() []LogMessage {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return append([]LogMessage(nil), lm.messages...)
}

// Refresh rewrites the text view from the retained messages. It must run on
// the UI goroutine once the app is running.
func (lm *LogManager) Refresh() {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.textView.Clear()
	for _, msg := range lm.messages {
		// Format: [HH:MM:SS] LEVEL Message
		fmt.Fprintf(lm.textView, "[gray]%s[-] [%s]%-5s[-] %s\n",
			msg.Time.Format("15:04:05"), colorForLevel(msg.Level), msg.Level, msg.Message)
	}
	lm.textView.ScrollToEnd()
}

// colorForLevel returns the tview color tag for a log level
func colorForLevel(level LogLevel) string {
	switch level {
	case LogLevelDebug:
		return "gray"
	case LogLevelWarn:
		return "yellow"
	case LogLevelError:
		return "red"
	default:
		return "white"
	}
}
