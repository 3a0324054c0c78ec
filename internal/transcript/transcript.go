// Package transcript writes an append-only NDJSON record of chat traffic.
package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventUserMessage      = "chat_user_message"
	EventAssistantMessage = "chat_assistant_message"
	EventError            = "chat_error"
)

// Channels a message can arrive on.
const (
	ChannelHTTP      = "chat_http"
	ChannelWebSocket = "chat_ws"
)

// Event is one transcript line.
type Event struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	RequestID string         `json:"request_id,omitempty"`
	Channel   string         `json:"channel"`
	EventType string         `json:"event_type"`
	Content   string         `json:"content,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Logger records transcript events. Log never blocks the caller.
type Logger interface {
	Log(event Event)
	Close() error
}

// Config controls the transcript logger.
type Config struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Nop discards every event.
type Nop struct{}

// Log implements Logger.
func (Nop) Log(Event) {}

// Close implements Logger.
func (Nop) Close() error { return nil }

// New returns a file-backed logger, or Nop when disabled.
func New(cfg Config, logger *slog.Logger) (Logger, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("transcript directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}

	l := &fileLogger{
		dir:    cfg.Dir,
		queue:  make(chan Event, queueSize),
		logger: logger,
		now:    time.Now,
	}
	l.wg.Add(1)
	go l.run()
	return l, nil
}

// fileLogger appends events to one file per UTC day, named YYYY-MM-DD.ndjson.
type fileLogger struct {
	dir    string
	queue  chan Event
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	day  string
	file *os.File
}

func (l *fileLogger) Log(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp == "" {
		event.Timestamp = l.now().UTC().Format(time.RFC3339Nano)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}

	select {
	case l.queue <- event:
	default:
		l.logger.Warn("Transcript queue full, dropping event", "event_type", event.EventType, "queue_len", len(l.queue))
	}
}

func (l *fileLogger) run() {
	defer l.wg.Done()
	for event := range l.queue {
		if err := l.write(event); err != nil {
			l.logger.Warn("Failed to write transcript event", "error", err, "event_type", event.EventType)
		}
	}
}

func (l *fileLogger) write(event Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	day := l.now().UTC().Format(time.DateOnly)
	if l.file == nil || day != l.day {
		if l.file != nil {
			_ = l.file.Close()
		}
		path := filepath.Join(l.dir, day+".ndjson")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			l.file = nil
			return fmt.Errorf("open %s: %w", path, err)
		}
		l.file, l.day = f, day
	}

	_, err = l.file.Write(append(line, '\n'))
	return err
}

// Close stops accepting events, flushes the queue and closes the file.
func (l *fileLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	l.wg.Wait()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
