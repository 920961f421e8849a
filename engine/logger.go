package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	defaultLogLines      = 1000
	defaultBatchSize     = 10
	defaultFlushInterval = 100 * time.Millisecond
)

// Logger is the session log. It keeps the last lines in a ring for the log
// panel, fans each line out to one subscriber and appends it to a file.
type Logger struct {
	mu       sync.Mutex
	lines    []string
	capacity int
	head     int
	count    int

	filePath string
	file     *os.File
	fileCh   chan string
	subCh    chan string
	done     chan struct{}
	closed   bool
}

// NewLogger creates a logger keeping capacity lines. An empty filePath keeps
// the log in memory only.
func NewLogger(filePath string, capacity int) *Logger {
	if capacity <= 0 {
		capacity = defaultLogLines
	}

	l := &Logger{
		lines:    make([]string, capacity),
		capacity: capacity,
		filePath: filePath,
		subCh:    make(chan string, 100),
		done:     make(chan struct{}),
	}

	if err := l.openFile(); err != nil || l.file == nil {
		close(l.done)
		return l
	}

	l.fileCh = make(chan string, 100)
	go l.writer()

	return l
}

func (l *Logger) openFile() error {
	if l.filePath == "" {
		return nil
	}
	if dir := filepath.Dir(l.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// Write stores msg as is.
func (l *Logger) Write(msg string) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.lines[l.head] = msg
	l.head = (l.head + 1) % l.capacity
	if l.count < l.capacity {
		l.count++
	}

	select {
	case l.subCh <- msg:
	default:
	}
	if l.fileCh != nil {
		// The file gets every line; a slow disk blocks the caller briefly.
		l.fileCh <- msg
	}
}

func (l *Logger) logf(level, format string, args ...any) {
	ts := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	if level == "" {
		l.Write(fmt.Sprintf("[%s] %s", ts, msg))
		return
	}
	l.Write(fmt.Sprintf("[%s] %s %s", ts, level, msg))
}

func (l *Logger) Printf(format string, args ...any) { l.logf("", format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf("WARN", format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf("ERROR", format, args...) }

func (l *Logger) ReadAll() string {
	if l == nil {
		return ""
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 {
		return ""
	}

	start := 0
	if l.count >= l.capacity {
		start = l.head
	}

	var result []byte
	for i := 0; i < l.count; i++ {
		idx := (start + i) % l.capacity
		if l.lines[idx] != "" {
			result = append(result, l.lines[idx]...)
			result = append(result, '\n')
		}
	}

	return string(result)
}

// Chan delivers new lines to a single subscriber. Lines are dropped while the
// subscriber lags; ReadAll still has them. It is closed by Close.
func (l *Logger) Chan() <-chan string {
	if l == nil {
		return nil
	}
	return l.subCh
}

func (l *Logger) writer() {
	defer close(l.done)
	batch := make([]string, 0, defaultBatchSize)
	ticker := time.NewTicker(defaultFlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		for _, msg := range batch {
			l.file.WriteString(msg + "\n")
		}
		batch = batch[:0]
	}

	for {
		select {
		case msg, ok := <-l.fileCh:
			if !ok {
				flush()
				return
			}
			batch = append(batch, msg)
			if len(batch) >= defaultBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close flushes pending lines and closes the file.
func (l *Logger) Close() {
	if l == nil {
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.subCh)
	if l.fileCh != nil {
		close(l.fileCh)
	}
	l.mu.Unlock()

	<-l.done
	if l.file != nil {
		l.file.Close()
	}
}
