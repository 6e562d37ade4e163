package logger

import (
	"context"
	"fmt"
	"sync"

	"quicker-admin/types"
)

// LogWriter persists one API call record.
type LogWriter interface {
	Persist(ctx context.Context, entry types.LogEntry) error
}

// AsyncLogger takes API call records off the request path and hands them
// to a LogWriter from a single goroutine.
type AsyncLogger struct {
	writer  LogWriter
	channel chan types.LogEntry
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsyncLogger(writer LogWriter) *AsyncLogger {
	return &AsyncLogger{
		writer:  writer,
		channel: make(chan types.LogEntry, 100),
		done:    make(chan struct{}),
	}
}

// ProcessLog drains the queue until Close is called.
func (logger *AsyncLogger) ProcessLog() {
	Info("Starting asynchronous API logger...")
	defer close(logger.done)

	for entry := range logger.channel {
		if err := logger.writer.Persist(context.Background(), entry); err != nil {
			Error(fmt.Sprintf("Failed to insert API log entry %s %s", entry.Method, entry.Endpoint), err)
			continue
		}
		Debug(fmt.Sprintf("Inserted API log entry: %s %s %d", entry.Method, entry.Endpoint, entry.StatusCode))
	}
}

// Log queues an entry. A full queue drops the entry rather than block the request.
func (logger *AsyncLogger) Log(entry types.LogEntry) {
	logger.mu.RLock()
	defer logger.mu.RUnlock()
	if logger.closed {
		return
	}

	select {
	case logger.channel <- entry:
	default:
		Warning("API log queue is full, dropping entry for " + entry.Endpoint)
	}
}

// Close stops accepting entries and waits for the queue to drain.
// ProcessLog must be running.
func (logger *AsyncLogger) Close() {
	logger.mu.Lock()
	if logger.closed {
		logger.mu.Unlock()
		return
	}
	logger.closed = true
	close(logger.channel)
	logger.mu.Unlock()

	<-logger.done
}
