package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/trendlens/internal/metrics"
	"github.com/hyperjump/trendlens/internal/models"
)

const writeTimeout = 5 * time.Second

// AsyncRecorder writes log entries on a single background goroutine. Record never blocks:
// when the buffer is full the entry is dropped with a warning. Write errors are logged
// and not retried.
type AsyncRecorder struct {
	log    QueryLog
	ch     chan *models.QueryLogEntry
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncRecorder starts the writer goroutine. buffer defaults to 256.
func NewAsyncRecorder(log QueryLog, buffer int, logger *zap.Logger) *AsyncRecorder {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &AsyncRecorder{log: log, ch: make(chan *models.QueryLogEntry, buffer), logger: logger}
	r.wg.Add(1)
	go r.run()
	return r
}

// Record queues result for persistence.
func (r *AsyncRecorder) Record(_ context.Context, requestID, keyword string, result *models.AnalysisResult) {
	entry, err := NewEntry(requestID, keyword, result)
	if err != nil {
		r.logger.Warn("query log entry not encoded", zap.String("keyword", keyword), zap.Error(err))
		metrics.RecordQueryLogWrite("error")
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Warn("query log closed, dropping entry", zap.String("keyword", keyword))
		metrics.RecordQueryLogWrite("dropped")
		return
	}
	select {
	case r.ch <- entry:
	default:
		r.logger.Warn("query log buffer full, dropping entry", zap.String("keyword", keyword))
		metrics.RecordQueryLogWrite("dropped")
	}
}

func (r *AsyncRecorder) run() {
	defer r.wg.Done()
	for entry := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := r.log.Record(ctx, entry)
		cancel()
		if err != nil {
			r.logger.Warn("query log write failed", zap.String("keyword", entry.Keyword), zap.Error(err))
			metrics.RecordQueryLogWrite("error")
			continue
		}
		metrics.RecordQueryLogWrite("ok")
	}
}

// Close stops accepting entries and waits until queued entries are written.
// It does not close the underlying QueryLog.
func (r *AsyncRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()
	r.wg.Wait()
}
