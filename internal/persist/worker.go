package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"equipment-booking-backend/internal/store"
)

// ErrClosed is returned by Save once the writer has been closed.
var ErrClosed = errors.New("persist: writer closed")

type job struct {
	key     string
	payload []byte
}

// Writer is a write-behind store.Store. Save only enqueues; a single worker
// goroutine applies the writes to the underlying store in submission order,
// so later snapshots of a collection always win.
type Writer struct {
	next    store.Store
	jobs    chan job
	timeout time.Duration
	logger  *zap.Logger

	pending sync.WaitGroup
	done    chan struct{}

	// mu guards closed. Save holds it for reading while it waits for queue
	// space, so the worker must never take it.
	mu     sync.RWMutex
	closed bool

	errMu   sync.Mutex
	lastErr error
	onError func(key string, err error)
}

// NewWriter creates a writer in front of next. queueSize bounds the number of
// writes that may be waiting; Save blocks when the queue is full.
func NewWriter(next store.Store, queueSize int, logger *zap.Logger) *Writer {
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		next:    next,
		jobs:    make(chan job, queueSize), // Buffered channel
		timeout: 10 * time.Second,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// OnError registers a callback invoked for every failed background write.
func (w *Writer) OnError(fn func(key string, err error)) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	w.onError = fn
}

// Start launches the worker goroutine.
func (w *Writer) Start() {
	go w.worker()
}

// worker is the actual worker goroutine.
func (w *Writer) worker() {
	defer close(w.done)
	w.logger.Debug("persistence writer started")
	for j := range w.jobs {
		w.write(j)
	}
	w.logger.Debug("persistence writer stopped")
}

func (w *Writer) write(j job) {
	defer w.pending.Done()

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	err := w.next.Save(ctx, j.key, j.payload)

	w.errMu.Lock()
	w.lastErr = err
	onError := w.onError
	w.errMu.Unlock()

	if err != nil {
		w.logger.Error("background save failed", zap.String("key", j.key), zap.Error(err))
		if onError != nil {
			onError(j.key, err)
		}
		return
	}
	w.logger.Debug("collection saved", zap.String("key", j.key), zap.Int("bytes", len(j.payload)))
}

// Save enqueues a write. It returns once the write is queued, not applied.
func (w *Writer) Save(ctx context.Context, key string, payload []byte) error {
	if key == "" {
		return store.ErrEmptyKey
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}

	w.pending.Add(1)
	select {
	case w.jobs <- job{key: key, payload: payload}:
		return nil
	case <-ctx.Done():
		w.pending.Done()
		return ctx.Err()
	}
}

// Load waits for queued writes to land and then reads through.
func (w *Writer) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := w.Flush(ctx); err != nil {
		return nil, false, err
	}
	return w.next.Load(ctx, key)
}

// Flush blocks until every write queued so far has been applied.
func (w *Writer) Flush(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		w.pending.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastError returns the outcome of the most recent background write.
func (w *Writer) LastError() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.lastErr
}

// Close stops accepting writes, drains the queue and waits for the worker.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
