package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/result"
)

// WriteRecorder receives the outcome of every store write. It is satisfied
// by *metrics.Collector.
type WriteRecorder interface {
	RecordJournalWrite(ok bool, duration time.Duration)
}

// LocalsRedactor masks sensitive local values before they are stored. It is
// satisfied by *logging.Redactor.
type LocalsRedactor interface {
	RedactLocals(locals map[string]any) map[string]any
}

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	// Buffer is the size of the write queue. Records are dropped when the
	// queue is full.
	// Default: 1000
	Buffer int

	// WriteTimeout bounds a single store write.
	// Default: 5s
	WriteTimeout time.Duration
}

// Entry describes one finished evaluation.
type Entry struct {
	RequestID string
	Tree      string
	Root      ast.Node
	Locals    map[string]any
	Result    result.Result
	Duration  time.Duration
}

// Recorder turns evaluations into records and writes them asynchronously.
type Recorder struct {
	store    Store
	config   RecorderConfig
	redactor LocalsRedactor
	metrics  WriteRecorder
	logger   *slog.Logger

	queue     chan *Record
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRedactor masks locals before storage.
func WithRedactor(r LocalsRedactor) RecorderOption {
	return func(rec *Recorder) { rec.redactor = r }
}

// WithWriteRecorder reports write outcomes.
func WithWriteRecorder(m WriteRecorder) RecorderOption {
	return func(rec *Recorder) { rec.metrics = m }
}

// WithRecorderLogger sets the logger.
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(rec *Recorder) {
		if l != nil {
			rec.logger = l
		}
	}
}

// NewRecorder starts a recorder writing to store.
func NewRecorder(store Store, cfg RecorderConfig, opts ...RecorderOption) *Recorder {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		store:  store,
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "journal.recorder")
	r.queue = make(chan *Record, cfg.Buffer)

	r.wg.Add(1)
	go r.worker()
	return r
}

// NewRecord builds the record for e without writing it.
func (r *Recorder) NewRecord(e Entry) *Record {
	rec := &Record{
		ID:        uuid.NewString(),
		RequestID: e.RequestID,
		Tree:      e.Tree,
		Duration:  e.Duration,
		Timestamp: time.Now().UTC(),
	}
	if !ast.IsNil(e.Root) {
		rec.RootTag = string(e.Root.Tag())
	}

	if outcomes, failed := e.Result.LeftValue(); failed {
		rec.Outcome = "failure"
		rec.ErrorCount = len(outcomes.Errors())
	} else {
		rec.Outcome = "success"
	}
	if data, err := result.Marshal(e.Result); err == nil {
		rec.Result = data
	}

	if len(e.Locals) > 0 {
		if r.redactor != nil {
			rec.Locals = r.redactor.RedactLocals(e.Locals)
		} else {
			rec.Locals = make(map[string]any, len(e.Locals))
			for k, v := range e.Locals {
				rec.Locals[k] = v
			}
		}
	}
	return rec
}

// Record enqueues e and returns its record ID. It never blocks: when the
// queue is full the record is dropped and logged.
func (r *Recorder) Record(ctx context.Context, e Entry) (string, error) {
	rec := r.NewRecord(e)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return "", ErrClosed
	}

	select {
	case r.queue <- rec:
		return rec.ID, nil
	default:
		r.logger.WarnContext(ctx, "journal queue full, dropping record",
			"record_id", rec.ID,
			"tree", rec.Tree,
		)
		if r.metrics != nil {
			r.metrics.RecordJournalWrite(false, 0)
		}
		return "", nil
	}
}

// Close drains the queue and stops the worker. The store is not closed.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
		r.wg.Wait()
	})
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
		start := time.Now()
		err := r.store.Write(ctx, rec)
		cancel()

		if r.metrics != nil {
			r.metrics.RecordJournalWrite(err == nil, time.Since(start))
		}
		if err != nil {
			r.logger.Error("failed to write journal record",
				"record_id", rec.ID,
				"error", err,
			)
		}
	}
}
