package retrieval

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/austiecodes/curator/internal/client"
	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/memory/memtypes"
	"github.com/austiecodes/curator/internal/metrics"
	"github.com/austiecodes/curator/internal/types"
)

// WriterConfig sizes the queue and the retry policy.
type WriterConfig struct {
	QueueSize  int
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	// Timeout bounds one embed+save attempt.
	Timeout time.Duration
}

// DefaultWriterConfig returns the defaults used when nothing is configured.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		QueueSize:  consts.DefaultWriterQueueSize,
		Workers:    2,
		MaxRetries: consts.DefaultWriterMaxRetries,
		RetryDelay: consts.DefaultWriterRetryBaseDelay,
		Timeout:    30 * time.Second,
	}
}

type writeJob struct {
	in         ConversationInput
	retryCount int
	embedding  []float32
	notBefore  time.Time
	err        error
}

// Writer stores conversation memories in the background. Callers never wait
// on it and never see its errors; failures are retried with a growing delay
// and then logged and dropped.
type Writer struct {
	memories MemoryStore
	embedder client.EmbeddingClient
	model    types.Model
	cfg      WriterConfig
	log      zerolog.Logger

	jobs    chan writeJob
	retryCh chan writeJob

	mu      sync.Mutex
	pending int
	idle    chan struct{}
}

// NewWriter builds a writer. Jobs are processed only while Serve runs.
func NewWriter(memories MemoryStore, embedder client.EmbeddingClient, model types.Model, cfg WriterConfig) *Writer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = consts.DefaultWriterQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Writer{
		memories: memories,
		embedder: embedder,
		model:    model,
		cfg:      cfg,
		log:      logging.WithComponent("memory-writer"),
		jobs:     make(chan writeJob, cfg.QueueSize),
		retryCh:  make(chan writeJob, cfg.QueueSize),
		idle:     make(chan struct{}),
	}
}

// Enqueue schedules a write. A full queue drops the write with a warning.
func (w *Writer) Enqueue(in ConversationInput) {
	w.mu.Lock()
	w.pending++
	w.mu.Unlock()

	select {
	case w.jobs <- writeJob{in: in}:
		metrics.WriterQueueDepth.Inc()
	default:
		w.finish()
		metrics.MemoryWrites.WithLabelValues(string(memtypes.TypeConversation), "dropped").Inc()
		w.log.Warn().Str("user_id", in.UserID).Str("agent_type", in.AgentType.String()).
			Msg("writer queue full, dropping conversation")
	}
}

// Pending is the number of writes not yet finished.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Flush blocks until every enqueued write has succeeded or given up.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.pending == 0 {
		w.mu.Unlock()
		return nil
	}
	idle := w.idle
	w.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending--
	if w.pending == 0 {
		close(w.idle)
		w.idle = make(chan struct{})
	}
}

// Serve runs the workers and the retry loop until ctx is cancelled.
func (w *Writer) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.work(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.retryLoop(ctx)
	}()
	wg.Wait()

	if n := w.Pending(); n > 0 {
		w.log.Warn().Int("pending", n).Msg("writer stopped with unfinished writes")
	}
	return ctx.Err()
}

func (w *Writer) String() string { return "memory-writer" }

func (w *Writer) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			metrics.WriterQueueDepth.Dec()
			w.process(ctx, job)
		}
	}
}

func (w *Writer) process(ctx context.Context, job writeJob) {
	attemptCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	doc := ConversationDocument(job.in.Query, job.in.Response)

	// the embedding survives retries of the save step
	if job.embedding == nil {
		vec, err := w.embedder.Embed(attemptCtx, w.model, doc)
		if err != nil {
			job.err = err
			w.retry(job)
			return
		}
		job.embedding = vec
	}

	err := w.memories.SaveMemory(attemptCtx, &memtypes.StoredMemory{
		UserID:       job.in.UserID,
		MemoryType:   memtypes.TypeConversation,
		Document:     doc,
		QueryText:    job.in.Query,
		ResponseText: job.in.Response,
		AgentType:    job.in.AgentType.String(),
		Provider:     w.model.Provider,
		ModelID:      w.model.ModelID,
		Dim:          len(job.embedding),
		Embedding:    job.embedding,
	})
	if err != nil {
		job.err = err
		w.retry(job)
		return
	}

	metrics.MemoryWrites.WithLabelValues(string(memtypes.TypeConversation), "ok").Inc()
	w.log.Debug().Str("user_id", job.in.UserID).Str("agent_type", job.in.AgentType.String()).
		Int("retries", job.retryCount).Msg("conversation stored")
	w.finish()
}

func (w *Writer) retry(job writeJob) {
	if job.retryCount >= w.cfg.MaxRetries {
		w.fail(job)
		return
	}
	job.notBefore = time.Now().Add(time.Duration(job.retryCount+1) * w.cfg.RetryDelay)
	select {
	case w.retryCh <- job:
		metrics.MemoryWrites.WithLabelValues(string(memtypes.TypeConversation), "retried").Inc()
	default:
		w.fail(job)
	}
}

func (w *Writer) fail(job writeJob) {
	metrics.MemoryWrites.WithLabelValues(string(memtypes.TypeConversation), "failed").Inc()
	w.log.Error().Err(job.err).Str("user_id", job.in.UserID).Str("agent_type", job.in.AgentType.String()).
		Int("retries", job.retryCount).Msg("failed to store conversation")
	w.finish()
}

// retryLoop waits out each job's backoff and puts it back on the queue.
// Jobs arrive roughly in failure order.
func (w *Writer) retryLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.retryCh:
			if d := time.Until(job.notBefore); d > 0 {
				timer := time.NewTimer(d)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}

			job.retryCount++
			select {
			case <-ctx.Done():
				return
			case w.jobs <- job:
				metrics.WriterQueueDepth.Inc()
			}
		}
	}
}
