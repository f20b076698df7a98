// Package queue runs a pool of workers that lease tasks from the durable
// task queue (store.TaskQueue), hand each to a processing function, and ack
// the result, grounded on papercomputeco-tapes/proxy/worker/pool.go's
// worker-goroutine/WaitGroup shape but polling a database instead of
// draining an in-process channel.
package queue

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bookmarkhub/bookmarkhub/internal/apperr"
	"github.com/bookmarkhub/bookmarkhub/internal/model"
	"github.com/bookmarkhub/bookmarkhub/internal/store"
)

// Process handles one leased task. It returns nil on success, or an error
// apperr.Classify can route to RETRY or FATAL (§5).
type Process func(ctx context.Context, task model.Task) error

// Config configures a worker Pool.
type Config struct {
	Queue             store.TaskQueue
	Process           Process
	Logger            *zap.Logger
	NumWorkers        int
	PollInterval      time.Duration
	VisibilityTimeout time.Duration
	DrainTimeout      time.Duration
	MaxRetries        int

	// BackoffBase and BackoffCap bound the exponential-with-jitter retry
	// delay (§4.2): delay = min(BackoffCap, BackoffBase * 2^retries) ± 20%.
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

const (
	defaultNumWorkers   = 4
	defaultPollInterval = 2 * time.Second
	defaultVisibility   = 5 * time.Minute
	defaultDrainTimeout = 30 * time.Second
	defaultMaxRetries   = 5
	defaultBackoffBase  = 30 * time.Second
	defaultBackoffCap   = 15 * time.Minute
)

// Pool polls store.TaskQueue.Lease on a fixed interval per worker and
// dispatches leased tasks to Process.
type Pool struct {
	cfg    Config
	wg     sync.WaitGroup
	stop   chan struct{}
	wake   chan struct{}
	logger *zap.Logger
}

// NewPool starts cfg.NumWorkers worker goroutines. Call Stop to drain.
func NewPool(cfg Config) *Pool {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = defaultNumWorkers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.VisibilityTimeout <= 0 {
		cfg.VisibilityTimeout = defaultVisibility
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = defaultDrainTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = defaultBackoffCap
	}

	p := &Pool{
		cfg:    cfg,
		stop:   make(chan struct{}),
		wake:   make(chan struct{}, 1),
		logger: cfg.Logger,
	}

	p.wg.Add(cfg.NumWorkers)
	for i := range cfg.NumWorkers {
		go p.worker(i)
	}

	return p
}

// Wake nudges idle workers to poll immediately, instead of waiting out the
// rest of their poll interval, for tasks enqueued by a live request.
func (p *Pool) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Stop signals workers to finish their current task and exit, waiting up to
// cfg.DrainTimeout before returning regardless.
func (p *Pool) Stop() {
	close(p.stop)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(p.cfg.DrainTimeout):
		p.logger.Warn("worker pool drain timed out", zap.Duration("timeout", p.cfg.DrainTimeout))
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	p.logger.Debug("queue worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-p.stop:
			p.logger.Debug("queue worker stopped", zap.Int("worker_id", id))
			return
		default:
		}

		leased := p.leaseAndProcess(id)
		if leased {
			continue
		}

		select {
		case <-p.stop:
			p.logger.Debug("queue worker stopped", zap.Int("worker_id", id))
			return
		case <-p.wake:
		case <-time.After(jitter(p.cfg.PollInterval)):
		}
	}
}

// leaseAndProcess leases at most one task and runs it to completion,
// reporting whether a task was found.
func (p *Pool) leaseAndProcess(workerID int) bool {
	ctx := context.Background()

	task, err := p.cfg.Queue.Lease(ctx, time.Now(), p.cfg.VisibilityTimeout)
	if err != nil {
		p.logger.Error("lease failed", zap.Int("worker_id", workerID), zap.Error(err))
		return false
	}
	if task == nil {
		return false
	}

	p.logger.Info("task leased",
		zap.Int("worker_id", workerID),
		zap.String("task_id", task.TaskID.String()),
		zap.String("url", task.URL),
		zap.Int("retries", task.Retries),
	)

	err = p.cfg.Process(ctx, *task)
	p.ack(ctx, *task, err)
	return true
}

func (p *Pool) ack(ctx context.Context, task model.Task, procErr error) {
	if procErr == nil {
		if err := p.cfg.Queue.AckSuccess(ctx, task.TaskID); err != nil {
			p.logger.Error("ack success failed", zap.String("task_id", task.TaskID.String()), zap.Error(err))
		}
		return
	}

	switch apperr.Classify(procErr) {
	case apperr.OutcomeRetry:
		delay := backoff(task.Retries, p.cfg.BackoffBase, p.cfg.BackoffCap)
		next := time.Now().Add(delay)
		if err := p.cfg.Queue.AckRetry(ctx, task.TaskID, next, p.cfg.MaxRetries); err != nil {
			p.logger.Error("ack retry failed", zap.String("task_id", task.TaskID.String()), zap.Error(err))
		}
		p.logger.Warn("task scheduled for retry",
			zap.String("task_id", task.TaskID.String()),
			zap.Duration("delay", delay),
			zap.Error(procErr),
		)
	default:
		if err := p.cfg.Queue.AckFatal(ctx, task.TaskID, procErr.Error()); err != nil {
			p.logger.Error("ack fatal failed", zap.String("task_id", task.TaskID.String()), zap.Error(err))
		}
		p.logger.Error("task failed fatally",
			zap.String("task_id", task.TaskID.String()),
			zap.Error(procErr),
		)
	}
}

// backoff computes min(cap, base*2^retries) with ±20% jitter.
func backoff(retries int, base, cap time.Duration) time.Duration {
	shift := retries
	if shift > 30 {
		shift = 30
	}
	delay := base * time.Duration(math.Pow(2, float64(shift)))
	if delay > cap || delay <= 0 {
		delay = cap
	}
	return jitterRange(delay, 0.2)
}

// jitter returns d adjusted by up to ±10%, used for poll interval spacing.
func jitter(d time.Duration) time.Duration {
	return jitterRange(d, 0.1)
}

func jitterRange(d time.Duration, frac float64) time.Duration {
	delta := float64(d) * frac
	offset := (rand.Float64()*2 - 1) * delta
	return d + time.Duration(offset)
}
