package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sloonz/cfeedparser/app/feed"
	"github.com/sloonz/cfeedparser/app/markup"
)

const (
	DefaultQueueSize  = 300
	DefaultRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
)

var ErrQueueFull = errors.New("task queue is full")

type PoolConfig struct {
	WorkerCount int
	QueueSize   int
	// Timeout bounds a single attempt. Zero means no limit.
	Timeout    time.Duration
	MaxRetries int
	// RetryDelay is the delay before the first retry; it doubles on each
	// further attempt.
	RetryDelay time.Duration
}

// Pool runs parse tasks on a fixed set of workers.
type Pool struct {
	workerCount int
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewPool(cfg PoolConfig) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	return &Pool{
		workerCount: cfg.WorkerCount,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, cfg.QueueSize),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop waits for running attempts, then finishes every task that never got
// to run with context.Canceled.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()

	for {
		select {
		case task := <-p.taskQueue:
			task.Finish(nil, context.Canceled)
		default:
			return
		}
	}
}

func (p *Pool) EnqueueTask(task TaskInterface) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}

	select {
	case p.taskQueue <- task:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Run enqueues task and waits for its result.
func (p *Pool) Run(ctx context.Context, task TaskInterface) (*feed.Feed, error) {
	if err := p.EnqueueTask(task); err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}
	return task.Wait(ctx)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		select {
		case task := <-p.taskQueue:
			p.executeTask(id, task)
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) executeTask(workerID int, task TaskInterface) {
	task.Start()

	f, err := p.attempt(task)
	if err == nil {
		slog.Debug("Task completed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "name", task.GetName(), "duration", task.GetDuration().String())
		task.Finish(f, nil)
		return
	}

	slog.Debug("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !retryable(err) || task.GetRetryCount() >= p.maxRetries {
		if retryable(err) {
			slog.Warn("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", p.maxRetries, "last_error", err)
		}
		task.Finish(nil, err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := p.retryDelay << uint(task.GetRetryCount()-1)
	if retryDelay > maxRetryDelay || retryDelay <= 0 {
		retryDelay = maxRetryDelay
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "name", task.GetName(), "retry_count", task.GetRetryCount(), "max_retries", p.maxRetries, "delay", retryDelay.String())

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-p.ctx.Done():
			slog.Debug("Pool stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			task.Finish(nil, context.Canceled)
		case <-timer.C:
			if retryErr := p.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				task.Finish(nil, err)
			}
		}
	}()
}

// attempt runs one execution under the pool timeout. Parsing cannot be
// interrupted, so an attempt that overruns is abandoned and its result
// dropped.
func (p *Pool) attempt(task TaskInterface) (*feed.Feed, error) {
	ctx := p.ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.ctx, p.timeout)
		defer cancel()
	}

	type outcome struct {
		feed *feed.Feed
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		f, err := task.Execute(ctx)
		ch <- outcome{f, err}
	}()

	select {
	case out := <-ch:
		return out.feed, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// retryable reports failures that may succeed on another attempt: I/O
// errors. Limit breaches and malformed documents fail the same way every
// time.
func retryable(err error) bool {
	var resourceErr *feed.ResourceError
	if !errors.As(err, &resourceErr) {
		return false
	}
	return !errors.Is(err, feed.ErrTooLarge) && !errors.Is(err, markup.ErrLimitExceeded)
}
