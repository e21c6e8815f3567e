package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sloonz/cfeedparser/app/feed"
)

type TaskType string

const (
	TaskTypeParseFile  TaskType = "parse_file"
	TaskTypeParseBytes TaskType = "parse_bytes"
)

// Parser is the strategy a task runs: the engine itself, a fallback chain,
// or a caching wrapper around either.
type Parser interface {
	Parse(data []byte, hint string) (*feed.Feed, error)
}

type TaskInterface interface {
	Execute(ctx context.Context) (*feed.Feed, error)
	GetID() string
	GetType() TaskType
	GetName() string
	GetRetryCount() int
	IncrementRetryCount()
	Start()
	GetDuration() time.Duration
	Finish(f *feed.Feed, err error)
	Wait(ctx context.Context) (*feed.Feed, error)
}

// Task carries the bookkeeping shared by every task type. Its result is set
// exactly once through Finish.
type Task struct {
	ID         string
	Type       TaskType
	Name       string
	RetryCount int
	StartedAt  *time.Time

	mu     sync.Mutex
	once   sync.Once
	done   chan struct{}
	result *feed.Feed
	err    error
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetName() string {
	return t.Name
}

func (t *Task) GetRetryCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.RetryCount
}

func (t *Task) IncrementRetryCount() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.RetryCount++
}

func (t *Task) Start() {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func (t *Task) Finish(f *feed.Feed, err error) {
	t.once.Do(func() {
		t.result, t.err = f, err
		close(t.done)
	})
}

// Wait blocks until the task finished or ctx is done. Giving up on ctx does
// not cancel the task.
func (t *Task) Wait(ctx context.Context) (*feed.Feed, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func NewTask(taskType TaskType, name string) Task {
	return Task{
		ID:   uuid.NewString(),
		Type: taskType,
		Name: name,
		done: make(chan struct{}),
	}
}
