package api

import (
	"context"
	"time"

	"github.com/sloonz/cfeedparser/app/feed"
	"github.com/sloonz/cfeedparser/app/store"
	"github.com/sloonz/cfeedparser/app/tasks"
)

// PoolInterface is the part of tasks.Pool the handlers use.
type PoolInterface interface {
	Run(ctx context.Context, task tasks.TaskInterface) (*feed.Feed, error)
}

var _ PoolInterface = (*tasks.Pool)(nil)

type Handler struct {
	parser  tasks.Parser
	pool    PoolInterface
	store   store.Store
	maxBody int64
	version string
}

type Options struct {
	Parser  tasks.Parser
	Pool    PoolInterface
	Store   store.Store
	MaxBody int64
	Version string
}

type parseFailure struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type health struct {
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Cached    *int   `json:"cached,omitempty"`
}

func timestamp() string {
	return time.Now().In(time.Local).Format(time.RFC3339)
}
