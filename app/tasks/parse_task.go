package tasks

import (
	"context"

	"github.com/sloonz/cfeedparser/app/feed"
)

type ParseFileTask struct {
	Task
	Path   string
	Hint   string
	parser Parser
}

func NewParseFileTask(path, hint string, parser Parser) *ParseFileTask {
	return &ParseFileTask{
		Task:   NewTask(TaskTypeParseFile, path),
		Path:   path,
		Hint:   hint,
		parser: parser,
	}
}

func (t *ParseFileTask) Execute(ctx context.Context) (*feed.Feed, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := feed.ReadFile(t.Path)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return t.parser.Parse(data, t.Hint)
}

// ParseBytesTask parses a document already in memory, such as a request body.
type ParseBytesTask struct {
	Task
	Data   []byte
	Hint   string
	parser Parser
}

func NewParseBytesTask(name string, data []byte, hint string, parser Parser) *ParseBytesTask {
	return &ParseBytesTask{
		Task:   NewTask(TaskTypeParseBytes, name),
		Data:   data,
		Hint:   hint,
		parser: parser,
	}
}

func (t *ParseBytesTask) Execute(ctx context.Context) (*feed.Feed, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return t.parser.Parse(t.Data, t.Hint)
}
