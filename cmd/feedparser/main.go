package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sloonz/cfeedparser/app/cfg"
	"github.com/sloonz/cfeedparser/app/feed"
	"github.com/sloonz/cfeedparser/app/render"
	"github.com/sloonz/cfeedparser/app/tasks"
)

const stdinName = "-"

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		if errors.Is(err, cfg.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg.SetupLogging(appCfg.Debug)

	if err := run(appCfg, os.Stdin, os.Stdout); err != nil {
		slog.Error("Failed to parse feeds", "error", err)
		os.Exit(1)
	}
}

type pending struct {
	name string
	task tasks.TaskInterface
}

// run parses every input on the worker pool and prints the results in the
// order the inputs were given.
func run(appCfg *cfg.Cfg, stdin io.Reader, stdout io.Writer) error {
	parser, cache, err := tasks.BuildParser(appCfg)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	pool := tasks.NewPoolFromConfig(appCfg)
	pool.Start()
	defer pool.Stop()

	files := appCfg.Files
	if len(files) == 0 {
		files = []string{stdinName}
	}

	ctx := context.Background()
	var queue []pending
	failed := 0

	flush := func() error {
		head := queue[0]
		queue = queue[1:]
		f, err := head.task.Wait(ctx)
		if err != nil {
			failed++
			slog.Debug("Feed failed", "name", head.name, "outcome", feed.Classify(err).String(), "error", err)
			if appCfg.Format == render.FormatText {
				return render.TextError(stdout, head.name, err)
			}
			slog.Error("Failed to parse feed", "name", head.name, "error", err)
			return nil
		}
		return render.Write(stdout, appCfg.Format, head.name, f, appCfg.Version)
	}

	for _, name := range files {
		task, err := newTask(name, appCfg.Charset, parser, stdin)
		if err != nil {
			return err
		}

		for {
			err := pool.EnqueueTask(task)
			if err == nil {
				break
			}
			if !errors.Is(err, tasks.ErrQueueFull) || len(queue) == 0 {
				return fmt.Errorf("failed to enqueue %s: %w", name, err)
			}
			if err := flush(); err != nil {
				return err
			}
		}
		queue = append(queue, pending{name: name, task: task})
	}

	for len(queue) > 0 {
		if err := flush(); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d feeds failed", failed, len(files))
	}
	return nil
}

func newTask(name, hint string, parser tasks.Parser, stdin io.Reader) (tasks.TaskInterface, error) {
	if name != stdinName {
		return tasks.NewParseFileTask(name, hint, parser), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, &feed.ResourceError{Op: "read", Path: "standard input", Err: err}
	}
	return tasks.NewParseBytesTask("<stdin>", data, hint, parser), nil
}
