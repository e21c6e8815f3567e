package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sloonz/cfeedparser/app/feed"
	"github.com/sloonz/cfeedparser/app/render"
	"github.com/sloonz/cfeedparser/app/tasks"
)

func NewHandler(opts Options) *Handler {
	return &Handler{
		parser:  opts.Parser,
		pool:    opts.Pool,
		store:   opts.Store,
		maxBody: opts.MaxBody,
		version: opts.Version,
	}
}

// ParseFeed parses the request body. The charset comes from the charset query
// parameter or the Content-Type header. format=rss answers with the feed
// re-emitted as RSS 2.0 instead of JSON.
func (h *Handler) ParseFeed(c *gin.Context) {
	body := c.Request.Body
	if h.maxBody > 0 {
		body = http.MaxBytesReader(c.Writer, body, h.maxBody)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, parseFailure{Error: "request body too large"})
			return
		}
		slog.Error("Failed to read request body", "error", err)
		c.JSON(http.StatusBadRequest, parseFailure{Error: "failed to read request body"})
		return
	}

	hint := c.Query("charset")
	if hint == "" {
		hint = c.GetHeader("Content-Type")
	}

	task := tasks.NewParseBytesTask(c.ClientIP(), data, hint, h.parser)
	f, err := h.pool.Run(c.Request.Context(), task)
	if err != nil {
		status, failure := failureOf(err)
		if status >= http.StatusInternalServerError {
			slog.Error("Parse request failed", "task_id", task.GetID(), "status", status, "error", err)
		} else {
			slog.Debug("Parse request rejected", "task_id", task.GetID(), "status", status, "error", err)
		}
		c.JSON(status, failure)
		return
	}

	c.Header("X-Feed-Dialect", f.Dialect.String())
	c.Header("X-Feed-Entries", strconv.Itoa(f.EntriesSize))

	if c.Query("format") == render.FormatRSS {
		var buf bytes.Buffer
		if err := render.RSS(&buf, f, h.version); err != nil {
			slog.Error("RSS generation error", "task_id", task.GetID(), "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "application/xml; charset=utf-8", buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, f)
}

// failureOf maps a parse error to its HTTP status.
func failureOf(err error) (int, parseFailure) {
	var parseErr *feed.ParseError
	switch {
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity, parseFailure{Error: parseErr.Error(), Reason: string(parseErr.Reason)}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, parseFailure{Error: "parse timed out"}
	case errors.Is(err, feed.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, parseFailure{Error: err.Error()}
	case errors.Is(err, tasks.ErrQueueFull):
		return http.StatusServiceUnavailable, parseFailure{Error: "server busy"}
	default:
		return http.StatusInternalServerError, parseFailure{Error: err.Error()}
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	resp := health{
		Timestamp: timestamp(),
		Version:   h.version,
	}

	if h.store != nil {
		if count, err := h.store.Count(); err == nil {
			resp.Cached = &count
		} else {
			slog.Warn("Failed to count cached feeds", "error", err)
		}
	}

	c.JSON(http.StatusOK, resp)
}
