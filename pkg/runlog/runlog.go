package runlog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/flaboy/aira-books/pkg/models"
	"gorm.io/gorm"
)

// Handler persists records as sync run log rows, then forwards them to the
// wrapped handler. It is constructed per run with an explicit run id; there
// is no process-wide current run.
type Handler struct {
	db    *gorm.DB
	runID uint
	next  slog.Handler
	attrs []slog.Attr
}

func NewHandler(db *gorm.DB, runID uint, next slog.Handler) *Handler {
	return &Handler{db: db, runID: runID, next: next}
}

// Logger returns a logger whose records are attributed to the given run.
func Logger(db *gorm.DB, runID uint, next slog.Handler) *slog.Logger {
	return slog.New(NewHandler(db, runID, next))
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next == nil || h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	fields := make(map[string]interface{}, record.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	var contextJSON json.RawMessage
	if len(fields) > 0 {
		if data, err := json.Marshal(fields); err == nil {
			contextJSON = data
		}
	}

	row := &models.SyncRunLog{
		SyncRunID: h.runID,
		Level:     strings.ToLower(record.Level.String()),
		Message:   record.Message,
		Context:   contextJSON,
		CreatedAt: record.Time,
	}
	// A failed log write must never abort the sync itself.
	_ = h.db.Create(row).Error

	if h.next != nil {
		return h.next.Handle(ctx, record)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	clone := *h
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}
