package services

import "log/slog"

// ProgressStatus is the stage a batch download reached
type ProgressStatus string

const (
	ProgressStarted    ProgressStatus = "started"
	ProgressItemDone   ProgressStatus = "item_done"
	ProgressItemFailed ProgressStatus = "item_failed"
	ProgressGroupDone  ProgressStatus = "group_done"
	ProgressFinished   ProgressStatus = "finished"
)

// Progress is one event of a batch download
type Progress struct {
	RunID  string
	Kind   string
	Group  string
	ItemID string
	Index  int // 1-based position within the group
	Total  int // items in the group, 0 when unknown
	Status ProgressStatus
	Err    error
}

// ProgressReporter receives batch progress events
type ProgressReporter interface {
	Report(p Progress)
}

// ProgressFunc adapts a function to ProgressReporter
type ProgressFunc func(p Progress)

func (f ProgressFunc) Report(p Progress) { f(p) }

type logReporter struct {
	logger *slog.Logger
}

// NewLogReporter reports progress as structured log lines
func NewLogReporter(logger *slog.Logger) ProgressReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &logReporter{logger: logger}
}

func (r *logReporter) Report(p Progress) {
	attrs := []any{
		"run_id", p.RunID,
		"kind", p.Kind,
		"status", string(p.Status),
	}
	if p.Group != "" {
		attrs = append(attrs, "group", p.Group)
	}
	if p.ItemID != "" {
		attrs = append(attrs, "item_id", p.ItemID, "index", p.Index, "total", p.Total)
	}

	switch p.Status {
	case ProgressItemFailed:
		r.logger.Warn("Acquisition item failed", append(attrs, "error", p.Err)...)
	case ProgressItemDone:
		r.logger.Debug("Acquisition item done", attrs...)
	default:
		r.logger.Info("Acquisition progress", attrs...)
	}
}

type nopReporter struct{}

func (nopReporter) Report(Progress) {}
