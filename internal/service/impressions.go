package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"minato/internal/middleware"
	"minato/internal/repository"
)

// dateKey formats a time as an unpadded local Y-M-D key, the grain all daily
// counters (impressions, follows, sales) are bucketed by.
func dateKey(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}

// ImpressionRecorder increments daily view counters off the request path.
// Recording is fire-and-forget: a failed increment is logged and counted but
// never surfaces to the reader.
type ImpressionRecorder struct {
	repo    repository.ImpressionRepository
	timeout time.Duration
}

// NewImpressionRecorder creates a recorder with the default write timeout.
func NewImpressionRecorder(repo repository.ImpressionRepository) *ImpressionRecorder {
	return &ImpressionRecorder{repo: repo, timeout: 5 * time.Second}
}

// Record bumps today's counter for each given post id in the background. The
// write runs on a detached context so it survives the response being sent.
func (r *ImpressionRecorder) Record(postIDs []string) {
	if len(postIDs) == 0 {
		return
	}
	key := dateKey(time.Now())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.repo.IncrementBatch(ctx, postIDs, key); err != nil {
			slog.Error("failed to record impressions", "error", err, "posts", len(postIDs))
			middleware.ImpressionFailures.Inc()
		}
	}()
}
