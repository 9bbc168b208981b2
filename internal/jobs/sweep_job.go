package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/service"
)

// SweepJob is registered on the cron scheduler. With a queue client it
// hands the pass to the asynq worker, otherwise it runs the pass inline.
type SweepJob struct {
	q         queue.Enqueuer
	ps        service.PublishService
	uniqueFor time.Duration
}

func NewSweepJob(q queue.Enqueuer, ps service.PublishService, uniqueFor time.Duration) *SweepJob {
	return &SweepJob{
		q:         q,
		ps:        ps,
		uniqueFor: uniqueFor,
	}
}

func (j *SweepJob) Run() {
	if j.q != nil {
		if err := queue.EnqueueSweep(j.q, queue.SweepPayload{Trigger: "cron"}, j.uniqueFor); err != nil {
			slog.Error("unable to queue sweep", "error", err)
		}
		return
	}

	result, err := j.ps.RunDuePostSweep(context.Background())
	if err != nil {
		slog.Error("sweep failed", "error", err)
		return
	}
	slog.Info("sweep finished", "posts", len(result.Results))
}
