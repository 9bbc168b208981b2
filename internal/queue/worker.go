package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postflow/internal/transfer"
)

func (j *Queue) HandleSweepTask(ctx context.Context, task *asynq.Task) error {
	var payload SweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid sweep payload: %v: %w", err, asynq.SkipRetry)
	}

	result, err := j.ps.RunDuePostSweep(ctx)
	if err != nil {
		log.Printf("Sweep (%s) failed: %v", payload.Trigger, err)
		return fmt.Errorf("sweep failed: %v: %w", err, asynq.SkipRetry)
	}

	published, failed, skipped := countResults(result)
	log.Printf("Sweep (%s) done: %d published, %d failed, %d skipped", payload.Trigger, published, failed, skipped)
	return nil
}

func countResults(result *transfer.SweepResult) (published, failed, skipped int) {
	for _, r := range result.Results {
		switch r.Status {
		case transfer.ResultPublished:
			published++
		case transfer.ResultFailed:
			failed++
		case transfer.ResultSkipped:
			skipped++
		}
	}
	return published, failed, skipped
}
