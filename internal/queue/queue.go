package queue

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the scheduler needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueSweep queues one sweep pass. While a sweep task is pending or
// running a second one is rejected as a duplicate, which is not an error.
func EnqueueSweep(client Enqueuer, payload SweepPayload, uniqueFor time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeSweepDuePosts, taskPayload)

	_, err = client.Enqueue(task,
		asynq.Queue(SweepQueue),
		asynq.MaxRetry(0),
		asynq.Unique(uniqueFor),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		log.Printf("Sweep already queued, skipping: %+v", payload)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("Sweep task queued: %+v", payload)
	return nil
}
