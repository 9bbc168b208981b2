package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/stretchr/testify/assert"
)

type recordingEnqueuer struct {
	types []string
}

func (e *recordingEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.types = append(e.types, task.Type())
	return &asynq.TaskInfo{ID: "t1"}, nil
}

type countingPublishService struct {
	sweeps int
}

func (s *countingPublishService) RunDuePostSweep(ctx context.Context) (*transfer.SweepResult, error) {
	s.sweeps++
	return &transfer.SweepResult{Results: []transfer.PostResult{}}, nil
}

func (s *countingPublishService) PublishNow(ctx context.Context, posts []*models.ScheduledPost) (*transfer.SweepResult, error) {
	return nil, errors.New("not used")
}

func TestSweepJobEnqueues(t *testing.T) {
	q := &recordingEnqueuer{}
	ps := &countingPublishService{}

	NewSweepJob(q, ps, time.Minute).Run()

	assert.Equal(t, []string{queue.TaskTypeSweepDuePosts}, q.types)
	assert.Zero(t, ps.sweeps)
}

func TestSweepJobRunsInlineWithoutQueue(t *testing.T) {
	ps := &countingPublishService{}

	NewSweepJob(nil, ps, time.Minute).Run()

	assert.Equal(t, 1, ps.sweeps)
}
