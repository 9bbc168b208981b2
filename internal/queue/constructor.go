package queue

import (
	"github.com/maheshrc27/postflow/internal/service"
)

type Queue struct {
	ps service.PublishService
}

func NewQueue(ps service.PublishService) *Queue {
	return &Queue{ps: ps}
}

const (
	TaskTypeSweepDuePosts = "sweep:due_posts"
	SweepQueue            = "sweep"
)

type SweepPayload struct {
	Trigger string `json:"trigger"`
}
