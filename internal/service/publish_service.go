package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/maheshrc27/postflow/pkg/utils"
)

type PublishService interface {
	// RunDuePostSweep publishes every scheduled post whose time has come.
	// Only a *ScanError is returned; per-post failures are in the result.
	RunDuePostSweep(ctx context.Context) (*transfer.SweepResult, error)
	// PublishNow publishes exactly the given posts regardless of their
	// scheduled time. Each post is updated in place with its outcome.
	PublishNow(ctx context.Context, posts []*models.ScheduledPost) (*transfer.SweepResult, error)
}

type PublishOption func(*publishService)

func WithClock(now func() time.Time) PublishOption {
	return func(s *publishService) {
		s.now = now
	}
}

type publishService struct {
	pr         repository.PostRepository
	ph         repository.PostingHistoryRepository
	lock       repository.SweepLock
	publishers map[models.Platform]Publisher
	lockTTL    time.Duration
	claimLease time.Duration
	now        func() time.Time
}

func NewPublishService(
	cfg config.Config,
	pr repository.PostRepository,
	ph repository.PostingHistoryRepository,
	lock repository.SweepLock,
	publishers []Publisher,
	opts ...PublishOption) PublishService {
	s := &publishService{
		pr:         pr,
		ph:         ph,
		lock:       lock,
		publishers: make(map[models.Platform]Publisher, len(publishers)),
		lockTTL:    cfg.SweepLockTTL,
		claimLease: cfg.ClaimLease,
		now:        time.Now,
	}
	for _, p := range publishers {
		s.publishers[p.Platform()] = p
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPublishers builds the Instagram and Facebook publishers over one
// shared Graph API transport.
func NewPublishers(cfg config.Config) []Publisher {
	transport := NewGraphTransport(cfg.HTTPTimeout, cfg.GraphRequestsPerSecond)
	return []Publisher{
		NewInstagramService(cfg.Instagram, cfg.Poll, transport),
		NewFacebookService(cfg.Facebook, transport),
	}
}

type sweepLog struct {
	lines []string
}

func (l *sweepLog) info(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, line)
	slog.Info(line)
}

func (l *sweepLog) warn(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	l.lines = append(l.lines, line)
	slog.Warn(line)
}

func (s *publishService) RunDuePostSweep(ctx context.Context) (*transfer.SweepResult, error) {
	log := &sweepLog{}
	result := &transfer.SweepResult{Results: []transfer.PostResult{}}

	release, ok, err := s.lock.Acquire(ctx, s.lockTTL)
	if err != nil {
		slog.Error("failed to acquire sweep lock", "error", err)
		return nil, &ScanError{Err: fmt.Errorf("acquire sweep lock: %w", err)}
	}
	if !ok {
		log.info("another sweep is running, skipping this pass")
		result.Logs = log.lines
		return result, nil
	}
	defer release()

	now := s.now()
	posts, err := s.pr.ListDue(ctx, now)
	if err != nil {
		slog.Error("failed to load due posts", "error", err)
		return nil, &ScanError{Err: err}
	}
	log.info("found %d due posts at %s", len(posts), now.UTC().Format(time.RFC3339))

	result.Results = s.processPosts(ctx, posts, log)
	result.Logs = log.lines
	return result, nil
}

func (s *publishService) PublishNow(ctx context.Context, posts []*models.ScheduledPost) (*transfer.SweepResult, error) {
	log := &sweepLog{}
	log.info("publishing %d posts now", len(posts))

	return &transfer.SweepResult{
		Results: s.processPosts(ctx, posts, log),
		Logs:    log.lines,
	}, nil
}

func (s *publishService) processPosts(ctx context.Context, posts []*models.ScheduledPost, log *sweepLog) []transfer.PostResult {
	results := make([]transfer.PostResult, 0, len(posts))
	for i, post := range posts {
		if ctx.Err() != nil {
			log.warn("pass cancelled, %d posts left scheduled for the next pass", len(posts)-i)
			for _, rest := range posts[i:] {
				results = append(results, transfer.PostResult{
					ID:       rest.ID,
					Platform: rest.Platform,
					Status:   transfer.ResultSkipped,
					Error:    "pass cancelled before this post was published",
				})
			}
			break
		}
		results = append(results, s.processPost(ctx, post, log))
	}
	return results
}

// processPost publishes one post and writes its terminal status. It never
// returns an error so one post cannot stop the batch.
func (s *publishService) processPost(ctx context.Context, post *models.ScheduledPost, log *sweepLog) transfer.PostResult {
	result := transfer.PostResult{ID: post.ID, Platform: post.Platform}

	if post.Status.Terminal() {
		log.info("post %s is already %s, skipping", post.ID, post.Status)
		result.Status = transfer.ResultSkipped
		result.PlatformID = post.PlatformID()
		return result
	}

	publisher, ok := s.publishers[post.Platform]
	if !ok {
		log.info("platform %s is not supported for publishing yet, post %s stays scheduled", post.Platform, post.ID)
		result.Status = transfer.ResultSkipped
		return result
	}

	claimed, err := s.pr.Claim(ctx, post.ID, s.now(), s.claimLease)
	if err != nil {
		log.warn("could not claim post %s: %v", post.ID, err)
		result.Status = transfer.ResultSkipped
		result.Error = fmt.Sprintf("could not claim post: %v", err)
		return result
	}
	if !claimed {
		log.info("post %s is being published by another pass, skipping", post.ID)
		result.Status = transfer.ResultSkipped
		return result
	}

	// once claimed, the platform calls and the write-back run to completion;
	// only the HTTP client timeout bounds them
	detached := context.WithoutCancel(ctx)

	update := models.StatusUpdate{}
	platformID, err := s.publish(detached, publisher, post)
	if err != nil {
		update.Status = models.PostStatusFailed
		update.ErrorMessage = err.Error()
		result.Status = transfer.ResultFailed
		result.Error = err.Error()
		log.warn("failed to publish post %s to %s: %v", post.ID, post.Platform, err)
	} else {
		update.Status = models.PostStatusPublished
		update.PlatformID = platformID
		result.Status = transfer.ResultPublished
		result.PlatformID = platformID
		log.info("published post %s to %s as %s", post.ID, post.Platform, platformID)
	}

	if err := s.pr.UpdatePostStatus(detached, post.ID, update); err != nil {
		if errors.Is(err, repository.ErrPostNotScheduled) {
			log.warn("post %s left the scheduled state before its result was stored", post.ID)
		} else {
			log.warn("failed to store %s status for post %s: %v", update.Status, post.ID, err)
		}
	}
	s.recordHistory(detached, post, update)
	post.Apply(update)

	return result
}

func (s *publishService) publish(ctx context.Context, publisher Publisher, post *models.ScheduledPost) (string, error) {
	if err := utils.CheckPublicURLs(post.Media()); err != nil {
		return "", validationError(post.Platform, "%v", err)
	}

	req, err := publisher.Prepare(post)
	if err != nil {
		return "", asPublishError(post.Platform, err)
	}

	id, err := publisher.Publish(ctx, req)
	if err != nil {
		return "", asPublishError(post.Platform, err)
	}
	return id, nil
}

func (s *publishService) recordHistory(ctx context.Context, post *models.ScheduledPost, update models.StatusUpdate) {
	if s.ph == nil {
		return
	}
	history := &models.PostingHistory{
		PostID:       post.ID,
		Platform:     post.Platform,
		Status:       update.Status,
		PlatformID:   update.PlatformID,
		ErrorMessage: update.ErrorMessage,
	}
	if _, err := s.ph.Create(ctx, history); err != nil {
		slog.Warn("failed to save posting history", "post_id", post.ID, "error", err)
	}
}
