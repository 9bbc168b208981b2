package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/maheshrc27/postflow/pkg/utils"
	"golang.org/x/sync/errgroup"
)

const (
	containerFinished  = "FINISHED"
	containerPublished = "PUBLISHED"
	containerError     = "ERROR"
	containerExpired   = "EXPIRED"
)

type InstagramService interface {
	Publisher
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type InstagramOption func(*instagramService)

// WithSleep replaces the wait between container status checks.
func WithSleep(fn SleepFunc) InstagramOption {
	return func(s *instagramService) {
		s.sleep = fn
	}
}

type instagramService struct {
	cfg   config.Instagram
	poll  config.Poll
	graph *graphClient
	sleep SleepFunc
}

func NewInstagramService(cfg config.Instagram, poll config.Poll, transport *GraphTransport, opts ...InstagramOption) InstagramService {
	s := &instagramService{
		cfg:   cfg,
		poll:  poll,
		graph: newGraphClient(cfg.GraphURL, models.PlatformInstagram, transport),
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *instagramService) Platform() models.Platform {
	return models.PlatformInstagram
}

func (s *instagramService) Prepare(post *models.ScheduledPost) (PublishRequest, error) {
	media := post.Media()
	if len(media) == 0 {
		return nil, validationError(models.PlatformInstagram, "post %s has no media; Instagram requires at least one image or video", post.ID)
	}

	postType := models.ResolvePostType(post.PostType, len(media))
	if postType == models.PostTypeCarousel && len(media) < 2 {
		slog.Warn("carousel post has a single media item, publishing as a feed post", "post_id", post.ID)
		postType = models.PostTypePost
	}

	switch postType {
	case models.PostTypeCarousel:
		if len(media) > models.MaxMediaItems {
			return nil, validationError(models.PlatformInstagram, "carousel has %d items, the limit is %d", len(media), models.MaxMediaItems)
		}
		items := make([]CarouselItem, len(media))
		for i, u := range media {
			items[i] = CarouselItem{URL: u, IsVideo: isInstagramVideo(u)}
		}
		return InstagramCarouselRequest{Items: items, Caption: post.Caption}, nil

	case models.PostTypeReel:
		return InstagramSingleRequest{Kind: InstagramReel, URL: media[0], Caption: post.Caption}, nil

	case models.PostTypeStory:
		kind := InstagramStoryImage
		if isInstagramVideo(media[0]) {
			kind = InstagramStoryVideo
		}
		return InstagramSingleRequest{Kind: kind, URL: media[0]}, nil

	case models.PostTypePost:
		kind := InstagramFeedImage
		if isInstagramVideo(media[0]) {
			kind = InstagramFeedVideo
		}
		return InstagramSingleRequest{Kind: kind, URL: media[0], Caption: post.Caption}, nil
	}

	return nil, validationError(models.PlatformInstagram, "unsupported post type %q", post.PostType)
}

func (s *instagramService) Publish(ctx context.Context, req PublishRequest) (string, error) {
	var creationID string
	var err error

	switch r := req.(type) {
	case InstagramSingleRequest:
		creationID, err = s.createContainer(ctx, "create_container", singleContainerPayload(r))
	case InstagramCarouselRequest:
		creationID, err = s.createCarousel(ctx, r)
	default:
		return "", validationError(models.PlatformInstagram, "request of type %T cannot be published to Instagram", req)
	}
	if err != nil {
		return "", err
	}

	if err := s.waitForContainer(ctx, creationID); err != nil {
		return "", err
	}

	return s.publishContainer(ctx, creationID)
}

func singleContainerPayload(r InstagramSingleRequest) map[string]any {
	payload := map[string]any{}
	switch r.Kind {
	case InstagramFeedImage:
		payload["image_url"] = r.URL
	case InstagramFeedVideo, InstagramReel:
		payload["media_type"] = "REELS"
		payload["video_url"] = r.URL
	case InstagramStoryImage:
		payload["media_type"] = "STORIES"
		payload["image_url"] = r.URL
	case InstagramStoryVideo:
		payload["media_type"] = "STORIES"
		payload["video_url"] = r.URL
	}
	if r.Caption != "" {
		payload["caption"] = r.Caption
	}
	return payload
}

// createCarousel creates the item containers concurrently and then the
// parent. Children keep the order of the request items; the first item
// failure cancels the others and no parent is created.
func (s *instagramService) createCarousel(ctx context.Context, r InstagramCarouselRequest) (string, error) {
	childIDs := make([]string, len(r.Items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range r.Items {
		i, item := i, item // per-iteration copy (go.mod targets go 1.21)
		g.Go(func() error {
			payload := map[string]any{"is_carousel_item": true}
			if item.IsVideo {
				payload["media_type"] = "VIDEO"
				payload["video_url"] = item.URL
			} else {
				payload["image_url"] = item.URL
			}

			id, err := s.createContainer(gctx, fmt.Sprintf("create_carousel_item[%d]", i), payload)
			if err != nil {
				return err
			}
			childIDs[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	payload := map[string]any{
		"media_type": "CAROUSEL",
		"children":   strings.Join(childIDs, ","),
	}
	if r.Caption != "" {
		payload["caption"] = r.Caption
	}
	return s.createContainer(ctx, "create_carousel", payload)
}

func (s *instagramService) createContainer(ctx context.Context, stage string, payload map[string]any) (string, error) {
	payload["access_token"] = s.cfg.AccessToken

	var result transfer.GraphIDResponse
	if err := s.graph.post(ctx, stage, s.cfg.AccountID+"/media", payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", &PublishError{Kind: ErrorKindAPI, Platform: models.PlatformInstagram, Stage: stage, Detail: "no container ID returned from Instagram"}
	}
	return result.ID, nil
}

// waitForContainer polls the container until it is FINISHED. A container in
// ERROR or EXPIRED fails the publish. When the attempts run out the poll
// policy decides between publishing anyway and failing.
func (s *instagramService) waitForContainer(ctx context.Context, containerID string) error {
	attempts := s.poll.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	query := url.Values{}
	query.Set("fields", "status_code,status")
	query.Set("access_token", s.cfg.AccessToken)

	for attempt := 1; attempt <= attempts; attempt++ {
		var status transfer.ContainerStatusResponse
		err := s.graph.get(ctx, "poll_container", containerID, query, &status)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			slog.Warn("failed to check container status", "container_id", containerID, "attempt", attempt, "error", err)
		} else {
			switch strings.ToUpper(status.StatusCode) {
			case containerFinished, containerPublished:
				return nil
			case containerError, containerExpired:
				detail := fmt.Sprintf("container %s reported %s", containerID, status.StatusCode)
				if status.Status != "" {
					detail += ": " + status.Status
				}
				return &PublishError{Kind: ErrorKindProcessing, Platform: models.PlatformInstagram, Stage: "poll_container", Detail: detail}
			}
			slog.Info("container still processing", "container_id", containerID, "status_code", status.StatusCode, "attempt", attempt)
		}

		if attempt < attempts {
			if err := s.sleep(ctx, s.poll.Interval); err != nil {
				return &PublishError{Kind: ErrorKindTimeout, Platform: models.PlatformInstagram, Stage: "poll_container", Detail: "wait interrupted", Err: err}
			}
		}
	}

	if s.poll.PublishOnTimeout {
		slog.Warn("container did not report FINISHED, publishing anyway", "container_id", containerID, "attempts", attempts)
		return nil
	}
	return &PublishError{
		Kind:     ErrorKindTimeout,
		Platform: models.PlatformInstagram,
		Stage:    "poll_container",
		Detail:   fmt.Sprintf("container %s not ready after %d status checks", containerID, attempts),
	}
}

func (s *instagramService) publishContainer(ctx context.Context, creationID string) (string, error) {
	payload := map[string]any{
		"creation_id":  creationID,
		"access_token": s.cfg.AccessToken,
	}

	var result transfer.GraphIDResponse
	if err := s.graph.post(ctx, "publish", s.cfg.AccountID+"/media_publish", payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", &PublishError{Kind: ErrorKindAPI, Platform: models.PlatformInstagram, Stage: "publish", Detail: "no media ID returned from Instagram"}
	}

	slog.Info("published to Instagram", "creation_id", creationID, "media_id", result.ID)
	return result.ID, nil
}

func isInstagramVideo(u string) bool {
	return utils.HasExtension(u, utils.InstagramVideoExtensions...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
