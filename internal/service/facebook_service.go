package service

import (
	"context"
	"log/slog"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/maheshrc27/postflow/pkg/utils"
)

type FacebookService interface {
	Publisher
}

type facebookService struct {
	cfg   config.Facebook
	graph *graphClient
}

func NewFacebookService(cfg config.Facebook, transport *GraphTransport) FacebookService {
	return &facebookService{
		cfg:   cfg,
		graph: newGraphClient(cfg.GraphURL, models.PlatformFacebook, transport),
	}
}

func (s *facebookService) Platform() models.Platform {
	return models.PlatformFacebook
}

// Prepare picks the page endpoint from the first media item. Facebook posts
// carry at most one media item; the rest are ignored.
func (s *facebookService) Prepare(post *models.ScheduledPost) (PublishRequest, error) {
	media := post.Media()
	if len(media) == 0 {
		if post.Caption == "" {
			return nil, validationError(models.PlatformFacebook, "post %s has neither media nor a caption", post.ID)
		}
		return FacebookTextRequest{Message: post.Caption}, nil
	}

	if len(media) > 1 {
		slog.Warn("facebook publishes only the first media item", "post_id", post.ID, "media_count", len(media))
	}

	if utils.HasExtension(media[0], utils.FacebookVideoExtensions...) {
		return FacebookVideoRequest{FileURL: media[0], Description: post.Caption}, nil
	}
	return FacebookPhotoRequest{URL: media[0], Caption: post.Caption}, nil
}

func (s *facebookService) Publish(ctx context.Context, req PublishRequest) (string, error) {
	var path, stage string
	payload := map[string]any{"access_token": s.cfg.AccessToken}

	switch r := req.(type) {
	case FacebookTextRequest:
		path, stage = s.cfg.PageID+"/feed", "publish_feed"
		payload["message"] = r.Message
	case FacebookPhotoRequest:
		path, stage = s.cfg.PageID+"/photos", "publish_photo"
		payload["url"] = r.URL
		if r.Caption != "" {
			payload["caption"] = r.Caption
		}
	case FacebookVideoRequest:
		path, stage = s.cfg.PageID+"/videos", "publish_video"
		payload["file_url"] = r.FileURL
		if r.Description != "" {
			payload["description"] = r.Description
		}
	default:
		return "", validationError(models.PlatformFacebook, "request of type %T cannot be published to Facebook", req)
	}

	var result transfer.GraphIDResponse
	if err := s.graph.post(ctx, stage, path, payload, &result); err != nil {
		return "", err
	}

	id := result.ID
	if id == "" {
		id = result.PostID
	}
	if id == "" {
		return "", &PublishError{Kind: ErrorKindAPI, Platform: models.PlatformFacebook, Stage: stage, Detail: "no post ID returned from Facebook"}
	}

	slog.Info("published to Facebook", "endpoint", path, "post_id", id)
	return id, nil
}
