package service

import (
	"context"

	"github.com/maheshrc27/postflow/internal/models"
)

// Publisher drives one platform's publish protocol. Prepare is pure and
// turns a stored post into a typed request; Publish performs the network
// calls and returns the identifier the platform assigned.
type Publisher interface {
	Platform() models.Platform
	Prepare(post *models.ScheduledPost) (PublishRequest, error)
	Publish(ctx context.Context, req PublishRequest) (string, error)
}

// PublishRequest is one of the request types below. The set is closed.
type PublishRequest interface {
	platform() models.Platform
}

type InstagramMediaKind string

const (
	InstagramFeedImage  InstagramMediaKind = "feed_image"
	InstagramFeedVideo  InstagramMediaKind = "feed_video"
	InstagramReel       InstagramMediaKind = "reel"
	InstagramStoryImage InstagramMediaKind = "story_image"
	InstagramStoryVideo InstagramMediaKind = "story_video"
)

type InstagramSingleRequest struct {
	Kind    InstagramMediaKind
	URL     string
	Caption string
}

type CarouselItem struct {
	URL     string
	IsVideo bool
}

// InstagramCarouselRequest items keep the order of the post's media.
type InstagramCarouselRequest struct {
	Items   []CarouselItem
	Caption string
}

type FacebookTextRequest struct {
	Message string
}

type FacebookPhotoRequest struct {
	URL     string
	Caption string
}

type FacebookVideoRequest struct {
	FileURL     string
	Description string
}

func (InstagramSingleRequest) platform() models.Platform   { return models.PlatformInstagram }
func (InstagramCarouselRequest) platform() models.Platform { return models.PlatformInstagram }
func (FacebookTextRequest) platform() models.Platform      { return models.PlatformFacebook }
func (FacebookPhotoRequest) platform() models.Platform     { return models.PlatformFacebook }
func (FacebookVideoRequest) platform() models.Platform     { return models.PlatformFacebook }
