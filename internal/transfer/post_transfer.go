package transfer

import "github.com/maheshrc27/postflow/internal/models"

// PostCreation is one user submission. Every (platform, post type) pair
// becomes its own scheduled post.
type PostCreation struct {
	Caption       string   `json:"caption" form:"caption"`
	Platforms     []string `json:"platforms" form:"platforms"`
	PostTypes     []string `json:"post_types" form:"post_types"`
	MediaURLs     []string `json:"media_urls" form:"media_urls"`
	ScheduledTime string   `json:"scheduled_at" form:"scheduled_at"`
	PublishNow    bool     `json:"publish_now" form:"publish_now"`
}

type PostResultStatus string

const (
	ResultPublished PostResultStatus = "published"
	ResultFailed    PostResultStatus = "failed"
	ResultSkipped   PostResultStatus = "skipped"
)

type PostResult struct {
	ID         string           `json:"id"`
	Platform   models.Platform  `json:"platform"`
	Status     PostResultStatus `json:"status"`
	PlatformID string           `json:"platform_id,omitempty"`
	Error      string           `json:"error,omitempty"`
}

type SweepResult struct {
	Results []PostResult `json:"results"`
	Logs    []string     `json:"logs"`
}

type CreatePostResponse struct {
	Posts   []*models.ScheduledPost `json:"posts"`
	Results []PostResult            `json:"results,omitempty"`
	Logs    []string                `json:"logs,omitempty"`
}
