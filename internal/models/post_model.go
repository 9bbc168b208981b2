package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	MaxCaptionLength = 2200
	MaxMediaItems    = 10
)

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
	PlatformTiktok    Platform = "tiktok"
)

func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PlatformInstagram, PlatformFacebook, PlatformLinkedIn, PlatformTwitter, PlatformTiktok:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Publishable reports whether a publisher exists for the platform. The
// others are accepted at creation and left alone by the sweep.
func (p Platform) Publishable() bool {
	return p == PlatformInstagram || p == PlatformFacebook
}

type PostType string

const (
	PostTypePost     PostType = "POST"
	PostTypeReel     PostType = "REEL"
	PostTypeStory    PostType = "STORY"
	PostTypeCarousel PostType = "CAROUSEL"
)

// ParsePostType accepts the types a user may choose. CAROUSEL is derived
// from the media count and is rejected here.
func ParsePostType(s string) (PostType, error) {
	t := PostType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case PostTypePost, PostTypeReel, PostTypeStory:
		return t, nil
	}
	return "", fmt.Errorf("unknown post type %q", s)
}

// ResolvePostType upgrades a feed post with more than one media item to a
// carousel. Other types are returned unchanged.
func ResolvePostType(requested PostType, mediaCount int) PostType {
	if (requested == PostTypePost || requested == "") && mediaCount > 1 {
		return PostTypeCarousel
	}
	if requested == "" {
		return PostTypePost
	}
	return requested
}

type PostStatus string

const (
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

func (s PostStatus) Terminal() bool {
	return s == PostStatusPublished || s == PostStatusFailed
}

type ScheduledPost struct {
	ID                   string     `db:"id" json:"id"`
	SubmissionID         string     `db:"submission_id" json:"submission_id"`
	Platform             Platform   `db:"platform" json:"platform"`
	PostType             PostType   `db:"post_type" json:"post_type"`
	MediaURL             string     `db:"media_url" json:"media_url,omitempty"`
	MediaURLs            []string   `db:"media_urls" json:"media_urls"`
	Caption              string     `db:"caption" json:"caption"`
	ScheduledAt          time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Status               PostStatus `db:"status" json:"status"`
	ErrorMessage         string     `db:"error_message" json:"error_message,omitempty"`
	InstagramContainerID string     `db:"instagram_container_id" json:"instagram_container_id,omitempty"`
	FbPostID             string     `db:"fb_post_id" json:"fb_post_id,omitempty"`
	ClaimedAt            *time.Time `db:"claimed_at" json:"-"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// Media returns the ordered media list, falling back to the single
// representative URL when the list is empty.
func (p *ScheduledPost) Media() []string {
	if len(p.MediaURLs) > 0 {
		return p.MediaURLs
	}
	if p.MediaURL != "" {
		return []string{p.MediaURL}
	}
	return nil
}

// PlatformID is the identifier the platform assigned on publish.
func (p *ScheduledPost) PlatformID() string {
	switch p.Platform {
	case PlatformInstagram:
		return p.InstagramContainerID
	case PlatformFacebook:
		return p.FbPostID
	}
	return ""
}

// StatusUpdate is the only mutation applied to a post after creation.
type StatusUpdate struct {
	Status       PostStatus
	ErrorMessage string
	PlatformID   string
}

// Apply copies u onto the in-memory post the way UpdatePostStatus writes it.
func (p *ScheduledPost) Apply(u StatusUpdate) {
	p.Status = u.Status
	p.ErrorMessage = u.ErrorMessage
	if u.PlatformID == "" {
		return
	}
	switch p.Platform {
	case PlatformInstagram:
		p.InstagramContainerID = u.PlatformID
	case PlatformFacebook:
		p.FbPostID = u.PlatformID
	}
}

type MediaAsset struct {
	ID        string    `db:"id" json:"id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileURL   string    `db:"file_url" json:"file_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
