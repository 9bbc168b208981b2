package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const scheduledTimeLayout = "2006-01-02T15:04"

var allowedFileTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
}

type PostService interface {
	CreatePost(ctx context.Context, pc *transfer.PostCreation, files []*multipart.FileHeader) ([]*models.ScheduledPost, error)
	List(ctx context.Context, limit int) ([]*models.ScheduledPost, error)
	PostInfo(ctx context.Context, id string) (*models.ScheduledPost, error)
	History(ctx context.Context, id string) ([]*models.PostingHistory, error)
}

type postService struct {
	db      *sql.DB
	pr      repository.PostRepository
	ph      repository.PostingHistoryRepository
	ma      repository.MediaAssetRepository
	storage MediaStorage
	now     func() time.Time
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	ph repository.PostingHistoryRepository,
	ma repository.MediaAssetRepository,
	storage MediaStorage) PostService {
	return &postService{
		db:      db,
		pr:      pr,
		ph:      ph,
		ma:      ma,
		storage: storage,
		now:     time.Now,
	}
}

type uploadedFile struct {
	mime string
	ext  string
	data []byte
}

// CreatePost stores one scheduled post per selected (platform, post type)
// pair. Uploaded files come first in the media order, followed by the
// submitted URLs.
func (s *postService) CreatePost(ctx context.Context, pc *transfer.PostCreation, files []*multipart.FileHeader) ([]*models.ScheduledPost, error) {
	if pc == nil {
		return nil, fmt.Errorf("%w: post creation data is nil", ErrInvalidPost)
	}

	if n := utf8.RuneCountInString(pc.Caption); n > models.MaxCaptionLength {
		return nil, fmt.Errorf("%w: caption has %d characters, the limit is %d", ErrInvalidPost, n, models.MaxCaptionLength)
	}

	platforms, err := parsePlatforms(pc.Platforms)
	if err != nil {
		return nil, err
	}

	for _, p := range platforms {
		if !p.Publishable() {
			slog.Info("platform has no publisher yet, its posts stay scheduled", "platform", p)
		}
	}

	postTypes, err := parsePostTypes(pc.PostTypes)
	if err != nil {
		return nil, err
	}

	mediaURLs := make([]string, 0, len(pc.MediaURLs))
	for _, u := range pc.MediaURLs {
		if u = strings.TrimSpace(u); u != "" {
			mediaURLs = append(mediaURLs, u)
		}
	}
	if total := len(files) + len(mediaURLs); total > models.MaxMediaItems {
		return nil, fmt.Errorf("%w: %d media items attached, the limit is %d", ErrInvalidPost, total, models.MaxMediaItems)
	}

	scheduledAt, err := s.scheduledTime(pc)
	if err != nil {
		return nil, err
	}

	uploads, err := readFiles(files)
	if err != nil {
		return nil, err
	}
	if len(uploads) > 0 && s.storage == nil {
		return nil, fmt.Errorf("%w: file uploads are not configured, send media_urls instead", ErrInvalidPost)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	uploadedURLs, err := s.saveFiles(ctx, tx, uploads)
	if err != nil {
		return nil, fmt.Errorf("error processing files: %w", err)
	}
	media := append(uploadedURLs, mediaURLs...)

	posts := buildPosts(uuid.NewString(), platforms, postTypes, media, pc.Caption, scheduledAt)
	if err := s.pr.CreateMany(ctx, tx, posts); err != nil {
		return nil, fmt.Errorf("error creating posts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("posts created", "submission_id", posts[0].SubmissionID, "count", len(posts), "scheduled_at", scheduledAt)
	return posts, nil
}

// buildPosts fans one submission out into a row per platform and type.
func buildPosts(submissionID string, platforms []models.Platform, postTypes []models.PostType, media []string, caption string, scheduledAt time.Time) []*models.ScheduledPost {
	var mediaURL string
	if len(media) > 0 {
		mediaURL = media[0]
	}

	posts := make([]*models.ScheduledPost, 0, len(platforms)*len(postTypes))
	for _, platform := range platforms {
		for _, postType := range postTypes {
			posts = append(posts, &models.ScheduledPost{
				ID:           uuid.NewString(),
				SubmissionID: submissionID,
				Platform:     platform,
				PostType:     models.ResolvePostType(postType, len(media)),
				MediaURL:     mediaURL,
				MediaURLs:    append([]string{}, media...),
				Caption:      caption,
				ScheduledAt:  scheduledAt,
				Status:       models.PostStatusScheduled,
			})
		}
	}
	return posts
}

func parsePlatforms(values []string) ([]models.Platform, error) {
	var platforms []models.Platform
	seen := map[models.Platform]bool{}
	for _, v := range values {
		p, err := models.ParsePlatform(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPost, err)
		}
		if !seen[p] {
			seen[p] = true
			platforms = append(platforms, p)
		}
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: no platforms selected", ErrInvalidPost)
	}
	return platforms, nil
}

func parsePostTypes(values []string) ([]models.PostType, error) {
	if len(values) == 0 {
		return []models.PostType{models.PostTypePost}, nil
	}

	var postTypes []models.PostType
	seen := map[models.PostType]bool{}
	for _, v := range values {
		t, err := models.ParsePostType(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPost, err)
		}
		if !seen[t] {
			seen[t] = true
			postTypes = append(postTypes, t)
		}
	}
	return postTypes, nil
}

func (s *postService) scheduledTime(pc *transfer.PostCreation) (time.Time, error) {
	if pc.PublishNow {
		return s.now().UTC(), nil
	}

	value := strings.TrimSpace(pc.ScheduledTime)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: scheduled time is required unless publishing now", ErrInvalidPost)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(scheduledTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid scheduled time format: %v", ErrInvalidPost, err)
	}
	return t.UTC(), nil
}

func readFiles(files []*multipart.FileHeader) ([]uploadedFile, error) {
	uploads := make([]uploadedFile, 0, len(files))
	for _, file := range files {
		data, err := readFile(file)
		if err != nil {
			return nil, err
		}

		kind, err := filetype.Match(data)
		if err != nil || kind == types.Unknown {
			return nil, fmt.Errorf("%w: unsupported file type for %s", ErrInvalidPost, file.Filename)
		}
		if _, ok := allowedFileTypes[kind.Extension]; !ok {
			return nil, fmt.Errorf("%w: file type %s is not allowed", ErrInvalidPost, kind.Extension)
		}

		uploads = append(uploads, uploadedFile{mime: kind.MIME.Value, ext: kind.Extension, data: data})
	}
	return uploads, nil
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}
	return data, nil
}

func (s *postService) saveFiles(ctx context.Context, tx *sql.Tx, uploads []uploadedFile) ([]string, error) {
	urls := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		// the extension lets the publishers tell videos from images
		key := id + "." + upload.ext

		fileURL, err := s.storage.UploadMedia(ctx, key, upload.data, upload.mime)
		if err != nil {
			return nil, fmt.Errorf("error uploading file: %w", err)
		}

		asset := models.MediaAsset{
			ID:       id,
			FileName: key,
			FileType: upload.mime,
			FileSize: int64(len(upload.data)),
			FileURL:  fileURL,
		}
		if err := s.ma.Create(ctx, tx, &asset); err != nil {
			return nil, fmt.Errorf("error saving media asset: %w", err)
		}

		urls = append(urls, fileURL)
	}
	return urls, nil
}

func (s *postService) PostInfo(ctx context.Context, id string) (*models.ScheduledPost, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: post id is not valid", ErrInvalidPost)
	}

	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	return post, nil
}

// History lists the publish attempts of a post, oldest first.
func (s *postService) History(ctx context.Context, id string) ([]*models.PostingHistory, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: post id is not valid", ErrInvalidPost)
	}

	history, err := s.ph.ListByPostID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting posting history: %w", err)
	}
	if history == nil {
		history = []*models.PostingHistory{}
	}
	return history, nil
}

func (s *postService) List(ctx context.Context, limit int) ([]*models.ScheduledPost, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	posts, err := s.pr.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}
