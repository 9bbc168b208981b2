package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) CreateMany(ctx context.Context, tx *sql.Tx, posts []*models.ScheduledPost) error {
	args := m.Called(ctx, tx, posts)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledPost), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, limit int) ([]*models.ScheduledPost, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduledPost), args.Error(1)
}

func (m *MockPostRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduledPost), args.Error(1)
}

func (m *MockPostRepository) Claim(ctx context.Context, id string, now time.Time, lease time.Duration) (bool, error) {
	args := m.Called(ctx, id, now, lease)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) UpdatePostStatus(ctx context.Context, id string, update models.StatusUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

type MockPostingHistoryRepository struct {
	mock.Mock
}

func (m *MockPostingHistoryRepository) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	args := m.Called(ctx, ph)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostingHistoryRepository) ListByPostID(ctx context.Context, postID string) ([]*models.PostingHistory, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PostingHistory), args.Error(1)
}

type MockMediaStorage struct {
	mock.Mock
}

func (m *MockMediaStorage) UploadMedia(ctx context.Context, key string, file []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, file, contentType)
	return args.String(0), args.Error(1)
}

// stubPublisher records what it was asked to publish and answers from
// its fields.
type stubPublisher struct {
	platform   models.Platform
	prepareErr error
	publishID  string
	publishErr error
	prepared   []*models.ScheduledPost
	published  []PublishRequest
	ctxErrs    []error
}

func (p *stubPublisher) Platform() models.Platform {
	return p.platform
}

func (p *stubPublisher) Prepare(post *models.ScheduledPost) (PublishRequest, error) {
	p.prepared = append(p.prepared, post)
	if p.prepareErr != nil {
		return nil, p.prepareErr
	}
	return FacebookTextRequest{Message: post.Caption}, nil
}

func (p *stubPublisher) Publish(ctx context.Context, req PublishRequest) (string, error) {
	p.published = append(p.published, req)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	if p.publishErr != nil {
		return "", p.publishErr
	}
	return p.publishID, nil
}

type MockMediaAssetRepository struct {
	mock.Mock
}

func (m *MockMediaAssetRepository) Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) error {
	args := m.Called(ctx, tx, ma)
	return args.Error(0)
}
