package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type postFixture struct {
	sql     sqlmock.Sqlmock
	pr      *MockPostRepository
	ph      *MockPostingHistoryRepository
	ma      *MockMediaAssetRepository
	storage *MockMediaStorage
	svc     *postService
}

func newPostFixture(t *testing.T, withStorage bool) *postFixture {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &postFixture{
		sql: sqlMock,
		pr:  new(MockPostRepository),
		ph:  new(MockPostingHistoryRepository),
		ma:  new(MockMediaAssetRepository),
	}
	var storage MediaStorage
	if withStorage {
		f.storage = new(MockMediaStorage)
		storage = f.storage
	}
	f.svc = NewPostService(db, f.pr, f.ph, f.ma, storage).(*postService)
	f.svc.now = func() time.Time { return sweepNow }
	return f
}

func multipartFiles(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := w.CreateFormFile("media", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["media"]
}

func TestCreatePostFansOut(t *testing.T) {
	f := newPostFixture(t, false)
	f.sql.ExpectBegin()
	f.sql.ExpectCommit()

	var stored []*models.ScheduledPost
	f.pr.On("CreateMany", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(2).([]*models.ScheduledPost)
	}).Return(nil)

	posts, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Caption:       "launch day",
		Platforms:     []string{"instagram", "Facebook", "instagram"},
		PostTypes:     []string{"post", "reel"},
		MediaURLs:     []string{"https://cdn.example.com/a.jpg", " ", "https://cdn.example.com/b.mp4"},
		ScheduledTime: "2026-03-02T09:30:00+01:00",
	}, nil)
	require.NoError(t, err)
	require.Len(t, posts, 4)
	assert.Equal(t, posts, stored)

	wantTime := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	for _, p := range posts {
		assert.Equal(t, posts[0].SubmissionID, p.SubmissionID)
		assert.Equal(t, models.PostStatusScheduled, p.Status)
		assert.Equal(t, wantTime, p.ScheduledAt)
		assert.Equal(t, []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.mp4"}, p.MediaURLs)
		assert.Equal(t, "https://cdn.example.com/a.jpg", p.MediaURL)
	}
	assert.Equal(t, models.PlatformInstagram, posts[0].Platform)
	assert.Equal(t, models.PostTypeCarousel, posts[0].PostType)
	assert.Equal(t, models.PostTypeReel, posts[1].PostType)
	assert.Equal(t, models.PlatformFacebook, posts[2].Platform)
	assert.NotEqual(t, posts[0].ID, posts[1].ID)

	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestCreatePostDefaultsToFeedPost(t *testing.T) {
	f := newPostFixture(t, false)
	f.sql.ExpectBegin()
	f.sql.ExpectCommit()
	f.pr.On("CreateMany", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	posts, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Caption:       "hello",
		Platforms:     []string{"facebook"},
		ScheduledTime: "2026-03-02T09:30",
	}, nil)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, models.PostTypePost, posts[0].PostType)
	assert.Empty(t, posts[0].MediaURLs)
}

func TestCreatePostPublishNowUsesCurrentTime(t *testing.T) {
	f := newPostFixture(t, false)
	f.sql.ExpectBegin()
	f.sql.ExpectCommit()
	f.pr.On("CreateMany", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	posts, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Platforms:  []string{"instagram"},
		MediaURLs:  []string{"https://cdn.example.com/a.jpg"},
		PublishNow: true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, sweepNow, posts[0].ScheduledAt)
}

func TestCreatePostValidation(t *testing.T) {
	tooMany := make([]string, models.MaxMediaItems+1)
	for i := range tooMany {
		tooMany[i] = "https://cdn.example.com/a.jpg"
	}

	tests := []struct {
		name string
		pc   *transfer.PostCreation
	}{
		{"nil submission", nil},
		{"caption too long", &transfer.PostCreation{Caption: strings.Repeat("é", models.MaxCaptionLength+1), Platforms: []string{"instagram"}, PublishNow: true}},
		{"no platforms", &transfer.PostCreation{Caption: "x", PublishNow: true}},
		{"unknown platform", &transfer.PostCreation{Platforms: []string{"myspace"}, PublishNow: true}},
		{"carousel is not selectable", &transfer.PostCreation{Platforms: []string{"instagram"}, PostTypes: []string{"carousel"}, PublishNow: true}},
		{"too many media", &transfer.PostCreation{Platforms: []string{"instagram"}, MediaURLs: tooMany, PublishNow: true}},
		{"missing time", &transfer.PostCreation{Platforms: []string{"instagram"}}},
		{"bad time", &transfer.PostCreation{Platforms: []string{"instagram"}, ScheduledTime: "tomorrow"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPostFixture(t, false)

			_, err := f.svc.CreatePost(context.Background(), tt.pc, nil)
			assert.ErrorIs(t, err, ErrInvalidPost)
			f.pr.AssertNotCalled(t, "CreateMany", mock.Anything, mock.Anything, mock.Anything)
			require.NoError(t, f.sql.ExpectationsWereMet())
		})
	}
}

func TestCreatePostCaptionLimitCountsCharacters(t *testing.T) {
	f := newPostFixture(t, false)
	f.sql.ExpectBegin()
	f.sql.ExpectCommit()
	f.pr.On("CreateMany", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Caption:    strings.Repeat("é", models.MaxCaptionLength),
		Platforms:  []string{"facebook"},
		PublishNow: true,
	}, nil)
	require.NoError(t, err)
}

func TestCreatePostUploadsFilesFirst(t *testing.T) {
	f := newPostFixture(t, true)
	files := multipartFiles(t, map[string][]byte{"photo.png": pngHeader})

	f.sql.ExpectBegin()
	f.sql.ExpectCommit()
	f.storage.On("UploadMedia", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasSuffix(key, ".png")
	}), pngHeader, "image/png").Return("https://media.example.com/abc.png", nil)
	f.ma.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(a *models.MediaAsset) bool {
		return a.FileURL == "https://media.example.com/abc.png" && a.FileSize == int64(len(pngHeader))
	})).Return(nil)
	f.pr.On("CreateMany", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	posts, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Platforms:  []string{"instagram"},
		MediaURLs:  []string{"https://cdn.example.com/b.jpg"},
		PublishNow: true,
	}, files)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"https://media.example.com/abc.png", "https://cdn.example.com/b.jpg"}, posts[0].MediaURLs)
	assert.Equal(t, models.PostTypeCarousel, posts[0].PostType)

	f.storage.AssertExpectations(t)
	f.ma.AssertExpectations(t)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestCreatePostRejectsUnknownFileType(t *testing.T) {
	f := newPostFixture(t, true)
	files := multipartFiles(t, map[string][]byte{"notes.txt": []byte("just some text")})

	_, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Platforms:  []string{"instagram"},
		PublishNow: true,
	}, files)
	assert.ErrorIs(t, err, ErrInvalidPost)
	f.storage.AssertNotCalled(t, "UploadMedia", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePostUploadsWithoutStorage(t *testing.T) {
	f := newPostFixture(t, false)
	files := multipartFiles(t, map[string][]byte{"photo.png": pngHeader})

	_, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Platforms:  []string{"instagram"},
		PublishNow: true,
	}, files)
	assert.ErrorIs(t, err, ErrInvalidPost)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestCreatePostRollsBackOnInsertFailure(t *testing.T) {
	f := newPostFixture(t, false)
	f.sql.ExpectBegin()
	f.sql.ExpectRollback()
	f.pr.On("CreateMany", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("duplicate key"))

	_, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Platforms:  []string{"facebook"},
		Caption:    "hi",
		PublishNow: true,
	}, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPost)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestPostInfo(t *testing.T) {
	f := newPostFixture(t, false)
	id := "4b0c8f8e-1b7a-4d3e-9a55-0d3f2b1c6e70"
	f.pr.On("GetByID", mock.Anything, id).Return(&models.ScheduledPost{ID: id}, nil)

	post, err := f.svc.PostInfo(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, post.ID)

	_, err = f.svc.PostInfo(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidPost)
}

func TestHistory(t *testing.T) {
	f := newPostFixture(t, false)
	id := "4b0c8f8e-1b7a-4d3e-9a55-0d3f2b1c6e70"
	f.ph.On("ListByPostID", mock.Anything, id).Return(nil, nil)

	history, err := f.svc.History(context.Background(), id)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)

	_, err = f.svc.History(context.Background(), "42")
	assert.ErrorIs(t, err, ErrInvalidPost)
}

func TestListClampsLimit(t *testing.T) {
	f := newPostFixture(t, false)
	f.pr.On("List", mock.Anything, 50).Return([]*models.ScheduledPost{}, nil).Twice()
	f.pr.On("List", mock.Anything, 10).Return([]*models.ScheduledPost{}, nil).Once()

	for _, limit := range []int{0, 10, 1000} {
		_, err := f.svc.List(context.Background(), limit)
		require.NoError(t, err)
	}
	f.pr.AssertExpectations(t)
}
