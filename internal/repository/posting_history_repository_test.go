package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostingHistoryRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostingHistoryRepository(db)

	mock.ExpectQuery(`INSERT INTO posting_history`).
		WithArgs("p1", "instagram", "published", "M123", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	id, err := repo.Create(context.Background(), &models.PostingHistory{
		PostID:     "p1",
		Platform:   models.PlatformInstagram,
		Status:     models.PostStatusPublished,
		PlatformID: "M123",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostingHistoryRepository_ListByPostID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostingHistoryRepository(db)
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "post_id", "platform", "status", "platform_id", "error_message", "created_at"}).
		AddRow(int64(1), "p1", "facebook", "failed", "", "facebook api error during publish_photo", now).
		AddRow(int64(2), "p1", "facebook", "published", "FB1", "", now.Add(time.Minute))

	mock.ExpectQuery(`FROM posting_history\s+WHERE post_id = \$1`).
		WithArgs("p1").
		WillReturnRows(rows)

	history, err := repo.ListByPostID(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.PostStatusFailed, history[0].Status)
	assert.Equal(t, "facebook api error during publish_photo", history[0].ErrorMessage)
	assert.Equal(t, "FB1", history[1].PlatformID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
