package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postflow/internal/models"
)

type MediaAssetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) error
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

func (r *mediaAssetRepository) Create(ctx context.Context, tx *sql.Tx, ma *models.MediaAsset) error {
	var err error

	query := `
		INSERT INTO media_assets (id, file_name, file_type, file_size, file_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, ma.ID, ma.FileName, ma.FileType, ma.FileSize, ma.FileURL).Scan(&ma.CreatedAt)
	} else {
		err = r.db.QueryRowContext(ctx, query, ma.ID, ma.FileName, ma.FileType, ma.FileSize, ma.FileURL).Scan(&ma.CreatedAt)
	}

	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
