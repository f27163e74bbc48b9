package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/explainui/internal/domain"
)

// ImageStore records uploaded images: where the bytes live, their MIME type
// and natural size.
type ImageStore struct {
	db *sql.DB
}

func NewImageStore(db *sql.DB) *ImageStore {
	return &ImageStore{db: db}
}

func (s *ImageStore) Create(ctx context.Context, storageKey, mimeType string, width, height int) (*domain.Image, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO images (storage_key, mime_type, width, height) VALUES (?, ?, ?, ?)
	`, storageKey, mimeType, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ImageStore) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, storage_key, mime_type, width, height, uploaded_at FROM images WHERE id = ?
	`, id))
}

func (s *ImageStore) GetByKey(ctx context.Context, storageKey string) (*domain.Image, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, storage_key, mime_type, width, height, uploaded_at FROM images WHERE storage_key = ?
	`, storageKey))
}

func (s *ImageStore) scanOne(row *sql.Row) (*domain.Image, error) {
	img := &domain.Image{}
	err := row.Scan(&img.ID, &img.StorageKey, &img.MimeType, &img.Width, &img.Height, &img.UploadedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return img, nil
}

// DeleteByKey removes the record for storageKey. A missing record is not an
// error: releasing an image twice must be harmless.
func (s *ImageStore) DeleteByKey(ctx context.Context, storageKey string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM images WHERE storage_key = ?
	`, storageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
