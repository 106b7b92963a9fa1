package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	models "github.com/fathima-sithara/video-asset-service/internal/media"
	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
	_ "modernc.org/sqlite"
)

type SQLiteVideoRepo struct {
	db *sql.DB
}

var _ VideoRepo = (*SQLiteVideoRepo)(nil)

func NewSQLiteVideoRepo(ctx context.Context, path string) (*SQLiteVideoRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY between concurrent updates
	db.SetMaxOpenConns(1)
	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			thumbnail_url TEXT,
			video_url TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteVideoRepo{db: db}, nil
}

func (r *SQLiteVideoRepo) Close() error { return r.db.Close() }

func (r *SQLiteVideoRepo) Insert(ctx context.Context, v *models.Video) error {
	if v.ID == "" {
		v.ID = utils.NewID()
	}
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = v.CreatedAt
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO videos (id, user_id, title, description, thumbnail_url, video_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.Title, v.Description, nullString(v.ThumbnailURL), nullString(v.VideoURL), v.CreatedAt, v.UpdatedAt,
	)
	return err
}

func (r *SQLiteVideoRepo) GetByID(ctx context.Context, id string) (*models.Video, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, thumbnail_url, video_url, created_at, updated_at
		 FROM videos WHERE id = ?`, id)

	var v models.Video
	var thumb, video sql.NullString
	if err := row.Scan(&v.ID, &v.UserID, &v.Title, &v.Description, &thumb, &video, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	if thumb.Valid {
		v.ThumbnailURL = &thumb.String
	}
	if video.Valid {
		v.VideoURL = &video.String
	}
	return &v, nil
}

func (r *SQLiteVideoRepo) Update(ctx context.Context, v *models.Video) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE videos SET user_id = ?, title = ?, description = ?, thumbnail_url = ?, video_url = ?, updated_at = ?
		 WHERE id = ?`,
		v.UserID, v.Title, v.Description, nullString(v.ThumbnailURL), nullString(v.VideoURL), v.UpdatedAt, v.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVideoNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
