package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akshay-km/studyvault-api/internal/models"
)

// WishlistRepository handles per-user denormalized wishlist entries.
type WishlistRepository struct {
	db *sqlx.DB
}

// NewWishlistRepository creates a new repository instance.
func NewWishlistRepository(db *sqlx.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Exists reports whether the user already saved the material.
func (r *WishlistRepository) Exists(ctx context.Context, userID, materialID string) (bool, error) {
	const query = `SELECT 1 FROM wishlist_entries WHERE user_id = $1 AND material_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, materialID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check wishlist entry: %w", err)
	}
	return true, nil
}

// Create stores a denormalized wishlist entry.
func (r *WishlistRepository) Create(ctx context.Context, entry *models.WishlistEntry) error {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}
	const query = `INSERT INTO wishlist_entries (user_id, material_id, title, subject_name, file_url, added_at) VALUES (:user_id, :material_id, :title, :subject_name, :file_url, :added_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create wishlist entry: %w", err)
	}
	return nil
}

// Delete removes the user's entry for a material.
func (r *WishlistRepository) Delete(ctx context.Context, userID, materialID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_entries WHERE user_id = $1 AND material_id = $2`, userID, materialID); err != nil {
		return fmt.Errorf("delete wishlist entry: %w", err)
	}
	return nil
}

// ListByUser returns the user's wishlist, most recently added first.
func (r *WishlistRepository) ListByUser(ctx context.Context, userID string) ([]models.WishlistEntry, error) {
	const query = `SELECT user_id, material_id, title, subject_name, file_url, added_at FROM wishlist_entries WHERE user_id = $1 ORDER BY added_at DESC`
	var entries []models.WishlistEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list wishlist entries: %w", err)
	}
	return entries, nil
}
