package models

import "time"

// WishlistEntry is a per-user denormalized copy of a saved material.
// It intentionally does not reference the Material row, so it survives
// (and can go stale after) edits or removal of the source.
type WishlistEntry struct {
	UserID      string    `db:"user_id" json:"-"`
	MaterialID  string    `db:"material_id" json:"material_id"`
	Title       string    `db:"title" json:"title"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	FileURL     string    `db:"file_url" json:"file_url"`
	AddedAt     time.Time `db:"added_at" json:"added_at"`
}
