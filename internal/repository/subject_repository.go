package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akshay-km/studyvault-api/internal/models"
)

// SubjectRepository handles persistence for the curriculum catalog.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListBySemester returns the catalog for one scheme and semester in
// declared order.
func (r *SubjectRepository) ListBySemester(ctx context.Context, scheme string, semester int) ([]models.Subject, error) {
	const query = `SELECT id, scheme, semester, code, name, sort_order, created_at, updated_at FROM subjects WHERE scheme = $1 AND semester = $2 ORDER BY sort_order ASC, code ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, scheme, semester); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByCode resolves a subject within its scheme and semester.
func (r *SubjectRepository) FindByCode(ctx context.Context, scheme string, semester int, code string) (*models.Subject, error) {
	const query = `SELECT id, scheme, semester, code, name, sort_order, created_at, updated_at FROM subjects WHERE scheme = $1 AND semester = $2 AND code = $3 LIMIT 1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, scheme, semester, code); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ExistsByCode checks catalog code uniqueness within a scheme and semester.
func (r *SubjectRepository) ExistsByCode(ctx context.Context, scheme string, semester int, code string) (bool, error) {
	const query = `SELECT 1 FROM subjects WHERE scheme = $1 AND semester = $2 AND code = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, scheme, semester, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check subject code: %w", err)
	}
	return true, nil
}

// Create persists a new catalog entry.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now

	const query = `INSERT INTO subjects (id, scheme, semester, code, name, sort_order, created_at, updated_at) VALUES (:id, :scheme, :semester, :code, :name, :sort_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a catalog entry.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET name = :name, sort_order = :sort_order, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a catalog entry.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}
