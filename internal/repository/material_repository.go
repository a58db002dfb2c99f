package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akshay-km/studyvault-api/internal/models"
)

// MaterialRepository handles persistence for published materials and
// their ratings.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository creates a new repository instance.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

const materialColumns = `m.id, m.request_id, m.title, m.description, m.type, m.scheme, m.semester, m.subject_id, m.file_url, m.uploaded_by, m.approved_by, m.status, m.created_at, m.updated_at`

// List returns active materials matching every provided equality filter,
// with rating aggregates and pagination metadata.
func (r *MaterialRepository) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	where := "WHERE m.status = $1"
	args := []interface{}{models.MaterialStatusActive}
	var conditions []string

	if filter.Scheme != "" {
		conditions = append(conditions, fmt.Sprintf("m.scheme = $%d", len(args)+1))
		args = append(args, filter.Scheme)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("m.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("m.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("m.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(m.title) LIKE $%d OR LOWER(m.description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s,
        COUNT(r.id) AS rating_count, AVG(r.rating)::float AS average_rating
        FROM materials m LEFT JOIN material_ratings r ON r.material_id = m.id %s GROUP BY m.id ORDER BY m.created_at DESC LIMIT %d OFFSET %d`,
		materialColumns, where, size, offset)

	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list materials: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM materials m %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count materials: %w", err)
	}

	return materials, total, nil
}

// FindByID returns a material with its rating aggregates.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	query := fmt.Sprintf(`SELECT %s,
        COUNT(r.id) AS rating_count, AVG(r.rating)::float AS average_rating
        FROM materials m LEFT JOIN material_ratings r ON r.material_id = m.id WHERE m.id = $1 GROUP BY m.id`, materialColumns)
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// CountByType returns per-type counts of active materials for a subject,
// backing the pre-navigation availability probe.
func (r *MaterialRepository) CountByType(ctx context.Context, scheme string, semester int, subjectID string) (map[models.MaterialType]int, error) {
	const query = `SELECT type, COUNT(*) AS total FROM materials WHERE status = $1 AND scheme = $2 AND semester = $3 AND subject_id = $4 GROUP BY type`
	rows, err := r.db.QueryxContext(ctx, query, models.MaterialStatusActive, scheme, semester, subjectID)
	if err != nil {
		return nil, fmt.Errorf("count materials by type: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[models.MaterialType]int)
	for rows.Next() {
		var materialType models.MaterialType
		var total int
		if err := rows.Scan(&materialType, &total); err != nil {
			return nil, fmt.Errorf("scan material type count: %w", err)
		}
		counts[materialType] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate material type counts: %w", err)
	}
	return counts, nil
}

// AddRating appends a rating row for the material.
func (r *MaterialRepository) AddRating(ctx context.Context, rating *models.Rating) error {
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO material_ratings (id, material_id, rated_by, rating, created_at) VALUES (:id, :material_id, :rated_by, :rating, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rating); err != nil {
		return fmt.Errorf("add rating: %w", err)
	}
	return nil
}

// RatingSummary returns the count and mean of ratings for a material.
// The average is zero when no ratings exist.
func (r *MaterialRepository) RatingSummary(ctx context.Context, materialID string) (int, float64, error) {
	const query = `SELECT COUNT(*), COALESCE(AVG(rating), 0)::float FROM material_ratings WHERE material_id = $1`
	var count int
	var average float64
	if err := r.db.QueryRowxContext(ctx, query, materialID).Scan(&count, &average); err != nil {
		return 0, 0, fmt.Errorf("rating summary: %w", err)
	}
	return count, average, nil
}

// Update modifies the editable fields of a material.
func (r *MaterialRepository) Update(ctx context.Context, material *models.Material) error {
	material.UpdatedAt = time.Now().UTC()
	const query = `UPDATE materials SET title = :title, description = :description, file_url = :file_url, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return nil
}

// Delete removes a material and its ratings.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM material_ratings WHERE material_id = $1`, id); err != nil {
		return fmt.Errorf("delete material ratings: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM materials WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}

// ListActiveForExport returns the full approved catalog for export jobs,
// optionally narrowed by scheme and semester.
func (r *MaterialRepository) ListActiveForExport(ctx context.Context, scheme string, semester int) ([]models.Material, error) {
	where := "WHERE m.status = $1"
	args := []interface{}{models.MaterialStatusActive}
	if scheme != "" {
		where += fmt.Sprintf(" AND m.scheme = $%d", len(args)+1)
		args = append(args, scheme)
	}
	if semester > 0 {
		where += fmt.Sprintf(" AND m.semester = $%d", len(args)+1)
		args = append(args, semester)
	}

	query := fmt.Sprintf(`SELECT %s,
        COUNT(r.id) AS rating_count, AVG(r.rating)::float AS average_rating
        FROM materials m LEFT JOIN material_ratings r ON r.material_id = m.id %s GROUP BY m.id ORDER BY m.scheme, m.semester, m.subject_id, m.type`, materialColumns, where)

	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, fmt.Errorf("list materials for export: %w", err)
	}
	return materials, nil
}
