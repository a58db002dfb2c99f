package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/akshay-km/studyvault-api/internal/models"
)

// MaterialRequestRepository handles persistence for submitted material
// requests and their approval transitions.
type MaterialRequestRepository struct {
	db *sqlx.DB
}

// NewMaterialRequestRepository creates a new repository instance.
func NewMaterialRequestRepository(db *sqlx.DB) *MaterialRequestRepository {
	return &MaterialRequestRepository{db: db}
}

const requestColumns = `id, title, description, type, scheme, semester, subject_id, file_url, uploaded_by, uploader_email, status, decided_by, decided_at, created_at, updated_at`

// Create persists a new pending request.
func (r *MaterialRequestRepository) Create(ctx context.Context, request *models.MaterialRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now

	const query = `INSERT INTO material_requests (id, title, description, type, scheme, semester, subject_id, file_url, uploaded_by, uploader_email, status, created_at, updated_at) VALUES (:id, :title, :description, :type, :scheme, :semester, :subject_id, :file_url, :uploaded_by, :uploader_email, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create material request: %w", err)
	}
	return nil
}

// FindByID returns a request by id.
func (r *MaterialRequestRepository) FindByID(ctx context.Context, id string) (*models.MaterialRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM material_requests WHERE id = $1`, requestColumns)
	var request models.MaterialRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter with pagination metadata.
func (r *MaterialRequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.MaterialRequest, int, error) {
	base := "FROM material_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.UploadedBy != "" {
		conditions = append(conditions, fmt.Sprintf("uploaded_by = $%d", len(args)+1))
		args = append(args, filter.UploadedBy)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at ASC LIMIT %d OFFSET %d", requestColumns, base, size, offset)
	var requests []models.MaterialRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list material requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count material requests: %w", err)
	}

	return requests, total, nil
}

// Approve publishes the material and flips the request to approved in a
// single transaction. The status update is conditioned on the request
// still being pending; sql.ErrNoRows is returned when another decision
// won, so a request can never yield more than one material.
func (r *MaterialRequestRepository) Approve(ctx context.Context, requestID string, material *models.Material, decidedBy string) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	material.CreatedAt = now
	material.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE material_requests SET status = $2, decided_by = $3, decided_at = $4, updated_at = $4 WHERE id = $1 AND status = $5`,
		requestID, models.RequestStatusApproved, decidedBy, now, models.RequestStatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark request approved: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("approve rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	const insertQuery = `INSERT INTO materials (id, request_id, title, description, type, scheme, semester, subject_id, file_url, uploaded_by, approved_by, status, created_at, updated_at) VALUES (:id, :request_id, :title, :description, :type, :scheme, :semester, :subject_id, :file_url, :uploaded_by, :approved_by, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approve tx: %w", err)
	}
	return nil
}

// Reject flips a pending request to rejected. No other side effects.
// sql.ErrNoRows is returned when the request was already decided.
func (r *MaterialRequestRepository) Reject(ctx context.Context, requestID, decidedBy string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE material_requests SET status = $2, decided_by = $3, decided_at = $4, updated_at = $4 WHERE id = $1 AND status = $5`,
		requestID, models.RequestStatusRejected, decidedBy, now, models.RequestStatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark request rejected: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reject rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
