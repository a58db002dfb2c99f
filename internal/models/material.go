package models

import "time"

// MaterialType enumerates the kinds of study materials users can share.
type MaterialType string

const (
	MaterialTypeNotes       MaterialType = "notes"
	MaterialTypePYQ         MaterialType = "pyq"
	MaterialTypeSyllabus    MaterialType = "syllabus"
	MaterialTypeAssignments MaterialType = "assignments"
	MaterialTypePracticals  MaterialType = "practicals"
)

// ValidMaterialType reports whether t is a known material type.
func ValidMaterialType(t MaterialType) bool {
	switch t {
	case MaterialTypeNotes, MaterialTypePYQ, MaterialTypeSyllabus, MaterialTypeAssignments, MaterialTypePracticals:
		return true
	}
	return false
}

// RequestStatus tracks the review lifecycle of a submitted material.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// MaterialStatus marks the publication state of an approved material.
type MaterialStatus string

const (
	MaterialStatusActive MaterialStatus = "active"
)

// MaterialRequest is a user-submitted candidate material awaiting review.
// A pending request has no corresponding Material; approval creates
// exactly one and the request becomes immutable.
type MaterialRequest struct {
	ID            string        `db:"id" json:"id"`
	Title         string        `db:"title" json:"title"`
	Description   string        `db:"description" json:"description"`
	Type          MaterialType  `db:"type" json:"type"`
	Scheme        string        `db:"scheme" json:"scheme"`
	Semester      int           `db:"semester" json:"semester"`
	SubjectID     string        `db:"subject_id" json:"subject_id"`
	FileURL       string        `db:"file_url" json:"file_url"`
	UploadedBy    string        `db:"uploaded_by" json:"uploaded_by"`
	UploaderEmail string        `db:"uploader_email" json:"uploader_email"`
	Status        RequestStatus `db:"status" json:"status"`
	DecidedBy     *string       `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt     *time.Time    `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Material is a published study resource derived from an approved request.
type Material struct {
	ID          string         `db:"id" json:"id"`
	RequestID   string         `db:"request_id" json:"request_id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Type        MaterialType   `db:"type" json:"type"`
	Scheme      string         `db:"scheme" json:"scheme"`
	Semester    int            `db:"semester" json:"semester"`
	SubjectID   string         `db:"subject_id" json:"subject_id"`
	FileURL     string         `db:"file_url" json:"file_url"`
	UploadedBy  string         `db:"uploaded_by" json:"uploaded_by"`
	ApprovedBy  string         `db:"approved_by" json:"approved_by"`
	Status      MaterialStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`

	RatingCount   int      `db:"rating_count" json:"rating_count"`
	AverageRating *float64 `db:"average_rating" json:"average_rating,omitempty"`
}

// Rating is a single submitted score for a material. Duplicate ratings by
// the same user are allowed; the rater is recorded for a later dedup pass.
type Rating struct {
	ID         string    `db:"id" json:"id"`
	MaterialID string    `db:"material_id" json:"material_id"`
	RatedBy    string    `db:"rated_by" json:"rated_by"`
	Rating     int       `db:"rating" json:"rating"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MaterialFilter captures the publication view equality filters.
type MaterialFilter struct {
	Scheme    string
	Semester  int
	SubjectID string
	Type      MaterialType
	Search    string
	Page      int
	PageSize  int
}

// RequestFilter captures the review queue filters.
type RequestFilter struct {
	Status     RequestStatus
	UploadedBy string
	Page       int
	PageSize   int
}
