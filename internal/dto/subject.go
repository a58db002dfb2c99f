package dto

// CreateSubjectRequest adds one entry to the curriculum catalog.
type CreateSubjectRequest struct {
	Scheme    string `json:"scheme" validate:"required"`
	Semester  int    `json:"semester" validate:"required,min=1,max=8"`
	Code      string `json:"code" validate:"required,max=20"`
	Name      string `json:"name" validate:"required,max=200"`
	SortOrder int    `json:"sort_order" validate:"min=0"`
}

// UpdateSubjectRequest patches a catalog entry. Nil fields are untouched.
type UpdateSubjectRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=200"`
	SortOrder *int    `json:"sort_order,omitempty" validate:"omitempty,min=0"`
}
