package dto

import "github.com/akshay-km/studyvault-api/internal/models"

// SubmitMaterialRequest is the payload for a new material submission.
type SubmitMaterialRequest struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=2000"`
	Type        models.MaterialType `json:"type" validate:"required"`
	Scheme      string              `json:"scheme" validate:"required"`
	Semester    int                 `json:"semester" validate:"required,min=1,max=8"`
	SubjectID   string              `json:"subject_id" validate:"required"`
	FileURL     string              `json:"file_url" validate:"required,url"`
}

// RateMaterialRequest is the payload for rating a material.
type RateMaterialRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

// RatingResult carries the updated aggregate after a rating is recorded.
type RatingResult struct {
	MaterialID    string  `json:"material_id"`
	RatingCount   int     `json:"rating_count"`
	AverageRating float64 `json:"average_rating"`
}

// UpdateMaterialRequest is the admin payload for editing a published material.
type UpdateMaterialRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	FileURL     *string `json:"file_url,omitempty" validate:"omitempty,url"`
}

// ToggleWishlistRequest is the payload for toggling a wishlist entry.
type ToggleWishlistRequest struct {
	MaterialID string `json:"material_id" validate:"required,uuid"`
}

// ToggleWishlistResult reports the state after a toggle.
type ToggleWishlistResult struct {
	MaterialID string `json:"material_id"`
	Saved      bool   `json:"saved"`
}
