package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/marketplace-service/internal/domain"
)

// CreatePublicationRequest payload.
type CreatePublicationRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// Validate returns field-level error messages, empty when valid.
func (r CreatePublicationRequest) Validate() map[string]any {
	details := map[string]any{}
	if strings.TrimSpace(r.Title) == "" {
		details["title"] = "title is required"
	}
	if strings.TrimSpace(r.Description) == "" {
		details["description"] = "description is required"
	}
	if r.Price < 0 {
		details["price"] = "price must not be negative"
	}
	return details
}

// UpdatePublicationRequest carries a partial update; absent fields are left
// unchanged. Status and reserver are not accepted here.
type UpdatePublicationRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	OwnerID     *int64  `json:"owner_id"`
}

// Validate returns field-level error messages, empty when valid.
func (r UpdatePublicationRequest) Validate() map[string]any {
	details := map[string]any{}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		details["title"] = "title must not be empty"
	}
	if r.Description != nil && strings.TrimSpace(*r.Description) == "" {
		details["description"] = "description must not be empty"
	}
	if r.Price != nil && *r.Price < 0 {
		details["price"] = "price must not be negative"
	}
	return details
}

// Patch converts the request to a domain patch.
func (r UpdatePublicationRequest) Patch() domain.PublicationPatch {
	return domain.PublicationPatch{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		OwnerID:     r.OwnerID,
	}
}

// PublicationQuery captures list filters.
type PublicationQuery struct {
	Title       *string
	Description *string
}

// Filter converts the query to a domain filter.
func (q PublicationQuery) Filter() domain.PublicationFilter {
	return domain.PublicationFilter{
		TitleContains:       q.Title,
		DescriptionContains: q.Description,
	}
}

// PublicationResponse is the public publication representation.
type PublicationResponse struct {
	ID          int64                    `json:"id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Price       int64                    `json:"price"`
	Status      domain.PublicationStatus `json:"status"`
	OwnerID     int64                    `json:"owner_id"`
	ReserverID  *int64                   `json:"reserver_id"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// NewPublicationResponse maps a domain publication.
func NewPublicationResponse(publication *domain.Publication) PublicationResponse {
	return PublicationResponse{
		ID:          publication.ID,
		Title:       publication.Title,
		Description: publication.Description,
		Price:       publication.Price,
		Status:      publication.Status,
		OwnerID:     publication.OwnerID,
		ReserverID:  publication.ReserverID,
		CreatedAt:   publication.CreatedAt,
		UpdatedAt:   publication.UpdatedAt,
	}
}
