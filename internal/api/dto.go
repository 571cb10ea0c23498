package api

import (
	"github.com/starford/vfxhub/internal/models"
	"github.com/starford/vfxhub/internal/studio"
)

// AssetView is an asset with its resolved project title (aliased from the
// service layer).
type AssetView = studio.AssetView

// MilestoneView is a milestone with its resolved project title (aliased
// from the service layer).
type MilestoneView = studio.MilestoneView

// ProjectListResponse wraps project listings.
type ProjectListResponse struct {
	Projects []models.Project `json:"projects" validate:"required"`
	Total    int              `json:"total" example:"4" validate:"required"`
}

// AssetListResponse wraps asset listings.
type AssetListResponse struct {
	Assets []AssetView `json:"assets" validate:"required"`
	Total  int         `json:"total" example:"5" validate:"required"`
}

// MilestoneListResponse wraps milestone listings.
type MilestoneListResponse struct {
	Milestones []MilestoneView `json:"milestones" validate:"required"`
	Total      int             `json:"total" example:"6" validate:"required"`
}
