package query

import (
	"time"

	"github.com/starford/vfxhub/internal/models"
)

// Criteria is the set of active filters for one list view. Zero values
// disable the corresponding step.
type Criteria struct {
	Search    string
	Category  string
	ProjectID string
	Bucket    Bucket
	SortByDue bool
}

// Projects applies search, status category and, when requested, due date
// ordering.
func Projects(items []models.Project, c Criteria) []models.Project {
	out := BySearchTerm(items, c.Search)
	out = ByCategory(out, c.Category)
	if c.SortByDue {
		out = SortByDueDateAscending(out)
	}
	return out
}

// Assets applies search, derived type category and project relation.
func Assets(items []models.Asset, c Criteria) []models.Asset {
	out := BySearchTerm(items, c.Search)
	out = ByCategory(out, c.Category)
	return ByRelation(out, c.ProjectID)
}

// Milestones applies search, project relation and status bucket, then
// always sorts by due date.
func Milestones(items []models.Milestone, c Criteria, now time.Time) []models.Milestone {
	out := BySearchTerm(items, c.Search)
	out = ByRelation(out, c.ProjectID)
	out = ByStatusBucket(out, c.Bucket, now)
	return SortByDueDateAscending(out)
}
