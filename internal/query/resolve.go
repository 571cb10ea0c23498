package query

import "github.com/starford/vfxhub/internal/models"

// FindProject resolves a weak project reference.
func FindProject(projects []models.Project, id int) (models.Project, bool) {
	for _, p := range projects {
		if p.ID == id {
			return p, true
		}
	}
	return models.Project{}, false
}

// ProjectTitle returns the referenced project's title, or
// models.UnknownProject for a nil or dangling reference.
func ProjectTitle(projects []models.Project, ref *int) string {
	if ref == nil {
		return models.UnknownProject
	}
	if p, ok := FindProject(projects, *ref); ok && p.Title != "" {
		return p.Title
	}
	return models.UnknownProject
}
