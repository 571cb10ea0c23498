// Package models defines the studio record types: projects, assets and
// milestones.
package models

// UnknownProject is the title shown for a weak project reference that does
// not resolve to a stored project.
const UnknownProject = "Unknown Project"

// Collection names, shared by the document store keys, record tables and
// change events.
const (
	CollectionProjects   = "projects"
	CollectionAssets     = "assets"
	CollectionMilestones = "milestones"
)

// Record is implemented by every stored entity. Ids are unique only within
// one collection.
type Record[T any] interface {
	RecordID() int
	WithID(id int) T
}
