package models

import "strings"

// Milestone is a dated deliverable on a project timeline.
type Milestone struct {
	ID          int    `json:"Id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Completed   bool   `json:"completed"`
	ProjectID   int    `json:"projectId"`
}

func (m Milestone) RecordID() int { return m.ID }

func (m Milestone) WithID(id int) Milestone {
	m.ID = id
	return m
}

func (m Milestone) SearchText() []string { return []string{m.Title, m.Description} }

func (m Milestone) SearchTags() []string { return nil }

func (m Milestone) RelatedProjectID() (int, bool) { return m.ProjectID, true }

func (m Milestone) Due() string { return m.DueDate }

// Normalize trims free-text fields.
func (m Milestone) Normalize() Milestone {
	m.Title = strings.TrimSpace(m.Title)
	m.Description = strings.TrimSpace(m.Description)
	return m
}
