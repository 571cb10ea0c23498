package models

import (
	"strings"
	"time"
)

// ProjectStatus is the production phase of a project.
type ProjectStatus string

const (
	StatusPreProduction ProjectStatus = "pre-production"
	StatusInProgress    ProjectStatus = "in-progress"
	StatusReview        ProjectStatus = "review"
	StatusComplete      ProjectStatus = "complete"
)

// ProjectStatuses lists every valid status in workflow order.
var ProjectStatuses = []ProjectStatus{StatusPreProduction, StatusInProgress, StatusReview, StatusComplete}

// Project is a client engagement.
type Project struct {
	ID          int           `json:"Id"`
	Title       string        `json:"title"`
	Client      string        `json:"client"`
	Status      ProjectStatus `json:"status"`
	DueDate     string        `json:"dueDate"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func (p Project) RecordID() int { return p.ID }

func (p Project) WithID(id int) Project {
	p.ID = id
	return p
}

func (p Project) SearchText() []string {
	return []string{p.Title, p.Client, p.Description}
}

func (p Project) SearchTags() []string { return nil }

// MatchesCategory reports whether the project is in the given status.
func (p Project) MatchesCategory(key string) bool {
	return string(p.Status) == key
}

func (p Project) Due() string { return p.DueDate }

// Normalize trims free-text fields and applies creation defaults.
func (p Project) Normalize(now time.Time) Project {
	p.Title = strings.TrimSpace(p.Title)
	p.Client = strings.TrimSpace(p.Client)
	p.Description = strings.TrimSpace(p.Description)
	if p.Status == "" {
		p.Status = StatusPreProduction
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now.UTC()
	}
	return p
}
