// Package studio is the application service for projects, assets and
// milestones. It validates writes, runs list requests through the query
// pipeline, resolves project references for display and announces changes.
package studio

import (
	"context"
	"time"

	"github.com/starford/vfxhub/internal/models"
	"github.com/starford/vfxhub/internal/query"
	"github.com/starford/vfxhub/internal/repository"
)

// Change kinds passed to a Notifier.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Notifier receives record changes. *sse.Broker implements it.
type Notifier interface {
	PublishRecordEvent(kind, collection string, id int)
}

type nopNotifier struct{}

func (nopNotifier) PublishRecordEvent(string, string, int) {}

// AssetView is an asset with its project title resolved.
type AssetView struct {
	models.Asset
	ProjectTitle string `json:"projectTitle"`
}

// MilestoneView is a milestone with its project title resolved.
type MilestoneView struct {
	models.Milestone
	ProjectTitle string `json:"projectTitle"`
}

// Service coordinates the repositories.
type Service struct {
	repos  repository.Set
	events Notifier
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the change notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.events = n
		}
	}
}

// WithClock overrides the time source used for defaults and date buckets.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new studio service.
func NewService(repos repository.Set, opts ...Option) *Service {
	s := &Service{repos: repos, events: nopNotifier{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// ListProjects returns projects matching c.
func (s *Service) ListProjects(ctx context.Context, c query.Criteria) ([]models.Project, error) {
	items, err := s.repos.Projects.List(ctx)
	if err != nil {
		return nil, err
	}
	return query.Projects(items, c), nil
}

func (s *Service) GetProject(ctx context.Context, id int) (models.Project, error) {
	return s.repos.Projects.Get(ctx, id)
}

// CreateProject validates and stores a new project.
func (s *Service) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	p = p.Normalize(s.now())
	if err := validateProject(p); err != nil {
		return models.Project{}, err
	}
	created, err := s.repos.Projects.Create(ctx, p)
	if err != nil {
		return models.Project{}, err
	}
	s.events.PublishRecordEvent(ChangeCreated, models.CollectionProjects, created.ID)
	return created, nil
}

// UpdateProject merges patch into a project. The merged record must still
// pass creation validation.
func (s *Service) UpdateProject(ctx context.Context, id int, patch map[string]any, ifMatch string) (models.Project, error) {
	return update(ctx, s, s.repos.Projects, models.CollectionProjects, id, patch, ifMatch, validateProject)
}

func (s *Service) DeleteProject(ctx context.Context, id int, ifMatch string) error {
	return s.remove(ctx, s.repos.Projects.Delete, models.CollectionProjects, id, ifMatch)
}

// ListAssets returns assets matching c with project titles resolved.
func (s *Service) ListAssets(ctx context.Context, c query.Criteria) ([]AssetView, error) {
	items, err := s.repos.Assets.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.assetViews(ctx, query.Assets(items, c))
}

// ProjectAssets returns the assets referencing projectID.
func (s *Service) ProjectAssets(ctx context.Context, projectID int) ([]AssetView, error) {
	items, err := s.repos.Assets.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.assetViews(ctx, items)
}

func (s *Service) GetAsset(ctx context.Context, id int) (AssetView, error) {
	a, err := s.repos.Assets.Get(ctx, id)
	if err != nil {
		return AssetView{}, err
	}
	views, err := s.assetViews(ctx, []models.Asset{a})
	if err != nil {
		return AssetView{}, err
	}
	return views[0], nil
}

// CreateAsset validates and stores asset metadata.
func (s *Service) CreateAsset(ctx context.Context, a models.Asset) (models.Asset, error) {
	a = a.Normalize(s.now())
	if err := validateAsset(a); err != nil {
		return models.Asset{}, err
	}
	created, err := s.repos.Assets.Create(ctx, a)
	if err != nil {
		return models.Asset{}, err
	}
	s.events.PublishRecordEvent(ChangeCreated, models.CollectionAssets, created.ID)
	return created, nil
}

// ValidateAsset applies creation defaults to a and checks it without
// storing anything.
func (s *Service) ValidateAsset(a models.Asset) error {
	return validateAsset(a.Normalize(s.now()))
}

func (s *Service) UpdateAsset(ctx context.Context, id int, patch map[string]any, ifMatch string) (models.Asset, error) {
	return update(ctx, s, s.repos.Assets, models.CollectionAssets, id, patch, ifMatch, validateAsset)
}

func (s *Service) DeleteAsset(ctx context.Context, id int, ifMatch string) error {
	return s.remove(ctx, s.repos.Assets.Delete, models.CollectionAssets, id, ifMatch)
}

// ListMilestones returns milestones matching c, sorted by due date, with
// project titles resolved.
func (s *Service) ListMilestones(ctx context.Context, c query.Criteria) ([]MilestoneView, error) {
	items, err := s.repos.Milestones.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.milestoneViews(ctx, query.Milestones(items, c, s.now()))
}

// ProjectMilestones returns a project's milestones in due date order.
func (s *Service) ProjectMilestones(ctx context.Context, projectID int) ([]MilestoneView, error) {
	items, err := s.repos.Milestones.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.milestoneViews(ctx, query.SortByDueDateAscending(items))
}

func (s *Service) GetMilestone(ctx context.Context, id int) (MilestoneView, error) {
	m, err := s.repos.Milestones.Get(ctx, id)
	if err != nil {
		return MilestoneView{}, err
	}
	views, err := s.milestoneViews(ctx, []models.Milestone{m})
	if err != nil {
		return MilestoneView{}, err
	}
	return views[0], nil
}

// CreateMilestone validates and stores a milestone.
func (s *Service) CreateMilestone(ctx context.Context, m models.Milestone) (models.Milestone, error) {
	m = m.Normalize()
	if err := validateMilestone(m); err != nil {
		return models.Milestone{}, err
	}
	created, err := s.repos.Milestones.Create(ctx, m)
	if err != nil {
		return models.Milestone{}, err
	}
	s.events.PublishRecordEvent(ChangeCreated, models.CollectionMilestones, created.ID)
	return created, nil
}

func (s *Service) UpdateMilestone(ctx context.Context, id int, patch map[string]any, ifMatch string) (models.Milestone, error) {
	return update(ctx, s, s.repos.Milestones, models.CollectionMilestones, id, patch, ifMatch, validateMilestone)
}

func (s *Service) DeleteMilestone(ctx context.Context, id int, ifMatch string) error {
	return s.remove(ctx, s.repos.Milestones.Delete, models.CollectionMilestones, id, ifMatch)
}

// MilestoneCounts returns the status bucket totals, optionally limited to
// one project. projectID follows the relation filter rules.
func (s *Service) MilestoneCounts(ctx context.Context, projectID string) (query.StatusCounts, error) {
	items, err := s.repos.Milestones.List(ctx)
	if err != nil {
		return query.StatusCounts{}, err
	}
	return query.Counts(query.ByRelation(items, projectID), s.now()), nil
}

func update[T any](ctx context.Context, s *Service, repo repository.Repository[T], collection string,
	id int, patch map[string]any, ifMatch string, validate func(T) error,
) (T, error) {
	var zero T
	current, err := repo.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	merged, err := repository.ApplyPatch(current, patch)
	if err != nil {
		return zero, err
	}
	if err := validate(merged); err != nil {
		return zero, err
	}
	updated, err := repo.Update(ctx, id, patch, ifMatch)
	if err != nil {
		return zero, err
	}
	s.events.PublishRecordEvent(ChangeUpdated, collection, id)
	return updated, nil
}

func (s *Service) remove(ctx context.Context, del func(context.Context, int, string) error, collection string, id int, ifMatch string) error {
	if err := del(ctx, id, ifMatch); err != nil {
		return err
	}
	s.events.PublishRecordEvent(ChangeDeleted, collection, id)
	return nil
}

func (s *Service) projects(ctx context.Context) ([]models.Project, error) {
	return s.repos.Projects.List(ctx)
}

func (s *Service) assetViews(ctx context.Context, items []models.Asset) ([]AssetView, error) {
	projects, err := s.projects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AssetView, len(items))
	for i, a := range items {
		out[i] = AssetView{Asset: a, ProjectTitle: query.ProjectTitle(projects, a.ProjectID)}
	}
	return out, nil
}

func (s *Service) milestoneViews(ctx context.Context, items []models.Milestone) ([]MilestoneView, error) {
	projects, err := s.projects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MilestoneView, len(items))
	for i, m := range items {
		ref := m.ProjectID
		out[i] = MilestoneView{Milestone: m, ProjectTitle: query.ProjectTitle(projects, &ref)}
	}
	return out, nil
}
