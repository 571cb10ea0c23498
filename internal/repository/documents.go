package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/starford/vfxhub/internal/apperr"
	"github.com/starford/vfxhub/internal/checksum"
	"github.com/starford/vfxhub/internal/docstore"
	"github.com/starford/vfxhub/internal/models"
	"github.com/starford/vfxhub/internal/query"
)

// DocumentCollection keeps a whole collection as one JSON document. The
// collection is loaded on first use, cached in memory and written back
// after every mutation.
type DocumentCollection[T models.Record[T]] struct {
	store  docstore.Store
	key    string
	entity string
	seed   []T

	mu     sync.Mutex
	items  []T
	digest string
	loaded bool
}

// NewDocumentCollection creates a collection stored under key. seed is
// written when the key does not exist yet.
func NewDocumentCollection[T models.Record[T]](store docstore.Store, key, entity string, seed []T) *DocumentCollection[T] {
	return &DocumentCollection[T]{store: store, key: key, entity: entity, seed: seed}
}

func (c *DocumentCollection[T]) List(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(c.items), nil
}

func (c *DocumentCollection[T]) Get(ctx context.Context, id int) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if err := c.load(ctx); err != nil {
		return zero, err
	}
	i := c.index(id)
	if i < 0 {
		return zero, apperr.NotFound(c.entity)
	}
	return c.items[i], nil
}

func (c *DocumentCollection[T]) ListByProject(ctx context.Context, projectID int) ([]T, error) {
	var zero T
	if _, ok := any(zero).(query.Related); !ok {
		return nil, fmt.Errorf("%w: %s has no project reference", apperr.ErrInvalid, c.entity)
	}
	items, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []T{}
	for _, it := range items {
		if id, ok := any(it).(query.Related).RelatedProjectID(); ok && id == projectID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (c *DocumentCollection[T]) Create(ctx context.Context, v T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if err := c.load(ctx); err != nil {
		return zero, err
	}
	v = v.WithID(nextID(c.items))
	prev := c.items
	c.items = append(slices.Clone(c.items), v)
	if err := c.persist(ctx); err != nil {
		c.items = prev
		return zero, err
	}
	return v, nil
}

func (c *DocumentCollection[T]) Update(ctx context.Context, id int, patch map[string]any, ifMatch string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if err := c.load(ctx); err != nil {
		return zero, err
	}
	i := c.index(id)
	if i < 0 {
		return zero, apperr.NotFound(c.entity)
	}
	if err := checkVersion(c.items[i], ifMatch); err != nil {
		return zero, err
	}
	merged, err := ApplyPatch(c.items[i], patch)
	if err != nil {
		return zero, err
	}
	merged = merged.WithID(id)

	prev := c.items
	c.items = slices.Clone(c.items)
	c.items[i] = merged
	if err := c.persist(ctx); err != nil {
		c.items = prev
		return zero, err
	}
	return merged, nil
}

func (c *DocumentCollection[T]) Delete(ctx context.Context, id int, ifMatch string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return err
	}
	i := c.index(id)
	if i < 0 {
		return apperr.NotFound(c.entity)
	}
	if err := checkVersion(c.items[i], ifMatch); err != nil {
		return err
	}
	prev := c.items
	c.items = slices.Delete(slices.Clone(c.items), i, i+1)
	if err := c.persist(ctx); err != nil {
		c.items = prev
		return err
	}
	return nil
}

// Reload re-reads the document after an outside change. It reports
// whether the cached collection changed; the echo of this collection's own
// writes is recognised by checksum and ignored.
func (c *DocumentCollection[T]) Reload(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return false, fmt.Errorf("repository: reload %s: %w", c.key, err)
	}
	if !ok {
		changed := len(c.items) > 0
		c.items, c.digest, c.loaded = nil, "", true
		return changed, nil
	}
	sum := checksum.Sum(doc)
	if c.loaded && sum == c.digest {
		return false, nil
	}
	items, err := decodeItems[T](doc)
	if err != nil {
		return false, fmt.Errorf("repository: reload %s: %w", c.key, err)
	}
	c.items, c.digest, c.loaded = items, sum, true
	return true, nil
}

func (c *DocumentCollection[T]) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	doc, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return fmt.Errorf("repository: load %s: %w", c.key, err)
	}
	if !ok {
		c.items = slices.Clone(c.seed)
		if len(c.items) > 0 {
			if err := c.persist(ctx); err != nil {
				return err
			}
		}
		c.loaded = true
		return nil
	}
	items, err := decodeItems[T](doc)
	if err != nil {
		return fmt.Errorf("repository: load %s: %w", c.key, err)
	}
	c.items, c.digest, c.loaded = items, checksum.Sum(doc), true
	return nil
}

func (c *DocumentCollection[T]) persist(ctx context.Context) error {
	items := c.items
	if items == nil {
		items = []T{}
	}
	doc, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("repository: encode %s: %w", c.key, err)
	}
	if err := c.store.Put(ctx, c.key, doc); err != nil {
		return fmt.Errorf("repository: save %s: %w", c.key, err)
	}
	c.digest = checksum.Sum(doc)
	return nil
}

func (c *DocumentCollection[T]) index(id int) int {
	return slices.IndexFunc(c.items, func(it T) bool { return it.RecordID() == id })
}

func decodeItems[T any](doc []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(doc, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DocumentSet is the document-backed Set. It exposes Reload so a store
// watcher can refresh a collection by key.
type DocumentSet struct {
	Projects   *DocumentCollection[models.Project]
	Assets     *DocumentCollection[models.Asset]
	Milestones *DocumentCollection[models.Milestone]
}

// NewDocumentSet creates the three collections on store. When withSeed is
// true, empty collections are populated with the bundled sample data.
func NewDocumentSet(store docstore.Store, withSeed bool) (*DocumentSet, error) {
	var s Seed
	if withSeed {
		var err error
		if s, err = LoadSeed(); err != nil {
			return nil, err
		}
	}
	return &DocumentSet{
		Projects:   NewDocumentCollection(store, models.CollectionProjects, "Project", s.Projects),
		Assets:     NewDocumentCollection(store, models.CollectionAssets, "Asset", s.Assets),
		Milestones: NewDocumentCollection(store, models.CollectionMilestones, "Milestone", s.Milestones),
	}, nil
}

// Set returns the collections as a repository Set.
func (d *DocumentSet) Set() Set {
	return Set{Projects: d.Projects, Assets: d.Assets, Milestones: d.Milestones}
}

// Reload refreshes the collection stored under key. Unknown keys report no
// change.
func (d *DocumentSet) Reload(ctx context.Context, key string) (bool, error) {
	switch key {
	case models.CollectionProjects:
		return d.Projects.Reload(ctx)
	case models.CollectionAssets:
		return d.Assets.Reload(ctx)
	case models.CollectionMilestones:
		return d.Milestones.Reload(ctx)
	default:
		return false, nil
	}
}
