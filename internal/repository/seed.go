package repository

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/starford/vfxhub/internal/models"
)

//go:embed seed/*.json
var seedFS embed.FS

// Seed is the bundled sample data for a fresh mock store.
type Seed struct {
	Projects   []models.Project
	Assets     []models.Asset
	Milestones []models.Milestone
}

// LoadSeed decodes the embedded sample collections.
func LoadSeed() (Seed, error) {
	var s Seed
	if err := readSeed(models.CollectionProjects, &s.Projects); err != nil {
		return s, err
	}
	if err := readSeed(models.CollectionAssets, &s.Assets); err != nil {
		return s, err
	}
	if err := readSeed(models.CollectionMilestones, &s.Milestones); err != nil {
		return s, err
	}
	return s, nil
}

func readSeed(name string, dst any) error {
	data, err := seedFS.ReadFile("seed/" + name + ".json")
	if err != nil {
		return fmt.Errorf("repository: seed %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("repository: seed %s: %w", name, err)
	}
	return nil
}
