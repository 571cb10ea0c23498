package studio

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vfxhub/internal/models"
)

// MaxAssetSize is the largest accepted asset upload.
const MaxAssetSize int64 = 100 << 20

var assetTypes = []string{
	"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp",
	"video/mp4", "video/avi", "video/mov", "video/wmv",
	"application/octet-stream",
	"model/gltf+json", "model/gltf-binary",
}

// Model files are accepted by extension whatever their reported type.
var modelExtensions = []string{".obj", ".fbx", ".blend", ".max"}

func validateProject(p models.Project) error {
	statuses := make([]any, len(models.ProjectStatuses))
	for i, s := range models.ProjectStatuses {
		statuses[i] = s
	}
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required.Error("Project title is required")),
		validation.Field(&p.Client, validation.Required.Error("Client name is required")),
		validation.Field(&p.DueDate, validation.Required.Error("Due date is required")),
		validation.Field(&p.Status, validation.In(statuses...).Error("must be one of pre-production, in-progress, review, complete")),
	)
}

func validateAsset(a models.Asset) error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.FileName, validation.Required),
		validation.Field(&a.FileSize,
			validation.Min(int64(0)),
			validation.Max(MaxAssetSize).Error("file is too large (max 100MB)"),
		),
		validation.Field(&a.FileType, validation.By(func(any) error {
			if supportedAsset(a.FileType, a.FileName) {
				return nil
			}
			return errors.New("not a supported format")
		})),
	)
}

func supportedAsset(fileType, fileName string) bool {
	if slices.Contains(assetTypes, fileType) {
		return true
	}
	return slices.Contains(modelExtensions, strings.ToLower(filepath.Ext(fileName)))
}

func validateMilestone(m models.Milestone) error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.DueDate, validation.Required),
	)
}
