package models

import (
	"strings"
	"time"
)

// Asset type categories derived from the stored MIME type.
const (
	AssetImage = "image"
	AssetVideo = "video"
	AssetModel = "model"
	AssetOther = "other"
)

var modelMarkers = []string{"model", "fbx", "obj", "blend", "max"}

// Asset is an uploaded media or 3D file.
type Asset struct {
	ID           int       `json:"Id"`
	FileName     string    `json:"fileName"`
	FileType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	ProjectID    *int      `json:"projectId"`
	UploadDate   time.Time `json:"uploadDate"`
	ThumbnailURL *string   `json:"thumbnailUrl"`
	Tags         []string  `json:"tags"`
}

func (a Asset) RecordID() int { return a.ID }

func (a Asset) WithID(id int) Asset {
	a.ID = id
	return a
}

func (a Asset) SearchText() []string { return []string{a.FileName} }

func (a Asset) SearchTags() []string { return a.Tags }

// MatchesCategory tests the lower-cased file type against an asset
// category. The "other" bucket only excludes image, video and model types,
// so an "application/fbx" asset is both "model" and "other". Unknown keys
// match every asset.
func (a Asset) MatchesCategory(key string) bool {
	t := strings.ToLower(a.FileType)
	switch key {
	case AssetImage:
		return strings.Contains(t, "image")
	case AssetVideo:
		return strings.Contains(t, "video")
	case AssetModel:
		for _, m := range modelMarkers {
			if strings.Contains(t, m) {
				return true
			}
		}
		return false
	case AssetOther:
		return !strings.Contains(t, "image") && !strings.Contains(t, "video") && !strings.Contains(t, "model")
	default:
		return true
	}
}

func (a Asset) RelatedProjectID() (int, bool) {
	if a.ProjectID == nil {
		return 0, false
	}
	return *a.ProjectID, true
}

// Normalize applies creation defaults.
func (a Asset) Normalize(now time.Time) Asset {
	a.FileName = strings.TrimSpace(a.FileName)
	if a.FileType == "" {
		a.FileType = "application/octet-stream"
	}
	if a.UploadDate.IsZero() {
		a.UploadDate = now.UTC()
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return a
}
