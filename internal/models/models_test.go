package models

import (
	"testing"
	"time"
)

func TestAssetMatchesCategory(t *testing.T) {
	cases := []struct {
		fileType string
		key      string
		want     bool
	}{
		{"image/png", AssetImage, true},
		{"IMAGE/JPEG", AssetImage, true},
		{"video/mp4", AssetVideo, true},
		{"video/mp4", AssetImage, false},
		{"model/gltf+json", AssetModel, true},
		{"application/fbx", AssetModel, true},
		{"application/x-blend", AssetModel, true},
		{"application/x-3ds-max", AssetModel, true},
		{"application/obj", AssetModel, true},
		{"application/octet-stream", AssetModel, false},
		{"application/octet-stream", AssetOther, true},
		{"application/fbx", AssetOther, true},
		{"model/gltf-binary", AssetOther, false},
		{"image/png", AssetOther, false},
		{"", AssetOther, true},
		{"image/png", "sound", true},
	}
	for _, tc := range cases {
		a := Asset{FileType: tc.fileType}
		if got := a.MatchesCategory(tc.key); got != tc.want {
			t.Errorf("Asset{%q}.MatchesCategory(%q) = %v, want %v", tc.fileType, tc.key, got, tc.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	if _, ok := ParseDate("2024-03-15", time.UTC); !ok {
		t.Error("plain date should parse")
	}
	if _, ok := ParseDate("2024-03-15T10:00:00Z", time.UTC); !ok {
		t.Error("RFC 3339 should parse")
	}
	if _, ok := ParseDate("2024-03-15T10:00:00.123Z", time.UTC); !ok {
		t.Error("fractional seconds should parse")
	}
	for _, bad := range []string{"", "  ", "next tuesday", "2024-13-45"} {
		if _, ok := ParseDate(bad, time.UTC); ok {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}

func TestProjectNormalize(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Project{Title: "  Dune  ", Client: " Legendary "}.Normalize(now)
	if p.Title != "Dune" || p.Client != "Legendary" {
		t.Errorf("fields not trimmed: %+v", p)
	}
	if p.Status != StatusPreProduction {
		t.Errorf("status = %q, want default", p.Status)
	}
	if !p.CreatedAt.Equal(now) {
		t.Errorf("createdAt = %v", p.CreatedAt)
	}
}

func TestAssetNormalizeDefaults(t *testing.T) {
	a := Asset{FileName: "shot.exr"}.Normalize(time.Now())
	if a.FileType != "application/octet-stream" {
		t.Errorf("fileType = %q", a.FileType)
	}
	if a.Tags == nil {
		t.Error("tags should be non-nil")
	}
	if a.UploadDate.IsZero() {
		t.Error("uploadDate should default")
	}
}
