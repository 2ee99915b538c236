package importer

import (
	"strings"

	"github.com/mmdigital/analytics_backend/models"
)

// FileKind distinguishes the two spreadsheet layouts the importer accepts.
type FileKind string

const (
	// KindExport is a file previously produced by the export endpoint,
	// or any backup thereof. Its platform lives in a column.
	KindExport FileKind = "export"
	// KindPlatform is a raw vendor report. Its platform is inferred
	// from the filename.
	KindPlatform FileKind = "platform"
)

// Markers that identify a re-ingested export. Matching is deliberately
// case sensitive: export filenames are machine generated, and user files
// named "Export 2024.xlsx" are vendor reports, not ours.
var exportMarkers = []string{"analytics-records-", "export", "backup"}

func IsExportFile(filename string) bool {
	for _, marker := range exportMarkers {
		if strings.Contains(filename, marker) {
			return true
		}
	}
	return false
}

type filenameRule struct {
	keyword  string
	platform models.Platform
}

// Keyword order matters. The bare "x" rule must stay last since the letter
// appears in "xlsx" and most other names.
var filenameRules = []filenameRule{
	{"tik-tok", models.PlatformTikTok},
	{"tiktok", models.PlatformTikTok},
	{"google", models.PlatformGoogle},
	{"snapchat", models.PlatformSnap},
	{"snap", models.PlatformSnap},
	{"facebook", models.PlatformMeta},
	{"instagram", models.PlatformMeta},
	{"meta", models.PlatformMeta},
	{"twitter", models.PlatformTwitter},
	{"x", models.PlatformTwitter},
}

// PlatformFromFilename guesses which ad platform a vendor report covers.
// Defaults to google when nothing matches, the bulk of incoming files.
func PlatformFromFilename(filename string) models.Platform {
	lowered := strings.ToLower(strings.TrimSuffix(filename, filenameExtension(filename)))
	for _, rule := range filenameRules {
		if strings.Contains(lowered, rule.keyword) {
			return rule.platform
		}
	}
	return models.PlatformGoogle
}

func filenameExtension(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return filename[idx:]
	}
	return ""
}

// ClassifyFile decides the layout and the platform hint. The hint is
// computed for both layouts: export files fall back to it when their
// platform column was stripped.
func ClassifyFile(filename string) (FileKind, models.Platform) {
	kind := KindPlatform
	if IsExportFile(filename) {
		kind = KindExport
	}
	return kind, PlatformFromFilename(filename)
}
