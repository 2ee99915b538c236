package importer

import (
	"testing"

	"github.com/mmdigital/analytics_backend/models"
)

func TestIsExportFile(t *testing.T) {
	cases := []struct {
		filename string
		expected bool
	}{
		{"analytics-records-2024-01-05-10-30-00.xlsx", true},
		{"q4-export.csv", true},
		{"backup-march.xlsx", true},
		// Matching is case sensitive; user files named Export are vendor reports.
		{"Export 2024.xlsx", false},
		{"google-spend.xlsx", false},
	}
	for _, tc := range cases {
		if got := IsExportFile(tc.filename); got != tc.expected {
			t.Fatalf("IsExportFile(%q) expected %v, got %v", tc.filename, tc.expected, got)
		}
	}
}

func TestPlatformFromFilename(t *testing.T) {
	cases := []struct {
		filename string
		expected models.Platform
	}{
		{"tiktok-q1.xlsx", models.PlatformTikTok},
		{"Tik-Tok Spend.csv", models.PlatformTikTok},
		{"google-ads-2024.xlsx", models.PlatformGoogle},
		{"snapchat_budget.xls", models.PlatformSnap},
		{"snap 2024.csv", models.PlatformSnap},
		{"facebook-spend.xlsx", models.PlatformMeta},
		{"instagram.csv", models.PlatformMeta},
		{"meta-q2.xlsx", models.PlatformMeta},
		{"twitter-spend.xlsx", models.PlatformTwitter},
		{"x-ads.csv", models.PlatformTwitter},
		{"spend-2024.csv", models.PlatformGoogle},
	}
	for _, tc := range cases {
		if got := PlatformFromFilename(tc.filename); got != tc.expected {
			t.Fatalf("PlatformFromFilename(%q) expected %q, got %q", tc.filename, tc.expected, got)
		}
	}
}

func TestClassifyFile(t *testing.T) {
	kind, platform := ClassifyFile("analytics-records-2024-01-05-10-30-00.xlsx")
	if kind != KindExport {
		t.Fatalf("expected export kind, got %q", kind)
	}
	// Exports get a hint too, for rows whose platform column is empty.
	if platform != models.PlatformGoogle {
		t.Fatalf("expected default google hint, got %q", platform)
	}

	kind, platform = ClassifyFile("tiktok-export.xlsx")
	if kind != KindExport {
		t.Fatalf("expected export kind, got %q", kind)
	}
	if platform != models.PlatformTikTok {
		t.Fatalf("expected tiktok hint, got %q", platform)
	}

	kind, platform = ClassifyFile("tiktok-q1.xlsx")
	if kind != KindPlatform {
		t.Fatalf("expected platform kind, got %q", kind)
	}
	if platform != models.PlatformTikTok {
		t.Fatalf("expected tiktok, got %q", platform)
	}
}
