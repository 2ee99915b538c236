package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmdigital/analytics_backend/models"
	"github.com/shopspring/decimal"
)

var currencySymbols = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

var parenNegative = regexp.MustCompile(`^\((.*)\)$`)

// NormalizeBudget turns vendor budget cells into a decimal amount.
// Currency symbols, thousand separators and spaces are stripped, an
// accounting-style "(1200)" becomes -1200, anything non-numeric becomes 0.
func NormalizeBudget(value string) decimal.Decimal {
	// Symbols go first so accounting negatives like "$(1,200)" still
	// reduce to a parenthesized number.
	cleaned := currencySymbols.Replace(strings.TrimSpace(value))
	negative := false
	if m := parenNegative.FindStringSubmatch(cleaned); m != nil {
		negative = true
		cleaned = m[1]
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		amount = amount.Neg()
	}
	return amount
}

var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"01-02-2006",
	"01/02/2006",
	"2006",
	"2006-01",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// excelEpoch is day zero of the 1900 date system. Using Dec 30 instead of
// Dec 31 absorbs the fictitious Feb 29 1900 that spreadsheets carry.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// NormalizeDate parses the many date shapes seen in vendor exports.
// A bare year between 2000 and next year maps to Jan 1 of that year, a
// large number is treated as an Excel serial, then the known layouts are
// tried in order. Unparseable input returns nil rather than an error so a
// single bad cell never sinks the row by itself.
func NormalizeDate(value string) *time.Time {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return nil
	}

	if n, err := strconv.ParseFloat(cleaned, 64); err == nil {
		year := int(n)
		if float64(year) == n && year >= 2000 && year <= time.Now().Year()+1 {
			d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
			return &d
		}
		if n > 1000 {
			d := excelEpoch.AddDate(0, 0, int(n))
			return &d
		}
		return nil
	}

	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, cleaned); err == nil {
			return &d
		}
	}
	return nil
}

// directAgencyMarkers hold the case-insensitive spellings that all mean
// "no agency involved". The 直投 entry shows up in Chinese-market reports.
var directAgencyMarkers = map[string]bool{
	"":              true,
	"-":             true,
	"direct":        true,
	"none":          true,
	"self":          true,
	"in-house":      true,
	"inhouse":       true,
	"internal":      true,
	"n/a":           true,
	"null":          true,
	"(null)":        true,
	"unknown agency": true,
	"直投":            true,
}

func NormalizeAgency(value string) string {
	cleaned := strings.TrimSpace(value)
	if directAgencyMarkers[strings.ToLower(cleaned)] {
		return "direct"
	}
	return cleaned
}

var platformVariants = map[string]models.Platform{
	"google":          models.PlatformGoogle,
	"googles":         models.PlatformGoogle,
	"google ads":      models.PlatformGoogle,
	"google adwords":  models.PlatformGoogle,
	"googleads":       models.PlatformGoogle,
	"adwords":         models.PlatformGoogle,
	"youtube":         models.PlatformGoogle,
	"tiktok":          models.PlatformTikTok,
	"tiktoks":         models.PlatformTikTok,
	"tik tok":         models.PlatformTikTok,
	"tik-tok":         models.PlatformTikTok,
	"bytedance":       models.PlatformTikTok,
	"snap":            models.PlatformSnap,
	"snaps":           models.PlatformSnap,
	"snapchat":        models.PlatformSnap,
	"meta":            models.PlatformMeta,
	"metas":           models.PlatformMeta,
	"facebook":        models.PlatformMeta,
	"fb":              models.PlatformMeta,
	"instagram":       models.PlatformMeta,
	"ig":              models.PlatformMeta,
	"twitter":         models.PlatformTwitter,
	"twitters":        models.PlatformTwitter,
	"x":               models.PlatformTwitter,
	"x (twitter)":     models.PlatformTwitter,
}

// NormalizePlatform folds known spelling variants onto the canonical
// platform names. Unrecognized platforms pass through lowercased so niche
// networks are kept rather than dropped.
func NormalizePlatform(value string) models.Platform {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if platform, ok := platformVariants[cleaned]; ok {
		return platform
	}
	return models.Platform(cleaned)
}
