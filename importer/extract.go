package importer

import (
	"time"

	"github.com/mmdigital/analytics_backend/models"
	"github.com/shopspring/decimal"
)

// Candidate is a fully normalized row, not yet validated or persisted.
type Candidate struct {
	Client   string
	Agency   string
	Budget   decimal.Decimal
	Platform models.Platform
	Country  string
	Date     *time.Time
}

// Header candidates per field, in priority order. Export files use our own
// column names; vendor reports vary per platform, hence the longer lists.
var (
	exportClientKeys   = []string{"client", "client_name"}
	exportAgencyKeys   = []string{"agency", "agency_name"}
	exportBudgetKeys   = []string{"budget", "budget_amount"}
	exportPlatformKeys = []string{"platform", "platform_name"}
	exportCountryKeys  = []string{"country", "country_name"}
	exportDateKeys     = []string{"date"}

	vendorClientKeys   = []string{"client", "client_name", "company", "customer", "advertiser", "advertiser_name", "account", "account_name", "ad_account_name", "brand"}
	vendorAgencyKeys   = []string{"agency", "agency_name", "manager", "account_manager", "partner", "partner_name", "management_company", "reseller"}
	vendorBudgetKeys   = []string{"budget", "budget_amount", "total_budget", "spend", "ad_spend", "campaign_spend", "spent", "ad_spent", "investment", "cost", "amount", "total_spend", "media_spend", "total_cost"}
	vendorPlatformKeys = []string{"platform", "platform_name", "network", "ad_platform", "ad_network"}
	vendorCountryKeys  = []string{"country", "country_name", "market", "region", "location", "territory", "geo", "geo_location", "country_code"}
	vendorDateKeys     = []string{"date", "transaction_date", "time_period", "date_range", "year", "month", "period", "report_date", "day"}
)

const unknownCountry = "Unknown"

func countryOrUnknown(value string) string {
	if value == "" {
		return unknownCountry
	}
	return value
}

func platformOrHint(value string, hint models.Platform) models.Platform {
	if value == "" {
		return hint
	}
	return NormalizePlatform(value)
}

// ExtractExportRow reads a row from a re-ingested export file. The platform
// normally comes from the column; the filename hint covers files where the
// column was stripped.
func ExtractExportRow(row Row, hint models.Platform) Candidate {
	return Candidate{
		Client:   row.Resolve(exportClientKeys...),
		Agency:   NormalizeAgency(row.Resolve(exportAgencyKeys...)),
		Budget:   NormalizeBudget(row.Resolve(exportBudgetKeys...)),
		Platform: platformOrHint(row.Resolve(exportPlatformKeys...), hint),
		Country:  countryOrUnknown(row.Resolve(exportCountryKeys...)),
		Date:     NormalizeDate(row.Resolve(exportDateKeys...)),
	}
}

// ExtractVendorRow reads a row from a raw vendor report. A platform column
// wins when present; otherwise the filename hint applies.
func ExtractVendorRow(row Row, hint models.Platform) Candidate {
	return Candidate{
		Client:   row.Resolve(vendorClientKeys...),
		Agency:   NormalizeAgency(row.Resolve(vendorAgencyKeys...)),
		Budget:   NormalizeBudget(row.Resolve(vendorBudgetKeys...)),
		Platform: platformOrHint(row.Resolve(vendorPlatformKeys...), hint),
		Country:  countryOrUnknown(row.Resolve(vendorCountryKeys...)),
		Date:     NormalizeDate(row.Resolve(vendorDateKeys...)),
	}
}
