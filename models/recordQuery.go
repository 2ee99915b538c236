package models

import (
	"context"
	"strings"

	"github.com/mmdigital/analytics_backend/config"
	"github.com/mmdigital/analytics_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecordFilter is the shared filter vocabulary of the listing and the
// export endpoints. Empty fields are ignored.
type RecordFilter struct {
	Platform   string   `form:"platform"`
	Country    string   `form:"country"`
	Countries  []string `form:"countries[]"`
	Client     string   `form:"client"`
	Agency     string   `form:"agency"`
	Search     string   `form:"search"`
	BudgetTier string   `form:"budget_tier" binding:"omitempty,oneof=top mid bottom high medium low"`
	MinBudget  string   `form:"min_budget"`
	MaxBudget  string   `form:"max_budget"`
	Date       string   `form:"date"`
	Sort       string   `form:"sort"`
	Direction  string   `form:"direction" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page       int      `form:"page"`
}

type RecordPage struct {
	Records  []*AnalyticsRecord `json:"records"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PerPage  int                `json:"per_page"`
	LastPage int                `json:"last_page"`
}

type BudgetStats struct {
	MinBudget decimal.Decimal `json:"min_budget"`
	MaxBudget decimal.Decimal `json:"max_budget"`
	AvgBudget decimal.Decimal `json:"avg_budget"`
}

var allowedSortFields = map[string]bool{
	"budget":     true,
	"client":     true,
	"agency":     true,
	"platform":   true,
	"country":    true,
	"date":       true,
	"created_at": true,
}

func applyRecordFilters(ctx context.Context, dbCtx *gorm.DB, filter *RecordFilter) (*gorm.DB, error) {

	if filter.Platform != "" {
		dbCtx = dbCtx.Where("platform = ?", filter.Platform)
	}

	if len(filter.Countries) > 0 {
		dbCtx = dbCtx.Where("country IN ?", filter.Countries)
	} else if filter.Country != "" {
		dbCtx = dbCtx.Where("country LIKE ?", "%"+filter.Country+"%")
	}

	if filter.Client != "" {
		dbCtx = dbCtx.Where("client LIKE ?", "%"+filter.Client+"%")
	}

	if filter.Agency != "" {
		if filter.Agency == "direct" {
			dbCtx = dbCtx.Where(
				"agency IS NULL OR agency = '' OR agency = ? OR agency = 'direct'",
				unknownAgency,
			)
		} else {
			dbCtx = dbCtx.Where("agency LIKE ?", "%"+filter.Agency+"%")
		}
	}

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		dbCtx = dbCtx.Where(
			"client LIKE ? OR agency LIKE ? OR country LIKE ? OR date LIKE ?",
			like, like, like, like,
		)
	}

	if filter.BudgetTier != "" {
		stats, err := GetBudgetStats(ctx)
		if err != nil {
			return nil, err
		}
		avg := stats.AvgBudget
		switch filter.BudgetTier {
		case "top":
			dbCtx = dbCtx.Where("budget > ?", avg.Mul(decimal.NewFromFloat(1.5)))
		case "mid":
			dbCtx = dbCtx.Where("budget BETWEEN ? AND ?",
				avg.Mul(decimal.NewFromFloat(0.5)), avg.Mul(decimal.NewFromFloat(1.5)))
		case "bottom":
			dbCtx = dbCtx.Where("budget < ?", avg.Mul(decimal.NewFromFloat(0.5)))
		case "high":
			dbCtx = dbCtx.Where("budget > ?", 10000)
		case "medium":
			dbCtx = dbCtx.Where("budget BETWEEN ? AND ?", 1000, 10000)
		case "low":
			dbCtx = dbCtx.Where("budget < ?", 1000)
		}
	}

	if filter.MinBudget != "" {
		if minBudget, err := utils.ParseDecimal(filter.MinBudget); err == nil {
			dbCtx = dbCtx.Where("budget >= ?", minBudget)
		}
	}
	if filter.MaxBudget != "" {
		if maxBudget, err := utils.ParseDecimal(filter.MaxBudget); err == nil {
			dbCtx = dbCtx.Where("budget <= ?", maxBudget)
		}
	}

	if filter.Date != "" {
		dbCtx = dbCtx.Where("DATE(date) = ?", filter.Date)
	}

	return dbCtx, nil
}

// SortClause validates the requested sort against the whitelist and falls
// back to budget desc, mirroring the listing contract.
func (filter *RecordFilter) SortClause() string {
	field := filter.Sort
	if !allowedSortFields[field] {
		field = "budget"
	}
	direction := strings.ToLower(filter.Direction)
	if direction != "asc" && direction != "desc" {
		direction = "desc"
	}
	return field + " " + direction
}

func GetAnalyticsRecords(ctx context.Context, filter *RecordFilter) (*RecordPage, error) {
	db := config.GetDB()

	dbCtx, err := applyRecordFilters(ctx, db.WithContext(ctx).Model(&AnalyticsRecord{}), filter)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	var records []*AnalyticsRecord
	if err := dbCtx.
		Order(filter.SortClause()).
		Limit(RecordsPerPage).
		Offset((page - 1) * RecordsPerPage).
		Find(&records).Error; err != nil {
		return nil, err
	}

	lastPage := int((total + RecordsPerPage - 1) / RecordsPerPage)
	if lastPage < 1 {
		lastPage = 1
	}

	return &RecordPage{
		Records:  records,
		Total:    total,
		Page:     page,
		PerPage:  RecordsPerPage,
		LastPage: lastPage,
	}, nil
}

// ExportAnalyticsRecords returns every record matching the filter, newest
// first, without pagination.
func ExportAnalyticsRecords(ctx context.Context, filter *RecordFilter) ([]*AnalyticsRecord, error) {
	db := config.GetDB()

	dbCtx, err := applyRecordFilters(ctx, db.WithContext(ctx).Model(&AnalyticsRecord{}), filter)
	if err != nil {
		return nil, err
	}

	var records []*AnalyticsRecord
	if err := dbCtx.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func GetBudgetStats(ctx context.Context) (*BudgetStats, error) {
	db := config.GetDB()
	var stats BudgetStats
	if err := db.WithContext(ctx).Model(&AnalyticsRecord{}).
		Select("COALESCE(MIN(budget), 0) as min_budget, COALESCE(MAX(budget), 0) as max_budget, COALESCE(AVG(budget), 0) as avg_budget").
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

type FilterOptions struct {
	Platforms []string `json:"platforms"`
	Countries []string `json:"countries"`
	Clients   []string `json:"clients"`
	Agencies  []string `json:"agencies"`
}

const filterOptionsCacheKey = "analytics:filterOptions"

// GetFilterOptions returns the distinct values offered to the listing UI.
// Cached in redis; the cache is dropped on any record mutation.
func GetFilterOptions(ctx context.Context) (*FilterOptions, error) {
	var options FilterOptions
	exists, err := config.GetRedisObject(filterOptionsCacheKey, &options)
	if err == nil && exists {
		return &options, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&AnalyticsRecord{}).
		Distinct().Pluck("platform", &options.Platforms).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&AnalyticsRecord{}).
		Distinct().Pluck("country", &options.Countries).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&AnalyticsRecord{}).
		Distinct().Pluck("client", &options.Clients).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&AnalyticsRecord{}).
		Where("agency IS NOT NULL AND agency != '' AND agency != ?", unknownAgency).
		Distinct().Pluck("agency", &options.Agencies).Error; err != nil {
		return nil, err
	}

	if err := config.SetRedisObject(filterOptionsCacheKey, &options, utils.GetCacheLifespan()); err != nil {
		config.LogError(config.GetLogger(), "recordQuery.go", "GetFilterOptions", "SetRedisObject", nil, err)
	}
	return &options, nil
}

func InvalidateFilterOptions() {
	if err := config.RemoveRedisKey(filterOptionsCacheKey); err != nil {
		config.LogError(config.GetLogger(), "recordQuery.go", "InvalidateFilterOptions", "RemoveRedisKey", nil, err)
	}
}

type PlatformStat struct {
	Platform    string          `json:"platform"`
	Count       int64           `json:"count"`
	TotalBudget decimal.Decimal `json:"total_budget"`
}

type ClientStat struct {
	Client      string          `json:"client"`
	Count       int64           `json:"count"`
	TotalBudget decimal.Decimal `json:"total_budget"`
}

type AnalyticsStats struct {
	TotalRecords  int64           `json:"total_records"`
	TotalBudget   decimal.Decimal `json:"total_budget"`
	PlatformStats []PlatformStat  `json:"platform_stats"`
	TopClients    []ClientStat    `json:"top_clients"`
}

func GetAnalyticsStats(ctx context.Context) (*AnalyticsStats, error) {
	db := config.GetDB()
	stats := &AnalyticsStats{}

	if err := db.WithContext(ctx).Model(&AnalyticsRecord{}).
		Count(&stats.TotalRecords).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&AnalyticsRecord{}).
		Select("COALESCE(SUM(budget), 0)").Scan(&stats.TotalBudget).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&AnalyticsRecord{}).
		Select("platform, COUNT(*) as count, SUM(budget) as total_budget").
		Group("platform").
		Scan(&stats.PlatformStats).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&AnalyticsRecord{}).
		Select("client, COUNT(*) as count, SUM(budget) as total_budget").
		Group("client").
		Order("total_budget DESC").
		Limit(5).
		Scan(&stats.TopClients).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
