package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdigital/analytics_backend/config"
	"github.com/mmdigital/analytics_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const RecordsPerPage = 50

// sentinel agency values that older imports may have left behind; the
// "direct" filter must keep matching them.
const unknownAgency = "Unknown Agency"

type AnalyticsRecord struct {
	ID         int             `gorm:"primary_key" json:"id"`
	Client     string          `gorm:"size:255;index;not null" json:"client"`
	Agency     string          `gorm:"size:255;not null;default:'direct'" json:"agency"`
	Budget     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"budget"`
	Platform   Platform        `gorm:"size:50;index;not null" json:"platform"`
	Country    string          `gorm:"size:100;index;not null" json:"country"`
	Date       *time.Time      `gorm:"type:date" json:"date"`
	SourceFile string          `gorm:"size:255;index;not null" json:"source_file"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// RecordPatch is the set of columns a re-import is allowed to overwrite.
// Date, client, platform, country and created_at stay untouched on update.
type RecordPatch struct {
	Agency     string
	Budget     decimal.Decimal
	SourceFile string
}

func FindBySourceFile(ctx context.Context, sourceFile string) ([]*AnalyticsRecord, error) {
	db := config.GetDB()
	var records []*AnalyticsRecord
	if err := db.WithContext(ctx).
		Where("source_file = ?", sourceFile).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func CreateAnalyticsRecord(ctx context.Context, record *AnalyticsRecord) error {
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(record).Error; err != nil {
		return err
	}
	InvalidateFilterOptions()
	return nil
}

func UpdateAnalyticsRecord(ctx context.Context, record *AnalyticsRecord, patch RecordPatch) error {
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(record).Updates(map[string]interface{}{
		"Agency":     patch.Agency,
		"Budget":     patch.Budget,
		"SourceFile": patch.SourceFile,
	}).Error; err != nil {
		return err
	}
	InvalidateFilterOptions()
	return nil
}

func DeleteAnalyticsRecord(ctx context.Context, id int) (*AnalyticsRecord, error) {
	db := config.GetDB()
	var record AnalyticsRecord
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(&record).Error; err != nil {
		return nil, err
	}
	InvalidateFilterOptions()
	return &record, nil
}

func ClearAnalyticsRecords(ctx context.Context) error {
	db := config.GetDB()
	if err := db.WithContext(ctx).Exec("TRUNCATE TABLE analytics_records").Error; err != nil {
		return err
	}
	InvalidateFilterOptions()
	return nil
}

// Store adapts the package-level CRUD functions to the importer's
// RecordStore interface.
type Store struct{}

func (Store) FindBySourceFile(ctx context.Context, sourceFile string) ([]*AnalyticsRecord, error) {
	return FindBySourceFile(ctx, sourceFile)
}

func (Store) Insert(ctx context.Context, record *AnalyticsRecord) error {
	return CreateAnalyticsRecord(ctx, record)
}

func (Store) Update(ctx context.Context, record *AnalyticsRecord, patch RecordPatch) error {
	return UpdateAnalyticsRecord(ctx, record, patch)
}
