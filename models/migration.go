package models

import (
	"github.com/mmdigital/analytics_backend/config"
)

func MigrateModels() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&AnalyticsRecord{},
	)
}
