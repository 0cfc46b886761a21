package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/datagrid-backend/internal/domain/datasets"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&datasets.Dataset{},
		&datasets.Row{},
		&datasets.Upload{},
		&datasets.Download{},
	)
}
