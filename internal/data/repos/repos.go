package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/datagrid-backend/internal/data/repos/datasets"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

type DatasetRepo = datasets.DatasetRepo
type RowRepo = datasets.RowRepo
type UploadRepo = datasets.UploadRepo
type DownloadRepo = datasets.DownloadRepo

func NewDatasetRepo(db *gorm.DB, baseLog *logger.Logger) DatasetRepo {
	return datasets.NewDatasetRepo(db, baseLog)
}
func NewRowRepo(db *gorm.DB, baseLog *logger.Logger) RowRepo { return datasets.NewRowRepo(db, baseLog) }
func NewUploadRepo(db *gorm.DB, baseLog *logger.Logger) UploadRepo {
	return datasets.NewUploadRepo(db, baseLog)
}
func NewDownloadRepo(db *gorm.DB, baseLog *logger.Logger) DownloadRepo {
	return datasets.NewDownloadRepo(db, baseLog)
}
