package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/datagrid-backend/internal/data/repos"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

type Repos struct {
	Dataset  repos.DatasetRepo
	Row      repos.RowRepo
	Upload   repos.UploadRepo
	Download repos.DownloadRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Dataset:  repos.NewDatasetRepo(db, log),
		Row:      repos.NewRowRepo(db, log),
		Upload:   repos.NewUploadRepo(db, log),
		Download: repos.NewDownloadRepo(db, log),
	}
}
