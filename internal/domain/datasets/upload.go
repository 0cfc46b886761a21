package datasets

import (
	"time"

	"github.com/google/uuid"
)

// Upload records the raw file behind a completed dataset.
type Upload struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DatasetID    *uuid.UUID `gorm:"type:uuid;index" json:"dataset_id,omitempty"`
	OriginalName string     `gorm:"column:original_name;not null" json:"original_name"`
	StoragePath  string     `gorm:"column:storage_path;not null" json:"storage_path"`
	FileSize     int64      `gorm:"column:file_size;not null" json:"file_size"`
	MimeType     string     `gorm:"column:mime_type" json:"mime_type"`
	Hash         string     `gorm:"column:hash;not null;index" json:"hash"`
	UploadedAt   time.Time  `gorm:"column:uploaded_at;not null" json:"uploaded_at"`
}

func (Upload) TableName() string { return "upload" }

type Download struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UploadID     uuid.UUID `gorm:"type:uuid;not null;index" json:"upload_id"`
	DownloadedAt time.Time `gorm:"column:downloaded_at;not null" json:"downloaded_at"`
	IPAddress    string    `gorm:"column:ip_address" json:"ip_address"`
}

func (Download) TableName() string { return "download" }
