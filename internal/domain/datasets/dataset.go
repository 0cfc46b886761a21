package datasets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusPending  = "pending"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Dataset is one ingested CSV file. Columns and RowCount are authoritative
// only once Status is complete.
type Dataset struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	OriginalName string                      `gorm:"column:original_name;not null" json:"original_name"`
	StoragePath  string                      `gorm:"column:storage_path;not null" json:"storage_path"`
	Columns      datatypes.JSONSlice[string] `gorm:"column:columns;not null" json:"columns"`
	RowCount     int64                       `gorm:"column:row_count;not null;default:0" json:"row_count"`
	Status       string                      `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Error        string                      `gorm:"column:error" json:"error,omitempty"`

	UploadedAt time.Time `gorm:"column:uploaded_at;not null;index" json:"uploaded_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (Dataset) TableName() string { return "dataset" }

func (d *Dataset) IsComplete() bool { return d != nil && d.Status == StatusComplete }

// ColumnNames never returns nil.
func (d *Dataset) ColumnNames() []string {
	if d == nil || len(d.Columns) == 0 {
		return []string{}
	}
	return []string(d.Columns)
}
