package datasets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Row is one data record. Position follows file order for ingested rows and
// is max+1 for rows added later.
type Row struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	DatasetID uuid.UUID         `gorm:"type:uuid;not null;index:idx_data_row_dataset_position,priority:1" json:"dataset_id"`
	Dataset   *Dataset          `gorm:"constraint:OnDelete:CASCADE;foreignKey:DatasetID;references:ID" json:"-"`
	Position  int64             `gorm:"column:position;not null;index:idx_data_row_dataset_position,priority:2" json:"position"`
	Data      datatypes.JSONMap `gorm:"column:data" json:"data"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Row) TableName() string { return "data_row" }

// Flatten returns the row payload with the row id under "id".
func (r *Row) Flatten() map[string]any {
	out := make(map[string]any, len(r.Data)+1)
	for k, v := range r.Data {
		out[k] = v
	}
	out["id"] = r.ID
	return out
}
