package model

import "time"

// CollectionModel stores one collection as a JSON array document.
type CollectionModel struct {
	Kind      string    `gorm:"type:varchar(32);primary_key" json:"kind"`
	Data      string    `gorm:"type:text;not null" json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CollectionModel) TableName() string {
	return "planner_collections"
}
