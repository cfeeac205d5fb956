package fallback

import "time"

// CollectionBlob is one persisted collection for one owner, stored the same
// way the storefront keeps it in localStorage: a JSON array under a fixed key.
type CollectionBlob struct {
	OwnerKey   string    `gorm:"column:owner_key;primaryKey"`
	Collection string    `gorm:"column:collection;primaryKey"`
	Payload    []byte    `gorm:"column:payload"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

// TableName binds the model to the migration-owned table.
func (CollectionBlob) TableName() string {
	return "local_collections"
}
