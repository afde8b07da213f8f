package entity

import "time"

// Migration records every schema version applied to this database.
type Migration struct {
	Version   int `gorm:"primaryKey"`
	CreatedAt time.Time
}
