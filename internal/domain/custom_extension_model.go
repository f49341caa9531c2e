package domain

import "time"

// CustomExtension is a user-submitted extension. It is always active while it
// exists; removing it from the blocklist means deleting the row.
type CustomExtension struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Extension string    `gorm:"size:20;not null;uniqueIndex:idx_custom_extension" json:"extension"`
	AddedBy   string    `gorm:"size:100" json:"addedBy"` // client IP or session identifier
	Note      string    `gorm:"size:200" json:"note"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_custom_created" json:"createdAt"`
}

func NewCustomExtension(extension, addedBy, note string) CustomExtension {
	return CustomExtension{
		Extension: NormalizeExtension(extension),
		AddedBy:   addedBy,
		Note:      note,
	}
}
