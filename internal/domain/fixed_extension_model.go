package domain

import (
	"strings"
	"time"
)

// FixedExtension is a curated extension that can be toggled on or off but is
// never deleted through normal operation. The seed set is inserted once at
// startup; only the Enabled flag changes afterwards.
type FixedExtension struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Extension   string    `gorm:"size:20;not null;uniqueIndex:idx_fixed_extension" json:"extension"`
	Enabled     bool      `gorm:"not null;default:false;index:idx_fixed_enabled" json:"enabled"`
	Description string    `gorm:"size:200" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func NewFixedExtension(extension string) FixedExtension {
	normalized := NormalizeExtension(extension)
	return FixedExtension{
		Extension:   normalized,
		Description: defaultDescription(normalized),
	}
}

func defaultDescription(ext string) string {
	switch ext {
	case "exe":
		return "Windows executable"
	case "bat", "cmd":
		return "Windows batch script"
	case "com":
		return "MS-DOS executable"
	case "scr":
		return "Windows screensaver"
	case "js":
		return "JavaScript file"
	case "cpl":
		return "Windows control panel item"
	default:
		return "System file"
	}
}

// NormalizeExtension lowercases, trims and strips a single leading dot so
// that ".EXE ", "exe" and "Exe" all resolve to the same registry key.
func NormalizeExtension(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimPrefix(normalized, ".")
}
