package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"filegate/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrExtensionRequired     = errors.New("extension is required")
	ErrExtensionTooLong      = errors.New("extension exceeds the 20 character limit")
	ErrExtensionInvalid      = errors.New("extension may only contain letters and digits")
	ErrExtensionExists       = errors.New("extension is already registered")
	ErrExtensionLimitReached = errors.New("custom extension limit reached")
	ErrExtensionNotFound     = errors.New("extension not found")
)

const (
	maxCustomExtensions = 200
	maxExtensionLength  = 20
)

var extensionPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// seedExtensions is created once at startup if absent. Entries start
// disabled; the management surface toggles them.
var seedExtensions = []string{"bat", "cmd", "com", "cpl", "exe", "scr", "js"}

// SeedFixedExtensions inserts the curated seed list, skipping entries that
// already exist. Safe to run on every startup.
func SeedFixedExtensions() error {
	if DB == nil {
		return fmt.Errorf("extensions: database connection was not initialised")
	}

	for _, ext := range seedExtensions {
		var count int64
		if err := DB.Model(&domain.FixedExtension{}).
			Where("extension = ?", ext).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		record := domain.NewFixedExtension(ext)
		if err := DB.Create(&record).Error; err != nil {
			return err
		}
	}

	return nil
}

func ListFixedExtensions() ([]domain.FixedExtension, error) {
	if DB == nil {
		return nil, fmt.Errorf("extensions: database connection was not initialised")
	}

	var rows []domain.FixedExtension
	if err := DB.Order("extension ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func ListCustomExtensions() ([]domain.CustomExtension, error) {
	if DB == nil {
		return nil, fmt.Errorf("extensions: database connection was not initialised")
	}

	var rows []domain.CustomExtension
	if err := DB.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// EnabledFixedExtensionNames returns the extensions of every fixed entry
// whose block toggle is on.
func EnabledFixedExtensionNames(ctx context.Context) ([]string, error) {
	if DB == nil {
		return nil, fmt.Errorf("extensions: database connection was not initialised")
	}

	var names []string
	if err := DB.WithContext(ctx).Model(&domain.FixedExtension{}).
		Where("enabled = ?", true).
		Pluck("extension", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// CustomExtensionNames returns every custom extension; custom entries are
// always active while they exist.
func CustomExtensionNames(ctx context.Context) ([]string, error) {
	if DB == nil {
		return nil, fmt.Errorf("extensions: database connection was not initialised")
	}

	var names []string
	if err := DB.WithContext(ctx).Model(&domain.CustomExtension{}).
		Pluck("extension", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func CountCustomExtensions() (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("extensions: database connection was not initialised")
	}

	var count int64
	if err := DB.Model(&domain.CustomExtension{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExtensionExists reports whether the normalized extension is present in
// either registry.
func ExtensionExists(extension string) (bool, error) {
	if DB == nil {
		return false, fmt.Errorf("extensions: database connection was not initialised")
	}

	normalized := domain.NormalizeExtension(extension)

	var count int64
	if err := DB.Model(&domain.FixedExtension{}).
		Where("extension = ?", normalized).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	if err := DB.Model(&domain.CustomExtension{}).
		Where("extension = ?", normalized).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func FindFixedExtension(extension string) (*domain.FixedExtension, error) {
	if DB == nil {
		return nil, fmt.Errorf("extensions: database connection was not initialised")
	}

	normalized := domain.NormalizeExtension(extension)

	var row domain.FixedExtension
	if err := DB.Where("extension = ?", normalized).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExtensionNotFound
		}
		return nil, err
	}
	return &row, nil
}

// UpdateFixedExtensionEnabled toggles the block state of a fixed extension.
func UpdateFixedExtensionEnabled(extension string, enabled bool) (*domain.FixedExtension, error) {
	if DB == nil {
		return nil, fmt.Errorf("extensions: database connection was not initialised")
	}

	normalized := domain.NormalizeExtension(extension)

	var result *domain.FixedExtension
	err := DB.Transaction(func(tx *gorm.DB) error {
		var row domain.FixedExtension
		if err := tx.Where("extension = ?", normalized).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExtensionNotFound
			}
			return err
		}

		row.Enabled = enabled
		if err := tx.Save(&row).Error; err != nil {
			return err
		}

		result = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddCustomExtension validates and inserts a custom extension. All checks run
// inside one transaction so a concurrent insert cannot slip past the
// disjointness or capacity rules.
func AddCustomExtension(raw, addedBy, note string) (*domain.CustomExtension, error) {
	if DB == nil {
		return nil, fmt.Errorf("extensions: database connection was not initialised")
	}

	normalized := domain.NormalizeExtension(raw)
	if normalized == "" {
		return nil, ErrExtensionRequired
	}
	if len(normalized) > maxExtensionLength {
		return nil, ErrExtensionTooLong
	}
	if !extensionPattern.MatchString(normalized) {
		return nil, ErrExtensionInvalid
	}

	var result *domain.CustomExtension
	err := DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.CustomExtension{}).Count(&count).Error; err != nil {
			return err
		}
		if count >= maxCustomExtensions {
			return ErrExtensionLimitReached
		}

		if err := tx.Model(&domain.FixedExtension{}).
			Where("extension = ?", normalized).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrExtensionExists
		}

		if err := tx.Model(&domain.CustomExtension{}).
			Where("extension = ?", normalized).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrExtensionExists
		}

		row := domain.NewCustomExtension(normalized, addedBy, note)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		result = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteCustomExtension removes a custom extension by id, returning the
// extension string for the change notification.
func DeleteCustomExtension(id uint64) (string, error) {
	if DB == nil {
		return "", fmt.Errorf("extensions: database connection was not initialised")
	}

	var deleted string
	err := DB.Transaction(func(tx *gorm.DB) error {
		var row domain.CustomExtension
		if err := tx.First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExtensionNotFound
			}
			return err
		}

		if err := tx.Delete(&row).Error; err != nil {
			return err
		}

		deleted = row.Extension
		return nil
	})
	if err != nil {
		return "", err
	}
	return deleted, nil
}

// ExtensionStore adapts the package-level registry operations to the
// blocklist resolver's store interface.
type ExtensionStore struct{}

func (ExtensionStore) EnabledFixedExtensions(ctx context.Context) ([]string, error) {
	return EnabledFixedExtensionNames(ctx)
}

func (ExtensionStore) CustomExtensions(ctx context.Context) ([]string, error) {
	return CustomExtensionNames(ctx)
}
