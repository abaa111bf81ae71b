package db

import (
	"context"
	"strings"

	"device-lending-api/importer"
	"device-lending-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImportResult reports what one import file did. Skips are counted, never
// fatal; only a storage failure rolls the file back.
type ImportResult struct {
	Created          int      `json:"created"`
	SkippedMissing   int      `json:"skippedMissing"`
	SkippedDuplicate int      `json:"skippedDuplicate"`
	DuplicateSerials []string `json:"duplicateSerials,omitempty"`
}

// ImportDevices loads a batch of inventory rows in a single transaction.
// Serial uniqueness is checked case-insensitively against both the store and
// earlier rows of the same file; every created device starts Available.
func (r *Repo) ImportDevices(ctx context.Context, adminID string, rows []importer.Row) (*ImportResult, error) {
	res := &ImportResult{}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen := map[string]bool{}
		for _, row := range rows {
			name := strings.TrimSpace(row.Name)
			serial := models.NormalizeSerial(row.Serial)
			if name == "" || serial == "" {
				res.SkippedMissing++
				continue
			}
			if seen[serial] {
				res.SkippedDuplicate++
				res.DuplicateSerials = append(res.DuplicateSerials, serial)
				continue
			}
			seen[serial] = true

			var n int64
			if err := tx.Model(&models.Device{}).Where("serial = ?", serial).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				res.SkippedDuplicate++
				res.DuplicateSerials = append(res.DuplicateSerials, serial)
				continue
			}

			d := models.Device{
				ID:          uuid.NewString(),
				Name:        name,
				Serial:      serial,
				Category:    strings.TrimSpace(row.Category),
				Description: strings.TrimSpace(row.Description),
				Location:    strings.TrimSpace(row.Location),
				Unit:        strings.TrimSpace(row.Unit),
				Status:      models.DeviceAvailable,
				CreatedByID: &adminID,
			}
			applyDeviceDefaults(&d)
			if err := tx.Create(&d).Error; err != nil {
				return translate(err)
			}
			res.Created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
