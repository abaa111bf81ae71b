package db

import (
	"context"
	"fmt"
	"strings"

	"device-lending-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repo) CreateDevice(ctx context.Context, d *models.Device) error {
	d.Serial = models.NormalizeSerial(d.Serial)
	applyDeviceDefaults(d)
	return translate(r.DB.WithContext(ctx).Create(d).Error)
}

// CreateDeviceBatch inserts one device per serial under a shared name, the way
// the add-device form takes a pasted list of serials. Serials already present
// are reported back, not treated as a failure; the good rows commit together.
func (r *Repo) CreateDeviceBatch(ctx context.Context, template models.Device, serials []string) (added []models.Device, existing []string, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen := map[string]bool{}
		for _, raw := range serials {
			serial := models.NormalizeSerial(raw)
			if serial == "" || seen[serial] {
				continue
			}
			seen[serial] = true

			var n int64
			if err := tx.Model(&models.Device{}).Where("serial = ?", serial).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				existing = append(existing, serial)
				continue
			}

			d := template
			d.ID = uuid.NewString()
			d.Serial = serial
			d.Status = models.DeviceAvailable
			applyDeviceDefaults(&d)
			if err := tx.Create(&d).Error; err != nil {
				return translate(err)
			}
			added = append(added, d)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return added, existing, nil
}

func (r *Repo) FindDeviceByID(ctx context.Context, id string) (*models.Device, error) {
	var d models.Device
	if err := r.DB.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *Repo) FindDeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	var d models.Device
	if err := r.DB.WithContext(ctx).
		Where("serial = ?", models.NormalizeSerial(serial)).
		First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

type DeviceQuery struct {
	// Query matches name/serial when a single term; a comma- or
	// newline-separated input is treated as an exact serial list.
	Query    string
	Status   string
	Category string
	Page     int
	Size     int
}

type PagedDevices struct {
	Total   int64           `json:"total"`
	Devices []models.Device `json:"devices"`
}

func (r *Repo) ListDevices(ctx context.Context, q DeviceQuery) (*PagedDevices, error) {
	q.Page, q.Size = clampPage(q.Page, q.Size, 200)

	tx := r.DB.WithContext(ctx).Model(&models.Device{})

	if s := strings.TrimSpace(q.Query); s != "" {
		terms := splitSearchTerms(s)
		if len(terms) == 1 {
			like := "%" + strings.ToLower(terms[0]) + "%"
			tx = tx.Where("LOWER(name) LIKE ? OR LOWER(serial) LIKE ?", like, like)
		} else {
			tx = tx.Where("serial IN ?", terms)
		}
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}
	var devices []models.Device
	if err := tx.
		Order("name ASC, serial ASC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&devices).Error; err != nil {
		return nil, err
	}
	return &PagedDevices{Total: total, Devices: devices}, nil
}

// AllDevices backs the CSV export.
func (r *Repo) AllDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	err := r.DB.WithContext(ctx).Order("name ASC, serial ASC").Find(&devices).Error
	return devices, err
}

type UpdateDeviceInput struct {
	Name        string
	Serial      string
	Description string
	Category    string
	Unit        string
	Location    string
	Status      string // optional; only Available <-> Maintenance by hand
	ImageURL    *string
}

// UpdateDevice edits descriptive fields. A manual status override is accepted
// only between Available and Maintenance; Reserved/Borrowed belong to the
// lending flow and cannot be set by edit.
func (r *Repo) UpdateDevice(ctx context.Context, id string, in UpdateDeviceInput) (*models.Device, error) {
	var updated *models.Device
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&d, "id = ?", id).Error; err != nil {
			return translate(err)
		}

		if in.Status != "" && in.Status != d.Status {
			if !models.ValidDeviceStatus(in.Status) {
				return fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
			}
			manual := (d.Status == models.DeviceAvailable && in.Status == models.DeviceMaintenance) ||
				(d.Status == models.DeviceMaintenance && in.Status == models.DeviceAvailable)
			if !manual {
				return fmt.Errorf("%w: cannot set %s by edit while device is %s", ErrInvalidState, in.Status, d.Status)
			}
			d.Status = in.Status
		}

		d.Name = in.Name
		d.Serial = models.NormalizeSerial(in.Serial)
		d.Description = in.Description
		d.Category = in.Category
		d.Unit = in.Unit
		d.Location = in.Location
		if in.ImageURL != nil {
			d.ImageURL = *in.ImageURL
		}
		applyDeviceDefaults(&d)

		if err := tx.Save(&d).Error; err != nil {
			return translate(err)
		}
		updated = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDevice removes the device together with its ledger and any historical
// cart rows that still reference it. Devices sitting in someone's open flow
// cannot be deleted.
func (r *Repo) DeleteDevice(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&d, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if d.Status == models.DeviceReserved || d.Status == models.DeviceBorrowed {
			return fmt.Errorf("%w: device is %s", ErrInvalidState, d.Status)
		}
		// 旧购物单的 list_items 还引用这台设备，先清掉
		if err := tx.Where("device_id = ?", id).Delete(&models.ListItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("device_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Device{}, "id = ?", id).Error
	})
}

// BorrowDevice is the ad-hoc admin path: hand a single device straight to a
// user without a cart. Same lock discipline as the cart flow.
func (r *Repo) BorrowDevice(ctx context.Context, deviceID, borrowerID, note string) (*models.Transaction, error) {
	var ledger *models.Transaction
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&d, "id = ?", deviceID).Error; err != nil {
			return translate(err)
		}
		if d.Status != models.DeviceAvailable {
			return fmt.Errorf("%w: device %q is %s", ErrInvalidState, d.Serial, d.Status)
		}
		if err := tx.Model(&models.Device{}).
			Where("id = ?", deviceID).
			Updates(map[string]any{
				"status":      models.DeviceBorrowed,
				"borrower_id": borrowerID,
			}).Error; err != nil {
			return err
		}
		t := &models.Transaction{
			ID:       uuid.NewString(),
			DeviceID: deviceID,
			UserID:   borrowerID,
			Type:     models.TxBorrow,
			Notes:    note,
		}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		ledger = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// ReturnDevice is the ad-hoc counterpart: flip a Borrowed device back to
// Available and write the return entry under the acting user.
func (r *Repo) ReturnDevice(ctx context.Context, deviceID, actorID, note string) (*models.Transaction, error) {
	var ledger *models.Transaction
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&d, "id = ?", deviceID).Error; err != nil {
			return translate(err)
		}
		if d.Status != models.DeviceBorrowed {
			return fmt.Errorf("%w: device %q is %s", ErrInvalidState, d.Serial, d.Status)
		}
		if err := tx.Model(&models.Device{}).
			Where("id = ?", deviceID).
			Updates(map[string]any{
				"status":      models.DeviceAvailable,
				"borrower_id": nil,
			}).Error; err != nil {
			return err
		}
		t := &models.Transaction{
			ID:       uuid.NewString(),
			DeviceID: deviceID,
			UserID:   actorID,
			Type:     models.TxReturn,
			Notes:    note,
		}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		ledger = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// DeviceStats backs the dashboard counters.
type DeviceStats struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
	Reserved  int64 `json:"reserved"`
	Borrowed  int64 `json:"borrowed"`
}

func (r *Repo) CountDevices(ctx context.Context) (*DeviceStats, error) {
	var s DeviceStats
	tx := r.DB.WithContext(ctx).Model(&models.Device{})
	if err := tx.Count(&s.Total).Error; err != nil {
		return nil, err
	}
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	if err := r.DB.WithContext(ctx).Model(&models.Device{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		switch rw.Status {
		case models.DeviceAvailable:
			s.Available = rw.N
		case models.DeviceReserved:
			s.Reserved = rw.N
		case models.DeviceBorrowed:
			s.Borrowed = rw.N
		}
	}
	return &s, nil
}

func applyDeviceDefaults(d *models.Device) {
	if d.Category == "" {
		d.Category = models.DefaultCategory
	}
	if d.Location == "" {
		d.Location = models.DefaultLocation
	}
	if d.Unit == "" {
		d.Unit = models.DefaultUnit
	}
	if d.Status == "" {
		d.Status = models.DeviceAvailable
	}
}

// splitSearchTerms turns "A,B" or multi-line input into normalized serials.
func splitSearchTerms(s string) []string {
	normalized := strings.ReplaceAll(s, ",", "\n")
	var terms []string
	for _, line := range strings.Split(normalized, "\n") {
		if t := models.NormalizeSerial(line); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}
