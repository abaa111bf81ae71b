package db

import (
	"context"
	"fmt"
	"time"

	"device-lending-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemWarning records one device that could not follow the batch transition.
// Warnings never abort the list-level operation.
type ItemWarning struct {
	DeviceID string `json:"deviceId"`
	Serial   string `json:"serial"`
	Reason   string `json:"reason"`
}

// BatchResult summarizes a fulfillment transition over a list's items.
type BatchResult struct {
	List     *models.BorrowList `json:"list"`
	Affected int                `json:"affected"`
	Warnings []ItemWarning      `json:"warnings,omitempty"`
}

// MarkReady stages a Submitted request: a pure status flip, no device changes.
// The caller sends the "come pick it up" email after this commits.
func (r *Repo) MarkReady(ctx context.Context, listID string) (*models.BorrowList, error) {
	var ready *models.BorrowList
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list, err := lockList(tx, listID)
		if err != nil {
			return err
		}
		if !list.CanTransition(models.ListReady) {
			return fmt.Errorf("%w: list is %s, want %s", ErrInvalidState, list.Status, models.ListSubmitted)
		}
		list.Status = models.ListReady
		if err := tx.Save(list).Error; err != nil {
			return err
		}
		ready = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ready, nil
}

// MarkCompleted hands the reserved devices out: every item whose device is
// still Reserved flips to Borrowed with the student as borrower and gets a
// borrow ledger entry. Devices in any other state are skipped with a warning,
// since another admin may have pulled them out from under the request. The
// list itself always moves to Completed with the return deadline stamped, and
// the whole unit commits or rolls back together.
func (r *Repo) MarkCompleted(ctx context.Context, listID string, grace time.Duration) (*BatchResult, error) {
	var res *BatchResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list, err := lockList(tx, listID)
		if err != nil {
			return err
		}
		if !list.CanTransition(models.ListCompleted) {
			return fmt.Errorf("%w: list is %s, want %s", ErrInvalidState, list.Status, models.ListReady)
		}

		items, devices, err := lockListDevices(tx, list.ID)
		if err != nil {
			return err
		}

		now := r.now()
		deadline := now.Add(grace)
		out := &BatchResult{List: list}
		for _, it := range items {
			dev, ok := devices[it.DeviceID]
			if !ok {
				out.Warnings = append(out.Warnings, ItemWarning{DeviceID: it.DeviceID, Reason: "device no longer exists"})
				continue
			}
			if dev.Status != models.DeviceReserved {
				out.Warnings = append(out.Warnings, ItemWarning{
					DeviceID: dev.ID, Serial: dev.Serial,
					Reason: fmt.Sprintf("device is %s, expected %s", dev.Status, models.DeviceReserved),
				})
				continue
			}
			if err := tx.Model(&models.Device{}).
				Where("id = ?", dev.ID).
				Updates(map[string]any{
					"status":      models.DeviceBorrowed,
					"borrower_id": list.UserID,
				}).Error; err != nil {
				return err
			}
			ledger := &models.Transaction{
				ID:           uuid.NewString(),
				DeviceID:     dev.ID,
				UserID:       list.UserID,
				BorrowListID: &list.ID,
				Type:         models.TxBorrow,
				Notes:        fmt.Sprintf("Phiếu mượn #%s", shortID(list.ID)),
			}
			if err := tx.Create(ledger).Error; err != nil {
				return err
			}
			out.Affected++
		}

		list.Status = models.ListCompleted
		list.BorrowedAt = &now
		list.ReturnDeadline = &deadline
		if err := tx.Save(list).Error; err != nil {
			return err
		}
		res = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CancelRequest releases a Submitted or Ready request: reserved devices go
// back to Available, the list becomes Cancelled. Cancelled is terminal, so
// calling it twice is an invalid-state error.
func (r *Repo) CancelRequest(ctx context.Context, listID string) (*BatchResult, error) {
	var res *BatchResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list, err := lockList(tx, listID)
		if err != nil {
			return err
		}
		if !list.CanTransition(models.ListCancelled) {
			return fmt.Errorf("%w: list is %s, cannot cancel", ErrInvalidState, list.Status)
		}

		items, devices, err := lockListDevices(tx, list.ID)
		if err != nil {
			return err
		}

		out := &BatchResult{List: list}
		for _, it := range items {
			dev, ok := devices[it.DeviceID]
			if !ok || dev.Status != models.DeviceReserved {
				continue
			}
			if err := tx.Model(&models.Device{}).
				Where("id = ?", dev.ID).
				Update("status", models.DeviceAvailable).Error; err != nil {
				return err
			}
			out.Affected++
		}

		list.Status = models.ListCancelled
		if err := tx.Save(list).Error; err != nil {
			return err
		}
		res = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// MarkReturned closes out a Completed loan. Each device still Borrowed by this
// list's student goes back to Available with a return ledger entry; anything
// else (already returned ad hoc, re-borrowed, deleted) is a warning. The
// return is recorded on the list even under partial success.
func (r *Repo) MarkReturned(ctx context.Context, adminID, listID string) (*BatchResult, error) {
	var res *BatchResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list, err := lockList(tx, listID)
		if err != nil {
			return err
		}
		if list.Status != models.ListCompleted || list.ReturnedAt != nil {
			return fmt.Errorf("%w: list is not an open completed loan", ErrInvalidState)
		}

		items, devices, err := lockListDevices(tx, list.ID)
		if err != nil {
			return err
		}

		out := &BatchResult{List: list}
		for _, it := range items {
			dev, ok := devices[it.DeviceID]
			if !ok {
				out.Warnings = append(out.Warnings, ItemWarning{DeviceID: it.DeviceID, Reason: "device no longer exists"})
				continue
			}
			if dev.Status != models.DeviceBorrowed || dev.BorrowerID == nil || *dev.BorrowerID != list.UserID {
				out.Warnings = append(out.Warnings, ItemWarning{
					DeviceID: dev.ID, Serial: dev.Serial,
					Reason: "device is not borrowed by this student",
				})
				continue
			}
			if err := tx.Model(&models.Device{}).
				Where("id = ?", dev.ID).
				Updates(map[string]any{
					"status":      models.DeviceAvailable,
					"borrower_id": nil,
				}).Error; err != nil {
				return err
			}
			ledger := &models.Transaction{
				ID:           uuid.NewString(),
				DeviceID:     dev.ID,
				UserID:       adminID,
				BorrowListID: &list.ID,
				Type:         models.TxReturn,
				Notes:        fmt.Sprintf("Trả theo phiếu mượn #%s", shortID(list.ID)),
			}
			if err := tx.Create(ledger).Error; err != nil {
				return err
			}
			out.Affected++
		}

		now := r.now()
		list.ReturnedAt = &now
		if err := tx.Save(list).Error; err != nil {
			return err
		}
		res = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Queries

// GetList loads one list with user, items and devices, newest-first item order
// not applied here: items come back in insertion order.
func (r *Repo) GetList(ctx context.Context, listID string) (*models.BorrowList, error) {
	var list models.BorrowList
	err := r.DB.WithContext(ctx).
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("list_items.id ASC") }).
		Preload("Items.Device").
		First(&list, "id = ?", listID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &list, nil
}

type ListRequestsQuery struct {
	Status string // "", one of the BorrowList statuses, or "overdue"
	UserID string
	Page   int
	Size   int
}

type PagedLists struct {
	Total int64               `json:"total"`
	Lists []models.BorrowList `json:"lists"`
}

// ListRequests is the admin queue. "overdue" is a derived filter, computed in
// SQL from the same fields IsOverdue reads.
func (r *Repo) ListRequests(ctx context.Context, q ListRequestsQuery) (*PagedLists, error) {
	q.Page, q.Size = clampPage(q.Page, q.Size, 200)

	tx := r.DB.WithContext(ctx).Model(&models.BorrowList{})
	switch q.Status {
	case "":
		// everything except carts still being assembled
		tx = tx.Where("status <> ?", models.ListPending)
	case "overdue":
		tx = tx.Where(
			"status = ? AND returned_at IS NULL AND return_deadline < ?",
			models.ListCompleted, r.now(),
		)
	default:
		tx = tx.Where("status = ?", q.Status)
	}
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var lists []models.BorrowList
	if err := tx.
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("list_items.id ASC") }).
		Preload("Items.Device").
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&lists).Error; err != nil {
		return nil, err
	}
	return &PagedLists{Total: total, Lists: lists}, nil
}

// ListOverdueLists returns every completed, unreturned list past its deadline.
func (r *Repo) ListOverdueLists(ctx context.Context, now time.Time) ([]models.BorrowList, error) {
	var lists []models.BorrowList
	err := r.DB.WithContext(ctx).
		Preload("User").
		Preload("Items.Device").
		Where("status = ? AND returned_at IS NULL AND return_deadline < ?", models.ListCompleted, now).
		Order("return_deadline ASC").
		Find(&lists).Error
	return lists, err
}

// helpers

func lockList(tx *gorm.DB, listID string) (*models.BorrowList, error) {
	var list models.BorrowList
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&list, "id = ?", listID).Error; err != nil {
		return nil, translate(err)
	}
	return &list, nil
}

// lockListDevices loads the list's items in insertion order and locks their
// devices. Devices are locked in id order so two admins working overlapping
// lists cannot deadlock.
func lockListDevices(tx *gorm.DB, listID string) ([]models.ListItem, map[string]*models.Device, error) {
	var items []models.ListItem
	if err := tx.Where("borrow_list_id = ?", listID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.DeviceID)
	}
	devices := make(map[string]*models.Device, len(ids))
	if len(ids) == 0 {
		return items, devices, nil
	}
	var rows []models.Device
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	for i := range rows {
		devices[rows[i].ID] = &rows[i]
	}
	return items, devices, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
