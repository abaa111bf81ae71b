package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"device-lending-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddToCart reserves a device for the user's current cart: it locks the device
// row, verifies it is still Available, finds or creates the user's Pending
// list and inserts the item while flipping the device to Reserved. Two callers
// racing for the same device serialize on the row lock; the loser sees
// Reserved and gets ErrInvalidState.
func (r *Repo) AddToCart(ctx context.Context, userID, deviceID string) (*models.ListItem, error) {
	var created *models.ListItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			return translate(err)
		}
		// 管理员不走购物单，直接用 BorrowDevice
		if u.IsAdmin {
			return fmt.Errorf("%w: admins borrow directly, not through a list", ErrInvalidState)
		}

		var dev models.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&dev, "id = ?", deviceID).Error; err != nil {
			return translate(err)
		}
		if dev.Status != models.DeviceAvailable {
			return fmt.Errorf("%w: device %q is %s", ErrInvalidState, dev.Serial, dev.Status)
		}

		list, err := r.findOrCreatePendingList(tx, userID)
		if err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.ListItem{}).
			Where("borrow_list_id = ? AND device_id = ?", list.ID, deviceID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateItem
		}

		item := &models.ListItem{BorrowListID: list.ID, DeviceID: deviceID}
		if err := tx.Create(item).Error; err != nil {
			return translate(err)
		}
		if err := tx.Model(&models.Device{}).
			Where("id = ? AND status = ?", deviceID, models.DeviceAvailable).
			Update("status", models.DeviceReserved).Error; err != nil {
			return err
		}
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// findOrCreatePendingList runs inside the caller's transaction. Creation races
// lose on the partial unique index and surface as ErrConflict.
func (r *Repo) findOrCreatePendingList(tx *gorm.DB, userID string) (*models.BorrowList, error) {
	var list models.BorrowList
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ?", userID, models.ListPending).
		First(&list).Error
	if err == nil {
		return &list, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	list = models.BorrowList{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: models.ListPending,
	}
	if err := tx.Create(&list).Error; err != nil {
		return nil, translate(err)
	}
	return &list, nil
}

// RemoveFromCart deletes one item from the caller's Pending list and releases
// the device. Only the owner may remove, and only while the list is Pending.
func (r *Repo) RemoveFromCart(ctx context.Context, userID string, itemID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.ListItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&item, "id = ?", itemID).Error; err != nil {
			return translate(err)
		}
		var list models.BorrowList
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&list, "id = ?", item.BorrowListID).Error; err != nil {
			return translate(err)
		}
		if list.UserID != userID || list.Status != models.ListPending {
			return ErrForbidden
		}

		if err := tx.Delete(&models.ListItem{}, "id = ?", item.ID).Error; err != nil {
			return err
		}
		// 释放预留
		return tx.Model(&models.Device{}).
			Where("id = ? AND status = ?", item.DeviceID, models.DeviceReserved).
			Update("status", models.DeviceAvailable).Error
	})
}

// SubmitList freezes the caller's Pending cart into a Submitted request.
// The pickup date is required; validation happens in the controller so the
// repo only ever sees a parsed time.
func (r *Repo) SubmitList(ctx context.Context, userID string, expectedDate time.Time) (*models.BorrowList, error) {
	var submitted *models.BorrowList
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list models.BorrowList
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND status = ?", userID, models.ListPending).
			First(&list).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.ListItem{}).
			Where("borrow_list_id = ?", list.ID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrEmptyCart
		}

		list.Status = models.ListSubmitted
		list.ExpectedDate = &expectedDate
		if err := tx.Save(&list).Error; err != nil {
			return err
		}
		submitted = &list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return submitted, nil
}

// PendingList returns the caller's current cart with items and devices
// preloaded, or ErrNotFound when no cart exists yet.
func (r *Repo) PendingList(ctx context.Context, userID string) (*models.BorrowList, error) {
	var list models.BorrowList
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("list_items.id ASC") }).
		Preload("Items.Device").
		Where("user_id = ? AND status = ?", userID, models.ListPending).
		First(&list).Error
	if err != nil {
		return nil, translate(err)
	}
	return &list, nil
}

// PendingItemCount backs the cart badge in the UI.
func (r *Repo) PendingItemCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.ListItem{}).
		Joins("JOIN "+models.BorrowListTable+" bl ON bl.id = list_items.borrow_list_id").
		Where("bl.user_id = ? AND bl.status = ?", userID, models.ListPending).
		Count(&n).Error
	return n, err
}
