package db

import (
	"context"

	"device-lending-api/models"
)

// The ledger is written only inside the borrow/return transactions in
// repo_cart.go, repo_fulfillment.go and repo_devices.go; this file is the
// read side.

func (r *Repo) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var txs []models.Transaction
	err := r.DB.WithContext(ctx).
		Preload("Device").
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (r *Repo) DeviceTransactions(ctx context.Context, deviceID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.DB.WithContext(ctx).
		Preload("User").
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}

func (r *Repo) UserTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.DB.WithContext(ctx).
		Preload("Device").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}

type PagedTransactions struct {
	Total        int64                `json:"total"`
	Transactions []models.Transaction `json:"transactions"`
}

func (r *Repo) ListTransactions(ctx context.Context, page, size int) (*PagedTransactions, error) {
	page, size = clampPage(page, size, 200)

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Transaction{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var txs []models.Transaction
	if err := r.DB.WithContext(ctx).
		Preload("Device").
		Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return &PagedTransactions{Total: total, Transactions: txs}, nil
}

func (r *Repo) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Transaction{}).Count(&n).Error
	return n, err
}

func (r *Repo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}
