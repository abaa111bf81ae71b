package models

import "time"

const TransactionTable = "transactions"

const (
	TxBorrow = "borrow"
	TxReturn = "return"
)

// Transaction is one ledger entry. The ledger is append-only: rows are written
// inside the borrow/return transitions and never updated; the only delete path
// is the cascade when a device is removed.
type Transaction struct {
	ID           string  `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID     string  `gorm:"type:uuid;index;not null" json:"deviceId"`
	UserID       string  `gorm:"type:uuid;index;not null" json:"userId"`
	BorrowListID *string `gorm:"type:uuid;index" json:"borrowListId,omitempty"`
	Type         string  `gorm:"size:20;not null" json:"type"`
	Notes        string  `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	Device *Device `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE" json:"device,omitempty"`
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Transaction) TableName() string { return TransactionTable }
